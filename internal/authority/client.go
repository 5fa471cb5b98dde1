package authority

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Client é o wrapper tipado da autoridade remota de partidas/carteiras.
// Nenhuma chamada tem retry; política de repetição é responsabilidade do
// chamador. Em falha, nenhum efeito parcial deve ser assumido.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Tokens  TokenSource
}

func New(base string, timeout time.Duration, tokens TokenSource) *Client {
	return &Client{
		BaseURL: base,
		HTTP:    &http.Client{Timeout: timeout},
		Tokens:  tokens,
	}
}

// do executa a chamada com credencial bearer e devolve o corpo em caso de 2xx.
// Em status >= 300 tenta extrair {message} da autoridade, com fallback genérico.
func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	tok, err := c.Tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("session token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok)

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}

	if res.StatusCode >= 300 {
		var payload struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(data, &payload)
		return nil, &APIError{Status: res.StatusCode, Message: payload.Message}
	}

	return data, nil
}

// ListMatches aceita os dois formatos observados do backend:
// {matches: [...]} ou o array puro. Qualquer outro formato é erro.
func (c *Client) ListMatches(ctx context.Context) ([]Match, error) {
	data, err := c.do(ctx, http.MethodGet, "/matches", nil)
	if err != nil {
		return nil, err
	}
	return decodeList[Match](data, "matches")
}

func (c *Client) CreateMatch(ctx context.Context, spec MatchSpec) (Match, error) {
	data, err := c.do(ctx, http.MethodPost, "/matches", spec)
	if err != nil {
		return Match{}, err
	}
	var env struct {
		Match *Match `json:"match"`
	}
	if err := json.Unmarshal(data, &env); err != nil || env.Match == nil {
		return Match{}, ErrUnexpectedShape
	}
	return *env.Match, nil
}

func (c *Client) SetStatus(ctx context.Context, id string, status MatchStatus) (Match, error) {
	data, err := c.do(ctx, http.MethodPut, "/matches/"+url.PathEscape(id)+"/status", map[string]MatchStatus{"status": status})
	if err != nil {
		return Match{}, err
	}
	var env struct {
		Match *Match `json:"match"`
	}
	if err := json.Unmarshal(data, &env); err != nil || env.Match == nil {
		return Match{}, ErrUnexpectedShape
	}
	return *env.Match, nil
}

// DeclareResult publica o resultado de uma partida e devolve a mensagem da
// autoridade (ex.: confirmação de liquidação disparada).
func (c *Client) DeclareResult(ctx context.Context, id, outcome string) (string, error) {
	data, err := c.do(ctx, http.MethodPut, "/matches/"+url.PathEscape(id)+"/result", map[string]string{"result": outcome})
	if err != nil {
		return "", err
	}
	var env struct {
		Message *string `json:"message"`
	}
	if err := json.Unmarshal(data, &env); err != nil || env.Message == nil {
		return "", ErrUnexpectedShape
	}
	return *env.Message, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	data, err := c.do(ctx, http.MethodGet, "/users", nil)
	if err != nil {
		return nil, err
	}
	return decodeList[User](data, "users")
}

func (c *Client) CreateUser(ctx context.Context, spec UserSpec) (User, error) {
	data, err := c.do(ctx, http.MethodPost, "/users", spec)
	if err != nil {
		return User{}, err
	}
	var env struct {
		User *User `json:"user"`
	}
	if err := json.Unmarshal(data, &env); err != nil || env.User == nil {
		return User{}, ErrUnexpectedShape
	}
	return *env.User, nil
}

type ledgerRequest struct {
	UserID string  `json:"userId"`
	Amount float64 `json:"amount"`
}

func (c *Client) AddTokens(ctx context.Context, userID string, amount float64) (LedgerResult, error) {
	return c.ledgerOp(ctx, "/users/add-tokens", userID, amount)
}

func (c *Client) WithdrawTokens(ctx context.Context, userID string, amount float64) (LedgerResult, error) {
	return c.ledgerOp(ctx, "/users/withdraw-tokens", userID, amount)
}

func (c *Client) ledgerOp(ctx context.Context, path, userID string, amount float64) (LedgerResult, error) {
	data, err := c.do(ctx, http.MethodPost, path, ledgerRequest{UserID: userID, Amount: amount})
	if err != nil {
		return LedgerResult{}, err
	}
	var out struct {
		NewBalance  *float64     `json:"newBalance"`
		Transaction *Transaction `json:"transaction"`
	}
	if err := json.Unmarshal(data, &out); err != nil || out.NewBalance == nil {
		return LedgerResult{}, ErrUnexpectedShape
	}
	return LedgerResult{NewBalance: *out.NewBalance, Transaction: out.Transaction}, nil
}

func (c *Client) ListTransactions(ctx context.Context, userID string) ([]Transaction, error) {
	data, err := c.do(ctx, http.MethodGet, "/users/transactions/"+url.PathEscape(userID), nil)
	if err != nil {
		return nil, err
	}
	return decodeList[Transaction](data, "transactions")
}

// ListBets consulta a listagem administrativa; userID vazio lista tudo.
func (c *Client) ListBets(ctx context.Context, userID string) ([]Bet, error) {
	path := "/bets/admin/list"
	if userID != "" {
		path += "?userId=" + url.QueryEscape(userID)
	}
	data, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[Bet](data, "bets")
}

// decodeList normaliza {key: [...]} ou array puro; qualquer outro formato é
// ErrUnexpectedShape em vez de cadeia de fallback silenciosa.
func decodeList[T any](data []byte, key string) ([]T, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, ErrUnexpectedShape
		}
		return items, nil
	}

	var env map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, ErrUnexpectedShape
	}
	raw, ok := env[key]
	if !ok {
		return nil, ErrUnexpectedShape
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, ErrUnexpectedShape
	}
	return items, nil
}
