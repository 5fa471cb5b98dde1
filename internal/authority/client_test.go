package authority

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return New(srv.URL, 2*time.Second, StaticToken("tok-123")), srv
}

func TestListMatches_EnvelopeShape(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		w.Write([]byte(`{"matches":[{"_id":"m1","title":"Alpha vs Beta","status":"LIVE"}]}`))
	}))
	defer srv.Close()

	ms, err := c.ListMatches(context.Background())
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, "m1", ms[0].ID)
	assert.Equal(t, StatusLive, ms[0].Status)
}

func TestListMatches_BareArrayShape(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"_id":"m1","title":"Alpha vs Beta","status":"LOCKED"}]`))
	}))
	defer srv.Close()

	ms, err := c.ListMatches(context.Background())
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, StatusLocked, ms[0].Status)
}

func TestListMatches_UnexpectedShapeIsError(t *testing.T) {
	// formato fora do contrato: erro explícito, não lista vazia
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"whatever":1}}`))
	}))
	defer srv.Close()

	_, err := c.ListMatches(context.Background())
	assert.ErrorIs(t, err, ErrUnexpectedShape)
}

func TestRemoteError_CarriesAuthorityMessage(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message":"match already settled"}`))
	}))
	defer srv.Close()

	_, err := c.DeclareResult(context.Background(), "m1", "DRAW")
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "match already settled", apiErr.Error())
}

func TestRemoteError_GenericFallbackMessage(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`oops`))
	}))
	defer srv.Close()

	_, err := c.ListUsers(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "authority request failed (http 500)", apiErr.Error())
}

func TestDeclareResult_SendsResultPayload(t *testing.T) {
	var gotPath, gotBody string
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.Method + " " + r.URL.Path
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Write([]byte(`{"message":"result saved"}`))
	}))
	defer srv.Close()

	msg, err := c.DeclareResult(context.Background(), "m1", "Alpha")
	require.NoError(t, err)
	assert.Equal(t, "result saved", msg)
	assert.Equal(t, "PUT /matches/m1/result", gotPath)
	assert.JSONEq(t, `{"result":"Alpha"}`, gotBody)
}

func TestAddTokens_DecodesBalanceAndOptionalTransaction(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"newBalance":150,"transaction":{"_id":"t1","userId":"U1","type":"ADMIN_CREDIT","amount":50}}`))
	}))
	defer srv.Close()

	res, err := c.AddTokens(context.Background(), "U1", 50)
	require.NoError(t, err)
	assert.Equal(t, 150.0, res.NewBalance)
	require.NotNil(t, res.Transaction)
	assert.Equal(t, "ADMIN_CREDIT", res.Transaction.Type)
}

func TestAddTokens_TransactionOmitted(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"newBalance":75}`))
	}))
	defer srv.Close()

	res, err := c.WithdrawTokens(context.Background(), "U1", 25)
	require.NoError(t, err)
	assert.Equal(t, 75.0, res.NewBalance)
	assert.Nil(t, res.Transaction)
}

func TestAddTokens_MissingBalanceIsShapeError(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	_, err := c.AddTokens(context.Background(), "U1", 50)
	assert.ErrorIs(t, err, ErrUnexpectedShape)
}

func TestListBets_UserFilterOnQuery(t *testing.T) {
	var gotQuery string
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"bets":[{"_id":"b1","userId":"U1","stake":10,"win":0}]}`))
	}))
	defer srv.Close()

	bets, err := c.ListBets(context.Background(), "U1")
	require.NoError(t, err)
	require.Len(t, bets, 1)
	assert.Equal(t, "userId=U1", gotQuery)
}
