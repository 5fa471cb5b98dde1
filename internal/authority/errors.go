package authority

import (
	"errors"
	"fmt"
)

// ErrUnexpectedShape indica que a resposta da autoridade não corresponde a
// nenhum dos formatos documentados. Nada de fallback silencioso pra lista vazia.
var ErrUnexpectedShape = errors.New("unexpected response shape from authority")

// APIError carrega a mensagem de erro da autoridade quando presente.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("authority request failed (http %d)", e.Status)
}
