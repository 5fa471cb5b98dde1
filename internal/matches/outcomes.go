package matches

import (
	"errors"
	"regexp"
	"strings"
)

// Draw é o terceiro resultado sintético, sempre oferecido junto aos dois times.
const Draw = "DRAW"

var titleSep = regexp.MustCompile(`(?i)\s+vs\s+`)

var ErrBadTitle = errors.New("title does not split into two teams")

// OutcomeChoices deriva as opções de resultado do título da partida.
// O título precisa dividir em exatamente dois tokens não vazios no separador
// "vs" (sem distinção de maiúsculas); DRAW entra sempre por último.
func OutcomeChoices(title string) ([]string, error) {
	parts := titleSep.Split(title, -1)
	if len(parts) != 2 {
		return nil, ErrBadTitle
	}
	a := strings.TrimSpace(parts[0])
	b := strings.TrimSpace(parts[1])
	if a == "" || b == "" {
		return nil, ErrBadTitle
	}
	return []string{a, b, Draw}, nil
}
