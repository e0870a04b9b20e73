package profile

import (
	"bytes"

	"github.com/keycred/keycred/internal/models"
)

// Source supplies a FinancialProfile from an uploaded receipt. The
// scoring engine only ever sees the resulting profile, so a real
// extractor can replace either implementation without touching it.
type Source interface {
	Extract(data []byte) (models.FinancialProfile, error)
}

// Detect picks a Source for an upload: structured XML statements go to
// the statement parser, anything else falls back to the mock generator.
func Detect(data []byte) Source {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if bytes.HasPrefix(trimmed, []byte("<?xml")) || bytes.HasPrefix(trimmed, []byte("<statement")) {
		return NewStatementSource()
	}
	return NewMockSource()
}
