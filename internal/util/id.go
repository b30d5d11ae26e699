package util

import (
	"time"

	"github.com/google/uuid"
)

// NewID gera um identificador opaco (UUID v4).
func NewID() string {
	return uuid.NewString()
}

// Now devolve o instante atual em UTC.
func Now() time.Time {
	return time.Now().UTC()
}

// ISO formata datas no padrão usado pelo contrato JSON.
func ISO(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
