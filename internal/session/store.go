package session

import (
	"context"
	"errors"
	"time"

	"github.com/ellp/mockapi/internal/auth"
)

// ErrNotFound indica token ausente, revogado ou expirado.
var ErrNotFound = errors.New("sessão não encontrada")

// Store guarda as tabelas token → usuário, uma por tipo de token.
type Store interface {
	Save(ctx context.Context, kind auth.TokenKind, token, userID string, ttl time.Duration) error
	Lookup(ctx context.Context, kind auth.TokenKind, token string) (string, error)
	Delete(ctx context.Context, kind auth.TokenKind, token string) error
	Flush(ctx context.Context) error
}
