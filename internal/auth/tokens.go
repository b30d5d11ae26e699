package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TokenKind distingue tokens de acesso e de refresh.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// ErrMalformedToken indica token com formato irreconhecível.
var ErrMalformedToken = errors.New("token malformado")

// TokenMinter emite tokens novos e faz a checagem estrutural dos recebidos.
// A associação token → usuário fica no session.Store.
type TokenMinter interface {
	Mint(userID string, kind TokenKind, ttl time.Duration) (string, error)
	Check(token string, kind TokenKind) error
}

// OpaqueMinter gera identificadores aleatórios prefixados pelo tipo.
type OpaqueMinter struct{}

func (OpaqueMinter) Mint(_ string, kind TokenKind, _ time.Duration) (string, error) {
	return fmt.Sprintf("mock-%s-%s", kind, uuid.NewString()), nil
}

func (OpaqueMinter) Check(token string, kind TokenKind) error {
	if !strings.HasPrefix(token, "mock-"+string(kind)+"-") {
		return ErrMalformedToken
	}
	return nil
}

// JWTMinter emite tokens assinados; a expiração é verificada no parse.
type JWTMinter struct {
	jwt *JWTManager
}

// NewJWTMinter cria minter baseado em JWT HS256.
func NewJWTMinter(m *JWTManager) *JWTMinter {
	return &JWTMinter{jwt: m}
}

func (m *JWTMinter) Mint(userID string, kind TokenKind, ttl time.Duration) (string, error) {
	return m.jwt.Generate(userID, kind, ttl)
}

func (m *JWTMinter) Check(token string, kind TokenKind) error {
	claims, err := m.jwt.ParseAndValidate(token)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if claims.Kind != kind {
		return ErrMalformedToken
	}
	return nil
}
