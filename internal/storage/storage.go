package storage

import (
	"context"
	"errors"
	"net/url"
	"path"
	"strings"
)

// DefaultBaseURL é o bucket público usado pelos PDFs do seed.
const DefaultBaseURL = "https://storage.ellp.dev/certificados"

// Locator resolve a URL de download de um objeto armazenado.
type Locator interface {
	Locate(ctx context.Context, key string) (string, error)
}

// StaticLocator concatena a chave a uma base pública fixa.
type StaticLocator struct {
	base *url.URL
}

// NewStaticLocator valida a base e cria o locator.
func NewStaticLocator(base string) (*StaticLocator, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, errors.New("storage: base precisa ser URL absoluta")
	}
	return &StaticLocator{base: u}, nil
}

// Locate devolve base + "/" + key.
func (l *StaticLocator) Locate(_ context.Context, key string) (string, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", errors.New("storage: chave do objeto obrigatória")
	}
	u := *l.base
	u.Path = path.Join(u.Path, key)
	return u.String(), nil
}
