package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/ellp/mockapi/internal/auth"
	"github.com/ellp/mockapi/internal/util"
)

const defaultBaseURL = "http://localhost:8000"

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	_ = godotenv.Load()

	args := os.Args
	if len(args) == 1 {
		args = append(args, "--help")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := rootCommand().Run(ctx, args); err != nil {
		log.Fatal().Err(err).Msg("comando falhou")
	}
}

func rootCommand() *cli.Command {
	return &cli.Command{
		Name:  "mockctl",
		Usage: "Operações contra uma instância do mock API em execução",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Value:   defaultBaseURL,
				Usage:   "URL base do mock",
				Sources: cli.EnvVars("MOCK_API_URL"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "reset",
				Usage: "Reinicia o estado do mock",
				Action: func(ctx context.Context, c *cli.Command) error {
					if err := newClient(c.String("url")).Reset(ctx); err != nil {
						return err
					}
					fmt.Fprintln(c.Root().Writer, "estado reiniciado")
					return nil
				},
			},
			{
				Name:      "login",
				Usage:     "Autentica e imprime o par de tokens",
				ArgsUsage: "<email> <senha>",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 2 {
						return errors.New("informe e-mail e senha")
					}
					email := c.Args().Get(0)
					if err := util.ValidateEmail(email); err != nil {
						return err
					}
					tokens, err := newClient(c.String("url")).Login(ctx, email, c.Args().Get(1))
					if err != nil {
						return err
					}
					return printJSON(c.Root().Writer, tokens)
				},
			},
			{
				Name:      "me",
				Usage:     "Mostra o usuário dono do access token",
				ArgsUsage: "<access_token>",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 1 {
						return errors.New("informe o access token")
					}
					user, err := newClient(c.String("url")).Me(ctx, c.Args().First())
					if err != nil {
						return err
					}
					return printJSON(c.Root().Writer, user)
				},
			},
			{
				Name:      "hash",
				Usage:     "Gera hash argon2id de uma senha",
				ArgsUsage: "<senha>",
				Action: func(ctx context.Context, c *cli.Command) error {
					if c.Args().Len() != 1 {
						return errors.New("informe a senha")
					}
					hash, err := auth.Hash(c.Args().First())
					if err != nil {
						return fmt.Errorf("hash: %w", err)
					}
					fmt.Fprintln(c.Root().Writer, hash)
					return nil
				},
			},
		},
	}
}

// client fala com uma instância do mock já em execução.
type client struct {
	baseURL string
	http    *http.Client
}

func newClient(baseURL string) *client {
	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type apiError struct {
	Status int
	Detail string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Detail)
}

func (c *client) do(ctx context.Context, method, path, token string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var payload struct {
			Detail string `json:"detail"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		if payload.Detail == "" {
			payload.Detail = http.StatusText(resp.StatusCode)
		}
		return &apiError{Status: resp.StatusCode, Detail: payload.Detail}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *client) Reset(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/__reset", "", nil, nil)
}

func (c *client) Login(ctx context.Context, email, password string) (map[string]any, error) {
	var out map[string]any
	err := c.do(ctx, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, &out)
	return out, err
}

func (c *client) Me(ctx context.Context, token string) (map[string]any, error) {
	var out map[string]any
	err := c.do(ctx, http.MethodGet, "/auth/me", token, nil, &out)
	return out, err
}

func printJSON(w io.Writer, v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(output))
	return err
}
