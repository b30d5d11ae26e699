package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ellp/mockapi/internal/auth"
	"github.com/ellp/mockapi/internal/config"
	internalhttp "github.com/ellp/mockapi/internal/http"
	"github.com/ellp/mockapi/internal/mockapi"
	"github.com/ellp/mockapi/internal/session"
	"github.com/ellp/mockapi/internal/storage"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("api encerrada com erro")
	}
}

func run() error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)

	ctx := context.Background()

	deps := internalhttp.Deps{}

	var store session.Store = session.NewMemoryStore()
	if cfg.SessionStore == config.SessionStoreRedis {
		redisOpts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis parse: %w", err)
		}
		redisClient := redis.NewClient(redisOpts)
		defer redisClient.Close()

		store = session.NewRedisStore(redisClient)
		deps.Redis = redisClient
	}

	var minter auth.TokenMinter = auth.OpaqueMinter{}
	if cfg.TokenFormat == config.TokenFormatJWT {
		minter = auth.NewJWTMinter(auth.NewJWTManager(cfg.JWTSecret))
	}

	var locator storage.Locator
	switch cfg.Storage.Provider {
	case config.StorageS3:
		presigner, err := storage.NewS3Presigner(ctx, storage.S3Config{
			Endpoint:   cfg.Storage.S3Endpoint,
			Region:     cfg.Storage.S3Region,
			Bucket:     cfg.Storage.S3Bucket,
			Prefix:     cfg.Storage.S3Prefix,
			AccessKey:  cfg.Storage.S3AccessKey,
			SecretKey:  cfg.Storage.S3SecretKey,
			PresignTTL: cfg.Storage.PresignTTL,
		})
		if err != nil {
			return fmt.Errorf("storage s3: %w", err)
		}
		locator = presigner
	default:
		static, err := storage.NewStaticLocator(cfg.Storage.BaseURL)
		if err != nil {
			return fmt.Errorf("storage: %w", err)
		}
		locator = static
	}

	dir, err := mockapi.New(ctx, mockapi.Options{
		Store:      store,
		Minter:     minter,
		Locator:    locator,
		PDFBase:    cfg.Storage.BaseURL,
		AccessTTL:  cfg.TokenTTL,
		RefreshTTL: cfg.RefreshTTL,
	})
	if err != nil {
		return fmt.Errorf("mock: %w", err)
	}
	// Sessões em Redis sobrevivem ao processo; o estado em memória não.
	if err := store.Flush(ctx); err != nil {
		return fmt.Errorf("flush sessões: %w", err)
	}
	deps.Directory = dir

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           internalhttp.NewRouter(cfg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("tokens", cfg.TokenFormat).
			Str("sessoes", cfg.SessionStore).
			Str("storage", cfg.Storage.Provider).
			Msgf("mock API ouvindo em :%d", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("encerrando...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
