package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/ellp/mockapi/internal/config"
	httpmiddleware "github.com/ellp/mockapi/internal/http/middleware"
	"github.com/ellp/mockapi/internal/mockapi"
)

// Pinger é o subconjunto do cliente Redis usado pelo /ready.
type Pinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// Deps agrupa o que o roteador precisa receber de cmd/api.
type Deps struct {
	Directory *mockapi.Directory
	// Redis é opcional; nil quando as sessões ficam em memória.
	Redis Pinger
}

type Handler struct {
	redis         Pinger
	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
}

// NewRouter devolve roteador configurado.
func NewRouter(cfg *config.Config, deps Deps) http.Handler {
	h := &Handler{
		redis:         deps.Redis,
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
	}
	mockHandler := mockapi.NewHandler(deps.Directory, cfg.EnableReset)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	r.Group(func(public chi.Router) {
		public.Use(httpmiddleware.IPRateLimit(h.publicLimiter))

		public.Get("/health", h.Health)
		public.Get("/ready", h.Ready)

		mockapi.Mount(public, mockHandler,
			httpmiddleware.Auth(deps.Directory),
			httpmiddleware.UserRateLimit(h.authLimiter),
		)
	})

	return r
}

// Health responde status simples.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready valida a conexão com o Redis quando ele guarda as sessões.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.redis == nil {
		WriteJSON(w, http.StatusOK, map[string]bool{"ready": true})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.redis.Ping(ctx).Err(); err != nil {
		WriteError(w, http.StatusServiceUnavailable, "redis indisponível: "+err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ready": true})
}
