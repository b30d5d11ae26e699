package mockapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	httpmiddleware "github.com/ellp/mockapi/internal/http/middleware"
	"github.com/ellp/mockapi/internal/util"
)

// Handler expõe o Directory nas rotas REST consumidas pelo painel.
type Handler struct {
	dir          *Directory
	resetEnabled bool
}

func NewHandler(dir *Directory, resetEnabled bool) *Handler {
	return &Handler{dir: dir, resetEnabled: resetEnabled}
}

// RegisterRoutes monta as rotas públicas.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.handleLogin)
	r.Post("/auth/refresh", h.handleRefresh)

	r.Get("/users", h.handleListUsers)
	r.Get("/temas", h.handleListTemas)
	r.Get("/dashboard/metricas", h.handleDashboard)

	r.Route("/oficinas", func(r chi.Router) {
		r.Get("/", h.handleListOficinas)
		r.Post("/", h.handleCreateOficina)
		r.Get("/{id}", h.handleGetOficina)
	})

	r.Route("/certificados", func(r chi.Router) {
		r.Get("/", h.handleListCertificados)
		r.Get("/validar/{hash}", h.handleValidar)
		r.Get("/{id}", h.handleGetCertificado)
		r.Get("/{id}/download", h.handleDownload)
	})

	r.Post("/reset", h.handleReset)
	r.Post("/__reset", h.handleReset)
}

// RegisterPrivateRoutes monta as rotas que exigem bearer token.
// O chamador aplica httpmiddleware.Auth antes.
func (h *Handler) RegisterPrivateRoutes(r chi.Router) {
	r.Get("/auth/me", h.handleMe)
	r.Post("/auth/logout", h.handleLogout)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Credenciais inválidas")
		return
	}
	if strings.TrimSpace(payload.Email) == "" || payload.Password == "" {
		writeError(w, http.StatusBadRequest, "Credenciais inválidas")
		return
	}

	start := time.Now()
	result, err := h.dir.Authenticate(r.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "E-mail ou senha incorretos")
			return
		}
		writeInternalError(w, err)
		return
	}

	logRequest(r.Context(), "POST /auth/login", result.Usuario.ID, start)
	writeJSON(w, http.StatusOK, result.Tokens)
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || strings.TrimSpace(payload.RefreshToken) == "" {
		writeError(w, http.StatusBadRequest, "refresh_token obrigatório")
		return
	}

	tokens, err := h.dir.Refresh(r.Context(), payload.RefreshToken)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			writeError(w, http.StatusUnauthorized, "Refresh token inválido")
			return
		}
		writeInternalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokens)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.dir.ResolveUser(r.Context(), httpmiddleware.GetToken(r.Context()))
	if err != nil {
		handleDomainError(w, err, "Usuário não encontrado")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Payload inválido")
		return
	}

	ctx := r.Context()
	if err := h.dir.Logout(ctx, httpmiddleware.GetToken(ctx), payload.RefreshToken); err != nil {
		writeInternalError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.dir.ListUsers())
}

func (h *Handler) handleListTemas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.dir.ListTemas())
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.dir.DashboardMetrics())
}

func (h *Handler) handleListOficinas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.dir.ListOficinas())
}

func (h *Handler) handleGetOficina(w http.ResponseWriter, r *http.Request) {
	oficina, err := h.dir.GetOficina(chi.URLParam(r, "id"))
	if err != nil {
		handleDomainError(w, err, msgOficinaNaoEncontrada)
		return
	}
	writeJSON(w, http.StatusOK, oficina)
}

func (h *Handler) handleCreateOficina(w http.ResponseWriter, r *http.Request) {
	var payload *CreateOficinaPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload == nil {
		writeError(w, http.StatusBadRequest, "Payload inválido")
		return
	}
	if err := validateOficinaPayload(*payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	start := time.Now()
	oficina := h.dir.CreateOficina(*payload)
	logRequest(r.Context(), "POST /oficinas", oficina.ID, start)
	writeJSON(w, http.StatusCreated, oficina)
}

func validateOficinaPayload(p CreateOficinaPayload) error {
	checks := []error{
		util.RequireString(p.Titulo, "titulo"),
		util.RequireString(p.DataInicio, "data_inicio"),
		util.RequireString(p.DataFim, "data_fim"),
		util.RequireString(p.Local, "local"),
		util.RequireString(p.ProfessorID, "professor_id"),
		util.RequireNonNegative(p.CargaHoraria, "carga_horaria"),
		util.RequireNonNegative(p.CapacidadeMaxima, "capacidade_maxima"),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	if p.Status != nil && *p.Status != "" && !p.Status.Valid() {
		return errors.New("status inválido: " + string(*p.Status))
	}
	return nil
}

func (h *Handler) handleListCertificados(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.dir.ListCertificados())
}

func (h *Handler) handleGetCertificado(w http.ResponseWriter, r *http.Request) {
	cert, err := h.dir.GetCertificado(chi.URLParam(r, "id"))
	if err != nil {
		handleDomainError(w, err, msgCertificadoNaoEncontrado)
		return
	}
	writeJSON(w, http.StatusOK, cert)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	info, err := h.dir.DownloadInfo(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleDomainError(w, err, msgCertificadoNaoEncontrado)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (h *Handler) handleValidar(w http.ResponseWriter, r *http.Request) {
	validacao, err := h.dir.GetValidacao(chi.URLParam(r, "hash"))
	if err != nil {
		handleDomainError(w, err, msgCertificadoNaoEncontrado)
		return
	}
	writeJSON(w, http.StatusOK, validacao)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	if !h.resetEnabled {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	if err := h.dir.Reset(r.Context()); err != nil {
		writeInternalError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

const (
	msgCertificadoNaoEncontrado = "Certificado não encontrado"
	msgOficinaNaoEncontrada     = "Oficina não encontrada"
)

// handleDomainError traduz os sentinelas; notFound é a mensagem do recurso buscado.
func handleDomainError(w http.ResponseWriter, err error, notFound string) {
	switch {
	case errors.Is(err, ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "Sessão inválida")
	case errors.Is(err, ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "E-mail ou senha incorretos")
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, notFound)
	default:
		writeInternalError(w, err)
	}
}

func writeInternalError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("mockapi handler error")
	writeError(w, http.StatusInternalServerError, "Erro interno")
}

func logRequest(ctx context.Context, label, subject string, start time.Time) {
	reqID := chimiddleware.GetReqID(ctx)
	log.Info().Str("request_id", reqID).Str("subject", subject).Str("label", label).Dur("duration", time.Since(start)).Msg("mock_request")
}

type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}
