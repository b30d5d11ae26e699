package mockapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Mount adiciona as rotas do mock no router. Os middlewares informados
// protegem apenas as rotas autenticadas.
func Mount(r chi.Router, handler *Handler, private ...func(http.Handler) http.Handler) {
	handler.RegisterRoutes(r)
	r.Group(func(pr chi.Router) {
		pr.Use(private...)
		handler.RegisterPrivateRoutes(pr)
	})
}
