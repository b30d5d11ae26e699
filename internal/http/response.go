package http

import (
	"encoding/json"
	"net/http"
)

// ErrorBody é o formato de falha esperado pelo painel.
type ErrorBody struct {
	Detail string `json:"detail"`
}

// WriteJSON escreve o payload sem envelope.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError escreve {"detail": "..."}.
func WriteError(w http.ResponseWriter, status int, detail string) {
	WriteJSON(w, status, ErrorBody{Detail: detail})
}
