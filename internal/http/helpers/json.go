// Package helpers agrupa utilidades de lectura/escritura JSON para handlers.
package helpers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/quickdeploy/auth-svc/internal/http/errors"
)

// WriteJSON: respuesta JSON estándar.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError escribe el error como JSON, adjuntando el request id si está.
func WriteError(w http.ResponseWriter, err error) {
	appErr := apperrors.FromError(err)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(struct {
		Error     string `json:"error"`
		Desc      string `json:"error_description,omitempty"`
		RequestID string `json:"request_id,omitempty"`
	}{
		Error:     appErr.Code,
		Desc:      appErr.Desc,
		RequestID: w.Header().Get("X-Request-ID"),
	})
}

// ReadJSON decodifica JSON de forma tolerante (no falla por campos
// desconocidos). Valida Content-Type y limita el body a 1MB.
// Devuelve false si ya escribió el error HTTP.
func ReadJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := strings.ToLower(r.Header.Get("Content-Type"))
	if !strings.Contains(ct, "application/json") {
		WriteError(w, apperrors.ErrInvalidJSON.WithCause(errors.New("content-type no soportado")))
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil && err != io.EOF {
		WriteError(w, apperrors.ErrInvalidJSON.WithCause(err))
		return false
	}
	return true
}
