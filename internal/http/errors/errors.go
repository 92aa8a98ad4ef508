// Package errors define la taxonomía de errores HTTP del servicio.
package errors

import (
	"errors"
	"net/http"

	svcauth "github.com/quickdeploy/auth-svc/internal/http/services/auth"
	jwtx "github.com/quickdeploy/auth-svc/internal/jwt"
	githuboauth "github.com/quickdeploy/auth-svc/internal/oauth/github"
)

// AppError es el error estándar de la aplicación.
type AppError struct {
	Code       string // código estable, machine-readable
	Desc       string // descripción para humanos
	HTTPStatus int
	Err        error // causa original, solo para logs
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Err.Error()
	}
	return e.Code
}

func (e *AppError) Unwrap() error { return e.Err }

// WithCause devuelve una COPIA con la causa adjunta (no muta el catálogo).
func (e *AppError) WithCause(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

// ───── catálogo ─────

var (
	ErrInvalidJSON = &AppError{Code: "invalid_json", Desc: "el cuerpo no es un JSON válido", HTTPStatus: http.StatusBadRequest}

	// Flujo de login.
	ErrMissingCode   = &AppError{Code: "missing_code", Desc: "falta el authorization code", HTTPStatus: http.StatusBadRequest}
	ErrInvalidState  = &AppError{Code: "invalid_state", Desc: "state inválido, expirado o reutilizado", HTTPStatus: http.StatusBadRequest}
	ErrUpstreamToken = &AppError{Code: "upstream_token_error", Desc: "GitHub rechazó el code (ya usado o expirado)", HTTPStatus: http.StatusUnauthorized}

	// Upstream.
	ErrUpstreamProfile     = &AppError{Code: "upstream_profile_error", Desc: "no se pudo obtener el perfil de GitHub", HTTPStatus: http.StatusBadGateway}
	ErrUpstreamUnavailable = &AppError{Code: "upstream_unavailable", Desc: "GitHub no disponible, reintentá", HTTPStatus: http.StatusBadGateway}

	// Sesión. Respuesta uniforme: no se distingue firma inválida de expiración.
	ErrUnauthenticated = &AppError{Code: "unauthenticated", Desc: "credencial ausente o inválida", HTTPStatus: http.StatusUnauthorized}

	ErrUserNotFound = &AppError{Code: "user_not_found", Desc: "usuario inexistente", HTTPStatus: http.StatusNotFound}
	ErrInternal     = &AppError{Code: "internal_error", Desc: "error interno", HTTPStatus: http.StatusInternalServerError}
)

// FromError mapea errores de capas internas a la taxonomía HTTP.
// Ningún error de transporte crudo llega al cliente.
func FromError(err error) *AppError {
	var appErr *AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, svcauth.ErrInvalidState):
		return ErrInvalidState.WithCause(err)
	case errors.Is(err, githuboauth.ErrMissingCode):
		return ErrMissingCode.WithCause(err)
	case errors.Is(err, githuboauth.ErrUpstreamToken):
		return ErrUpstreamToken.WithCause(err)
	case errors.Is(err, githuboauth.ErrUpstreamProfile):
		return ErrUpstreamProfile.WithCause(err)
	case errors.Is(err, githuboauth.ErrUpstreamUnavailable):
		return ErrUpstreamUnavailable.WithCause(err)
	case errors.Is(err, jwtx.ErrExpiredCredential), errors.Is(err, jwtx.ErrInvalidCredential):
		return ErrUnauthenticated.WithCause(err)
	default:
		return ErrInternal.WithCause(err)
	}
}
