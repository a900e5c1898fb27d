package usererr

import (
	"fmt"
	"net/http"
	"strings"
)

// Error is an expected, user-facing error. It carries an HTTP status and
// both an English and a French message; everything else in the application
// is treated as an unexpected failure and rendered as an opaque 500.
type Error struct {
	Status   int
	Title    string
	Detail   string
	DetailFr string
	Cause    error

	expired bool
}

// IsExpired reports whether this is the expired-token error. The web UI
// gate redirects to the session-expired page on it instead of rendering
// the envelope.
func (e *Error) IsExpired() bool { return e.expired }

func (e *Error) Error() string {
	return "ENG: " + e.Detail + " | FR: " + e.DetailFr
}

func (e *Error) Unwrap() error { return e.Cause }

func New(status int, detail, detailFr string) *Error {
	return &Error{
		Status:   status,
		Title:    titleFor(status),
		Detail:   detail,
		DetailFr: detailFr,
	}
}

func Wrap(status int, detail, detailFr string, cause error) *Error {
	e := New(status, detail, detailFr)
	e.Cause = cause
	return e
}

func titleFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "Bad Request"
	case http.StatusUnauthorized:
		return "Unauthorized"
	case http.StatusForbidden:
		return "Forbidden"
	case http.StatusNotFound:
		return "Not Found"
	case http.StatusMethodNotAllowed:
		return "Method Not Allowed"
	case http.StatusTooManyRequests:
		return "Too Many Requests"
	case http.StatusInternalServerError:
		return "Internal Server Error"
	default:
		return "Error"
	}
}

func ParametersInvalid() *Error {
	return New(http.StatusBadRequest, "Invalid parameters", "Paramètres invalides")
}

func TokenMissing() *Error {
	return New(http.StatusUnauthorized, "Token is missing", "Le jeton est manquant")
}

func TokenInvalid() *Error {
	return New(http.StatusUnauthorized, "Token is invalid", "Le jeton est invalide")
}

func TokenExpired() *Error {
	e := New(http.StatusUnauthorized, "Token has expired", "Le jeton est expiré")
	e.expired = true
	return e
}

func TokenRevoked() *Error {
	return New(http.StatusUnauthorized, "Token has been revoked", "Le jeton a été supprimé")
}

func TokenInsufficient() *Error {
	return New(http.StatusForbidden, "Insufficient privileges", "Privilèges insuffisants")
}

func NotFound() *Error {
	return New(http.StatusNotFound, "URL or information not found", "URL ou information introuvable")
}

func MethodNotAllowed() *Error {
	return New(http.StatusMethodNotAllowed,
		"The method is not allowed for the requested URL",
		"Méthode d'appel défendu pour l'URL demandé")
}

func RateLimited(reason string) *Error {
	return New(http.StatusTooManyRequests,
		fmt.Sprintf("You've sent too many requests. Do not go over %s.", reason),
		fmt.Sprintf("Vous avez effectué trop de requêtes. Ne dépassez pas %s.",
			strings.ReplaceAll(reason, "per", "par")))
}
