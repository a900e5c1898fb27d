package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clipzipship/czs-admin/internal/usererr"
)

// RequireRole gates a route on a minimum role level for the API surface.
// Failures are returned as errors so the global handler renders the
// bilingual envelope.
func (s *Service) RequireRole(level int) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := s.Validate(c, level); err != nil {
				return err
			}
			return next(c)
		}
	}
}

// RequireRoleWeb is the web UI presentation of the same gate: insufficient
// privileges redirect to the denied page and an expired session to the
// expired page, in the language of the current URL. Every other token
// failure bubbles to the global handler like on the API surface.
func (s *Service) RequireRoleWeb(level int) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := s.Validate(c, level)
			if err == nil {
				return next(c)
			}

			var ue *usererr.Error
			if !errors.As(err, &ue) {
				return err
			}

			lang := LangFromURL(c)
			switch {
			case ue.Status == http.StatusForbidden:
				return c.Redirect(http.StatusFound, "/"+lang+"/denied")
			case ue.IsExpired():
				return c.Redirect(http.StatusFound,
					"/"+lang+"/expired?redirect_uri="+c.Request().URL.RequestURI())
			}
			return err
		}
	}
}

func LangFromURL(c echo.Context) string {
	if strings.Contains(c.Request().URL.Path, "/fr/") {
		return "fr"
	}
	return "en"
}

// CreateCookie builds the token cookie used by the web UI variant.
func CreateCookie(name, value, path string, exp time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     path,
		Expires:  exp,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

func DeleteCookie(name, path string) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}
