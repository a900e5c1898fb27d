package usererr

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Envelope is the JSON error payload returned on every failed request.
// The dev_* fields are only populated when the application runs in DEV.
type Envelope struct {
	Status        int    `json:"status"`
	Title         string `json:"title"`
	Detail        string `json:"detail"`
	DetailFr      string `json:"detail_fr,omitempty"`
	DevDetail     string `json:"dev_detail,omitempty"`
	DevInnerCause string `json:"dev_inner_cause,omitempty"`
}

// HTTPErrorHandler converts errors bubbled out of handlers into the
// bilingual envelope. Expected *Error values keep their messages; echo's
// own routing errors are remapped onto the canned messages; anything else
// becomes an opaque 500 with the cause logged, never leaked.
func HTTPErrorHandler(dev bool, log *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var ue *Error
		if !errors.As(err, &ue) {
			var he *echo.HTTPError
			if errors.As(err, &he) {
				switch he.Code {
				case http.StatusNotFound:
					ue = NotFound()
				case http.StatusMethodNotAllowed:
					ue = MethodNotAllowed()
				case http.StatusBadRequest:
					ue = ParametersInvalid()
				case http.StatusTooManyRequests:
					ue = RateLimited("the limit")
				}
				if ue != nil {
					ue.Cause = err
				}
			}
		}

		if ue == nil {
			log.Error("unexpected_error", "path", c.Request().URL.Path, "error", err)
			res := Envelope{
				Status: http.StatusInternalServerError,
				Title:  "Internal Server Error",
				Detail: "Internal error",
			}
			if dev {
				res.DevDetail = err.Error()
				if cause := errors.Unwrap(err); cause != nil {
					res.DevInnerCause = cause.Error()
				}
			}
			_ = c.JSON(http.StatusInternalServerError, res)
			return
		}

		res := Envelope{
			Status:   ue.Status,
			Title:    ue.Title,
			Detail:   ue.Detail,
			DetailFr: ue.DetailFr,
		}
		if dev && ue.Cause != nil {
			res.DevInnerCause = ue.Cause.Error()
		}
		_ = c.JSON(ue.Status, res)
	}
}
