package http

import (
	"errors"
	"fmt"

	"github.com/creasty/defaults"
	"github.com/labstack/echo/v4"
)

// BindRequest decodes the request into req and applies `default` tags.
// Decoding problems come back as validation details so callers can answer 422.
func BindRequest(c echo.Context, req interface{}) []ValidationError {
	if err := c.Bind(req); err != nil {
		return decodeErrors(err)
	}
	if err := defaults.Set(req); err != nil {
		return decodeErrors(err)
	}
	return nil
}

func decodeErrors(err error) []ValidationError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := fmt.Sprintf("%v", he.Message)
		if he.Internal != nil {
			msg = he.Internal.Error()
		}
		return []ValidationError{{
			Code:    "ERR_DECODE",
			Message: msg,
		}}
	}

	return []ValidationError{{
		Code:    "ERR_UNKNOWN",
		Message: err.Error(),
	}}
}
