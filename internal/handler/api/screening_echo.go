package api

import (
	"errors"

	"DiabScreen/internal/domain/models"
	"DiabScreen/internal/usecase"
	xhttp "DiabScreen/pkg/http"
	"DiabScreen/pkg/http/middleware"
	xlogger "DiabScreen/pkg/logger"

	"github.com/labstack/echo/v4"
)

const rootMessage = "Diabetes Screening API is running"

// ScreeningEchoHandler serves the screening API.
type ScreeningEchoHandler struct {
	logger   *xlogger.Logger
	screener *usecase.Screener
	limiter  middleware.Allower
}

// NewScreeningEchoHandler builds the handler. limiter may be nil to disable throttling.
func NewScreeningEchoHandler(logger *xlogger.Logger, screener *usecase.Screener, limiter middleware.Allower) *ScreeningEchoHandler {
	return &ScreeningEchoHandler{logger: logger.Named("api"), screener: screener, limiter: limiter}
}

func (h *ScreeningEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Root)
	e.GET("/health", h.Health)
	e.POST("/screen-diabetes", h.Screen, middleware.RateLimit(h.logger, h.limiter, "screen"))
}

func (h *ScreeningEchoHandler) Root(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]string{"message": rootMessage})
}

func (h *ScreeningEchoHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.screener.Health())
}

func (h *ScreeningEchoHandler) Screen(c echo.Context) error {
	req := &models.ScreeningRequest{}
	if verr := xhttp.BindRequest(c, req); verr != nil {
		return xhttp.UnprocessableResponse(c, verr)
	}

	res, err := h.screener.Screen(c.Request().Context(), req)
	if err != nil {
		return h.fail(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ScreeningEchoHandler) fail(c echo.Context, err error) error {
	var (
		verr *models.ValidationError
		serr *models.ScoringError
	)
	switch {
	case errors.As(err, &verr):
		return xhttp.UnprocessableResponse(c, violations(verr))
	case errors.Is(err, usecase.ErrNotReady):
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError(err.Error()))
	case errors.As(err, &serr):
		return xhttp.AppErrorResponse(c, xhttp.InternalError("diabetes risk could not be computed").WithError(err))
	default:
		h.logger.Error("screening usecase error", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
}

func violations(e *models.ValidationError) []xhttp.ValidationError {
	out := make([]xhttp.ValidationError, 0, len(e.Violations))
	for _, v := range e.Violations {
		out = append(out, xhttp.ValidationError{
			Code:    v.Code,
			Field:   v.Field,
			Message: v.Message,
			Params:  v.Params,
		})
	}
	return out
}
