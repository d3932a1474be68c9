package handler

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"taskhub-service/internal/apperr"
	"taskhub-service/pkg/logger"
	"taskhub-service/prometheus"
)

// Response is the envelope every operation returns.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func respond(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, Response{Success: true, Data: data})
}

func respondMessage(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, Response{Success: true, Message: message, Data: data})
}

// fail translates a service error into the envelope. Internal causes
// are logged for operators; clients only see the classified message.
func fail(c echo.Context, err error) error {
	e := apperr.From(err)
	if e.Kind == apperr.KindInternal {
		logger.FromContext(c).Error("Request failed", zap.Error(e))
	}
	if e.Reason != "" {
		prometheus.RecordAuthzDenial(e.Reason)
	}
	return c.JSON(e.HTTPStatus(), Response{Success: false, Message: e.Msg})
}
