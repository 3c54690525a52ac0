package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"nutrisync/internal/logger"
	"nutrisync/internal/pkg/response"
)

type AppError struct {
	StatusCode int
	Message    string
	Data       interface{}
	Cause      error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func NewAppError(statusCode int, message string, data interface{}, cause error) *AppError {
	return &AppError{StatusCode: statusCode, Message: message, Data: data, Cause: cause}
}

type ErrorMiddleware struct {
	log logger.Logger
}

func NewErrorMiddleware(log logger.Logger) *ErrorMiddleware {
	if log == nil {
		log = logger.NewNop()
	}
	return &ErrorMiddleware{log: log}
}

func (m *ErrorMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				m.log.Error("panic recovered", "panic", r, "path", c.OriginalURL())
				err = response.Error(c, fiber.StatusInternalServerError, response.MessageInternalServerError, nil)
			}
		}()

		err = c.Next()
		if err == nil {
			return nil
		}

		status, msg, data := normalizeError(err)
		if status >= 500 {
			m.log.Error("request failed", "path", c.OriginalURL(), "error", err)
		}
		return response.Error(c, status, msg, data)
	}
}

func normalizeError(err error) (int, string, interface{}) {
	if err == nil {
		return fiber.StatusInternalServerError, response.MessageInternalServerError, nil
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.StatusCode <= 0 {
			return fiber.StatusInternalServerError, response.MessageInternalServerError, nil
		}

		status := appErr.StatusCode
		msg := appErr.Message
		if msg == "" {
			msg = defaultMessageForStatus(status)
		}

		if status >= 500 {
			return fiber.StatusInternalServerError, response.MessageInternalServerError, nil
		}
		return status, msg, appErr.Data
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		status := fiberErr.Code
		if status <= 0 {
			status = fiber.StatusInternalServerError
		}

		if status >= 500 {
			return fiber.StatusInternalServerError, response.MessageInternalServerError, nil
		}

		msg := fiberErr.Message
		if msg == "" {
			msg = defaultMessageForStatus(status)
		}
		return status, msg, nil
	}

	return fiber.StatusInternalServerError, response.MessageInternalServerError, nil
}

func defaultMessageForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return response.MessageBadRequest
	case fiber.StatusUnauthorized:
		return response.MessageUnauthorized
	case fiber.StatusForbidden:
		return response.MessageForbidden
	case fiber.StatusNotFound:
		return response.MessageNotFound
	case fiber.StatusConflict:
		return response.MessageConflict
	case fiber.StatusUnprocessableEntity:
		return response.MessageUnprocessableEntity
	default:
		if status >= 500 {
			return response.MessageInternalServerError
		}
		return response.MessageError
	}
}
