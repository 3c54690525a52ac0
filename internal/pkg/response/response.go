package response

import "github.com/gofiber/fiber/v3"

// SemanticResponse is the envelope every endpoint answers with, success or
// failure.
type SemanticResponse struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

const (
	MessageOK                  = "ok"
	MessageBadRequest          = "bad request"
	MessageUnauthorized        = "unauthorized"
	MessageForbidden           = "forbidden"
	MessageNotFound            = "not found"
	MessageConflict            = "conflict"
	MessageUnprocessableEntity = "unprocessable entity"
	MessageTooManyRequests     = "too many requests"
	MessageServiceUnavailable  = "service unavailable"
	MessageInternalServerError = "internal server error"
	MessageError               = "error"
)

func Success(c fiber.Ctx, status int, message string, data interface{}) error {
	return write(c, status, message, data)
}

func Error(c fiber.Ctx, status int, message string, data interface{}) error {
	return write(c, status, message, data)
}

func write(c fiber.Ctx, status int, message string, data interface{}) error {
	st := normalizeStatus(status)
	msg := message
	if msg == "" {
		msg = defaultMessageForStatus(st)
	}
	return c.Status(st).JSON(SemanticResponse{Status: st, Message: msg, Data: data})
}

func normalizeStatus(status int) int {
	if status < 100 || status > 599 {
		return fiber.StatusInternalServerError
	}
	return status
}

func defaultMessageForStatus(status int) string {
	switch status {
	case fiber.StatusOK, fiber.StatusCreated:
		return MessageOK
	case fiber.StatusBadRequest:
		return MessageBadRequest
	case fiber.StatusUnauthorized:
		return MessageUnauthorized
	case fiber.StatusForbidden:
		return MessageForbidden
	case fiber.StatusNotFound:
		return MessageNotFound
	case fiber.StatusConflict:
		return MessageConflict
	case fiber.StatusUnprocessableEntity:
		return MessageUnprocessableEntity
	case fiber.StatusTooManyRequests:
		return MessageTooManyRequests
	case fiber.StatusServiceUnavailable:
		return MessageServiceUnavailable
	default:
		if status >= 500 {
			return MessageInternalServerError
		}
		return MessageError
	}
}
