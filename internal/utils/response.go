package utils

import "github.com/gofiber/fiber/v2"

const correlationHeader = "X-Correlation-ID"

// APIResponse is the envelope every endpoint answers with.
type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Meta      interface{} `json:"meta,omitempty"`
	Details   interface{} `json:"details,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// SendSuccess answers 200 with data.
func SendSuccess(c *fiber.Ctx, message string, data interface{}) error {
	return SendSuccessWithStatus(c, fiber.StatusOK, message, data)
}

// SendSuccessWithStatus answers with data under a caller-chosen status, e.g. 201 or 503 health.
func SendSuccessWithStatus(c *fiber.Ctx, status int, message string, data interface{}) error {
	if status == 0 {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(APIResponse{
		Success: status < fiber.StatusBadRequest,
		Message: defaultMessage(message, "success"),
		Data:    data,
	})
}

// OK answers 200 with data plus list metadata such as pagination.
func OK(c *fiber.Ctx, data interface{}, message string, meta interface{}) error {
	return c.Status(fiber.StatusOK).JSON(APIResponse{
		Success: true,
		Message: defaultMessage(message, "success"),
		Data:    data,
		Meta:    meta,
	})
}

// SendError answers with an error message and no details.
func SendError(c *fiber.Ctx, status int, message string) error {
	return Fail(c, status, message, nil)
}

// Fail answers with an error message and optional details, e.g. per-field validation tags.
// The correlation id of the request is echoed so clients can quote it.
func Fail(c *fiber.Ctx, status int, message string, details interface{}) error {
	return c.Status(status).JSON(APIResponse{
		Success:   false,
		Message:   defaultMessage(message, "error"),
		Details:   details,
		RequestID: string(c.Response().Header.Peek(correlationHeader)),
	})
}

func defaultMessage(message, fallback string) string {
	if message == "" {
		return fallback
	}
	return message
}
