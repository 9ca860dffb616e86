package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/geocover/internal/core/domain"
	"github.com/samirrijal/geocover/internal/pkg/logging"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // malformed_input, invalid_geometry_kind, too_many_candidates, internal_error
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, fiber.StatusInternalServerError, domain.CodeInternal, msg)
}

// errFromDomain maps a decode or computation error to its HTTP response.
// Deadline errors are returned as-is so the timeout middleware answers 408.
func errFromDomain(c *fiber.Ctx, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	switch code := domain.ErrorCode(err); code {
	case domain.CodeMalformedInput:
		return newError(c, fiber.StatusBadRequest, code, err.Error())
	case domain.CodeInvalidGeometryKind, domain.CodeTooManyCandidates:
		return newError(c, fiber.StatusUnprocessableEntity, code, err.Error())
	default:
		logging.LoggerFromCtx(c.UserContext()).Error("coverage request failed", "error", err)
		return errInternal(c, "internal error")
	}
}
