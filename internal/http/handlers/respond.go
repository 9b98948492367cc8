package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"wedmarket/internal/domain"
	applog "wedmarket/internal/log"
)

var kindStatus = map[string]int{
	"not_found":                           fiber.StatusNotFound,
	"permission_denied":                   fiber.StatusForbidden,
	"invalid_input":                       fiber.StatusBadRequest,
	"upload_failed":                       fiber.StatusBadGateway,
	"create_failed":                       fiber.StatusBadGateway,
	"delete_failed":                       fiber.StatusBadGateway,
	"product_created_request_not_deleted": fiber.StatusMultiStatus,
}

func statusFor(err error) int {
	if s, ok := kindStatus[domain.KindOf(err)]; ok {
		return s
	}
	return fiber.StatusInternalServerError
}

// publicMessage hides driver and storage detail behind the kind's sentinel.
func publicMessage(err error) string {
	for _, k := range []error{
		domain.ErrProductCreatedRequestNotDeleted, domain.ErrCreateFailed, domain.ErrUploadFailed,
		domain.ErrDeleteFailed, domain.ErrPermissionDenied, domain.ErrNotFound,
	} {
		if errors.Is(err, k) {
			return k.Error()
		}
	}
	if errors.Is(err, domain.ErrInvalidInput) {
		return err.Error()
	}
	return "something went wrong"
}

func respond[T any](c *fiber.Ctx, data T) error {
	return c.JSON(domain.NewResult(data))
}

func respondCreated[T any](c *fiber.Ctx, data T) error {
	return c.Status(fiber.StatusCreated).JSON(domain.NewResult(data))
}

func fail(c *fiber.Ctx, action string, err error) error {
	status := statusFor(err)
	switch {
	case status >= 500:
		applog.Error(c, action, err, nil)
	case status == fiber.StatusBadRequest:
		applog.Security(c, "validation.fail", map[string]any{"action": action, "err": err.Error()})
	default:
		applog.Warn(c, action, err, nil)
	}
	return c.Status(status).JSON(domain.Fail(publicMessage(err), err))
}

// partial answers 207 with the data that was produced despite err.
func partial[T any](c *fiber.Ctx, action string, data T, err error) error {
	applog.Warn(c, action, err, nil)
	r := domain.Partial(data, err)
	r.Error = publicMessage(err)
	return c.Status(fiber.StatusMultiStatus).JSON(r)
}
