package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"barangay-services-backend/lib/utils/apperrors"
	apimodels "barangay-services-backend/models/api"
)

type BaseAPIController struct{}

func (c *BaseAPIController) BodyParser(ctx *fiber.Ctx, out interface{}) error {
	if err := ctx.BodyParser(out); err != nil {
		log.WithError(err).Error("request body parse failed")
		return errors.New("could not read the request body")
	}
	return nil
}

func (c *BaseAPIController) GetID(ctx *fiber.Ctx) (string, error) {
	id := ctx.Params("id")
	if id == "" {
		return "", errors.New("record id is missing in the path")
	}
	return id, nil
}

func (c *BaseAPIController) GetLogger(ctx *fiber.Ctx) *log.Entry {
	return log.
		WithField("method", ctx.Method()).
		WithField("path", ctx.Path())
}

// SendError maps the domain error taxonomy onto HTTP statuses. Anything
// outside the taxonomy is a 500 with a logged cause and an opaque body.
func (c *BaseAPIController) SendError(ctx *fiber.Ctx, err error) error {
	var (
		validationErr *apperrors.ValidationError
		transitionErr *apperrors.IllegalTransitionError
		conflictErr   *apperrors.ConflictError
		staleErr      *apperrors.StaleStateError
		timeoutErr    *apperrors.DependencyTimeoutError
		notFoundErr   *apperrors.NotFoundError
		forbiddenErr  *apperrors.ForbiddenError
	)
	switch {
	case errors.As(err, &forbiddenErr):
		return ctx.Status(fiber.StatusForbidden).JSON(apimodels.NewError(forbiddenErr.Error()))
	case errors.As(err, &validationErr):
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(validationErr.Error()))
	case errors.As(err, &transitionErr):
		return ctx.Status(fiber.StatusConflict).JSON(apimodels.NewError(transitionErr.Error()))
	case errors.As(err, &conflictErr):
		return ctx.Status(fiber.StatusConflict).JSON(apimodels.NewError(conflictErr.Error()))
	case errors.As(err, &staleErr):
		return ctx.Status(fiber.StatusConflict).JSON(apimodels.NewError(staleErr.Error()))
	case errors.As(err, &timeoutErr):
		return ctx.Status(fiber.StatusGatewayTimeout).JSON(apimodels.NewError(timeoutErr.Error()))
	case errors.As(err, &notFoundErr):
		return ctx.Status(fiber.StatusNotFound).JSON(apimodels.NewError(notFoundErr.Error()))
	default:
		c.GetLogger(ctx).WithError(err).Error("request failed")
		return ctx.Status(fiber.StatusInternalServerError).JSON(apimodels.NewError("internal error"))
	}
}
