package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"barangay-services-backend/controllers"
	requesthandler "barangay-services-backend/lib/request"
	apimodels "barangay-services-backend/models/api"
)

type verifyApiController struct {
	controllers.BaseAPIController
}

// InitVerifyApiRouters mounts the anonymous certificate check, the QR code on
// an issued document points here.
func InitVerifyApiRouters(app *fiber.App) {
	controller := verifyApiController{}
	app.Route("verify", func(router fiber.Router) {
		router.Get(":code", controller.verify)
	})
}

// @Summary Verify an issued document
// @Tags Verification
// @Description Public check of a verification code, reports validity and expiry
// @Param   code   path   string   true   "verification code"
// @Success 200 {object} apimodels.Response{data=requestapimodels.VerificationView}
// @Failure 500 {object} apimodels.Response
// @router /api/v1/verify/{code} [get]
func (c *verifyApiController) verify(ctx *fiber.Ctx) error {
	code := ctx.Params("code")
	if code == "" {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError("verification code is missing in the path"))
	}
	view, err := requesthandler.Instance.Verify(code)
	if err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(view))
}
