package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"barangay-services-backend/controllers"
	lifecyclehandler "barangay-services-backend/lib/lifecycle"
	requesthandler "barangay-services-backend/lib/request"
	"barangay-services-backend/middleware"
	apimodels "barangay-services-backend/models/api"
	requestapimodels "barangay-services-backend/models/api/request"
)

type requestApiController struct {
	controllers.BaseAPIController
}

func InitRequestApiRouters(app *fiber.App) {
	controller := requestApiController{}
	app.Route("requests", func(router fiber.Router) {
		router.Post("", controller.submit)
		router.Get("my", controller.my)
		router.Get(":id", controller.get)
		router.Post(":id/cancel", controller.cancel)
	})
}

// @Summary Submit a request
// @Tags Requests
// @Description Creates a pending request of any kind. Evidence ids come from the staged uploads
// @Param   Authorization   header   string   true   "Authorization token"
// @Param   body   body   requestapimodels.SubmitData   true   "request body"
// @Success 200 {object} apimodels.Response{data=requestapimodels.RequestView}
// @Failure 400 {object} apimodels.Response
// @Failure 409 {object} apimodels.Response
// @router /api/v1/requests [post]
func (c *requestApiController) submit(ctx *fiber.Ctx) error {
	var payload requestapimodels.SubmitData
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	view, err := requesthandler.Instance.Submit(middleware.GetPrincipal(ctx), payload)
	if err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(view))
}

// @Summary List own requests
// @Tags Requests
// @Param   Authorization   header   string   true   "Authorization token"
// @Success 200 {object} apimodels.Response{data=[]requestapimodels.RequestView}
// @Failure 500 {object} apimodels.Response
// @router /api/v1/requests/my [get]
func (c *requestApiController) my(ctx *fiber.Ctx) error {
	list, err := requesthandler.Instance.MyRequests(middleware.GetPrincipal(ctx))
	if err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(list))
}

// @Summary Request detail
// @Tags Requests
// @Description Full view with evidence grouped by requirement and the decision history
// @Param   Authorization   header   string   true   "Authorization token"
// @Param   id   path   string   true   "request id"
// @Success 200 {object} apimodels.Response{data=requestapimodels.RequestDetailView}
// @Failure 404 {object} apimodels.Response
// @router /api/v1/requests/{id} [get]
func (c *requestApiController) get(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	view, err := requesthandler.Instance.GetByID(middleware.GetPrincipal(ctx), id)
	if err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(view))
}

// @Summary Cancel an own pending request
// @Tags Requests
// @Param   Authorization   header   string   true   "Authorization token"
// @Param   id   path   string   true   "request id"
// @Success 200 {object} apimodels.Response{data=requestapimodels.RequestView}
// @Failure 403 {object} apimodels.Response
// @Failure 409 {object} apimodels.Response
// @router /api/v1/requests/{id}/cancel [post]
func (c *requestApiController) cancel(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	view, err := lifecyclehandler.Instance.Cancel(ctx.Context(), middleware.GetPrincipal(ctx), id)
	if err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(view))
}
