package dict

import (
	"github.com/gofiber/fiber/v2"

	"barangay-services-backend/controllers"
	barangayhandler "barangay-services-backend/lib/barangay"
	apimodels "barangay-services-backend/models/api"
)

type barangayApiController struct {
	controllers.BaseAPIController
}

func InitBarangayApiRouters(app *fiber.App) {
	controller := barangayApiController{}
	app.Route("barangays", func(router fiber.Router) {
		router.Get("", controller.list)
		router.Get(":id", controller.get)
	})
}

// @Summary List barangays
// @Tags Dictionaries
// @Param   Authorization   header   string   true   "Authorization token"
// @Success 200 {object} apimodels.Response{data=[]barangayhandler.BarangayView}
// @Failure 500 {object} apimodels.Response
// @router /api/v1/dict/barangays [get]
func (c *barangayApiController) list(ctx *fiber.Ctx) error {
	list, err := barangayhandler.Instance.List()
	if err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(list))
}

// @Summary Get a barangay
// @Tags Dictionaries
// @Param   Authorization   header   string   true   "Authorization token"
// @Param   id   path   string   true   "barangay id"
// @Success 200 {object} apimodels.Response{data=barangayhandler.BarangayView}
// @Failure 404 {object} apimodels.Response
// @router /api/v1/dict/barangays/{id} [get]
func (c *barangayApiController) get(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	view, err := barangayhandler.Instance.GetByID(id)
	if err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(view))
}
