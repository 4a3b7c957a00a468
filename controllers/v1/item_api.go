package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"barangay-services-backend/controllers"
	itemhandler "barangay-services-backend/lib/item"
	"barangay-services-backend/middleware"
	apimodels "barangay-services-backend/models/api"
)

type itemApiController struct {
	controllers.BaseAPIController
}

func InitItemApiRouters(app *fiber.App) {
	controller := itemApiController{}
	app.Route("items", func(router fiber.Router) {
		router.Get("", controller.list)
		router.Get(":id", controller.get)
		staffOnly := router.Use(middleware.StaffRequired())
		staffOnly.Post("", controller.create)
	})
}

// @Summary List loanable items
// @Tags Items
// @Param   Authorization   header   string   true   "Authorization token"
// @Param   available   query   bool   false   "available items only"
// @Success 200 {object} apimodels.Response{data=[]itemhandler.ItemView}
// @Failure 500 {object} apimodels.Response
// @router /api/v1/items [get]
func (c *itemApiController) list(ctx *fiber.Ctx) error {
	principal := middleware.GetPrincipal(ctx)
	list, err := itemhandler.Instance.List(principal.BarangayID, ctx.QueryBool("available"))
	if err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(list))
}

// @Summary Get a loanable item
// @Tags Items
// @Param   Authorization   header   string   true   "Authorization token"
// @Param   id   path   string   true   "item id"
// @Success 200 {object} apimodels.Response{data=itemhandler.ItemView}
// @Failure 404 {object} apimodels.Response
// @router /api/v1/items/{id} [get]
func (c *itemApiController) get(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	view, err := itemhandler.Instance.GetByID(id)
	if err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(view))
}

// @Summary Register a loanable item
// @Tags Items
// @Param   Authorization   header   string   true   "Authorization token"
// @Param   body   body   itemhandler.ItemData   true   "request body"
// @Success 200 {object} apimodels.Response{data=itemhandler.ItemView}
// @Failure 400 {object} apimodels.Response
// @router /api/v1/items [post]
func (c *itemApiController) create(ctx *fiber.Ctx) error {
	var payload itemhandler.ItemData
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	view, err := itemhandler.Instance.Create(middleware.GetPrincipal(ctx), payload)
	if err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(view))
}
