package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"barangay-services-backend/controllers"
	categoryhandler "barangay-services-backend/lib/category"
	"barangay-services-backend/middleware"
	"barangay-services-backend/models"
	apimodels "barangay-services-backend/models/api"
	categoryapimodels "barangay-services-backend/models/api/category"
)

type categoryApiController struct {
	controllers.BaseAPIController
}

func InitCategoryApiRouters(app *fiber.App) {
	controller := categoryApiController{}
	app.Route("categories", func(router fiber.Router) {
		router.Get("", controller.list)
		router.Get(":id", controller.get)
		adminOnly := router.Use(middleware.AdminRequired())
		adminOnly.Post("", controller.create)
		adminOnly.Put(":id", controller.update)
		adminOnly.Put(":id/active", controller.setActive)
		adminOnly.Delete(":id", controller.delete)
		adminOnly.Post("bulk-delete", controller.bulkDelete)
	})
}

// @Summary List service categories
// @Tags Categories
// @Description List service categories, optionally filtered by kind. Residents see active ones only
// @Param   Authorization   header   string   true   "Authorization token"
// @Param   kind   query   string   false   "request kind"
// @Success 200 {object} apimodels.Response{data=[]categoryapimodels.CategoryView}
// @Failure 500 {object} apimodels.Response
// @router /api/v1/categories [get]
func (c *categoryApiController) list(ctx *fiber.Ctx) error {
	kind := models.RequestKind(ctx.Query("kind"))
	activeOnly := !middleware.GetPrincipal(ctx).IsStaff()
	list, err := categoryhandler.Instance.List(kind, activeOnly)
	if err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(list))
}

// @Summary Get a category
// @Tags Categories
// @Param   Authorization   header   string   true   "Authorization token"
// @Param   id   path   string   true   "category id"
// @Success 200 {object} apimodels.Response{data=categoryapimodels.CategoryView}
// @Failure 404 {object} apimodels.Response
// @router /api/v1/categories/{id} [get]
func (c *categoryApiController) get(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	view, err := categoryhandler.Instance.GetByID(id)
	if err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(view))
}

// @Summary Create a category
// @Tags Categories
// @Param   Authorization   header   string   true   "Authorization token"
// @Param   body   body   categoryapimodels.CategoryData   true   "request body"
// @Success 200 {object} apimodels.Response{data=categoryapimodels.CategoryView}
// @Failure 400 {object} apimodels.Response
// @router /api/v1/categories [post]
func (c *categoryApiController) create(ctx *fiber.Ctx) error {
	var payload categoryapimodels.CategoryData
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	view, err := categoryhandler.Instance.Create(payload)
	if err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(view))
}

// @Summary Update a category
// @Tags Categories
// @Description Requirement edits under open requests need migrate_requirements=true
// @Param   Authorization   header   string   true   "Authorization token"
// @Param   id   path   string   true   "category id"
// @Param   body   body   categoryapimodels.CategoryEditData   true   "request body"
// @Success 200 {object} apimodels.Response{data=categoryapimodels.CategoryView}
// @Failure 400 {object} apimodels.Response
// @Failure 409 {object} apimodels.Response
// @router /api/v1/categories/{id} [put]
func (c *categoryApiController) update(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload categoryapimodels.CategoryEditData
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	view, err := categoryhandler.Instance.Update(id, payload)
	if err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(view))
}

type setActiveData struct {
	Active bool `json:"active"`
}

// @Summary Open or close category intake
// @Tags Categories
// @Param   Authorization   header   string   true   "Authorization token"
// @Param   id   path   string   true   "category id"
// @Success 200 {object} apimodels.Response{data=categoryapimodels.CategoryView}
// @Failure 404 {object} apimodels.Response
// @router /api/v1/categories/{id}/active [put]
func (c *categoryApiController) setActive(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload setActiveData
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	view, err := categoryhandler.Instance.SetActive(id, payload.Active)
	if err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(view))
}

// @Summary Delete a category
// @Tags Categories
// @Description Two-phase: without force the call answers 409 with the referencing request counts
// @Param   Authorization   header   string   true   "Authorization token"
// @Param   id   path   string   true   "category id"
// @Param   body   body   categoryapimodels.DeleteData   false   "request body"
// @Success 200 {object} apimodels.Response
// @Failure 409 {object} apimodels.Response{data=categoryapimodels.DeleteConflict}
// @router /api/v1/categories/{id} [delete]
func (c *categoryApiController) delete(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload categoryapimodels.DeleteData
	if len(ctx.Body()) > 0 {
		if err := c.BodyParser(ctx, &payload); err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
		}
	}
	conflict, err := categoryhandler.Instance.Delete(middleware.GetPrincipal(ctx), id, payload)
	if err != nil {
		return c.SendError(ctx, err)
	}
	if conflict != nil {
		return ctx.Status(fiber.StatusConflict).JSON(apimodels.NewResponse(conflict))
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse("ok"))
}

// @Summary Delete several categories
// @Tags Categories
// @Description Per-item outcome ledger, conflicts do not abort the batch
// @Param   Authorization   header   string   true   "Authorization token"
// @Param   body   body   categoryapimodels.BulkDeleteData   true   "request body"
// @Success 200 {object} apimodels.Response{data=[]categoryapimodels.BulkDeleteResult}
// @Failure 400 {object} apimodels.Response
// @router /api/v1/categories/bulk-delete [post]
func (c *categoryApiController) bulkDelete(ctx *fiber.Ctx) error {
	var payload categoryapimodels.BulkDeleteData
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	results, err := categoryhandler.Instance.BulkDelete(middleware.GetPrincipal(ctx), payload)
	if err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(results))
}
