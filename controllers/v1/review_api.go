package apiv1

import (
	"github.com/gofiber/fiber/v2"

	"barangay-services-backend/controllers"
	lifecyclehandler "barangay-services-backend/lib/lifecycle"
	requesthandler "barangay-services-backend/lib/request"
	reviewhandler "barangay-services-backend/lib/review"
	"barangay-services-backend/middleware"
	"barangay-services-backend/models"
	apimodels "barangay-services-backend/models/api"
	requestapimodels "barangay-services-backend/models/api/request"
)

type reviewApiController struct {
	controllers.BaseAPIController
}

func InitReviewApiRouters(app *fiber.App) {
	controller := reviewApiController{}
	app.Route("review", func(router fiber.Router) {
		router.Use(middleware.StaffRequired())
		router.Get("queue", controller.queue)
		router.Get(":id", controller.detail)
		router.Post(":id/decision", controller.decide)
		router.Post(":id/complete", controller.complete)
		router.Post(":id/artifact", controller.retryArtifact)
	})
}

// @Summary Review queue
// @Tags Review
// @Description Open requests ordered by priority, then oldest first
// @Param   Authorization   header   string   true   "Authorization token"
// @Param   kind   query   string   false   "request kind"
// @Param   status   query   string   false   "status, defaults to pending"
// @Param   priority   query   string   false   "priority"
// @Param   query   query   string   false   "matches requester name and purpose"
// @Param   page   query   int   false   "page"
// @Param   limit   query   int   false   "page size"
// @Success 200 {object} apimodels.ScrollerResponse{data=[]requestapimodels.RequestView}
// @Failure 500 {object} apimodels.Response
// @router /api/v1/review/queue [get]
func (c *reviewApiController) queue(ctx *fiber.Ctx) error {
	filter := requestapimodels.RequestFilter{
		Kind:     models.RequestKind(ctx.Query("kind")),
		Status:   models.RequestStatus(ctx.Query("status")),
		Priority: models.RequestPriority(ctx.Query("priority")),
		Query:    ctx.Query("query"),
	}
	filter.Page = ctx.QueryInt("page")
	filter.Limit = ctx.QueryInt("limit")

	list, rowCount, err := reviewhandler.Instance.Queue(middleware.GetPrincipal(ctx), filter)
	if err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewScrollerResponse(list, rowCount))
}

// @Summary Request detail for review
// @Tags Review
// @Param   Authorization   header   string   true   "Authorization token"
// @Param   id   path   string   true   "request id"
// @Success 200 {object} apimodels.Response{data=requestapimodels.RequestDetailView}
// @Failure 404 {object} apimodels.Response
// @router /api/v1/review/{id} [get]
func (c *reviewApiController) detail(ctx *fiber.Ctx) error {
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

// @Summary Decide a pending request
// @Tags Review
// @Description Approve or reject. Rejections need a reason, relocations need both barangays to approve
// @Param   Authorization   header   string   true   "Authorization token"
// @Param   id   path   string   true   "request id"
// @Param   body   body   requestapimodels.DecisionData   true   "request body"
// @Success 200 {object} apimodels.Response{data=requestapimodels.RequestView}
// @Failure 400 {object} apimodels.Response
// @Failure 409 {object} apimodels.Response
// @router /api/v1/review/{id}/decision [post]
func (c *reviewApiController) decide(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	var payload requestapimodels.DecisionData
	if err := c.BodyParser(ctx, &payload); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	view, err := lifecyclehandler.Instance.Decide(ctx.Context(), middleware.GetPrincipal(ctx), id, payload)
	if err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(view))
}

// @Summary Complete a request
// @Tags Review
// @Description Marks the fulfilment as done, releases a loaned item
// @Param   Authorization   header   string   true   "Authorization token"
// @Param   id   path   string   true   "request id"
// @Success 200 {object} apimodels.Response{data=requestapimodels.RequestView}
// @Failure 409 {object} apimodels.Response
// @router /api/v1/review/{id}/complete [post]
func (c *reviewApiController) complete(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	view, err := lifecyclehandler.Instance.Complete(ctx.Context(), middleware.GetPrincipal(ctx), id)
	if err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(view))
}

// @Summary Retry certificate generation
// @Tags Review
// @Description Re-runs generation for a document request stuck in processing
// @Param   Authorization   header   string   true   "Authorization token"
// @Param   id   path   string   true   "request id"
// @Success 200 {object} apimodels.Response{data=requestapimodels.RequestView}
// @Failure 409 {object} apimodels.Response
// @Failure 504 {object} apimodels.Response
// @router /api/v1/review/{id}/artifact [post]
func (c *reviewApiController) retryArtifact(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	view, err := lifecyclehandler.Instance.RetryArtifact(ctx.Context(), middleware.GetPrincipal(ctx), id)
	if err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(view))
}
