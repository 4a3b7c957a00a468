package apiv1

import (
	"io"

	"github.com/gofiber/fiber/v2"

	"barangay-services-backend/controllers"
	evidencehandler "barangay-services-backend/lib/evidence"
	"barangay-services-backend/middleware"
	apimodels "barangay-services-backend/models/api"
)

type evidenceApiController struct {
	controllers.BaseAPIController
}

func InitEvidenceApiRouters(app *fiber.App) {
	controller := evidenceApiController{}
	app.Route("evidence", func(router fiber.Router) {
		router.Post("", controller.stage)
		router.Delete(":id", controller.delete)
	})
	app.Route("requests/:id/evidence", func(router fiber.Router) {
		router.Get("", controller.listByRequest)
		router.Post("", controller.attach)
	})
}

func (c *evidenceApiController) readUpload(ctx *fiber.Ctx) (evidencehandler.UploadData, error) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return evidencehandler.UploadData{}, err
	}
	file, err := fileHeader.Open()
	if err != nil {
		return evidencehandler.UploadData{}, err
	}
	defer file.Close()
	body, err := io.ReadAll(file)
	if err != nil {
		return evidencehandler.UploadData{}, err
	}
	return evidencehandler.UploadData{
		FileName:     fileHeader.Filename,
		ContentType:  fileHeader.Header.Get("Content-Type"),
		CategoryName: ctx.FormValue("category"),
		Body:         body,
	}, nil
}

// @Summary Stage an evidence upload
// @Tags Evidence
// @Description Uploads a file ahead of a submission. The returned id goes into the submit payload
// @Accept multipart/form-data
// @Param   Authorization   header   string   true   "Authorization token"
// @Param   file   formData   file   true   "the file"
// @Param   category   formData   string   false   "requirement category the file satisfies"
// @Success 200 {object} apimodels.Response{data=evidenceapimodels.EvidenceView}
// @Failure 400 {object} apimodels.Response
// @router /api/v1/evidence [post]
func (c *evidenceApiController) stage(ctx *fiber.Ctx) error {
	data, err := c.readUpload(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError("could not read the uploaded file"))
	}
	view, err := evidencehandler.Instance.Stage(ctx.Context(), middleware.GetPrincipal(ctx), data)
	if err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(view))
}

// @Summary Attach evidence to a request
// @Tags Evidence
// @Param   Authorization   header   string   true   "Authorization token"
// @Param   id   path   string   true   "request id"
// @Param   file   formData   file   true   "the file"
// @Success 200 {object} apimodels.Response{data=evidenceapimodels.EvidenceView}
// @Failure 400 {object} apimodels.Response
// @Failure 404 {object} apimodels.Response
// @router /api/v1/requests/{id}/evidence [post]
func (c *evidenceApiController) attach(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	data, err := c.readUpload(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError("could not read the uploaded file"))
	}
	view, err := evidencehandler.Instance.AttachToRequest(ctx.Context(), middleware.GetPrincipal(ctx), id, data)
	if err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(view))
}

// @Summary List a request's evidence
// @Tags Evidence
// @Param   Authorization   header   string   true   "Authorization token"
// @Param   id   path   string   true   "request id"
// @Success 200 {object} apimodels.Response{data=[]evidenceapimodels.EvidenceView}
// @Failure 404 {object} apimodels.Response
// @router /api/v1/requests/{id}/evidence [get]
func (c *evidenceApiController) listByRequest(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	list, err := evidencehandler.Instance.ListByRequest(middleware.GetPrincipal(ctx), id)
	if err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse(list))
}

// @Summary Delete an evidence upload
// @Tags Evidence
// @Param   Authorization   header   string   true   "Authorization token"
// @Param   id   path   string   true   "attachment id"
// @Success 200 {object} apimodels.Response
// @Failure 404 {object} apimodels.Response
// @router /api/v1/evidence/{id} [delete]
func (c *evidenceApiController) delete(ctx *fiber.Ctx) error {
	id, err := c.GetID(ctx)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(apimodels.NewError(err.Error()))
	}
	if err := evidencehandler.Instance.Delete(ctx.Context(), middleware.GetPrincipal(ctx), id); err != nil {
		return c.SendError(ctx, err)
	}
	return ctx.Status(fiber.StatusOK).JSON(apimodels.NewResponse("ok"))
}
