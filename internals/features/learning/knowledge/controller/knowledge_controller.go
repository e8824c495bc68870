// file: internals/features/learning/knowledge/controller/knowledge_controller.go
package controller

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"akademiku_backend/internals/features/learning/knowledge/dto"
	"akademiku_backend/internals/features/learning/knowledge/service"
	helper "akademiku_backend/internals/helpers"
	helperAuth "akademiku_backend/internals/helpers/auth"
)

type KnowledgeController struct {
	Service  *service.KnowledgeService
	Validate *validator.Validate
}

func NewKnowledgeController(svc *service.KnowledgeService) *KnowledgeController {
	return &KnowledgeController{
		Service:  svc,
		Validate: validator.New(),
	}
}

/* =======================================================
   Authoring
======================================================= */

// POST /knowledge
func (ctrl *KnowledgeController) Create(c *fiber.Ctx) error {
	caller, err := helperAuth.CallerFromContext(c)
	if err != nil {
		return helper.JsonBizError(c, err)
	}

	var req dto.CreateKnowledgeRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := ctrl.Validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	m, err := ctrl.Service.CreateDraft(c.Context(), caller, &req)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	return helper.JsonCreated(c, "knowledge draft created", dto.ToKnowledgeResponse(m, nil))
}

// POST /knowledge/:resource_id/revisions
func (ctrl *KnowledgeController) CreateRevision(c *fiber.Ctx) error {
	caller, err := helperAuth.CallerFromContext(c)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	resourceID, err := uuid.Parse(c.Params("resource_id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid resource id")
	}

	m, err := ctrl.Service.CreateRevision(c.Context(), caller, resourceID)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	tags, _ := ctrl.Service.TagNames(c.Context(), resourceID)
	return helper.JsonCreated(c, "revision draft created", dto.ToKnowledgeResponse(m, tags))
}

// PATCH /knowledge/versions/:id
func (ctrl *KnowledgeController) UpdateDraft(c *fiber.Ctx) error {
	caller, err := helperAuth.CallerFromContext(c)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid version id")
	}

	var req dto.UpdateKnowledgeRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := ctrl.Validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	m, err := ctrl.Service.UpdateDraft(c.Context(), caller, id, &req)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	tags, _ := ctrl.Service.TagNames(c.Context(), m.KnowledgeResourceID)
	return helper.JsonUpdated(c, "draft updated", dto.ToKnowledgeResponse(m, tags))
}

// POST /knowledge/versions/:id/publish
func (ctrl *KnowledgeController) Publish(c *fiber.Ctx) error {
	caller, err := helperAuth.CallerFromContext(c)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid version id")
	}

	m, err := ctrl.Service.Publish(c.Context(), caller, id)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	tags, _ := ctrl.Service.TagNames(c.Context(), m.KnowledgeResourceID)
	return helper.JsonUpdated(c, "knowledge published", dto.ToKnowledgeResponse(m, tags))
}

// DELETE /knowledge/:resource_id
func (ctrl *KnowledgeController) Delete(c *fiber.Ctx) error {
	caller, err := helperAuth.CallerFromContext(c)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	resourceID, err := uuid.Parse(c.Params("resource_id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid resource id")
	}

	if err := ctrl.Service.Delete(c.Context(), caller, resourceID); err != nil {
		return helper.JsonBizError(c, err)
	}
	return helper.JsonDeleted(c, "knowledge deleted", fiber.Map{"resource_id": resourceID})
}

/* =======================================================
   Reads
======================================================= */

// GET /knowledge
func (ctrl *KnowledgeController) List(c *fiber.Ctx) error {
	p := helper.ResolvePaging(c, 20, 100)
	rows, total, err := ctrl.Service.ListCurrent(c.Context(), p.Offset, p.Limit)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	out := make([]dto.KnowledgeResponse, 0, len(rows))
	for i := range rows {
		tags, _ := ctrl.Service.TagNames(c.Context(), rows[i].KnowledgeResourceID)
		out = append(out, dto.ToKnowledgeResponse(&rows[i], tags))
	}
	pg := helper.BuildPaginationFromPage(total, p.Page, p.PerPage)
	return helper.JsonList(c, "knowledge list", out, &pg)
}

// GET /knowledge/:resource_id
func (ctrl *KnowledgeController) GetCurrent(c *fiber.Ctx) error {
	resourceID, err := uuid.Parse(c.Params("resource_id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid resource id")
	}
	m, err := ctrl.Service.GetCurrent(c.Context(), resourceID)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	tags, _ := ctrl.Service.TagNames(c.Context(), resourceID)
	return helper.JsonOK(c, "knowledge detail", dto.ToKnowledgeResponse(m, tags))
}

// GET /knowledge/:resource_id/versions/:version
func (ctrl *KnowledgeController) GetVersion(c *fiber.Ctx) error {
	caller, err := helperAuth.CallerFromContext(c)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	resourceID, err := uuid.Parse(c.Params("resource_id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid resource id")
	}
	version, err := strconv.Atoi(c.Params("version"))
	if err != nil || version < 1 {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid version number")
	}

	m, err := ctrl.Service.GetVersion(c.Context(), caller, resourceID, version)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	tags, _ := ctrl.Service.TagNames(c.Context(), resourceID)
	return helper.JsonOK(c, "knowledge version", dto.ToKnowledgeResponse(m, tags))
}

// GET /knowledge/:resource_id/versions
func (ctrl *KnowledgeController) ListVersions(c *fiber.Ctx) error {
	caller, err := helperAuth.CallerFromContext(c)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	resourceID, err := uuid.Parse(c.Params("resource_id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid resource id")
	}

	rows, err := ctrl.Service.ListVersions(c.Context(), caller, resourceID)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	out := make([]dto.KnowledgeResponse, 0, len(rows))
	for i := range rows {
		out = append(out, dto.ToKnowledgeResponse(&rows[i], nil))
	}
	return helper.JsonOK(c, "knowledge versions", out)
}

/* =======================================================
   Tags
======================================================= */

type tagRequest struct {
	TagName string `json:"tag_name" validate:"required,max=64"`
}

// POST /knowledge/:resource_id/tags
func (ctrl *KnowledgeController) AttachTag(c *fiber.Ctx) error {
	caller, err := helperAuth.CallerFromContext(c)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	resourceID, err := uuid.Parse(c.Params("resource_id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid resource id")
	}

	var req tagRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := ctrl.Validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	if err := ctrl.Service.AttachTag(c.Context(), caller, resourceID, req.TagName); err != nil {
		return helper.JsonBizError(c, err)
	}
	tags, _ := ctrl.Service.TagNames(c.Context(), resourceID)
	return helper.JsonUpdated(c, "tag attached", fiber.Map{"tags": tags})
}

// DELETE /knowledge/:resource_id/tags/:tag_name
func (ctrl *KnowledgeController) DetachTag(c *fiber.Ctx) error {
	caller, err := helperAuth.CallerFromContext(c)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	resourceID, err := uuid.Parse(c.Params("resource_id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid resource id")
	}
	tagName := c.Params("tag_name")
	if tagName == "" {
		return helper.JsonError(c, fiber.StatusBadRequest, "tag name is required")
	}

	if err := ctrl.Service.DetachTag(c.Context(), caller, resourceID, tagName); err != nil {
		return helper.JsonBizError(c, err)
	}
	tags, _ := ctrl.Service.TagNames(c.Context(), resourceID)
	return helper.JsonDeleted(c, "tag detached", fiber.Map{"tags": tags})
}
