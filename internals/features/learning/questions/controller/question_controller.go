// file: internals/features/learning/questions/controller/question_controller.go
package controller

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"akademiku_backend/internals/features/learning/questions/dto"
	"akademiku_backend/internals/features/learning/questions/service"
	helper "akademiku_backend/internals/helpers"
	helperAuth "akademiku_backend/internals/helpers/auth"
)

type QuestionController struct {
	Service  *service.QuestionService
	Validate *validator.Validate
}

func NewQuestionController(svc *service.QuestionService) *QuestionController {
	return &QuestionController{
		Service:  svc,
		Validate: validator.New(),
	}
}

// POST /questions
func (ctrl *QuestionController) Create(c *fiber.Ctx) error {
	caller, err := helperAuth.CallerFromContext(c)
	if err != nil {
		return helper.JsonBizError(c, err)
	}

	var req dto.CreateQuestionRequest
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
	return helper.JsonCreated(c, "question draft created", dto.ToQuestionResponse(m, true))
}

// POST /questions/:resource_id/revisions
func (ctrl *QuestionController) CreateRevision(c *fiber.Ctx) error {
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
	return helper.JsonCreated(c, "revision draft created", dto.ToQuestionResponse(m, true))
}

// PATCH /questions/versions/:id
func (ctrl *QuestionController) UpdateDraft(c *fiber.Ctx) error {
	caller, err := helperAuth.CallerFromContext(c)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid version id")
	}

	var req dto.UpdateQuestionRequest
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
	return helper.JsonUpdated(c, "draft updated", dto.ToQuestionResponse(m, true))
}

// POST /questions/versions/:id/publish
func (ctrl *QuestionController) Publish(c *fiber.Ctx) error {
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
	return helper.JsonUpdated(c, "question published", dto.ToQuestionResponse(m, true))
}

// DELETE /questions/:resource_id
func (ctrl *QuestionController) Delete(c *fiber.Ctx) error {
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
	return helper.JsonDeleted(c, "question deleted", fiber.Map{"resource_id": resourceID})
}

// GET /questions
func (ctrl *QuestionController) List(c *fiber.Ctx) error {
	caller, err := helperAuth.CallerFromContext(c)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	p := helper.ResolvePaging(c, 20, 100)
	rows, total, err := ctrl.Service.ListCurrent(c.Context(), p.Offset, p.Limit)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	out := make([]dto.QuestionResponse, 0, len(rows))
	for i := range rows {
		out = append(out, dto.ToQuestionResponse(&rows[i], caller.IsPrivileged()))
	}
	pg := helper.BuildPaginationFromPage(total, p.Page, p.PerPage)
	return helper.JsonList(c, "question list", out, &pg)
}

// GET /questions/:resource_id
func (ctrl *QuestionController) GetCurrent(c *fiber.Ctx) error {
	caller, err := helperAuth.CallerFromContext(c)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	resourceID, err := uuid.Parse(c.Params("resource_id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid resource id")
	}
	m, err := ctrl.Service.GetCurrent(c.Context(), resourceID)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	return helper.JsonOK(c, "question detail", dto.ToQuestionResponse(m, caller.IsPrivileged()))
}

// GET /questions/:resource_id/versions/:version
func (ctrl *QuestionController) GetVersion(c *fiber.Ctx) error {
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
	return helper.JsonOK(c, "question version", dto.ToQuestionResponse(m, caller.IsPrivileged()))
}

// GET /questions/:resource_id/versions
func (ctrl *QuestionController) ListVersions(c *fiber.Ctx) error {
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
	out := make([]dto.QuestionResponse, 0, len(rows))
	for i := range rows {
		out = append(out, dto.ToQuestionResponse(&rows[i], true))
	}
	return helper.JsonOK(c, "question versions", out)
}
