// file: internals/features/learning/quizzes/controller/quiz_controller.go
package controller

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"akademiku_backend/internals/features/learning/quizzes/dto"
	"akademiku_backend/internals/features/learning/quizzes/service"
	helper "akademiku_backend/internals/helpers"
	helperAuth "akademiku_backend/internals/helpers/auth"
)

type QuizController struct {
	Service  *service.QuizService
	Validate *validator.Validate
}

func NewQuizController(svc *service.QuizService) *QuizController {
	return &QuizController{
		Service:  svc,
		Validate: validator.New(),
	}
}

// POST /quizzes
func (ctrl *QuizController) Create(c *fiber.Ctx) error {
	caller, err := helperAuth.CallerFromContext(c)
	if err != nil {
		return helper.JsonBizError(c, err)
	}

	var req dto.CreateQuizRequest
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
	links, _ := ctrl.Service.Composition(c.Context(), m.QuizID)
	return helper.JsonCreated(c, "quiz draft created", dto.ToQuizResponse(m, links))
}

// POST /quizzes/:resource_id/revisions
func (ctrl *QuizController) CreateRevision(c *fiber.Ctx) error {
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
	links, _ := ctrl.Service.Composition(c.Context(), m.QuizID)
	return helper.JsonCreated(c, "revision draft created", dto.ToQuizResponse(m, links))
}

// PATCH /quizzes/versions/:id
func (ctrl *QuizController) UpdateDraft(c *fiber.Ctx) error {
	caller, err := helperAuth.CallerFromContext(c)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid version id")
	}

	var req dto.UpdateQuizRequest
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
	links, _ := ctrl.Service.Composition(c.Context(), m.QuizID)
	return helper.JsonUpdated(c, "draft updated", dto.ToQuizResponse(m, links))
}

// POST /quizzes/versions/:id/publish
func (ctrl *QuizController) Publish(c *fiber.Ctx) error {
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
	links, _ := ctrl.Service.Composition(c.Context(), m.QuizID)
	return helper.JsonUpdated(c, "quiz published", dto.ToQuizResponse(m, links))
}

// DELETE /quizzes/:resource_id
func (ctrl *QuizController) Delete(c *fiber.Ctx) error {
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
	return helper.JsonDeleted(c, "quiz deleted", fiber.Map{"resource_id": resourceID})
}

// GET /quizzes
func (ctrl *QuizController) List(c *fiber.Ctx) error {
	p := helper.ResolvePaging(c, 20, 100)
	rows, total, err := ctrl.Service.ListCurrent(c.Context(), p.Offset, p.Limit)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	out := make([]dto.QuizResponse, 0, len(rows))
	for i := range rows {
		links, _ := ctrl.Service.Composition(c.Context(), rows[i].QuizID)
		out = append(out, dto.ToQuizResponse(&rows[i], links))
	}
	pg := helper.BuildPaginationFromPage(total, p.Page, p.PerPage)
	return helper.JsonList(c, "quiz list", out, &pg)
}

// GET /quizzes/:resource_id
func (ctrl *QuizController) GetCurrent(c *fiber.Ctx) error {
	resourceID, err := uuid.Parse(c.Params("resource_id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid resource id")
	}
	m, err := ctrl.Service.GetCurrent(c.Context(), resourceID)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	links, _ := ctrl.Service.Composition(c.Context(), m.QuizID)
	return helper.JsonOK(c, "quiz detail", dto.ToQuizResponse(m, links))
}

// GET /quizzes/:resource_id/versions/:version
func (ctrl *QuizController) GetVersion(c *fiber.Ctx) error {
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
	links, _ := ctrl.Service.Composition(c.Context(), m.QuizID)
	return helper.JsonOK(c, "quiz version", dto.ToQuizResponse(m, links))
}

// GET /quizzes/:resource_id/versions
func (ctrl *QuizController) ListVersions(c *fiber.Ctx) error {
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
	out := make([]dto.QuizResponse, 0, len(rows))
	for i := range rows {
		links, _ := ctrl.Service.Composition(c.Context(), rows[i].QuizID)
		out = append(out, dto.ToQuizResponse(&rows[i], links))
	}
	return helper.JsonOK(c, "quiz versions", out)
}
