// file: internals/features/learning/submissions/controller/submission_controller.go
package controller

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"akademiku_backend/internals/features/learning/submissions/dto"
	"akademiku_backend/internals/features/learning/submissions/service"
	helper "akademiku_backend/internals/helpers"
	helperAuth "akademiku_backend/internals/helpers/auth"
)

type SubmissionController struct {
	Service  *service.SubmissionService
	Validate *validator.Validate
}

func NewSubmissionController(svc *service.SubmissionService) *SubmissionController {
	return &SubmissionController{
		Service:  svc,
		Validate: validator.New(),
	}
}

// POST /submissions
func (ctrl *SubmissionController) Start(c *fiber.Ctx) error {
	caller, err := helperAuth.CallerFromContext(c)
	if err != nil {
		return helper.JsonBizError(c, err)
	}

	var req dto.StartSubmissionRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := ctrl.Validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	sub, err := ctrl.Service.Start(c.Context(), caller, req.AssignmentID, req.TaskQuizID)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	return helper.JsonCreated(c, "attempt started", dto.ToSubmissionResponse(sub, nil))
}

// PUT /submissions/:id/answers
func (ctrl *SubmissionController) SaveAnswer(c *fiber.Ctx) error {
	caller, err := helperAuth.CallerFromContext(c)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	submissionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid submission id")
	}

	var req dto.SaveAnswerRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := ctrl.Validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	ans, err := ctrl.Service.SaveAnswer(c.Context(), caller, submissionID, req.QuestionResourceID, json.RawMessage(req.AnswerPayload))
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	return helper.JsonUpdated(c, "answer saved", fiber.Map{
		"answer_id":            ans.AnswerID,
		"question_resource_id": ans.AnswerQuestionResourceID,
		"is_subjective":        ans.AnswerIsSubjective,
	})
}

// POST /submissions/:id/submit
func (ctrl *SubmissionController) Submit(c *fiber.Ctx) error {
	caller, err := helperAuth.CallerFromContext(c)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	submissionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid submission id")
	}

	sub, err := ctrl.Service.Submit(c.Context(), caller, submissionID)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	return helper.JsonUpdated(c, "attempt submitted", dto.ToSubmissionResponse(sub, nil))
}

// POST /submissions/:id/grade
func (ctrl *SubmissionController) GradeSubjective(c *fiber.Ctx) error {
	caller, err := helperAuth.CallerFromContext(c)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	submissionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid submission id")
	}

	var req dto.GradeSubjectiveRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := ctrl.Validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	sub, err := ctrl.Service.GradeSubjective(c.Context(), caller, submissionID, req.QuestionResourceID, req.ObtainedScore, req.Comment)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	return helper.JsonUpdated(c, "answer graded", dto.ToSubmissionResponse(sub, nil))
}

// GET /submissions/:id
func (ctrl *SubmissionController) Get(c *fiber.Ctx) error {
	caller, err := helperAuth.CallerFromContext(c)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	submissionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid submission id")
	}

	sub, answers, err := ctrl.Service.GetSubmission(c.Context(), caller, submissionID)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	return helper.JsonOK(c, "submission detail", dto.ToSubmissionResponse(sub, answers))
}

// GET /assignments/:assignment_id/submissions
func (ctrl *SubmissionController) ListForAssignment(c *fiber.Ctx) error {
	caller, err := helperAuth.CallerFromContext(c)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	assignmentID, err := uuid.Parse(c.Params("assignment_id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid assignment id")
	}

	subs, err := ctrl.Service.ListForAssignment(c.Context(), caller, assignmentID)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	out := make([]dto.SubmissionResponse, 0, len(subs))
	for i := range subs {
		out = append(out, dto.ToSubmissionResponse(&subs[i], nil))
	}
	return helper.JsonOK(c, "submission list", out)
}
