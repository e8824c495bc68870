// file: internals/features/learning/tasks/controller/assignment_controller.go
package controller

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"akademiku_backend/internals/features/learning/tasks/dto"
	"akademiku_backend/internals/features/learning/tasks/service"
	helper "akademiku_backend/internals/helpers"
	helperAuth "akademiku_backend/internals/helpers/auth"
)

type AssignmentController struct {
	Service *service.AssignmentService
	Tasks   *service.TaskService
}

func NewAssignmentController(svc *service.AssignmentService, tasks *service.TaskService) *AssignmentController {
	return &AssignmentController{Service: svc, Tasks: tasks}
}

// GET /assignments
func (ctrl *AssignmentController) ListMine(c *fiber.Ctx) error {
	caller, err := helperAuth.CallerFromContext(c)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	p := helper.ResolvePaging(c, 20, 100)
	rows, total, err := ctrl.Service.ListForAssignee(c.Context(), caller.UserID, p.Offset, p.Limit)
	if err != nil {
		return helper.JsonBizError(c, err)
	}

	now := time.Now().UTC()
	out := make([]dto.AssignmentResponse, 0, len(rows))
	for i := range rows {
		task, _, _, err := ctrl.Tasks.GetTask(c.Context(), rows[i].TaskAssignmentTaskID)
		if err != nil {
			return helper.JsonBizError(c, err)
		}
		out = append(out, dto.ToAssignmentResponse(&rows[i], service.EffectiveStatus(&rows[i], task, now)))
	}
	pg := helper.BuildPaginationFromPage(total, p.Page, p.PerPage)
	return helper.JsonList(c, "assignment list", out, &pg)
}

// GET /assignments/:id
func (ctrl *AssignmentController) Get(c *fiber.Ctx) error {
	caller, err := helperAuth.CallerFromContext(c)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	assignmentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid assignment id")
	}

	a, task, err := ctrl.Service.GetAssignment(c.Context(), caller, assignmentID)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	status := service.EffectiveStatus(a, task, time.Now().UTC())
	return helper.JsonOK(c, "assignment detail", dto.ToAssignmentResponse(a, status))
}

// GET /assignments/:id/progress
func (ctrl *AssignmentController) Progress(c *fiber.Ctx) error {
	caller, err := helperAuth.CallerFromContext(c)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	assignmentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid assignment id")
	}

	prog, err := ctrl.Service.Progress(c.Context(), caller, assignmentID)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	return helper.JsonOK(c, "assignment progress", prog)
}

// POST /assignments/:id/knowledge/:task_knowledge_id/complete
func (ctrl *AssignmentController) MarkKnowledgeCompleted(c *fiber.Ctx) error {
	caller, err := helperAuth.CallerFromContext(c)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	assignmentID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid assignment id")
	}
	taskKnowledgeID, err := uuid.Parse(c.Params("task_knowledge_id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid task knowledge id")
	}

	if err := ctrl.Service.MarkKnowledgeCompleted(c.Context(), caller, assignmentID, taskKnowledgeID); err != nil {
		return helper.JsonBizError(c, err)
	}
	prog, err := ctrl.Service.Progress(c.Context(), caller, assignmentID)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	return helper.JsonUpdated(c, "knowledge marked completed", prog)
}
