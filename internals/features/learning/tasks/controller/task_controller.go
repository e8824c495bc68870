// file: internals/features/learning/tasks/controller/task_controller.go
package controller

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"akademiku_backend/internals/features/learning/tasks/dto"
	"akademiku_backend/internals/features/learning/tasks/service"
	helper "akademiku_backend/internals/helpers"
	helperAuth "akademiku_backend/internals/helpers/auth"
)

type TaskController struct {
	Service  *service.TaskService
	Validate *validator.Validate
}

func NewTaskController(svc *service.TaskService) *TaskController {
	return &TaskController{
		Service:  svc,
		Validate: validator.New(),
	}
}

// POST /tasks
func (ctrl *TaskController) Create(c *fiber.Ctx) error {
	caller, err := helperAuth.CallerFromContext(c)
	if err != nil {
		return helper.JsonBizError(c, err)
	}

	var req dto.CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := ctrl.Validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	t, err := ctrl.Service.CreateTask(c.Context(), caller, &req)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	task, kn, qz, err := ctrl.Service.GetTask(c.Context(), t.TaskID)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	return helper.JsonCreated(c, "task created", dto.ToTaskResponse(task, kn, qz, caller.IsPrivileged()))
}

// GET /tasks
func (ctrl *TaskController) List(c *fiber.Ctx) error {
	p := helper.ResolvePaging(c, 20, 100)
	rows, total, err := ctrl.Service.ListTasks(c.Context(), p.Offset, p.Limit)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	out := make([]dto.TaskResponse, 0, len(rows))
	for i := range rows {
		out = append(out, dto.ToTaskResponse(&rows[i], nil, nil, false))
	}
	pg := helper.BuildPaginationFromPage(total, p.Page, p.PerPage)
	return helper.JsonList(c, "task list", out, &pg)
}

// GET /tasks/:id
func (ctrl *TaskController) Get(c *fiber.Ctx) error {
	caller, err := helperAuth.CallerFromContext(c)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	taskID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid task id")
	}
	task, kn, qz, err := ctrl.Service.GetTask(c.Context(), taskID)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	return helper.JsonOK(c, "task detail", dto.ToTaskResponse(task, kn, qz, caller.IsPrivileged()))
}

// POST /tasks/:id/close
func (ctrl *TaskController) Close(c *fiber.Ctx) error {
	caller, err := helperAuth.CallerFromContext(c)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	taskID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid task id")
	}
	if err := ctrl.Service.CloseTask(c.Context(), caller, taskID); err != nil {
		return helper.JsonBizError(c, err)
	}
	return helper.JsonUpdated(c, "task closed", fiber.Map{"task_id": taskID})
}

// DELETE /tasks/:id
func (ctrl *TaskController) Delete(c *fiber.Ctx) error {
	caller, err := helperAuth.CallerFromContext(c)
	if err != nil {
		return helper.JsonBizError(c, err)
	}
	taskID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "invalid task id")
	}
	if err := ctrl.Service.DeleteTask(c.Context(), caller, taskID); err != nil {
		return helper.JsonBizError(c, err)
	}
	return helper.JsonDeleted(c, "task deleted", fiber.Map{"task_id": taskID})
}
