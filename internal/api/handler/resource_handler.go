package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/collabhub/timesheet-api/internal/core/ports"
)

// ResourceHandler serves projects, tasks and timesheets. Owner ids come from
// the request body and are checked against the account stores by the service.
type ResourceHandler struct {
	service ports.ResourceService
}

func NewResourceHandler(service ports.ResourceService) *ResourceHandler {
	return &ResourceHandler{service: service}
}

// --- Projects ---

// CreateProject handles POST /v1/projects.
//
// @Summary      Create a project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      projectRequest  true  "Project"
// @Success      201   {object}  domain.Project
// @Failure      400   {object}  map[string]string
// @Router       /v1/projects [post]
func (h *ResourceHandler) CreateProject(c echo.Context) error {
	var req projectRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	in, err := req.toInput()
	if err != nil {
		return err
	}

	p, err := h.service.CreateProject(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

// GetProject handles GET /v1/projects/:id.
//
// @Summary      Get a project
// @Tags         projects
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Project id"
// @Success      200  {object}  domain.Project
// @Failure      404  {object}  map[string]string
// @Router       /v1/projects/{id} [get]
func (h *ResourceHandler) GetProject(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.service.GetProject(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// ListProjects handles GET /v1/projects.
//
// @Summary      List projects of an owner
// @Tags         projects
// @Produce      json
// @Security     BearerAuth
// @Param        owner_account_id  query     string  false  "Owner (defaults to the caller)"
// @Success      200               {array}   domain.Project
// @Router       /v1/projects [get]
func (h *ResourceHandler) ListProjects(c echo.Context) error {
	owner, err := ownerQuery(c)
	if err != nil {
		return err
	}
	list, err := h.service.ListProjects(c.Request().Context(), owner)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// UpdateProject handles PUT /v1/projects/:id.
//
// @Summary      Replace a project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string          true  "Project id"
// @Param        body  body      projectRequest  true  "Project"
// @Success      200   {object}  domain.Project
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /v1/projects/{id} [put]
func (h *ResourceHandler) UpdateProject(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req projectRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	in, err := req.toInput()
	if err != nil {
		return err
	}

	p, err := h.service.UpdateProject(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// DeleteProject handles DELETE /v1/projects/:id.
//
// @Summary      Delete a project and its tasks
// @Tags         projects
// @Security     BearerAuth
// @Param        id   path  string  true  "Project id"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /v1/projects/{id} [delete]
func (h *ResourceHandler) DeleteProject(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.DeleteProject(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// --- Tasks ---

// CreateTask handles POST /v1/tasks.
//
// @Summary      Create a task in a project
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      taskRequest  true  "Task"
// @Success      201   {object}  domain.Task
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /v1/tasks [post]
func (h *ResourceHandler) CreateTask(c echo.Context) error {
	var req taskRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	t, err := h.service.CreateTask(c.Request().Context(), req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, t)
}

// GetTask handles GET /v1/tasks/:id.
//
// @Summary      Get a task
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task id"
// @Success      200  {object}  domain.Task
// @Failure      404  {object}  map[string]string
// @Router       /v1/tasks/{id} [get]
func (h *ResourceHandler) GetTask(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	t, err := h.service.GetTask(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, t)
}

// ListTasks handles GET /v1/projects/:id/tasks.
//
// @Summary      List the tasks of a project
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Project id"
// @Success      200  {array}   domain.Task
// @Router       /v1/projects/{id}/tasks [get]
func (h *ResourceHandler) ListTasks(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	list, err := h.service.ListTasks(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// --- Timesheets ---

// CreateTimesheet handles POST /v1/timesheets.
//
// @Summary      Record worked hours
// @Tags         timesheets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      timesheetRequest  true  "Timesheet entry"
// @Success      201   {object}  domain.Timesheet
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /v1/timesheets [post]
func (h *ResourceHandler) CreateTimesheet(c echo.Context) error {
	var req timesheetRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	in, err := req.toInput()
	if err != nil {
		return err
	}

	ts, err := h.service.CreateTimesheet(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ts)
}

// GetTimesheet handles GET /v1/timesheets/:id.
//
// @Summary      Get a timesheet entry
// @Tags         timesheets
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Timesheet id"
// @Success      200  {object}  domain.Timesheet
// @Failure      404  {object}  map[string]string
// @Router       /v1/timesheets/{id} [get]
func (h *ResourceHandler) GetTimesheet(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	ts, err := h.service.GetTimesheet(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ts)
}

// ListTimesheets handles GET /v1/timesheets, newest first.
//
// @Summary      List timesheet entries of an owner
// @Tags         timesheets
// @Produce      json
// @Security     BearerAuth
// @Param        owner_account_id  query    string  false  "Owner (defaults to the caller)"
// @Success      200               {array}  domain.Timesheet
// @Router       /v1/timesheets [get]
func (h *ResourceHandler) ListTimesheets(c echo.Context) error {
	owner, err := ownerQuery(c)
	if err != nil {
		return err
	}
	list, err := h.service.ListTimesheets(c.Request().Context(), owner)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// TotalHours handles GET /v1/timesheets/total.
//
// @Summary      Total hours worked by an owner
// @Tags         timesheets
// @Produce      json
// @Security     BearerAuth
// @Param        owner_account_id  query     string  false  "Owner (defaults to the caller)"
// @Success      200               {object}  totalHoursResponse
// @Router       /v1/timesheets/total [get]
func (h *ResourceHandler) TotalHours(c echo.Context) error {
	owner, err := ownerQuery(c)
	if err != nil {
		return err
	}
	total, err := h.service.TotalHours(c.Request().Context(), owner)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, totalHoursResponse{OwnerAccountID: owner.String(), TotalHours: total})
}
