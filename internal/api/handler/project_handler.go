package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ontoacademy/platform-api/internal/core/domain"
	"github.com/ontoacademy/platform-api/internal/core/ports"
)

type ProjectHandler struct {
	projectService ports.ProjectService
}

func NewProjectHandler(projectService ports.ProjectService) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

// Create makes a new project owned by the caller.
func (h *ProjectHandler) Create(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req createProjectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if !domain.ValidCollection(req.Objects) || !domain.ValidCollection(req.Links) || !domain.ValidCollection(req.Integrations) {
		return echo.NewHTTPError(http.StatusBadRequest, "ontology collections must be JSON arrays of objects")
	}

	project, err := h.projectService.Create(c.Request().Context(), userID, ports.CreateProjectInput{
		Name:           req.Name,
		Industry:       req.Industry,
		UseCase:        req.UseCase,
		Status:         req.Status,
		Objects:        req.Objects,
		Links:          req.Links,
		Integrations:   req.Integrations,
		AIRequirements: req.AIRequirements,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, project)
}

// Get returns one owned project.
func (h *ProjectHandler) Get(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	project, err := h.projectService.Get(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, project)
}

// List returns all projects owned by the caller.
func (h *ProjectHandler) List(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	projects, err := h.projectService.List(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, projects)
}

// Messages returns the most recent chat messages of an owned project in
// creation order.
func (h *ProjectHandler) Messages(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	msgs, err := h.projectService.Messages(c.Request().Context(), c.Param("id"), userID, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, msgs)
}

// AppendMessage appends one chat message to an owned project.
func (h *ProjectHandler) AppendMessage(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	var req appendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	msg, err := h.projectService.AppendMessage(c.Request().Context(), c.Param("id"), userID, ports.AppendMessageInput{
		Role:     req.Role,
		Content:  req.Content,
		Metadata: req.Metadata,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, msg)
}
