package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"CodeMart/models"
	"CodeMart/services"
)

type ProjectHandler struct {
	catalog *services.CatalogService
}

func NewProjectHandler(catalog *services.CatalogService) *ProjectHandler {
	return &ProjectHandler{catalog: catalog}
}

func (h *ProjectHandler) ListProjects(c echo.Context) error {
	projects, err := h.catalog.ListPublished(c.QueryParam("category"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch projects"})
	}
	return c.JSON(http.StatusOK, projects)
}

func (h *ProjectHandler) GetProject(c echo.Context) error {
	project, err := h.catalog.GetBySlug(c.Param("slug"))
	if err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "project not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch project"})
	}
	return c.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) CreateProject(c echo.Context) error {
	var project models.Project
	if err := c.Bind(&project); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if project.Name == "" || project.Slug == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "name and slug are required"})
	}
	if err := h.catalog.Create(&project); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create project"})
	}
	return c.JSON(http.StatusCreated, project)
}

func (h *ProjectHandler) UpdateProject(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	var updated models.Project
	if err := c.Bind(&updated); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	project, err := h.catalog.Update(uint(id), updated)
	if err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "project not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to update project"})
	}
	return c.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) DeleteProject(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	if err := h.catalog.Delete(uint(id)); err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "project not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to delete project"})
	}
	return c.NoContent(http.StatusNoContent)
}
