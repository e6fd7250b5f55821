package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"CodeMart/models"
	"CodeMart/services"
)

type BlogHandler struct {
	blog *services.BlogService
}

func NewBlogHandler(blog *services.BlogService) *BlogHandler {
	return &BlogHandler{blog: blog}
}

func (h *BlogHandler) ListPosts(c echo.Context) error {
	posts, err := h.blog.ListPublished()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch posts"})
	}
	return c.JSON(http.StatusOK, posts)
}

func (h *BlogHandler) GetPost(c echo.Context) error {
	post, err := h.blog.GetBySlug(c.Param("slug"))
	if err != nil {
		if errors.Is(err, services.ErrPostNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "post not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to fetch post"})
	}
	return c.JSON(http.StatusOK, post)
}

func (h *BlogHandler) CreatePost(c echo.Context) error {
	user := c.Get("user").(*models.User)

	var post models.Post
	if err := c.Bind(&post); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	if post.Title == "" || post.Slug == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "title and slug are required"})
	}
	post.AuthorID = user.ID
	if err := h.blog.Create(&post); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to create post"})
	}
	return c.JSON(http.StatusCreated, post)
}

func (h *BlogHandler) UpdatePost(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	var updated models.Post
	if err := c.Bind(&updated); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}
	post, err := h.blog.Update(uint(id), updated)
	if err != nil {
		if errors.Is(err, services.ErrPostNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "post not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to update post"})
	}
	return c.JSON(http.StatusOK, post)
}

func (h *BlogHandler) DeletePost(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid id"})
	}
	if err := h.blog.Delete(uint(id)); err != nil {
		if errors.Is(err, services.ErrPostNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "post not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to delete post"})
	}
	return c.NoContent(http.StatusNoContent)
}
