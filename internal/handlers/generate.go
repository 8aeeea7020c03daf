package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LAMpbrien/adventures-of/internal/middleware"
	"github.com/LAMpbrien/adventures-of/internal/models"
	"github.com/LAMpbrien/adventures-of/internal/service"
)

type generateRequest struct {
	ChildID string        `json:"childId"`
	BookID  string        `json:"bookId"`
	Theme   models.Theme  `json:"theme"`
	Region  models.Region `json:"region"`
}

func (r generateRequest) input(c *gin.Context) service.GenerateInput {
	return service.GenerateInput{
		UserID:  middleware.CurrentUserID(c),
		ChildID: r.ChildID,
		BookID:  r.BookID,
		Theme:   r.Theme,
		Region:  r.Region,
	}
}

type generateImagesRequest struct {
	BookID string                `json:"bookId"`
	Mode   models.GenerationMode `json:"mode"`
}

// runContext detaches a synchronous run from the client connection; a
// run keeps going when the caller hangs up.
func runContext(c *gin.Context) context.Context {
	return context.WithoutCancel(c.Request.Context())
}

// Generate runs story and preview illustrations. With ?async=true the run
// is queued and the call returns at once.
func (h HandlerSet) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_json"})
		return
	}

	if c.Query("async") == "true" {
		result, err := h.books.GenerateAsync(c.Request.Context(), req.input(c))
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, result)
		return
	}

	result, err := h.books.Generate(runContext(c), req.input(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h HandlerSet) GenerateStory(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_json"})
		return
	}

	title, err := h.books.GenerateStory(runContext(c), req.input(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"title": title})
}

func (h HandlerSet) GenerateImages(c *gin.Context) {
	var req generateImagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_json"})
		return
	}

	result, err := h.books.GenerateImages(runContext(c), middleware.CurrentUserID(c), req.BookID, req.Mode)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
