package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/LAMpbrien/adventures-of/internal/middleware"
	"github.com/LAMpbrien/adventures-of/internal/models"
	"github.com/LAMpbrien/adventures-of/internal/service"
)

type createBookRequest struct {
	ChildID           string                   `json:"childId"`
	ChildDetails      *service.ChildDetails    `json:"childDetails"`
	Theme             models.Theme             `json:"theme"`
	Region            models.Region            `json:"region"`
	ImageQuality      models.ImageQuality      `json:"imageQuality"`
	IllustrationStyle models.IllustrationStyle `json:"illustrationStyle"`
}

type pageResponse struct {
	PageNumber int     `json:"pageNumber"`
	Text       string  `json:"text"`
	ImageURL   *string `json:"imageUrl"`
	IsPreview  bool    `json:"isPreview"`
}

type bookResponse struct {
	ID                string                   `json:"id"`
	ChildID           string                   `json:"childId"`
	ChildName         string                   `json:"childName"`
	Theme             models.Theme             `json:"theme"`
	Region            models.Region            `json:"region"`
	ImageQuality      models.ImageQuality      `json:"imageQuality"`
	IllustrationStyle models.IllustrationStyle `json:"illustrationStyle"`
	Status            models.BookStatus        `json:"status"`
	Title             *string                  `json:"title"`
	CreatedAt         time.Time                `json:"createdAt"`
	CompletedAt       *time.Time               `json:"completedAt"`
	Pages             []pageResponse           `json:"pages"`
}

func (h HandlerSet) CreateBook(c *gin.Context) {
	var req createBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_json"})
		return
	}

	result, err := h.books.CreateBook(c.Request.Context(), service.CreateBookInput{
		UserID:            middleware.CurrentUserID(c),
		ChildID:           req.ChildID,
		ChildDetails:      req.ChildDetails,
		Theme:             req.Theme,
		Region:            req.Region,
		ImageQuality:      req.ImageQuality,
		IllustrationStyle: req.IllustrationStyle,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h HandlerSet) GetBook(c *gin.Context) {
	view, err := h.books.GetBook(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	b := view.Book
	resp := bookResponse{
		ID:                b.ID,
		ChildID:           b.ChildID,
		ChildName:         view.ChildName,
		Theme:             b.Theme,
		Region:            b.Region,
		ImageQuality:      b.ImageQuality,
		IllustrationStyle: b.IllustrationStyle,
		Status:            b.Status,
		Title:             b.Title,
		CreatedAt:         b.CreatedAt,
		CompletedAt:       b.CompletedAt,
		Pages:             make([]pageResponse, 0, len(view.Pages)),
	}
	for _, p := range view.Pages {
		resp.Pages = append(resp.Pages, pageResponse{
			PageNumber: p.PageNumber,
			Text:       p.Text,
			ImageURL:   p.ImageURL,
			IsPreview:  p.IsPreview,
		})
	}

	c.JSON(http.StatusOK, resp)
}

func (h HandlerSet) DeleteBook(c *gin.Context) {
	if err := h.books.DeleteBook(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) BookStatus(c *gin.Context) {
	status, err := h.books.Status(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

func (h HandlerSet) Checkout(c *gin.Context) {
	status, err := h.books.Checkout(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": status})
}

func (h HandlerSet) Download(c *gin.Context) {
	out, err := h.books.Download(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, out.Filename))
	c.Data(http.StatusOK, "application/epub+zip", out.Data)
}
