package handlers

import (
	"errors"
	"net/http"

	"github.com/bookery/backend/internal/advisor"
	"github.com/bookery/backend/internal/database"
	apierrors "github.com/bookery/backend/internal/errors"
	"github.com/bookery/backend/internal/logger"
	"github.com/bookery/backend/internal/models"
	"github.com/bookery/backend/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// CreateBookRequest is the payload for adding a book to the catalog
type CreateBookRequest struct {
	Title         string `json:"title" binding:"required"`
	Author        string `json:"author" binding:"required"`
	Genre         string `json:"genre" binding:"required"`
	YearPublished *int   `json:"year_published"`
	Summary       string `json:"summary"`
}

// UpdateBookRequest carries a partial update; only non-nil fields are applied
type UpdateBookRequest struct {
	Title         *string `json:"title"`
	Author        *string `json:"author"`
	Genre         *string `json:"genre"`
	YearPublished *int    `json:"year_published"`
	Summary       *string `json:"summary"`
}

// CreateBook adds a new book to the catalog
// POST /api/v1/books
func (h *Handlers) CreateBook(c *gin.Context) {
	var req CreateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondValidationError(c, "", err.Error())
		return
	}

	book := models.Book{
		Title:         req.Title,
		Author:        req.Author,
		Genre:         req.Genre,
		YearPublished: req.YearPublished,
		Summary:       req.Summary,
	}

	if err := database.DB.Create(&book).Error; err != nil {
		logger.Log.Error("Failed to create book", zap.Error(err))
		util.RespondInternalError(c, "failed to create book")
		return
	}

	c.JSON(http.StatusCreated, book)
}

// ListBooks returns a paginated slice of the catalog with optional
// genre and author filters
// GET /api/v1/books
func (h *Handlers) ListBooks(c *gin.Context) {
	page := util.ParseInt(c.DefaultQuery("page", "1"), 1)
	if page < 1 {
		page = 1
	}
	pageSize := util.ClampLimit(c.DefaultQuery("page_size", "10"), defaultPageSize, maxPageSize)

	query := database.DB.Model(&models.Book{})
	if genre := c.Query("genre"); genre != "" {
		query = query.Where("LOWER(genre) LIKE LOWER(?)", "%"+genre+"%")
	}
	if author := c.Query("author"); author != "" {
		query = query.Where("LOWER(author) LIKE LOWER(?)", "%"+author+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Log.Error("Failed to count books", zap.Error(err))
		util.RespondInternalError(c, "failed to list books")
		return
	}

	var books []models.Book
	err := query.Order("created_at ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&books).Error
	if err != nil {
		logger.Log.Error("Failed to list books", zap.Error(err))
		util.RespondInternalError(c, "failed to list books")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"books": books,
		"meta": gin.H{
			"page":      page,
			"page_size": pageSize,
			"total":     total,
		},
	})
}

// GetBook returns a single book with its reviews and rating aggregate
// GET /api/v1/books/:book_id
func (h *Handlers) GetBook(c *gin.Context) {
	bookID := c.Param("book_id")

	var book models.Book
	err := database.DB.Preload("Reviews").Where("id = ?", bookID).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondNotFound(c, "book")
		return
	}
	if err != nil {
		logger.Log.Error("Failed to fetch book", logger.WithBookID(bookID), zap.Error(err))
		util.RespondInternalError(c, "failed to fetch book")
		return
	}

	summary, err := h.engine.Summarize(c.Request.Context(), bookID)
	if err != nil {
		logger.Log.Error("Failed to summarize ratings", logger.WithBookID(bookID), zap.Error(err))
		util.RespondInternalError(c, "failed to fetch book")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"book":           book,
		"average_rating": summary.AverageRating,
		"review_count":   summary.ReviewCount,
	})
}

// UpdateBook applies a partial update to a book. Only fields present in the
// request body are changed.
// PUT /api/v1/books/:book_id
func (h *Handlers) UpdateBook(c *gin.Context) {
	bookID := c.Param("book_id")

	var req UpdateBookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondValidationError(c, "", err.Error())
		return
	}

	var book models.Book
	err := database.DB.Where("id = ?", bookID).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondNotFound(c, "book")
		return
	}
	if err != nil {
		logger.Log.Error("Failed to fetch book", logger.WithBookID(bookID), zap.Error(err))
		util.RespondInternalError(c, "failed to update book")
		return
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		updates["title"] = *req.Title
	}
	if req.Author != nil {
		updates["author"] = *req.Author
	}
	if req.Genre != nil {
		updates["genre"] = *req.Genre
	}
	if req.YearPublished != nil {
		updates["year_published"] = *req.YearPublished
	}
	if req.Summary != nil {
		updates["summary"] = *req.Summary
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&book).Updates(updates).Error; err != nil {
			logger.Log.Error("Failed to update book", logger.WithBookID(bookID), zap.Error(err))
			util.RespondInternalError(c, "failed to update book")
			return
		}
	}

	c.JSON(http.StatusOK, book)
}

// DeleteBook soft-deletes a book from the catalog
// DELETE /api/v1/books/:book_id
func (h *Handlers) DeleteBook(c *gin.Context) {
	bookID := c.Param("book_id")

	result := database.DB.Where("id = ?", bookID).Delete(&models.Book{})
	if result.Error != nil {
		logger.Log.Error("Failed to delete book", logger.WithBookID(bookID), zap.Error(result.Error))
		util.RespondInternalError(c, "failed to delete book")
		return
	}
	if result.RowsAffected == 0 {
		util.RespondNotFound(c, "book")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "book deleted"})
}

// GenerateBookSummary asks the advisor to write a catalog summary for a book
// and stores it. Unlike the recommendation endpoints there is no local
// fallback: without a working advisor this returns 503.
// POST /api/v1/books/:book_id/generate-summary
func (h *Handlers) GenerateBookSummary(c *gin.Context) {
	bookID := c.Param("book_id")

	var book models.Book
	err := database.DB.Where("id = ?", bookID).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondNotFound(c, "book")
		return
	}
	if err != nil {
		logger.Log.Error("Failed to fetch book", logger.WithBookID(bookID), zap.Error(err))
		util.RespondInternalError(c, "failed to generate summary")
		return
	}

	if h.bridge == nil {
		util.RespondWithAPIError(c, apierrors.ServiceUnavailable("advisor"))
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondValidationError(c, "", err.Error())
		return
	}

	prompt := advisor.BookSummaryPrompt(book.Title, book.Author, req.Content)
	summary, err := h.bridge.Advise(c.Request.Context(), advisor.SystemPrompt(), prompt)
	if err != nil {
		logger.Log.Warn("Advisor book summary failed", logger.WithBookID(bookID), zap.Error(err))
		util.RespondWithAPIError(c, apierrors.ServiceUnavailable("advisor"))
		return
	}

	if err := database.DB.Model(&book).Update("summary", summary).Error; err != nil {
		logger.Log.Error("Failed to store summary", logger.WithBookID(bookID), zap.Error(err))
		util.RespondInternalError(c, "failed to store summary")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"book_id": bookID,
		"summary": summary,
	})
}

// SearchBooks finds books whose title or author contains the query string
// GET /api/v1/books/search?q=
func (h *Handlers) SearchBooks(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		util.RespondBadRequest(c, "query parameter 'q' is required")
		return
	}
	limit := util.ClampLimit(c.DefaultQuery("limit", "10"), defaultPageSize, maxPageSize)

	pattern := "%" + q + "%"
	var books []models.Book
	err := database.DB.
		Where("LOWER(title) LIKE LOWER(?) OR LOWER(author) LIKE LOWER(?)", pattern, pattern).
		Order("created_at ASC").
		Limit(limit).
		Find(&books).Error
	if err != nil {
		logger.Log.Error("Failed to search books", zap.String("query", q), zap.Error(err))
		util.RespondInternalError(c, "failed to search books")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"books": books,
		"meta": gin.H{
			"query": q,
			"count": len(books),
		},
	})
}
