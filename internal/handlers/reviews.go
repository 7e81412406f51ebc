package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/bookery/backend/internal/database"
	"github.com/bookery/backend/internal/logger"
	"github.com/bookery/backend/internal/models"
	"github.com/bookery/backend/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CreateReviewRequest is the payload for reviewing a book
type CreateReviewRequest struct {
	ReviewText string  `json:"review_text" binding:"required"`
	Rating     float64 `json:"rating" binding:"required,min=1,max=5"`
}

// UpdateReviewRequest carries a partial review update
type UpdateReviewRequest struct {
	ReviewText *string  `json:"review_text"`
	Rating     *float64 `json:"rating" binding:"omitempty,min=1,max=5"`
}

// CreateReview adds a review to a book
// POST /api/v1/books/:book_id/reviews
func (h *Handlers) CreateReview(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	bookID := c.Param("book_id")

	var req CreateReviewRequest
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
		logger.Log.Error("Failed to fetch book for review", logger.WithBookID(bookID), zap.Error(err))
		util.RespondInternalError(c, "failed to create review")
		return
	}

	review := models.Review{
		BookID:     bookID,
		UserID:     userID,
		ReviewText: req.ReviewText,
		Rating:     req.Rating,
	}

	if err := database.DB.Create(&review).Error; err != nil {
		logger.Log.Error("Failed to create review",
			logger.WithBookID(bookID),
			logger.WithUserID(userID),
			zap.Error(err),
		)
		util.RespondInternalError(c, "failed to create review")
		return
	}

	c.JSON(http.StatusCreated, review)
}

// ListReviews returns a paginated list of a book's reviews
// GET /api/v1/books/:book_id/reviews
func (h *Handlers) ListReviews(c *gin.Context) {
	bookID := c.Param("book_id")
	page := util.ParseInt(c.DefaultQuery("page", "1"), 1)
	if page < 1 {
		page = 1
	}
	pageSize := util.ClampLimit(c.DefaultQuery("page_size", "10"), defaultPageSize, maxPageSize)
	minRating := util.ParseFloat(c.Query("min_rating"), 0)

	query := database.DB.Model(&models.Review{}).Where("book_id = ?", bookID)
	if minRating > 0 {
		query = query.Where("rating >= ?", minRating)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Log.Error("Failed to count reviews", logger.WithBookID(bookID), zap.Error(err))
		util.RespondInternalError(c, "failed to list reviews")
		return
	}

	var reviews []models.Review
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&reviews).Error
	if err != nil {
		logger.Log.Error("Failed to list reviews", logger.WithBookID(bookID), zap.Error(err))
		util.RespondInternalError(c, "failed to list reviews")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reviews": reviews,
		"meta": gin.H{
			"page":      page,
			"page_size": pageSize,
			"total":     total,
		},
	})
}

// BookReviewSummary returns the rating aggregate plus a prose digest of a
// book's reviews
// GET /api/v1/books/:book_id/summary
func (h *Handlers) BookReviewSummary(c *gin.Context) {
	bookID := c.Param("book_id")

	var book models.Book
	err := database.DB.Where("id = ?", bookID).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondNotFound(c, "book")
		return
	}
	if err != nil {
		logger.Log.Error("Failed to fetch book for summary", logger.WithBookID(bookID), zap.Error(err))
		util.RespondInternalError(c, "failed to summarize reviews")
		return
	}

	summary, err := h.engine.ReviewSummary(c.Request.Context(), bookID)
	if err != nil {
		logger.Log.Error("Failed to summarize reviews", logger.WithBookID(bookID), zap.Error(err))
		util.RespondInternalError(c, "failed to summarize reviews")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"book_id":        bookID,
		"book_title":     book.Title,
		"summary":        summary.Summary,
		"average_rating": summary.AverageRating,
		"review_count":   summary.ReviewCount,
		"source":         summary.Source,
		"generated_at":   time.Now().UTC(),
	})
}

// UpdateReview applies a partial update to the caller's own review
// PUT /api/v1/reviews/:review_id
func (h *Handlers) UpdateReview(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	reviewID := c.Param("review_id")

	var req UpdateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondValidationError(c, "", err.Error())
		return
	}

	var review models.Review
	err := database.DB.Where("id = ?", reviewID).First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondNotFound(c, "review")
		return
	}
	if err != nil {
		logger.Log.Error("Failed to fetch review", zap.String("review_id", reviewID), zap.Error(err))
		util.RespondInternalError(c, "failed to update review")
		return
	}

	if review.UserID != userID {
		util.RespondForbidden(c, "you can only modify your own reviews")
		return
	}

	updates := map[string]interface{}{}
	if req.ReviewText != nil {
		updates["review_text"] = *req.ReviewText
	}
	if req.Rating != nil {
		updates["rating"] = *req.Rating
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&review).Updates(updates).Error; err != nil {
			logger.Log.Error("Failed to update review", zap.String("review_id", reviewID), zap.Error(err))
			util.RespondInternalError(c, "failed to update review")
			return
		}
	}

	c.JSON(http.StatusOK, review)
}

// DeleteReview soft-deletes the caller's own review
// DELETE /api/v1/reviews/:review_id
func (h *Handlers) DeleteReview(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	reviewID := c.Param("review_id")

	var review models.Review
	err := database.DB.Where("id = ?", reviewID).First(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		util.RespondNotFound(c, "review")
		return
	}
	if err != nil {
		logger.Log.Error("Failed to fetch review", zap.String("review_id", reviewID), zap.Error(err))
		util.RespondInternalError(c, "failed to delete review")
		return
	}

	if review.UserID != userID {
		util.RespondForbidden(c, "you can only delete your own reviews")
		return
	}

	if err := database.DB.Delete(&review).Error; err != nil {
		logger.Log.Error("Failed to delete review", zap.String("review_id", reviewID), zap.Error(err))
		util.RespondInternalError(c, "failed to delete review")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "review deleted"})
}
