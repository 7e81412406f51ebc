package handlers

import (
	"net/http"
	"time"

	"github.com/bookery/backend/internal/logger"
	"github.com/bookery/backend/internal/models"
	"github.com/bookery/backend/internal/recommend"
	"github.com/bookery/backend/internal/util"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultRecLimit = 5
	maxRecLimit     = 50
)

// AdvisedRequest is the payload for advisor-backed recommendations
type AdvisedRequest struct {
	Preferences string `json:"preferences" binding:"required"`
	Limit       int    `json:"limit"`
}

func respondRecommendation(c *gin.Context, strategy, criteria string, books []models.Book) {
	c.JSON(http.StatusOK, gin.H{
		"books":        books,
		"strategy":     strategy,
		"criteria":     criteria,
		"count":        len(books),
		"generated_at": time.Now().UTC(),
	})
}

// RecommendByGenre recommends books matching one or more comma-separated
// genres, merged in the order given. An empty match falls back to popular
// books so the caller always gets something to read.
// GET /api/v1/recommendations/by-genre?genre=&limit=
func (h *Handlers) RecommendByGenre(c *gin.Context) {
	raw := c.Query("genre")
	genres := util.ParseGenreList(raw)
	if len(genres) == 0 {
		util.RespondBadRequest(c, "query parameter 'genre' is required")
		return
	}
	limit := util.ClampLimit(c.DefaultQuery("limit", "5"), defaultRecLimit, maxRecLimit)

	lists := make([][]models.Book, 0, len(genres))
	for _, genre := range genres {
		books, err := h.engine.ByGenre(c.Request.Context(), genre, nil, limit)
		if err != nil {
			logger.Log.Error("Genre recommendation failed", zap.String("genre", genre), zap.Error(err))
			util.RespondInternalError(c, "failed to compute recommendations")
			return
		}
		lists = append(lists, books)
	}
	books := recommend.Merge(lists, limit)

	if len(books) == 0 {
		books, err := h.engine.Popular(c.Request.Context(), limit, 0)
		if err != nil {
			logger.Log.Error("Popular fallback failed", zap.String("genre", raw), zap.Error(err))
			util.RespondInternalError(c, "failed to compute recommendations")
			return
		}
		respondRecommendation(c, recommend.StrategyPopular,
			"No books matched genre '"+raw+"'; showing popular books instead", books)
		return
	}

	respondRecommendation(c, recommend.StrategyGenre, "Books in genre '"+raw+"'", books)
}

// RecommendPopular recommends the highest-rated books
// GET /api/v1/recommendations/popular?limit=
func (h *Handlers) RecommendPopular(c *gin.Context) {
	limit := util.ClampLimit(c.DefaultQuery("limit", "5"), defaultRecLimit, maxRecLimit)

	books, err := h.engine.Popular(c.Request.Context(), limit, 0)
	if err != nil {
		logger.Log.Error("Popular recommendation failed", zap.Error(err))
		util.RespondInternalError(c, "failed to compute recommendations")
		return
	}

	respondRecommendation(c, recommend.StrategyPopular, "Popular highly-rated books", books)
}

// RecommendSimilar recommends books sharing the reference book's genre.
// An unknown reference book yields an empty list, not an error.
// GET /api/v1/recommendations/similar/:book_id?limit=
func (h *Handlers) RecommendSimilar(c *gin.Context) {
	bookID := c.Param("book_id")
	limit := util.ClampLimit(c.DefaultQuery("limit", "5"), defaultRecLimit, maxRecLimit)

	books, err := h.engine.SimilarTo(c.Request.Context(), bookID, limit)
	if err != nil {
		logger.Log.Error("Similarity recommendation failed", logger.WithBookID(bookID), zap.Error(err))
		util.RespondInternalError(c, "failed to compute recommendations")
		return
	}

	respondRecommendation(c, recommend.StrategySimilar, "Books similar to "+bookID, books)
}

// RecommendForMe recommends books from the caller's favorite genres, falling
// back to popular books for users without rating history
// GET /api/v1/recommendations/for-me?limit=
func (h *Handlers) RecommendForMe(c *gin.Context) {
	userID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	limit := util.ClampLimit(c.DefaultQuery("limit", "5"), defaultRecLimit, maxRecLimit)

	books, err := h.engine.ForUser(c.Request.Context(), userID, limit)
	if err != nil {
		logger.Log.Error("History recommendation failed", logger.WithUserID(userID), zap.Error(err))
		util.RespondInternalError(c, "failed to compute recommendations")
		return
	}

	respondRecommendation(c, recommend.StrategyHistory, "Based on your reading history", books)
}

// RecommendAdvised asks the external advisor for picks matching freeform
// preferences. Advisor failures degrade to popular books; this endpoint
// never returns an advisor error to the caller.
// POST /api/v1/recommendations/advised
func (h *Handlers) RecommendAdvised(c *gin.Context) {
	var req AdvisedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondValidationError(c, "", err.Error())
		return
	}

	limit := req.Limit
	if limit < 1 {
		limit = defaultRecLimit
	}
	if limit > maxRecLimit {
		limit = maxRecLimit
	}

	result, err := h.engine.Advised(c.Request.Context(), req.Preferences, limit)
	if err != nil {
		logger.Log.Error("Advised recommendation failed", zap.Error(err))
		util.RespondInternalError(c, "failed to compute recommendations")
		return
	}

	respondRecommendation(c, result.Strategy, result.Criteria, result.Books)
}
