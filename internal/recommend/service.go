package recommend

import (
	"context"
	"fmt"

	"github.com/bookery/backend/internal/advisor"
	"github.com/bookery/backend/internal/logger"
	"github.com/bookery/backend/internal/metrics"
	"go.uber.org/zap"
)

// Adviser is the slice of the advisor bridge the engine needs.
type Adviser interface {
	Advise(ctx context.Context, system, prompt string) (string, error)
}

const (
	// DefaultLimit is used when a caller passes a non-positive limit
	DefaultLimit = 5

	// minPopularReviews is the review floor for the popularity strategy
	minPopularReviews = 2

	// favoriteRatingFloor marks a review as positive for history extraction
	favoriteRatingFloor = 4.0

	// maxFavoriteGenres caps how many genres user history contributes
	maxFavoriteGenres = 3

	// advisorFallbackCriteria is the criteria string used when the advisor
	// fails and popular books are served instead
	advisorFallbackCriteria = "Popular highly-rated books (advisor unavailable)"

	// noReviewsMessage is returned for books without any reviews
	noReviewsMessage = "No reviews available for this book yet."
)

// Service computes recommendations and rating aggregates. It is stateless:
// all data access goes through the injected readers and every call is
// synchronous within the request goroutine.
type Service struct {
	catalog CatalogReader
	reviews ReviewReader
	adviser Adviser
}

// NewService creates a recommendation service. adviser may be nil, in which
// case advisor-backed operations go straight to their fallbacks.
func NewService(catalog CatalogReader, reviews ReviewReader, adviser Adviser) *Service {
	return &Service{
		catalog: catalog,
		reviews: reviews,
		adviser: adviser,
	}
}

// Advised asks the external advisor for picks matching freeform preferences.
// The advisor's text is informational only: the returned book list is always
// computed locally. Any advisor failure degrades to Popular with a fixed
// criteria string; the caller never sees an advisor error.
func (s *Service) Advised(ctx context.Context, preferences string, limit int) (*Result, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	books, err := s.Popular(ctx, limit, minPopularReviews)
	if err != nil {
		return nil, err
	}

	if s.adviser == nil {
		metrics.RecordAdvisorFallback("not_configured")
		return &Result{Strategy: StrategyPopular, Criteria: advisorFallbackCriteria, Books: books}, nil
	}

	candidates, err := s.catalog.ListAll(ctx, advisor.MaxPromptBooks)
	if err != nil {
		return nil, err
	}

	infos := make([]advisor.BookInfo, len(candidates))
	for i, b := range candidates {
		infos[i] = advisor.BookInfo{Title: b.Title, Author: b.Author, Genre: b.Genre}
	}

	prompt := advisor.RecommendationPrompt(preferences, infos, limit)
	reasoning, err := s.adviser.Advise(ctx, advisor.SystemPrompt(), prompt)
	if err != nil {
		// Raw advisor error text stays in the logs, never in the response
		logger.Log.Warn("Advisor recommendation failed, serving popular fallback",
			zap.Error(err),
		)
		metrics.RecordAdvisorFallback("advise_error")
		metrics.RecordRecommendation(StrategyPopular)
		return &Result{Strategy: StrategyPopular, Criteria: advisorFallbackCriteria, Books: books}, nil
	}

	metrics.RecordRecommendation(StrategyAdvised)
	return &Result{Strategy: StrategyAdvised, Criteria: reasoning, Books: books}, nil
}

// ReviewSummary produces a prose digest of a book's reviews. Advisor prose
// when possible, a deterministic sentence when the advisor fails, and a
// fixed message when the book has no reviews.
func (s *Service) ReviewSummary(ctx context.Context, bookID string) (*ReviewSummary, error) {
	summary, err := s.Summarize(ctx, bookID)
	if err != nil {
		return nil, err
	}

	if summary.ReviewCount == 0 {
		return &ReviewSummary{
			BookID:  bookID,
			Summary: noReviewsMessage,
			Source:  "none",
		}, nil
	}

	computed := fmt.Sprintf("Book has %d reviews with an average rating of %.2f/5.",
		summary.ReviewCount, summary.AverageRating)

	result := &ReviewSummary{
		BookID:        bookID,
		Summary:       computed,
		AverageRating: summary.AverageRating,
		ReviewCount:   summary.ReviewCount,
		Source:        "computed",
	}

	if s.adviser == nil {
		return result, nil
	}

	texts, err := s.reviews.ListReviewTexts(ctx, bookID, 5)
	if err != nil {
		return nil, err
	}

	title := bookID
	if book, err := s.catalog.GetBookByID(ctx, bookID); err == nil && book != nil {
		title = book.Title
	}

	prompt := advisor.ReviewSummaryPrompt(title, texts, summary.AverageRating)
	text, err := s.adviser.Advise(ctx, advisor.SystemPrompt(), prompt)
	if err != nil {
		logger.Log.Warn("Advisor review summary failed, serving computed sentence",
			zap.String("book_id", bookID),
			zap.Error(err),
		)
		metrics.RecordAdvisorFallback("review_summary_error")
		return result, nil
	}

	result.Summary = text
	result.Source = "advisor"
	return result, nil
}
