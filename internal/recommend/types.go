package recommend

import (
	"context"

	"github.com/bookery/backend/internal/models"
)

// CatalogReader provides read access to the book catalog.
type CatalogReader interface {
	// GetBookByID returns (nil, nil) when no such book exists.
	GetBookByID(ctx context.Context, id string) (*models.Book, error)

	// ListByGenre matches genre case-insensitively as a substring,
	// skipping excludeIDs, in catalog-native order.
	ListByGenre(ctx context.Context, genre string, excludeIDs []string, limit int) ([]models.Book, error)

	// ListByExactGenre matches the genre string exactly, skipping excludeIDs.
	ListByExactGenre(ctx context.Context, genre string, excludeIDs []string, limit int) ([]models.Book, error)

	// ListAll returns up to limit books in catalog-native order.
	// limit <= 0 means no limit.
	ListAll(ctx context.Context, limit int) ([]models.Book, error)
}

// ReviewReader provides read access to review data.
type ReviewReader interface {
	ListRatingsForBook(ctx context.Context, bookID string) ([]float64, error)

	ListReviewTexts(ctx context.Context, bookID string, limit int) ([]string, error)

	// ListFavoriteGenresForUser returns the genres of books the user rated at
	// least minRating, ordered by descending positive-review count with ties
	// broken by genre name, capped at maxGenres.
	ListFavoriteGenresForUser(ctx context.Context, userID string, minRating float64, maxGenres int) ([]string, error)
}

// RatingSummary aggregates the reviews of one book.
type RatingSummary struct {
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`
}

// Result is a recommendation response: which strategy produced it, the
// criteria it used, and the books picked.
type Result struct {
	Strategy string        `json:"strategy"`
	Criteria string        `json:"criteria,omitempty"`
	Books    []models.Book `json:"books"`
}

// ReviewSummary is a prose digest of a book's reviews.
type ReviewSummary struct {
	BookID        string  `json:"book_id"`
	Summary       string  `json:"summary"`
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`
	Source        string  `json:"source"` // "advisor", "computed", or "none"
}

// Strategy names used in results and metrics
const (
	StrategyGenre   = "genre"
	StrategyPopular = "popular"
	StrategySimilar = "similar"
	StrategyHistory = "history"
	StrategyAdvised = "advised"
)
