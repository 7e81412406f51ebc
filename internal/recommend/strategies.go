package recommend

import (
	"context"
	"sort"

	"github.com/bookery/backend/internal/metrics"
	"github.com/bookery/backend/internal/models"
)

// ByGenre recommends books whose genre contains the given string,
// case-insensitively, in catalog order. An unknown genre yields an
// empty slice, not an error.
func (s *Service) ByGenre(ctx context.Context, genre string, excludeIDs []string, limit int) ([]models.Book, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	books, err := s.catalog.ListByGenre(ctx, genre, excludeIDs, limit)
	if err != nil {
		return nil, err
	}

	metrics.RecordRecommendation(StrategyGenre)
	return books, nil
}

// ratedBook pairs a book with its rating aggregate for sorting
type ratedBook struct {
	book    models.Book
	summary RatingSummary
}

// Popular recommends the highest-rated books having at least minReviews
// reviews, ordered by average rating descending with ties broken by
// ascending book id so results are stable.
func (s *Service) Popular(ctx context.Context, limit, minReviews int) ([]models.Book, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if minReviews <= 0 {
		minReviews = minPopularReviews
	}

	books, err := s.catalog.ListAll(ctx, 0)
	if err != nil {
		return nil, err
	}

	rated := make([]ratedBook, 0, len(books))
	for _, book := range books {
		ratings, err := s.reviews.ListRatingsForBook(ctx, book.ID)
		if err != nil {
			return nil, err
		}
		summary := summarizeRatings(ratings)
		if summary.ReviewCount < minReviews {
			continue
		}
		rated = append(rated, ratedBook{book: book, summary: summary})
	}

	sort.Slice(rated, func(i, j int) bool {
		if rated[i].summary.AverageRating != rated[j].summary.AverageRating {
			return rated[i].summary.AverageRating > rated[j].summary.AverageRating
		}
		return rated[i].book.ID < rated[j].book.ID
	})

	if len(rated) > limit {
		rated = rated[:limit]
	}

	result := make([]models.Book, len(rated))
	for i, rb := range rated {
		result[i] = rb.book
	}

	metrics.RecordRecommendation(StrategyPopular)
	return result, nil
}

// SimilarTo recommends other books with the exact same genre string as the
// reference book. A missing reference book yields an empty slice, not an
// error.
func (s *Service) SimilarTo(ctx context.Context, bookID string, limit int) ([]models.Book, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	book, err := s.catalog.GetBookByID(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book == nil {
		return []models.Book{}, nil
	}

	books, err := s.catalog.ListByExactGenre(ctx, book.Genre, []string{book.ID}, limit)
	if err != nil {
		return nil, err
	}

	metrics.RecordRecommendation(StrategySimilar)
	return books, nil
}

// ForUser recommends books from the user's favorite genres: genres of books
// the user rated at least 4, capped at 3. Without any favorites it delegates
// to Popular. Per-genre fetches are merged in favorite order with first
// occurrence winning.
func (s *Service) ForUser(ctx context.Context, userID string, limit int) ([]models.Book, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	genres, err := s.reviews.ListFavoriteGenresForUser(ctx, userID, favoriteRatingFloor, maxFavoriteGenres)
	if err != nil {
		return nil, err
	}

	if len(genres) == 0 {
		return s.Popular(ctx, limit, minPopularReviews)
	}

	perGenre := limit/len(genres) + 1

	lists := make([][]models.Book, 0, len(genres))
	for _, genre := range genres {
		books, err := s.catalog.ListByGenre(ctx, genre, nil, perGenre)
		if err != nil {
			return nil, err
		}
		lists = append(lists, books)
	}

	metrics.RecordRecommendation(StrategyHistory)
	return Merge(lists, limit), nil
}
