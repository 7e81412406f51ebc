package recommend

import (
	"context"
	"math"
)

// roundHalfUp rounds to two decimal places with exact halves rounding up,
// matching how ratings are displayed everywhere in the API.
func roundHalfUp(x float64) float64 {
	return math.Floor(x*100+0.5) / 100
}

// summarizeRatings computes the rating aggregate for a list of ratings.
// No reviews yields the (0.0, 0) sentinel rather than an error.
func summarizeRatings(ratings []float64) RatingSummary {
	if len(ratings) == 0 {
		return RatingSummary{AverageRating: 0.0, ReviewCount: 0}
	}

	var sum float64
	for _, r := range ratings {
		sum += r
	}

	return RatingSummary{
		AverageRating: roundHalfUp(sum / float64(len(ratings))),
		ReviewCount:   len(ratings),
	}
}

// Summarize returns the rating aggregate for one book.
func (s *Service) Summarize(ctx context.Context, bookID string) (RatingSummary, error) {
	ratings, err := s.reviews.ListRatingsForBook(ctx, bookID)
	if err != nil {
		return RatingSummary{}, err
	}
	return summarizeRatings(ratings), nil
}
