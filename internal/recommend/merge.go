package recommend

import "github.com/bookery/backend/internal/models"

// Merge concatenates candidate lists in priority order, keeping the first
// occurrence of each book id, and truncates to limit. Pure function.
func Merge(lists [][]models.Book, limit int) []models.Book {
	if limit <= 0 {
		return []models.Book{}
	}

	merged := make([]models.Book, 0, limit)
	seen := make(map[string]struct{})

	for _, list := range lists {
		for _, book := range list {
			if _, ok := seen[book.ID]; ok {
				continue
			}
			seen[book.ID] = struct{}{}
			merged = append(merged, book)
			if len(merged) >= limit {
				return merged
			}
		}
	}

	return merged
}
