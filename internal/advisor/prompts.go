package advisor

import (
	"fmt"
	"strings"
)

// systemPrompt frames every advisor request
const systemPrompt = "You are a knowledgeable literary assistant for a book catalog. Answer concisely and only about the books you are given."

// BookInfo is the subset of catalog data included in prompts
type BookInfo struct {
	Title  string
	Author string
	Genre  string
}

// MaxPromptBooks caps the catalog excerpt included in a prompt. Callers
// assembling candidates should fetch at most this many books.
const MaxPromptBooks = 20

// maxPromptReviews caps the review excerpt included in a prompt
const maxPromptReviews = 5

// SystemPrompt returns the shared system message for advisor requests
func SystemPrompt() string {
	return systemPrompt
}

// RecommendationPrompt builds a prompt asking for book picks matching the
// given preferences, constrained to the provided catalog excerpt.
func RecommendationPrompt(preferences string, books []BookInfo, limit int) string {
	if limit <= 0 {
		limit = 5
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Based on the user preferences below, recommend %d books from the available list.\n", limit)
	sb.WriteString("Provide a brief explanation for each recommendation.\n\n")
	fmt.Fprintf(&sb, "User Preferences:\n%s\n\n", preferences)
	sb.WriteString("Available Books:\n")
	for i, b := range books {
		if i >= MaxPromptBooks {
			break
		}
		fmt.Fprintf(&sb, "- %s by %s (Genre: %s)\n", b.Title, b.Author, b.Genre)
	}
	sb.WriteString("\nRecommendations:")
	return sb.String()
}

// ReviewSummaryPrompt builds a prompt asking for a digest of reader reviews.
func ReviewSummaryPrompt(bookTitle string, reviews []string, averageRating float64) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Summarize the following reviews for the book %q.\n", bookTitle)
	fmt.Fprintf(&sb, "The book has an average rating of %.2f/5.\n", averageRating)
	sb.WriteString("Provide key insights about what readers liked and disliked.\n\n")
	sb.WriteString("Reviews:\n")
	for i, r := range reviews {
		if i >= maxPromptReviews {
			break
		}
		fmt.Fprintf(&sb, "- %s\n", r)
	}
	sb.WriteString("\nSummary:")
	return sb.String()
}

// BookSummaryPrompt builds a prompt asking for a short description of a book.
func BookSummaryPrompt(title, author, content string) string {
	var sb strings.Builder
	sb.WriteString("Generate a concise summary for the following book content.\n")
	sb.WriteString("The summary should be 2-3 sentences and capture the main ideas.\n\n")
	fmt.Fprintf(&sb, "Book Title: %s\nAuthor: %s\n\nContent:\n%s\n\nSummary:", title, author, content)
	return sb.String()
}
