package recommend

import (
	"context"
	"errors"

	"github.com/bookery/backend/internal/models"
	"gorm.io/gorm"
)

// GormCatalog implements CatalogReader over the books table.
type GormCatalog struct {
	db *gorm.DB
}

// NewGormCatalog creates a catalog reader backed by GORM
func NewGormCatalog(db *gorm.DB) *GormCatalog {
	return &GormCatalog{db: db}
}

func (c *GormCatalog) GetBookByID(ctx context.Context, id string) (*models.Book, error) {
	var book models.Book
	err := c.db.WithContext(ctx).Where("id = ?", id).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (c *GormCatalog) ListByGenre(ctx context.Context, genre string, excludeIDs []string, limit int) ([]models.Book, error) {
	query := c.db.WithContext(ctx).
		Where("LOWER(genre) LIKE LOWER(?)", "%"+genre+"%").
		Order("created_at ASC")
	if len(excludeIDs) > 0 {
		query = query.Where("id NOT IN ?", excludeIDs)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var books []models.Book
	if err := query.Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

func (c *GormCatalog) ListByExactGenre(ctx context.Context, genre string, excludeIDs []string, limit int) ([]models.Book, error) {
	query := c.db.WithContext(ctx).
		Where("genre = ?", genre).
		Order("created_at ASC")
	if len(excludeIDs) > 0 {
		query = query.Where("id NOT IN ?", excludeIDs)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var books []models.Book
	if err := query.Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

func (c *GormCatalog) ListAll(ctx context.Context, limit int) ([]models.Book, error) {
	query := c.db.WithContext(ctx).Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var books []models.Book
	if err := query.Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

// GormReviews implements ReviewReader over the reviews table.
type GormReviews struct {
	db *gorm.DB
}

// NewGormReviews creates a review reader backed by GORM
func NewGormReviews(db *gorm.DB) *GormReviews {
	return &GormReviews{db: db}
}

func (r *GormReviews) ListRatingsForBook(ctx context.Context, bookID string) ([]float64, error) {
	var ratings []float64
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("book_id = ?", bookID).
		Pluck("rating", &ratings).Error
	if err != nil {
		return nil, err
	}
	return ratings, nil
}

func (r *GormReviews) ListReviewTexts(ctx context.Context, bookID string, limit int) ([]string, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("book_id = ?", bookID).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var texts []string
	if err := query.Pluck("review_text", &texts).Error; err != nil {
		return nil, err
	}
	return texts, nil
}

func (r *GormReviews) ListFavoriteGenresForUser(ctx context.Context, userID string, minRating float64, maxGenres int) ([]string, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("books.genre").
		Joins("JOIN books ON books.id = reviews.book_id AND books.deleted_at IS NULL").
		Where("reviews.user_id = ? AND reviews.rating >= ?", userID, minRating).
		Group("books.genre").
		Order("COUNT(*) DESC, books.genre ASC")
	if maxGenres > 0 {
		query = query.Limit(maxGenres)
	}

	var genres []string
	if err := query.Pluck("books.genre", &genres).Error; err != nil {
		return nil, err
	}
	return genres, nil
}
