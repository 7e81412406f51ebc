package seed

import (
	"fmt"
	"time"

	"github.com/bookery/backend/internal/models"
	"github.com/brianvoe/gofakeit/v7"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var genres = []string{
	"Science Fiction",
	"Fantasy",
	"Mystery",
	"Thriller",
	"Romance",
	"Historical Fiction",
	"Horror",
	"Non-Fiction",
	"Biography",
	"Poetry",
}

// Seeder populates the database with fake but plausible catalog data
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a seeder for the given database
func NewSeeder(db *gorm.DB) *Seeder {
	_ = gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{db: db}
}

// SeedDev fills the database with a realistic development dataset
func (s *Seeder) SeedDev() error {
	users, err := s.seedUsers(25)
	if err != nil {
		return fmt.Errorf("seeding users: %w", err)
	}

	books, err := s.seedBooks(120)
	if err != nil {
		return fmt.Errorf("seeding books: %w", err)
	}

	if err := s.seedReviews(users, books, 400); err != nil {
		return fmt.Errorf("seeding reviews: %w", err)
	}

	return nil
}

// SeedTest fills the database with a minimal dataset
func (s *Seeder) SeedTest() error {
	users, err := s.seedUsers(3)
	if err != nil {
		return fmt.Errorf("seeding users: %w", err)
	}

	books, err := s.seedBooks(10)
	if err != nil {
		return fmt.Errorf("seeding books: %w", err)
	}

	return s.seedReviews(users, books, 20)
}

// Clean removes all seeded rows. Hard deletes, so soft-deleted rows go too.
func (s *Seeder) Clean() error {
	for _, table := range []string{"reviews", "books", "users"} {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("cleaning %s: %w", table, err)
		}
	}
	return nil
}

func (s *Seeder) seedUsers(count int) ([]models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	users := make([]models.User, 0, count)
	for i := 0; i < count; i++ {
		username := gofakeit.Username()
		email := gofakeit.Email()

		// Regenerate on collision; the unique indexes reject duplicates
		var existing int64
		s.db.Model(&models.User{}).Where("email = ? OR username = ?", email, username).Count(&existing)
		if existing > 0 {
			username = gofakeit.Username()
			email = gofakeit.Email()
		}

		lastActive := gofakeit.DateRange(time.Now().AddDate(0, 0, -30), time.Now())
		user := models.User{
			Username:     username,
			Email:        email,
			Role:         models.RoleUser,
			IsActive:     true,
			PasswordHash: string(hash),
			LastActiveAt: &lastActive,
		}
		if i == 0 {
			user.Username = "admin"
			user.Email = "admin@bookery.dev"
			user.Role = models.RoleAdmin
		}

		if err := s.db.Create(&user).Error; err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	return users, nil
}

func (s *Seeder) seedBooks(count int) ([]models.Book, error) {
	books := make([]models.Book, 0, count)
	for i := 0; i < count; i++ {
		year := gofakeit.Number(1950, 2025)
		book := models.Book{
			Title:         gofakeit.BookTitle(),
			Author:        gofakeit.BookAuthor(),
			Genre:         genres[gofakeit.Number(0, len(genres)-1)],
			YearPublished: &year,
			Summary:       gofakeit.Paragraph(1, 3, 12, " "),
			CreatedAt:     gofakeit.DateRange(time.Now().AddDate(-1, 0, 0), time.Now()),
		}

		if err := s.db.Create(&book).Error; err != nil {
			return nil, err
		}
		books = append(books, book)
	}

	return books, nil
}

func (s *Seeder) seedReviews(users []models.User, books []models.Book, count int) error {
	for i := 0; i < count; i++ {
		user := users[gofakeit.Number(0, len(users)-1)]
		book := books[gofakeit.Number(0, len(books)-1)]

		// Half-star ratings between 1.0 and 5.0
		rating := float64(gofakeit.Number(2, 10)) / 2.0

		review := models.Review{
			BookID:     book.ID,
			UserID:     user.ID,
			ReviewText: gofakeit.Sentence(gofakeit.Number(8, 25)),
			Rating:     rating,
			CreatedAt:  gofakeit.DateRange(book.CreatedAt, time.Now()),
		}

		if err := s.db.Create(&review).Error; err != nil {
			return err
		}
	}

	return nil
}
