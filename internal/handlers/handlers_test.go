package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bookery/backend/internal/auth"
	"github.com/bookery/backend/internal/database"
	"github.com/bookery/backend/internal/logger"
	"github.com/bookery/backend/internal/middleware"
	"github.com/bookery/backend/internal/models"
	"github.com/bookery/backend/internal/recommend"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := logger.Initialize("error", filepath.Join(os.TempDir(), "bookery-handlers-test.log")); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// setupTestEnv wires an in-memory database, a mock auth service and a full
// router the way main does, minus the advisor.
func setupTestEnv(t *testing.T) (*gin.Engine, *auth.MockService, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)

	// SQLite-compatible schema; AutoMigrate relies on gen_random_uuid
	for _, stmt := range []string{
		`CREATE TABLE users (
			id TEXT PRIMARY KEY,
			username TEXT NOT NULL,
			email TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'user',
			is_active BOOLEAN DEFAULT true,
			password_hash TEXT NOT NULL DEFAULT '',
			last_active_at DATETIME,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		)`,
		`CREATE TABLE books (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			author TEXT NOT NULL,
			genre TEXT NOT NULL,
			year_published INTEGER,
			summary TEXT,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		)`,
		`CREATE TABLE reviews (
			id TEXT PRIMARY KEY DEFAULT (lower(hex(randomblob(16)))),
			book_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			review_text TEXT NOT NULL,
			rating REAL NOT NULL,
			created_at DATETIME,
			updated_at DATETIME,
			deleted_at DATETIME
		)`,
	} {
		require.NoError(t, db.Exec(stmt).Error)
	}

	database.DB = db
	t.Cleanup(func() { database.DB = nil })

	mockAuth := auth.NewMockService()
	engine := recommend.NewService(
		recommend.NewGormCatalog(db),
		recommend.NewGormReviews(db),
		nil,
	)
	h := NewHandlers(mockAuth, engine)

	router := gin.New()
	router.GET("/health", h.Health)

	v1 := router.Group("/api/v1")
	v1.POST("/auth/register", h.Register)
	v1.POST("/auth/login", h.Login)
	v1.GET("/auth/me", h.AuthMiddleware(), h.Me)

	v1.GET("/books", h.ListBooks)
	v1.GET("/books/search", h.SearchBooks)
	v1.GET("/books/:book_id", h.GetBook)
	v1.GET("/books/:book_id/reviews", h.ListReviews)
	v1.GET("/books/:book_id/summary", h.BookReviewSummary)

	protected := v1.Group("")
	protected.Use(h.AuthMiddleware())
	protected.POST("/books", h.CreateBook)
	protected.PUT("/books/:book_id", h.UpdateBook)
	protected.DELETE("/books/:book_id", middleware.RequireAdmin(), h.DeleteBook)
	protected.POST("/books/:book_id/generate-summary", h.GenerateBookSummary)
	protected.POST("/books/:book_id/reviews", h.CreateReview)
	protected.PUT("/reviews/:review_id", h.UpdateReview)
	protected.DELETE("/reviews/:review_id", h.DeleteReview)

	protected.GET("/recommendations/by-genre", h.RecommendByGenre)
	protected.GET("/recommendations/popular", h.RecommendPopular)
	protected.GET("/recommendations/similar/:book_id", h.RecommendSimilar)
	protected.GET("/recommendations/for-me", h.RecommendForMe)
	protected.POST("/recommendations/advised", h.RecommendAdvised)

	return router, mockAuth, db
}

// authAs makes the mock validate any token as the given user
func authAs(mockAuth *auth.MockService, user *models.User) {
	mockAuth.ValidateTokenFunc = func(string) (*models.User, error) {
		return user, nil
	}
}

func doRequest(router *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createBook(t *testing.T, db *gorm.DB, id, title, author, genre string, createdAt time.Time) {
	require.NoError(t, db.Create(&models.Book{
		ID:        id,
		Title:     title,
		Author:    author,
		Genre:     genre,
		CreatedAt: createdAt,
	}).Error)
}

func createReview(t *testing.T, db *gorm.DB, id, bookID, userID string, rating float64) {
	require.NoError(t, db.Create(&models.Review{
		ID:         id,
		BookID:     bookID,
		UserID:     userID,
		ReviewText: "review " + id,
		Rating:     rating,
	}).Error)
}

func TestAuthEndpoints(t *testing.T) {
	router, mockAuth, _ := setupTestEnv(t)

	t.Run("Register", func(t *testing.T) {
		w := doRequest(router, "POST", "/api/v1/auth/register", gin.H{
			"email":    "reader@example.com",
			"username": "reader",
			"password": "password123",
		}, "")
		assert.Equal(t, http.StatusCreated, w.Code)

		var resp auth.AuthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "reader@example.com", resp.User.Email)
	})

	t.Run("RegisterDuplicateEmail", func(t *testing.T) {
		w := doRequest(router, "POST", "/api/v1/auth/register", gin.H{
			"email":    "reader@example.com",
			"username": "reader2",
			"password": "password123",
		}, "")
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Login", func(t *testing.T) {
		w := doRequest(router, "POST", "/api/v1/auth/login", gin.H{
			"email":    "reader@example.com",
			"password": "password123",
		}, "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("LoginUnknownEmail", func(t *testing.T) {
		w := doRequest(router, "POST", "/api/v1/auth/login", gin.H{
			"email":    "nobody@example.com",
			"password": "password123",
		}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("MeRequiresToken", func(t *testing.T) {
		w := doRequest(router, "GET", "/api/v1/auth/me", nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Me", func(t *testing.T) {
		authAs(mockAuth, &models.User{ID: "u1", Email: "reader@example.com", Username: "reader"})
		w := doRequest(router, "GET", "/api/v1/auth/me", nil, "any-token")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "reader@example.com")
	})
}

func TestBookCRUD(t *testing.T) {
	router, mockAuth, db := setupTestEnv(t)
	authAs(mockAuth, &models.User{ID: "u1", Role: models.RoleUser})

	// RequireAdmin re-reads the user row, so the accounts must exist
	require.NoError(t, db.Create(&models.User{ID: "u1", Username: "reader", Email: "reader@example.com", Role: models.RoleUser, IsActive: true}).Error)
	require.NoError(t, db.Create(&models.User{ID: "admin1", Username: "admin", Email: "admin@example.com", Role: models.RoleAdmin, IsActive: true}).Error)

	t.Run("CreateRequiresAuth", func(t *testing.T) {
		w := doRequest(router, "POST", "/api/v1/books", gin.H{
			"title": "Dune", "author": "Frank Herbert", "genre": "Science Fiction",
		}, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("CreateValidation", func(t *testing.T) {
		w := doRequest(router, "POST", "/api/v1/books", gin.H{"title": "No Author"}, "tok")
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("GetNotFound", func(t *testing.T) {
		w := doRequest(router, "GET", "/api/v1/books/missing", nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	createBook(t, db, "b1", "Dune", "Frank Herbert", "Science Fiction", base)
	createBook(t, db, "b2", "Neuromancer", "William Gibson", "Science Fiction", base.Add(time.Hour))
	createBook(t, db, "b3", "Gone Girl", "Gillian Flynn", "Thriller", base.Add(2*time.Hour))
	createReview(t, db, "r1", "b1", "u2", 5)
	createReview(t, db, "r2", "b1", "u3", 4)

	t.Run("GetWithRating", func(t *testing.T) {
		w := doRequest(router, "GET", "/api/v1/books/b1", nil, "")
		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			AverageRating float64 `json:"average_rating"`
			ReviewCount   int     `json:"review_count"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, 4.5, resp.AverageRating)
		assert.Equal(t, 2, resp.ReviewCount)
	})

	t.Run("ListWithGenreFilter", func(t *testing.T) {
		w := doRequest(router, "GET", "/api/v1/books?genre=science", nil, "")
		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Books []models.Book `json:"books"`
			Meta  struct {
				Total int64 `json:"total"`
			} `json:"meta"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Len(t, resp.Books, 2)
		assert.Equal(t, int64(2), resp.Meta.Total)
	})

	t.Run("ListPagination", func(t *testing.T) {
		w := doRequest(router, "GET", "/api/v1/books?page=2&page_size=2", nil, "")
		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Books []models.Book `json:"books"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Books, 1)
		assert.Equal(t, "b3", resp.Books[0].ID)
	})

	t.Run("PartialUpdate", func(t *testing.T) {
		w := doRequest(router, "PUT", "/api/v1/books/b3", gin.H{"genre": "Mystery"}, "tok")
		assert.Equal(t, http.StatusOK, w.Code)

		var book models.Book
		require.NoError(t, db.Where("id = ?", "b3").First(&book).Error)
		assert.Equal(t, "Mystery", book.Genre)
		// Fields absent from the payload keep their values
		assert.Equal(t, "Gone Girl", book.Title)
		assert.Equal(t, "Gillian Flynn", book.Author)
	})

	t.Run("GenerateSummaryWithoutAdvisor", func(t *testing.T) {
		w := doRequest(router, "POST", "/api/v1/books/b1/generate-summary", gin.H{
			"content": "A desert planet, a noble house, a spice that bends minds.",
		}, "tok")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("Search", func(t *testing.T) {
		w := doRequest(router, "GET", "/api/v1/books/search?q=gibson", nil, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Neuromancer")

		w = doRequest(router, "GET", "/api/v1/books/search", nil, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("DeleteRequiresAdmin", func(t *testing.T) {
		w := doRequest(router, "DELETE", "/api/v1/books/b3", nil, "tok")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Delete", func(t *testing.T) {
		authAs(mockAuth, &models.User{ID: "admin1", Role: models.RoleAdmin})
		w := doRequest(router, "DELETE", "/api/v1/books/b3", nil, "tok")
		assert.Equal(t, http.StatusOK, w.Code)

		w = doRequest(router, "GET", "/api/v1/books/b3", nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = doRequest(router, "DELETE", "/api/v1/books/b3", nil, "tok")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestReviewEndpoints(t *testing.T) {
	router, mockAuth, db := setupTestEnv(t)
	authAs(mockAuth, &models.User{ID: "u1", Role: models.RoleUser})

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	createBook(t, db, "b1", "Dune", "Frank Herbert", "Science Fiction", base)

	t.Run("CreateOnMissingBook", func(t *testing.T) {
		w := doRequest(router, "POST", "/api/v1/books/missing/reviews", gin.H{
			"review_text": "great", "rating": 5,
		}, "tok")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("RatingOutOfRange", func(t *testing.T) {
		w := doRequest(router, "POST", "/api/v1/books/b1/reviews", gin.H{
			"review_text": "meh", "rating": 6,
		}, "tok")
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	var reviewID string
	t.Run("Create", func(t *testing.T) {
		w := doRequest(router, "POST", "/api/v1/books/b1/reviews", gin.H{
			"review_text": "A masterpiece", "rating": 5,
		}, "tok")
		assert.Equal(t, http.StatusCreated, w.Code)

		var review models.Review
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &review))
		assert.Equal(t, "u1", review.UserID)
		reviewID = review.ID
	})

	t.Run("List", func(t *testing.T) {
		w := doRequest(router, "GET", "/api/v1/books/b1/reviews", nil, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "A masterpiece")
	})

	t.Run("ListMinRatingFilter", func(t *testing.T) {
		createReview(t, db, "r-low", "b1", "u9", 2)

		w := doRequest(router, "GET", "/api/v1/books/b1/reviews?min_rating=4", nil, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "A masterpiece")
		assert.NotContains(t, w.Body.String(), "review r-low")
	})

	t.Run("UpdateOwn", func(t *testing.T) {
		w := doRequest(router, "PUT", "/api/v1/reviews/"+reviewID, gin.H{"rating": 4}, "tok")
		assert.Equal(t, http.StatusOK, w.Code)

		var review models.Review
		require.NoError(t, db.Where("id = ?", reviewID).First(&review).Error)
		assert.Equal(t, 4.0, review.Rating)
		assert.Equal(t, "A masterpiece", review.ReviewText)
	})

	t.Run("UpdateSomeoneElses", func(t *testing.T) {
		authAs(mockAuth, &models.User{ID: "u2", Role: models.RoleUser})
		w := doRequest(router, "PUT", "/api/v1/reviews/"+reviewID, gin.H{"rating": 1}, "tok")
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = doRequest(router, "DELETE", "/api/v1/reviews/"+reviewID, nil, "tok")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("DeleteOwn", func(t *testing.T) {
		authAs(mockAuth, &models.User{ID: "u1", Role: models.RoleUser})
		w := doRequest(router, "DELETE", "/api/v1/reviews/"+reviewID, nil, "tok")
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestReviewSummaryEndpoint(t *testing.T) {
	router, _, db := setupTestEnv(t)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	createBook(t, db, "b1", "Dune", "Frank Herbert", "Science Fiction", base)
	createBook(t, db, "b2", "Neuromancer", "William Gibson", "Science Fiction", base.Add(time.Hour))
	createReview(t, db, "r1", "b1", "u1", 5)
	createReview(t, db, "r2", "b1", "u2", 4)

	t.Run("ComputedSummary", func(t *testing.T) {
		w := doRequest(router, "GET", "/api/v1/books/b1/summary", nil, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Book has 2 reviews with an average rating of 4.50/5.")
		assert.Contains(t, w.Body.String(), `"source":"computed"`)
	})

	t.Run("NoReviews", func(t *testing.T) {
		w := doRequest(router, "GET", "/api/v1/books/b2/summary", nil, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "No reviews available for this book yet.")
		assert.Contains(t, w.Body.String(), `"source":"none"`)
	})

	t.Run("MissingBook", func(t *testing.T) {
		w := doRequest(router, "GET", "/api/v1/books/missing/summary", nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRecommendationEndpoints(t *testing.T) {
	router, mockAuth, db := setupTestEnv(t)
	authAs(mockAuth, &models.User{ID: "u1", Role: models.RoleUser})

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	createBook(t, db, "b1", "Dune", "Frank Herbert", "Science Fiction", base)
	createBook(t, db, "b2", "Neuromancer", "William Gibson", "Science Fiction", base.Add(time.Hour))
	createBook(t, db, "b3", "Gone Girl", "Gillian Flynn", "Thriller", base.Add(2*time.Hour))
	createReview(t, db, "r1", "b1", "u2", 5)
	createReview(t, db, "r2", "b1", "u3", 5)
	createReview(t, db, "r3", "b3", "u2", 3)
	createReview(t, db, "r4", "b3", "u3", 3)

	type recResponse struct {
		Books    []models.Book `json:"books"`
		Strategy string        `json:"strategy"`
		Criteria string        `json:"criteria"`
		Count    int           `json:"count"`
	}

	t.Run("RequiresAuth", func(t *testing.T) {
		w := doRequest(router, "GET", "/api/v1/recommendations/popular", nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Popular", func(t *testing.T) {
		w := doRequest(router, "GET", "/api/v1/recommendations/popular?limit=2", nil, "tok")
		assert.Equal(t, http.StatusOK, w.Code)

		var resp recResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Books, 2)
		assert.Equal(t, "b1", resp.Books[0].ID)
		assert.Equal(t, "b3", resp.Books[1].ID)
		assert.Equal(t, recommend.StrategyPopular, resp.Strategy)
	})

	t.Run("ByGenre", func(t *testing.T) {
		w := doRequest(router, "GET", "/api/v1/recommendations/by-genre?genre=science", nil, "tok")
		assert.Equal(t, http.StatusOK, w.Code)

		var resp recResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, recommend.StrategyGenre, resp.Strategy)
		assert.Equal(t, 2, resp.Count)
	})

	t.Run("ByGenreMultiple", func(t *testing.T) {
		w := doRequest(router, "GET", "/api/v1/recommendations/by-genre?genre=thriller,science", nil, "tok")
		assert.Equal(t, http.StatusOK, w.Code)

		var resp recResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Books, 3)
		// Genres contribute in the order given
		assert.Equal(t, "b3", resp.Books[0].ID)
		assert.Equal(t, "b1", resp.Books[1].ID)
		assert.Equal(t, "b2", resp.Books[2].ID)
	})

	t.Run("ByGenreMissingParam", func(t *testing.T) {
		w := doRequest(router, "GET", "/api/v1/recommendations/by-genre", nil, "tok")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("ByGenreFallsBackToPopular", func(t *testing.T) {
		w := doRequest(router, "GET", "/api/v1/recommendations/by-genre?genre=poetry", nil, "tok")
		assert.Equal(t, http.StatusOK, w.Code)

		var resp recResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, recommend.StrategyPopular, resp.Strategy)
		assert.NotEmpty(t, resp.Books)
	})

	t.Run("Similar", func(t *testing.T) {
		w := doRequest(router, "GET", "/api/v1/recommendations/similar/b1", nil, "tok")
		assert.Equal(t, http.StatusOK, w.Code)

		var resp recResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Books, 1)
		assert.Equal(t, "b2", resp.Books[0].ID)
	})

	t.Run("SimilarUnknownBook", func(t *testing.T) {
		// Missing reference book is an empty result, not an error
		w := doRequest(router, "GET", "/api/v1/recommendations/similar/missing", nil, "tok")
		assert.Equal(t, http.StatusOK, w.Code)

		var resp recResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Empty(t, resp.Books)
	})

	t.Run("ForMe", func(t *testing.T) {
		// u1 has no positive ratings, so history delegates to popular
		w := doRequest(router, "GET", "/api/v1/recommendations/for-me", nil, "tok")
		assert.Equal(t, http.StatusOK, w.Code)

		var resp recResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, recommend.StrategyHistory, resp.Strategy)
		assert.NotEmpty(t, resp.Books)
	})

	t.Run("AdvisedWithoutAdvisor", func(t *testing.T) {
		// No advisor is wired in tests, so the engine serves the popular
		// fallback with its fixed criteria string
		w := doRequest(router, "POST", "/api/v1/recommendations/advised", gin.H{
			"preferences": "space opera with politics",
		}, "tok")
		assert.Equal(t, http.StatusOK, w.Code)

		var resp recResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, recommend.StrategyPopular, resp.Strategy)
		assert.Equal(t, "Popular highly-rated books (advisor unavailable)", resp.Criteria)
		assert.NotEmpty(t, resp.Books)
	})

	t.Run("AdvisedValidation", func(t *testing.T) {
		w := doRequest(router, "POST", "/api/v1/recommendations/advised", gin.H{}, "tok")
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}
