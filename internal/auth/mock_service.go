package auth

import (
	"sync"
	"time"

	"github.com/bookery/backend/internal/models"
	"github.com/google/uuid"
)

// MockCall records a method call for assertion
type MockCall struct {
	Method string
	Args   []interface{}
}

// MockService is a mock implementation of ServiceInterface for testing.
type MockService struct {
	mu sync.Mutex

	// Call tracking
	Calls []MockCall

	// Configurable function overrides
	RegisterFunc        func(req RegisterRequest) (*AuthResponse, error)
	LoginFunc           func(req LoginRequest) (*AuthResponse, error)
	FindUserByEmailFunc func(email string) (*models.User, error)
	ValidateTokenFunc   func(tokenString string) (*models.User, error)

	// Default error to return
	DefaultError error

	// Pre-configured users for testing, keyed by email
	Users map[string]*models.User
}

// NewMockService creates a new mock auth service with sensible defaults
func NewMockService() *MockService {
	return &MockService{
		Calls: make([]MockCall, 0),
		Users: make(map[string]*models.User),
	}
}

func (m *MockService) recordCall(method string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, MockCall{Method: method, Args: args})
}

// GetCallsForMethod returns calls for a specific method
func (m *MockService) GetCallsForMethod(method string) []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []MockCall
	for _, call := range m.Calls {
		if call.Method == method {
			result = append(result, call)
		}
	}
	return result
}

// Reset clears all recorded calls
func (m *MockService) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = make([]MockCall, 0)
}

// AddUser adds a test user to the mock service
func (m *MockService) AddUser(user *models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Users[user.Email] = user
}

func (m *MockService) Register(req RegisterRequest) (*AuthResponse, error) {
	m.recordCall("Register", req)
	if m.RegisterFunc != nil {
		return m.RegisterFunc(req)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}

	if _, exists := m.Users[req.Email]; exists {
		return nil, ErrEmailExists
	}

	user := &models.User{
		ID:       uuid.New().String(),
		Email:    req.Email,
		Username: req.Username,
		Role:     models.RoleUser,
		IsActive: true,
	}
	m.AddUser(user)

	return &AuthResponse{
		Token:     "mock_token_" + user.ID,
		User:      *user,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}, nil
}

func (m *MockService) Login(req LoginRequest) (*AuthResponse, error) {
	m.recordCall("Login", req)
	if m.LoginFunc != nil {
		return m.LoginFunc(req)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}

	user, exists := m.Users[req.Email]
	if !exists {
		return nil, ErrInvalidCredentials
	}

	return &AuthResponse{
		Token:     "mock_token_" + user.ID,
		User:      *user,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}, nil
}

func (m *MockService) FindUserByEmail(email string) (*models.User, error) {
	m.recordCall("FindUserByEmail", email)
	if m.FindUserByEmailFunc != nil {
		return m.FindUserByEmailFunc(email)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}

	user, exists := m.Users[email]
	if !exists {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (m *MockService) ValidateToken(tokenString string) (*models.User, error) {
	m.recordCall("ValidateToken", tokenString)
	if m.ValidateTokenFunc != nil {
		return m.ValidateTokenFunc(tokenString)
	}
	if m.DefaultError != nil {
		return nil, m.DefaultError
	}

	// Default: token invalid
	return nil, ErrUserNotFound
}

// Ensure MockService implements ServiceInterface
var _ ServiceInterface = (*MockService)(nil)
