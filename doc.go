// Package backend provides the Bookery API server.

// This package contains the main application entry point. The actual API
// documentation is organized into subpackages:

// - internal/handlers: HTTP request handlers for all API endpoints
// - internal/models: Data models and database schemas
// - internal/auth: Authentication and authorization services
// - internal/recommend: Recommendation strategies and rating aggregation
// - internal/advisor: External text-generation advisor bridge
// - internal/middleware: HTTP middleware (request ids, metrics, caching)
// - internal/database: Database connection and migrations

// See the individual package documentation for detailed API reference.
package backend
