// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup, migrations, genre seeding, error translation
//	├── books/           # Books, authors, genres and collection memberships
//	└── users/           # Credential storage
//
// # Using Sub-packages
//
//	db, err := database.NewDatabase("./db/bookies.db", config.DefaultGenres)
//
//	booksRepo := books.NewRepository(db.DB)
//	usersRepo := users.NewRepository(db.DB)
//
// # Errors
//
// Repositories return ErrNotFound for lookup misses and ErrDuplicate for
// unique-constraint violations so callers never match on gorm or driver errors.
//
// # Interface Implementations
//
//   - books.Repository: implements catalogue.Store
//   - users.Repository: implements auth.UserStore
package database
