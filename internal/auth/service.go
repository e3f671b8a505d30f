package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mrlokans/bookies/internal/config"
	"github.com/mrlokans/bookies/internal/database"
	"github.com/mrlokans/bookies/internal/entities"
)

var (
	ErrUnknownUser      = errors.New("unknown user")
	ErrWrongPassword    = errors.New("wrong password")
	ErrUserExists       = errors.New("user already exists")
	ErrInvalidInput     = errors.New("username and password are required")
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// UserStore is the credential store the service authenticates against.
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash string) (*entities.User, error)
	GetUserByUsername(ctx context.Context, username string) (*entities.User, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
}

// Identity is the result of a successful authentication.
type Identity struct {
	ID       uint
	Username string
	Role     entities.UserRole
}

// RolePolicy derives a role from a username. It is the only place the
// reserved admin account is recognised.
type RolePolicy struct {
	AdminUsername string
}

// RoleFor returns admin for the reserved username (exact, case-sensitive match).
func (p RolePolicy) RoleFor(username string) entities.UserRole {
	if p.IsReserved(username) {
		return entities.UserRoleAdmin
	}
	return entities.UserRoleUser
}

// IsReserved reports whether username is the admin account.
func (p RolePolicy) IsReserved(username string) bool {
	return p.AdminUsername != "" && username == p.AdminUsername
}

// Service verifies credentials and registers users. It keeps no
// throttling state; see Gate for that.
type Service struct {
	store      UserStore
	roles      RolePolicy
	bcryptCost int
}

// NewService creates a new authentication service.
func NewService(store UserStore, cfg config.Auth) *Service {
	return &Service{
		store:      store,
		roles:      RolePolicy{AdminUsername: cfg.AdminUsername},
		bcryptCost: cfg.BcryptCost,
	}
}

// Roles exposes the role policy used for authenticated identities.
func (s *Service) Roles() RolePolicy {
	return s.roles
}

// Authenticate checks username and password against the store.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*Identity, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			return nil, ErrWrongPassword
		}
		return nil, err
	}

	return &Identity{
		ID:       user.ID,
		Username: user.Username,
		Role:     s.roles.RoleFor(user.Username),
	}, nil
}

// Register creates a user with a bcrypt digest of password.
func (s *Service) Register(ctx context.Context, username, password, passwordConfirm string) (*entities.User, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, ErrInvalidInput
	}

	taken, err := s.store.UsernameTaken(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if taken {
		return nil, ErrUserExists
	}

	if password != passwordConfirm {
		return nil, ErrPasswordMismatch
	}

	passwordHash, err := HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user, err := s.store.CreateUser(ctx, username, passwordHash)
	if err != nil {
		// Lost a race against a concurrent registration of the same name
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}
