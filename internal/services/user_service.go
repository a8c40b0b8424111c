package services

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pvillarroel/timetracker-be/internal/apperrors"
	"github.com/pvillarroel/timetracker-be/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(email, name, password string) (models.User, error)
	Authenticate(email, password string) (models.User, error)
	GetByEmail(email string) (models.User, error)
	GetByID(id string) (models.User, error)
}

// UserService provides business logic for user registration and login.
type UserService struct {
	db *sql.DB
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

// Register creates a new enabled user, hashing their password. A duplicate
// email is a conflict, surfaced as USER_EMAIL_ALREADY_EXISTS.
func (s *UserService) Register(email, name, password string) (models.User, error) {
	if email == "" || password == "" {
		return models.User{}, apperrors.Invalid("email and password are required")
	}

	var exists int
	err := s.db.QueryRow("SELECT 1 FROM users WHERE email = ?", email).Scan(&exists)
	if err == nil {
		return models.User{}, apperrors.Conflict(apperrors.CodeUserEmailExists, "User already exists with email: %s", email)
	}
	if err != sql.ErrNoRows {
		return models.User{}, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	user := models.User{
		ID:        uuid.New().String(),
		Email:     email,
		Name:      name,
		Enabled:   true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = s.db.Exec(`
		INSERT INTO users (id, email, name, password_hash, enabled, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.Name, string(hashedPassword), user.Enabled, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return models.User{}, err
	}

	return user, nil
}

// Authenticate verifies a user's credentials. Unknown email, wrong password
// and disabled account all produce the same error so callers cannot probe
// for registered addresses.
func (s *UserService) Authenticate(email, password string) (models.User, error) {
	user, err := findUserByEmail(s.db, email)
	if err != nil {
		return models.User{}, apperrors.Unauthenticated("Invalid email or password")
	}

	if !user.Enabled {
		return models.User{}, apperrors.Unauthenticated("Invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, apperrors.Unauthenticated("Invalid email or password")
	}

	// Don't send the password hash to the client
	user.PasswordHash = ""
	return user, nil
}

// GetByEmail retrieves a user by email, without the password hash.
func (s *UserService) GetByEmail(email string) (models.User, error) {
	user, err := findUserByEmail(s.db, email)
	if err != nil {
		return models.User{}, err
	}
	user.PasswordHash = ""
	return user, nil
}

// GetByID retrieves a user by ID, without the password hash.
func (s *UserService) GetByID(id string) (models.User, error) {
	var user models.User
	row := s.db.QueryRow("SELECT id, email, name, enabled, created_at, updated_at FROM users WHERE id = ?", id)
	err := row.Scan(&user.ID, &user.Email, &user.Name, &user.Enabled, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, apperrors.NotFound(apperrors.CodeUserNotFound, "User not found with id: %s", id)
		}
		return models.User{}, err
	}
	return user, nil
}
