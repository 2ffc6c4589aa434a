package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/go-rental-backend/internal/domain"
	"github.com/tbourn/go-rental-backend/internal/repo"
)

// UserRepo is the persistence contract of the user directory.
type UserRepo interface {
	CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error
	GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error)
	UserExists(ctx context.Context, db *gorm.DB, id string) (bool, error)
}

// NewUser is the input for UserService.Create.
type NewUser struct {
	Username        string
	ProfileImageURL string
	Phone           string
	Address         string
	Bio             string
}

// UserService is the user directory: account creation and lookups used to
// validate renters and owners.
type UserService struct {
	DB   *gorm.DB
	Repo UserRepo
}

// NewUserService constructs a UserService.
func NewUserService(db *gorm.DB, r UserRepo) *UserService {
	return &UserService{DB: db, Repo: r}
}

var usernameRE = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,64}$`)

// Create registers a user. Usernames are 3-64 characters of letters,
// digits, '_', '.', or '-' and must be unique.
func (s *UserService) Create(ctx context.Context, in NewUser) (*domain.User, error) {
	ctx, span := otel.Tracer("services/UserService").Start(ctx, "Create")
	defer span.End()

	username := strings.TrimSpace(in.Username)
	if !usernameRE.MatchString(username) {
		return nil, validationError("username must be 3-64 characters of letters, digits, '_', '.', '-'")
	}
	now := time.Now().UTC()
	u := &domain.User{
		ID:              uuid.NewString(),
		Username:        username,
		ProfileImageURL: strings.TrimSpace(in.ProfileImageURL),
		Phone:           strings.TrimSpace(in.Phone),
		Address:         normalizeText(in.Address),
		Bio:             strings.TrimSpace(in.Bio),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.Repo.CreateUser(ctx, s.DB, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, classify(err)
	}
	span.SetAttributes(attribute.String("user.id", u.ID))
	return u, nil
}

// Get returns the user with id.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	ctx, span := otel.Tracer("services/UserService").Start(ctx, "Get",
		trace.WithAttributes(attribute.String("user.id", id)))
	defer span.End()

	u, err := s.Repo.GetUser(ctx, s.DB, id)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return u, nil
}

// Exists reports whether a user with id exists.
func (s *UserService) Exists(ctx context.Context, id string) (bool, error) {
	if strings.TrimSpace(id) == "" {
		return false, nil
	}
	return s.Repo.UserExists(ctx, s.DB, id)
}
