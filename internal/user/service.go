package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/inventory-management/internal"
	userDatamodel "github.com/frahmantamala/inventory-management/internal/core/datamodel/user"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound  = errors.New("user not found")
	ErrDuplicate = errors.New("user email already exists")
)

type RepositoryAPI interface {
	Create(ctx context.Context, u *userDatamodel.User) error
	GetByID(ctx context.Context, id int64) (*userDatamodel.User, error)
	GetByEmail(ctx context.Context, email string) (*userDatamodel.User, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*userDatamodel.User, error)
	FirstByRole(ctx context.Context, role string) (*userDatamodel.User, error)
	First(ctx context.Context) (*userDatamodel.User, error)
	List(ctx context.Context) ([]*userDatamodel.User, error)
}

type Service struct {
	repo       RepositoryAPI
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = 10
	}
	return &Service{
		repo:       repo,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Create registers a user. The role is coerced onto the supported set.
func (s *Service) Create(ctx context.Context, dto CreateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	return s.create(ctx, dto.Name, dto.Email, dto.Password, internal.NormalizeRole(dto.Role))
}

// CreateAdmin registers an admin; name defaults to "Admin".
func (s *Service) CreateAdmin(ctx context.Context, dto CreateUserDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	name := dto.Name
	if name == "" {
		name = "Admin"
	}
	return s.create(ctx, name, dto.Email, dto.Password, internal.RoleAdmin)
}

func (s *Service) create(ctx context.Context, name, email, password string, role internal.Role) (*User, error) {
	email = NormalizeEmail(email)

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, internal.NewInternalError("failed to check email", err)
	}
	if existing != nil {
		return nil, internal.NewConflictError("email already exists", internal.ErrCodeEmailTaken)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	u := &User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
	}
	dm := ToDataModel(u)
	if err := s.repo.Create(ctx, dm); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return nil, internal.NewConflictError("email already exists", internal.ErrCodeEmailTaken)
		}
		s.logger.Error("failed to create user", "error", err, "email", email)
		return nil, internal.NewInternalError("failed to create user", err)
	}

	s.logger.Info("user created", "user_id", dm.ID, "role", role)
	return FromDataModel(dm), nil
}

func (s *Service) List(ctx context.Context) ([]*User, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	users := make([]*User, 0, len(rows))
	for _, r := range rows {
		users = append(users, FromDataModel(r))
	}
	return users, nil
}

func (s *Service) GetByID(ctx context.Context, id int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(u), nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, err := s.repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	return FromDataModel(u), nil
}

// Fallback returns the first admin, else the first user, else ErrNotFound.
func (s *Service) Fallback(ctx context.Context) (*User, error) {
	u, err := s.repo.FirstByRole(ctx, string(internal.RoleAdmin))
	if err == nil {
		return FromDataModel(u), nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	u, err = s.repo.First(ctx)
	if err != nil {
		return nil, err
	}
	return FromDataModel(u), nil
}

// Summaries loads display records for ids; unknown ids are absent from the map.
func (s *Service) Summaries(ctx context.Context, ids []int64) (map[int64]*Summary, error) {
	out := make(map[int64]*Summary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	for _, r := range rows {
		out[r.ID] = FromDataModel(r).ToSummary()
	}
	return out, nil
}

// VerifyPassword reports whether password matches the stored hash.
func VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
