package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mfkarayel/eshop/internal/auth"
	"github.com/mfkarayel/eshop/internal/domain"
	"github.com/mfkarayel/eshop/internal/event"
	apperrors "github.com/mfkarayel/eshop/pkg/errors"
)

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) List(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *mockUserRepository) Update(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *mockUserRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockUserRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func newUserService(users *mockUserRepository) *UserService {
	logger := newTestLogger()
	jwt := auth.NewJWTManager("test-secret", time.Hour)
	return NewUserService(users, jwt, event.NewProducer(nil, logger), logger)
}

func TestRegister_HashesPassword(t *testing.T) {
	users := new(mockUserRepository)
	svc := newUserService(users)
	ctx := context.Background()

	var captured *domain.User
	users.On("Create", ctx, mock.AnythingOfType("*domain.User")).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(*domain.User)
		}).
		Return(nil)

	user, err := svc.Register(ctx, RegisterInput{
		Name:     "Jane Doe",
		Email:    "jane@example.com",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)
	require.NotNil(t, captured)

	assert.NotEqual(t, "s3cret-pass", captured.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(captured.PasswordHash), []byte("s3cret-pass")))
	assert.NotEmpty(t, user.ID)
	assert.False(t, user.IsAdmin)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	users := new(mockUserRepository)
	svc := newUserService(users)

	users.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).
		Return(apperrors.AlreadyExists("user", "email", "jane@example.com"))

	_, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Jane Doe",
		Email:    "jane@example.com",
		Password: "s3cret-pass",
	})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
}

func TestLogin_Success(t *testing.T) {
	users := new(mockUserRepository)
	svc := newUserService(users)
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	users.On("GetByEmail", ctx, "jane@example.com").Return(&domain.User{
		ID:           "user-001",
		Email:        "jane@example.com",
		PasswordHash: string(hash),
		IsAdmin:      true,
	}, nil)

	result, err := svc.Login(ctx, LoginInput{Email: "jane@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", result.Email)
	assert.NotEmpty(t, result.Token)

	// The token carries the admin flag.
	jwt := auth.NewJWTManager("test-secret", time.Hour)
	claims, err := jwt.ValidateToken(result.Token)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, "user-001", claims.UserID)
}

func TestLogin_WrongPassword(t *testing.T) {
	users := new(mockUserRepository)
	svc := newUserService(users)

	hash, err := bcrypt.GenerateFromPassword([]byte("right-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	users.On("GetByEmail", mock.Anything, "jane@example.com").Return(&domain.User{
		Email:        "jane@example.com",
		PasswordHash: string(hash),
	}, nil)

	_, err = svc.Login(context.Background(), LoginInput{Email: "jane@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestLogin_UnknownEmail_SameError(t *testing.T) {
	users := new(mockUserRepository)
	svc := newUserService(users)

	users.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, apperrors.ErrNotFound)

	_, err := svc.Login(context.Background(), LoginInput{Email: "nobody@example.com", Password: "whatever"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestUpdateUser_EmptyPasswordKeepsHash(t *testing.T) {
	users := new(mockUserRepository)
	svc := newUserService(users)
	ctx := context.Background()

	existing := &domain.User{ID: "user-001", Name: "Jane", Email: "jane@example.com", PasswordHash: "old-hash"}

	var captured *domain.User
	users.On("GetByID", ctx, "user-001").Return(existing, nil)
	users.On("Update", ctx, mock.AnythingOfType("*domain.User")).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(*domain.User)
		}).
		Return(nil)

	_, err := svc.UpdateUser(ctx, "user-001", UpdateUserInput{
		Name:  "Jane Updated",
		Email: "jane@example.com",
	})
	require.NoError(t, err)
	require.NotNil(t, captured)

	// Empty password means the repository keeps the stored hash.
	assert.Empty(t, captured.PasswordHash)
	assert.Equal(t, "Jane Updated", captured.Name)
}

func TestCountUsers(t *testing.T) {
	users := new(mockUserRepository)
	svc := newUserService(users)

	users.On("Count", mock.Anything).Return(11, nil)

	count, err := svc.CountUsers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 11, count)
}
