package user_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/vasiliy-maslov/meetapp/internal/user"
	"golang.org/x/crypto/bcrypt"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *user.User) (int64, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, u *user.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestUserService_CreateUser_Success(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := user.NewService(mockRepo)

	testUser := &user.User{Name: "Test User", Email: "test@example.com"}

	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*user.User")).
		Return(int64(42), nil).
		Once()

	createdUser, err := userService.CreateUser(context.Background(), testUser, "somepassword")
	require.NoError(t, err)
	require.NotNil(t, createdUser)
	require.Equal(t, int64(42), createdUser.ID)

	err = bcrypt.CompareHashAndPassword([]byte(createdUser.PasswordHash), []byte("somepassword"))
	require.NoError(t, err, "Password hash does not match raw password")
	require.NotEqual(t, "somepassword", createdUser.PasswordHash, "Password should be hashed, not raw")

	mockRepo.AssertExpectations(t)
}

func TestUserService_CreateUser_EmailExists(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := user.NewService(mockRepo)

	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*user.User")).
		Return(int64(0), user.ErrEmailExists).
		Once()

	createdUser, err := userService.CreateUser(context.Background(), &user.User{Name: "Dup", Email: "dup@example.com"}, "somepassword")
	require.ErrorIs(t, err, user.ErrEmailExists)
	require.Nil(t, createdUser)
	mockRepo.AssertExpectations(t)
}

func TestUserService_CreateUser_EmptyPassword(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := user.NewService(mockRepo)

	_, err := userService.CreateUser(context.Background(), &user.User{Name: "A", Email: "a@example.com"}, "")
	require.ErrorIs(t, err, user.ErrEmptyPassword)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUserService_GetUserByID(t *testing.T) {
	expected := &user.User{
		ID:        7,
		Name:      "Test",
		Email:     "test@example.com",
		CreatedAt: time.Now().Truncate(time.Second),
		UpdatedAt: time.Now().Truncate(time.Second),
	}

	tests := []struct {
		name      string
		repoUser  *user.User
		repoErr   error
		wantErrIs error
		wantErr   bool
	}{
		{name: "found", repoUser: expected},
		{name: "not_found", repoErr: user.ErrNotFound, wantErr: true, wantErrIs: user.ErrNotFound},
		{name: "db_error", repoErr: errors.New("connection reset"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			userService := user.NewService(mockRepo)

			if tt.repoUser != nil {
				mockRepo.On("GetByID", mock.Anything, int64(7)).Return(tt.repoUser, nil).Once()
			} else {
				mockRepo.On("GetByID", mock.Anything, int64(7)).Return(nil, tt.repoErr).Once()
			}

			got, err := userService.GetUserByID(context.Background(), 7)
			if tt.wantErr {
				require.Error(t, err)
				if tt.wantErrIs != nil {
					require.ErrorIs(t, err, tt.wantErrIs)
				}
				require.Nil(t, got)
			} else {
				require.NoError(t, err)
				if diff := cmp.Diff(expected, got); diff != "" {
					t.Errorf("GetUserByID() mismatch (-want +got):\n%s", diff)
				}
			}
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestUserService_UpdateUser_ChangesNameAndEmail(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := user.NewService(mockRepo)

	current := &user.User{ID: 1, Name: "Old", Email: "old@example.com", PasswordHash: hashPassword(t, "secret123")}

	mockRepo.On("GetByID", mock.Anything, int64(1)).Return(current, nil).Once()
	mockRepo.On("GetByEmail", mock.Anything, "new@example.com").Return(nil, user.ErrNotFound).Once()
	mockRepo.On("Update", mock.Anything, mock.MatchedBy(func(u *user.User) bool {
		return u.ID == 1 && u.Name == "New" && u.Email == "new@example.com"
	})).Return(nil).Once()

	updated, err := userService.UpdateUser(context.Background(), 1, user.UpdateInput{Name: "New", Email: "new@example.com"})
	require.NoError(t, err)
	require.Equal(t, "New", updated.Name)
	require.Equal(t, "new@example.com", updated.Email)
	mockRepo.AssertExpectations(t)
}

func TestUserService_UpdateUser_EmailTaken(t *testing.T) {
	mockRepo := new(MockUserRepository)
	userService := user.NewService(mockRepo)

	mockRepo.On("GetByID", mock.Anything, int64(1)).
		Return(&user.User{ID: 1, Email: "me@example.com"}, nil).Once()
	mockRepo.On("GetByEmail", mock.Anything, "taken@example.com").
		Return(&user.User{ID: 2, Email: "taken@example.com"}, nil).Once()

	_, err := userService.UpdateUser(context.Background(), 1, user.UpdateInput{Email: "taken@example.com"})
	require.ErrorIs(t, err, user.ErrEmailExists)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUserService_UpdateUser_PasswordChange(t *testing.T) {
	tests := []struct {
		name        string
		oldPassword string
		wantErrIs   error
	}{
		{name: "correct_old_password", oldPassword: "secret123"},
		{name: "wrong_old_password", oldPassword: "nope", wantErrIs: user.ErrPasswordMismatch},
		{name: "missing_old_password", oldPassword: "", wantErrIs: user.ErrPasswordMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			userService := user.NewService(mockRepo)

			current := &user.User{ID: 1, Name: "A", Email: "a@example.com", PasswordHash: hashPassword(t, "secret123")}
			mockRepo.On("GetByID", mock.Anything, int64(1)).Return(current, nil).Once()
			if tt.wantErrIs == nil {
				mockRepo.On("Update", mock.Anything, mock.AnythingOfType("*user.User")).Return(nil).Once()
			}

			updated, err := userService.UpdateUser(context.Background(), 1, user.UpdateInput{
				OldPassword: tt.oldPassword,
				Password:    "newsecret123",
			})

			if tt.wantErrIs != nil {
				require.ErrorIs(t, err, tt.wantErrIs)
				mockRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
				return
			}

			require.NoError(t, err)
			require.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("newsecret123")))
			mockRepo.AssertExpectations(t)
		})
	}
}

func TestUserService_Authenticate(t *testing.T) {
	stored := &user.User{ID: 3, Email: "login@example.com", PasswordHash: hashPassword(t, "secret123")}

	t.Run("success", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("GetByEmail", mock.Anything, "login@example.com").Return(stored, nil).Once()

		got, err := user.NewService(mockRepo).Authenticate(context.Background(), "login@example.com", "secret123")
		require.NoError(t, err)
		require.Equal(t, int64(3), got.ID)
	})

	t.Run("wrong_password", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("GetByEmail", mock.Anything, "login@example.com").Return(stored, nil).Once()

		_, err := user.NewService(mockRepo).Authenticate(context.Background(), "login@example.com", "bad")
		require.ErrorIs(t, err, user.ErrInvalidCredentials)
	})

	t.Run("unknown_email", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockRepo.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, user.ErrNotFound).Once()

		_, err := user.NewService(mockRepo).Authenticate(context.Background(), "ghost@example.com", "secret123")
		require.ErrorIs(t, err, user.ErrInvalidCredentials)
	})
}
