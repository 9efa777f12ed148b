package http_test

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/meetapp/internal/auth"
	"github.com/vasiliy-maslov/meetapp/internal/file"
	meetappHttp "github.com/vasiliy-maslov/meetapp/internal/handler/http"
	"github.com/vasiliy-maslov/meetapp/internal/meetup"
	"github.com/vasiliy-maslov/meetapp/internal/registration"
	"github.com/vasiliy-maslov/meetapp/internal/user"
)

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) CreateUser(ctx context.Context, u *user.User, password string) (*user.User, error) {
	args := m.Called(ctx, u, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) GetUserByID(ctx context.Context, id int64) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) UpdateUser(ctx context.Context, id int64, input user.UpdateInput) (*user.User, error) {
	args := m.Called(ctx, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) Authenticate(ctx context.Context, email, password string) (*user.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

type MockFileService struct {
	mock.Mock
}

func (m *MockFileService) Upload(ctx context.Context, name, contentType string, body io.Reader, size int64) (*file.File, error) {
	args := m.Called(ctx, name, contentType, body, size)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*file.File), args.Error(1)
}

func (m *MockFileService) GetByID(ctx context.Context, id int64) (*file.File, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*file.File), args.Error(1)
}

func (m *MockFileService) Resolve(f *file.File) {}

type MockMeetupService struct {
	mock.Mock
}

func (m *MockMeetupService) ListMeetups(ctx context.Context, day time.Time, page int) ([]meetup.Meetup, error) {
	args := m.Called(ctx, day, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]meetup.Meetup), args.Error(1)
}

func (m *MockMeetupService) ListOrganizing(ctx context.Context, userID int64) ([]meetup.Meetup, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]meetup.Meetup), args.Error(1)
}

func (m *MockMeetupService) GetMeetup(ctx context.Context, id int64) (*meetup.Meetup, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*meetup.Meetup), args.Error(1)
}

func (m *MockMeetupService) CreateMeetup(ctx context.Context, userID int64, input meetup.Input) (*meetup.Meetup, error) {
	args := m.Called(ctx, userID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*meetup.Meetup), args.Error(1)
}

func (m *MockMeetupService) UpdateMeetup(ctx context.Context, userID, id int64, input meetup.Input) (*meetup.Meetup, error) {
	args := m.Called(ctx, userID, id, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*meetup.Meetup), args.Error(1)
}

func (m *MockMeetupService) DeleteMeetup(ctx context.Context, userID, id int64) error {
	return m.Called(ctx, userID, id).Error(0)
}

type MockRegistrationService struct {
	mock.Mock
}

func (m *MockRegistrationService) Register(ctx context.Context, userID, meetupID int64) (*registration.Registration, error) {
	args := m.Called(ctx, userID, meetupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*registration.Registration), args.Error(1)
}

func (m *MockRegistrationService) ListUpcoming(ctx context.Context, userID int64) ([]registration.Upcoming, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]registration.Upcoming), args.Error(1)
}

const testUserID int64 = 42

type testEnv struct {
	router        http.Handler
	tokens        *auth.TokenManager
	users         *MockUserService
	files         *MockFileService
	meetups       *MockMeetupService
	registrations *MockRegistrationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		tokens:        auth.NewTokenManager("test-secret", time.Hour),
		users:         new(MockUserService),
		files:         new(MockFileService),
		meetups:       new(MockMeetupService),
		registrations: new(MockRegistrationService),
	}
	env.router = meetappHttp.NewRouter(meetappHttp.Deps{
		Users:         env.users,
		Files:         env.files,
		Meetups:       env.meetups,
		Registrations: env.registrations,
		Tokens:        env.tokens,
		MaxUploadSize: 1 << 10,
	})
	return env
}

// authorize adds a bearer token for testUserID.
func (e *testEnv) authorize(t *testing.T, req *http.Request) *http.Request {
	t.Helper()
	token, err := e.tokens.Generate(testUserID)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}
