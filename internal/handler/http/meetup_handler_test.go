package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/vasiliy-maslov/meetapp/internal/file"
	meetappHttp "github.com/vasiliy-maslov/meetapp/internal/handler/http"
	"github.com/vasiliy-maslov/meetapp/internal/meetup"
	"github.com/vasiliy-maslov/meetapp/internal/user"
)

func TestMeetupHandler_handleListMeetups(t *testing.T) {
	env := newTestEnv(t)

	past := time.Date(2001, time.May, 4, 9, 0, 0, 0, time.UTC)
	future := time.Date(2090, time.May, 4, 9, 0, 0, 0, time.UTC)
	day := time.Date(2090, time.May, 4, 0, 0, 0, 0, time.UTC)

	env.meetups.On("ListMeetups", mock.Anything, day, 2).Return([]meetup.Meetup{
		{ID: 1, Title: "Old", Date: past, UserID: 3, Organizer: &user.User{ID: 3, Name: "Org", Email: "org@example.com", PasswordHash: "hash"}},
		{ID: 2, Title: "New", Date: future, UserID: 3, File: &file.File{ID: 5, Path: "files/a.png", URL: "http://cdn.local/files/a.png"}},
	}, nil).Once()

	req := env.authorize(t, httptest.NewRequest(http.MethodGet, "/meetups?date=2090-05-04&page=2", nil))
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "hash")

	var got []meetappHttp.MeetupResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))

	want := []meetappHttp.MeetupResponse{
		{ID: 1, Title: "Old", Date: past, Past: true, UserID: 3, Organizer: &meetappHttp.UserResponse{ID: 3, Name: "Org", Email: "org@example.com"}},
		{ID: 2, Title: "New", Date: future, Past: false, UserID: 3, File: &file.File{ID: 5, Path: "files/a.png", URL: "http://cdn.local/files/a.png"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("meetups mismatch (-want +got):\n%s", diff)
	}
	env.meetups.AssertExpectations(t)
}

func TestMeetupHandler_handleListMeetups_BadQuery(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		wantMessage string
	}{
		{name: "bad_date", query: "?date=04-05-2090", wantMessage: "Invalid date parameter"},
		{name: "bad_page", query: "?page=abc", wantMessage: "Invalid page parameter"},
		{name: "zero_page", query: "?page=0", wantMessage: "Invalid page parameter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			req := env.authorize(t, httptest.NewRequest(http.MethodGet, "/meetups"+tt.query, nil))
			rr := httptest.NewRecorder()
			env.router.ServeHTTP(rr, req)
			require.Equal(t, http.StatusBadRequest, rr.Code)

			var errorResponse map[string]string
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&errorResponse))
			assert.Equal(t, tt.wantMessage, errorResponse["error"])
			env.meetups.AssertNotCalled(t, "ListMeetups", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestMeetupHandler_handleCreateMeetup(t *testing.T) {
	date := time.Date(2090, time.January, 2, 19, 0, 0, 0, time.UTC)
	fileID := int64(4)

	tests := []struct {
		name        string
		body        string
		setup       func(svc *MockMeetupService)
		wantCode    int
		wantMessage string
	}{
		{
			name: "success",
			body: `{"title":"Go","description":"talks","location":"Berlin","date":"2090-01-02T19:00:00Z","file_id":4}`,
			setup: func(svc *MockMeetupService) {
				svc.On("CreateMeetup", mock.Anything, testUserID, meetup.Input{
					Title: "Go", Description: "talks", Location: "Berlin", Date: date, FileID: &fileID,
				}).Return(&meetup.Meetup{ID: 9, Title: "Go", Date: date, UserID: testUserID, FileID: &fileID}, nil).Once()
			},
			wantCode: http.StatusCreated,
		},
		{
			name:        "missing_fields",
			body:        `{"title":"Go"}`,
			setup:       func(svc *MockMeetupService) {},
			wantCode:    http.StatusBadRequest,
			wantMessage: "Field 'Date' is required",
		},
		{
			name: "past_date",
			body: `{"title":"Go","description":"talks","location":"Berlin","date":"2001-01-02T19:00:00Z"}`,
			setup: func(svc *MockMeetupService) {
				svc.On("CreateMeetup", mock.Anything, testUserID, mock.Anything).Return(nil, meetup.ErrPastDate).Once()
			},
			wantCode:    http.StatusBadRequest,
			wantMessage: "Past dates are not permitted",
		},
		{
			name: "unknown_file",
			body: `{"title":"Go","description":"talks","location":"Berlin","date":"2090-01-02T19:00:00Z","file_id":99}`,
			setup: func(svc *MockMeetupService) {
				svc.On("CreateMeetup", mock.Anything, testUserID, mock.Anything).Return(nil, meetup.ErrInvalidFile).Once()
			},
			wantCode:    http.StatusBadRequest,
			wantMessage: "Invalid file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			tt.setup(env.meetups)

			req := env.authorize(t, httptest.NewRequest(http.MethodPost, "/meetups", bytes.NewBufferString(tt.body)))
			rr := httptest.NewRecorder()
			env.router.ServeHTTP(rr, req)
			require.Equal(t, tt.wantCode, rr.Code)

			if tt.wantMessage != "" {
				var errorResponse map[string]interface{}
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&errorResponse))
				assert.Contains(t, errorResponse["error"], tt.wantMessage)
			} else {
				var resp meetappHttp.MeetupResponse
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
				assert.Equal(t, int64(9), resp.ID)
				assert.False(t, resp.Past)
			}
			env.meetups.AssertExpectations(t)
		})
	}
}

func TestMeetupHandler_handleUpdateMeetup_Errors(t *testing.T) {
	body := `{"title":"Go","description":"talks","location":"Berlin","date":"2090-01-02T19:00:00Z"}`

	tests := []struct {
		name        string
		err         error
		wantCode    int
		wantMessage string
	}{
		{name: "not_found", err: meetup.ErrNotFound, wantCode: http.StatusNotFound, wantMessage: "Meetup not found"},
		{name: "not_organizer", err: meetup.ErrNotOrganizer, wantCode: http.StatusForbidden, wantMessage: "You are not the organizer of this meetup"},
		{name: "past_meetup", err: meetup.ErrPastMeetup, wantCode: http.StatusBadRequest, wantMessage: "Can't change past meetups"},
		{name: "schedule_conflict", err: meetup.ErrScheduleConflict, wantCode: http.StatusConflict, wantMessage: "An attendee is already registered to another meetup at this date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.meetups.On("UpdateMeetup", mock.Anything, testUserID, int64(5), mock.Anything).Return(nil, tt.err).Once()

			req := env.authorize(t, httptest.NewRequest(http.MethodPut, "/meetups/5", bytes.NewBufferString(body)))
			rr := httptest.NewRecorder()
			env.router.ServeHTTP(rr, req)
			require.Equal(t, tt.wantCode, rr.Code)

			var errorResponse map[string]string
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&errorResponse))
			assert.Equal(t, tt.wantMessage, errorResponse["error"])
			env.meetups.AssertExpectations(t)
		})
	}
}

func TestMeetupHandler_handleUpdateMeetup_InvalidID(t *testing.T) {
	env := newTestEnv(t)

	req := env.authorize(t, httptest.NewRequest(http.MethodPut, "/meetups/abc", bytes.NewBufferString(`{}`)))
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var errorResponse map[string]string
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&errorResponse))
	assert.Equal(t, "Invalid id parameter", errorResponse["error"])
}

func TestMeetupHandler_handleDeleteMeetup(t *testing.T) {
	env := newTestEnv(t)
	env.meetups.On("DeleteMeetup", mock.Anything, testUserID, int64(5)).Return(nil).Once()

	req := env.authorize(t, httptest.NewRequest(http.MethodDelete, "/meetups/5", nil))
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())
	env.meetups.AssertExpectations(t)
}

func TestMeetupHandler_handleListOrganizing(t *testing.T) {
	env := newTestEnv(t)
	env.meetups.On("ListOrganizing", mock.Anything, testUserID).Return([]meetup.Meetup{}, nil).Once()

	req := env.authorize(t, httptest.NewRequest(http.MethodGet, "/organizing", nil))
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
	env.meetups.AssertExpectations(t)
}
