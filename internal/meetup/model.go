package meetup

import (
	"time"

	"github.com/vasiliy-maslov/meetapp/internal/file"
	"github.com/vasiliy-maslov/meetapp/internal/user"
)

// PageSize is the number of meetups returned per page by ListMeetups.
const PageSize = 10

type Meetup struct {
	ID          int64      `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Location    string     `json:"location" db:"location"`
	Date        time.Time  `json:"date" db:"date"`
	UserID      int64      `json:"user_id" db:"user_id"`
	FileID      *int64     `json:"file_id,omitempty" db:"file_id"`
	Organizer   *user.User `json:"organizer,omitempty" db:"-"`
	File        *file.File `json:"file,omitempty" db:"-"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// Past reports whether the meetup happened before now. It is evaluated on
// every read and never persisted.
func (m *Meetup) Past(now time.Time) bool {
	return m.Date.Before(now)
}

// Input is the organizer-editable part of a meetup.
type Input struct {
	Title       string
	Description string
	Location    string
	Date        time.Time
	FileID      *int64
}

// DayBounds returns the [start, end) interval of the UTC calendar day that
// contains t.
func DayBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}
