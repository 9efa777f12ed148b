package registration

import "time"

// Registration links an attendee to a meetup. MeetupDate mirrors the
// meetup's date so the database can refuse two registrations of one user
// at the same instant.
type Registration struct {
	ID         int64     `json:"id" db:"id"`
	UserID     int64     `json:"user_id" db:"user_id"`
	MeetupID   int64     `json:"meetup_id" db:"meetup_id"`
	MeetupDate time.Time `json:"-" db:"meetup_date"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

type MeetupSummary struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Date        time.Time `json:"date"`
}

// Upcoming is one entry of a user's registration listing.
type Upcoming struct {
	ID     int64         `json:"id"`
	Meetup MeetupSummary `json:"Meetup"`
}
