package file

import (
	"strings"
	"time"
)

// File is an uploaded object, typically a meetup banner. URL is derived
// from Path when the record is served and is never stored.
type File struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Path      string    `json:"path" db:"path"`
	URL       string    `json:"url" db:"-"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ResolveURL fills URL from the public base address of the bucket.
func (f *File) ResolveURL(publicBase string) {
	if f == nil || f.Path == "" {
		return
	}
	f.URL = strings.TrimRight(publicBase, "/") + "/" + strings.TrimLeft(f.Path, "/")
}
