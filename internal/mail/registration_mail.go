package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/meetapp/internal/meetup"
	"github.com/vasiliy-maslov/meetapp/internal/user"
)

// RegistrationMailKey routes registration notifications to RegistrationMail.
const RegistrationMailKey = "RegistrationMail"

// RegistrationPayload is enqueued when a user registers to a meetup.
type RegistrationPayload struct {
	Meetup meetup.Meetup `json:"meetup"`
	User   user.User     `json:"user"`
}

var registrationTemplate = template.Must(template.New("registration").Parse(`<p>Hello, {{.Organizer}}!</p>
<p>You have a new registration for <strong>{{.Title}}</strong>, happening on {{.Date}}.</p>
<p>Attendee: <strong>{{.Name}}</strong> ({{.Email}})</p>
`))

// RegistrationMail tells the organizer of a meetup about a new attendee.
type RegistrationMail struct {
	mailer Mailer
}

func NewRegistrationMail(mailer Mailer) *RegistrationMail {
	return &RegistrationMail{mailer: mailer}
}

func (j *RegistrationMail) Key() string {
	return RegistrationMailKey
}

func (j *RegistrationMail) Handle(ctx context.Context, raw json.RawMessage) error {
	var payload RegistrationPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("mail: invalid registration payload: %w", err)
	}

	msg, err := RegistrationMessage(payload)
	if err != nil {
		return err
	}

	if err := j.mailer.Send(ctx, msg); err != nil {
		return err
	}

	log.Info().
		Int64("meetup_id", payload.Meetup.ID).
		Int64("user_id", payload.User.ID).
		Msg("mail: registration mail sent")
	return nil
}

// RegistrationMessage renders the organizer notification.
func RegistrationMessage(p RegistrationPayload) (Message, error) {
	organizer := p.Meetup.Organizer
	if organizer == nil || organizer.Email == "" {
		return Message{}, errors.New("mail: registration payload has no organizer")
	}

	var body bytes.Buffer
	err := registrationTemplate.Execute(&body, map[string]string{
		"Organizer": organizer.Name,
		"Title":     p.Meetup.Title,
		"Date":      p.Meetup.Date.UTC().Format(time.RFC1123),
		"Name":      p.User.Name,
		"Email":     p.User.Email,
	})
	if err != nil {
		return Message{}, fmt.Errorf("mail: failed to render registration mail: %w", err)
	}

	return Message{
		ToName:  organizer.Name,
		ToEmail: organizer.Email,
		Subject: "New registration: " + p.Meetup.Title,
		HTML:    body.String(),
	}, nil
}
