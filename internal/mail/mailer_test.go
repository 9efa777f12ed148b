package mail

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type capturedMail struct {
	from string
	to   []string
	raw  string
}

func capturingMailer(t *testing.T, sent *[]capturedMail, err error) *SMTPMailer {
	t.Helper()
	return newMailer(gomail.SendFunc(func(from string, to []string, msg io.WriterTo) error {
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		_, werr := msg.WriteTo(&buf)
		require.NoError(t, werr)
		*sent = append(*sent, capturedMail{from: from, to: to, raw: buf.String()})
		return nil
	}), "noreply@meetapp.com")
}

func TestSMTPMailer_Send_Recipient(t *testing.T) {
	tests := []struct {
		name       string
		toName     string
		wantHeader string
	}{
		{name: "plain_name", toName: "John Doe", wantHeader: `"John Doe" <john@example.com>`},
		{name: "name_with_comma", toName: "Doe, John", wantHeader: `"Doe, John" <john@example.com>`},
		{name: "name_with_quote", toName: `John "JD" Doe`, wantHeader: `"John \"JD\" Doe" <john@example.com>`},
		{name: "no_name", toName: "", wantHeader: "john@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sent []capturedMail
			mailer := capturingMailer(t, &sent, nil)

			err := mailer.Send(context.Background(), Message{
				ToName:  tt.toName,
				ToEmail: "john@example.com",
				Subject: "New registration: Go",
				HTML:    "<p>hi</p>",
			})
			require.NoError(t, err)
			require.Len(t, sent, 1)

			assert.Equal(t, "noreply@meetapp.com", sent[0].from)
			assert.Equal(t, []string{"john@example.com"}, sent[0].to)
			assert.Contains(t, sent[0].raw, "To: "+tt.wantHeader)
		})
	}
}

func TestSMTPMailer_Send_Errors(t *testing.T) {
	t.Run("sender_failure", func(t *testing.T) {
		var sent []capturedMail
		mailer := capturingMailer(t, &sent, errors.New("connection refused"))

		err := mailer.Send(context.Background(), Message{ToEmail: "john@example.com", Subject: "s"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "john@example.com")
	})

	t.Run("cancelled_context", func(t *testing.T) {
		var sent []capturedMail
		mailer := capturingMailer(t, &sent, nil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		require.ErrorIs(t, mailer.Send(ctx, Message{ToEmail: "john@example.com"}), context.Canceled)
		assert.Empty(t, sent)
	})
}
