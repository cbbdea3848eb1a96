package mail

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/xavierca1/leadgate/internal/entity"
)

type fakeDialer struct {
	sent  []*gomail.Message
	err   error
	block chan struct{}
}

func (f *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	if f.block != nil {
		<-f.block
	}
	f.sent = append(f.sent, m...)
	return f.err
}

func testNotification() entity.LeadNotification {
	return entity.LeadNotification{
		Name:       "Jane Doe",
		Email:      "jane@x.com",
		CapturedAt: time.Date(2025, 6, 1, 12, 30, 0, 0, time.Local),
	}
}

func TestBuildMessage(t *testing.T) {
	s := NewEmailSender("smtp.example.com", 587, "u", "p", "noreply@example.com", []string{"sales@example.com"})

	m, err := s.BuildMessage(testNotification())
	require.NoError(t, err)

	assert.Equal(t, []string{"New lead: Jane Doe"}, m.GetHeader("Subject"))
	assert.Equal(t, []string{"sales@example.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"jane@x.com"}, m.GetHeader("Reply-To"))

	var raw bytes.Buffer
	_, err = m.WriteTo(&raw)
	require.NoError(t, err)
	assert.Contains(t, raw.String(), "2025-06-01 12:30:00")
}

func TestBuildMessageNeedsAddresses(t *testing.T) {
	s := NewEmailSender("smtp.example.com", 587, "u", "p", "", nil)

	_, err := s.BuildMessage(testNotification())

	assert.Error(t, err)
}

func TestSendWith(t *testing.T) {
	s := NewEmailSender("smtp.example.com", 587, "u", "p", "noreply@example.com", []string{"sales@example.com"})

	d := &fakeDialer{}
	require.NoError(t, s.SendWith(context.Background(), d, testNotification()))
	assert.Len(t, d.sent, 1)

	failing := &fakeDialer{err: errors.New("connection refused")}
	err := s.SendWith(context.Background(), failing, testNotification())
	assert.ErrorContains(t, err, "connection refused")
}

func TestSendWithHonoursContext(t *testing.T) {
	s := NewEmailSender("smtp.example.com", 587, "u", "p", "noreply@example.com", []string{"sales@example.com"})
	d := &fakeDialer{block: make(chan struct{})}
	defer close(d.block)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := s.SendWith(ctx, d, testNotification())

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
