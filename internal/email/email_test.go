package email

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobwatch-go/internal/model"
)

type captured struct {
	addr string
	from string
	to   []string
	msg  string
	auth smtp.Auth
}

func newTestSender(cfg Config, err error) (*Sender, *captured) {
	c := &captured{}
	s := NewSender(cfg)
	s.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		c.addr, c.auth, c.from, c.to, c.msg = addr, a, from, to, string(msg)
		return err
	}
	return s, c
}

func TestNotifySendsPlainTextMail(t *testing.T) {
	s, c := newTestSender(Config{
		Host:     "smtp.example.com",
		Username: "bot@example.com",
		Password: "app-password",
		To:       "me@example.com",
		Target:   "https://example.com/careers",
	}, nil)

	err := s.Notify(context.Background(), []model.Listing{"Engineer C", "Engineer D"})
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", c.addr)
	assert.Equal(t, "bot@example.com", c.from)
	assert.Equal(t, []string{"me@example.com"}, c.to)
	assert.NotNil(t, c.auth)
	assert.Contains(t, c.msg, "Subject: 2 new job posting(s)\r\n")
	assert.Contains(t, c.msg, "- Engineer C\n- Engineer D\n")
	assert.Contains(t, c.msg, "See all listings at https://example.com/careers")
}

func TestNotifySingleListingSubject(t *testing.T) {
	s, c := newTestSender(Config{Host: "localhost", Port: "2525", From: "jobs@example.com", To: "me@example.com"}, nil)

	require.NoError(t, s.Notify(context.Background(), []model.Listing{"Engineer C"}))
	assert.Equal(t, "localhost:2525", c.addr)
	assert.Nil(t, c.auth)
	assert.Contains(t, c.msg, "Subject: New job posting: Engineer C\r\n")
}

func TestNotifySubjectDropsLineBreaks(t *testing.T) {
	s, c := newTestSender(Config{Host: "localhost", From: "jobs@example.com", To: "me@example.com"}, nil)

	require.NoError(t, s.Notify(context.Background(), []model.Listing{"Engineer C\r\nBcc: victim@example.com"}))
	assert.Contains(t, c.msg, "Subject: New job posting: Engineer C Bcc: victim@example.com\r\n")
	assert.NotContains(t, c.msg, "\r\nBcc:")
}

func TestNotifyWrapsSendError(t *testing.T) {
	cause := errors.New("535 authentication failed")
	s, _ := newTestSender(Config{Host: "localhost", To: "me@example.com"}, cause)

	err := s.Notify(context.Background(), []model.Listing{"Engineer C"})
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "me@example.com")
}
