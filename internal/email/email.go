package email

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/smtp"
	"strings"

	"jobwatch-go/internal/model"
)

type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	To       string
	// Target is linked at the bottom of every message.
	Target string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Sender mails the list of new jobs through an SMTP relay using PLAIN auth.
type Sender struct {
	cfg      Config
	sendMail sendFunc
}

func NewSender(cfg Config) *Sender {
	if cfg.Port == "" {
		cfg.Port = "587"
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &Sender{cfg: cfg, sendMail: smtp.SendMail}
}

func (s *Sender) Name() string {
	return "email"
}

func (s *Sender) Notify(ctx context.Context, listings []model.Listing) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	msg := s.buildMessage(listings)
	addr := net.JoinHostPort(s.cfg.Host, s.cfg.Port)
	if err := s.sendMail(addr, auth, s.cfg.From, []string{s.cfg.To}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", s.cfg.To, err)
	}
	log.Printf("[email] sent %d new listings to %s", len(listings), s.cfg.To)
	return nil
}

func (s *Sender) buildMessage(listings []model.Listing) string {
	subject := fmt.Sprintf("%d new job posting(s)", len(listings))
	if len(listings) == 1 {
		subject = "New job posting: " + singleLine(string(listings[0]))
	}

	var body strings.Builder
	body.WriteString("Hello,\n\nThe following jobs were posted since the last check:\n\n")
	for _, l := range listings {
		body.WriteString("- " + singleLine(string(l)) + "\n")
	}
	if s.cfg.Target != "" {
		body.WriteString("\nSee all listings at " + s.cfg.Target + "\n")
	}

	return fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"utf-8\"\r\n\r\n%s",
		s.cfg.From, s.cfg.To, subject, body.String())
}

var headerBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// singleLine keeps a value on one line of the message.
func singleLine(v string) string {
	return strings.TrimSpace(headerBreaks.Replace(v))
}
