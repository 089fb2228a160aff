package email

import (
	"context"
	"fmt"
	"time"

	"gopkg.in/gomail.v2"
)

type Service interface {
	SendBookingConfirmation(ctx context.Context, to string, doctorName string, date time.Time) error
	SendDoctorApproval(ctx context.Context, to string, name string) error
	SendCustom(ctx context.Context, to string, subject string, content string) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

func NewService(cfg Config) Service {
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) SendBookingConfirmation(ctx context.Context, to string, doctorName string, date time.Time) error {
	body := fmt.Sprintf(
		"Your appointment with %s on %s has been received and is awaiting confirmation.",
		doctorName, date.Format("Mon, 2 Jan 2006 at 15:04"),
	)
	return s.send(to, "Appointment received", body)
}

func (s *smtpService) SendDoctorApproval(ctx context.Context, to string, name string) error {
	body := fmt.Sprintf("Hi %s, your account has been approved. You can now receive appointments.", name)
	return s.send(to, "Account approved", body)
}

func (s *smtpService) SendCustom(ctx context.Context, to string, subject string, content string) error {
	return s.send(to, subject, content)
}

func (s *smtpService) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
