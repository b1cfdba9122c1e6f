package mail

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"gopkg.in/gomail.v2"
)

const defaultResendEndpoint = "https://api.resend.com/emails"

// ErrNoRecipients is returned when a message has no To addresses.
var ErrNoRecipients = errors.New("mail: no recipients")

// Config holds mail provider settings.
type Config struct {
	Enable         bool
	Host           string
	Port           int
	User           string
	Pass           string
	From           string
	ReplyTo        string
	ResendKey      string
	ResendEndpoint string
}

// Message is a single email to send.
type Message struct {
	To      []string
	Subject string
	HTML    string
	Text    string
}

// Transport delivers a rendered message.
type Transport interface {
	Send(msg Message) error
}

// Sender sends emails via SMTP or Resend. Each Send is a single attempt.
type Sender struct {
	cfg    Config
	dialer *gomail.Dialer
	client *http.Client
}

func New(cfg Config) *Sender {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	if cfg.ResendEndpoint == "" {
		cfg.ResendEndpoint = defaultResendEndpoint
	}
	return &Sender{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Pass),
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Enabled reports whether Send delivers anything.
func (s *Sender) Enabled() bool { return s.cfg.Enable }

// Provider names the transport in use, for logs.
func (s *Sender) Provider() string {
	switch {
	case !s.cfg.Enable:
		return "disabled"
	case s.cfg.ResendKey != "":
		return "resend"
	default:
		return "smtp"
	}
}

// Send dispatches an email. Uses Resend if configured, otherwise SMTP.
// With mail disabled it returns nil without sending.
func (s *Sender) Send(msg Message) error {
	if !s.cfg.Enable {
		return nil
	}
	if len(msg.To) == 0 {
		return ErrNoRecipients
	}
	if s.cfg.ResendKey != "" {
		return s.sendResend(msg)
	}
	return s.sendSMTP(msg)
}

func (s *Sender) sendSMTP(msg Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	if s.cfg.ReplyTo != "" {
		m.SetHeader("Reply-To", s.cfg.ReplyTo)
	}
	if msg.Text != "" {
		m.SetBody("text/plain", msg.Text)
		m.AddAlternative("text/html", msg.HTML)
	} else {
		m.SetBody("text/html", msg.HTML)
	}
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (s *Sender) sendResend(msg Message) error {
	body := map[string]interface{}{
		"from":    s.cfg.From,
		"to":      msg.To,
		"subject": msg.Subject,
		"html":    msg.HTML,
	}
	if msg.Text != "" {
		body["text"] = msg.Text
	}
	if s.cfg.ReplyTo != "" {
		body["reply_to"] = s.cfg.ReplyTo
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, s.cfg.ResendEndpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.ResendKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("resend send: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		var errResp struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		return fmt.Errorf("resend error %d: %s", resp.StatusCode, errResp.Message)
	}
	return nil
}
