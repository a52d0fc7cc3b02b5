package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

// SMTP security modes.
const (
	SecurityStartTLS = "starttls"
	SecuritySSL      = "ssl"
	SecurityNone     = "none"
)

// SMTPConfig holds the mail-submission connection settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Security string // starttls | ssl | none
	Username string
	Password string
}

// Sanitize normalizes the config, defaulting to the gmail submission host,
// starttls, and the port implied by the security mode.
func (c SMTPConfig) Sanitize() SMTPConfig {
	c.Host = strings.TrimSpace(c.Host)
	if c.Host == "" {
		c.Host = "smtp.gmail.com"
	}
	c.Security = strings.ToLower(strings.TrimSpace(c.Security))
	if c.Security == "" {
		c.Security = SecurityStartTLS
	}
	if c.Port <= 0 {
		if c.Security == SecuritySSL {
			c.Port = 465
		} else {
			c.Port = 587
		}
	}
	c.Username = strings.TrimSpace(c.Username)
	return c
}

// smtpSender delivers messages over an authenticated SMTP connection.
type smtpSender struct {
	cfg SMTPConfig
}

// NewSMTPSender validates the config and returns an SMTP-backed Sender.
func NewSMTPSender(cfg SMTPConfig) (Sender, error) {
	cfg = cfg.Sanitize()

	switch cfg.Security {
	case SecurityStartTLS, SecuritySSL, SecurityNone:
	default:
		return nil, fmt.Errorf("unsupported smtp security %q (supported: starttls, ssl, none)", cfg.Security)
	}
	if cfg.Username == "" {
		return nil, fmt.Errorf("smtp username is empty")
	}
	if cfg.Password == "" {
		return nil, fmt.Errorf("smtp password is empty")
	}

	return &smtpSender{cfg: cfg}, nil
}

// Send builds the MIME document and submits it to every recipient.
func (s *smtpSender) Send(ctx context.Context, msg Message) error {
	raw, err := msg.Build()
	if err != nil {
		return err
	}

	client, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer client.Close()

	if err := s.authenticate(client); err != nil {
		return err
	}

	if err := client.Mail(msg.From); err != nil {
		return fmt.Errorf("smtp mail from %s: %w", msg.From, err)
	}
	for _, rcpt := range msg.To {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("smtp rcpt %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("smtp write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close body: %w", err)
	}

	return client.Quit()
}

// authenticate logs in with PLAIN auth. Plaintext connections to relays that
// advertise no AUTH extension (local forwarders, test relays) skip the login:
// net/smtp refuses PLAIN over an unencrypted connection to a remote host, and
// such relays accept mail without it anyway.
func (s *smtpSender) authenticate(client *smtp.Client) error {
	if s.cfg.Security == SecurityNone {
		if ok, _ := client.Extension("AUTH"); !ok {
			return nil
		}
	}

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	if err := client.Auth(auth); err != nil {
		if strings.Contains(err.Error(), "535") {
			return fmt.Errorf("smtp authentication failed: %w (gmail and most providers require an app password instead of the account password; also check SMTP_SECURITY/SMTP_PORT)", err)
		}
		return fmt.Errorf("smtp auth: %w", err)
	}
	return nil
}

// connect dials the submission endpoint and upgrades the transport according
// to the configured security mode.
func (s *smtpSender) connect(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial smtp %s: %w", addr, err)
	}

	if s.cfg.Security == SecuritySSL {
		conn = tls.Client(conn, &tls.Config{ServerName: s.cfg.Host})
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("smtp handshake with %s: %w", addr, err)
	}

	if s.cfg.Security == SecurityStartTLS {
		if err := client.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
			client.Close()
			return nil, fmt.Errorf("smtp starttls: %w", err)
		}
	}

	return client, nil
}
