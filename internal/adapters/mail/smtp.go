package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"time"

	"breachmonitor/internal/domain"
	"breachmonitor/internal/ports"
)

const DefaultSMTPAddr = "smtp.gmail.com:465"

// SMTPNotifier sends alerts over implicit TLS with PLAIN auth.
type SMTPNotifier struct {
	Addr     string
	User     string
	Password string
	FromName string
}

func (n *SMTPNotifier) Notify(ctx context.Context, identity domain.Identity, msg ports.Message) error {
	if n.User == "" || n.Password == "" {
		return fmt.Errorf("%w: EMAIL_USER/EMAIL_PASS", domain.ErrConfigurationMissing)
	}
	to, err := recipient(identity)
	if err != nil {
		return err
	}
	addr := n.Addr
	if addr == "" {
		addr = DefaultSMTPAddr
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("smtp addr %q: %w", addr, err)
	}
	from := n.User
	if n.FromName != "" {
		from = fmt.Sprintf("%s <%s>", n.FromName, n.User)
	}
	body, err := buildMIME(from, to, msg, time.Now())
	if err != nil {
		return err
	}

	dialer := &tls.Dialer{Config: &tls.Config{ServerName: host}}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", err)
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}
	c, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer c.Close()

	if err := c.Auth(smtp.PlainAuth("", n.User, n.Password, host)); err != nil {
		return fmt.Errorf("smtp auth: %w", err)
	}
	if err := c.Mail(n.User); err != nil {
		return fmt.Errorf("smtp mail from: %w", err)
	}
	if err := c.Rcpt(to); err != nil {
		return fmt.Errorf("smtp rcpt: %w", err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("smtp write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return c.Quit()
}
