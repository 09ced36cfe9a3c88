// Package mail delivers breach alerts by email, over SMTP or the Resend API.
package mail

import (
	"bytes"
	"fmt"
	"mime"
	"mime/multipart"
	"net/textproto"
	"time"

	"breachmonitor/internal/domain"
	"breachmonitor/internal/ports"
)

// DefaultSubject matches the alert subject used when a message has none.
const DefaultSubject = "Dark Web Breach Alert"

func recipient(identity domain.Identity) (string, error) {
	if !identity.IsEmail() {
		return "", fmt.Errorf("%w: %q is not an email address", domain.ErrInvalidInput, identity)
	}
	return identity.String(), nil
}

func subjectOf(msg ports.Message) string {
	if msg.Subject == "" {
		return DefaultSubject
	}
	return msg.Subject
}

// buildMIME renders msg as a multipart/alternative message.
func buildMIME(from, to string, msg ports.Message, now time.Time) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	parts := []struct{ ctype, content string }{
		{"text/plain; charset=UTF-8", msg.TextBody},
		{"text/html; charset=UTF-8", msg.HTMLBody},
	}
	for _, p := range parts {
		if p.content == "" {
			continue
		}
		w, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {p.ctype},
			"Content-Transfer-Encoding": {"8bit"},
		})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(p.content)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	var out bytes.Buffer
	fmt.Fprintf(&out, "From: %s\r\n", from)
	fmt.Fprintf(&out, "To: %s\r\n", to)
	fmt.Fprintf(&out, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subjectOf(msg)))
	fmt.Fprintf(&out, "Date: %s\r\n", now.Format(time.RFC1123Z))
	out.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&out, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mw.Boundary())
	out.Write(body.Bytes())
	return out.Bytes(), nil
}
