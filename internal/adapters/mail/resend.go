package mail

import (
	"context"
	"fmt"

	"github.com/resendlabs/resend-go"

	"breachmonitor/internal/domain"
	"breachmonitor/internal/ports"
)

type emailSender interface {
	Send(params *resend.SendEmailRequest) (resend.SendEmailResponse, error)
}

// ResendNotifier sends alerts through the Resend API.
type ResendNotifier struct {
	emails    emailSender
	fromEmail string
	fromName  string
}

// NewResendNotifier returns a notifier that reports ErrConfigurationMissing
// when apiKey or fromEmail is empty.
func NewResendNotifier(apiKey, fromEmail, fromName string) *ResendNotifier {
	n := &ResendNotifier{fromEmail: fromEmail, fromName: fromName}
	if apiKey != "" {
		n.emails = resend.NewClient(apiKey).Emails
	}
	return n
}

func (n *ResendNotifier) Notify(ctx context.Context, identity domain.Identity, msg ports.Message) error {
	if n.emails == nil || n.fromEmail == "" {
		return fmt.Errorf("%w: RESEND_API_KEY/EMAIL_USER", domain.ErrConfigurationMissing)
	}
	to, err := recipient(identity)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	from := n.fromEmail
	if n.fromName != "" {
		from = fmt.Sprintf("%s <%s>", n.fromName, n.fromEmail)
	}
	params := &resend.SendEmailRequest{
		From:    from,
		To:      []string{to},
		Subject: subjectOf(msg),
		Html:    msg.HTMLBody,
		Text:    msg.TextBody,
	}
	if _, err := n.emails.Send(params); err != nil {
		return fmt.Errorf("failed to send alert via Resend: %w", err)
	}
	return nil
}
