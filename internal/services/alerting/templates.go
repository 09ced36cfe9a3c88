package alerting

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"strconv"
	"strings"

	"breachmonitor/internal/domain"
	"breachmonitor/internal/ports"
)

// AlertData holds everything an alert email renders.
type AlertData struct {
	SiteName      string
	Verdict       domain.RiskVerdict
	Summary       string
	Escalation    bool
	PreviousCount int
	Tips          []string
}

// CredentialHits is the password occurrence count, or 0 when none was checked.
func (d AlertData) CredentialHits() int {
	if d.Verdict.CredentialExposureCount == nil {
		return 0
	}
	return *d.Verdict.CredentialExposureCount
}

// RemediationTips are the recommended actions attached to every alert.
func RemediationTips() []string {
	return []string{
		"Change your password immediately",
		"Enable Two-Factor Authentication (2FA)",
		"Avoid reusing passwords",
		"Use a password manager",
		"Monitor financial and social accounts",
	}
}

// BuildAlertEmail creates an alert with both HTML and text bodies.
func BuildAlertEmail(data AlertData) ports.Message {
	subject := fmt.Sprintf("Dark Web Breach Alert: %s risk", data.Verdict.RiskLevel)
	if data.Escalation {
		subject = fmt.Sprintf("Dark Web Breach Alert: new breaches found (%d)", data.Verdict.BreachCount)
	}
	text := buildAlertText(data)
	body, err := buildAlertHTML(data)
	if err != nil {
		body = "<pre>" + html.EscapeString(text) + "</pre>"
	}
	return ports.Message{
		Subject:  subject,
		TextBody: text,
		HTMLBody: body,
	}
}

func buildAlertText(data AlertData) string {
	v := data.Verdict
	var buf bytes.Buffer
	buf.WriteString("Dark Web Breach Alert Report\n\n")
	buf.WriteString(fmt.Sprintf("Identity: %s\nRisk level: %s\n\n", v.Identity, v.RiskLevel))
	if data.Escalation {
		buf.WriteString(fmt.Sprintf("Breach count increased from %d to %d since the last check.\n\n", data.PreviousCount, v.BreachCount))
	}
	if n := data.CredentialHits(); n > 0 {
		buf.WriteString(fmt.Sprintf("Password was found %d times in known data breaches.\n\n", n))
	}
	if len(v.Records) > 0 {
		buf.WriteString("Email detected in the following breaches:\n")
		for _, r := range v.Records {
			buf.WriteString(fmt.Sprintf("- Breach Name: %s\n  Date: %s\n", r.SourceName, r.OccurredAt))
			if r.PwnCount != nil {
				buf.WriteString(fmt.Sprintf("  Records Exposed: %s\n", strconv.FormatInt(*r.PwnCount, 10)))
			}
			buf.WriteString(fmt.Sprintf("  Data Exposed: %s\n", strings.Join(r.ExposedFields, ", ")))
		}
		buf.WriteString("\n")
	}
	if v.Degraded {
		buf.WriteString("Note: some breach sources were unavailable; results may be incomplete.\n\n")
	}
	if data.Summary != "" {
		buf.WriteString("AI risk summary:\n" + data.Summary + "\n\n")
	}
	buf.WriteString("Recommended Actions:\n")
	for _, tip := range data.Tips {
		buf.WriteString("- " + tip + "\n")
	}
	return buf.String()
}

var alertHTML = template.Must(template.New("alert").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(alertHTMLTemplate))

func buildAlertHTML(data AlertData) (string, error) {
	var buf bytes.Buffer
	if err := alertHTML.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render alert html: %w", err)
	}
	return buf.String(), nil
}

const alertHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.SiteName}} alert</title>
</head>
<body style="margin: 0; padding: 24px; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 560px; margin: 0 auto; background-color: #ffffff; border-radius: 8px;">
    <tr>
      <td style="padding: 24px 32px; border-bottom: 1px solid #e5e7eb;">
        <h1 style="margin: 0; font-size: 22px; color: #b91c1c;">{{.SiteName}}</h1>
        <p style="margin: 8px 0 0; color: #374151;">Risk level for <strong>{{.Verdict.Identity}}</strong>: <strong>{{.Verdict.RiskLevel}}</strong></p>
      </td>
    </tr>
    <tr>
      <td style="padding: 24px 32px; color: #374151; font-size: 15px; line-height: 1.5;">
        {{if .Escalation}}<p>Breach count increased from {{.PreviousCount}} to {{.Verdict.BreachCount}} since the last check.</p>{{end}}
        {{if gt .CredentialHits 0}}<p>Password was found {{.CredentialHits}} times in known data breaches.</p>{{end}}
        {{if .Verdict.Records}}
        <ul>
          {{range .Verdict.Records}}
          <li><strong>{{.SourceName}}</strong> ({{.OccurredAt}}){{with .PwnCount}}, {{.}} records{{end}}: {{join .ExposedFields ", "}}</li>
          {{end}}
        </ul>
        {{end}}
        {{if .Verdict.Degraded}}<p style="color: #92400e;">Some breach sources were unavailable; results may be incomplete.</p>{{end}}
        {{if .Summary}}<p><em>{{.Summary}}</em></p>{{end}}
        <h2 style="font-size: 16px;">Recommended Actions</h2>
        <ul>
          {{range .Tips}}<li>{{.}}</li>{{end}}
        </ul>
      </td>
    </tr>
  </table>
</body>
</html>`
