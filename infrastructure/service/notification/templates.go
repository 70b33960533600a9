package notification

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/refferq/refferq/application/port/outbound"
)

var (
	welcomeTemplate = template.Must(template.New("welcome").Parse(`<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif;color:#1f2937">
<h2>Welcome to Refferq, {{.Name}}!</h2>
<p>Your {{.RoleTitle}} account has been created and is pending review.</p>
<p>You can sign in with a one-time code sent to this address:</p>
<p><a href="{{.LoginURL}}" style="background:#4f46e5;color:#fff;padding:10px 18px;border-radius:6px;text-decoration:none">Sign in</a></p>
<p style="color:#6b7280;font-size:12px">If you did not sign up, you can ignore this email.</p>
</body></html>`))

	loginCodeTemplate = template.Must(template.New("login_code").Parse(`<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif;color:#1f2937">
<p>Hi {{.Name}},</p>
<p>Your Refferq verification code is:</p>
<p style="font-size:28px;letter-spacing:6px;font-weight:bold">{{.Code}}</p>
<p>It expires in {{.ExpiresIn}}. Never share this code with anyone.</p>
</body></html>`))
)

type rendered struct {
	Subject string
	Body    string
}

func roleTitle(role string) string {
	return cases.Title(language.English).String(strings.ToLower(role))
}

func renderWelcome(msg outbound.WelcomeMessage) (rendered, error) {
	var buf bytes.Buffer
	err := welcomeTemplate.Execute(&buf, map[string]string{
		"Name":      msg.Name,
		"RoleTitle": roleTitle(string(msg.Role)),
		"LoginURL":  msg.LoginURL,
	})
	if err != nil {
		return rendered{}, fmt.Errorf("render welcome email: %w", err)
	}
	return rendered{Subject: "Welcome to Refferq", Body: buf.String()}, nil
}

func renderLoginCode(msg outbound.LoginCodeMessage) (rendered, error) {
	name := msg.Name
	if name == "" {
		name = "there"
	}
	var buf bytes.Buffer
	err := loginCodeTemplate.Execute(&buf, map[string]string{
		"Name":      name,
		"Code":      msg.Code,
		"ExpiresIn": humanDuration(msg.ExpiresIn),
	})
	if err != nil {
		return rendered{}, fmt.Errorf("render login code email: %w", err)
	}
	return rendered{Subject: "Your Refferq verification code", Body: buf.String()}, nil
}

func humanDuration(d time.Duration) string {
	minutes := int(d.Round(time.Minute).Minutes())
	if minutes <= 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}
