// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"kpihub/internal/app/lifecycle"
)

// WelcomeEmailData holds data for the account welcome email.
type WelcomeEmailData struct {
	SiteName string
	FullName string
	Email    string
	LoginURL string
}

// BuildWelcomeEmail creates the email sent when an administrator provisions
// a new account, with both HTML and text bodies.
func BuildWelcomeEmail(data WelcomeEmailData) lifecycle.Mail {
	return lifecycle.Mail{
		Subject: fmt.Sprintf("Your %s account is ready", data.SiteName),
		Text:    buildWelcomeText(data),
		HTML:    buildWelcomeHTML(data),
	}
}

func buildWelcomeText(data WelcomeEmailData) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Hello %s,\n\n", data.FullName))
	buf.WriteString(fmt.Sprintf("An account has been created for you on %s.\n\n", data.SiteName))
	buf.WriteString(fmt.Sprintf("Sign in with %s at:\n%s\n\n", data.Email, data.LoginURL))
	buf.WriteString("If you were not expecting this email, you can safely ignore it.\n")
	return buf.String()
}

func buildWelcomeHTML(data WelcomeEmailData) string {
	tmpl := template.Must(template.New("welcome").Parse(welcomeHTMLTemplate))
	var buf bytes.Buffer
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}

const welcomeHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Welcome</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);">
          <!-- Header -->
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #4f46e5;">{{.SiteName}}</h1>
            </td>
          </tr>

          <!-- Content -->
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">
                Hello {{.FullName}},
              </p>
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">
                An account has been created for you. Sign in with <strong>{{.Email}}</strong> to start tracking your indicators.
              </p>

              <!-- Button -->
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
                <tr>
                  <td align="center">
                    <a href="{{.LoginURL}}" style="display: inline-block; padding: 14px 32px; background-color: #4f46e5; color: #ffffff; text-decoration: none; font-size: 16px; font-weight: 500; border-radius: 6px;">
                      Sign In
                    </a>
                  </td>
                </tr>
              </table>
            </td>
          </tr>

          <!-- Footer -->
          <tr>
            <td style="padding: 24px 32px; background-color: #f9fafb; border-top: 1px solid #e5e7eb; border-radius: 0 0 8px 8px;">
              <p style="margin: 0; font-size: 12px; color: #9ca3af; text-align: center;">
                If you were not expecting this email, you can safely ignore it.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
