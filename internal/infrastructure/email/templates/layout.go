// Package templates renders the HTML bodies of outgoing mail
package templates

import (
	"bytes"
	"html/template"
	"log"
)

type EmailLayoutProps struct {
	Preheader  string
	Content    string
	FooterText string
}

type emailTemplateData struct {
	Preheader  string
	Content    template.HTML // pre-rendered by a component template
	FooterText string
}

var emailLayoutTemplate = template.Must(template.New("emailLayout").Parse(`<!doctype html>
<html lang="en">
  <head>
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <meta http-equiv="Content-Type" content="text/html; charset=UTF-8">
    <title>Story Reader</title>
  </head>
  <body style="font-family: Georgia, serif; font-size: 16px; line-height: 1.4; background-color: #f6f3ee; margin: 0; padding: 0;">
    <span style="display: none; max-height: 0; overflow: hidden; visibility: hidden;">{{.Preheader}}</span>
    <table role="presentation" border="0" cellpadding="0" cellspacing="0" width="100%" bgcolor="#f6f3ee">
      <tr>
        <td align="center" style="padding: 24px 8px;">
          <table role="presentation" border="0" cellpadding="0" cellspacing="0" width="600" style="max-width: 600px; background: #ffffff; border: 1px solid #e4ddd2; border-radius: 12px;">
            <tr>
              <td style="padding: 24px;">
                {{.Content}}
              </td>
            </tr>
          </table>
          <p style="color: #9a948a; font-size: 13px; margin-top: 16px;">{{.FooterText}}</p>
        </td>
      </tr>
    </table>
  </body>
</html>`))

// GetEmailLayout wraps rendered content in the shared mail chrome.
func GetEmailLayout(props EmailLayoutProps) string {
	footerText := props.FooterText
	if footerText == "" {
		footerText = "Sent from the Story Reader contact form"
	}

	data := emailTemplateData{
		Preheader:  props.Preheader,
		Content:    template.HTML(props.Content),
		FooterText: footerText,
	}

	var buf bytes.Buffer
	if err := emailLayoutTemplate.Execute(&buf, data); err != nil {
		log.Printf("Error executing email layout template: %v", err)
		return "<html><body>Template execution error</body></html>"
	}
	return buf.String()
}
