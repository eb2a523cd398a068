package templates

import (
	"bytes"
	"html/template"
	"log"
	"strings"
)

type ContactEmailProps struct {
	Name    string
	Email   string
	Message string
}

type contactTemplateData struct {
	Name       string
	Email      string
	Paragraphs []string
}

var contactTemplate = template.Must(template.New("contactEmail").Parse(`<h2 style="font-size: 20px; margin: 0 0 16px;">New message from {{.Name}}</h2>
<p style="margin: 0 0 16px; color: #6b655c;">Reply to <a href="mailto:{{.Email}}" style="color: #8a4b2a;">{{.Email}}</a></p>
{{range .Paragraphs}}<p style="margin: 0 0 12px;">{{.}}</p>
{{end}}`))

// GetContactEmailContent renders a contact form submission. Every field is
// escaped; blank lines in the message separate paragraphs.
func GetContactEmailContent(props ContactEmailProps) string {
	data := contactTemplateData{Name: props.Name, Email: props.Email}
	for _, block := range strings.Split(strings.ReplaceAll(props.Message, "\r\n", "\n"), "\n\n") {
		if trimmed := strings.TrimSpace(block); trimmed != "" {
			data.Paragraphs = append(data.Paragraphs, trimmed)
		}
	}

	var buf bytes.Buffer
	if err := contactTemplate.Execute(&buf, data); err != nil {
		log.Printf("Error executing contact email template: %v", err)
		return ""
	}
	return buf.String()
}
