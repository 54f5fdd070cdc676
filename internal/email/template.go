package email

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"leadlms/internal/leads"
)

const newLeadHTML = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>New Lead Received</title>
</head>
<body style="font-family: -apple-system, 'Segoe UI', Roboto, Arial, sans-serif; line-height: 1.6; color: #333; background: #f9fafb; margin: 0; padding: 0;">
    <div style="max-width: 600px; margin: 0 auto; padding: 20px;">
        <div style="background: #0e75bc; color: white; padding: 24px; border-radius: 8px 8px 0 0; text-align: center;">
            <h1 style="margin: 0; font-size: 24px; font-weight: 600;">New Lead Received</h1>
        </div>
        <div style="background: #ffffff; padding: 24px; border: 1px solid #e5e7eb; border-top: none;">
            {{- range .Fields}}
            <div style="margin-bottom: 16px; padding-bottom: 16px; border-bottom: 1px solid #f3f4f6;">
                <div style="font-weight: 600; color: #6b7280; font-size: 12px; text-transform: uppercase; letter-spacing: 0.5px;">{{.Name}}</div>
                <div style="color: #111827; font-size: 15px;">{{if .Href}}<a href="{{.Href}}" style="color: #0e75bc; text-decoration: none;">{{.Value}}</a>{{else}}{{.Value}}{{end}}</div>
            </div>
            {{- end}}
            <div>
                <div style="font-weight: 600; color: #6b7280; font-size: 12px; text-transform: uppercase; letter-spacing: 0.5px;">Budget Label</div>
                <span style="display: inline-block; padding: 6px 12px; border-radius: 16px; font-size: 13px; font-weight: 600; background: {{.Badge.Background}}; color: {{.Badge.Color}};">{{.Badge.Text}}</span>
            </div>
        </div>
        <div style="background: #f9fafb; padding: 20px; text-align: center; border: 1px solid #e5e7eb; border-top: none; border-radius: 0 0 8px 8px;">
            <p><a href="{{.DashboardURL}}" style="color: #0e75bc; text-decoration: none; font-weight: 500;">View in the Lead Dashboard &rarr;</a></p>
        </div>
    </div>
</body>
</html>
`

const newLeadText = `New Lead Received

{{range .Fields}}{{.Name}}: {{.Value}}
{{end}}Label: {{.Label}}

View in the Lead Dashboard: {{.DashboardURL}}
`

var (
	newLeadHTMLTmpl = htmltemplate.Must(htmltemplate.New("new_lead.html").Parse(newLeadHTML))
	newLeadTextTmpl = texttemplate.Must(texttemplate.New("new_lead.txt").Parse(newLeadText))
)

type field struct {
	Name  string
	Value string
	Href  htmltemplate.URL
}

type badge struct {
	Text       string
	Background htmltemplate.CSS
	Color      htmltemplate.CSS
}

type newLeadView struct {
	Fields       []field
	Label        leads.Label
	Badge        badge
	DashboardURL string
}

func badgeFor(label leads.Label) badge {
	text := strings.TrimSuffix(string(label), " Budget Lead")
	switch label {
	case leads.LabelHigh:
		return badge{text, "rgba(14, 117, 188, 0.15)", "#0e75bc"}
	case leads.LabelMedium:
		return badge{text, "rgba(252, 209, 31, 0.15)", "#d97706"}
	case leads.LabelLow:
		return badge{text, "rgba(52, 168, 83, 0.15)", "#34A853"}
	default:
		return badge{string(leads.LabelNone), "rgba(154, 160, 166, 0.15)", "#9AA0A6"}
	}
}

// NewLeadMessage renders the notification for lead. Recipients are left
// for the caller to fill in.
func NewLeadMessage(lead leads.Lead, dashboardURL string) (Message, error) {
	view := newLeadView{
		Fields: []field{
			{Name: "Full Name", Value: lead.FullName},
			{Name: "Email", Value: lead.Email, Href: htmltemplate.URL("mailto:" + lead.Email)},
			{Name: "Phone Number", Value: lead.PhoneNumber, Href: htmltemplate.URL("tel:" + strings.ReplaceAll(lead.PhoneNumber, " ", ""))},
			{Name: "Company", Value: lead.Company},
			{Name: "Current Position", Value: lead.CurrentPosition},
			{Name: "Submission Date", Value: lead.SubmissionDate.UTC().Format(time.RFC1123)},
			{Name: "Progress Status", Value: string(lead.Progress)},
		},
		Label:        lead.Label,
		Badge:        badgeFor(lead.Label),
		DashboardURL: dashboardURL,
	}

	var html, text bytes.Buffer
	if err := newLeadHTMLTmpl.Execute(&html, view); err != nil {
		return Message{}, fmt.Errorf("failed to render html email: %w", err)
	}
	if err := newLeadTextTmpl.Execute(&text, view); err != nil {
		return Message{}, fmt.Errorf("failed to render text email: %w", err)
	}

	return Message{
		Subject: fmt.Sprintf("New Lead: %s from %s", lead.FullName, lead.Company),
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}
