package smtp

import (
	"bytes"
	"fmt"
	"text/template"
)

// Template names.
const (
	TplBookingCreated   = "booking_created"
	TplBookingUpdated   = "booking_updated"
	TplNewMessage       = "new_message"
	TplNewRequest       = "new_request"
	TplNewThread        = "new_thread"
	TplPasswordRecovery = "password_recovery"
)

type emailTemplate struct {
	subject *template.Template
	body    *template.Template
}

var templates = map[string]emailTemplate{
	TplBookingCreated: parse(TplBookingCreated,
		`{{.ActorName}} wants to borrow "{{.ItemTitle}}"`,
		`Hi {{.RecipientName}},

{{.ActorName}} sent a booking request for your item "{{.ItemTitle}}" in {{.CommunityName}}.
Open Sharinghood to accept or decline it.
`),
	TplBookingUpdated: parse(TplBookingUpdated,
		`Your booking for "{{.ItemTitle}}" was {{.Status}}`,
		`Hi {{.RecipientName}},

{{.ActorName}} {{.Status}} your booking request for "{{.ItemTitle}}" in {{.CommunityName}}.
`),
	TplNewMessage: parse(TplNewMessage,
		`New message from {{.ActorName}}`,
		`Hi {{.RecipientName}},

{{.ActorName}} sent you a message in {{.CommunityName}}:

{{.Text}}
`),
	TplNewRequest: parse(TplNewRequest,
		`{{.ActorName}} is looking for "{{.ItemTitle}}"`,
		`Hi {{.RecipientName}},

{{.ActorName}} asked {{.CommunityName}} to borrow "{{.ItemTitle}}". Maybe you can help?
`),
	TplNewThread: parse(TplNewThread,
		`{{.ActorName}} commented on "{{.ItemTitle}}"`,
		`Hi {{.RecipientName}},

{{.ActorName}} commented on "{{.ItemTitle}}":

{{.Text}}
`),
	TplPasswordRecovery: parse(TplPasswordRecovery,
		`Your Sharinghood recovery code`,
		`Hi {{.RecipientName}},

Your password recovery code is {{.Text}}. It expires in 15 minutes.
`),
}

func parse(name, subject, body string) emailTemplate {
	return emailTemplate{
		subject: template.Must(template.New(name + "_subject").Option("missingkey=zero").Parse(subject)),
		body:    template.Must(template.New(name).Option("missingkey=zero").Parse(body)),
	}
}

// TemplateData fills every template. Unused fields are ignored.
type TemplateData struct {
	RecipientName string
	ActorName     string
	CommunityName string
	ItemTitle     string
	Status        string
	Text          string
}

// Render executes the named template into a subject and a plain-text body.
func Render(name string, data TemplateData) (subject, body string, err error) {
	t, ok := templates[name]
	if !ok {
		return "", "", fmt.Errorf("unknown email template %q", name)
	}
	var s, b bytes.Buffer
	if err := t.subject.Execute(&s, data); err != nil {
		return "", "", fmt.Errorf("render %s subject: %w", name, err)
	}
	if err := t.body.Execute(&b, data); err != nil {
		return "", "", fmt.Errorf("render %s body: %w", name, err)
	}
	return s.String(), b.String(), nil
}
