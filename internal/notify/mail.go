// mail.go
//
// Applicant pipeline and activity service for training-provider application forms
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of enrol-pipeline.
// enrol-pipeline is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// enrol-pipeline is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with enrol-pipeline.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	textTmpl "text/template"

	"github.com/localnerve/enrol-pipeline/internal/config"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

var (
	htmlBody = template.Must(template.New("submission.html").Parse(submissionHTML))
	textBody = textTmpl.Must(textTmpl.New("submission.txt").Parse(submissionText))
)

// sender is the part of *mail.Client the notifier uses
type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// MailNotifier sends submission notices over SMTP
type MailNotifier struct {
	from   string
	client sender
	log    *zap.Logger
}

// NewMailNotifier builds an SMTP notifier from config. It returns a
// NopNotifier when SMTP_HOST is unset.
func NewMailNotifier(cfg *config.Config, log *zap.Logger) (Notifier, error) {
	if !cfg.MailEnabled() {
		log.Info("SMTP_HOST not configured, submission emails disabled")
		return NopNotifier{}, nil
	}

	opts := []mail.Option{mail.WithPort(cfg.SMTPPort)}
	if cfg.SMTPTLS {
		opts = append(opts, mail.WithTLSPortPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}
	if cfg.SMTPUser != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUser),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}

	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}

	return &MailNotifier{from: cfg.MailFrom, client: client, log: log}, nil
}

// NotifySubmission renders and sends one notice
func (m *MailNotifier) NotifySubmission(ctx context.Context, notice SubmissionNotice) error {
	msg, err := m.message(notice)
	if err != nil {
		return err
	}
	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send submission email: %w", err)
	}
	m.log.Debug("submission email sent", zap.String("to", notice.To), zap.String("form", notice.FormTitle))
	return nil
}

func (m *MailNotifier) message(notice SubmissionNotice) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", m.from, err)
	}
	if err := msg.To(notice.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", notice.To, err)
	}
	msg.Subject(notice.Subject())

	var html, text bytes.Buffer
	if err := htmlBody.Execute(&html, notice); err != nil {
		return nil, fmt.Errorf("failed to render email: %w", err)
	}
	if err := textBody.Execute(&text, notice); err != nil {
		return nil, fmt.Errorf("failed to render email: %w", err)
	}
	msg.SetBodyString(mail.TypeTextPlain, text.String())
	msg.AddAlternativeString(mail.TypeTextHTML, html.String())

	return msg, nil
}

const submissionHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: #3b82f6; padding: 30px; border-radius: 12px 12px 0 0;">
    <h1 style="color: white; margin: 0; font-size: 24px;">New Application Received</h1>
  </div>
  <div style="background: #fff; padding: 30px; border: 1px solid #e5e7eb; border-top: none; border-radius: 0 0 12px 12px;">
    <p style="margin-top: 0;">Someone just submitted an application to <strong>{{.FormTitle}}</strong>.</p>
    <table style="width: 100%; border-collapse: collapse;">
      {{- if .ApplicantName}}
      <tr><td style="padding: 8px; color: #666;">Name</td><td style="padding: 8px;">{{.ApplicantName}}</td></tr>
      {{- end}}
      {{- if .ApplicantEmail}}
      <tr><td style="padding: 8px; color: #666;">Email</td><td style="padding: 8px;">{{.ApplicantEmail}}</td></tr>
      {{- end}}
      {{- range .Fields}}
      <tr><td style="padding: 8px; border-bottom: 1px solid #eee; color: #666;">{{.Label}}</td><td style="padding: 8px; border-bottom: 1px solid #eee;">{{.Value}}</td></tr>
      {{- end}}
    </table>
    <p><a href="{{.ViewURL}}" style="display: inline-block; background: #3b82f6; color: white; padding: 12px 24px; border-radius: 8px; text-decoration: none;">View in Pipeline</a></p>
  </div>
</body>
</html>
`

const submissionText = `Someone just submitted an application to {{.FormTitle}}.
{{if .ApplicantName}}
Name: {{.ApplicantName}}{{end}}{{if .ApplicantEmail}}
Email: {{.ApplicantEmail}}{{end}}
{{range .Fields}}
{{.Label}}: {{.Value}}{{end}}

View in pipeline: {{.ViewURL}}
`
