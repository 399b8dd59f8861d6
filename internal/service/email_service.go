package service

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	"log"
	texttemplate "text/template"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// sesAPI is the part of the SES client used for sending
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService sends account emails through Amazon SES. Without a sender
// address it is disabled and every send is a no-op.
type EmailService struct {
	client  sesAPI
	from    string
	appURL  string
	enabled bool
	debug   bool
}

// NewEmailService loads AWS credentials from the environment and returns a
// service sending as fromName <fromEmail>
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName, appBaseURL string, debug bool) (*EmailService, error) {
	if fromEmail == "" {
		log.Println("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{debug: debug}, nil
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Printf("Email service enabled: from=%s, region=%s", fromEmail, awsRegion)
	return newEmailService(sesv2.NewFromConfig(awsCfg), fromEmail, fromName, appBaseURL, debug), nil
}

func newEmailService(client sesAPI, fromEmail, fromName, appBaseURL string, debug bool) *EmailService {
	from := fromEmail
	if fromName != "" {
		from = fmt.Sprintf("%s <%s>", fromName, fromEmail)
	}
	return &EmailService{
		client:  client,
		from:    from,
		appURL:  appBaseURL,
		enabled: true,
		debug:   debug,
	}
}

// IsEnabled reports whether a sender is configured
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

type welcomeData struct {
	Name   string
	AppURL string
}

// SendWelcomeEmail greets a newly registered parent
func (s *EmailService) SendWelcomeEmail(ctx context.Context, toEmail, toName string) error {
	if !s.enabled {
		if s.debug {
			log.Printf("[DEBUG] Skipping welcome email to %s (service disabled)", toEmail)
		}
		return nil
	}

	data := welcomeData{Name: toName, AppURL: s.appURL}

	var htmlBody, textBody bytes.Buffer
	if err := welcomeHTML.Execute(&htmlBody, data); err != nil {
		return fmt.Errorf("failed to render welcome email: %w", err)
	}
	if err := welcomeText.Execute(&textBody, data); err != nil {
		return fmt.Errorf("failed to render welcome email: %w", err)
	}

	return s.send(ctx, toEmail, "Welcome to Stuntcheck", htmlBody.String(), textBody.String())
}

func (s *EmailService) send(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	utf8 := aws.String("UTF-8")
	out, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination:      &types.Destination{ToAddresses: []string{toEmail}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: utf8},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(htmlBody), Charset: utf8},
					Text: &types.Content{Data: aws.String(textBody), Charset: utf8},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	if s.debug && out.MessageId != nil {
		log.Printf("[DEBUG] SES message ID: %s", *out.MessageId)
	}
	log.Printf("Email sent: to=%s, subject=%q", toEmail, subject)
	return nil
}

var welcomeHTML = htmltemplate.Must(htmltemplate.New("welcome.html").Parse(`<!DOCTYPE html>
<html>
<body style="margin:0;background:#f2f5f3;font-family:Arial,sans-serif;color:#2b2b2b;">
<table role="presentation" width="100%" cellpadding="0" cellspacing="0">
<tr><td align="center" style="padding:24px 12px;">
  <table role="presentation" width="560" cellpadding="0" cellspacing="0" style="background:#ffffff;border-radius:8px;">
    <tr><td style="background:#2d6a4f;color:#ffffff;padding:20px 28px;border-radius:8px 8px 0 0;font-size:22px;">Stuntcheck</td></tr>
    <tr><td style="padding:28px;line-height:1.6;">
      <p>Hi {{.Name}},</p>
      <p>Your account is ready. Add a profile for each child, then record height and weight to check growth against stunting risk.</p>
      <p>Every check comes with a nutrition recommendation and is kept in your history.</p>
      {{if .AppURL}}<p><a href="{{.AppURL}}" style="color:#2d6a4f;font-weight:bold;">Open Stuntcheck</a></p>{{end}}
    </td></tr>
    <tr><td style="padding:0 28px 20px;font-size:12px;color:#777;">Automated message, replies are not read.</td></tr>
  </table>
</td></tr>
</table>
</body>
</html>
`))

var welcomeText = texttemplate.Must(texttemplate.New("welcome.txt").Parse(`Hi {{.Name}},

Your account is ready. Add a profile for each child, then record height and weight to check growth against stunting risk.

Every check comes with a nutrition recommendation and is kept in your history.
{{if .AppURL}}
Open Stuntcheck: {{.AppURL}}
{{end}}
--
Automated message, replies are not read.
`))
