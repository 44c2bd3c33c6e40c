package service

import (
	"context"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"nestcare/internal/models"
)

// EmailService sends relation-workflow notifications via Amazon SES
type EmailService struct {
	client     *sesv2.Client
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	debug      bool
}

// NewEmailService creates a new email service. An empty fromEmail yields
// a disabled service that skips all sends.
func NewEmailService(awsRegion, fromEmail, fromName, appBaseURL string, debug bool) (*EmailService, error) {
	if fromEmail == "" {
		log.Println("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{
			enabled: false,
			debug:   debug,
		}, nil
	}

	if debug {
		log.Printf("[DEBUG] Initializing email service with AWS SES")
		log.Printf("[DEBUG] AWS Region: %s", awsRegion)
		log.Printf("[DEBUG] From Email: %s", fromEmail)
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(awsRegion),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := sesv2.NewFromConfig(cfg)
	log.Printf("Email service enabled: from=%s, region=%s", fromEmail, awsRegion)

	return &EmailService{
		client:     client,
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
		debug:      debug,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendAccessRequestedEmail tells a guardian that someone asked to join a
// timeline. The reference identifies the request in the approval link.
func (s *EmailService) SendAccessRequestedEmail(ctx context.Context, toEmail, toName, requesterName, nickname, reference string) error {
	if s.debug {
		log.Printf("[DEBUG] SendAccessRequestedEmail: to=%s, requester=%s, timeline=%s", toEmail, requesterName, nickname)
	}
	if !s.enabled {
		return nil
	}

	approveURL := fmt.Sprintf("%s/relations/approve?ref=%s", s.appBaseURL, reference)
	subject := fmt.Sprintf("%s asked to follow %s", requesterName, nickname)

	htmlBody := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p><strong>%s</strong> has asked to follow <strong>%s</strong>'s timeline.</p>
		<p>As a guardian you can approve or reject this request:</p>
		<p><a href="%s">Review the request</a></p>
		<p>If you don't recognize this person, reject the request.</p>
	`, toName, requesterName, nickname, approveURL)

	textBody := fmt.Sprintf(
		"Hi %s,\n\n%s has asked to follow %s's timeline.\n\nReview the request: %s\n\nIf you don't recognize this person, reject the request.\n",
		toName, requesterName, nickname, approveURL)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// SendAccessDecidedEmail tells a requester how their request was decided
func (s *EmailService) SendAccessDecidedEmail(ctx context.Context, toEmail, toName, nickname string, status models.RelationStatus) error {
	if s.debug {
		log.Printf("[DEBUG] SendAccessDecidedEmail: to=%s, timeline=%s, status=%s", toEmail, nickname, status)
	}
	if !s.enabled {
		return nil
	}

	var subject, line string
	if status == models.StatusRejected {
		subject = fmt.Sprintf("Your request to follow %s was declined", nickname)
		line = fmt.Sprintf("Your request to follow %s's timeline was declined.", nickname)
	} else {
		subject = fmt.Sprintf("You can now follow %s", nickname)
		line = fmt.Sprintf("Your request was approved: you now follow %s's timeline as %s.", nickname, status)
	}

	htmlBody := fmt.Sprintf("<p>Hi %s,</p><p>%s</p>", toName, line)
	textBody := fmt.Sprintf("Hi %s,\n\n%s\n", toName, line)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	if s.debug {
		log.Printf("[DEBUG] Email sent to %s: %s", toEmail, subject)
	}
	return nil
}
