// internal/matching/notify/notifier.go

// Package notify delivers match alerts to item authors. Delivery is
// best effort: a failed notification is logged and counted, never
// propagated, so a broken mail channel cannot break matching.
package notify

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/google/uuid"

	apperrors "lostfound-matching/internal/common/errors"
	"lostfound-matching/internal/common/logger"
	"lostfound-matching/internal/common/metrics"
	"lostfound-matching/internal/matching/textsim"
	"lostfound-matching/internal/models"
)

// Notifier delivers a match notification to its recipient.
type Notifier interface {
	NotifyMatch(ctx context.Context, n *models.MatchNotification) error
}

// Interfaces over the AWS clients so tests can mock delivery.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Config struct {
	EmailEnabled bool
	FromEmail    string
	SMSEnabled   bool
}

// AWSNotifier sends match alerts over SES email, and SNS SMS when the
// recipient has a phone number on file.
type AWSNotifier struct {
	config    Config
	db        *sql.DB
	logger    logger.Logger
	sesClient SESService
	snsClient SNSService
}

func NewAWSNotifier(cfg Config, db *sql.DB, sesClient SESService, snsClient SNSService, log logger.Logger) *AWSNotifier {
	return &AWSNotifier{
		config:    cfg,
		db:        db,
		logger:    log,
		sesClient: sesClient,
		snsClient: snsClient,
	}
}

func (n *AWSNotifier) NotifyMatch(ctx context.Context, notification *models.MatchNotification) error {
	email, phone, err := n.recipientContact(ctx, notification.RecipientUserID)
	if err != nil {
		n.logger.Warn("match notification recipient not found", map[string]interface{}{
			"recipientUserId": notification.RecipientUserID,
			"error":           err.Error(),
		})
		return nil
	}

	subject := "A possible match for your item"
	body := notification.Summary

	if n.config.EmailEnabled && email != "" {
		if err := n.sendEmail(ctx, email, subject, body); err != nil {
			metrics.MatchNotificationsFailed.WithLabelValues("email").Inc()
			sendErr := apperrors.NewNotificationSendFailedError("email", err)
			n.logger.Error("match email send failed", map[string]interface{}{
				"notificationId": notification.ID,
				"errorCode":      string(sendErr.Code),
				"error":          sendErr.Error(),
			})
		} else {
			metrics.MatchNotificationsEmitted.WithLabelValues("email").Inc()
		}
	}

	if n.config.SMSEnabled && phone != "" {
		if err := n.sendSMS(ctx, phone, body); err != nil {
			metrics.MatchNotificationsFailed.WithLabelValues("sms").Inc()
			sendErr := apperrors.NewNotificationSendFailedError("sms", err)
			n.logger.Error("match SMS send failed", map[string]interface{}{
				"notificationId": notification.ID,
				"errorCode":      string(sendErr.Code),
				"error":          sendErr.Error(),
			})
		} else {
			metrics.MatchNotificationsEmitted.WithLabelValues("sms").Inc()
		}
	}

	return nil
}

func (n *AWSNotifier) recipientContact(ctx context.Context, userID int64) (string, string, error) {
	var email string
	var phone sql.NullString
	err := n.db.QueryRowContext(ctx,
		`SELECT email, phone FROM users WHERE id = $1`, userID,
	).Scan(&email, &phone)
	if err != nil {
		return "", "", err
	}
	return email, phone.String, nil
}

func (n *AWSNotifier) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := n.sesClient.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body)},
			},
		},
		Source: aws.String(n.config.FromEmail),
	})
	return err
}

func (n *AWSNotifier) sendSMS(ctx context.Context, to, message string) error {
	_, err := n.snsClient.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(to),
		Message:     aws.String(message),
	})
	return err
}

// NewNotification builds the notification intent for a scored pair.
// The summary names both items and the overlapping keywords so the
// recipient can judge the match without opening the app.
func NewNotification(source, candidate *models.Item, score float64) *models.MatchNotification {
	summary := fmt.Sprintf("Your %s item %q may match %q (score %.0f)",
		candidate.Kind, candidate.Title, source.Title, score)
	if kw := textsim.Keywords(source.Text(), 3); len(kw) > 0 {
		summary += fmt.Sprintf(", mentioning: %s", strings.Join(kw, ", "))
	}

	return &models.MatchNotification{
		ID:              uuid.New().String(),
		RecipientUserID: candidate.AuthorID,
		SourceItemID:    source.ID,
		CandidateItemID: candidate.ID,
		Score:           score,
		Summary:         summary,
		CreatedAt:       time.Now().UTC(),
	}
}

// NoOpNotifier drops every notification. Used when alerting is
// disabled or in tests.
type NoOpNotifier struct{}

func (NoOpNotifier) NotifyMatch(context.Context, *models.MatchNotification) error {
	return nil
}
