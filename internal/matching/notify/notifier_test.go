package notify

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonaws "lostfound-matching/internal/common/aws"
	"lostfound-matching/internal/common/logger"
	"lostfound-matching/internal/models"
)

// The production clients must keep satisfying the delivery interfaces
// so the entrypoint can hand them to NewAWSNotifier.
var (
	_ SESService = (*commonaws.SESClient)(nil)
	_ SNSService = (*commonaws.SNSClient)(nil)
)

type mockSES struct {
	calls int
	err   error
	last  *ses.SendEmailInput
}

func (m *mockSES) SendEmail(_ context.Context, params *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.calls++
	m.last = params
	if m.err != nil {
		return nil, m.err
	}
	return &ses.SendEmailOutput{}, nil
}

type mockSNS struct {
	calls int
	err   error
}

func (m *mockSNS) Publish(_ context.Context, _ *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &sns.PublishOutput{}, nil
}

// recordingLogger captures Error fields so tests can check what a
// swallowed failure reports.
type recordingLogger struct {
	errors []map[string]interface{}
}

func (r *recordingLogger) Debug(string, map[string]interface{}) {}
func (r *recordingLogger) Info(string, map[string]interface{})  {}
func (r *recordingLogger) Warn(string, map[string]interface{})  {}

func (r *recordingLogger) Error(_ string, fields map[string]interface{}) {
	r.errors = append(r.errors, fields)
}

func (r *recordingLogger) WithFields(map[string]interface{}) logger.Logger { return r }
func (r *recordingLogger) WithError(error) logger.Logger                   { return r }
func (r *recordingLogger) With(map[string]interface{}) logger.Logger       { return r }

func testNotification() *models.MatchNotification {
	return &models.MatchNotification{
		ID:              "n-1",
		RecipientUserID: 7,
		SourceItemID:    1,
		CandidateItemID: 2,
		Score:           64,
		Summary:         "Your found item may match a lost report",
		CreatedAt:       time.Now().UTC(),
	}
}

func expectContact(mock sqlmock.Sqlmock, email, phone string) {
	mock.ExpectQuery("SELECT email, phone FROM users WHERE id = \\$1").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"email", "phone"}).AddRow(email, phone))
}

func TestAWSNotifier_NotifyMatch(t *testing.T) {
	t.Run("sends email and sms when both enabled", func(t *testing.T) {
		db, dbMock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		expectContact(dbMock, "user@example.edu", "+15550001111")

		sesMock := &mockSES{}
		snsMock := &mockSNS{}
		n := NewAWSNotifier(Config{
			EmailEnabled: true,
			FromEmail:    "noreply@example.edu",
			SMSEnabled:   true,
		}, db, sesMock, snsMock, logger.NewNoOpLogger())

		err = n.NotifyMatch(context.Background(), testNotification())
		require.NoError(t, err)
		assert.Equal(t, 1, sesMock.calls)
		assert.Equal(t, 1, snsMock.calls)
		require.NotNil(t, sesMock.last)
		assert.Equal(t, "noreply@example.edu", *sesMock.last.Source)
	})

	t.Run("delivery failure is swallowed", func(t *testing.T) {
		db, dbMock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		expectContact(dbMock, "user@example.edu", "")

		sesMock := &mockSES{err: assert.AnError}
		recLog := &recordingLogger{}
		n := NewAWSNotifier(Config{
			EmailEnabled: true,
			FromEmail:    "noreply@example.edu",
		}, db, sesMock, &mockSNS{}, recLog)

		assert.NoError(t, n.NotifyMatch(context.Background(), testNotification()))
		require.Len(t, recLog.errors, 1)
		assert.Equal(t, "NOTIFICATION_SEND_FAILED", recLog.errors[0]["errorCode"])
	})

	t.Run("unknown recipient is not an error", func(t *testing.T) {
		db, dbMock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		dbMock.ExpectQuery("SELECT email, phone FROM users WHERE id = \\$1").
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"email", "phone"}))

		sesMock := &mockSES{}
		n := NewAWSNotifier(Config{EmailEnabled: true}, db, sesMock, &mockSNS{}, logger.NewNoOpLogger())

		assert.NoError(t, n.NotifyMatch(context.Background(), testNotification()))
		assert.Equal(t, 0, sesMock.calls)
	})

	t.Run("disabled channels send nothing", func(t *testing.T) {
		db, dbMock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()
		expectContact(dbMock, "user@example.edu", "+15550001111")

		sesMock := &mockSES{}
		snsMock := &mockSNS{}
		n := NewAWSNotifier(Config{}, db, sesMock, snsMock, logger.NewNoOpLogger())

		assert.NoError(t, n.NotifyMatch(context.Background(), testNotification()))
		assert.Equal(t, 0, sesMock.calls)
		assert.Equal(t, 0, snsMock.calls)
	})
}

func TestNewNotification(t *testing.T) {
	source := &models.Item{ID: 1, AuthorID: 3, Title: "Lost black wallet", Kind: models.KindLost}
	candidate := &models.Item{ID: 2, AuthorID: 7, Title: "Found a wallet", Kind: models.KindFound}

	n := NewNotification(source, candidate, 64.2)

	assert.NotEmpty(t, n.ID)
	assert.Equal(t, int64(7), n.RecipientUserID)
	assert.Equal(t, int64(1), n.SourceItemID)
	assert.Equal(t, int64(2), n.CandidateItemID)
	assert.Equal(t, 64.2, n.Score)
	assert.Contains(t, n.Summary, "Found a wallet")
	assert.Contains(t, n.Summary, "Lost black wallet")
	assert.Contains(t, n.Summary, "mentioning: black, wallet")
}
