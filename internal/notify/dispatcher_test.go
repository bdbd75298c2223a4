package notify

import (
	"context"
	"errors"
	"testing"

	"visa-status-service/internal/common/logger"
	"visa-status-service/internal/models"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockMailer struct {
	sendFunc func(ctx context.Context, msg Message) error
	sent     []Message
}

func (m *mockMailer) Send(ctx context.Context, msg Message) error {
	m.sent = append(m.sent, msg)
	if m.sendFunc != nil {
		return m.sendFunc(ctx, msg)
	}
	return nil
}

func (m *mockMailer) Provider() string { return "mock" }

func TestDispatch_Success(t *testing.T) {
	mailer := &mockMailer{}
	d := NewDispatcher(mailer, "noreply@example.com", logger.NewTestLogger(t))

	outcome := d.Dispatch(context.Background(), "applicant@example.com", "subject", "body")

	assert.True(t, outcome.Delivered)
	assert.Empty(t, outcome.FailureReason)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "noreply@example.com", mailer.sent[0].From)
	assert.Equal(t, "applicant@example.com", mailer.sent[0].To)
}

func TestDispatch_TransportFailureNeverPropagates(t *testing.T) {
	mailer := &mockMailer{
		sendFunc: func(ctx context.Context, msg Message) error {
			return errors.New("535 authentication failed")
		},
	}
	d := NewDispatcher(mailer, "noreply@example.com", logger.NewTestLogger(t))

	outcome := d.Dispatch(context.Background(), "applicant@example.com", "subject", "body")

	assert.False(t, outcome.Delivered)
	assert.Contains(t, outcome.FailureReason, "authentication failed")
}

func TestDispatch_InvalidRecipient(t *testing.T) {
	mailer := &mockMailer{}
	d := NewDispatcher(mailer, "noreply@example.com", logger.NewTestLogger(t))

	tests := []string{"", "no-at-sign", "missing@tld", "@example.com", "user@"}
	for _, recipient := range tests {
		outcome := d.Dispatch(context.Background(), recipient, "subject", "body")
		assert.False(t, outcome.Delivered, "recipient %q", recipient)
		assert.NotEmpty(t, outcome.FailureReason)
	}
	assert.Empty(t, mailer.sent, "invalid recipients must never reach the transport")
}

func TestComposeStatusMessage(t *testing.T) {
	subject, body := ComposeStatusMessage(models.StatusApproved, 6)
	assert.Contains(t, subject, "Approved")
	assert.Contains(t, body, "approved")

	subject, body = ComposeStatusMessage(models.StatusRejected, 6)
	assert.Contains(t, subject, "Update")
	assert.Contains(t, body, "contact our office")

	_, body = ComposeStatusMessage(models.StatusPending, 6)
	assert.Contains(t, body, "6 working days")
}

type mockSES struct {
	input *ses.SendEmailInput
	err   error
}

func (m *mockSES) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.input = params
	return &ses.SendEmailOutput{}, m.err
}

func TestSESMailer_Send(t *testing.T) {
	api := &mockSES{}
	m := &SESMailer{client: api}

	err := m.Send(context.Background(), Message{
		From:    "noreply@example.com",
		To:      "applicant@example.com",
		Subject: "subject",
		Body:    "body",
	})

	require.NoError(t, err)
	require.NotNil(t, api.input)
	assert.Equal(t, "noreply@example.com", *api.input.Source)
	assert.Equal(t, []string{"applicant@example.com"}, api.input.Destination.ToAddresses)
}

func TestBuildMessage(t *testing.T) {
	raw := buildMessage(Message{
		From:    "noreply@example.com",
		To:      "applicant@example.com",
		Subject: "Your Visa Application Status",
		Body:    "still pending",
	})

	assert.Contains(t, raw, "From: noreply@example.com\r\n")
	assert.Contains(t, raw, "Subject: Your Visa Application Status\r\n")
	assert.Contains(t, raw, "\r\n\r\nstill pending")
}
