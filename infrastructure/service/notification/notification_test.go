package notification

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/refferq/refferq/application/port/outbound"
	"github.com/refferq/refferq/domain/entity"
	"github.com/refferq/refferq/infrastructure/service/logger"
)

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	return m.Called(ctx, to, subject, htmlBody).Error(0)
}

type countingNotifier struct {
	mu       sync.Mutex
	failures int
	calls    int
	done     chan struct{}
}

func (c *countingNotifier) SendWelcome(ctx context.Context, msg outbound.WelcomeMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.calls <= c.failures {
		return errors.New("temporary failure")
	}
	close(c.done)
	return nil
}

func (c *countingNotifier) SendLoginCode(ctx context.Context, msg outbound.LoginCodeMessage) error {
	return nil
}

func TestRenderWelcome(t *testing.T) {
	r, err := renderWelcome(outbound.WelcomeMessage{
		Name:     "Ada <script>",
		Email:    "ada@example.com",
		Role:     entity.RoleAffiliate,
		LoginURL: "https://app.refferq.com/login",
	})
	require.NoError(t, err)
	assert.Equal(t, "Welcome to Refferq", r.Subject)
	assert.Contains(t, r.Body, "Your Affiliate account")
	assert.Contains(t, r.Body, `href="https://app.refferq.com/login"`)
	assert.Contains(t, r.Body, "Ada &lt;script&gt;")
}

func TestRenderLoginCode(t *testing.T) {
	r, err := renderLoginCode(outbound.LoginCodeMessage{Email: "ada@example.com", Code: "042137", ExpiresIn: 10 * time.Minute})
	require.NoError(t, err)
	assert.Contains(t, r.Body, "042137")
	assert.Contains(t, r.Body, "10 minutes")
	assert.Contains(t, r.Body, "Hi there")
}

func TestEmailNotifier_DelegatesToMailer(t *testing.T) {
	mailer := &mockMailer{}
	mailer.On("Send", mock.Anything, "ada@example.com", "Your Refferq verification code", mock.MatchedBy(func(body string) bool {
		return strings.Contains(body, "123456")
	})).Return(nil)

	n := NewEmailNotifier(mailer)
	require.NoError(t, n.SendLoginCode(context.Background(), outbound.LoginCodeMessage{Email: "ada@example.com", Code: "123456", ExpiresIn: time.Minute}))
	mailer.AssertExpectations(t)
}

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage("noreply@refferq.com", "ada@example.com", "Hello", "<p>hi</p>"))
	assert.True(t, strings.HasPrefix(msg, "From: noreply@refferq.com\r\nTo: ada@example.com\r\nSubject: Hello\r\n"))
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\n<p>hi</p>"))
}

func TestSMTPMailer_RejectsHeaderInjection(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "127.0.0.1", Port: "25"})
	err := m.Send(context.Background(), "ada@example.com\r\nBcc: eve@example.com", "hi", "body")
	assert.Error(t, err)
}

func TestLogNotifier_HidesCodesByDefault(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewStructuredLogger(logger.LoggerConfig{Level: "info", Format: "json", Output: &buf})

	require.NoError(t, NewLogNotifier(log, false).SendLoginCode(context.Background(), outbound.LoginCodeMessage{Email: "a@b.co", Code: "987654"}))
	assert.NotContains(t, buf.String(), "987654")

	buf.Reset()
	require.NoError(t, NewLogNotifier(log, true).SendLoginCode(context.Background(), outbound.LoginCodeMessage{Email: "a@b.co", Code: "987654"}))
	assert.Contains(t, buf.String(), "987654")
}

func TestAsyncNotifier_RetriesUntilSuccess(t *testing.T) {
	next := &countingNotifier{failures: 2, done: make(chan struct{})}
	n := NewAsyncNotifier(next, AsyncConfig{Workers: 1, QueueSize: 4, Retries: 3, Backoff: time.Millisecond}, logger.NewNopLogger())

	require.NoError(t, n.SendWelcome(context.Background(), outbound.WelcomeMessage{Email: "ada@example.com"}))

	select {
	case <-next.done:
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not delivered")
	}
	require.NoError(t, n.Close(context.Background()))
	assert.Equal(t, 3, next.calls)
}

func TestAsyncNotifier_SurvivesRequestCancellation(t *testing.T) {
	next := &countingNotifier{done: make(chan struct{})}
	n := NewAsyncNotifier(next, AsyncConfig{Workers: 1}, logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, n.SendWelcome(ctx, outbound.WelcomeMessage{Email: "ada@example.com"}))
	cancel()

	require.NoError(t, n.Close(context.Background()))
	select {
	case <-next.done:
	default:
		t.Fatal("queued job should drain on Close")
	}
}

func TestAsyncNotifier_RejectsAfterClose(t *testing.T) {
	n := NewAsyncNotifier(&countingNotifier{done: make(chan struct{})}, AsyncConfig{}, logger.NewNopLogger())
	require.NoError(t, n.Close(context.Background()))
	assert.ErrorIs(t, n.SendLoginCode(context.Background(), outbound.LoginCodeMessage{}), ErrClosed)
}
