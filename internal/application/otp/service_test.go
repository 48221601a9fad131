package otp

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/growwelltax/intake-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

// memChallengeStore is an in-memory ChallengeStore for exercising the full
// request/verify lifecycle.
type memChallengeStore struct {
	mu         sync.Mutex
	challenges map[string]*domain.OtpChallenge
}

func newMemChallengeStore() *memChallengeStore {
	return &memChallengeStore{challenges: map[string]*domain.OtpChallenge{}}
}

func (s *memChallengeStore) Put(_ context.Context, c *domain.OtpChallenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.challenges[c.Identifier] = &cp
	return nil
}

func (s *memChallengeStore) Get(_ context.Context, identifier string) (*domain.OtpChallenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challenges[identifier]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *memChallengeStore) IncrementAttempts(_ context.Context, identifier string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.challenges[identifier]
	if !ok {
		return 0, domain.ErrNotFound
	}
	c.Attempts++
	return c.Attempts, nil
}

func (s *memChallengeStore) Delete(_ context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.challenges, identifier)
	return nil
}

// outageChallengeStore fails every read, as when the backing table is
// unreachable.
type outageChallengeStore struct {
	*memChallengeStore
	getErr error
}

func (s *outageChallengeStore) Get(_ context.Context, _ string) (*domain.OtpChallenge, error) {
	return nil, s.getErr
}

// captureMailer records the last email body so tests can read the code out.
type captureMailer struct {
	lastTo   string
	lastBody string
	sends    int
}

func (m *captureMailer) SendEmail(to, _, body string) error {
	m.lastTo = to
	m.lastBody = body
	m.sends++
	return nil
}

// captureSMS records the last SMS message.
type captureSMS struct {
	lastTo  string
	lastMsg string
}

func (m *captureSMS) SendSMS(_ context.Context, to, message string) error {
	m.lastTo = to
	m.lastMsg = message
	return nil
}

func codeFrom(body string) string {
	i := strings.LastIndexByte(body, ' ')
	return body[i+1:]
}

// --- tests ---

func TestRequestThenVerify_SucceedsExactlyOnce(t *testing.T) {
	store := newMemChallengeStore()
	mailer := &captureMailer{}
	svc := NewService(store, mailer, &captureSMS{})

	require.NoError(t, svc.Request(context.Background(), "tax@example.com", domain.ChannelEmail))
	require.Equal(t, 1, mailer.sends)
	code := codeFrom(mailer.lastBody)
	require.Len(t, code, 6)

	assert.NoError(t, svc.Verify(context.Background(), "tax@example.com", code))

	// Challenge consumed; same code is dead.
	err := svc.Verify(context.Background(), "tax@example.com", code)
	assert.ErrorIs(t, err, domain.ErrOTPNotFound)
}

func TestVerify_StoreFailureIsNotTreatedAsMissingChallenge(t *testing.T) {
	store := &outageChallengeStore{
		memChallengeStore: newMemChallengeStore(),
		getErr:            errors.New("dynamo unavailable"),
	}
	svc := NewService(store, &captureMailer{}, &captureSMS{})

	err := svc.Verify(context.Background(), "user@example.com", "123456")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrOTPNotFound)
	assert.ErrorContains(t, err, "dynamo unavailable")
}

func TestVerify_NoChallenge(t *testing.T) {
	svc := NewService(newMemChallengeStore(), &captureMailer{}, &captureSMS{})
	err := svc.Verify(context.Background(), "nobody@example.com", "123456")
	assert.ErrorIs(t, err, domain.ErrOTPNotFound)
}

func TestVerify_WrongCode_CountsDownAttempts(t *testing.T) {
	store := newMemChallengeStore()
	mailer := &captureMailer{}
	svc := NewService(store, mailer, &captureSMS{})

	require.NoError(t, svc.Request(context.Background(), "tax@example.com", domain.ChannelEmail))
	right := codeFrom(mailer.lastBody)
	wrong := "000000"
	if wrong == right {
		wrong = "000001"
	}

	err := svc.Verify(context.Background(), "tax@example.com", wrong)
	var invalid *domain.InvalidCodeError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 2, invalid.AttemptsLeft)

	err = svc.Verify(context.Background(), "tax@example.com", wrong)
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 1, invalid.AttemptsLeft)

	// Third wrong attempt hits the ceiling and consumes the challenge.
	err = svc.Verify(context.Background(), "tax@example.com", wrong)
	assert.ErrorIs(t, err, domain.ErrOTPTooManyAttempts)

	// Even the right code is dead now.
	err = svc.Verify(context.Background(), "tax@example.com", right)
	assert.ErrorIs(t, err, domain.ErrOTPNotFound)
}

func TestVerify_Expired(t *testing.T) {
	store := newMemChallengeStore()
	mailer := &captureMailer{}
	svc := NewService(store, mailer, &captureSMS{})

	require.NoError(t, svc.Request(context.Background(), "tax@example.com", domain.ChannelEmail))
	right := codeFrom(mailer.lastBody)

	// Age the challenge past its TTL.
	store.mu.Lock()
	store.challenges["tax@example.com"].ExpiresAt = time.Now().Add(-time.Minute).Unix()
	store.mu.Unlock()

	err := svc.Verify(context.Background(), "tax@example.com", right)
	assert.ErrorIs(t, err, domain.ErrOTPExpired)

	// Expiry consumed the challenge too.
	err = svc.Verify(context.Background(), "tax@example.com", right)
	assert.ErrorIs(t, err, domain.ErrOTPNotFound)
}

func TestRequest_ReplacesLiveChallenge(t *testing.T) {
	store := newMemChallengeStore()
	mailer := &captureMailer{}
	svc := NewService(store, mailer, &captureSMS{})

	require.NoError(t, svc.Request(context.Background(), "tax@example.com", domain.ChannelEmail))
	first := codeFrom(mailer.lastBody)
	require.NoError(t, svc.Request(context.Background(), "tax@example.com", domain.ChannelEmail))
	second := codeFrom(mailer.lastBody)

	if first != second {
		err := svc.Verify(context.Background(), "tax@example.com", first)
		var invalid *domain.InvalidCodeError
		assert.ErrorAs(t, err, &invalid)
	}
	assert.NoError(t, svc.Verify(context.Background(), "tax@example.com", second))
}

func TestRequest_ValidatesIdentifier(t *testing.T) {
	svc := NewService(newMemChallengeStore(), &captureMailer{}, &captureSMS{})

	err := svc.Request(context.Background(), "not-an-email", domain.ChannelEmail)
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	err = svc.Request(context.Background(), "12345", domain.ChannelPhone)
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	err = svc.Request(context.Background(), "tax@example.com", "carrier-pigeon")
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestRequest_PhoneChannel_SendsSMS(t *testing.T) {
	store := newMemChallengeStore()
	sms := &captureSMS{}
	svc := NewService(store, &captureMailer{}, sms)

	require.NoError(t, svc.Request(context.Background(), "+15551234567", domain.ChannelPhone))
	assert.Equal(t, "+15551234567", sms.lastTo)
	assert.NotEmpty(t, sms.lastMsg)
}
