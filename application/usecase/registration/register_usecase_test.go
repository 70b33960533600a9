package registration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/refferq/refferq/application/port/inbound"
	"github.com/refferq/refferq/application/port/outbound"
	"github.com/refferq/refferq/domain/entity"
	apperr "github.com/refferq/refferq/domain/error"
	"github.com/refferq/refferq/infrastructure/adapter/memory"
	"github.com/refferq/refferq/infrastructure/service/logger"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) SendWelcome(ctx context.Context, msg outbound.WelcomeMessage) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *mockNotifier) SendLoginCode(ctx context.Context, msg outbound.LoginCodeMessage) error {
	return m.Called(ctx, msg).Error(0)
}

type sequenceCodes struct {
	codes []string
	calls int
}

func (s *sequenceCodes) Generate() (string, error) {
	code := s.codes[s.calls%len(s.codes)]
	s.calls++
	return code, nil
}

type fixture struct {
	store    *memory.Store
	notifier *mockNotifier
	codes    *sequenceCodes
	uc       *RegisterUseCase
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	store := memory.NewStore()
	notifier := &mockNotifier{}
	codes := &sequenceCodes{codes: []string{"ABCD2345", "EFGH6789", "JKLM2345"}}

	uc := NewRegisterUseCase(store.Users(), store.Affiliates(), store, codes, notifier, nil, logger.NewNopLogger(), opts)
	uc.now = func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }

	return &fixture{store: store, notifier: notifier, codes: codes, uc: uc}
}

func TestRegister_NormalizesAndCreatesAffiliate(t *testing.T) {
	f := newFixture(t, Options{AppBaseURL: "https://app.refferq.com/"})
	f.notifier.On("SendWelcome", mock.Anything, mock.MatchedBy(func(msg outbound.WelcomeMessage) bool {
		return msg.Email == "ada@example.com" && msg.LoginURL == "https://app.refferq.com/login" && msg.Role == entity.RoleAffiliate
	})).Return(nil)

	resp, err := f.uc.Register(context.Background(), inbound.RegisterRequest{Name: " Ada ", Email: "ADA@Example.com"})
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, "ada@example.com", resp.User.Email)
	assert.Equal(t, "Ada", resp.User.Name)
	assert.Equal(t, "AFFILIATE", resp.User.Role)
	assert.Equal(t, "PENDING", resp.User.Status)

	stored, err := f.store.Users().FindByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, stored.ID)

	aff, err := f.store.Affiliates().FindByUserID(context.Background(), stored.ID)
	require.NoError(t, err)
	assert.Equal(t, "ABCD2345", aff.ReferralCode)
	f.notifier.AssertExpectations(t)
}

func TestRegister_DuplicateEmailIsConflict(t *testing.T) {
	f := newFixture(t, Options{})
	f.notifier.On("SendWelcome", mock.Anything, mock.Anything).Return(nil)

	_, err := f.uc.Register(context.Background(), inbound.RegisterRequest{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)

	_, err = f.uc.Register(context.Background(), inbound.RegisterRequest{Name: "Ada Again", Email: "  ADA@example.COM "})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
	f.notifier.AssertNumberOfCalls(t, "SendWelcome", 1)
}

func TestRegister_RoleResolution(t *testing.T) {
	tests := []struct {
		requested  string
		allowAdmin bool
		want       string
	}{
		{requested: "", allowAdmin: true, want: "AFFILIATE"},
		{requested: "ADMIN", allowAdmin: true, want: "ADMIN"},
		{requested: "admin", allowAdmin: true, want: "AFFILIATE"},
		{requested: "Admin", allowAdmin: true, want: "AFFILIATE"},
		{requested: " ADMIN", allowAdmin: true, want: "AFFILIATE"},
		{requested: "AFFILIATE", allowAdmin: true, want: "AFFILIATE"},
		{requested: "ADMIN", allowAdmin: false, want: "AFFILIATE"},
	}

	for _, tt := range tests {
		t.Run(tt.requested, func(t *testing.T) {
			f := newFixture(t, Options{AllowAdminRole: tt.allowAdmin})
			f.notifier.On("SendWelcome", mock.Anything, mock.Anything).Return(nil)

			resp, err := f.uc.Register(context.Background(), inbound.RegisterRequest{
				Name: "Grace", Email: "grace@example.com", Role: tt.requested,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.User.Role)

			_, err = f.store.Affiliates().FindByUserID(context.Background(), resp.User.ID)
			if tt.want == "ADMIN" {
				assert.ErrorIs(t, err, outbound.ErrAffiliateNotFound)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRegister_ValidationErrors(t *testing.T) {
	f := newFixture(t, Options{})

	for _, req := range []inbound.RegisterRequest{
		{Name: "Ada"},
		{Email: "ada@example.com"},
		{Name: "Ada", Email: "not-an-email"},
	} {
		_, err := f.uc.Register(context.Background(), req)
		assert.True(t, apperr.IsKind(err, apperr.KindValidation), "request %+v", req)
	}
	f.notifier.AssertNotCalled(t, "SendWelcome", mock.Anything, mock.Anything)
}

func TestRegister_NotifierFailureIsSwallowed(t *testing.T) {
	f := newFixture(t, Options{})
	f.notifier.On("SendWelcome", mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	resp, err := f.uc.Register(context.Background(), inbound.RegisterRequest{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
}

func TestRegister_RetriesReferralCollision(t *testing.T) {
	f := newFixture(t, Options{})
	f.notifier.On("SendWelcome", mock.Anything, mock.Anything).Return(nil)
	f.codes.codes = []string{"ABCD2345"}

	first, err := f.uc.Register(context.Background(), inbound.RegisterRequest{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)

	f.codes.codes = []string{"ABCD2345", "ABCD2345", "ZZZZ2345"}
	f.codes.calls = 0
	second, err := f.uc.Register(context.Background(), inbound.RegisterRequest{Name: "Bob", Email: "bob@example.com"})
	require.NoError(t, err)

	a1, _ := f.store.Affiliates().FindByUserID(context.Background(), first.User.ID)
	a2, _ := f.store.Affiliates().FindByUserID(context.Background(), second.User.ID)
	assert.Equal(t, "ZZZZ2345", a2.ReferralCode)
	assert.NotEqual(t, a1.ReferralCode, a2.ReferralCode)
}

func TestRegister_ExhaustedReferralCodesRollsBackUser(t *testing.T) {
	f := newFixture(t, Options{})
	f.notifier.On("SendWelcome", mock.Anything, mock.Anything).Return(nil)
	f.codes.codes = []string{"ABCD2345"}

	_, err := f.uc.Register(context.Background(), inbound.RegisterRequest{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)

	_, err = f.uc.Register(context.Background(), inbound.RegisterRequest{Name: "Bob", Email: "bob@example.com"})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInternal))

	exists, err := f.store.Users().ExistsByEmail(context.Background(), "bob@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}
