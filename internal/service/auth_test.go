package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storepanel/internal/events"
	"github.com/Skotchmaster/storepanel/internal/models"
	"github.com/Skotchmaster/storepanel/internal/repo"
	"github.com/Skotchmaster/storepanel/internal/testdb"
)

func newTestAuthService(t *testing.T) (*AuthService, *gorm.DB) {
	t.Helper()
	db := testdb.New(t)
	return &AuthService{
		Repo:   &repo.GormRepo{DB: db},
		Secret: []byte("test-secret"),
		Events: &events.Recorder{},
	}, db
}

func TestAuthService_Signup(t *testing.T) {
	t.Parallel()

	svc, db := newTestAuthService(t)
	ctx := context.Background()

	u, err := svc.Signup(ctx, "A", "a@X.com", "p1")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", u.Email)
	assert.Equal(t, models.RoleStaff, u.Role)
	assert.True(t, u.IsActive)
	assert.False(t, u.IsStaff)
	assert.NotEqual(t, "p1", u.PasswordHash)

	_, err = svc.Signup(ctx, "A again", "a@x.com", "p2")
	require.ErrorIs(t, err, ErrValidation)
	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, msgEmailTaken, fe.Fields["email"])

	var n int64
	require.NoError(t, db.Model(&models.User{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)

	rec := svc.Events.(*events.Recorder).Events()
	require.Len(t, rec, 1)
	assert.Equal(t, "auth_events", rec[0].Topic)
}

func TestAuthService_Signup_Validation(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)

	tests := []struct {
		name, user, email, password, field string
	}{
		{name: "empty name", user: " ", email: "a@x.com", password: "p", field: "name"},
		{name: "empty email", user: "A", email: "", password: "p", field: "email"},
		{name: "empty password", user: "A", email: "a@x.com", password: "", field: "password"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Signup(context.Background(), tt.user, tt.email, tt.password)
			var fe *FieldError
			require.True(t, errors.As(err, &fe))
			assert.Contains(t, fe.Fields, tt.field)
		})
	}
}

func TestAuthService_Login_DoesNotRevealWhichPartFailed(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)
	ctx := context.Background()
	_, err := svc.Signup(ctx, "A", "a@x.com", "p1")
	require.NoError(t, err)

	_, wrongPassword := svc.Login(ctx, "a@x.com", "nope")
	_, unknownEmail := svc.Login(ctx, "ghost@x.com", "p1")

	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())

	_, err = svc.Login(ctx, "", "p1")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.Login(ctx, "a@x.com", "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAuthService_Login_ReusesTokenUntilLogout(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)
	ctx := context.Background()
	u, err := svc.Signup(ctx, "A", "a@x.com", "p1")
	require.NoError(t, err)

	first, err := svc.Login(ctx, "a@x.com", "p1")
	require.NoError(t, err)
	second, err := svc.Login(ctx, "a@x.com", "p1")
	require.NoError(t, err)
	assert.Equal(t, first.Token, second.Token)
	assert.Equal(t, u.ID, first.User.ID)

	who, tok, err := svc.Authenticate(ctx, first.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, who.ID)

	require.NoError(t, svc.Logout(ctx, tok.ID))
	require.NoError(t, svc.Logout(ctx, tok.ID))

	_, _, err = svc.Authenticate(ctx, first.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)

	third, err := svc.Login(ctx, "a@x.com", "p1")
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, third.Token)
}

func TestAuthService_Login_ExpiredTokenIsReplaced(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)
	svc.TokenTTL = time.Hour
	ctx := context.Background()
	_, err := svc.Signup(ctx, "A", "a@x.com", "p1")
	require.NoError(t, err)

	t0 := time.Now()
	svc.Now = func() time.Time { return t0 }
	first, err := svc.Login(ctx, "a@x.com", "p1")
	require.NoError(t, err)

	svc.Now = func() time.Time { return t0.Add(2 * time.Hour) }
	second, err := svc.Login(ctx, "a@x.com", "p1")
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, second.Token)
}

func TestAuthService_InactiveUser(t *testing.T) {
	t.Parallel()

	svc, db := newTestAuthService(t)
	ctx := context.Background()
	u, err := svc.Signup(ctx, "A", "a@x.com", "p1")
	require.NoError(t, err)
	res, err := svc.Login(ctx, "a@x.com", "p1")
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.User{}).Where("id = ?", u.ID).Update("is_active", false).Error)

	_, _, err = svc.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.Login(ctx, "a@x.com", "p1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_Authenticate_RejectsForeignTokens(t *testing.T) {
	t.Parallel()

	svc, _ := newTestAuthService(t)
	ctx := context.Background()
	_, err := svc.Signup(ctx, "A", "a@x.com", "p1")
	require.NoError(t, err)
	res, err := svc.Login(ctx, "a@x.com", "p1")
	require.NoError(t, err)

	other := *svc
	other.Secret = []byte("another-secret")
	_, _, err = other.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, _, err = svc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, ErrUnauthorized)
}
