package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storepanel/internal/events"
	"github.com/Skotchmaster/storepanel/internal/models"
	"github.com/Skotchmaster/storepanel/internal/repo"
	pkghash "github.com/Skotchmaster/storepanel/pkg/hash"
	"github.com/Skotchmaster/storepanel/pkg/logging"
	"github.com/Skotchmaster/storepanel/pkg/tokens"
)

var loginCounter, _ = otel.Meter("github.com/Skotchmaster/storepanel/internal/service").
	Int64Counter("storepanel.auth.logins", metric.WithDescription("Login attempts by result"))

type AuthService struct {
	Repo     *repo.GormRepo
	Secret   []byte
	TokenTTL time.Duration
	Events   events.Publisher
	Now      func() time.Time
}

type LoginResult struct {
	Token string
	User  *models.User
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *AuthService) Signup(ctx context.Context, name, email, password string) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.signup")

	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)
	f := fieldErrors{}
	if name == "" {
		f.add("name", msgRequired)
	}
	if email == "" {
		f.add("email", msgRequired)
	}
	if password == "" {
		f.add("password", msgRequired)
	} else {
		checkPassword(f, "password", password)
	}
	if err := f.err(); err != nil {
		return nil, err
	}

	pwHash, err := pkghash.HashPassword(password)
	if err != nil {
		l.Error("signup_error", "reason", "cannot hash the password", "error", err)
		return nil, err
	}
	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: pwHash,
		Role:         models.RoleStaff,
		IsActive:     true,
	}
	if err := s.Repo.CreateUserIfNotExists(ctx, user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExist) {
			return nil, Invalid("email", msgEmailTaken)
		}
		l.Error("signup_error", "reason", "cannot create user", "error", err)
		return nil, err
	}

	s.publish(ctx, "auth.signed_up", user.ID)
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password required", ErrValidation)
	}

	user, err := s.Repo.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Spend the same bcrypt time as a real check.
			pkghash.CheckPassword(dummyHash(), password)
			s.countLogin(ctx, "rejected")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !pkghash.CheckPassword(user.PasswordHash, password) || !user.IsActive {
		s.countLogin(ctx, "rejected")
		return nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	s.countLogin(ctx, "ok")
	s.publish(ctx, "auth.logged_in", user.ID)
	return &LoginResult{Token: token, User: user}, nil
}

// issueToken returns the user's live token, minting one when there is none
// or it has expired.
func (s *AuthService) issueToken(ctx context.Context, userID uuid.UUID) (string, error) {
	now := s.now()

	tok, err := s.Repo.FindTokenByUser(ctx, userID)
	switch {
	case err == nil && !tok.Expired(now, s.TokenTTL):
		return s.reuse(ctx, tok)
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return "", err
	}

	fresh := &models.AuthToken{ID: uuid.New(), UserID: userID, CreatedAt: now.Truncate(time.Second)}
	raw, err := tokens.SignBearer(s.Secret, userID, fresh.ID, fresh.CreatedAt, s.TokenTTL)
	if err != nil {
		return "", err
	}
	fresh.KeyHash = pkghash.Sha256Hex(raw)

	if err := s.Repo.ReplaceToken(ctx, fresh); err != nil {
		if !errors.Is(err, repo.ErrDuplicate) {
			return "", err
		}
		// A parallel login stored its token first; hand out that one.
		tok, err := s.Repo.FindTokenByUser(ctx, userID)
		if err != nil {
			return "", err
		}
		return s.reuse(ctx, tok)
	}
	return raw, nil
}

func (s *AuthService) reuse(ctx context.Context, tok *models.AuthToken) (string, error) {
	raw, err := tokens.SignBearer(s.Secret, tok.UserID, tok.ID, tok.CreatedAt, s.TokenTTL)
	if err != nil {
		return "", err
	}
	// The secret or TTL changed since the row was written.
	if h := pkghash.Sha256Hex(raw); h != tok.KeyHash {
		if err := s.Repo.UpdateTokenHash(ctx, tok.ID, h); err != nil {
			return "", err
		}
	}
	return raw, nil
}

// Authenticate resolves a bearer token to its active user.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (*models.User, *models.AuthToken, error) {
	claims, err := tokens.BearerClaimsFromToken(raw, s.Secret)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	userID, tokenID, err := claims.IDs()
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	tok, err := s.Repo.GetToken(ctx, tokenID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: token revoked", ErrUnauthorized)
		}
		return nil, nil, err
	}
	if tok.UserID != userID || tok.KeyHash != pkghash.Sha256Hex(raw) || tok.Expired(s.now(), s.TokenTTL) {
		return nil, nil, fmt.Errorf("%w: token mismatch", ErrUnauthorized)
	}

	user, err := s.Repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: user gone", ErrUnauthorized)
		}
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, fmt.Errorf("%w: user inactive", ErrUnauthorized)
	}
	return user, tok, nil
}

// Logout revokes the token; the next login mints a new one.
func (s *AuthService) Logout(ctx context.Context, tokenID uuid.UUID) error {
	if err := s.Repo.DeleteToken(ctx, tokenID); err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}

func (s *AuthService) publish(ctx context.Context, typ string, userID uuid.UUID) {
	if s.Events == nil {
		return
	}
	ev := events.Event{Type: typ, ID: userID, Actor: &userID, OccurredAt: s.now()}
	if err := s.Events.PublishEvent(ctx, events.Topic("auth"), userID.String(), ev); err != nil {
		logging.FromContext(ctx).Warn("publish_event_failed", "type", typ, "error", err)
	}
}

func (s *AuthService) countLogin(ctx context.Context, result string) {
	loginCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

var (
	dummyOnce sync.Once
	dummy     string
)

func dummyHash() string {
	dummyOnce.Do(func() {
		dummy, _ = pkghash.HashPassword(uuid.NewString())
	})
	return dummy
}
