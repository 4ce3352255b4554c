package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// BearerClaims: Subject is the user id, ID is the stored token row id.
type BearerClaims struct {
	jwt.RegisteredClaims
}

// SignBearer is deterministic for the same inputs, so a stored token row can
// be turned back into the exact string that was handed out.
func SignBearer(secret []byte, userID, tokenID uuid.UUID, issuedAt time.Time, ttl time.Duration) (string, error) {
	claims := BearerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  userID.String(),
			ID:       tokenID.String(),
			IssuedAt: jwt.NewNumericDate(issuedAt.Truncate(time.Second)),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(issuedAt.Truncate(time.Second).Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func BearerClaimsFromToken(tokenStr string, secret []byte) (*BearerClaims, error) {
	var claims BearerClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected sign method")
		}
		return secret, nil
	})
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if !tkn.Valid {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

// IDs parses subject and jti back into uuids.
func (c *BearerClaims) IDs() (userID, tokenID uuid.UUID, err error) {
	userID, err = uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, uuid.Nil, ErrInvalidToken
	}
	tokenID, err = uuid.Parse(c.ID)
	if err != nil {
		return uuid.Nil, uuid.Nil, ErrInvalidToken
	}
	return userID, tokenID, nil
}
