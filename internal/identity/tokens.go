package identity

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	audienceVerify  = "verify_email"
	audienceSession = "session"
)

// EncodeUID renders a user id the way it appears in verification links.
func EncodeUID(id int64) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.FormatInt(id, 10)))
}

func DecodeUID(s string) (int64, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return 0, fmt.Errorf("decode uid: %w", err)
	}
	id, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("decode uid: not a user id")
	}
	return id, nil
}

// Tokens issues and checks e-mail verification tokens. A token stays valid
// until it expires, so following the same link twice is harmless.
type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (t *Tokens) Issue(userID int64) (string, error) {
	now := t.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		Audience:  jwt.ClaimStrings{audienceVerify},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func (t *Tokens) Check(userID int64, token string) error {
	_, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, t.key,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audienceVerify),
		jwt.WithSubject(strconv.FormatInt(userID, 10)),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	return err
}

func (t *Tokens) key(*jwt.Token) (any, error) { return t.secret, nil }
