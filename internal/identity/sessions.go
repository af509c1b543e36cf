package identity

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is what the session cookie says about the logged in user.
type Session struct {
	UserID     int64  `json:"user_id"`
	CustomerID int64  `json:"customer_id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	IsStaff    bool   `json:"is_staff"`
}

type sessionClaims struct {
	CustomerID int64  `json:"cid"`
	Username   string `json:"usr"`
	Email      string `json:"email"`
	Staff      bool   `json:"staff,omitempty"`
	jwt.RegisteredClaims
}

type Sessions struct {
	secret []byte
	ttl    time.Duration
}

func NewSessions(secret string, ttl time.Duration) *Sessions {
	return &Sessions{secret: []byte(secret), ttl: ttl}
}

func (s *Sessions) TTL() time.Duration { return s.ttl }

func (s *Sessions) Issue(u *User, c *Customer) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		CustomerID: c.ID,
		Username:   u.Username,
		Email:      u.Email,
		Staff:      u.IsStaff,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			Audience:  jwt.ClaimStrings{audienceSession},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Sessions) Parse(token string) (*Session, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audienceSession),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, err
	}
	uid, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, err
	}
	return &Session{
		UserID:     uid,
		CustomerID: claims.CustomerID,
		Username:   claims.Username,
		Email:      claims.Email,
		IsStaff:    claims.Staff,
	}, nil
}
