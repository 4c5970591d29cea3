package auth

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenMalformed is returned when a token cannot be parsed or its
	// signature does not verify.
	ErrTokenMalformed = errors.New("token is malformed or has an invalid signature")

	// ErrTokenExpired is returned when a token is past its validity window.
	ErrTokenExpired = errors.New("token has expired")
)

// Claims carries the verified contents of a bearer token.
type Claims struct {
	SubjectID int
	IssuedAt  time.Time
}

// TokenService signs and verifies compact bearer tokens. Verification is a
// pure cryptographic check against the shared secret; freshness against
// account state is the middleware's concern.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue signs a token carrying the subject id and the current issue time.
// The expiry claim is derived from the configured validity window.
func (s *TokenService) Issue(subjectID int) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(subjectID),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify parses and validates the token, returning its claims. It fails with
// ErrTokenExpired past the validity window and ErrTokenMalformed otherwise.
func (s *TokenService) Verify(tokenString string) (Claims, error) {
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrTokenExpired
		}
		return Claims{}, ErrTokenMalformed
	}
	if !token.Valid {
		return Claims{}, ErrTokenMalformed
	}

	subjectID, err := strconv.Atoi(strings.TrimSpace(claims.Subject))
	if err != nil || subjectID < 1 {
		return Claims{}, ErrTokenMalformed
	}
	if claims.IssuedAt == nil {
		return Claims{}, ErrTokenMalformed
	}

	return Claims{
		SubjectID: subjectID,
		IssuedAt:  claims.IssuedAt.Time,
	}, nil
}
