package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the payload carried by bearer tokens.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Subject returns the profile id the token was issued for.
func (c *Claims) Subject() (uuid.UUID, error) {
	return uuid.Parse(c.UserID)
}

// TokenService issues and decodes signed, time-limited bearer tokens.
type TokenService struct {
	secret []byte
	method jwt.SigningMethod
	now    func() time.Time
}

// TokenOption customises a TokenService.
type TokenOption func(*TokenService)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewTokenService builds a TokenService signing with secret using an HMAC
// algorithm such as HS256.
func NewTokenService(secret, algorithm string, opts ...TokenOption) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("token secret must not be empty")
	}
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}

	s := &TokenService{
		secret: []byte(secret),
		method: method,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Now returns the service clock's current time.
func (s *TokenService) Now() time.Time {
	return s.now()
}

// Issue signs a token for userID valid for validity from now. The returned
// claims carry the exact issue and expiry instants that were encoded.
//
// Token timestamps have whole-second precision, so a validity that is not a
// whole number of seconds is rounded up to the next second.
func (s *TokenService) Issue(userID uuid.UUID, validity time.Duration) (string, *Claims, error) {
	if validity <= 0 {
		return "", nil, fmt.Errorf("token validity must be positive, got %s", validity)
	}
	validity = ceilSecond(validity)

	issuedAt := s.now().Truncate(time.Second)
	claims := &Claims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(validity)),
		},
	}

	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims, nil
}

func ceilSecond(d time.Duration) time.Duration {
	whole := d.Truncate(time.Second)
	if whole < d {
		whole += time.Second
	}
	return whole
}

// Decode verifies tokenString and returns its claims.
//
// A token whose signature verifies but whose expiry is not after now yields
// ErrExpiredToken together with the decoded claims. Anything else that fails
// yields ErrInvalidToken and nil claims.
func (s *TokenService) Decode(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) && !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			if _, subErr := claims.Subject(); subErr != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidToken, subErr)
			}
			return claims, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if _, err := claims.Subject(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
