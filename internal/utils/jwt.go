package utils // package utils provides token issuing/verification and password hashing

import (
	"errors" // errors classifies parser failures
	"time"   // time computes issuance and expiry

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
)

// AccessTokenTTL is the fixed validity window of every access token.
const AccessTokenTTL = 24 * time.Hour

var (
	// ErrInvalidToken covers malformed tokens, bad signatures, unexpected
	// algorithms, missing subjects and tokens issued in the future.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned once the expiry instant has passed.
	ErrExpiredToken = errors.New("token expired")
)

// AccessToken represents a signed JWT access token along with its issuance
// and expiry instants.  The Token field is the string sent in the
// Authorization header.
type AccessToken struct {
	Token    string    // the serialized JWT string
	IssuedAt time.Time // the UTC issuance time
	Exp      time.Time // the UTC expiration time
}

// TokenService signs and verifies HS256 access tokens.  The secret is set
// once at construction and only read afterwards, so one value is shared by
// every request goroutine.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

// NewTokenService builds a TokenService for the given signing secret.
func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret), now: time.Now}
}

// WithClock returns a copy of s that reads time from now.  Tests use it to
// move across the expiry boundary.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	return &TokenService{secret: s.secret, now: now}
}

// Issue builds and signs a token for the identity userID.  The claims are
// the standard subject (sub), issued at (iat) and expiration (exp); exp is
// exactly AccessTokenTTL after iat.  Signing touches no storage.
func (s *TokenService) Issue(userID string) (AccessToken, error) {
	if userID == "" {
		return AccessToken{}, errors.New("issue token: empty subject")
	}
	// Claims carry whole seconds, so truncate before deriving exp to keep
	// the window exact.
	iat := s.now().UTC().Truncate(time.Second)
	exp := iat.Add(AccessTokenTTL)

	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(iat),
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, IssuedAt: iat, Exp: exp}, nil
}

// Verify parses raw, checks the signature and time bounds, and returns the
// subject id.  Failures are ErrExpiredToken when only the expiry check
// failed and ErrInvalidToken otherwise.
func (s *TokenService) Verify(raw string) (string, error) {
	var claims jwt.RegisteredClaims
	tok, err := jwt.ParseWithClaims(raw, &claims,
		func(t *jwt.Token) (interface{}, error) {
			// Reject anything that is not HMAC before handing out the key.
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) && !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}
	if !tok.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
