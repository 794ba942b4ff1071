package security

import (
	"strconv"                       // Subject encoding
	"time"                          // Token expiration
	"wallet_ledger/internal/domain" // Error sentinels

	"github.com/golang-jwt/jwt/v5" // JWT library
)

// ErrInvalidCredential is returned for every token that must not be trusted,
// whatever the reason it failed validation.
var ErrInvalidCredential = domain.ErrInvalidCredential

// Token kinds carried in the typ claim
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// Claims is the signed payload of both token kinds
type Claims struct {
	Kind                 string `json:"typ"` // access or refresh
	jwt.RegisteredClaims        // sub, iat, exp
}

// TokenPair is the result of a successful issue
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	IssuedAt         time.Time
	ExpiresAt        time.Time // Access token expiry
	RefreshExpiresAt time.Time
}

// TokenService issues and validates HS256 bearer tokens
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenService creates a token service signing with secret
func NewTokenService(secret string, accessTTL, refreshTTL time.Duration) *TokenService {
	return &TokenService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// WithClock replaces the time source, used by tests to move past expiry
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	s.now = now
	return s
}

// AccessTTL is the configured access token lifetime
func (s *TokenService) AccessTTL() time.Duration {
	return s.accessTTL
}

// Issue creates an access/refresh pair for the given subject
func (s *TokenService) Issue(subjectID uint) (*TokenPair, error) {
	issuedAt := s.now().UTC().Truncate(time.Second) // JWT NumericDate has second precision
	access, err := s.sign(subjectID, KindAccess, issuedAt, issuedAt.Add(s.accessTTL))
	if err != nil {
		return nil, err
	}
	refresh, err := s.sign(subjectID, KindRefresh, issuedAt, issuedAt.Add(s.refreshTTL))
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		IssuedAt:         issuedAt,
		ExpiresAt:        issuedAt.Add(s.accessTTL),
		RefreshExpiresAt: issuedAt.Add(s.refreshTTL),
	}, nil
}

// Validate returns the subject of a valid access token
func (s *TokenService) Validate(token string) (uint, error) {
	return s.validate(token, KindAccess)
}

// ValidateRefresh returns the subject of a valid refresh token
func (s *TokenService) ValidateRefresh(token string) (uint, error) {
	return s.validate(token, KindRefresh)
}

func (s *TokenService) sign(subjectID uint, kind string, issuedAt, expiresAt time.Time) (string, error) {
	claims := Claims{
		Kind: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(subjectID), 10),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims) // Create token with claims
	return token.SignedString(s.secret)                        // Sign the token with the secret
}

func (s *TokenService) validate(tokenStr, kind string) (uint, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid || claims.Kind != kind {
		return 0, ErrInvalidCredential
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidCredential
	}
	return uint(id), nil
}
