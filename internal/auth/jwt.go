package auth

import (
	"errors"
	"slices"
	"time"

	"cms-portal/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const clockSkew = 30 * time.Second

var (
	ErrRefreshWindowClosed = errors.New("refresh window closed")
	ErrMalformedClaims     = errors.New("malformed claims")
)

type Manager struct {
	secret        []byte
	issuer        string
	audience      string
	accessTTL     time.Duration
	refreshWindow time.Duration
}

func NewManager(cfg config.AuthConfig) (*Manager, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.AccessTokenTTL <= 0 || cfg.RefreshWindow <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}

	return &Manager{
		secret:        []byte(cfg.JWTSecret),
		issuer:        cfg.JWTIssuer,
		audience:      cfg.JWTAudience,
		accessTTL:     cfg.AccessTokenTTL,
		refreshWindow: cfg.RefreshWindow,
	}, nil
}

// Identity is what a token vouches for.
type Identity struct {
	UserID   string
	Username string
	Role     string
}

/* ===================== ISSUE ===================== */

func (m *Manager) Issue(now time.Time, id Identity) (string, error) {
	if id.UserID == "" || id.Role == "" {
		return "", ErrMalformedClaims
	}
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   id.UserID,
			Audience:  audienceOrNil(m.audience),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
			ID:        uuid.NewString(),
		},
		UserID:   id.UserID,
		Username: id.Username,
		Role:     id.Role,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.secret)
}

/* ===================== VERIFY ===================== */

// Verify accepts a token on regular endpoints: signature, issuer, audience and
// expiry all have to hold at now.
func (m *Manager) Verify(tokenString string, now time.Time) (Claims, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		return Claims{}, err
	}

	opts := []jwt.ValidatorOption{
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(clockSkew),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	if m.audience != "" {
		opts = append(opts, jwt.WithAudience(m.audience))
	}
	if err := jwt.NewValidator(opts...).Validate(claims.RegisteredClaims); err != nil {
		return Claims{}, err
	}
	return claims, checkIdentity(claims)
}

// VerifyForRefresh accepts an expired token as long as it was issued within
// the refresh window. Signature, issuer and audience are still enforced.
func (m *Manager) VerifyForRefresh(tokenString string, now time.Time) (Claims, error) {
	claims, err := m.parse(tokenString)
	if err != nil {
		return Claims{}, err
	}
	if m.issuer != "" && claims.Issuer != m.issuer {
		return Claims{}, jwt.ErrTokenInvalidIssuer
	}
	if m.audience != "" && !slices.Contains(claims.Audience, m.audience) {
		return Claims{}, jwt.ErrTokenInvalidAudience
	}
	if claims.IssuedAt == nil {
		return Claims{}, jwt.ErrTokenRequiredClaimMissing
	}
	iat := claims.IssuedAt.Time
	if iat.After(now.Add(clockSkew)) {
		return Claims{}, jwt.ErrTokenUsedBeforeIssued
	}
	if !now.Before(iat.Add(m.refreshWindow)) {
		return Claims{}, ErrRefreshWindowClosed
	}
	return claims, checkIdentity(claims)
}

// Refresh exchanges a token that is still inside its refresh window for a new one.
func (m *Manager) Refresh(tokenString string, now time.Time) (string, Claims, error) {
	claims, err := m.VerifyForRefresh(tokenString, now)
	if err != nil {
		return "", Claims{}, err
	}
	tok, err := m.Issue(now, Identity{UserID: claims.UserID, Username: claims.Username, Role: claims.Role})
	return tok, claims, err
}

/* ===================== INTERNAL ===================== */

func (m *Manager) parse(tokenString string) (Claims, error) {
	var claims Claims
	// Time-based claims are validated by the callers, each with its own rules.
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	_, err := parser.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return Claims{}, err
	}
	return claims, nil
}

func checkIdentity(c Claims) error {
	if c.UserID == "" || c.Role == "" {
		return ErrMalformedClaims
	}
	return nil
}

func audienceOrNil(aud string) jwt.ClaimStrings {
	if aud == "" {
		return nil
	}
	return jwt.ClaimStrings{aud}
}
