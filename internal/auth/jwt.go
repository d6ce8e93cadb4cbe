package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"todorbac/internal/apperr"
)

type TokenType string

const (
	TypeAccess  TokenType = "access"
	TypeRefresh TokenType = "refresh"

	DefaultAccessTTL  = time.Hour
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// Only HS256 is accepted at parse time; "none" and asymmetric algorithms are refused.
var signingMethod = jwt.SigningMethodHS256

// Snapshot is the role/permission view embedded in a token at issuance.
type Snapshot struct {
	Roles       []string `json:"roles"`
	Permissions []string `json:"perms"`
}

type Claims struct {
	Type     TokenType `json:"typ"`
	Snapshot *Snapshot `json:"snap,omitempty"`
	// RefreshID is the jti of the refresh token minted alongside an access token.
	RefreshID string `json:"rid,omitempty"`
	jwt.RegisteredClaims
}

// TokenPair is the login/refresh response. ExpiresAt is the access token expiry.
type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	RefreshToken     string    `json:"refreshToken"`
	ExpiresAt        time.Time `json:"expiresAt"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}

type IssuerOptions struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// Denylist enables revocation; nil means tokens live until expiry.
	Denylist Denylist
	Now      func() time.Time
}

// Issuer mints and validates bearer tokens with one process-wide secret.
// Its fields are set once in NewIssuer and never mutated.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	deny       Denylist
	now        func() time.Time
}

func NewIssuer(secret []byte, opts IssuerOptions) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret is empty")
	}
	i := &Issuer{
		secret:     append([]byte(nil), secret...),
		accessTTL:  opts.AccessTTL,
		refreshTTL: opts.RefreshTTL,
		deny:       opts.Denylist,
		now:        opts.Now,
	}
	if i.accessTTL <= 0 {
		i.accessTTL = DefaultAccessTTL
	}
	if i.refreshTTL <= 0 {
		i.refreshTTL = DefaultRefreshTTL
	}
	if i.now == nil {
		i.now = time.Now
	}
	return i, nil
}

// RevocationEnabled reports whether Revoke has any effect.
func (i *Issuer) RevocationEnabled() bool { return i.deny != nil }

// Issue mints an access/refresh pair for userID. snap is embedded only in the
// access token; nil means authorization is resolved at check time.
func (i *Issuer) Issue(userID string, snap *Snapshot) (TokenPair, error) {
	if userID == "" {
		return TokenPair{}, apperr.New(apperr.KindValidation, "user id is required")
	}
	now := i.now()
	refreshID := uuid.NewString()
	access, accessExp, err := i.sign(Claims{Type: TypeAccess, Snapshot: snap, RefreshID: refreshID}, userID, uuid.NewString(), now, i.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, refreshExp, err := i.sign(Claims{Type: TypeRefresh}, userID, refreshID, now, i.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		ExpiresAt:        accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (i *Issuer) sign(claims Claims, userID, id string, now time.Time, ttl time.Duration) (string, time.Time, error) {
	iat := jwt.NewNumericDate(now)
	exp := jwt.NewNumericDate(iat.Add(ttl))
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   userID,
		ID:        id,
		IssuedAt:  iat,
		ExpiresAt: exp,
	}
	s, err := jwt.NewWithClaims(signingMethod, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, apperr.Internal(err)
	}
	return s, exp.Time, nil
}

// Validate checks an access token and returns the principal it asserts.
func (i *Issuer) Validate(ctx context.Context, token string) (Principal, error) {
	c, err := i.parse(ctx, token, TypeAccess)
	if err != nil {
		return Principal{}, err
	}
	return Principal{
		UserID:    c.Subject,
		TokenID:   c.ID,
		RefreshID: c.RefreshID,
		ExpiresAt: c.ExpiresAt.Time,
		Snapshot:  c.Snapshot,
	}, nil
}

// ValidateRefresh checks a refresh token. The returned principal never carries a snapshot.
func (i *Issuer) ValidateRefresh(ctx context.Context, token string) (Principal, error) {
	c, err := i.parse(ctx, token, TypeRefresh)
	if err != nil {
		return Principal{}, err
	}
	return Principal{UserID: c.Subject, TokenID: c.ID, ExpiresAt: c.ExpiresAt.Time}, nil
}

// Revoke denylists the token until its natural expiry. An access token also
// takes down the refresh token issued with it. Without a denylist it is a
// no-op and reports false.
func (i *Issuer) Revoke(ctx context.Context, p Principal) (bool, error) {
	if i.deny == nil || p.TokenID == "" {
		return false, nil
	}
	now := i.now()
	if err := i.denyUntil(ctx, p.TokenID, p.ExpiresAt, now); err != nil {
		return false, err
	}
	if p.RefreshID != "" {
		// both tokens of a pair share iat
		refreshExp := p.ExpiresAt.Add(i.refreshTTL - i.accessTTL)
		if err := i.denyUntil(ctx, p.RefreshID, refreshExp, now); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (i *Issuer) denyUntil(ctx context.Context, tokenID string, exp, now time.Time) error {
	ttl := exp.Sub(now)
	if ttl <= 0 {
		return nil
	}
	if err := i.deny.Deny(ctx, tokenID, ttl); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (i *Issuer) parse(ctx context.Context, raw string, want TokenType) (*Claims, error) {
	if raw == "" {
		return nil, apperr.New(apperr.KindUnauthenticated, "missing token")
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithTimeFunc(i.now),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	if err != nil {
		return nil, classify(err)
	}
	if claims.Subject == "" || claims.ID == "" || claims.Type != want {
		return nil, apperr.New(apperr.KindTokenMalformed, "unexpected token claims")
	}
	if i.deny != nil {
		denied, err := i.deny.Denied(ctx, claims.ID)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		if denied {
			return nil, apperr.New(apperr.KindUnauthenticated, "token revoked")
		}
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return apperr.Wrap(apperr.KindTokenExpired, "token expired", err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return apperr.Wrap(apperr.KindTokenSignatureInvalid, "invalid token signature", err)
	default:
		return apperr.Wrap(apperr.KindTokenMalformed, "malformed token", err)
	}
}
