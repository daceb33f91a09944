// Package token issues and verifies the signed credentials that let the
// external editor origin call load/save/publish endpoints without a full
// authenticated session.
//
// Context
// -------
// Three variants share one HS256 signing key and are discriminated by a
// `type` claim: the single-purpose editor-access token (24 h, scoped to
// exactly one {user, site, page}), and the general API pair (access ~15 m,
// refresh ~7 d).  Verify checks signature, expiry, the type tag, and the
// revocation denylist—nothing else.  Token validity is deliberately not an
// authorization decision: after Verify succeeds the caller must still
// confirm the page belongs to the site and the site to the claimed user.
//
// Revocation keys the raw token string into a denylist (the shared cache
// layer under `revoked_token:`, or an in-process fallback) with a TTL equal
// to the token's remaining life.
//
// The signing key is validated at construction; a short or missing key is a
// boot failure, never a per-request surprise.
package token

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pagemade/pagemade/internal/metrics"
)

// Token type tags.
const (
	TypeEditor  = "editor_access"
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// Default lifetimes.
const (
	DefaultEditorTTL  = 24 * time.Hour
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour

	minKeyLen = 32
)

// Sentinel verification errors.
var (
	ErrInvalid   = errors.New("token invalid")
	ErrExpired   = errors.New("token expired")
	ErrRevoked   = errors.New("token revoked")
	ErrWrongType = errors.New("token type mismatch")
)

// Claims is the signed payload carried by every token variant.
type Claims struct {
	UserID    uint64 `json:"user_id"`
	SiteID    uint64 `json:"site_id,omitempty"`
	PageID    uint64 `json:"page_id,omitempty"`
	TokenType string `json:"type"`
	jwt.RegisteredClaims
}

// Denylist is the revocation store.  *pagecache.Client satisfies it.
type Denylist interface {
	RevokeToken(ctx context.Context, token string, ttl time.Duration)
	TokenRevoked(ctx context.Context, token string) bool
}

// Service signs and verifies tokens.  Safe for concurrent use.
type Service struct {
	key  []byte
	deny Denylist

	editorTTL  time.Duration
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// Options tunes lifetimes; zero values use the documented defaults.
type Options struct {
	EditorTTL  time.Duration
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// New constructs a Service.  The signing key must be at least 32 bytes —
// anything shorter is a configuration error worth failing the boot for.  A
// nil denylist falls back to an in-process store, which is fine for a
// single instance and for tests.
func New(signingKey string, deny Denylist, opts Options) (*Service, error) {
	if len(signingKey) < minKeyLen {
		return nil, fmt.Errorf("token: signing key must be at least %d bytes, got %d",
			minKeyLen, len(signingKey))
	}
	if deny == nil {
		deny = newLocalDenylist()
	}

	s := &Service{
		key:        []byte(signingKey),
		deny:       deny,
		editorTTL:  opts.EditorTTL,
		accessTTL:  opts.AccessTTL,
		refreshTTL: opts.RefreshTTL,
	}
	if s.editorTTL <= 0 {
		s.editorTTL = DefaultEditorTTL
	}
	if s.accessTTL <= 0 {
		s.accessTTL = DefaultAccessTTL
	}
	if s.refreshTTL <= 0 {
		s.refreshTTL = DefaultRefreshTTL
	}
	return s, nil
}

// IssueEditor mints the page-scoped editor-access token.
func (s *Service) IssueEditor(userID, siteID, pageID uint64) (string, error) {
	tok, err := s.issue(Claims{
		UserID:    userID,
		SiteID:    siteID,
		PageID:    pageID,
		TokenType: TypeEditor,
	}, s.editorTTL)
	if err == nil {
		metrics.EditorTokensIssued.Inc()
	}
	return tok, err
}

// IssueAccess mints a short-lived general API token.
func (s *Service) IssueAccess(userID uint64) (string, error) {
	return s.issue(Claims{UserID: userID, TokenType: TypeAccess}, s.accessTTL)
}

// IssueRefresh mints the long-lived refresh token.
func (s *Service) IssueRefresh(userID uint64) (string, error) {
	return s.issue(Claims{UserID: userID, TokenType: TypeRefresh}, s.refreshTTL)
}

func (s *Service) issue(c Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	c.IssuedAt = jwt.NewNumericDate(now)
	c.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := t.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature, expiry, type tag, and the denylist.  wantType is
// one of the Type* constants.
func (s *Service) Verify(ctx context.Context, raw, wantType string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.key, nil
	})
	if err != nil {
		metrics.TokenVerifyFailures.Inc()
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}

	if claims.TokenType != wantType {
		metrics.TokenVerifyFailures.Inc()
		return nil, ErrWrongType
	}
	if s.deny.TokenRevoked(ctx, raw) {
		metrics.TokenVerifyFailures.Inc()
		return nil, ErrRevoked
	}
	return &claims, nil
}

// Revoke denylists a raw token string for its remaining lifetime.  Already
// expired or unparsable tokens are ignored; their own expiry rejects them.
func (s *Service) Revoke(ctx context.Context, raw string) {
	var claims Claims
	// Signature still matters (an attacker must not be able to poison the
	// denylist with garbage), expiry deliberately does not.
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.key, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil || claims.ExpiresAt == nil {
		return
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining <= 0 {
		return
	}
	s.deny.RevokeToken(ctx, raw, remaining)
}

//
// In-process denylist fallback
//

type localDenylist struct {
	mu sync.Mutex
	m  map[string]time.Time
}

func newLocalDenylist() *localDenylist {
	return &localDenylist{m: make(map[string]time.Time)}
}

func (l *localDenylist) RevokeToken(_ context.Context, token string, ttl time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.m[token] = time.Now().Add(ttl)
	// Opportunistic sweep; the map only ever holds unexpired revocations.
	for k, exp := range l.m {
		if time.Now().After(exp) {
			delete(l.m, k)
		}
	}
}

func (l *localDenylist) TokenRevoked(_ context.Context, token string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	exp, ok := l.m[token]
	if !ok {
		return false
	}
	if time.Now().After(exp) {
		delete(l.m, token)
		return false
	}
	return true
}
