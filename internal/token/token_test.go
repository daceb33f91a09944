// internal/token/token_test.go
//
// Unit-tests for the token service: issue/verify roundtrips, the type
// discriminator, expiry, tampering, and revocation.

package token

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testKey = "0123456789abcdef0123456789abcdef" // 32 bytes

func newService(t *testing.T) *Service {
	t.Helper()
	s, err := New(testKey, nil, Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestNew_RejectsShortKey(t *testing.T) {
	if _, err := New("too-short", nil, Options{}); err == nil {
		t.Fatalf("short signing key accepted")
	}
}

func TestEditorTokenRoundtrip(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	raw, err := s.IssueEditor(3, 7, 42)
	if err != nil {
		t.Fatalf("IssueEditor: %v", err)
	}

	claims, err := s.Verify(ctx, raw, TypeEditor)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.UserID != 3 || claims.SiteID != 7 || claims.PageID != 42 {
		t.Fatalf("claims mangled: %+v", claims)
	}
	if claims.TokenType != TypeEditor {
		t.Fatalf("type = %q, want %q", claims.TokenType, TypeEditor)
	}
}

func TestVerify_WrongType(t *testing.T) {
	s := newService(t)

	raw, _ := s.IssueAccess(3)
	if _, err := s.Verify(context.Background(), raw, TypeRefresh); !errors.Is(err, ErrWrongType) {
		t.Fatalf("err = %v, want ErrWrongType", err)
	}
}

func TestVerify_Tampered(t *testing.T) {
	s := newService(t)

	raw, _ := s.IssueAccess(3)
	tampered := raw + "x" // corrupt the signature segment
	if _, err := s.Verify(context.Background(), tampered, TypeAccess); !errors.Is(err, ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
}

func TestVerify_Expired(t *testing.T) {
	s := newService(t)

	// Hand-sign a token whose expiry is already past; issue() won't mint
	// one.
	c := Claims{UserID: 3, TokenType: TypeAccess}
	c.IssuedAt = jwt.NewNumericDate(time.Now().Add(-2 * time.Hour))
	c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte(testKey))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := s.Verify(context.Background(), raw, TypeAccess); !errors.Is(err, ErrExpired) {
		t.Fatalf("err = %v, want ErrExpired", err)
	}
}

func TestVerify_RejectsNonHMAC(t *testing.T) {
	s := newService(t)

	// alg=none tokens must never verify, whatever the payload says.
	raw, err := jwt.NewWithClaims(jwt.SigningMethodNone,
		Claims{UserID: 3, TokenType: TypeAccess}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := s.Verify(context.Background(), raw, TypeAccess); !errors.Is(err, ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
}

func TestRevoke(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	raw, _ := s.IssueEditor(3, 7, 42)
	if _, err := s.Verify(ctx, raw, TypeEditor); err != nil {
		t.Fatalf("pre-revocation verify: %v", err)
	}

	s.Revoke(ctx, raw)
	if _, err := s.Verify(ctx, raw, TypeEditor); !errors.Is(err, ErrRevoked) {
		t.Fatalf("err = %v, want ErrRevoked", err)
	}

	// A sibling token stays valid.
	other, _ := s.IssueEditor(4, 8, 43)
	if _, err := s.Verify(ctx, other, TypeEditor); err != nil {
		t.Fatalf("unrelated token rejected: %v", err)
	}
}

func TestRevoke_GarbageIgnored(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	// Unsigned garbage must not poison the denylist.
	s.Revoke(ctx, "not.a.token")
	s.Revoke(ctx, strings.Repeat("x", 64))

	raw, _ := s.IssueAccess(3)
	if _, err := s.Verify(ctx, raw, TypeAccess); err != nil {
		t.Fatalf("verify after garbage revokes: %v", err)
	}
}
