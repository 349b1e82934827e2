package token

import (
	"context"
	"testing"
	"time"

	"github.com/tirehub/punchout-backend/pkg/config"
	"github.com/tirehub/punchout-backend/pkg/errors"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(config.TokenConfig{Key: "unit-test-key", TTL: 1800 * time.Second})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return svc
}

func TestIssueAndRedeemRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	token, err := svc.Issue(ctx, "cookie-abc-123")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	cookie, err := svc.Redeem(ctx, token)
	if err != nil {
		t.Fatalf("Redeem failed: %v", err)
	}
	if cookie != "cookie-abc-123" {
		t.Fatalf("expected original cookie, got %q", cookie)
	}
}

func TestIssueProducesUniqueTokens(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first, err := svc.Issue(ctx, "same-cookie")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	second, err := svc.Issue(ctx, "same-cookie")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if first == second {
		t.Fatal("tokens for the same cookie must not repeat")
	}
}

func TestRedeemExpiryWindow(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	issuedAt := time.Now()
	svc.now = func() time.Time { return issuedAt }

	token, err := svc.Issue(ctx, "cookie-exp")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	svc.now = func() time.Time { return issuedAt.Add(1799 * time.Second) }
	if _, err := svc.Redeem(ctx, token); err != nil {
		t.Fatalf("token should still be valid at 1799s: %v", err)
	}

	svc.now = func() time.Time { return issuedAt.Add(1801 * time.Second) }
	_, err = svc.Redeem(ctx, token)
	if err == nil {
		t.Fatal("expected expired token to be rejected")
	}
	if typed := errors.As(err); typed == nil || typed.Code() != errors.CodeUnauthorized {
		t.Fatalf("expected unauthorized code, got %v", err)
	}
}

func TestRedeemRejectsTampering(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	token, err := svc.Issue(ctx, "cookie-tamper")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	mutated := []byte(token)
	if mutated[len(mutated)-1] == 'A' {
		mutated[len(mutated)-1] = 'B'
	} else {
		mutated[len(mutated)-1] = 'A'
	}

	if _, err := svc.Redeem(ctx, string(mutated)); err == nil {
		t.Fatal("expected tampered token to be rejected")
	}
}

func TestRedeemRejectsForeignKey(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	other, err := NewService(config.TokenConfig{Key: "different-key", TTL: 1800 * time.Second})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}

	token, err := svc.Issue(ctx, "cookie-foreign")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := other.Redeem(ctx, token); err == nil {
		t.Fatal("expected token sealed under another key to be rejected")
	}
}
