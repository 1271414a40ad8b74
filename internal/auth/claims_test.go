package auth

import (
	"errors"
	"testing"
	"time"
)

const testSecret = "a-test-secret-that-is-long-enough-for-hs256"

func TestAccessTokenRoundTrip(t *testing.T) {
	op := &Operator{ID: "op-1", Username: "noc", Role: RoleOperator}
	tok, err := IssueAccessToken(op, testSecret, 15*time.Minute, time.Now())
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	claims, err := ParseAccessToken(tok, testSecret)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.Subject != "op-1" || claims.Username != "noc" || claims.Role != RoleOperator {
		t.Errorf("claims = %+v", claims)
	}
	if claims.ID == "" {
		t.Error("jti is empty")
	}
}

func TestParseAccessTokenRejects(t *testing.T) {
	op := &Operator{ID: "op-1", Role: RoleViewer}

	expired, _ := IssueAccessToken(op, testSecret, time.Minute, time.Now().Add(-time.Hour))
	if _, err := ParseAccessToken(expired, testSecret); !errors.Is(err, ErrTokenExpired) {
		t.Errorf("expired: err = %v, want ErrTokenExpired", err)
	}

	valid, _ := IssueAccessToken(op, testSecret, time.Minute, time.Now())
	if _, err := ParseAccessToken(valid, "some-other-secret"); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("wrong secret: err = %v, want ErrTokenInvalid", err)
	}

	bad, _ := IssueAccessToken(&Operator{ID: "op-2", Role: "root"}, testSecret, time.Minute, time.Now())
	if _, err := ParseAccessToken(bad, testSecret); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("unknown role: err = %v, want ErrTokenInvalid", err)
	}

	if _, err := ParseAccessToken("not.a.jwt", testSecret); !errors.Is(err, ErrTokenInvalid) {
		t.Errorf("garbage: err = %v, want ErrTokenInvalid", err)
	}
}
