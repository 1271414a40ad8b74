package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("s1-setup-please")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=3,p=1$") {
		t.Errorf("hash = %q, want argon2id PHC prefix", hash)
	}

	for _, tc := range []struct {
		password string
		want     bool
	}{
		{"s1-setup-please", true},
		{"s1-setup-pleasE", false},
		{"", false},
	} {
		ok, err := VerifyPassword(tc.password, hash)
		if err != nil {
			t.Fatalf("VerifyPassword(%q): %v", tc.password, err)
		}
		if ok != tc.want {
			t.Errorf("VerifyPassword(%q) = %v, want %v", tc.password, ok, tc.want)
		}
	}
}

func TestHashPasswordSaltsDiffer(t *testing.T) {
	a, _ := HashPassword("same")
	b, _ := HashPassword("same")
	if a == b {
		t.Error("two hashes of one password are identical")
	}
}

func TestVerifyPasswordMalformed(t *testing.T) {
	for name, hash := range map[string]string{
		"empty":           "",
		"plain":           "hunter2",
		"bcrypt":          "$bcrypt$v=19$m=65536,t=3,p=1$c2FsdA$aGFzaA",
		"truncated":       "$argon2id$v=19$m=65536,t=3,p=1",
		"future version":  "$argon2id$v=20$m=65536,t=3,p=1$c2FsdA$aGFzaA",
		"bad salt base64": "$argon2id$v=19$m=65536,t=3,p=1$!!!$aGFzaA",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := VerifyPassword("pw", hash)
			if !errors.Is(err, errMalformedHash) {
				t.Errorf("err = %v, want errMalformedHash", err)
			}
		})
	}
}
