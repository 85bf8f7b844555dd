package utils

import (
	"errors"
	"testing"
	"time"
)

func TestJWT_RoundTrip(t *testing.T) {
	token, exp, err := GenerateJWT("secret", 42, "ops@example.com", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Error("expiry should be in the future")
	}

	claims, err := ValidateJWT("secret", token)
	if err != nil {
		t.Fatalf("ValidateJWT: %v", err)
	}
	if claims.AdminID != 42 || claims.Email != "ops@example.com" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestJWT_Rejects(t *testing.T) {
	valid, _, _ := GenerateJWT("secret", 1, "a@b.c", time.Hour)
	expired, _, _ := GenerateJWT("secret", 1, "a@b.c", -time.Minute)

	tests := []struct {
		name   string
		secret string
		token  string
	}{
		{"wrong secret", "other", valid},
		{"expired", "secret", expired},
		{"garbage", "secret", "not.a.token"},
		{"empty", "secret", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ValidateJWT(tt.secret, tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}
