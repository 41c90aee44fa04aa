package authcore

import (
	"strings"
	"testing"
	"time"
)

func TestVerifyEmailBody(t *testing.T) {
	cfg := MailConfig{
		AppName:       "demo",
		VerifyLinkURL: "https://example.com/verify/",
	}

	body := verifyEmailBody(cfg, "tok-abc", 5*time.Minute)
	if !strings.Contains(body, "https://example.com/verify/tok-abc") {
		t.Fatalf("body missing verification link:\n%s", body)
	}
	if !strings.Contains(body, "5 minutes") {
		t.Fatalf("body missing TTL:\n%s", body)
	}
	if !strings.Contains(body, "demo") {
		t.Fatalf("body missing app name:\n%s", body)
	}
}

func TestVerifyEmailBodyWithoutLinkBase(t *testing.T) {
	// Token-only deployments hand the raw token to the recipient.
	body := verifyEmailBody(MailConfig{AppName: "demo"}, "tok-abc", time.Minute)
	if !strings.Contains(body, "tok-abc") {
		t.Fatalf("body missing token:\n%s", body)
	}
}

func TestOTPEmailBody(t *testing.T) {
	body := otpEmailBody(MailConfig{AppName: "demo"}, "482916", 5*time.Minute)
	if !strings.Contains(body, "Verification Code: 482916") {
		t.Fatalf("body missing code:\n%s", body)
	}
	if !strings.Contains(body, "5 minutes") {
		t.Fatalf("body missing TTL:\n%s", body)
	}
}
