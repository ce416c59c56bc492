package signature

import (
	"strings"
	"testing"
)

func TestSignAndVerify(t *testing.T) {
	secret := "webhook-secret"
	body := []byte(`{"user_id":"abc","amount":10,"reference":"tx-1"}`)

	sig := Sign(secret, body)
	if !Verify(secret, body, sig) {
		t.Fatal("signature should verify against its own body")
	}
}

func TestVerify_CaseInsensitive(t *testing.T) {
	secret := "webhook-secret"
	body := []byte("payload")

	sig := strings.ToUpper(Sign(secret, body))
	if !Verify(secret, body, sig) {
		t.Fatal("uppercase hex signature should verify")
	}
}

func TestVerify_TamperedBody(t *testing.T) {
	secret := "webhook-secret"
	sig := Sign(secret, []byte("original"))

	if Verify(secret, []byte("tampered"), sig) {
		t.Fatal("tampered body should not verify")
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	body := []byte("payload")
	sig := Sign("secret-a", body)

	if Verify("secret-b", body, sig) {
		t.Fatal("signature under a different secret should not verify")
	}
}

func TestVerify_MalformedSignature(t *testing.T) {
	if Verify("secret", []byte("payload"), "not-hex") {
		t.Fatal("non-hex signature should not verify")
	}
	if Verify("secret", []byte("payload"), "") {
		t.Fatal("empty signature should not verify")
	}
}
