package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coder/quartz"
)

func TestAuthority_IssueValidate(t *testing.T) {
	a := New([]byte("test-secret"), 24*time.Hour, nil)

	token, err := a.Issue("nina")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if token == "" {
		t.Fatal("expected a signed token")
	}

	identity, err := a.Validate(context.Background(), token)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if identity.Username != "nina" {
		t.Errorf("expected nina, got %s", identity.Username)
	}
}

func TestAuthority_ExpiredToken(t *testing.T) {
	clock := quartz.NewMock(t)
	a := New([]byte("test-secret"), time.Hour, clock)

	token, err := a.Issue("nina")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	clock.Advance(time.Hour + time.Second)

	_, err = a.Validate(context.Background(), token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestAuthority_WrongSecret(t *testing.T) {
	issuer := New([]byte("secret-a"), time.Hour, nil)
	verifier := New([]byte("secret-b"), time.Hour, nil)

	token, err := issuer.Issue("nina")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	_, err = verifier.Validate(context.Background(), token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
}

func TestAuthority_TamperedToken(t *testing.T) {
	a := New([]byte("test-secret"), time.Hour, nil)

	token, err := a.Issue("nina")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	_, err = a.Validate(context.Background(), token+"x")
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for tampered token, got %v", err)
	}
}

func TestAuthority_EmptyToken(t *testing.T) {
	a := New([]byte("test-secret"), time.Hour, nil)

	_, err := a.Validate(context.Background(), "")
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for empty token, got %v", err)
	}
}

func TestAuthority_NoSecret(t *testing.T) {
	a := New(nil, time.Hour, nil)

	if _, err := a.Issue("nina"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable from Issue, got %v", err)
	}
	if _, err := a.Validate(context.Background(), "anything"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable from Validate, got %v", err)
	}
}

func TestStaticValidator(t *testing.T) {
	v := StaticValidator{"tok-1": "nina"}

	identity, err := v.Validate(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if identity.Username != "nina" {
		t.Errorf("expected nina, got %s", identity.Username)
	}

	if _, err := v.Validate(context.Background(), "unknown"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}
