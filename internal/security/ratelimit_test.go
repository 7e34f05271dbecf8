package security

import (
	"testing"
	"time"
)

func TestLoginLimiterCapsAttemptsPerUsername(t *testing.T) {
	l := NewLoginLimiter(3, time.Hour)

	for i := 0; i < 3; i++ {
		if !l.Allow("alice") {
			t.Fatalf("attempt %d for alice denied, want allowed", i+1)
		}
	}
	if l.Allow("alice") {
		t.Error("fourth attempt for alice allowed, want denied")
	}

	// Other profiles on the same device keep their own budget
	if !l.Allow("bob") {
		t.Error("first attempt for bob denied after alice exhausted hers")
	}
}

func TestLoginLimiterRefillsAfterWindow(t *testing.T) {
	l := NewLoginLimiter(1, 10*time.Millisecond)

	if !l.Allow("alice") {
		t.Fatal("first attempt denied")
	}
	if l.Allow("alice") {
		t.Fatal("second attempt allowed inside the window")
	}

	time.Sleep(20 * time.Millisecond)
	if !l.Allow("alice") {
		t.Error("attempt denied after the window elapsed")
	}
}
