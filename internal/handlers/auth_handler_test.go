package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"wordquest/internal/credentials"
	"wordquest/internal/repository"
	"wordquest/internal/security"
	"wordquest/internal/service"
)

func newAuthHandler(t *testing.T, limiter *security.LoginLimiter) *AuthHandler {
	t.Helper()

	writer := repository.NewWriter()
	t.Cleanup(writer.Close)
	session := service.NewSession(writer)
	users := service.NewUserService(repository.NewMemoryStateRepository(), credentials.NewStore(), session)
	tokens := security.NewTokenManager("test-secret", time.Hour)
	return NewAuthHandler(users, tokens, limiter)
}

func postJSON(t *testing.T, handler http.HandlerFunc, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(body))
	handler(w, r)
	return w
}

func sessionCookie(res *http.Response) *http.Cookie {
	for _, c := range res.Cookies() {
		if c.Name == SessionCookieName {
			return c
		}
	}
	return nil
}

func TestRegisterOpensSession(t *testing.T) {
	h := newAuthHandler(t, security.NewLoginLimiter(10, time.Minute))

	w := postJSON(t, h.Register, registerRequest{Username: "alice", Password: "pass1234"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}

	cookie := sessionCookie(w.Result())
	if cookie == nil || cookie.Value == "" {
		t.Error("no session cookie on the register response")
	}

	var view UserView
	if err := json.NewDecoder(w.Body).Decode(&view); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if view.Username != "alice" {
		t.Errorf("username = %q, want alice", view.Username)
	}
}

func TestLoginRateLimitedPerUsername(t *testing.T) {
	h := newAuthHandler(t, security.NewLoginLimiter(2, time.Hour))

	w := postJSON(t, h.Register, registerRequest{Username: "alice", Password: "pass1234"})
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d", w.Code)
	}
	w = postJSON(t, h.Register, registerRequest{Username: "bob", Password: "pass1234"})
	if w.Code != http.StatusCreated {
		t.Fatalf("register status = %d", w.Code)
	}

	for i := 0; i < 2; i++ {
		w = postJSON(t, h.Login, loginRequest{Username: "alice", Password: "wrong"})
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d status = %d, want %d", i+1, w.Code, http.StatusUnauthorized)
		}
	}

	w = postJSON(t, h.Login, loginRequest{Username: "alice", Password: "pass1234"})
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("exhausted username status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}

	// Other profiles on the same device are unaffected
	w = postJSON(t, h.Login, loginRequest{Username: "bob", Password: "pass1234"})
	if w.Code != http.StatusOK {
		t.Errorf("other username status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestGuestRegisterAndConvert(t *testing.T) {
	h := newAuthHandler(t, security.NewLoginLimiter(10, time.Minute))

	w := httptest.NewRecorder()
	h.RegisterGuest(w, httptest.NewRequest(http.MethodPost, "/", nil))
	if w.Code != http.StatusCreated {
		t.Fatalf("guest status = %d, want %d", w.Code, http.StatusCreated)
	}
	if cookie := sessionCookie(w.Result()); cookie == nil || cookie.Value == "" {
		t.Error("no session cookie on the guest response")
	}

	var guest UserView
	if err := json.NewDecoder(w.Body).Decode(&guest); err != nil {
		t.Fatalf("decode guest: %v", err)
	}
	if !guest.IsGuest {
		t.Error("guest view not flagged as guest")
	}

	w = postJSON(t, h.ConvertGuest, convertRequest{Username: "casey", Password: "pass1234"})
	if w.Code != http.StatusOK {
		t.Fatalf("convert status = %d, want %d", w.Code, http.StatusOK)
	}

	var converted UserView
	if err := json.NewDecoder(w.Body).Decode(&converted); err != nil {
		t.Fatalf("decode converted: %v", err)
	}
	if converted.IsGuest {
		t.Error("converted view still flagged as guest")
	}
	if converted.ID != guest.ID || converted.Username != "casey" {
		t.Errorf("converted view = %s/%s, want same id as guest with username casey", converted.ID, converted.Username)
	}
}
