package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSessionRoundTrip(t *testing.T) {
	w := httptest.NewRecorder()
	CreateSession(w, 42)
	res := w.Result()
	cookies := res.Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie got %d", len(cookies))
	}

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookies[0])
	uid, ok := ParseSession(r)
	if !ok || uid != 42 {
		t.Fatalf("parse: got uid=%d ok=%v", uid, ok)
	}
}

func TestParseSessionRejectsTamperedCookie(t *testing.T) {
	w := httptest.NewRecorder()
	CreateSession(w, 7)
	c := w.Result().Cookies()[0]
	c.Value = "8." + c.Value[len("7."):]

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(c)
	if _, ok := ParseSession(r); ok {
		t.Fatal("tampered cookie accepted")
	}
}

func TestRequireAuthRedirectsAnonymous(t *testing.T) {
	h := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/loans", nil))
	if w.Code != http.StatusSeeOther {
		t.Fatalf("expected 303 got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/login" {
		t.Fatalf("expected /login redirect got %s", loc)
	}
}

func TestRequireAuthJSONGets401(t *testing.T) {
	h := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	r := httptest.NewRequest(http.MethodGet, "/loans", nil)
	r.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", w.Code)
	}
}

func TestRequireAuthVerifierRejectsStaleUser(t *testing.T) {
	SetUserVerifier(func(_ context.Context, uid uint) bool { return uid == 1 })
	defer SetUserVerifier(nil)

	ran := false
	h := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { ran = true }))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(WithUserID(r.Context(), 99))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if ran {
		t.Fatal("handler ran for stale user")
	}

	r2 := httptest.NewRequest(http.MethodGet, "/", nil)
	r2 = r2.WithContext(WithUserID(r2.Context(), 1))
	h.ServeHTTP(httptest.NewRecorder(), r2)
	if !ran {
		t.Fatal("handler did not run for valid user")
	}
}
