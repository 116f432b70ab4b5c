package app

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// fakeBackend mimics the budget backend closely enough for page flows.
type fakeBackend struct {
	mu       sync.Mutex
	users    map[string]string // email -> password
	sessions map[string]string // token -> email
	expenses []map[string]any
	hits     map[string]int
	auth     map[string][]string // path -> Authorization headers seen

	addMode   string // "redirect" (default), "json", "error"
	meBody    string // overrides /auth/users/me when set
	listError bool
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()
	fb := &fakeBackend{
		users:    map[string]string{"ann@example.com": "secret"},
		sessions: map[string]string{},
		hits:     map[string]int{},
		auth:     map[string][]string{},
	}
	srv := httptest.NewServer(fb)
	t.Cleanup(srv.Close)
	return fb, srv
}

func (fb *fakeBackend) count(path string) int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.hits[path]
}

func (fb *fakeBackend) total() int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	n := 0
	for _, v := range fb.hits {
		n += v
	}
	return n
}

func (fb *fakeBackend) authSeen(path string) []string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return append([]string(nil), fb.auth[path]...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func detail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

func (fb *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	defer fb.mu.Unlock()

	fb.hits[r.URL.Path]++
	fb.auth[r.URL.Path] = append(fb.auth[r.URL.Path], r.Header.Get("Authorization"))

	email, authed := fb.sessions[strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")]

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/auth/token":
		_ = r.ParseForm()
		user, pass := r.PostForm.Get("username"), r.PostForm.Get("password")
		if want, ok := fb.users[user]; !ok || want != pass {
			detail(w, http.StatusUnauthorized, "Incorrect email or password")
			return
		}
		tok := "tok-" + user
		fb.sessions[tok] = user
		writeJSON(w, http.StatusOK, map[string]string{"access_token": tok, "token_type": "bearer"})

	case r.Method == http.MethodPost && r.URL.Path == "/auth/register":
		var body struct {
			Email    string `json:"email"`
			FullName string `json:"full_name"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Email == "" {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"detail": []map[string]any{{"loc": []string{"body", "email"}, "msg": "field required"}},
			})
			return
		}
		if _, exists := fb.users[body.Email]; exists {
			detail(w, http.StatusBadRequest, "Email already registered")
			return
		}
		fb.users[body.Email] = body.Password
		writeJSON(w, http.StatusCreated, map[string]string{"email": body.Email, "full_name": body.FullName})

	case r.URL.Path == "/auth/users/me":
		if !authed {
			detail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		if fb.meBody != "" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, fb.meBody)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"email": email})

	case r.Method == http.MethodGet && r.URL.Path == "/expenses/":
		if !authed {
			detail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		if fb.listError {
			detail(w, http.StatusInternalServerError, "database unavailable")
			return
		}
		list := fb.expenses
		if list == nil {
			list = []map[string]any{}
		}
		writeJSON(w, http.StatusOK, list)

	case r.Method == http.MethodPost && r.URL.Path == "/expenses/add":
		if !authed {
			detail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		if fb.addMode == "error" {
			detail(w, http.StatusBadRequest, "Invalid amount format.")
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			detail(w, http.StatusBadRequest, "expected multipart form")
			return
		}
		amount, _ := strconv.ParseFloat(r.FormValue("amount"), 64)
		date := r.FormValue("expense_date_str")
		if date == "" {
			date = "2024-06-01"
		}
		fb.expenses = append(fb.expenses, map[string]any{
			"expense_date": date,
			"description":  r.FormValue("description"),
			"amount":       amount,
			"category":     r.FormValue("category"),
		})
		if fb.addMode == "json" {
			writeJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
			return
		}
		http.Redirect(w, r, "/expenses/dashboard", http.StatusSeeOther)

	case r.URL.Path == "/expenses/dashboard":
		_, _ = io.WriteString(w, "<html>dashboard</html>")

	default:
		http.NotFound(w, r)
	}
}
