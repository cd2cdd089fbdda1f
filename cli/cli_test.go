package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"trello-project/web-client/models"
)

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version", "--env-file", filepath.Join(t.TempDir(), "none.env")})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got := out.String(); got != "web-client dev\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestLoginCommand(t *testing.T) {
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			var creds models.Credentials
			_ = json.NewDecoder(r.Body).Decode(&creds)
			w.Header().Set("Content-Type", "application/json")
			if creds.Password != "secret1" {
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "Invalid credentials"})
				return
			}
			http.SetCookie(w, &http.Cookie{Name: "accessToken", Value: "valid", Path: "/"})
			_ = json.NewEncoder(w).Encode(models.AuthResponse{UserID: 1, Username: "ana", Email: creds.Email})
		case "/api/projects":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode([]models.Project{{ID: 4, Name: "Apollo"}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer backend.Close()
	t.Setenv("API_URL", backend.URL+"/api")
	envFile := filepath.Join(t.TempDir(), "none.env")

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"login", "--email", "a@b.com", "--password", "secret1", "--projects", "--env-file", envFile})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out.String(), `"isAuthenticated": true`) || !strings.Contains(out.String(), "Apollo") {
		t.Fatalf("unexpected output %s", out.String())
	}

	cmd = NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"login", "--email", "a@b.com", "--password", "wrong-pass", "--env-file", envFile})
	err := cmd.Execute()
	if err == nil || err.Error() != "Invalid credentials" {
		t.Fatalf("expected server message as error, got %v", err)
	}
}
