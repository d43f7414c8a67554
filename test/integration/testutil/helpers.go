//go:build integration

package testutil

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/playtestbot/roster/internal/domain"
)

// Command posts a chat command as userID, the way a slash-command webhook would.
func (env *TestEnv) Command(userID, text string) *http.Response {
	env.t.Helper()
	form := url.Values{
		"user_id": {userID},
		"command": {"/playtest"},
		"text":    {text},
	}
	resp, err := http.Post(env.Server.URL+"/commands", "application/x-www-form-urlencoded",
		strings.NewReader(form.Encode()))
	if err != nil {
		env.t.Fatalf("Command %q: %v", text, err)
	}
	return resp
}

// GET performs a GET request.
func (env *TestEnv) GET(path string) *http.Response {
	env.t.Helper()
	resp, err := http.Get(env.Server.URL + path)
	if err != nil {
		env.t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

// SeedPlaytester stores p directly.
func (env *TestEnv) SeedPlaytester(p *domain.Playtester) {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := env.Players.Save(ctx, p); err != nil {
		env.t.Fatalf("SeedPlaytester %s: %v", p.ID, err)
	}
}

// SeedAdmin stores a registered admin.
func (env *TestEnv) SeedAdmin(id string) {
	env.t.Helper()
	p := domain.NewPlaytester(id, strings.ToLower(id))
	p.IsAdmin = true
	env.SeedPlaytester(p)
}

// Playtester loads a record, failing the test on store errors.
func (env *TestEnv) Playtester(id string) *domain.Playtester {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p, err := env.Players.FindByID(ctx, id)
	if err != nil {
		env.t.Fatalf("Playtester %s: %v", id, err)
	}
	return p
}
