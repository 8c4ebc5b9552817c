package cli_test

import (
	"bytes"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"timetrack-invoicing-backend/internal/cli"
	"timetrack-invoicing-backend/internal/config"
	"timetrack-invoicing-backend/internal/models"
	"timetrack-invoicing-backend/internal/routes"
	"timetrack-invoicing-backend/internal/testutil"
)

type env struct {
	srv     *httptest.Server
	fx      testutil.Fixture
	profile string
	tracks  []models.ActivityTrack
}

func setup(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)

	start := time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)
	tracks := []models.ActivityTrack{
		testutil.LogTrack(t, db, fx.OwnerContract, "design", start, 1),
		testutil.LogTrack(t, db, fx.MemberContract, "build", start.AddDate(0, 0, 1), 1),
	}

	r := gin.New()
	routes.RegisterRoutes(r, db, config.Config{JWTSecret: []byte("cli-test"), TokenTTL: time.Hour})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &env{
		srv:     srv,
		fx:      fx,
		profile: filepath.Join(t.TempDir(), "profile.yaml"),
		tracks:  tracks,
	}
}

func (e *env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := cli.NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--profile", e.profile}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (e *env) login(t *testing.T) {
	t.Helper()
	out, err := e.run(t, "login", "--server", e.srv.URL, "--email", "owner@example.com", "--password", testutil.Password)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out, "Logged in as owner@example.com") {
		t.Fatalf("login output = %q", out)
	}
}

func TestLoginStoresProfile(t *testing.T) {
	e := setup(t)
	e.login(t)

	p, err := cli.LoadProfile(e.profile)
	if err != nil {
		t.Fatal(err)
	}
	if p.Server != e.srv.URL || p.Email != "owner@example.com" || p.Token == "" {
		t.Fatalf("profile = %+v", p)
	}
}

func TestCommandsRequireLogin(t *testing.T) {
	e := setup(t)
	if _, err := e.run(t, "projects"); err == nil || !strings.Contains(err.Error(), "not logged in") {
		t.Fatalf("err = %v", err)
	}
}

func TestListProjectsAndClients(t *testing.T) {
	e := setup(t)
	e.login(t)

	out, err := e.run(t, "projects")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, e.fx.Project.ID.String()) || !strings.Contains(out, "Website") {
		t.Fatalf("projects output = %q", out)
	}

	out, err = e.run(t, "clients")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "ACME Corp <billing@acme.example>") {
		t.Fatalf("clients output = %q", out)
	}
}

func TestInvoiceNew(t *testing.T) {
	e := setup(t)
	e.login(t)

	out, err := e.run(t, "invoice", "new",
		"--project", e.fx.Project.ID.String(),
		"--client", e.fx.Client.ID.String(),
		"--from", "2024-03-01", "--to", "2024-03-31",
		"--remove", e.tracks[1].ID.String(),
		"--preview", "--finalize",
	)
	if err != nil {
		t.Fatalf("invoice new: %v\n%s", err, out)
	}
	for _, want := range []string{"2 entries, total 50.00", "Website", "ACME Corp", "design", "Total: 50.00", "1 removed entries", "now visible"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	p, err := cli.LoadProfile(e.profile)
	if err != nil {
		t.Fatal(err)
	}
	if p.DefaultProject != e.fx.Project.ID || p.DefaultClient != e.fx.Client.ID {
		t.Fatalf("defaults not stored: %+v", p)
	}
}

func TestInvoiceNewAppliesRate(t *testing.T) {
	e := setup(t)
	e.login(t)

	out, err := e.run(t, "invoice", "new",
		"--project", e.fx.Project.ID.String(),
		"--client", e.fx.Client.ID.String(),
		"--from", "2024-03-01", "--to", "2024-03-31",
		"--rate", "100",
	)
	if err != nil {
		t.Fatalf("invoice new: %v", err)
	}
	if !strings.Contains(out, "total 200.00") {
		t.Fatalf("output = %q", out)
	}
}

func TestInvoiceNewRejectsBadFlags(t *testing.T) {
	e := setup(t)
	e.login(t)

	cases := map[string][]string{
		"missing project": {"invoice", "new", "--client", e.fx.Client.ID.String(), "--from", "2024-03-01", "--to", "2024-03-31"},
		"bad from":        {"invoice", "new", "--project", e.fx.Project.ID.String(), "--client", e.fx.Client.ID.String(), "--from", "March", "--to", "2024-03-31"},
		"bad remove":      {"invoice", "new", "--project", e.fx.Project.ID.String(), "--client", e.fx.Client.ID.String(), "--from", "2024-03-01", "--to", "2024-03-31", "--remove", "nope"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := e.run(t, args...); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
