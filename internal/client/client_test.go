package client_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"timetrack-invoicing-backend/internal/client"
	"timetrack-invoicing-backend/internal/config"
	"timetrack-invoicing-backend/internal/routes"
	"timetrack-invoicing-backend/internal/services/draft"
	"timetrack-invoicing-backend/internal/testutil"
)

func startServer(t *testing.T) (*httptest.Server, testutil.Fixture) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.NewDB(t)
	fx := testutil.Seed(t, db)

	start := time.Date(2024, time.March, 4, 9, 0, 0, 0, time.UTC)
	testutil.LogTrack(t, db, fx.OwnerContract, "design", start, 1)
	testutil.LogTrack(t, db, fx.MemberContract, "build", start.AddDate(0, 0, 1), 1)

	r := gin.New()
	routes.RegisterRoutes(r, db, config.Config{JWTSecret: []byte("client-test"), TokenTTL: time.Hour})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, fx
}

func login(t *testing.T, srv *httptest.Server, email string) *client.Client {
	t.Helper()
	ctx := context.Background()
	resp, err := client.Login(ctx, srv.URL, email, testutil.Password)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	return client.New(ctx, srv.URL, resp.Token)
}

func TestDraftSessionAgainstServer(t *testing.T) {
	srv, fx := startServer(t)
	api := login(t, srv, "owner@example.com")
	ctx := context.Background()

	projects, err := api.Projects(ctx)
	if err != nil || len(projects) != 1 {
		t.Fatalf("Projects: %v %v", projects, err)
	}
	clients, err := api.Clients(ctx)
	if err != nil || len(clients) != 1 {
		t.Fatalf("Clients: %v %v", clients, err)
	}

	from := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC)

	s := draft.NewSession(api)
	if err := s.Configure(projects[0].ID, clients[0].ID); err != nil {
		t.Fatal(err)
	}
	if err := s.SetPeriod(from, to); err != nil {
		t.Fatal(err)
	}
	if err := s.Import(ctx, from, to); err != nil {
		t.Fatalf("Import: %v", err)
	}
	if !s.Total().Equal(decimal.NewFromInt(90)) {
		t.Fatalf("total = %s, want 90", s.Total())
	}
	if err := s.Import(ctx, from, to); err != nil {
		t.Fatalf("second Import: %v", err)
	}

	inv := s.Invoice()
	if !inv.Persisted() || len(inv.Entries) != 2 {
		t.Fatalf("invoice = %+v", inv)
	}
	if err := s.Remove(ctx, inv.Entries[1].Track); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !s.Total().Equal(decimal.NewFromInt(50)) {
		t.Fatalf("total after remove = %s, want 50", s.Total())
	}
	if err := s.ApplyRate(ctx, "60"); err != nil {
		t.Fatalf("ApplyRate: %v", err)
	}
	if !s.Total().Equal(decimal.NewFromInt(60)) {
		t.Fatalf("total after rate = %s, want 60", s.Total())
	}

	if err := s.Preview(); err != nil {
		t.Fatal(err)
	}
	if err := s.Finalize(ctx); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	shown, err := api.Invoice(ctx, inv.ID)
	if err != nil {
		t.Fatalf("Invoice: %v", err)
	}
	if !shown.Invoice.IsVisible {
		t.Error("invoice should be visible")
	}
	if len(shown.Entries) != 2 || shown.Entries[1].DeletedAt == nil {
		t.Error("removed entry must be kept soft-deleted")
	}
	if err := api.NotifyClient(ctx, fx.Project.ID, inv.ID); err != nil {
		t.Errorf("NotifyClient: %v", err)
	}
}

func TestAPIErrors(t *testing.T) {
	srv, fx := startServer(t)
	ctx := context.Background()

	if _, err := client.Login(ctx, srv.URL, "owner@example.com", "wrong"); err == nil {
		t.Fatal("expected login error")
	}

	member := login(t, srv, "member@example.com")
	s := draft.NewSession(member)
	if err := s.Configure(fx.Project.ID, fx.Client.ID); err != nil {
		t.Fatal(err)
	}
	day := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	err := s.Import(ctx, day, day.AddDate(0, 1, 0))

	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 from server, got %v", err)
	}
	if s.SyncError() == "" {
		t.Error("sync error must be recorded")
	}
	if len(s.Invoice().Entries) != 1 {
		t.Errorf("member's own entries stay local, got %d", len(s.Invoice().Entries))
	}
}
