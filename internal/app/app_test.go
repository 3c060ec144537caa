package app

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/five82/emarket/internal/config"
	"github.com/five82/emarket/internal/kvstore"
	"github.com/five82/emarket/internal/market"
	"github.com/five82/emarket/internal/mockapi"
	"github.com/five82/emarket/internal/prefs"
	"github.com/five82/emarket/internal/state"
)

func testConfig(t *testing.T, apiURL string) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.APIURL = apiURL
	cfg.LogFile = ""
	cfg.Store = config.StoreConfig{
		Backend: kvstore.BackendFile,
		Path:    filepath.Join(t.TempDir(), "store.toml"),
	}
	return cfg
}

func startBackend(t *testing.T, opts ...mockapi.Option) (*mockapi.Server, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	srv := mockapi.New(append([]mockapi.Option{mockapi.WithBcryptCost(bcrypt.MinCost)}, opts...)...)
	if _, err := srv.SeedUser("Ana", "ana@x.com", "secret1"); err != nil {
		t.Fatal(err)
	}
	srv.SeedProduct(market.Product{Title: "Bike", Category: "esportes", Condition: "used", UserID: "999", Price: 300})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts.URL
}

func TestNew_RestoresSessionAcrossRestarts(t *testing.T) {
	ctx := context.Background()
	_, url := startBackend(t)
	cfg := testConfig(t, url)

	first, err := New(ctx, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if state.IsLoggedIn(first.Store.Snapshot()) {
		t.Fatal("fresh install should start signed out")
	}
	if _, err := first.Dispatcher.Login(ctx, market.Credentials{Email: "ana@x.com", Password: "secret1"}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if err := prefs.Save(ctx, first.KV, first.Prefs.Toggled()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	second, err := New(ctx, cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer second.Close()

	user, ok := state.CurrentUser(second.Store.Snapshot())
	if !ok || user.Email != "ana@x.com" {
		t.Fatalf("CurrentUser() = %+v, %v", user, ok)
	}
	if second.Prefs.Theme != prefs.ThemeDark {
		t.Fatalf("Theme = %q, want dark", second.Prefs.Theme)
	}

	ran, err := refresh(ctx, second.Store, second.Dispatcher)
	if err != nil || !ran {
		t.Fatalf("refresh() = %v, %v", ran, err)
	}
	if got := len(second.Store.Snapshot().Products.Items); got != 1 {
		t.Fatalf("products = %d, want 1", got)
	}
}

func TestNew_AddressFallbackSharesStore(t *testing.T) {
	ctx := context.Background()
	_, url := startBackend(t, mockapi.WithAddresses(false))
	a, err := New(ctx, testConfig(t, url), zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	sess, err := a.Dispatcher.Login(ctx, market.Credentials{Email: "ana@x.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	addr := market.Address{Label: market.LabelHome, Street: "Rua A", Number: "1", District: "Centro", City: "Recife", State: "PE", Zip: "50000-000"}
	if _, err := a.Dispatcher.CreateAddress(ctx, sess.User.ID, addr); err != nil {
		t.Fatalf("CreateAddress() error = %v", err)
	}
	if a.Addresses.Mode() != market.ModeLocal {
		t.Fatalf("Mode() = %v, want local", a.Addresses.Mode())
	}

	var stored []market.Address
	ok, err := kvstore.GetJSON(ctx, a.KV, market.AddressKey(sess.User.ID), &stored)
	if err != nil || !ok {
		t.Fatalf("GetJSON() = %v, %v", ok, err)
	}
	if len(stored) != 1 || !stored[0].IsPrimary {
		t.Fatalf("stored = %+v", stored)
	}
}

func TestNew_RejectsBadBackend(t *testing.T) {
	cfg := testConfig(t, "http://localhost:1")
	cfg.Store.Backend = "floppy"
	if _, err := New(context.Background(), cfg, zerolog.Nop()); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}
