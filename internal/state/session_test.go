package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/five82/emarket/internal/kvstore"
	"github.com/five82/emarket/internal/market"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1", "exp": exp.Unix()})
	s, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func TestLogin_PersistsSessionAndHydrateRestoresIt(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	token := signedToken(t, time.Now().Add(time.Hour))
	h.auth.res = market.LoginResult{Token: token, User: market.User{ID: "u1", Name: "Ana", Email: "ana@x.com"}}

	sess, err := h.d.Login(ctx, market.Credentials{Email: "ana@x.com", Password: "secret1"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if h.store.Token() != token || sess.User.ID != "u1" {
		t.Fatalf("session = %+v", sess)
	}
	if raw, ok, _ := h.kv.Get(ctx, TokenKey); !ok || raw != token {
		t.Fatalf("stored token = %q, %v", raw, ok)
	}

	// A fresh process over the same storage.
	fresh := NewDispatcher(NewStore(), Deps{Session: h.kv}, zerolog.Nop())
	found, err := fresh.Hydrate(ctx)
	if err != nil || !found {
		t.Fatalf("Hydrate = %v, %v", found, err)
	}
	u, ok := CurrentUser(fresh.Store().Snapshot())
	if !ok || u.Name != "Ana" {
		t.Fatalf("hydrated user = %+v, %v", u, ok)
	}
}

func TestHydrate_DropsExpiredJWT(t *testing.T) {
	kv := kvstore.NewMemory()
	ctx := context.Background()
	_ = kv.MultiSet(ctx, map[string]string{
		TokenKey: signedToken(t, time.Now().Add(-time.Minute)),
		UserKey:  `{"id":"u1","name":"Ana"}`,
	})

	d := NewDispatcher(NewStore(), Deps{Session: kv}, zerolog.Nop())
	found, err := d.Hydrate(ctx)
	if err != nil || found {
		t.Fatalf("Hydrate = %v, %v; want not found", found, err)
	}
	if IsLoggedIn(d.Store().Snapshot()) {
		t.Fatal("expired session should not log in")
	}
	if _, ok, _ := kv.Get(ctx, TokenKey); ok {
		t.Fatal("expired token should be removed")
	}
}

func TestHydrate_AcceptsOpaqueTokenAndLegacyUserShape(t *testing.T) {
	kv := kvstore.NewMemory()
	ctx := context.Background()
	_ = kv.MultiSet(ctx, map[string]string{TokenKey: "opaque-token", UserKey: `{"_id":5,"nome":"Caio"}`})

	d := NewDispatcher(NewStore(), Deps{Session: kv}, zerolog.Nop())
	if found, err := d.Hydrate(ctx); err != nil || !found {
		t.Fatalf("Hydrate = %v, %v", found, err)
	}
	u, _ := CurrentUser(d.Store().Snapshot())
	if u.ID != "5" || u.Name != "Caio" {
		t.Fatalf("user = %+v", u)
	}
}

func TestLogin_FailureRecordsErrorAndNextAttemptClearsIt(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.auth.err = errors.New("invalid credentials")

	if _, err := h.d.Login(ctx, market.Credentials{}); err == nil {
		t.Fatal("expected login error")
	}
	snap := h.store.Snapshot()
	if !snap.Auth.Failed() || snap.Auth.Err() != "invalid credentials" || IsLoggedIn(snap) {
		t.Fatalf("auth = %+v", snap.Auth)
	}

	h.auth.err = nil
	h.auth.res = market.LoginResult{Token: "t", User: market.User{ID: "u1"}}
	if _, err := h.d.Login(ctx, market.Credentials{}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if e := h.store.Snapshot().Auth.Err(); e != "" {
		t.Fatalf("auth error = %q, want cleared", e)
	}
}

func TestLogout_ClearsStorageAndUserScopedSlices(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.auth.res = market.LoginResult{Token: "t", User: market.User{ID: "u1"}}
	h.products.items = []market.Product{{ID: "p1", UserID: "u1"}}
	_, _ = h.d.Login(ctx, market.Credentials{})
	_, _ = h.d.FetchProducts(ctx)
	_, _ = h.d.FetchProductsByOwner(ctx, "u1")
	_, _ = h.d.AddFavorite(ctx, "u1", "p1")
	_, _ = h.d.CreateAddress(ctx, "u1", market.Address{Label: market.LabelHome})

	if err := h.d.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	snap := h.store.Snapshot()
	if IsLoggedIn(snap) || h.store.Token() != "" {
		t.Fatal("still logged in")
	}
	if len(snap.Favorites.Items) != 0 || len(snap.Addresses.Items) != 0 || len(snap.Products.Owned) != 0 {
		t.Fatalf("user-scoped slices not reset: %+v", snap)
	}
	if len(snap.Products.Items) != 1 {
		t.Fatal("public feed should survive logout")
	}
	if vals, _ := h.kv.MultiGet(ctx, []string{TokenKey, UserKey}); len(vals) != 0 {
		t.Fatalf("storage not cleared: %v", vals)
	}
}

func TestUpdateProfile(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	if _, err := h.d.UpdateProfile(ctx, market.ProfileUpdate{Name: "X"}); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("err = %v, want ErrNotLoggedIn", err)
	}

	h.auth.res = market.LoginResult{Token: "t", User: market.User{ID: "u1", Name: "Ana", AvatarURL: "a.png"}}
	_, _ = h.d.Login(ctx, market.Credentials{})
	u, err := h.d.UpdateProfile(ctx, market.ProfileUpdate{Name: "Ana Lima", Email: "ana@lima.com"})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if u.Name != "Ana Lima" || u.AvatarURL != "a.png" {
		t.Fatalf("user = %+v", u)
	}
	var stored market.User
	if ok, err := kvstore.GetJSON(ctx, h.kv, UserKey, &stored); err != nil || !ok || stored.Email != "ana@lima.com" {
		t.Fatalf("stored user = %+v, %v, %v", stored, ok, err)
	}
}

func TestTokenExpired(t *testing.T) {
	now := time.Now()
	if tokenExpired("not-a-jwt", now) {
		t.Fatal("opaque token should not expire")
	}
	if !tokenExpired(signedToken(t, now.Add(-time.Second)), now) {
		t.Fatal("past exp should be expired")
	}
	if tokenExpired(signedToken(t, now.Add(time.Hour)), now) {
		t.Fatal("future exp should be valid")
	}
}

func TestChangePassword(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	if err := h.d.ChangePassword(ctx, market.PasswordChange{Password: "secret9", Confirm: "secret9"}); !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("err = %v, want ErrNotLoggedIn", err)
	}

	h.auth.res = market.LoginResult{Token: "t", User: market.User{ID: "u1"}}
	if _, err := h.d.Login(ctx, market.Credentials{}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := h.d.ChangePassword(ctx, market.PasswordChange{Password: "secret9", Confirm: "secret8"}); err == nil {
		t.Fatal("mismatched confirmation should fail")
	}
	if len(h.users.password) != 0 {
		t.Fatal("invalid change reached the client")
	}
	if err := h.d.ChangePassword(ctx, market.PasswordChange{Password: "secret9", Confirm: "secret9"}); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if h.users.password["u1"] != "secret9" {
		t.Fatalf("passwords = %v", h.users.password)
	}
	if !IsLoggedIn(h.store.Snapshot()) {
		t.Fatal("session should survive a password change")
	}
}
