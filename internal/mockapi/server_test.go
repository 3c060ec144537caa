package mockapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/five82/emarket/internal/api"
	"github.com/five82/emarket/internal/kvstore"
	"github.com/five82/emarket/internal/market"
	"github.com/five82/emarket/internal/state"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type env struct {
	srv       *Server
	store     *state.Store
	d         *state.Dispatcher
	addresses *market.AddressClient
	addrHits  *atomic.Int64
	userID    market.ID
}

func newEnv(t *testing.T, opts ...Option) *env {
	t.Helper()
	opts = append([]Option{WithBcryptCost(bcrypt.MinCost)}, opts...)
	srv := New(opts...)
	uid, err := srv.SeedUser("Ana", "ana@x.com", "secret1")
	require.NoError(t, err)
	srv.SeedProduct(market.Product{Title: "Bike", Category: "esportes", Condition: "used", UserID: "999", Price: 300})
	srv.SeedProduct(market.Product{Title: "Lamp", Category: "casa", Condition: "new", UserID: "999", Price: 50})

	hits := &atomic.Int64{}
	h := srv.Handler()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/addresses") {
			hits.Add(1)
		}
		h.ServeHTTP(w, r)
	}))
	t.Cleanup(ts.Close)

	store := state.NewStore()
	client, err := api.New(ts.URL, api.WithTokenSource(store))
	require.NoError(t, err)

	addresses := market.NewAddressClient(client, market.NewAddressFallback(kvstore.NewMemory()), zerolog.Nop())
	d := state.NewDispatcher(store, state.Deps{
		Auth:      market.NewAuthClient(client),
		Users:     market.NewUserClient(client),
		Products:  market.NewProductClient(client),
		Favorites: market.NewFavoriteClient(client),
		Addresses: addresses,
		Session:   kvstore.NewMemory(),
	}, zerolog.Nop())

	return &env{srv: srv, store: store, d: d, addresses: addresses, addrHits: hits, userID: uid}
}

func (e *env) login(t *testing.T) {
	t.Helper()
	sess, err := e.d.Login(context.Background(), market.Credentials{Email: "ana@x.com", Password: "secret1"})
	require.NoError(t, err)
	require.Equal(t, e.userID, sess.User.ID)
}

func validAddress(label string) market.Address {
	return market.Address{Label: label, Street: "Rua A", Number: "10", District: "Centro", City: "Recife", State: "PE", Zip: "50000-000"}
}

func TestLogin_NormalizesLegacyUserShape(t *testing.T) {
	e := newEnv(t)
	e.login(t)

	u, ok := state.CurrentUser(e.store.Snapshot())
	require.True(t, ok)
	assert.Equal(t, "Ana", u.Name)
	assert.Equal(t, "ana@x.com", u.Email)
	assert.NotEmpty(t, e.store.Token())
}

func TestLogin_WrongPasswordRecordsMessage(t *testing.T) {
	e := newEnv(t)
	_, err := e.d.Login(context.Background(), market.Credentials{Email: "ana@x.com", Password: "nope"})
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, api.StatusCode(err))

	snap := e.store.Snapshot()
	assert.True(t, snap.Auth.Failed())
	assert.Contains(t, snap.Auth.Err(), "invalid credentials")
	assert.False(t, state.IsLoggedIn(snap))
}

func TestFavorites_RequireToken(t *testing.T) {
	e := newEnv(t)
	_, err := e.d.FetchFavorites(context.Background(), e.userID)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, api.StatusCode(err))
}

func TestProductsAndFavorites_EndToEnd(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.login(t)

	items, err := e.d.FetchProducts(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)

	found, err := e.d.SearchProducts(ctx, "bik")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Bike", found[0].Title)

	_, err = e.d.FetchProducts(ctx)
	require.NoError(t, err)

	created, err := e.d.CreateProduct(ctx, market.Product{Title: "Civic", Category: market.CategoryVehicle, Brand: "Honda", Year: 2018, UserID: e.userID, Price: 80000})
	require.NoError(t, err)
	assert.Equal(t, market.ProductActive, created.Status)
	assert.Len(t, e.store.Snapshot().Products.Owned, 1)

	toggled, err := e.d.ToggleProductStatus(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, market.ProductSold, toggled.Status)

	before := e.store.Snapshot().Favorites.Items
	on, err := e.d.ToggleFavorite(ctx, e.userID, items[0].ID)
	require.NoError(t, err)
	assert.True(t, on)
	favs := state.FavoriteProducts(e.store.Snapshot(), e.userID)
	require.Len(t, favs, 1)
	assert.Equal(t, items[0].ID, favs[0].ID)

	on, err = e.d.ToggleFavorite(ctx, e.userID, items[0].ID)
	require.NoError(t, err)
	assert.False(t, on)
	assert.Equal(t, len(before), len(e.store.Snapshot().Favorites.Items))

	remote, err := e.d.FetchFavorites(ctx, e.userID)
	require.NoError(t, err)
	assert.Empty(t, remote)

	_, err = e.d.RemoveProduct(ctx, created)
	require.NoError(t, err)
	assert.Empty(t, e.store.Snapshot().Products.Owned)
}

func TestProducts_OnlyOwnerMayEdit(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.login(t)

	items, err := e.d.FetchProducts(ctx)
	require.NoError(t, err)
	foreign := items[0]
	foreign.Title = "Mine now"

	_, err = e.d.UpdateProduct(ctx, foreign)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, api.StatusCode(err))
	assert.Equal(t, "Bike", e.store.Snapshot().Products.Items[0].Title)
}

func TestAddresses_RemoteEndpoints(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.login(t)

	var ids []market.ID
	for _, label := range []string{market.LabelHome, market.LabelWork, market.LabelOther} {
		a, err := e.d.CreateAddress(ctx, e.userID, validAddress(label))
		require.NoError(t, err)
		ids = append(ids, a.ID)
	}
	_, err := e.d.CreateAddress(ctx, e.userID, validAddress(market.LabelOther))
	require.ErrorIs(t, err, market.ErrAddressLimit)

	_, err = e.d.RemoveAddress(ctx, e.userID, ids[0])
	require.NoError(t, err)
	p, ok := state.PrimaryAddress(e.store.Snapshot())
	require.True(t, ok)
	assert.Equal(t, ids[1], p.ID)

	_, err = e.d.SetPrimaryAddress(ctx, e.userID, ids[2])
	require.NoError(t, err)

	remote, err := e.d.FetchAddresses(ctx, e.userID)
	require.NoError(t, err)
	require.Len(t, remote, 2)
	assert.Equal(t, 1, market.CountPrimary(remote))
	assert.True(t, remote[1].IsPrimary)
	assert.Equal(t, market.ModeRemote, e.store.Snapshot().Addresses.Mode)
}

func TestAddresses_MissingEndpointLatchesLocal(t *testing.T) {
	e := newEnv(t, WithAddresses(false))
	ctx := context.Background()
	e.login(t)

	list, err := e.d.FetchAddresses(ctx, e.userID)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Equal(t, market.ModeLocal, e.addresses.Mode())
	assert.Equal(t, market.ModeLocal, e.store.Snapshot().Addresses.Mode)
	require.EqualValues(t, 1, e.addrHits.Load())

	first, err := e.d.CreateAddress(ctx, e.userID, validAddress(market.LabelHome))
	require.NoError(t, err)
	assert.True(t, first.IsPrimary)
	second, err := e.d.CreateAddress(ctx, e.userID, validAddress(market.LabelWork))
	require.NoError(t, err)
	_, err = e.d.RemoveAddress(ctx, e.userID, first.ID)
	require.NoError(t, err)

	stored, err := e.d.FetchAddresses(ctx, e.userID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, second.ID, stored[0].ID)
	assert.True(t, stored[0].IsPrimary)

	assert.EqualValues(t, 1, e.addrHits.Load(), "no network after the first 404")
}

func TestUsers_RegisterAndUpdateProfile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.d.Register(ctx, market.Registration{Name: "Bia", Email: "bia@x.com", CPF: "123.456.789-00", Password: "secret2"})
	require.NoError(t, err)
	_, err = e.d.Register(ctx, market.Registration{Name: "Bia", Email: "bia@x.com", CPF: "123.456.789-00", Password: "secret2"})
	assert.Equal(t, http.StatusConflict, api.StatusCode(err))

	users, err := e.d.FetchUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	e.login(t)
	u, err := e.d.UpdateProfile(ctx, market.ProfileUpdate{Name: "Ana Lima", Email: "ana@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "Ana Lima", u.Name)
	cur, _ := state.CurrentUser(e.store.Snapshot())
	assert.Equal(t, "Ana Lima", cur.Name)
}

func TestHandler_CORSPreflight(t *testing.T) {
	srv := New()
	req := httptest.NewRequest(http.MethodOptions, "/items", nil)
	req.Header.Set("Origin", "http://localhost:8081")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestAddresses_StaleIDKeepsRemoteMode(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.login(t)

	first, err := e.d.CreateAddress(ctx, e.userID, validAddress(market.LabelHome))
	require.NoError(t, err)
	require.True(t, first.IsPrimary)

	_, err = e.d.SetPrimaryAddress(ctx, e.userID, "stale-id")
	require.ErrorIs(t, err, market.ErrAddressNotFound)
	_, err = e.d.UpdateAddress(ctx, e.userID, "stale-id", validAddress(market.LabelWork))
	require.ErrorIs(t, err, market.ErrAddressNotFound)
	assert.Equal(t, market.ModeRemote, e.addresses.Mode())
	assert.Equal(t, market.ModeRemote, e.store.Snapshot().Addresses.Mode)

	second, err := e.d.CreateAddress(ctx, e.userID, validAddress(market.LabelWork))
	require.NoError(t, err)
	assert.False(t, second.IsPrimary)
	assert.Equal(t, 1, market.CountPrimary(e.store.Snapshot().Addresses.Items))

	remote, err := e.d.FetchAddresses(ctx, e.userID)
	require.NoError(t, err)
	require.Len(t, remote, 2)
	assert.Equal(t, first.ID, remote[0].ID)
	assert.Equal(t, 1, market.CountPrimary(remote))
}

func TestUsers_FetchUserAndChangePassword(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	u, err := e.d.FetchUser(ctx, e.userID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", u.Name)
	require.NotNil(t, e.store.Snapshot().Users.Detail)

	_, err = e.d.FetchUser(ctx, "404404")
	assert.Equal(t, http.StatusNotFound, api.StatusCode(err))

	e.login(t)
	err = e.d.ChangePassword(ctx, market.PasswordChange{Password: "newpass1", Confirm: "other"})
	require.Error(t, err)
	require.NoError(t, e.d.ChangePassword(ctx, market.PasswordChange{Password: "newpass1", Confirm: "newpass1"}))

	_, err = e.d.Login(ctx, market.Credentials{Email: "ana@x.com", Password: "secret1"})
	assert.Equal(t, http.StatusUnauthorized, api.StatusCode(err))
	_, err = e.d.Login(ctx, market.Credentials{Email: "ana@x.com", Password: "newpass1"})
	require.NoError(t, err)
}
