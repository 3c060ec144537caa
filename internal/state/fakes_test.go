package state

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/five82/emarket/internal/kvstore"
	"github.com/five82/emarket/internal/market"
)

type fakeAuth struct {
	res market.LoginResult
	err error
}

func (f *fakeAuth) Login(context.Context, market.Credentials) (market.LoginResult, error) {
	return f.res, f.err
}

type fakeUsers struct {
	items    []market.User
	err      error
	password map[market.ID]string
}

func (f *fakeUsers) List(context.Context) ([]market.User, error) { return f.items, f.err }

func (f *fakeUsers) Get(_ context.Context, id market.ID) (market.User, error) {
	for _, u := range f.items {
		if u.ID == id {
			return u, f.err
		}
	}
	return market.User{}, fmt.Errorf("user %s not found", id)
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id market.ID, pw string) error {
	if f.err != nil {
		return f.err
	}
	if f.password == nil {
		f.password = map[market.ID]string{}
	}
	f.password[id] = pw
	return nil
}

func (f *fakeUsers) Create(_ context.Context, reg market.Registration) (market.User, error) {
	if f.err != nil {
		return market.User{}, f.err
	}
	return market.User{ID: "new", Name: reg.Name, Email: reg.Email}, nil
}

func (f *fakeUsers) Update(_ context.Context, id market.ID, patch market.ProfileUpdate) (market.User, error) {
	if f.err != nil {
		return market.User{}, f.err
	}
	return market.User{ID: id, Name: patch.Name, Email: patch.Email}, nil
}

func (f *fakeUsers) Delete(_ context.Context, id market.ID) (market.ID, error) { return id, f.err }

type fakeProducts struct {
	items []market.Product
	err   error
	// gate, when set, blocks List until closed.
	gate    chan struct{}
	started chan struct{}
}

func (f *fakeProducts) List(ctx context.Context) ([]market.Product, error) {
	if f.started != nil {
		close(f.started)
	}
	if f.gate != nil {
		<-f.gate
	}
	return f.items, f.err
}

func (f *fakeProducts) ListByOwner(_ context.Context, userID market.ID) ([]market.Product, error) {
	var out []market.Product
	for _, p := range f.items {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, f.err
}

func (f *fakeProducts) SearchByTitle(context.Context, string) ([]market.Product, error) {
	return f.items, f.err
}

func (f *fakeProducts) Get(_ context.Context, id market.ID) (market.Product, error) {
	for _, p := range f.items {
		if p.ID == id {
			return p, nil
		}
	}
	return market.Product{}, fmt.Errorf("product %s not found", id)
}

func (f *fakeProducts) Create(_ context.Context, p market.Product) (market.Product, error) {
	p.ID = "created"
	return p, f.err
}

func (f *fakeProducts) Update(_ context.Context, p market.Product) (market.Product, error) {
	return p, f.err
}

func (f *fakeProducts) Delete(_ context.Context, p market.Product) (market.ID, error) {
	return p.ID, f.err
}

func (f *fakeProducts) ToggleStatus(_ context.Context, id market.ID) (market.Product, error) {
	return market.Product{ID: id, Status: market.ProductSold}, f.err
}

// fakeFavorites is a tiny in-memory backend.
type fakeFavorites struct {
	mu    sync.Mutex
	items []market.Favorite
	next  int
	err   error
}

func (f *fakeFavorites) ListByUser(_ context.Context, userID market.ID) ([]market.Favorite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []market.Favorite
	for _, it := range f.items {
		if it.UserID == userID {
			out = append(out, it)
		}
	}
	return out, f.err
}

func (f *fakeFavorites) Add(_ context.Context, userID, productID market.ID) (market.Favorite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return market.Favorite{}, f.err
	}
	f.next++
	fav := market.Favorite{ID: market.ID(fmt.Sprintf("f%d", f.next)), UserID: userID, ProductID: productID}
	f.items = append(f.items, fav)
	return fav, nil
}

func (f *fakeFavorites) Remove(_ context.Context, userID, productID market.ID) ([]market.ID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var removed []market.ID
	kept := f.items[:0]
	for _, it := range f.items {
		if it.UserID == userID && it.ProductID == productID {
			removed = append(removed, it.ID)
			continue
		}
		kept = append(kept, it)
	}
	f.items = kept
	return removed, nil
}

// countingAddresses wraps a real AddressClient and counts calls.
type countingAddresses struct {
	*market.AddressClient
	calls int
}

func (c *countingAddresses) Create(ctx context.Context, userID market.ID, a market.Address) (market.Address, error) {
	c.calls++
	return c.AddressClient.Create(ctx, userID, a)
}

func newLocalAddresses() *countingAddresses {
	fb := market.NewAddressFallback(kvstore.NewMemory())
	return &countingAddresses{AddressClient: market.NewAddressClient(nil, fb, zerolog.Nop())}
}

type harness struct {
	store     *Store
	d         *Dispatcher
	auth      *fakeAuth
	users     *fakeUsers
	products  *fakeProducts
	favorites *fakeFavorites
	addresses *countingAddresses
	kv        kvstore.Store
}

func newHarness() *harness {
	h := &harness{
		store:     NewStore(),
		auth:      &fakeAuth{},
		users:     &fakeUsers{},
		products:  &fakeProducts{},
		favorites: &fakeFavorites{},
		addresses: newLocalAddresses(),
		kv:        kvstore.NewMemory(),
	}
	h.d = NewDispatcher(h.store, Deps{
		Auth:      h.auth,
		Users:     h.users,
		Products:  h.products,
		Favorites: h.favorites,
		Addresses: h.addresses,
		Session:   h.kv,
	}, zerolog.Nop())
	return h
}
