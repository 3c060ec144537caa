package state

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/emarket/internal/kvstore"
	"github.com/five82/emarket/internal/market"
)

// ErrNotLoggedIn is returned by operations that need a session when none
// is active.
var ErrNotLoggedIn = errors.New("not logged in")

// AuthAPI signs users in.
type AuthAPI interface {
	Login(ctx context.Context, creds market.Credentials) (market.LoginResult, error)
}

// UserAPI is the user resource.
type UserAPI interface {
	List(ctx context.Context) ([]market.User, error)
	Get(ctx context.Context, id market.ID) (market.User, error)
	Create(ctx context.Context, reg market.Registration) (market.User, error)
	Update(ctx context.Context, id market.ID, patch market.ProfileUpdate) (market.User, error)
	UpdatePassword(ctx context.Context, id market.ID, newPassword string) error
	Delete(ctx context.Context, id market.ID) (market.ID, error)
}

// ProductAPI is the product resource.
type ProductAPI interface {
	List(ctx context.Context) ([]market.Product, error)
	ListByOwner(ctx context.Context, userID market.ID) ([]market.Product, error)
	SearchByTitle(ctx context.Context, title string) ([]market.Product, error)
	Get(ctx context.Context, id market.ID) (market.Product, error)
	Create(ctx context.Context, p market.Product) (market.Product, error)
	Update(ctx context.Context, p market.Product) (market.Product, error)
	Delete(ctx context.Context, p market.Product) (market.ID, error)
	ToggleStatus(ctx context.Context, id market.ID) (market.Product, error)
}

// FavoriteAPI is the favorite resource.
type FavoriteAPI interface {
	ListByUser(ctx context.Context, userID market.ID) ([]market.Favorite, error)
	Add(ctx context.Context, userID, productID market.ID) (market.Favorite, error)
	Remove(ctx context.Context, userID, productID market.ID) ([]market.ID, error)
}

// AddressAPI is the address resource.
type AddressAPI interface {
	List(ctx context.Context, userID market.ID) ([]market.Address, error)
	Create(ctx context.Context, userID market.ID, addr market.Address) (market.Address, error)
	Update(ctx context.Context, userID, id market.ID, addr market.Address) (market.Address, error)
	Remove(ctx context.Context, userID, id market.ID) (market.ID, error)
	SetPrimary(ctx context.Context, userID, id market.ID) (market.ID, error)
	Mode() market.AddressMode
}

// Deps are the collaborators a Dispatcher drives.
type Deps struct {
	Auth      AuthAPI
	Users     UserAPI
	Products  ProductAPI
	Favorites FavoriteAPI
	Addresses AddressAPI
	// Session persists the session keys. Nil disables persistence.
	Session kvstore.Store
}

// Dispatcher runs the async operations. Each one moves its slice through
// loading and then succeeded or failed; operations are not serialized
// against each other and the last one to finish wins.
type Dispatcher struct {
	store *Store
	deps  Deps
	log   zerolog.Logger
	now   func() time.Time

	addrMu sync.Mutex
}

// NewDispatcher builds a Dispatcher writing into store.
func NewDispatcher(store *Store, deps Deps, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{store: store, deps: deps, log: log, now: time.Now}
}

// Store returns the container the dispatcher writes into.
func (d *Dispatcher) Store() *Store { return d.store }

// dispatch runs call between the start and the fulfil/reject transitions
// of the Request picked by req. apply runs under the store lock on
// success only; a failure leaves every collection untouched.
func dispatch[R any](
	ctx context.Context,
	d *Dispatcher,
	op string,
	req func(*State) *Request,
	call func(context.Context) (R, error),
	apply func(*State, R),
) (R, error) {
	d.store.update(func(s *State) { req(s).start() })

	out, err := call(ctx)
	if err != nil {
		d.store.update(func(s *State) { req(s).fail(err) })
		d.log.Warn().Str("op", op).Err(err).Msg("operation failed")
		return out, err
	}

	d.store.update(func(s *State) {
		req(s).succeed()
		if apply != nil {
			apply(s, out)
		}
	})
	d.log.Debug().Str("op", op).Msg("operation succeeded")
	return out, nil
}

func authReq(s *State) *Request      { return &s.Auth.Request }
func usersReq(s *State) *Request     { return &s.Users.Request }
func productsReq(s *State) *Request  { return &s.Products.Request }
func favoritesReq(s *State) *Request { return &s.Favorites.Request }
func addressesReq(s *State) *Request { return &s.Addresses.Request }
