package state

import (
	"time"

	"github.com/five82/emarket/internal/market"
)

// Session pairs the bearer token with the signed-in user. The zero value
// means logged out.
type Session struct {
	Token string
	User  market.User
}

// Active reports whether the session holds a token.
func (s Session) Active() bool { return s.Token != "" }

// AuthState owns the session.
type AuthState struct {
	Request
	Session Session
}

// UserState owns the user directory. Detail is the last user fetched by
// id.
type UserState struct {
	Request
	Items  []market.User
	Detail *market.User
}

// ProductState owns the listings. Items is the marketplace feed, Owned the
// signed-in user's listings and Detail the last listing fetched by id.
type ProductState struct {
	Request
	Items  []market.Product
	Owned  []market.Product
	Detail *market.Product
}

// FavoriteState owns the favorites of the signed-in user.
type FavoriteState struct {
	Request
	Items []market.Favorite
}

// AddressState owns the addresses of the signed-in user. Owner is the
// user whose list Items holds, empty until a fetch succeeds. Mode mirrors
// the address client after each operation.
type AddressState struct {
	Request
	Items []market.Address
	Owner market.ID
	Mode  market.AddressMode
}

// SyncState tracks background reconciliation.
type SyncState struct {
	LastUpdated         time.Time
	LastError           string
	ConsecutiveFailures int
}

// IsOffline reports whether the backend has been unreachable for several
// reconciliation rounds.
func (s SyncState) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// State is the root state tree.
type State struct {
	Auth      AuthState
	Users     UserState
	Products  ProductState
	Favorites FavoriteState
	Addresses AddressState
	Sync      SyncState
}

func (s State) clone() State {
	out := s
	out.Users.Items = cloneSlice(s.Users.Items)
	if s.Users.Detail != nil {
		u := *s.Users.Detail
		out.Users.Detail = &u
	}
	out.Products.Items = cloneProducts(s.Products.Items)
	out.Products.Owned = cloneProducts(s.Products.Owned)
	if s.Products.Detail != nil {
		d := cloneProduct(*s.Products.Detail)
		out.Products.Detail = &d
	}
	out.Favorites.Items = cloneSlice(s.Favorites.Items)
	out.Addresses.Items = cloneSlice(s.Addresses.Items)
	return out
}

func cloneSlice[T any](items []T) []T {
	if len(items) == 0 {
		return nil
	}
	dup := make([]T, len(items))
	copy(dup, items)
	return dup
}

func cloneProduct(p market.Product) market.Product {
	p.Images = cloneSlice(p.Images)
	return p
}

func cloneProducts(items []market.Product) []market.Product {
	if len(items) == 0 {
		return nil
	}
	dup := make([]market.Product, len(items))
	for i, p := range items {
		dup[i] = cloneProduct(p)
	}
	return dup
}

// Collection updates never write into an existing backing array, so a
// slice handed out earlier keeps its contents.

func appendItem[T any](items []T, item T) []T {
	out := make([]T, len(items), len(items)+1)
	copy(out, items)
	return append(out, item)
}

func replaceByID[T any](items []T, item T, id func(T) market.ID) []T {
	out := make([]T, len(items))
	copy(out, items)
	for i := range out {
		if id(out[i]) == id(item) {
			out[i] = item
		}
	}
	return out
}

func removeByID[T any](items []T, target market.ID, id func(T) market.ID) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if id(it) != target {
			out = append(out, it)
		}
	}
	return out
}

func userID(u market.User) market.ID         { return u.ID }
func productID(p market.Product) market.ID   { return p.ID }
func favoriteID(f market.Favorite) market.ID { return f.ID }
func addressID(a market.Address) market.ID   { return a.ID }
