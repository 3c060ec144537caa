package state

import (
	"context"

	"github.com/five82/emarket/internal/market"
)

// FetchProducts replaces the marketplace feed.
func (d *Dispatcher) FetchProducts(ctx context.Context) ([]market.Product, error) {
	return dispatch(ctx, d, "fetch_products", productsReq,
		d.deps.Products.List,
		func(s *State, items []market.Product) { s.Products.Items = cloneProducts(items) },
	)
}

// SearchProducts replaces the feed with the listings matching title. An
// empty title fetches everything.
func (d *Dispatcher) SearchProducts(ctx context.Context, title string) ([]market.Product, error) {
	return dispatch(ctx, d, "search_products", productsReq,
		func(ctx context.Context) ([]market.Product, error) { return d.deps.Products.SearchByTitle(ctx, title) },
		func(s *State, items []market.Product) { s.Products.Items = cloneProducts(items) },
	)
}

// FetchProduct loads one listing into Detail and refreshes it in the
// collections that hold it.
func (d *Dispatcher) FetchProduct(ctx context.Context, id market.ID) (market.Product, error) {
	return dispatch(ctx, d, "fetch_product", productsReq,
		func(ctx context.Context) (market.Product, error) { return d.deps.Products.Get(ctx, id) },
		func(s *State, p market.Product) {
			detail := cloneProduct(p)
			s.Products.Detail = &detail
			s.Products.Items = replaceByID(s.Products.Items, p, productID)
			s.Products.Owned = replaceByID(s.Products.Owned, p, productID)
		},
	)
}

// FetchProductsByOwner replaces Owned with userID's listings.
func (d *Dispatcher) FetchProductsByOwner(ctx context.Context, userID market.ID) ([]market.Product, error) {
	return dispatch(ctx, d, "fetch_products_by_owner", productsReq,
		func(ctx context.Context) ([]market.Product, error) { return d.deps.Products.ListByOwner(ctx, userID) },
		func(s *State, items []market.Product) { s.Products.Owned = cloneProducts(items) },
	)
}

// CreateProduct publishes a listing. It is appended to the feed, and to
// Owned when the signed-in user owns it.
func (d *Dispatcher) CreateProduct(ctx context.Context, p market.Product) (market.Product, error) {
	return dispatch(ctx, d, "create_product", productsReq,
		func(ctx context.Context) (market.Product, error) { return d.deps.Products.Create(ctx, p) },
		func(s *State, created market.Product) {
			s.Products.Items = appendItem(s.Products.Items, created)
			if s.Auth.Session.Active() && created.UserID == s.Auth.Session.User.ID {
				s.Products.Owned = appendItem(s.Products.Owned, created)
			}
		},
	)
}

// UpdateProduct edits a listing in place.
func (d *Dispatcher) UpdateProduct(ctx context.Context, p market.Product) (market.Product, error) {
	return dispatch(ctx, d, "update_product", productsReq,
		func(ctx context.Context) (market.Product, error) { return d.deps.Products.Update(ctx, p) },
		applyProduct,
	)
}

// ToggleProductStatus flips a listing between active and sold.
func (d *Dispatcher) ToggleProductStatus(ctx context.Context, id market.ID) (market.Product, error) {
	return dispatch(ctx, d, "toggle_product_status", productsReq,
		func(ctx context.Context) (market.Product, error) { return d.deps.Products.ToggleStatus(ctx, id) },
		applyProduct,
	)
}

func applyProduct(s *State, p market.Product) {
	s.Products.Items = replaceByID(s.Products.Items, p, productID)
	s.Products.Owned = replaceByID(s.Products.Owned, p, productID)
	if s.Products.Detail != nil && s.Products.Detail.ID == p.ID {
		detail := cloneProduct(p)
		s.Products.Detail = &detail
	}
}

// RemoveProduct deletes a listing. Favorites pointing at it are left to
// the orphan filter in FavoriteProducts.
func (d *Dispatcher) RemoveProduct(ctx context.Context, p market.Product) (market.ID, error) {
	return dispatch(ctx, d, "remove_product", productsReq,
		func(ctx context.Context) (market.ID, error) { return d.deps.Products.Delete(ctx, p) },
		func(s *State, id market.ID) {
			s.Products.Items = removeByID(s.Products.Items, id, productID)
			s.Products.Owned = removeByID(s.Products.Owned, id, productID)
			if s.Products.Detail != nil && s.Products.Detail.ID == id {
				s.Products.Detail = nil
			}
		},
	)
}
