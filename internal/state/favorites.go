package state

import (
	"context"

	"github.com/five82/emarket/internal/market"
)

// FetchFavorites replaces the favorites with userID's.
func (d *Dispatcher) FetchFavorites(ctx context.Context, userID market.ID) ([]market.Favorite, error) {
	return dispatch(ctx, d, "fetch_favorites", favoritesReq,
		func(ctx context.Context) ([]market.Favorite, error) { return d.deps.Favorites.ListByUser(ctx, userID) },
		func(s *State, items []market.Favorite) { s.Favorites.Items = cloneSlice(items) },
	)
}

// AddFavorite saves productID for userID.
func (d *Dispatcher) AddFavorite(ctx context.Context, userID, productID market.ID) (market.Favorite, error) {
	return dispatch(ctx, d, "add_favorite", favoritesReq,
		func(ctx context.Context) (market.Favorite, error) { return d.deps.Favorites.Add(ctx, userID, productID) },
		func(s *State, f market.Favorite) {
			if f.UserID == "" {
				f.UserID = userID
			}
			if f.ProductID == "" {
				f.ProductID = productID
			}
			s.Favorites.Items = appendItem(s.Favorites.Items, f)
		},
	)
}

// RemoveFavorite unsaves productID for userID. Every favorite the backend
// deleted is dropped, along with any local entry for the same pair.
func (d *Dispatcher) RemoveFavorite(ctx context.Context, userID, productID market.ID) ([]market.ID, error) {
	return dispatch(ctx, d, "remove_favorite", favoritesReq,
		func(ctx context.Context) ([]market.ID, error) { return d.deps.Favorites.Remove(ctx, userID, productID) },
		func(s *State, ids []market.ID) {
			items := s.Favorites.Items
			for _, id := range ids {
				items = removeByID(items, id, favoriteID)
			}
			out := make([]market.Favorite, 0, len(items))
			for _, f := range items {
				if f.UserID == userID && f.ProductID == productID {
					continue
				}
				out = append(out, f)
			}
			s.Favorites.Items = out
		},
	)
}

// ToggleFavorite adds or removes the (userID, productID) favorite based
// on the current state and reports whether the product is now saved.
func (d *Dispatcher) ToggleFavorite(ctx context.Context, userID, productID market.ID) (bool, error) {
	if userID == "" {
		return false, ErrNotLoggedIn
	}
	if IsFavorite(d.store.Snapshot(), userID, productID) {
		if _, err := d.RemoveFavorite(ctx, userID, productID); err != nil {
			return true, err
		}
		return false, nil
	}
	if _, err := d.AddFavorite(ctx, userID, productID); err != nil {
		return false, err
	}
	return true, nil
}
