package market

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/five82/emarket/internal/api"
)

// FavoriteClient manages saved listings under /favorite.
type FavoriteClient struct {
	api api.Requester
}

// NewFavoriteClient builds a FavoriteClient over r.
func NewFavoriteClient(r api.Requester) *FavoriteClient {
	return &FavoriteClient{api: r}
}

// ListByUser returns userID's favorites.
func (c *FavoriteClient) ListByUser(ctx context.Context, userID ID) ([]Favorite, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id required")
	}
	var out []Favorite
	q := url.Values{"userId": {string(userID)}}
	if err := c.api.Do(ctx, http.MethodGet, "/favorite", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Add saves productID for userID.
func (c *FavoriteClient) Add(ctx context.Context, userID, productID ID) (Favorite, error) {
	if userID == "" || productID == "" {
		return Favorite{}, fmt.Errorf("user id and product id required")
	}
	var out Favorite
	body := Favorite{UserID: userID, ProductID: productID}
	if err := c.api.Do(ctx, http.MethodPost, "/favorite", nil, body, &out); err != nil {
		return Favorite{}, err
	}
	return out, nil
}

// Remove unsaves productID for userID. The favorite id is not known at
// toggle time, so the record is looked up by (userID, productID) and then
// deleted by id. Every match is deleted; no match is a no-op returning no
// ids.
func (c *FavoriteClient) Remove(ctx context.Context, userID, productID ID) ([]ID, error) {
	if userID == "" || productID == "" {
		return nil, fmt.Errorf("user id and product id required")
	}
	var matches []Favorite
	q := url.Values{"userId": {string(userID)}, "productId": {string(productID)}}
	if err := c.api.Do(ctx, http.MethodGet, "/favorite", q, nil, &matches); err != nil {
		return nil, fmt.Errorf("lookup favorite: %w", err)
	}
	var removed []ID
	for _, f := range matches {
		// some backends ignore unknown filters; never delete another pair
		if f.ID == "" || f.UserID != userID || f.ProductID != productID {
			continue
		}
		if err := c.api.Do(ctx, http.MethodDelete, "/favorite/"+url.PathEscape(string(f.ID)), nil, nil, nil); err != nil {
			return removed, err
		}
		removed = append(removed, f.ID)
	}
	return removed, nil
}
