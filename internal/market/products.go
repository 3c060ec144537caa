package market

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/five82/emarket/internal/api"
)

// ProductClient manages listings under /items. Writes go to
// /items/vehicle for vehicle listings and /items/product otherwise.
type ProductClient struct {
	api api.Requester
}

// NewProductClient builds a ProductClient over r.
func NewProductClient(r api.Requester) *ProductClient {
	return &ProductClient{api: r}
}

func writePath(p Product) string {
	base := "/items/product"
	if p.IsVehicle() {
		base = "/items/vehicle"
	}
	if p.ID == "" {
		return base
	}
	return base + "/" + url.PathEscape(string(p.ID))
}

// List returns every listing.
func (c *ProductClient) List(ctx context.Context) ([]Product, error) {
	return c.list(ctx, nil)
}

// ListByOwner returns the listings owned by userID.
func (c *ProductClient) ListByOwner(ctx context.Context, userID ID) ([]Product, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id required")
	}
	return c.list(ctx, url.Values{"userId": {string(userID)}})
}

// SearchByTitle returns listings whose title contains title.
func (c *ProductClient) SearchByTitle(ctx context.Context, title string) ([]Product, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return c.List(ctx)
	}
	return c.list(ctx, url.Values{"title": {title}})
}

func (c *ProductClient) list(ctx context.Context, q url.Values) ([]Product, error) {
	var out []Product
	if err := c.api.Do(ctx, http.MethodGet, "/items", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns one listing.
func (c *ProductClient) Get(ctx context.Context, id ID) (Product, error) {
	if id == "" {
		return Product{}, fmt.Errorf("product id required")
	}
	var out Product
	if err := c.api.Do(ctx, http.MethodGet, "/items/"+url.PathEscape(string(id)), nil, nil, &out); err != nil {
		return Product{}, err
	}
	return out, nil
}

// Create publishes p and returns it as persisted.
func (c *ProductClient) Create(ctx context.Context, p Product) (Product, error) {
	p.ID = ""
	var out Product
	if err := c.api.Do(ctx, http.MethodPost, writePath(p), nil, p, &out); err != nil {
		return Product{}, err
	}
	return out, nil
}

// Update patches listing p.ID with p.
func (c *ProductClient) Update(ctx context.Context, p Product) (Product, error) {
	if p.ID == "" {
		return Product{}, fmt.Errorf("product id required")
	}
	var out Product
	if err := c.api.Do(ctx, http.MethodPatch, writePath(p), nil, p, &out); err != nil {
		return Product{}, err
	}
	if out.ID == "" {
		out = p
	}
	return out, nil
}

// Delete removes listing p and returns its id.
func (c *ProductClient) Delete(ctx context.Context, p Product) (ID, error) {
	if p.ID == "" {
		return "", fmt.Errorf("product id required")
	}
	if err := c.api.Do(ctx, http.MethodDelete, writePath(p), nil, nil, nil); err != nil {
		return "", err
	}
	return p.ID, nil
}

// ToggleStatus flips a listing between active and sold.
func (c *ProductClient) ToggleStatus(ctx context.Context, id ID) (Product, error) {
	if id == "" {
		return Product{}, fmt.Errorf("product id required")
	}
	var out Product
	path := "/items/" + url.PathEscape(string(id)) + "/status"
	if err := c.api.Do(ctx, http.MethodPatch, path, nil, nil, &out); err != nil {
		return Product{}, err
	}
	return out, nil
}
