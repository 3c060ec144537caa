package market

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/five82/emarket/internal/api"
)

// AddressMode says where AddressClient sends its operations.
type AddressMode int32

const (
	// ModeRemote uses the backend address endpoints.
	ModeRemote AddressMode = iota
	// ModeLocal uses the AddressFallback store. Entered on the first 404
	// and never left for the life of the client.
	ModeLocal
)

func (m AddressMode) String() string {
	if m == ModeLocal {
		return "local"
	}
	return "remote"
}

// AddressClient manages addresses under /users/{id}/addresses, falling
// back to local storage when the backend has no such endpoint.
type AddressClient struct {
	api   api.Requester
	local *AddressFallback
	mode  atomic.Int32
	log   zerolog.Logger
}

// NewAddressClient builds an AddressClient that starts in ModeRemote.
func NewAddressClient(r api.Requester, local *AddressFallback, log zerolog.Logger) *AddressClient {
	return &AddressClient{api: r, local: local, log: log}
}

// Mode reports the current mode.
func (c *AddressClient) Mode() AddressMode {
	return AddressMode(c.mode.Load())
}

func addressesPath(userID ID) string {
	return "/users/" + url.PathEscape(string(userID)) + "/addresses"
}

func addressPath(userID, id ID) string {
	return addressesPath(userID) + "/" + url.PathEscape(string(id))
}

// withFallback runs remote unless the client is latched local. A 404 from
// remote latches ModeLocal and answers from local instead; any other error
// propagates untouched. Item operations pass confirm: an item 404 only
// latches when confirm also finds the collection route missing, otherwise
// it is a stale id and surfaces as ErrAddressNotFound.
func withFallback[T any](c *AddressClient, op string, remote, local func() (T, error), confirm func() bool) (T, error) {
	if c.Mode() == ModeLocal || c.api == nil {
		return local()
	}
	out, err := remote()
	if err == nil {
		return out, nil
	}
	if !api.IsNotFound(err) {
		return out, err
	}
	if confirm != nil && !confirm() {
		return out, fmt.Errorf("%w: %w", ErrAddressNotFound, err)
	}
	if c.mode.CompareAndSwap(int32(ModeRemote), int32(ModeLocal)) {
		c.log.Info().Str("op", op).Msg("address endpoint missing, switching to local storage")
	}
	return local()
}

// routeMissing reports whether the address collection of userID answers
// 404, which means the backend has no address endpoints at all.
func (c *AddressClient) routeMissing(ctx context.Context, userID ID) func() bool {
	return func() bool {
		err := c.api.Do(ctx, http.MethodGet, addressesPath(userID), nil, nil, nil)
		return api.IsNotFound(err)
	}
}

// List returns userID's addresses.
func (c *AddressClient) List(ctx context.Context, userID ID) ([]Address, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id required")
	}
	return withFallback(c, "list",
		func() ([]Address, error) {
			var out []Address
			err := c.api.Do(ctx, http.MethodGet, addressesPath(userID), nil, nil, &out)
			return out, err
		},
		func() ([]Address, error) { return c.local.List(ctx, userID) },
		nil,
	)
}

// Create adds addr for userID and returns it with its id.
func (c *AddressClient) Create(ctx context.Context, userID ID, addr Address) (Address, error) {
	if userID == "" {
		return Address{}, fmt.Errorf("user id required")
	}
	addr.ID = ""
	return withFallback(c, "create",
		func() (Address, error) {
			var out Address
			err := c.api.Do(ctx, http.MethodPost, addressesPath(userID), nil, addr, &out)
			return out, err
		},
		func() (Address, error) { return c.local.Create(ctx, userID, addr) },
		nil,
	)
}

// Update replaces address id.
func (c *AddressClient) Update(ctx context.Context, userID, id ID, addr Address) (Address, error) {
	if userID == "" || id == "" {
		return Address{}, fmt.Errorf("user id and address id required")
	}
	return withFallback(c, "update",
		func() (Address, error) {
			var out Address
			err := c.api.Do(ctx, http.MethodPut, addressPath(userID, id), nil, addr, &out)
			if err == nil && out.ID == "" {
				out = addr
				out.ID = id
			}
			return out, err
		},
		func() (Address, error) { return c.local.Update(ctx, userID, id, addr) },
		c.routeMissing(ctx, userID),
	)
}

// Remove deletes address id and returns it.
func (c *AddressClient) Remove(ctx context.Context, userID, id ID) (ID, error) {
	if userID == "" || id == "" {
		return "", fmt.Errorf("user id and address id required")
	}
	return withFallback(c, "remove",
		func() (ID, error) {
			err := c.api.Do(ctx, http.MethodDelete, addressPath(userID, id), nil, nil, nil)
			return id, err
		},
		func() (ID, error) { return c.local.Remove(ctx, userID, id) },
		c.routeMissing(ctx, userID),
	)
}

// SetPrimary promotes address id and returns it.
func (c *AddressClient) SetPrimary(ctx context.Context, userID, id ID) (ID, error) {
	if userID == "" || id == "" {
		return "", fmt.Errorf("user id and address id required")
	}
	return withFallback(c, "set_primary",
		func() (ID, error) {
			err := c.api.Do(ctx, http.MethodPost, addressPath(userID, id)+"/primary", nil, nil, nil)
			return id, err
		},
		func() (ID, error) { return c.local.SetPrimary(ctx, userID, id) },
		c.routeMissing(ctx, userID),
	)
}
