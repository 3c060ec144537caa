package state

import (
	"context"

	"github.com/five82/emarket/internal/market"
)

// FetchAddresses replaces the address list with userID's.
func (d *Dispatcher) FetchAddresses(ctx context.Context, userID market.ID) ([]market.Address, error) {
	return addressOp(ctx, d, "fetch_addresses",
		func(ctx context.Context) ([]market.Address, error) { return d.deps.Addresses.List(ctx, userID) },
		func(s *State, items []market.Address) {
			s.Addresses.Items = cloneSlice(items)
			s.Addresses.Owner = userID
		},
	)
}

// CreateAddress adds an address. The limit is checked against userID's
// fetched list, fetching it first when the slice holds no list for
// userID. With MaxAddresses already held it returns market.ErrAddressLimit
// without calling Create and without touching the slice. Creates are
// serialized so concurrent calls cannot both pass the check; the backend
// enforces the limit too.
func (d *Dispatcher) CreateAddress(ctx context.Context, userID market.ID, addr market.Address) (market.Address, error) {
	d.addrMu.Lock()
	defer d.addrMu.Unlock()

	if d.store.Snapshot().Addresses.Owner != userID {
		if _, err := d.FetchAddresses(ctx, userID); err != nil {
			return market.Address{}, err
		}
	}
	if !CanAddAddress(d.store.Snapshot()) {
		return market.Address{}, market.ErrAddressLimit
	}
	return addressOp(ctx, d, "create_address",
		func(ctx context.Context) (market.Address, error) { return d.deps.Addresses.Create(ctx, userID, addr) },
		func(s *State, a market.Address) {
			items := appendItem(s.Addresses.Items, a)
			if a.IsPrimary {
				for i := range items[:len(items)-1] {
					items[i].IsPrimary = false
				}
			}
			s.Addresses.Items = market.NormalizePrimary(items)
		},
	)
}

// UpdateAddress edits an address in place.
func (d *Dispatcher) UpdateAddress(ctx context.Context, userID, id market.ID, addr market.Address) (market.Address, error) {
	return addressOp(ctx, d, "update_address",
		func(ctx context.Context) (market.Address, error) { return d.deps.Addresses.Update(ctx, userID, id, addr) },
		func(s *State, a market.Address) { s.Addresses.Items = replaceByID(s.Addresses.Items, a, addressID) },
	)
}

// RemoveAddress deletes an address. Removing the primary promotes the
// first remaining address.
func (d *Dispatcher) RemoveAddress(ctx context.Context, userID, id market.ID) (market.ID, error) {
	return addressOp(ctx, d, "remove_address",
		func(ctx context.Context) (market.ID, error) { return d.deps.Addresses.Remove(ctx, userID, id) },
		func(s *State, removed market.ID) {
			rest := removeByID(s.Addresses.Items, removed, addressID)
			s.Addresses.Items = market.NormalizePrimary(rest)
		},
	)
}

// SetPrimaryAddress makes id the only primary address.
func (d *Dispatcher) SetPrimaryAddress(ctx context.Context, userID, id market.ID) (market.ID, error) {
	return addressOp(ctx, d, "set_primary_address",
		func(ctx context.Context) (market.ID, error) { return d.deps.Addresses.SetPrimary(ctx, userID, id) },
		func(s *State, primary market.ID) {
			items := cloneSlice(s.Addresses.Items)
			for i := range items {
				items[i].IsPrimary = items[i].ID == primary
			}
			s.Addresses.Items = items
		},
	)
}

// addressOp is dispatch on the address slice that also mirrors the
// client's mode, which may have latched during the call.
func addressOp[R any](
	ctx context.Context,
	d *Dispatcher,
	op string,
	call func(context.Context) (R, error),
	apply func(*State, R),
) (R, error) {
	out, err := dispatch(ctx, d, op, addressesReq, call, apply)
	mode := d.deps.Addresses.Mode()
	d.store.update(func(s *State) { s.Addresses.Mode = mode })
	return out, err
}
