package market

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/five82/emarket/internal/kvstore"
)

// AddressKeyPrefix prefixes the per-user address list key.
const AddressKeyPrefix = "@addresses:"

// ErrAddressNotFound is returned when an address id is not in the list.
var ErrAddressNotFound = errors.New("address not found")

// AddressKey returns the storage key holding userID's address list.
func AddressKey(userID ID) string {
	return AddressKeyPrefix + string(userID)
}

// AddressFallback serves the address operations from a per-user list in
// a kvstore.Store. Every write replaces the whole list; read-modify-write
// cycles on one user's key are serialized.
type AddressFallback struct {
	store kvstore.Store
	newID func() ID

	mu    sync.Mutex
	locks map[ID]*sync.Mutex
}

// NewAddressFallback builds a fallback store over s.
func NewAddressFallback(s kvstore.Store) *AddressFallback {
	return &AddressFallback{
		store: s,
		newID: timeOrderedID,
		locks: make(map[ID]*sync.Mutex),
	}
}

func timeOrderedID() ID {
	u, err := uuid.NewV7()
	if err != nil {
		return ID(uuid.NewString())
	}
	return ID(u.String())
}

func (f *AddressFallback) lock(userID ID) func() {
	f.mu.Lock()
	l, ok := f.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		f.locks[userID] = l
	}
	f.mu.Unlock()
	l.Lock()
	return l.Unlock
}

func (f *AddressFallback) load(ctx context.Context, userID ID) ([]Address, error) {
	var list []Address
	if _, err := kvstore.GetJSON(ctx, f.store, AddressKey(userID), &list); err != nil {
		return nil, fmt.Errorf("load addresses: %w", err)
	}
	return list, nil
}

func (f *AddressFallback) save(ctx context.Context, userID ID, list []Address) error {
	if list == nil {
		list = []Address{}
	}
	if err := kvstore.SetJSON(ctx, f.store, AddressKey(userID), list); err != nil {
		return fmt.Errorf("save addresses: %w", err)
	}
	return nil
}

// List returns userID's stored addresses.
func (f *AddressFallback) List(ctx context.Context, userID ID) ([]Address, error) {
	unlock := f.lock(userID)
	defer unlock()
	return f.load(ctx, userID)
}

// Create stores addr under a new id. The first address becomes primary;
// later ones never are.
func (f *AddressFallback) Create(ctx context.Context, userID ID, addr Address) (Address, error) {
	unlock := f.lock(userID)
	defer unlock()

	list, err := f.load(ctx, userID)
	if err != nil {
		return Address{}, err
	}
	if len(list) >= MaxAddresses {
		return Address{}, ErrAddressLimit
	}
	item := addr
	item.ID = f.newID()
	item.IsPrimary = len(list) == 0
	next := append(list, item)
	if err := f.save(ctx, userID, next); err != nil {
		return Address{}, err
	}
	return item, nil
}

// Update overlays addr onto the stored entry id, keeping its primary flag.
func (f *AddressFallback) Update(ctx context.Context, userID, id ID, addr Address) (Address, error) {
	unlock := f.lock(userID)
	defer unlock()

	list, err := f.load(ctx, userID)
	if err != nil {
		return Address{}, err
	}
	idx := indexAddress(list, id)
	if idx < 0 {
		return Address{}, fmt.Errorf("%w: %s", ErrAddressNotFound, id)
	}
	list[idx] = list[idx].merge(addr)
	if err := f.save(ctx, userID, list); err != nil {
		return Address{}, err
	}
	return list[idx], nil
}

// Remove deletes entry id. Removing the primary promotes the first
// remaining entry; otherwise the remaining list is swept so exactly one
// entry stays primary. An unknown id is a no-op.
func (f *AddressFallback) Remove(ctx context.Context, userID, id ID) (ID, error) {
	unlock := f.lock(userID)
	defer unlock()

	list, err := f.load(ctx, userID)
	if err != nil {
		return "", err
	}
	idx := indexAddress(list, id)
	if idx < 0 {
		return id, nil
	}
	removed := list[idx]
	rest := make([]Address, 0, len(list)-1)
	rest = append(rest, list[:idx]...)
	rest = append(rest, list[idx+1:]...)

	if removed.IsPrimary && len(rest) > 0 {
		for i := range rest {
			rest[i].IsPrimary = i == 0
		}
	} else {
		rest = NormalizePrimary(rest)
	}
	if err := f.save(ctx, userID, rest); err != nil {
		return "", err
	}
	return id, nil
}

// SetPrimary marks id primary and every other entry not primary.
func (f *AddressFallback) SetPrimary(ctx context.Context, userID, id ID) (ID, error) {
	unlock := f.lock(userID)
	defer unlock()

	list, err := f.load(ctx, userID)
	if err != nil {
		return "", err
	}
	if indexAddress(list, id) < 0 {
		return "", fmt.Errorf("%w: %s", ErrAddressNotFound, id)
	}
	for i := range list {
		list[i].IsPrimary = list[i].ID == id
	}
	if err := f.save(ctx, userID, list); err != nil {
		return "", err
	}
	return id, nil
}

func indexAddress(list []Address, id ID) int {
	for i, a := range list {
		if a.ID == id {
			return i
		}
	}
	return -1
}
