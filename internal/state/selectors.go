package state

import "github.com/five82/emarket/internal/market"

// Selectors are pure reads over a State value.

// FavoriteProducts joins userID's favorites to the feed, in favorite
// order. Favorites whose product no longer resolves are dropped.
func FavoriteProducts(s State, userID market.ID) []market.Product {
	byID := make(map[market.ID]market.Product, len(s.Products.Items))
	for _, p := range s.Products.Items {
		byID[p.ID] = p
	}
	var out []market.Product
	seen := make(map[market.ID]bool)
	for _, f := range s.Favorites.Items {
		if f.UserID != userID || seen[f.ProductID] {
			continue
		}
		p, ok := byID[f.ProductID]
		if !ok {
			continue
		}
		seen[f.ProductID] = true
		out = append(out, p)
	}
	return out
}

// IsFavorite reports whether userID has saved productID.
func IsFavorite(s State, userID, productID market.ID) bool {
	for _, f := range s.Favorites.Items {
		if f.UserID == userID && f.ProductID == productID {
			return true
		}
	}
	return false
}

// PrimaryAddress returns the first address marked primary.
func PrimaryAddress(s State) (market.Address, bool) {
	for _, a := range s.Addresses.Items {
		if a.IsPrimary {
			return a, true
		}
	}
	return market.Address{}, false
}

// CanAddAddress reports whether another address may be created.
func CanAddAddress(s State) bool {
	return len(s.Addresses.Items) < market.MaxAddresses
}

// IsLoggedIn reports whether a session is active.
func IsLoggedIn(s State) bool {
	return s.Auth.Session.Active()
}

// CurrentUser returns the signed-in user.
func CurrentUser(s State) (market.User, bool) {
	if !s.Auth.Session.Active() {
		return market.User{}, false
	}
	return s.Auth.Session.User, true
}

// OwnedBy returns the feed listings owned by userID.
func OwnedBy(s State, userID market.ID) []market.Product {
	var out []market.Product
	for _, p := range s.Products.Items {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out
}
