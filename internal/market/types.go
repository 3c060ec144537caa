package market

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ID identifies any marketplace record. Backends emit ids as JSON strings
// or numbers; both decode to the same ID and compare string-wise.
type ID string

// UnmarshalJSON accepts strings, numbers and null.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// CategoryVehicle marks a listing as a vehicle; vehicle listings carry the
// optional vehicle fields and use the vehicle endpoints.
const CategoryVehicle = "veiculos"

// Listing status values.
const (
	ProductActive = "active"
	ProductSold   = "sold"
)

// Product is a marketplace listing.
type Product struct {
	ID          ID       `json:"id,omitempty"`
	Title       string   `json:"title" validate:"required,min=3"`
	Price       float64  `json:"price" validate:"gte=0"`
	Category    string   `json:"category" validate:"required"`
	Condition   string   `json:"condition,omitempty" validate:"required_unless=Category veiculos"`
	Description string   `json:"description,omitempty"`
	Images      []string `json:"images,omitempty"`
	UserID      ID       `json:"userId" validate:"required"`
	CreatedAt   string   `json:"createdAt,omitempty"`
	Status      string   `json:"status,omitempty" validate:"omitempty,oneof=active sold"`

	VehicleType string `json:"type,omitempty"`
	Year        int    `json:"year,omitempty" validate:"omitempty,gte=1900"`
	Brand       string `json:"brand,omitempty" validate:"required_if=Category veiculos"`
	Model       string `json:"model,omitempty"`
	Mileage     int    `json:"mileage,omitempty" validate:"gte=0"`
}

// IsVehicle reports whether the listing uses the vehicle fields.
func (p Product) IsVehicle() bool {
	return p.Category == CategoryVehicle
}

// ParsedCreatedAt returns the creation timestamp, or the zero time.
func (p Product) ParsedCreatedAt() time.Time {
	return parseTime(p.CreatedAt)
}

// Favorite marks a product as saved by a user.
type Favorite struct {
	ID        ID `json:"id,omitempty"`
	UserID    ID `json:"userId" validate:"required"`
	ProductID ID `json:"productId" validate:"required"`
}

// Address labels.
const (
	LabelHome  = "home"
	LabelWork  = "work"
	LabelOther = "other"
)

// MaxAddresses is the per-user address limit.
const MaxAddresses = 3

// ErrAddressLimit is returned when creating an address would exceed
// MaxAddresses.
var ErrAddressLimit = errors.New("address limit reached")

// Address is a user's postal address.
type Address struct {
	ID         ID     `json:"id,omitempty"`
	Label      string `json:"label" validate:"required,oneof=home work other"`
	Street     string `json:"street" validate:"required"`
	Number     string `json:"number" validate:"required"`
	Complement string `json:"complement,omitempty"`
	District   string `json:"district" validate:"required"`
	City       string `json:"city" validate:"required"`
	State      string `json:"state" validate:"required"`
	Zip        string `json:"zip" validate:"required"`
	IsPrimary  bool   `json:"isPrimary"`
}

// merge overlays the editable fields of patch onto a, keeping a's id and
// primary flag.
func (a Address) merge(patch Address) Address {
	out := patch
	out.ID = a.ID
	out.IsPrimary = a.IsPrimary
	return out
}

// NormalizePrimary returns a copy of list in which exactly one entry is
// primary when the list is non-empty: the first primary found wins and
// later ones are demoted; with none marked, the first entry is promoted.
func NormalizePrimary(list []Address) []Address {
	out := make([]Address, len(list))
	copy(out, list)
	found := false
	for i := range out {
		if out[i].IsPrimary && !found {
			found = true
			continue
		}
		out[i].IsPrimary = false
	}
	if !found && len(out) > 0 {
		out[0].IsPrimary = true
	}
	return out
}

// CountPrimary returns how many entries are marked primary.
func CountPrimary(list []Address) int {
	n := 0
	for _, a := range list {
		if a.IsPrimary {
			n++
		}
	}
	return n
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
