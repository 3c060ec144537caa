package market

import (
	"encoding/json"
	"fmt"
	"strings"
)

// User is the canonical account shape. Backends disagree on field names;
// decoding always goes through NormalizeUser so variants stop here.
type User struct {
	ID        ID     `json:"id,omitempty"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// Known backend spellings, in order of preference.
var (
	userIDKeys     = []string{"id", "_id", "userId", "uid"}
	userNameKeys   = []string{"name", "nome", "fullName", "username"}
	userEmailKeys  = []string{"email", "mail"}
	userAvatarKeys = []string{"avatarUrl", "avatar", "photo", "foto", "picture"}
)

// UnmarshalJSON decodes any known backend variant into the canonical shape.
func (u *User) UnmarshalJSON(b []byte) error {
	n, err := NormalizeUser(b)
	if err != nil {
		return err
	}
	*u = n
	return nil
}

// NormalizeUser maps a raw backend user object into User.
func NormalizeUser(raw []byte) (User, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return User{}, fmt.Errorf("decode user: %w", err)
	}
	return normalizeFields(fields)
}

func normalizeFields(fields map[string]json.RawMessage) (User, error) {
	var u User
	for _, k := range userIDKeys {
		v, ok := fields[k]
		if !ok {
			continue
		}
		var id ID
		if err := json.Unmarshal(v, &id); err != nil {
			return User{}, fmt.Errorf("decode user %s: %w", k, err)
		}
		if id != "" {
			u.ID = id
			break
		}
	}
	u.Name = firstString(fields, userNameKeys)
	u.Email = strings.ToLower(firstString(fields, userEmailKeys))
	u.AvatarURL = firstString(fields, userAvatarKeys)
	return u, nil
}

func firstString(fields map[string]json.RawMessage, keys []string) string {
	for _, k := range keys {
		v, ok := fields[k]
		if !ok {
			continue
		}
		var s string
		if json.Unmarshal(v, &s) == nil {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

// Registration is the sign-up payload.
type Registration struct {
	Name     string `json:"name" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	CPF      string `json:"cpf" validate:"required,cpf"`
	Password string `json:"password" validate:"required,min=6"`
}

// ProfileUpdate carries the editable profile fields.
type ProfileUpdate struct {
	Name  string `json:"name" validate:"required,min=2"`
	Email string `json:"email" validate:"required,email"`
}

// PasswordChange is the change-password form.
type PasswordChange struct {
	Password string `json:"password" validate:"required,min=6"`
	Confirm  string `json:"-" validate:"required,eqfield=Password"`
}

// Credentials are the login form values.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}
