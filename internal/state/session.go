package state

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/five82/emarket/internal/market"
)

// Persisted session keys.
const (
	TokenKey = "@token"
	UserKey  = "@user"
)

// tokenExpired reports whether token is a JWT whose exp claim has passed.
// Tokens that do not parse as JWTs carry no expiry and never expire here.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(now)
}

func (d *Dispatcher) persistSession(ctx context.Context, sess Session) {
	if d.deps.Session == nil {
		return
	}
	raw, err := json.Marshal(sess.User)
	if err != nil {
		d.log.Warn().Err(err).Msg("encode session user")
		return
	}
	entries := map[string]string{TokenKey: sess.Token, UserKey: string(raw)}
	if err := d.deps.Session.MultiSet(ctx, entries); err != nil {
		d.log.Warn().Err(err).Msg("persist session")
	}
}

func (d *Dispatcher) persistUser(ctx context.Context, u market.User) {
	if d.deps.Session == nil {
		return
	}
	raw, err := json.Marshal(u)
	if err != nil {
		d.log.Warn().Err(err).Msg("encode session user")
		return
	}
	if err := d.deps.Session.Set(ctx, UserKey, string(raw)); err != nil {
		d.log.Warn().Err(err).Msg("persist session user")
	}
}

func (d *Dispatcher) loadSession(ctx context.Context) (Session, error) {
	if d.deps.Session == nil {
		return Session{}, nil
	}
	vals, err := d.deps.Session.MultiGet(ctx, []string{TokenKey, UserKey})
	if err != nil {
		return Session{}, fmt.Errorf("read session: %w", err)
	}
	token, rawUser := vals[TokenKey], vals[UserKey]
	if token == "" || rawUser == "" {
		return Session{}, nil
	}
	if tokenExpired(token, d.now()) {
		d.log.Info().Msg("stored session expired")
		if err := d.deps.Session.MultiRemove(ctx, []string{TokenKey, UserKey}); err != nil {
			d.log.Warn().Err(err).Msg("clear expired session")
		}
		return Session{}, nil
	}
	u, err := market.NormalizeUser([]byte(rawUser))
	if err != nil {
		return Session{}, fmt.Errorf("read session user: %w", err)
	}
	return Session{Token: token, User: u}, nil
}

// Login signs in and persists the session.
func (d *Dispatcher) Login(ctx context.Context, creds market.Credentials) (Session, error) {
	return dispatch(ctx, d, "login", authReq,
		func(ctx context.Context) (Session, error) {
			res, err := d.deps.Auth.Login(ctx, creds)
			if err != nil {
				return Session{}, err
			}
			sess := Session{Token: res.Token, User: res.User}
			d.persistSession(ctx, sess)
			return sess, nil
		},
		func(s *State, sess Session) { s.Auth.Session = sess },
	)
}

// Hydrate restores a persisted session. It reports whether one was found.
func (d *Dispatcher) Hydrate(ctx context.Context) (bool, error) {
	sess, err := dispatch(ctx, d, "hydrate", authReq,
		d.loadSession,
		func(s *State, sess Session) { s.Auth.Session = sess },
	)
	return sess.Active(), err
}

// Logout clears the persisted session and resets the auth slice and the
// slices scoped to the signed-in user. In-memory state is reset even when
// clearing storage fails.
func (d *Dispatcher) Logout(ctx context.Context) error {
	var err error
	if d.deps.Session != nil {
		if rmErr := d.deps.Session.MultiRemove(ctx, []string{TokenKey, UserKey}); rmErr != nil {
			err = fmt.Errorf("clear session: %w", rmErr)
		}
	}
	d.store.update(func(s *State) {
		s.Auth = AuthState{}
		s.Favorites = FavoriteState{}
		s.Addresses = AddressState{Mode: s.Addresses.Mode}
		s.Products.Owned = nil
	})
	d.log.Info().Msg("logged out")
	return err
}

// ChangePassword sets a new password for the signed-in user. The change
// is validated before any request; the session is kept.
func (d *Dispatcher) ChangePassword(ctx context.Context, change market.PasswordChange) error {
	sess := d.store.session()
	if !sess.Active() {
		return ErrNotLoggedIn
	}
	if err := market.Validate(change); err != nil {
		return err
	}
	_, err := dispatch(ctx, d, "change_password", authReq,
		func(ctx context.Context) (struct{}, error) {
			return struct{}{}, d.deps.Users.UpdatePassword(ctx, sess.User.ID, change.Password)
		},
		nil,
	)
	return err
}

// UpdateProfile edits the signed-in user and refreshes the stored copy.
func (d *Dispatcher) UpdateProfile(ctx context.Context, patch market.ProfileUpdate) (market.User, error) {
	sess := d.store.session()
	if !sess.Active() {
		return market.User{}, ErrNotLoggedIn
	}
	return dispatch(ctx, d, "update_profile", authReq,
		func(ctx context.Context) (market.User, error) {
			u, err := d.deps.Users.Update(ctx, sess.User.ID, patch)
			if err != nil {
				return market.User{}, err
			}
			merged := sess.User
			merged.Name = firstNonEmpty(u.Name, patch.Name)
			merged.Email = firstNonEmpty(u.Email, patch.Email)
			if u.AvatarURL != "" {
				merged.AvatarURL = u.AvatarURL
			}
			d.persistUser(ctx, merged)
			return merged, nil
		},
		func(s *State, u market.User) {
			if s.Auth.Session.User.ID == u.ID {
				s.Auth.Session.User = u
			}
			s.Users.Items = replaceByID(s.Users.Items, u, userID)
		},
	)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
