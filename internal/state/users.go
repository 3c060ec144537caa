package state

import (
	"context"

	"github.com/five82/emarket/internal/market"
)

// FetchUsers replaces the user directory.
func (d *Dispatcher) FetchUsers(ctx context.Context) ([]market.User, error) {
	return dispatch(ctx, d, "fetch_users", usersReq,
		d.deps.Users.List,
		func(s *State, users []market.User) { s.Users.Items = cloneSlice(users) },
	)
}

// FetchUser loads one user into Detail and refreshes its directory entry.
func (d *Dispatcher) FetchUser(ctx context.Context, id market.ID) (market.User, error) {
	return dispatch(ctx, d, "fetch_user", usersReq,
		func(ctx context.Context) (market.User, error) { return d.deps.Users.Get(ctx, id) },
		func(s *State, u market.User) {
			s.Users.Detail = &u
			s.Users.Items = replaceByID(s.Users.Items, u, userID)
		},
	)
}

// Register creates an account. It does not sign in.
func (d *Dispatcher) Register(ctx context.Context, reg market.Registration) (market.User, error) {
	return dispatch(ctx, d, "register", usersReq,
		func(ctx context.Context) (market.User, error) { return d.deps.Users.Create(ctx, reg) },
		func(s *State, u market.User) { s.Users.Items = appendItem(s.Users.Items, u) },
	)
}

// UpdateUser edits any user. Editing the signed-in user also refreshes
// the session copy.
func (d *Dispatcher) UpdateUser(ctx context.Context, id market.ID, patch market.ProfileUpdate) (market.User, error) {
	return dispatch(ctx, d, "update_user", usersReq,
		func(ctx context.Context) (market.User, error) { return d.deps.Users.Update(ctx, id, patch) },
		func(s *State, u market.User) {
			s.Users.Items = replaceByID(s.Users.Items, u, userID)
			if s.Auth.Session.Active() && s.Auth.Session.User.ID == u.ID {
				s.Auth.Session.User = u
			}
		},
	)
}

// RemoveUser deletes a user.
func (d *Dispatcher) RemoveUser(ctx context.Context, id market.ID) (market.ID, error) {
	return dispatch(ctx, d, "remove_user", usersReq,
		func(ctx context.Context) (market.ID, error) { return d.deps.Users.Delete(ctx, id) },
		func(s *State, removed market.ID) { s.Users.Items = removeByID(s.Users.Items, removed, userID) },
	)
}
