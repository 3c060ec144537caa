// Package state holds the normalized client state of the marketplace and
// the async operations that keep it in sync with the backend.
//
// # Overview
//
// The root container (Store) owns a single State tree made of one slice
// per entity: Auth (the session), Users, Products, Favorites and
// Addresses. Each slice carries a Request with the lifecycle of its most
// recent operation:
//
//	idle ──dispatch──→ loading ──ok──→ succeeded
//	                       └───err──→ failed
//
// There is no terminal state; the next operation re-enters loading and
// clears the previous error.
//
// # Operations
//
// Dispatcher methods wrap one Resource Client call each:
//
//	store.update(start)          // status = loading, error = ""
//	out, err := call(ctx)        // no lock held during I/O
//	store.update(fulfil|reject)  // apply(out) only on success
//
// On success fetches replace their collection wholesale, creates append,
// updates replace by id and removes filter by id. On failure only the
// status and error change; collections are never partially written.
//
// Operations are not serialized. Two removes of different ids both land;
// two writes to the same id race and the last to finish wins. A later
// fetch reconciles any divergence.
//
// # Copy-on-write
//
// Collection updates always build a fresh slice (appendItem, replaceByID,
// removeByID) and Snapshot clones the tree again, so values handed to the
// UI never alias the container.
//
// # Notifications
//
// Subscribe returns a channel with a one-slot buffer. Writers never
// block; several changes between reads collapse into one signal and the
// reader takes a fresh Snapshot.
//
// # Session
//
// Login persists @token and @user through a kvstore.Store. Hydrate reads
// them back, discarding a JWT whose exp has passed. Logout removes both
// keys and resets the auth slice and the user-scoped slices.
package state
