// Package api is the HTTP transport shared by the marketplace resource
// clients.
//
// A Client resolves relative paths against a configurable base URL, sends
// and receives JSON, attaches a bearer token when a TokenSource provides
// one and enforces a fixed request timeout. It never retries: callers
// decide what a failure means.
//
// Non-2xx answers come back as *StatusError so callers can tell "endpoint
// does not exist" (IsNotFound) apart from "endpoint failed":
//
//	err := client.Do(ctx, http.MethodGet, "/users/1/addresses", nil, nil, &out)
//	if api.IsNotFound(err) {
//		// switch to local storage
//	}
//
// Transport failures (refused connections, timeouts) are wrapped as
// "execute request: ..." and malformed bodies as "decode response: ...".
package api
