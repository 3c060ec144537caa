// Package market holds the marketplace data model and the resource clients
// for auth, users, products, favorites and addresses.
//
// Clients are thin: each operation maps to one backend path and returns
// decoded records or the wrapped transport error. AddressClient is the
// exception; it answers from local storage once the backend reports the
// address endpoints missing.
package market
