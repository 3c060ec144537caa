// Package app provides the orchestration layer for the emarket client.
//
// # Overview
//
// This package wires together configuration, logging, local storage, the
// HTTP client, the normalized state store and the terminal UI. It is the
// composition root: every dependency is built here and handed down.
//
// # Startup
//
//  1. Load config.toml, then dotenv files, then EMARKET_* variables
//  2. Open the zerolog sink (JSON file or console)
//  3. Open the key/value store selected by [store] backend
//  4. Build the API client with the state store as its token source
//  5. Build the domain clients and the address fallback
//  6. Hydrate the persisted session and load preferences
//  7. Launch the reconciliation poller and run the UI (blocks)
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       ├─────> config.Load()        TOML + .env + environment
//	       ├─────> logging.New()        zerolog
//	       ├─────> New()                storage, clients, Hydrate
//	       ├─────> StartPoller()        background reconciliation
//	       └─────> ui.Run()             Bubble Tea program (blocks)
//
// # Reconciliation
//
// While a user is signed in the poller re-reads the product catalog and
// the user's favorites every poll interval (default 30 seconds). Failed
// rounds keep the previous data, increment state.SyncState's failure
// counter and double the wait up to five minutes. Two consecutive failures
// mark the client offline; the header shows it until a round succeeds.
//
// # Errors
//
// Run returns configuration, logging and storage failures. A failed
// session restore or reconciliation round is logged and the UI starts
// anyway.
package app
