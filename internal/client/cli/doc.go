// Package cli provides the interactive accountlink command-line client.
//
// It wires configuration, the encrypted local database, the account API
// client and the session services, runs the start-up bootstrap and then an
// interactive REPL.
//
// Key features:
//   - Login / Logout
//   - Link further accounts to the device and list them
//   - Switch the active account, remove linked accounts
//   - Persist the preferred UI language
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
