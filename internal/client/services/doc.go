// Package services contains the account-linking and session services of the
// accountlink client.
//
// # Components
//
//   - Storage: the device database. The secure store (securestore) and the
//     account registry (repositories/accounts) live in the same SQLite file,
//     so a session change and a registry change commit in one transaction.
//   - MasterTracker: the persisted master account id and direct-login flag.
//   - AccountRegistry: linked AccountRecords grouped by master.
//   - SessionManager: the single in-memory SessionState and its subscribers.
//   - Bootstrapper: the start-up state machine that verifies a cached token.
//   - Switcher: moves the active session to another linked account.
//   - AuthService: explicit login, adding a linked account, logout, listings.
//
// # Locking
//
// Operations that change the session (bootstrap reconciliation, switch,
// login, logout) hold the SessionManager's operation lock. Registry writes
// additionally hold a per-master lock. The order is always session first,
// then master.
package services
