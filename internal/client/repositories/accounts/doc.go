// Package accounts provides the client-side persistence layer for linked
// account records.
//
// # Data Model
//
// One row per account id. Each row names the master it is grouped under, a
// profile cache (display name, phone, role), the last known session token and,
// for accounts that went through an explicit login on this device, the phone
// and password used. Token and password are sealed with the device key before
// they reach the table (see Sealer); a row without login credentials decodes
// to models.TokenOnly.
//
// # Concurrency
//
// The repository itself does no locking. Callers that need read-modify-write
// semantics serialize per master id and, when the secure store must change in
// the same step, pass a *sql.Tx as the dbx.DBTX.
package accounts
