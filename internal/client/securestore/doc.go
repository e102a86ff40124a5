// Package securestore is the device's secure key/value store.
//
// Store is the interface the services depend on. SQLiteStore implements it
// over the metadata table: every value is sealed with AES-256-GCM under a key
// derived (argon2id) from a per-device random secret kept in a 0600 key file
// and an optional passphrase. The store key is used as additional data, so a
// ciphertext copied to another key does not open.
//
// Reads and writes are atomic per key. A value that fails to decrypt is a
// storage error, never reported as absent.
package securestore
