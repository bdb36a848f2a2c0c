// Package stores persists finished seeding runs. It provides SQLite-based
// storage with WAL mode, embedded migrations, and query methods over runs,
// domain passes, and item errors.
package stores
