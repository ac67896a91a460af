// Package history persists a ledger of converter runs in SQLite.
//
// Each invocation of the converter records one row in runs plus one row per
// discovered file in files. The ledger is informational: it never decides
// whether a file is converted again. Databases created by an older schema are
// rejected with ErrSchemaMismatch rather than migrated.
package history
