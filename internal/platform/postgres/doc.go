// Package postgres provides PostgreSQL implementations of the store
// interfaces. Each store accepts a store.DBTX, so the same implementation
// serves both plain connections and transactions obtained via WithTx.
package postgres
