// Package storage provides the in-memory document store backend.
//
// MemoryStore implements store.DocumentStore on a mutex-guarded map. It is
// the backend used by tests and by servers started with the "memory"
// storage backend, where definitions and cached responses live only for the
// lifetime of the process.
package storage
