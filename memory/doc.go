// Package memory persists conversation history for the advisor.
//
// The store is a thin repository over SQLite: append one message, load
// the most recent N for a (user, session) pair in chronological order,
// or clear a session. There is no business logic here; the orchestrator
// decides when to read and write.
//
// Messages are append-only and ordered by creation time with the rowid
// as a tiebreak, so two appends in the same millisecond keep their
// insertion order. Role alternation is not enforced; the store only
// appends.
package memory
