// Package optimistic provides a small helper for the apply-then-commit
// pattern: mutate local state immediately, attempt the durable write, and
// restore the pre-change snapshot when the write fails so callers never
// observe a half-applied update.
package optimistic

// Mutation describes one optimistic update. Snapshot must capture enough
// state for Restore to undo Apply exactly.
type Mutation[T any] struct {
	Snapshot func() T
	Apply    func()
	Restore  func(T)
	Commit   func() error
}

// Run executes the mutation. On commit failure the snapshot is restored and
// the commit error returned.
func (m Mutation[T]) Run() error {
	snapshot := m.Snapshot()
	m.Apply()
	if err := m.Commit(); err != nil {
		m.Restore(snapshot)
		return err
	}
	return nil
}
