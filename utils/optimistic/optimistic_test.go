package optimistic

import (
	"errors"
	"testing"
)

func TestRunCommitsAppliedValue(t *testing.T) {
	value := 1
	err := Mutation[int]{
		Snapshot: func() int { return value },
		Apply:    func() { value = 2 },
		Restore:  func(prev int) { value = prev },
		Commit:   func() error { return nil },
	}.Run()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != 2 {
		t.Fatalf("expected applied value 2, got %d", value)
	}
}

func TestRunRestoresSnapshotOnCommitFailure(t *testing.T) {
	value := 1
	commitErr := errors.New("write failed")
	err := Mutation[int]{
		Snapshot: func() int { return value },
		Apply:    func() { value = 2 },
		Restore:  func(prev int) { value = prev },
		Commit:   func() error { return commitErr },
	}.Run()
	if !errors.Is(err, commitErr) {
		t.Fatalf("expected commit error, got %v", err)
	}
	if value != 1 {
		t.Fatalf("expected rollback to 1, got %d", value)
	}
}
