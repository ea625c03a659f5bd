// Property-based tests for the dataset invariants.
package model

import (
	"testing"

	"pgregory.net/rapid"
)

// TestGoalsAlwaysFixedLengthProperty tests that UserGoals returns exactly
// NumGoals entries for any user, registered or not, with any stored goal
// list length.
func TestGoalsAlwaysFixedLengthProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d := NewDataset()
		userID := rapid.Int64Range(1, 1000000).Draw(t, "userID")

		if rapid.Bool().Draw(t, "registered") {
			d.Register(userID, "u", "User", "Player", "2025-11-05")
			// Corrupt the stored list to an arbitrary length.
			n := rapid.IntRange(0, 2*NumGoals).Draw(t, "storedLen")
			goals := make([]string, n)
			for i := range goals {
				goals[i] = rapid.StringMatching(`[a-z ]{0,20}`).Draw(t, "goal")
			}
			d.Participant(userID).Goals = goals
		}

		got := d.UserGoals(userID)
		if len(got) != NumGoals {
			t.Fatalf("UserGoals returned %d entries, want %d", len(got), NumGoals)
		}
	})
}

// TestSetUserGoalRoundTripProperty tests that a goal set at a valid slot is
// read back at the same slot and no other slot changes.
func TestSetUserGoalRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d := NewDataset()
		userID := rapid.Int64Range(1, 1000).Draw(t, "userID")
		d.Register(userID, "u", "User", "Player", "2025-11-05")

		before := d.UserGoals(userID)
		n := rapid.IntRange(1, NumGoals).Draw(t, "goalNum")
		text := rapid.StringMatching(`[a-z ]{1,30}`).Draw(t, "text")

		d.SetUserGoal(userID, n, text)

		after := d.UserGoals(userID)
		if after[n-1] != text {
			t.Fatalf("Goal %d: got %q, want %q", n, after[n-1], text)
		}
		for i := range after {
			if i != n-1 && after[i] != before[i] {
				t.Fatalf("Goal %d changed unexpectedly: %q -> %q", i+1, before[i], after[i])
			}
		}
	})
}

// TestSetUserGoalOutOfRangeIgnoredProperty tests that out-of-range goal
// numbers and unknown users never mutate the dataset.
func TestSetUserGoalOutOfRangeIgnoredProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d := NewDataset()
		d.Register(1, "u", "User", "Player", "2025-11-05")
		before := d.UserGoals(1)

		n := rapid.OneOf(
			rapid.IntRange(-10, 0),
			rapid.IntRange(NumGoals+1, NumGoals+10),
		).Draw(t, "badGoalNum")
		d.SetUserGoal(1, n, "should be dropped")

		// Unknown user is a no-op regardless of slot.
		d.SetUserGoal(999, rapid.IntRange(1, NumGoals).Draw(t, "slot"), "ghost")

		after := d.UserGoals(1)
		for i := range after {
			if after[i] != before[i] {
				t.Fatalf("Goal %d changed by invalid write: %q -> %q", i+1, before[i], after[i])
			}
		}
		if d.Participant(999) != nil {
			t.Fatal("SetUserGoal must not create participants")
		}
	})
}

// TestSaveReportNeverDuplicatesProperty tests that any sequence of
// SaveReport calls yields at most one report per (user, day) pair.
func TestSaveReportNeverDuplicatesProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d := NewDataset()
		numSaves := rapid.IntRange(1, 50).Draw(t, "numSaves")

		for i := 0; i < numSaves; i++ {
			userID := rapid.Int64Range(1, 5).Draw(t, "userID")
			day := rapid.IntRange(1, 10).Draw(t, "day")
			progress := map[int]string{
				rapid.IntRange(1, NumGoals).Draw(t, "slot"): rapid.StringMatching(`[a-z]{0,10}`).Draw(t, "text"),
			}
			d.SaveReport(userID, day, "2025-11-05", progress, rapid.Bool().Draw(t, "rest"))
		}

		seen := map[[2]int64]bool{}
		for _, r := range d.Reports {
			key := [2]int64{r.UserID, int64(r.Day)}
			if seen[key] {
				t.Fatalf("Duplicate report for user %d day %d", r.UserID, r.Day)
			}
			seen[key] = true
		}
	})
}

// TestSaveReportLastWriteWinsProperty tests that repeated saves for the same
// (user, day) leave the latest values for the touched slots and keep earlier
// values for untouched ones.
func TestSaveReportLastWriteWinsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d := NewDataset()

		first := rapid.StringMatching(`[a-z]{1,10}`).Draw(t, "first")
		second := rapid.StringMatching(`[a-z]{1,10}`).Draw(t, "second")

		d.SaveReport(1, 3, "2025-11-07", map[int]string{1: first, 2: "kept"}, false)
		d.SaveReport(1, 3, "2025-11-07", map[int]string{1: second}, true)

		r := d.Report(1, 3)
		if r == nil {
			t.Fatal("Report missing after save")
		}
		if r.Progress[0] != second {
			t.Fatalf("Slot 1: got %q, want %q", r.Progress[0], second)
		}
		if r.Progress[1] != "kept" {
			t.Fatalf("Slot 2 lost earlier value: got %q", r.Progress[1])
		}
		if !r.RestDay {
			t.Fatal("RestDay flag not updated by later save")
		}
	})
}

// TestNormalizeIdempotentProperty tests that Normalize is idempotent and
// always establishes the fixed-length and non-nil invariants.
func TestNormalizeIdempotentProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d := &Dataset{}
		numParticipants := rapid.IntRange(0, 10).Draw(t, "numParticipants")
		for i := 0; i < numParticipants; i++ {
			goalLen := rapid.IntRange(0, 2*NumGoals).Draw(t, "goalLen")
			d.Participants = append(d.Participants, Participant{
				UserID: int64(i + 1),
				Goals:  make([]string, goalLen),
			})
		}
		numReports := rapid.IntRange(0, 10).Draw(t, "numReports")
		for i := 0; i < numReports; i++ {
			d.Reports = append(d.Reports, Report{
				UserID:   int64(i + 1),
				Day:      rapid.IntRange(-5, TotalDays).Draw(t, "day"),
				Progress: make([]string, rapid.IntRange(0, 2*NumGoals).Draw(t, "progressLen")),
			})
		}

		d.Normalize()
		checkInvariants(t, d)

		d.Normalize()
		checkInvariants(t, d)
	})
}

func checkInvariants(t *rapid.T, d *Dataset) {
	t.Helper()
	if d.Participants == nil || d.Reports == nil || d.Settings == nil {
		t.Fatal("Normalize left a nil collection")
	}
	for _, p := range d.Participants {
		if len(p.Goals) != NumGoals {
			t.Fatalf("Participant %d has %d goals, want %d", p.UserID, len(p.Goals), NumGoals)
		}
		if p.Status != StatusActive && p.Status != StatusRemoved {
			t.Fatalf("Participant %d has invalid status %q", p.UserID, p.Status)
		}
	}
	for _, r := range d.Reports {
		if len(r.Progress) != NumGoals {
			t.Fatalf("Report (%d,%d) has %d progress entries, want %d", r.UserID, r.Day, len(r.Progress), NumGoals)
		}
		if r.Day < 1 {
			t.Fatalf("Report day %d below 1 after Normalize", r.Day)
		}
	}
}

// TestCloneIsolationProperty tests that mutating a clone never leaks back
// into the original dataset.
func TestCloneIsolationProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		d := NewDataset()
		d.Register(1, "u", "User", "Player", "2025-11-05")
		d.SetUserGoal(1, 1, "original goal")
		d.SaveReport(1, 1, "2025-11-05", map[int]string{1: "original"}, false)
		d.Settings["chat_id"] = "-100"

		clone := d.Clone()
		clone.SetUserGoal(1, 1, rapid.StringMatching(`[a-z]{1,10}`).Draw(t, "newGoal"))
		clone.SaveReport(1, 1, "2025-11-05", map[int]string{1: "changed"}, true)
		clone.Settings["chat_id"] = "-200"
		clone.Register(2, "v", "Other", "Other", "2025-11-06")

		if got := d.UserGoals(1)[0]; got != "original goal" {
			t.Fatalf("Clone mutation leaked into original goal: %q", got)
		}
		if got := d.Report(1, 1).Progress[0]; got != "original" {
			t.Fatalf("Clone mutation leaked into original report: %q", got)
		}
		if d.Settings["chat_id"] != "-100" {
			t.Fatal("Clone mutation leaked into original settings")
		}
		if d.IsRegistered(2) {
			t.Fatal("Clone registration leaked into original participants")
		}
	})
}
