package internal

import "fmt"

// Delta is the change between two follower snapshots
type Delta struct {
	Added   []string
	Removed []string
}

// Changed reports whether membership differs
func (d Delta) Changed() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0
}

// Diff computes removed = oldIDs \ newIDs and added = newIDs \ oldIDs.
// Both keep the order of their first operand.
func Diff(newIDs, oldIDs []string) Delta {
	return Delta{
		Added:   difference(newIDs, oldIDs),
		Removed: difference(oldIDs, newIDs),
	}
}

func difference(a, b []string) []string {
	set := make(map[string]struct{}, len(b))
	for _, id := range b {
		set[id] = struct{}{}
	}

	out := []string{}
	for _, id := range a {
		if _, ok := set[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// CountChange describes the change in follower count only. Equal counts
// read as "no change" even when ids were swapped; see Delta for membership.
func CountChange(newLen, oldLen int) string {
	switch {
	case newLen == oldLen:
		return fmt.Sprintf("Follower count no change: %d", newLen)
	case newLen > oldLen:
		return fmt.Sprintf("Follower count increased by %d", newLen-oldLen)
	default:
		return fmt.Sprintf("Follower count dropped by %d", oldLen-newLen)
	}
}
