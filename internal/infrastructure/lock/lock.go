// Package lock serializes work on the same workflow entities. Keys are
// acquired in sorted order so two cascades over overlapping entities cannot
// deadlock each other.
package lock

import (
	"context"
	"slices"
)

// Locker holds every key until the returned release func is called.
type Locker interface {
	Lock(ctx context.Context, keys ...string) (release func(), err error)
}

func Student(id string) string  { return "student:" + id }
func Campaign(id string) string { return "campaign:" + id }
func Donation(id string) string { return "donation:" + id }
func Archive(id string) string  { return "archive:" + id }

// normalize sorts keys and drops duplicates and empties.
func normalize(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}
