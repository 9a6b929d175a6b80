package chart

import (
	"slices"
	"time"
)

// Series is a chart history ordered by timestamp with at most one point per
// interval.
type Series []Point

// Upsert replaces the point with the same timestamp, or inserts p in order.
func (s Series) Upsert(p Point) Series {
	i, found := slices.BinarySearchFunc(s, p.Timestamp, func(q Point, t time.Time) int {
		return q.Timestamp.Compare(t)
	})
	if found {
		s[i] = p
		return s
	}
	return slices.Insert(s, i, p)
}

// Trim drops points older than now minus retention.
func (s Series) Trim(now time.Time, retention time.Duration) Series {
	cutoff := now.Add(-retention)
	i, _ := slices.BinarySearchFunc(s, cutoff, func(q Point, t time.Time) int {
		return q.Timestamp.Compare(t)
	})
	return s[i:]
}

// normalize sorts s and collapses duplicate timestamps, keeping the later entry.
func (s Series) normalize() Series {
	slices.SortStableFunc(s, func(a, b Point) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	out := s[:0]
	for _, p := range s {
		if n := len(out); n > 0 && out[n-1].Timestamp.Equal(p.Timestamp) {
			out[n-1] = p
			continue
		}
		out = append(out, p)
	}
	return out
}
