// Package grouper splits ordered posting lines into accounting entries and
// assigns the Initial/Middle/Unique markers that bracket them.
package grouper

import "github.com/ginjaninja78/suenlace/internal/records"

// Group is a run of items sharing a key.
type Group[T any] struct {
	Key   string
	Items []T
}

// Consecutive groups adjacent items with equal keys. Concatenating the
// groups yields the input in its original order.
func Consecutive[T any](items []T, key func(T) string) []Group[T] {
	var groups []Group[T]
	for _, it := range items {
		k := key(it)
		if n := len(groups); n > 0 && groups[n-1].Key == k {
			groups[n-1].Items = append(groups[n-1].Items, it)
			continue
		}
		groups = append(groups, Group[T]{Key: k, Items: []T{it}})
	}
	return groups
}

// ByKey groups items by key in order of first occurrence. Items keep their
// relative order inside each group.
func ByKey[T any](items []T, key func(T) string) []Group[T] {
	index := make(map[string]int)
	var groups []Group[T]
	for _, it := range items {
		k := key(it)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, Group[T]{Key: k})
		}
		groups[i].Items = append(groups[i].Items, it)
	}
	return groups
}

// Markers returns the entry markers for a group of n lines: U for a single
// line, otherwise I, M..., U.
func Markers(n int) []records.Marker {
	if n <= 0 {
		return nil
	}
	m := make([]records.Marker, n)
	if n == 1 {
		m[0] = records.Unique
		return m
	}
	m[0] = records.Initial
	for i := 1; i < n-1; i++ {
		m[i] = records.Middle
	}
	m[n-1] = records.Unique
	return m
}

// MarkBankEntries groups bank records by (date, description) over adjacent
// records and sets their markers in place. It returns the number of entries.
func MarkBankEntries(recs []records.Record) int {
	idx := make([]int, len(recs))
	for i := range idx {
		idx[i] = i
	}
	groups := Consecutive(idx, func(i int) string { return recs[i].GroupKey() })
	for _, g := range groups {
		for j, m := range Markers(len(g.Items)) {
			if r := recs[g.Items[j]]; r.Kind == records.KindBank {
				r.Bank.Marker = m
			}
		}
	}
	return len(groups)
}
