// Package sliceutils provides utility functions for slices.
package sliceutils

// Map returns a slice with the results of applying f to each element of s.
func Map[S, T any](s []S, f func(S) T) []T {
	if s == nil {
		return nil
	}

	mapped := make([]T, 0, len(s))
	for _, item := range s {
		mapped = append(mapped, f(item))
	}
	return mapped
}
