package slicesx

// ContainsAny reports whether any element of needle is in haystack.
func ContainsAny[T comparable](haystack []T, needle []T) bool {
	for _, n := range needle {
		for _, h := range haystack {
			if h == n {
				return true
			}
		}
	}
	return false
}

// Last returns up to n trailing elements of s.
func Last[T any](s []T, n int) []T {
	if n <= 0 {
		return s[:0]
	}
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
