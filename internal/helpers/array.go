package helpers

// Swap exchanges the elements at i and j in place. Out of range or equal
// indices leave the slice untouched.
func Swap[T any](s []T, i, j int) []T {
	if i == j || i < 0 || j < 0 || i >= len(s) || j >= len(s) {
		return s
	}
	s[i], s[j] = s[j], s[i]
	return s
}
