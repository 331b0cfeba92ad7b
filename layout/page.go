package layout

// MaxPage returns the highest page index in pages, 0 for empty input.
func MaxPage(pages []int) int {
	m := 0
	for _, p := range pages {
		if p > m {
			m = p
		}
	}
	return m
}

// NextPage wraps past last to zero.
func NextPage(current, last int) int {
	if last < 0 {
		last = 0
	}
	return (current + 1) % (last + 1)
}

// PrevPage wraps before zero to last.
func PrevPage(current, last int) int {
	if current <= 0 {
		return last
	}
	return current - 1
}
