// Package ailog spots AI-engine log records in the raw UART stream.
// Records carry a fixed marker; everything between markers is opaque and
// forwarded whole. Searching restarts on every read, so a record that was
// corrupted by a mid-stream baud change simply fails to match and the
// stream re-synchronizes on the next marker.
package ailog

// Marker is the prefix the pocket's AI engine stamps on every log record.
const Marker = "ty E"

// Contains reports whether the default record marker occurs in buf.
func Contains(buf []byte) bool {
	return Index(string(buf), Marker) >= 0
}

// Index returns the offset of the first occurrence of pattern in s, or -1.
// Knuth-Morris-Pratt, so a long log buffer full of near-misses stays
// linear.
func Index(s, pattern string) int {
	n, m := len(s), len(pattern)
	if m == 0 || n < m {
		return -1
	}

	next := buildNext(pattern)
	for i, j := 0, 0; i < n; {
		switch {
		case s[i] == pattern[j]:
			i++
			j++
			if j == m {
				return i - j
			}
		case j > 0:
			j = next[j-1]
		default:
			i++
		}
	}
	return -1
}

// buildNext computes the KMP failure table for pattern.
func buildNext(pattern string) []int {
	next := make([]int, len(pattern))
	for i, length := 1, 0; i < len(pattern); {
		switch {
		case pattern[i] == pattern[length]:
			length++
			next[i] = length
			i++
		case length > 0:
			length = next[length-1]
		default:
			next[i] = 0
			i++
		}
	}
	return next
}
