package analysis

import "strings"

// reportWidth is the column limit for report log lines.
const reportWidth = 120

// WrapText wraps each line of s at width columns, breaking at the last
// space before the limit and falling back to a hard break for unbroken
// runs. Existing line breaks are preserved.
func WrapText(s string, width int) string {
	if width <= 0 {
		return s
	}

	var out []string
	for _, line := range strings.Split(s, "\n") {
		if len(line) <= width {
			out = append(out, line)
			continue
		}
		start := 0
		n := len(line)
		for start < n {
			end := start + width
			if end > n {
				end = n
			}
			spaceIdx := strings.LastIndex(line[start:end], " ")
			if spaceIdx <= 0 {
				out = append(out, line[start:end])
				start = end
			} else {
				out = append(out, line[start:start+spaceIdx])
				start = start + spaceIdx + 1
			}
		}
	}
	return strings.Join(out, "\n")
}
