package docpipe

import "strings"

// extractText normalizes a plain-text payload: trims each line, collapses
// runs of blank lines, preserves line order.
func extractText(data []byte) string {
	lines := strings.Split(string(data), "\n")
	var sb strings.Builder
	blank := true
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if !blank {
				sb.WriteByte('\n')
				blank = true
			}
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(trimmed)
		blank = false
	}
	return strings.TrimSpace(sb.String())
}
