package bridge

import (
	"strings"
)

func FormatSnapshotText(nodes []A11yNode) string {
	var b strings.Builder
	for _, n := range nodes {
		b.WriteString(strings.Repeat("  ", n.Depth))
		b.WriteString(n.Ref)
		b.WriteByte(' ')
		b.WriteString(n.Role)
		if n.Name != "" {
			b.WriteString(` "`)
			b.WriteString(n.Name)
			b.WriteByte('"')
		}
		if n.Value != "" {
			b.WriteString(` val="`)
			b.WriteString(n.Value)
			b.WriteByte('"')
		}
		if n.Focused {
			b.WriteString(" [focused]")
		}
		if n.Disabled {
			b.WriteString(" [disabled]")
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// FormatMatches renders only the nodes matching role, for error messages
// about ambiguous or missing elements.
func FormatMatches(nodes []A11yNode, role string) string {
	var b strings.Builder
	for _, n := range nodes {
		if !strings.EqualFold(n.Role, role) {
			continue
		}
		b.WriteString(n.Ref)
		b.WriteByte(':')
		b.WriteString(n.Role)
		if n.Name != "" {
			b.WriteString(` "`)
			b.WriteString(n.Name)
			b.WriteByte('"')
		}
		b.WriteByte('\n')
	}
	return b.String()
}
