package commands

import (
	"fmt"
	"strings"

	"github.com/dcwatch/dcwatch/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common formatting utilities shared by every command
// ═══════════════════════════════════════════════════════════

// formatNumber renders an integer with thousands separators.
func formatNumber(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}

	var b strings.Builder
	for i, digit := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// formatPct renders a percentage with sign.
func formatPct(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}

// formatPrice renders an optional price, "-" when missing.
func formatPrice(p contracts.Price) string {
	if p.Missing() {
		return "-"
	}
	return fmt.Sprintf("%.2f", p.Value)
}

// formatReturn renders an optional percentage return, "-" when missing.
func formatReturn(p contracts.Price) string {
	if p.Missing() {
		return "-"
	}
	return formatPct(p.Value)
}

// printSeparator prints a visual separator.
func printSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// printSection prints a section heading.
func printSection(emoji, title string) {
	fmt.Println()
	fmt.Printf("%s %s\n", emoji, title)
	printSeparator()
}

// printKeyValue prints an aligned key-value pair.
func printKeyValue(key, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}
