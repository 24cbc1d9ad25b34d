package fitfunc

import (
	"strings"
	"unicode/utf8"
)

// SyntaxRow is one line of a syntax table
type SyntaxRow struct {
	Function string `json:"function"`
	Syntax   string `json:"syntax"`
}

// SyntaxTable lists fit functions with their syntax
type SyntaxTable struct {
	Rows []SyntaxRow `json:"rows"`
}

var syntaxHeaders = [2]string{"Function", "Syntax"}

// String renders the table with +---+ rules and centred cells
func (t *SyntaxTable) String() string {
	widths := [2]int{utf8.RuneCountInString(syntaxHeaders[0]), utf8.RuneCountInString(syntaxHeaders[1])}
	for _, row := range t.Rows {
		widths[0] = max(widths[0], utf8.RuneCountInString(row.Function))
		widths[1] = max(widths[1], utf8.RuneCountInString(row.Syntax))
	}

	rule := "+" + strings.Repeat("-", widths[0]+2) + "+" + strings.Repeat("-", widths[1]+2) + "+"
	line := func(a, b string) string {
		return "| " + center(a, widths[0]) + " | " + center(b, widths[1]) + " |"
	}

	lines := []string{rule, line(syntaxHeaders[0], syntaxHeaders[1]), rule}
	for _, row := range t.Rows {
		lines = append(lines, line(row.Function, row.Syntax))
	}
	lines = append(lines, rule)
	return strings.Join(lines, "\n")
}

// center pads s to width. An odd padding puts the extra space on the left when width is odd.
func center(s string, width int) string {
	pad := width - utf8.RuneCountInString(s)
	if pad <= 0 {
		return s
	}
	left := pad/2 + (pad & width & 1)
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)
}
