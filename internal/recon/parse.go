package recon

import "strings"

// ParseRow splits row on each delimiter in declared order and concatenates
// the pieces. It is not a tokenizer: a row containing two different
// delimiters yields fragments from both splits, so fragment indices depend on
// delimiter order.
func ParseRow(row string, delimiters []string) []string {
	fragments := make([]string, 0, len(delimiters)*2)
	for _, d := range delimiters {
		fragments = append(fragments, strings.Split(row, d)...)
	}
	return fragments
}
