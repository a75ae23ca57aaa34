package search

import "strings"

// normalizeQuery trims the query and collapses runs of whitespace.
func normalizeQuery(query string) string {
	return strings.Join(strings.Fields(query), " ")
}
