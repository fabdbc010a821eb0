package search

import "strings"

// normalizeQuery collapses whitespace runs and trims the query, so that
// queries differing only in spacing share one cached embedding.
func normalizeQuery(query string) string {
	return strings.Join(strings.Fields(query), " ")
}
