package main

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/amonks/tasklist/task"
)

func encodeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}

// idHighlighter highlights each ID's unique prefix within the store.
func idHighlighter(store *task.Store, highlight func(string, int) string) func(string) string {
	prefixLengths := store.PrefixLengths()
	return func(id string) string {
		if id == "" {
			return id
		}
		return highlight(id, prefixLengths[strings.ToLower(id)])
	}
}

func plural(n int, singular, pluralForm string) string {
	if n == 1 {
		return singular
	}
	return pluralForm
}
