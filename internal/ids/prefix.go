package ids

import "strings"

// NormalizeUniqueIDs lowercases ids and drops empties and duplicates, keeping order.
func NormalizeUniqueIDs(ids []string) []string {
	uniqueIDs := make([]string, 0, len(ids))
	seen := make(map[string]bool)
	for _, id := range ids {
		idLower := strings.ToLower(id)
		if idLower == "" || seen[idLower] {
			continue
		}
		seen[idLower] = true
		uniqueIDs = append(uniqueIDs, idLower)
	}
	return uniqueIDs
}

// UniquePrefixLengths returns the shortest unique prefix length for each ID.
func UniquePrefixLengths(ids []string) map[string]int {
	uniqueIDs := NormalizeUniqueIDs(ids)

	lengths := make(map[string]int, len(uniqueIDs))
	for _, id := range uniqueIDs {
		lengths[id] = uniquePrefixLength(id, uniqueIDs)
	}

	return lengths
}

// MatchPrefix finds the single id starting with prefix, case-insensitively.
// An exact match wins over longer ids sharing the prefix.
func MatchPrefix(ids []string, prefix string) (match string, found bool, ambiguous bool) {
	prefix = strings.ToLower(prefix)
	if prefix == "" {
		return "", false, false
	}
	for _, id := range ids {
		idLower := strings.ToLower(id)
		if idLower == prefix {
			return id, true, false
		}
		if !strings.HasPrefix(idLower, prefix) {
			continue
		}
		if found && !strings.EqualFold(match, id) {
			ambiguous = true
			continue
		}
		match = id
		found = true
	}
	if ambiguous {
		return "", true, true
	}
	return match, found, false
}

func uniquePrefixLength(id string, ids []string) int {
	for length := 1; length <= len(id); length++ {
		prefix := id[:length]
		unique := true
		for _, other := range ids {
			if other == id {
				continue
			}
			if strings.HasPrefix(other, prefix) {
				unique = false
				break
			}
		}
		if unique {
			return length
		}
	}

	return len(id)
}
