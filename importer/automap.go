package importer

import "strings"

// AutoMap proposes a header to field mapping without user input. Exact
// matches on the normalized name are claimed first for every header, so a
// header equal to a field always gets it. Remaining headers then take, in file
// order, the first unused field where one normalized name contains the other.
// Catalog order breaks ties, so the result is deterministic for a given input
// order.
func AutoMap(headers, catalog []string) *Mapping {
	mapping := NewMapping(catalog...)

	normalizedFields := make([]string, len(catalog))
	for i, field := range catalog {
		normalizedFields[i] = NormalizeHeader(field)
	}

	keys := make([]string, len(headers))
	for i, header := range headers {
		keys[i] = NormalizeHeader(header)
	}

	for _, match := range []func(string, []string, []string, *Mapping) int{matchExact, matchPartial} {
		for i, header := range headers {
			if keys[i] == "" {
				continue
			}
			if _, mapped := mapping.Get(header); mapped {
				continue
			}
			if index := match(keys[i], normalizedFields, catalog, mapping); index >= 0 {
				_ = mapping.Set(header, catalog[index])
			}
		}
	}

	return mapping
}

func matchExact(key string, normalizedFields, catalog []string, used *Mapping) int {
	for i, candidate := range normalizedFields {
		if candidate == key && !used.Has(catalog[i]) {
			return i
		}
	}
	return -1
}

func matchPartial(key string, normalizedFields, catalog []string, used *Mapping) int {
	for i, candidate := range normalizedFields {
		if candidate == "" || used.Has(catalog[i]) {
			continue
		}
		if strings.Contains(key, candidate) || strings.Contains(candidate, key) {
			return i
		}
	}
	return -1
}
