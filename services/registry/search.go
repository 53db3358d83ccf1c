package registry

import (
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
)

const fuzzyMatchThreshold = 0.8

type SearchResult struct {
	Record Record
	// 1.0 for exact registration number matches, otherwise the name
	// similarity
	Score float64
}

// Search looks a query up in the dataset. A query that normalizes to
// a known registration number returns that record alone, anything
// else is fuzzy matched against pharmacist names.
func Search(records []Record, query string, limit int) []SearchResult {
	if limit <= 0 {
		limit = 10
	}

	regNo := NormalizeRegistrationNumber(query)
	for _, record := range records {
		if record.RegistrationNumber == regNo {
			return []SearchResult{{Record: record, Score: 1.0}}
		}
	}

	target := strings.ToLower(strings.TrimSpace(query))
	if target == "" {
		return nil
	}

	var results []SearchResult
	for _, record := range records {
		score := matchr.JaroWinkler(strings.ToLower(record.Name), target, false)
		fatherScore := matchr.JaroWinkler(strings.ToLower(record.FatherName), target, false)
		if fatherScore > score {
			score = fatherScore
		}
		if score < fuzzyMatchThreshold {
			continue
		}
		results = append(results, SearchResult{Record: record, Score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}
