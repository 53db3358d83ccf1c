package registry

import (
	"sort"
	"strconv"
)

// MergeResult describes what an incremental merge did.
type MergeResult struct {
	Records []Record
	// registration numbers that did not exist before
	New []string
	// registration numbers whose fields changed
	Changed []string
	// how many existing records were left untouched
	Unchanged int
}

// ChangePercent is the fraction of the previous dataset that this
// merge modified, as a percentage. A merge into an empty dataset is
// 0% change.
func (m MergeResult) ChangePercent(previousTotal int) float64 {
	if previousTotal == 0 {
		return 0
	}
	return float64(len(m.New)+len(m.Changed)) / float64(previousTotal) * 100
}

// Merge applies freshly scraped records on top of the existing
// dataset. Scraped records win on conflict, existing records absent
// from the scrape are kept, and the result is sorted by serial
// number.
func Merge(existing, scraped []Record) MergeResult {
	byRegNo := make(map[string]Record, len(existing))
	order := make([]string, 0, len(existing)+len(scraped))
	for _, record := range existing {
		if _, ok := byRegNo[record.RegistrationNumber]; !ok {
			order = append(order, record.RegistrationNumber)
		}
		byRegNo[record.RegistrationNumber] = record
	}

	var result MergeResult
	for _, record := range scraped {
		previous, ok := byRegNo[record.RegistrationNumber]
		if !ok {
			result.New = append(result.New, record.RegistrationNumber)
			order = append(order, record.RegistrationNumber)
		} else if !previous.Equal(record) {
			result.Changed = append(result.Changed, record.RegistrationNumber)
		} else {
			result.Unchanged++
			continue
		}
		byRegNo[record.RegistrationNumber] = record
	}

	result.Records = make([]Record, 0, len(order))
	for _, regNo := range order {
		result.Records = append(result.Records, byRegNo[regNo])
	}
	sortBySerial(result.Records)
	return result
}

// numeric serials ascending, everything else after them in stable
// order
func sortBySerial(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, aerr := strconv.Atoi(records[i].SerialNumber)
		b, berr := strconv.Atoi(records[j].SerialNumber)
		if aerr != nil && berr != nil {
			return false
		}
		if aerr != nil {
			return false
		}
		if berr != nil {
			return true
		}
		return a < b
	})
}
