package registry

import (
	"fmt"
	"regexp"
	"strings"
	"tgpc-backend/lib/textutil"
)

// Record is a single pharmacist entry of the council registry.
// RegistrationNumber is the primary key of the dataset.
type Record struct {
	SerialNumber       string `json:"serial_number"`
	RegistrationNumber string `json:"registration_number"`
	Name               string `json:"name"`
	FatherName         string `json:"father_name"`
	Category           string `json:"category"`
}

// registration numbers are "TS" or "TG" followed by digits, sometimes
// with a letter suffix between prefix and digits
var registrationNumberRe = regexp.MustCompile(`^(TS|TG)[A-Z]*\d+$`)
var digitsOnlyRe = regexp.MustCompile(`^\d+$`)

// canonical category spellings; the council is wildly inconsistent
// about punctuation and casing
var canonicalCategories = map[string]string{
	"bpharmacy": "BPharm",
	"bpharm":    "BPharm",
	"dpharmacy": "DPharm",
	"dpharm":    "DPharm",
	"pharmd":    "PharmD",
	"mpharmacy": "MPharm",
	"mpharm":    "MPharm",
	"qp":        "QP",
	"qc":        "QC",
}

var categoryKeyRe = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeCategory maps a raw category cell to its canonical
// spelling. Unknown categories pass through cleaned but unchanged.
func NormalizeCategory(raw string) string {
	cleaned := textutil.CollapseWhitespace(raw)
	key := categoryKeyRe.ReplaceAllString(strings.ToLower(cleaned), "")
	if canonical, ok := canonicalCategories[key]; ok {
		return canonical
	}
	return cleaned
}

// NormalizeRegistrationNumber uppercases and trims a registration
// number. Legacy rows that carry only digits get the "TS" prefix and
// are zero padded to 6 digits.
func NormalizeRegistrationNumber(raw string) string {
	regNo := strings.ToUpper(textutil.CollapseWhitespace(raw))
	regNo = strings.ReplaceAll(regNo, " ", "")
	if digitsOnlyRe.MatchString(regNo) {
		for len(regNo) < 6 {
			regNo = "0" + regNo
		}
		return "TS" + regNo
	}
	return regNo
}

func normalizeName(raw string) string {
	// collapse first, RemoveNonPrintable would glue words separated by
	// tabs or newlines together
	name := textutil.CollapseWhitespace(raw)
	name = textutil.RemoveNonPrintable(name)
	return textutil.TitleCase(name)
}

// Clean normalizes every field of the record in place.
func (r *Record) Clean() {
	r.SerialNumber = textutil.CollapseWhitespace(r.SerialNumber)
	r.RegistrationNumber = NormalizeRegistrationNumber(r.RegistrationNumber)
	r.Name = normalizeName(r.Name)
	r.FatherName = normalizeName(r.FatherName)
	r.Category = NormalizeCategory(r.Category)
}

// Validate reports every problem with an already cleaned record.
func (r Record) Validate() []string {
	var issues []string
	if r.RegistrationNumber == "" {
		issues = append(issues, "missing registration number")
	} else if !registrationNumberRe.MatchString(r.RegistrationNumber) {
		issues = append(issues, fmt.Sprintf("malformed registration number %q", r.RegistrationNumber))
	}
	if r.Name == "" {
		issues = append(issues, "missing name")
	}
	if r.Category == "" {
		issues = append(issues, "missing category")
	}
	return issues
}

// Equal reports whether two records carry the same data in every
// field.
func (r Record) Equal(other Record) bool {
	return r.SerialNumber == other.SerialNumber &&
		r.RegistrationNumber == other.RegistrationNumber &&
		r.Name == other.Name &&
		r.FatherName == other.FatherName &&
		r.Category == other.Category
}
