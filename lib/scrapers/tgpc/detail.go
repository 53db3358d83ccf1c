package tgpc

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"tgpc-backend/lib/htmlutil"
)

// ErrNoRecords is returned when the council has no record matching a
// detail query.
var ErrNoRecords = fmt.Errorf("no records found")

// the council renders registration validity dates like "31-Dec-2022"
const validityLayout = "02-Jan-2006"

// DetailQuery is the search form of the council's pharmacist lookup.
// Only RegistrationNumber is required, the rest narrow the search.
type DetailQuery struct {
	RegistrationNumber string
	Name               string
	FatherName         string
	DateOfBirth        string
}

type Education struct {
	Qualification   string
	BoardUniversity string
	CollegeName     string
	CollegeAddress  string
	YearFrom        string
	YearTo          string
	HallticketNo    string
}

type WorkPlace struct {
	Address  string
	State    string
	District string
	Pincode  string
}

// Detail is the full record the council publishes for a single
// pharmacist. ValidUpto is zero when the page carries no validity
// date.
type Detail struct {
	RegistrationNumber string
	Name               string
	FatherName         string
	Category           string
	Gender             string
	Status             string
	ValidUpto          time.Time
	Education          []Education
	Work               *WorkPlace
}

// ParseDetail extracts a pharmacist detail record from a search
// response page.
func ParseDetail(page string) (*Detail, error) {
	if strings.Contains(page, "No Records Found") {
		return nil, ErrNoRecords
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, err
	}

	tables := htmlutil.Tables(doc)
	if len(tables) == 0 {
		return nil, fmt.Errorf("detail: no tables found in document")
	}

	detail := &Detail{}
	parseMainInfo(tables[0], detail)
	if detail.RegistrationNumber == "" {
		return nil, fmt.Errorf("detail: page carries no registration number")
	}
	if len(tables) > 1 {
		detail.Education = parseEducation(tables[1])
	}
	if len(tables) > 2 {
		detail.Work = parseWork(tables[2])
	}
	return detail, nil
}

// The main info table pairs header cells with value cells, but the
// council shuffles row layout between page versions, so fields are
// matched by header keyword rather than position.
func parseMainInfo(table *goquery.Selection, detail *Detail) {
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("th, td")
		for i := 0; i+1 < cells.Length(); i += 2 {
			header := strings.ToLower(htmlutil.CellText(cells.Eq(i)))
			value := htmlutil.CellText(cells.Eq(i + 1))
			if value == "" {
				continue
			}

			switch {
			case strings.Contains(header, "registration"):
				detail.RegistrationNumber = value
			case strings.Contains(header, "father"):
				detail.FatherName = value
			case strings.Contains(header, "name"):
				if detail.Name == "" {
					detail.Name = value
				}
			case strings.Contains(header, "category"):
				detail.Category = value
			case strings.Contains(header, "gender"):
				detail.Gender = value
			case strings.Contains(header, "valid"):
				if date, err := time.Parse(validityLayout, value); err == nil {
					detail.ValidUpto = date
				}
			case strings.Contains(header, "status"):
				detail.Status = value
			}
		}
	})
}

func parseEducation(table *goquery.Selection) []Education {
	var education []Education
	for _, row := range htmlutil.DataRows(table) {
		cells := row.Find("td")
		if cells.Length() < 7 {
			continue
		}
		education = append(education, Education{
			Qualification:   htmlutil.CellText(cells.Eq(0)),
			BoardUniversity: htmlutil.CellText(cells.Eq(1)),
			CollegeName:     htmlutil.CellText(cells.Eq(2)),
			CollegeAddress:  htmlutil.CellText(cells.Eq(3)),
			YearFrom:        htmlutil.CellText(cells.Eq(4)),
			YearTo:          htmlutil.CellText(cells.Eq(5)),
			HallticketNo:    htmlutil.CellText(cells.Eq(6)),
		})
	}
	return education
}

func parseWork(table *goquery.Selection) *WorkPlace {
	for _, row := range htmlutil.DataRows(table) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			continue
		}
		work := &WorkPlace{
			Address:  htmlutil.CellText(cells.Eq(0)),
			State:    htmlutil.CellText(cells.Eq(1)),
			District: htmlutil.CellText(cells.Eq(2)),
			Pincode:  htmlutil.CellText(cells.Eq(3)),
		}
		if work.Address != "" || work.District != "" {
			return work
		}
	}
	return nil
}
