package tgpc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"tgpc-backend/lib/htmlutil"
)

// the council's listing table carries this id, at least on good days
const listingTableID = "tablesorter-demo"

// ListingRow is a single row of the pharmacist listing, untouched
// beyond whitespace normalization. Serial is 0 when the cell does not
// hold a number.
type ListingRow struct {
	Serial             int
	RegistrationNumber string
	Name               string
	FatherName         string
	Category           string
}

// ParseListing extracts pharmacist rows from the listing page.
func ParseListing(page string) ([]ListingRow, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, err
	}

	table, err := htmlutil.FindTable(doc, listingTableID)
	if err != nil {
		return nil, fmt.Errorf("listing: %w", err)
	}

	var rows []ListingRow
	for _, row := range htmlutil.DataRows(table) {
		cells := row.Find("td")
		if cells.Length() < 5 {
			continue
		}

		serial, _ := strconv.Atoi(htmlutil.CellText(cells.Eq(0)))
		regNo := htmlutil.CellText(cells.Eq(1))
		if regNo == "" {
			continue
		}

		rows = append(rows, ListingRow{
			Serial:             serial,
			RegistrationNumber: regNo,
			Name:               htmlutil.CellText(cells.Eq(2)),
			FatherName:         htmlutil.CellText(cells.Eq(3)),
			Category:           htmlutil.CellText(cells.Eq(4)),
		})
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("listing: table contains no pharmacist rows")
	}
	return rows, nil
}
