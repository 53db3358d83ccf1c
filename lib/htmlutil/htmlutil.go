package htmlutil

import (
	"bytes"
	"fmt"
	"tgpc-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

// CellText extracts the text of a table cell, stripped of
// non-printable characters and with whitespace collapsed.
func CellText(sel *goquery.Selection) string {
	// collapse first, RemoveNonPrintable would glue words separated by
	// tabs or newlines together
	text := textutil.CollapseWhitespace(sel.Text())
	return textutil.RemoveNonPrintable(text)
}

// FindTable locates a table by id, falling back to the first table in
// the document. The council pages are inconsistent about keeping ids
// on their markup.
func FindTable(doc *goquery.Document, id string) (*goquery.Selection, error) {
	table := doc.Find(fmt.Sprintf("table#%s", id))
	if table.Length() > 0 {
		return table.First(), nil
	}
	table = doc.Find("table")
	if table.Length() == 0 {
		return nil, fmt.Errorf("no tables found in document")
	}
	return table.First(), nil
}

// Tables returns every table in the document in order.
func Tables(doc *goquery.Document) []*goquery.Selection {
	var tables []*goquery.Selection
	doc.Find("table").Each(func(_ int, sel *goquery.Selection) {
		tables = append(tables, sel)
	})
	return tables
}

// DataRows returns the rows of a table that contain at least one data
// cell, skipping header-only rows.
func DataRows(table *goquery.Selection) []*goquery.Selection {
	var rows []*goquery.Selection
	table.Find("tr").Each(func(_ int, row *goquery.Selection) {
		if row.Find("td").Length() > 0 {
			rows = append(rows, row)
		}
	})
	return rows
}
