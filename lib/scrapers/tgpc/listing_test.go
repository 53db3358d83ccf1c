package tgpc

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const listingPage = `
<html>
<body>
<table id="tablesorter-demo">
	<thead>
		<tr><th>S.No</th><th>Registration No</th><th>Name</th><th>Father Name</th><th>Category</th></tr>
	</thead>
	<tbody>
		<tr>
			<td>1</td>
			<td>TS000123</td>
			<td>RAMESH  KUMAR</td>
			<td>SURESH KUMAR</td>
			<td>B.Pharmacy</td>
		</tr>
		<tr>
			<td>2</td>
			<td>TG004567</td>
			<td>Anita&nbsp;Rao</td>
			<td>Prakash Rao</td>
			<td>D.Pharmacy</td>
		</tr>
		<tr>
			<td>3</td>
			<td></td>
			<td>MISSING REGNO</td>
			<td>IGNORED</td>
			<td>B.Pharmacy</td>
		</tr>
	</tbody>
</table>
</body>
</html>`

func TestParseListing(t *testing.T) {
	rows, err := ParseListing(listingPage)
	require.NoError(t, err)

	expected := []ListingRow{
		{
			Serial:             1,
			RegistrationNumber: "TS000123",
			Name:               "RAMESH KUMAR",
			FatherName:         "SURESH KUMAR",
			Category:           "B.Pharmacy",
		},
		{
			Serial:             2,
			RegistrationNumber: "TG004567",
			Name:               "Anita Rao",
			FatherName:         "Prakash Rao",
			Category:           "D.Pharmacy",
		},
	}
	diff := cmp.Diff(expected, rows)
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestParseListingWithoutTableID(t *testing.T) {
	page := `
<html><body>
<table>
	<tr><td>7</td><td>TS000777</td><td>TEST NAME</td><td>TEST FATHER</td><td>Pharm.D</td></tr>
</table>
</body></html>`

	rows, err := ParseListing(page)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "TS000777", rows[0].RegistrationNumber)
	require.Equal(t, 7, rows[0].Serial)
}

func TestParseListingEmpty(t *testing.T) {
	_, err := ParseListing(`<html><body><p>maintenance</p></body></html>`)
	require.Error(t, err)

	_, err = ParseListing(`<html><body><table><tr><th>only headers</th></tr></table></body></html>`)
	require.Error(t, err)
}
