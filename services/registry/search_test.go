package registry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func searchDataset() []Record {
	return []Record{
		{SerialNumber: "1", RegistrationNumber: "TS000001", Name: "Ramesh Kumar", FatherName: "Suresh Kumar", Category: "BPharm"},
		{SerialNumber: "2", RegistrationNumber: "TS000002", Name: "Anita Rao", FatherName: "Prakash Rao", Category: "DPharm"},
		{SerialNumber: "3", RegistrationNumber: "TS000003", Name: "Kiran Reddy", FatherName: "Mohan Reddy", Category: "PharmD"},
	}
}

func TestSearchByRegistrationNumber(t *testing.T) {
	results := Search(searchDataset(), "ts000002", 10)
	require.Len(t, results, 1)
	require.Equal(t, "Anita Rao", results[0].Record.Name)
	require.Equal(t, 1.0, results[0].Score)

	// bare digits normalize to a TS prefixed number
	results = Search(searchDataset(), "3", 10)
	require.Len(t, results, 1)
	require.Equal(t, "Kiran Reddy", results[0].Record.Name)
}

func TestSearchByName(t *testing.T) {
	results := Search(searchDataset(), "ramesh kumar", 10)
	require.NotEmpty(t, results)
	require.Equal(t, "TS000001", results[0].Record.RegistrationNumber)

	// close enough misspelling still matches
	results = Search(searchDataset(), "anita roa", 10)
	require.NotEmpty(t, results)
	require.Equal(t, "TS000002", results[0].Record.RegistrationNumber)
}

func TestSearchNoMatch(t *testing.T) {
	require.Empty(t, Search(searchDataset(), "zzzzzzzz", 10))
	require.Empty(t, Search(searchDataset(), "   ", 10))
}

func TestSearchLimit(t *testing.T) {
	records := []Record{
		{RegistrationNumber: "TS000001", Name: "Ramesh Kumar"},
		{RegistrationNumber: "TS000002", Name: "Ramesh Kumar"},
		{RegistrationNumber: "TS000003", Name: "Ramesh Kumar"},
	}
	require.Len(t, Search(records, "ramesh kumar", 2), 2)
}
