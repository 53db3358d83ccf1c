package registry

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestCleanRecord(t *testing.T) {
	record := Record{
		SerialNumber:       " 12 ",
		RegistrationNumber: "ts 1234",
		Name:               "  ramesh   KUMAR ",
		FatherName:         "suresh\tkumar",
		Category:           " b. pharmacy ",
	}
	record.Clean()

	expected := Record{
		SerialNumber:       "12",
		RegistrationNumber: "TS1234",
		Name:               "Ramesh Kumar",
		FatherName:         "Suresh Kumar",
		Category:           "BPharm",
	}
	diff := cmp.Diff(expected, record)
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestNormalizeRegistrationNumber(t *testing.T) {
	cases := []struct {
		input    string
		expected string
	}{
		{"TS012345", "TS012345"},
		{"tg98765", "TG98765"},
		{"1234", "TS001234"},
		{"987654", "TS987654"},
		{" ts 4321 ", "TS4321"},
		{"TSA1234", "TSA1234"},
	}
	for _, c := range cases {
		require.Equal(t, c.expected, NormalizeRegistrationNumber(c.input), "input: %q", c.input)
	}
}

func TestNormalizeCategory(t *testing.T) {
	cases := []struct {
		input    string
		expected string
	}{
		{"B.Pharmacy", "BPharm"},
		{"b pharm", "BPharm"},
		{"D.PHARMACY", "DPharm"},
		{"D PHARM", "DPharm"},
		{"Pharm.D", "PharmD"},
		{"pharm d", "PharmD"},
		{"M.Pharmacy", "MPharm"},
		{"q.p.", "QP"},
		{"QC", "QC"},
		{"Something Else", "Something Else"},
	}
	for _, c := range cases {
		require.Equal(t, c.expected, NormalizeCategory(c.input), "input: %q", c.input)
	}
}

func TestValidateRecord(t *testing.T) {
	valid := Record{
		SerialNumber:       "1",
		RegistrationNumber: "TS000123",
		Name:               "Ramesh Kumar",
		FatherName:         "Suresh Kumar",
		Category:           "BPharm",
	}
	require.Empty(t, valid.Validate())

	malformed := valid
	malformed.RegistrationNumber = "XX123"
	require.NotEmpty(t, malformed.Validate())

	missing := valid
	missing.RegistrationNumber = ""
	missing.Name = ""
	require.Len(t, missing.Validate(), 2)
}
