package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateAll(t *testing.T) {
	records := []Record{
		{SerialNumber: "1", RegistrationNumber: "TS000001", Name: "RAMESH KUMAR", FatherName: "SURESH", Category: "B.Pharmacy"},
		{SerialNumber: "2", RegistrationNumber: "ts000002", Name: "anita rao", FatherName: "prakash", Category: "d pharm"},
		// duplicate of the first, should be dropped
		{SerialNumber: "3", RegistrationNumber: "TS000001", Name: "RAMESH KUMAR", FatherName: "SURESH", Category: "B.Pharmacy"},
		// malformed registration number
		{SerialNumber: "4", RegistrationNumber: "XYZ", Name: "BROKEN", FatherName: "", Category: "B.Pharmacy"},
		// missing name
		{SerialNumber: "5", RegistrationNumber: "TS000005", Name: "", FatherName: "", Category: "B.Pharmacy"},
	}

	clean, report := ValidateAll(context.Background(), records)
	require.Len(t, clean, 2)
	require.Equal(t, 5, report.Total)
	require.Equal(t, 2, report.Clean)
	require.Equal(t, 2, report.Dropped)
	require.Equal(t, 1, report.Duplicates)
	require.InDelta(t, 0.4, report.IntegrityScore(), 1e-9)

	require.Equal(t, "TS000001", clean[0].RegistrationNumber)
	require.Equal(t, "Ramesh Kumar", clean[0].Name)
	require.Equal(t, "TS000002", clean[1].RegistrationNumber)
	require.Equal(t, "DPharm", clean[1].Category)
}

func TestValidateAllEmpty(t *testing.T) {
	clean, report := ValidateAll(context.Background(), nil)
	require.Empty(t, clean)
	require.Equal(t, 0.0, report.IntegrityScore())
}
