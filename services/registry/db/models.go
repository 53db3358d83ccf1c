package db

type Pharmacist struct {
	RegistrationNumber string
	SerialNumber       string
	Name               string
	FatherName         string
	Category           string
	UpdatedAt          int64
}

type SyncRun struct {
	ID             int64
	RanAt          int64
	Total          int64
	NewCount       int64
	ChangedCount   int64
	IntegrityScore float64
	Applied        int64
}
