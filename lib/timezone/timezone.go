package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		panic(err)
	}
}

// the council publishes everything in IST, so date arithmetic
// (backup names, daily update hours, audit entries) has to happen
// in that zone no matter where the process runs
func Now() time.Time {
	return time.Now().In(Location)
}
