package attendance

// Status is a participant's presence state, derived from the scan count.
type Status string

const (
	StatusRegistered Status = "Registered"
	StatusCheckedIn  Status = "Checked In"
	StatusCheckedOut Status = "Checked Out"
)

// Record is one registered participant. Field names double as the snapshot
// and wire format.
type Record struct {
	EntryID       string `json:"entryId"`
	Name          string `json:"name"`
	Batch         string `json:"batch"`
	Branch        string `json:"branch"`
	Course        string `json:"course"`
	Phone         string `json:"phone"`
	GuardianPhone string `json:"guardianPhone"`
	PhotoRef      string `json:"photoRef"`
	ScanCount     int    `json:"scanCount"`
	LastStatus    Status `json:"lastStatus"`
}

// StatusForCount returns the presence state for a given scan count.
// Registration counts as the first scan; from then on the state toggles on
// parity: even counts are checked in, odd counts above one are checked out.
func StatusForCount(count int) Status {
	switch {
	case count <= 1:
		return StatusRegistered
	case count%2 == 0:
		return StatusCheckedIn
	default:
		return StatusCheckedOut
	}
}
