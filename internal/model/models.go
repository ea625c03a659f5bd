// Package model defines the data records for the 90-day goal challenge.
package model

// NumGoals is the fixed number of goal slots every participant has.
// Goal and progress lists are always normalized to exactly this length.
const NumGoals = 10

// TotalDays is the length of the challenge in days.
const TotalDays = 90

// Participant statuses.
const (
	StatusActive  = "active"
	StatusRemoved = "removed"
)

// Participant represents a registered challenge participant.
type Participant struct {
	UserID         int64    `json:"user_id"`
	Username       string   `json:"username"`
	FullName       string   `json:"full_name"`
	GameName       string   `json:"game_name"`
	RegisteredDate string   `json:"registered_date"`
	Status         string   `json:"status"`
	Goals          []string `json:"goals"`
}

// Report represents one participant's daily report.
// Progress is aligned positionally with the owning participant's goals.
type Report struct {
	UserID   int64    `json:"user_id"`
	Day      int      `json:"day"`
	Date     string   `json:"date"`
	Progress []string `json:"progress"`
	RestDay  bool     `json:"rest_day"`
}

// Dataset is the complete synchronized document: every participant, every
// report and the settings bag. It is the single unit of persistence for both
// the local cache and the remote spreadsheet.
type Dataset struct {
	Participants []Participant `json:"participants"`
	Reports      []Report      `json:"reports"`
	Settings     Settings      `json:"settings"`
}

// NewDataset returns an empty Dataset with initialized collections.
func NewDataset() *Dataset {
	return &Dataset{
		Participants: []Participant{},
		Reports:      []Report{},
		Settings:     Settings{},
	}
}

// NormalizeGoals pads or truncates a goal/progress list to exactly NumGoals
// entries. A nil slice becomes NumGoals empty strings.
func NormalizeGoals(goals []string) []string {
	out := make([]string, NumGoals)
	copy(out, goals)
	return out
}

// Normalize enforces the fixed-length invariants on every record.
// Called on every decode and before every persist.
func (d *Dataset) Normalize() {
	if d.Participants == nil {
		d.Participants = []Participant{}
	}
	if d.Reports == nil {
		d.Reports = []Report{}
	}
	if d.Settings == nil {
		d.Settings = Settings{}
	}
	for i := range d.Participants {
		d.Participants[i].Goals = NormalizeGoals(d.Participants[i].Goals)
		if d.Participants[i].Status == "" {
			d.Participants[i].Status = StatusActive
		}
	}
	for i := range d.Reports {
		d.Reports[i].Progress = NormalizeGoals(d.Reports[i].Progress)
		if d.Reports[i].Day < 1 {
			d.Reports[i].Day = 1
		}
	}
}

// Participant returns the participant with the given user ID, or nil.
func (d *Dataset) Participant(userID int64) *Participant {
	for i := range d.Participants {
		if d.Participants[i].UserID == userID {
			return &d.Participants[i]
		}
	}
	return nil
}

// IsRegistered reports whether a user is a participant.
func (d *Dataset) IsRegistered(userID int64) bool {
	return d.Participant(userID) != nil
}

// Register adds a new active participant with empty goals. Registering an
// already-known user is a no-op.
func (d *Dataset) Register(userID int64, username, fullName, gameName, registeredDate string) {
	if d.IsRegistered(userID) {
		return
	}
	d.Participants = append(d.Participants, Participant{
		UserID:         userID,
		Username:       username,
		FullName:       fullName,
		GameName:       gameName,
		RegisteredDate: registeredDate,
		Status:         StatusActive,
		Goals:          NormalizeGoals(nil),
	})
}

// UserGoals returns the user's goals as exactly NumGoals entries.
// Unknown users get NumGoals empty strings.
func (d *Dataset) UserGoals(userID int64) []string {
	if p := d.Participant(userID); p != nil {
		return NormalizeGoals(p.Goals)
	}
	return NormalizeGoals(nil)
}

// SetUserGoal sets goal number n (1-based) for the user. Out-of-range goal
// numbers and unknown users are ignored.
func (d *Dataset) SetUserGoal(userID int64, n int, text string) {
	p := d.Participant(userID)
	if p == nil || n < 1 || n > NumGoals {
		return
	}
	p.Goals = NormalizeGoals(p.Goals)
	p.Goals[n-1] = text
}

// Report returns the report for (userID, day), or nil.
func (d *Dataset) Report(userID int64, day int) *Report {
	for i := range d.Reports {
		if d.Reports[i].UserID == userID && d.Reports[i].Day == day {
			return &d.Reports[i]
		}
	}
	return nil
}

// SaveReport records progress for (userID, day). If a report for the pair
// already exists it is updated in place; the reports list never grows a
// duplicate. Progress keys are 1-based goal numbers; out-of-range keys are
// dropped.
func (d *Dataset) SaveReport(userID int64, day int, date string, progress map[int]string, restDay bool) {
	if r := d.Report(userID, day); r != nil {
		r.Date = date
		r.RestDay = restDay
		r.Progress = NormalizeGoals(r.Progress)
		for n, text := range progress {
			if n >= 1 && n <= NumGoals {
				r.Progress[n-1] = text
			}
		}
		return
	}
	p := NormalizeGoals(nil)
	for n, text := range progress {
		if n >= 1 && n <= NumGoals {
			p[n-1] = text
		}
	}
	d.Reports = append(d.Reports, Report{
		UserID:   userID,
		Day:      day,
		Date:     date,
		Progress: p,
		RestDay:  restDay,
	})
}

// ReportsCount returns how many reports the user has submitted.
func (d *Dataset) ReportsCount(userID int64) int {
	count := 0
	for i := range d.Reports {
		if d.Reports[i].UserID == userID {
			count++
		}
	}
	return count
}

// ActiveParticipants returns all participants with active status.
func (d *Dataset) ActiveParticipants() []Participant {
	var out []Participant
	for _, p := range d.Participants {
		if p.Status == StatusActive {
			out = append(out, p)
		}
	}
	return out
}

// RemoveParticipant marks a participant as removed. Returns false for
// unknown users.
func (d *Dataset) RemoveParticipant(userID int64) bool {
	p := d.Participant(userID)
	if p == nil {
		return false
	}
	p.Status = StatusRemoved
	return true
}

// Clone returns a deep copy of the dataset. Handlers mutate copies and route
// them back through the synchronization manager.
func (d *Dataset) Clone() *Dataset {
	out := &Dataset{
		Participants: make([]Participant, len(d.Participants)),
		Reports:      make([]Report, len(d.Reports)),
		Settings:     Settings{},
	}
	for i, p := range d.Participants {
		p.Goals = NormalizeGoals(p.Goals)
		out.Participants[i] = p
	}
	for i, r := range d.Reports {
		r.Progress = NormalizeGoals(r.Progress)
		out.Reports[i] = r
	}
	for k, v := range d.Settings {
		out.Settings[k] = v
	}
	return out
}
