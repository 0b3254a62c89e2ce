package models

// Student represents one roster row keyed by NIS.
type Student struct {
	NIS             string `json:"nis"`
	Name            string `json:"nama"`
	Cohort          string `json:"kelas"`
	GuardianContact string `json:"guardian_contact,omitempty"`
}

// RosterIndex maps NIS to the student record for O(1) identity resolution.
type RosterIndex map[string]Student

// StudentFilter narrows roster queries.
type StudentFilter struct {
	Cohort string
	Name   string
	NIS    string
}

// Matches reports whether the student passes the filter. Cohort matching is
// exact (case-insensitive), name matching is substring, NIS matching is exact.
func (f StudentFilter) Matches(s Student) bool {
	if f.Cohort != "" && !equalFold(s.Cohort, f.Cohort) {
		return false
	}
	if f.Name != "" && !containsFold(s.Name, f.Name) {
		return false
	}
	if f.NIS != "" && s.NIS != f.NIS {
		return false
	}
	return true
}
