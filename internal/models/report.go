package models

// RecapRow is the per-student aggregate over a date range.
type RecapRow struct {
	NIS     string        `json:"nis"`
	Name    string        `json:"nama"`
	Cohort  string        `json:"kelas"`
	Present int           `json:"present"`
	Sick    int           `json:"sick"`
	Leave   int           `json:"leave"`
	Absent  int           `json:"absent"`
	Late    int           `json:"late"`
	Total   int           `json:"total"`
	Records []RecapRecord `json:"records,omitempty"`
}

// RecapRecord is one matched ledger row for drill-down.
type RecapRecord struct {
	Date         string `json:"date"`
	Status       string `json:"status"`
	CheckInTime  string `json:"check_in_time,omitempty"`
	CheckOutTime string `json:"check_out_time,omitempty"`
	Note         string `json:"note,omitempty"`
}

// RecapTotals is the grand-total row across all matched students.
type RecapTotals struct {
	Present int `json:"present"`
	Sick    int `json:"sick"`
	Leave   int `json:"leave"`
	Absent  int `json:"absent"`
	Late    int `json:"late"`
	Total   int `json:"total"`
}

// TodayRow is one live attendance row joined with the roster cohort.
type TodayRow struct {
	NIS          string `json:"nis"`
	Name         string `json:"nama"`
	Cohort       string `json:"kelas"`
	Status       string `json:"status"`
	CheckInTime  string `json:"check_in_time"`
	CheckOutTime string `json:"check_out_time"`
	Note         string `json:"note"`
}
