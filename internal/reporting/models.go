package reporting

import "time"

// Stats is the dashboard summary.
type Stats struct {
	TotalSeniors         int64 `json:"totalSeniors"`
	ActiveVolunteers     int64 `json:"activeVolunteers"`
	UpcomingAppointments int64 `json:"upcomingAppointments"`
	CompletedThisMonth   int64 `json:"completedThisMonth"`
}

// MonthStart returns midnight UTC on the first day of t's month.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
