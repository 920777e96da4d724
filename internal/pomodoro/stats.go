package pomodoro

// DayLayout is the calendar-date format used for stats and read-days.
const DayLayout = "2006-01-02"

// Stats are the cumulative focus statistics persisted across restarts.
// FocusTime fields are in minutes.
type Stats struct {
	TotalSessions   int    `json:"totalSessions"`
	TotalFocusTime  int    `json:"totalFocusTime"`
	TodaySessions   int    `json:"todaySessions"`
	TodayFocusTime  int    `json:"todayFocusTime"`
	LastSessionDate string `json:"lastSessionDate,omitempty"`
}

// Record returns s updated with one completed work session of the given
// length on day. The today counters restart whenever day differs from the
// last recorded session date.
func (s Stats) Record(day string, minutes int) Stats {
	if s.LastSessionDate != day {
		s.TodaySessions = 0
		s.TodayFocusTime = 0
	}
	s.TodaySessions++
	s.TodayFocusTime += minutes
	s.TotalSessions++
	s.TotalFocusTime += minutes
	s.LastSessionDate = day
	return s
}

// Today returns the session count and focus minutes for day, which are zero
// unless the last recorded session happened on day.
func (s Stats) Today(day string) (sessions, minutes int) {
	if s.LastSessionDate != day {
		return 0, 0
	}
	return s.TodaySessions, s.TodayFocusTime
}
