package attendance

import (
	"math"
	"time"

	"eduportal/internal/model"
)

// DeriveStatus maps sign-in and sign-out timestamps to an attendance status.
// present = both set, partial = exactly one, absent = neither.
func DeriveStatus(signIn, signOut *time.Time) model.AttendanceStatus {
	in := signIn != nil && !signIn.IsZero()
	out := signOut != nil && !signOut.IsZero()
	switch {
	case in && out:
		return model.StatusPresent
	case in || out:
		return model.StatusPartial
	default:
		return model.StatusAbsent
	}
}

// Normalize returns a copy of records with every status recomputed from its timestamps.
func Normalize(records []model.AttendanceRecord) []model.AttendanceRecord {
	out := make([]model.AttendanceRecord, len(records))
	for i, r := range records {
		r.Status = DeriveStatus(r.SignInTime, r.SignOutTime)
		out[i] = r
	}
	return out
}

// Stats summarizes the records of one attendance session.
type Stats struct {
	Total   int     `json:"total"`
	Present int     `json:"present"`
	Partial int     `json:"partial"`
	Absent  int     `json:"absent"`
	Rate    float64 `json:"attendanceRate"` // percent, [0,100]
}

// Compute derives counts and the attendance rate. Statuses reported by the
// server are ignored; only timestamps count.
func Compute(records []model.AttendanceRecord) Stats {
	var s Stats
	for _, r := range records {
		switch DeriveStatus(r.SignInTime, r.SignOutTime) {
		case model.StatusPresent:
			s.Present++
		case model.StatusPartial:
			s.Partial++
		default:
			s.Absent++
		}
	}
	s.Total = len(records)
	if s.Total == 0 {
		return s
	}
	s.Rate = clamp(float64(s.Present)/float64(s.Total)*100, 0, 100)
	return s
}

// RatePercent is the attendance rate rounded to a whole percent.
func (s Stats) RatePercent() int {
	return int(math.Round(s.Rate))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClassStatus derives a class's status from now against its start and end.
func ClassStatus(c model.Class, now time.Time) model.ClassStatus {
	switch {
	case now.Before(c.StartTime):
		return model.ClassComing
	case now.Before(c.EndTime):
		return model.ClassActive
	default:
		return model.ClassDone
	}
}

// AnnotateClasses returns copies of classes with Status set for now.
func AnnotateClasses(classes []model.Class, now time.Time) []model.Class {
	out := make([]model.Class, len(classes))
	for i, c := range classes {
		c.Status = ClassStatus(c, now)
		out[i] = c
	}
	return out
}
