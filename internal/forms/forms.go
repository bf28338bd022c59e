package forms

import (
	"strings"
	"time"
)

// Login is the credentials form.
type Login struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Organization creates a tenant.
type Organization struct {
	Name    string `json:"name" validate:"notblank,max=120"`
	Email   string `json:"email,omitempty" validate:"omitempty,email"`
	Address string `json:"address,omitempty" validate:"max=250"`
}

// User creates or edits a student, tutor or admin.
type User struct {
	Name           string `json:"name" validate:"notblank,max=120"`
	Email          string `json:"email" validate:"required,email"`
	Role           string `json:"role" validate:"required,oneof=admin tutor student"`
	Password       string `json:"password,omitempty" validate:"omitempty,min=6"`
	OrganizationID string `json:"organizationId,omitempty"`

	// Creating requires a password; edits may leave it empty.
	Creating bool `json:"-"`
}

func (f User) check(errs Errors) {
	if f.Creating && f.Password == "" {
		if _, ok := errs["password"]; !ok {
			errs["password"] = requiredText
		}
	}
}

// Course creates or edits a course.
type Course struct {
	Name           string `json:"name" validate:"notblank,max=120"`
	Description    string `json:"description,omitempty" validate:"max=1000"`
	OrganizationID string `json:"organizationId,omitempty"`
}

// Category creates or edits a category and its membership.
type Category struct {
	Name        string   `json:"name" validate:"notblank,max=120"`
	Description string   `json:"description,omitempty" validate:"max=1000"`
	CourseID    string   `json:"courseId" validate:"required"`
	Students    []string `json:"students" validate:"dive,required"`
	Tutors      []string `json:"tutors" validate:"dive,required"`
}

// Class schedules a class meeting.
type Class struct {
	Topic       string    `json:"topic" validate:"notblank,max=200"`
	Description string    `json:"description,omitempty" validate:"max=1000"`
	CategoryID  string    `json:"categoryId" validate:"required"`
	StartTime   time.Time `json:"startTime" validate:"required"`
	EndTime     time.Time `json:"endTime" validate:"required,gtfield=StartTime"`
	Students    []string  `json:"students,omitempty" validate:"dive,required"`
}

// AttendanceCreate opens an attendance session for a class.
type AttendanceCreate struct {
	ClassID  string `json:"classId" validate:"required"`
	CourseID string `json:"courseId" validate:"required"`
}

// Redeem is a student's sign-in or sign-out code.
type Redeem struct {
	Code string `json:"code" validate:"notblank,max=32"`
}

// Normalized trims the code so copy-pasted whitespace does not fail the match.
func (f Redeem) Normalized() Redeem {
	f.Code = strings.TrimSpace(f.Code)
	return f
}

// Regenerate picks which code of a session to reissue.
type Regenerate struct {
	Direction string `json:"direction" validate:"required,oneof=signin signout"`
}

// HistoryFilter narrows attendance history to a month and optionally a day.
type HistoryFilter struct {
	Year  int `json:"year,omitempty" form:"year" validate:"omitempty,min=2000,max=2100"`
	Month int `json:"month" form:"month" validate:"required,min=1,max=12"`
	Day   int `json:"day,omitempty" form:"day" validate:"omitempty,min=1,max=31"`
}

func (f HistoryFilter) check(errs Errors) {
	if f.Year == 0 || f.Day == 0 || f.Month < 1 || f.Month > 12 {
		return
	}
	if _, ok := errs["day"]; ok {
		return
	}
	last := time.Date(f.Year, time.Month(f.Month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if f.Day > last {
		errs["day"] = "day is past the end of the month"
	}
}

// Matches reports whether t falls inside the filter.
func (f HistoryFilter) Matches(t time.Time) bool {
	if f.Year != 0 && t.Year() != f.Year {
		return false
	}
	if int(t.Month()) != f.Month {
		return false
	}
	return f.Day == 0 || t.Day() == f.Day
}
