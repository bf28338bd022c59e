package model

import "time"

// Role is a portal user role.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTutor   Role = "tutor"
	RoleStudent Role = "student"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleTutor, RoleStudent:
		return true
	}
	return false
}

// User is an organization member.
type User struct {
	ID             string `json:"_id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Role           Role   `json:"role"`
	OrganizationID string `json:"organizationId,omitempty"`
}

// Organization is the top-level tenant owning users, courses and categories.
type Organization struct {
	ID      string `json:"_id"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Address string `json:"address,omitempty"`
}

// Course belongs to an organization.
type Course struct {
	ID             string `json:"_id"`
	Name           string `json:"name"`
	Description    string `json:"description,omitempty"`
	OrganizationID string `json:"organizationId,omitempty"`
}

// Category groups students and tutors under a course.
type Category struct {
	ID          string   `json:"_id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	CourseID    string   `json:"courseId"`
	Students    []string `json:"students"`
	Tutors      []string `json:"tutors"`
}

// ClassStatus is derived from the current time against a class's start and end.
type ClassStatus string

const (
	ClassComing ClassStatus = "coming"
	ClassActive ClassStatus = "active"
	ClassDone   ClassStatus = "done"
)

// Class is a single class meeting scoped to a category.
type Class struct {
	ID          string      `json:"_id"`
	Topic       string      `json:"topic"`
	Description string      `json:"description,omitempty"`
	CategoryID  string      `json:"categoryId"`
	StartTime   time.Time   `json:"startTime"`
	EndTime     time.Time   `json:"endTime"`
	Students    []string    `json:"students"`
	Status      ClassStatus `json:"status,omitempty"`
}

// AttendanceStatus of one student within an attendance session.
type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "present"
	StatusPartial AttendanceStatus = "partial"
	StatusAbsent  AttendanceStatus = "absent"
)

// AttendanceRecord is the per-student row of an attendance session.
type AttendanceRecord struct {
	StudentID   string           `json:"studentId"`
	StudentName string           `json:"studentName,omitempty"`
	Status      AttendanceStatus `json:"status"`
	SignInTime  *time.Time       `json:"signInTime,omitempty"`
	SignOutTime *time.Time       `json:"signOutTime,omitempty"`
	MarkedBy    string           `json:"markedBy,omitempty"`
}

// AttendanceSession is bound to one class and carries its sign-in and sign-out codes.
type AttendanceSession struct {
	ID              string             `json:"_id"`
	ClassID         string             `json:"classId"`
	CourseID        string             `json:"courseId"`
	SignInCode      string             `json:"signInCode"`
	SignOutCode     string             `json:"signOutCode"`
	SignInCodeUsed  bool               `json:"signInCodeUsed"`
	SignOutCodeUsed bool               `json:"signOutCodeUsed"`
	Active          bool               `json:"active"`
	Records         []AttendanceRecord `json:"records"`
	CreatedAt       time.Time          `json:"createdAt"`
	ClosedAt        *time.Time         `json:"closedAt,omitempty"`
}

// Dashboard is the role-specific summary returned by the dashboard endpoints.
type Dashboard struct {
	TotalStudents    int     `json:"totalStudents"`
	TotalTutors      int     `json:"totalTutors"`
	TotalCourses     int     `json:"totalCourses"`
	TotalCategories  int     `json:"totalCategories"`
	TotalClasses     int     `json:"totalClasses"`
	ActiveSessions   int     `json:"activeSessions"`
	UpcomingClasses  int     `json:"upcomingClasses"`
	AttendanceRate   float64 `json:"attendanceRate"`
	SessionsAttended int     `json:"sessionsAttended,omitempty"`
	SessionsTotal    int     `json:"sessionsTotal,omitempty"`
	OrganizationName string  `json:"organizationName,omitempty"`
}

// HistoryEntry is one row of a student's attendance history.
type HistoryEntry struct {
	SessionID   string           `json:"sessionId"`
	ClassID     string           `json:"classId"`
	Topic       string           `json:"topic,omitempty"`
	Status      AttendanceStatus `json:"status"`
	SignInTime  *time.Time       `json:"signInTime,omitempty"`
	SignOutTime *time.Time       `json:"signOutTime,omitempty"`
	Date        time.Time        `json:"date"`
}
