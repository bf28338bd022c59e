package sandbox

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"

	"eduportal/internal/attendance"
	"eduportal/internal/model"
)

func (s *Server) adminDashboard(c *gin.Context) {
	now := s.now()
	s.mu.RLock()
	defer s.mu.RUnlock()

	d := model.Dashboard{
		TotalCourses:    len(s.courses.order),
		TotalCategories: len(s.categories.order),
		TotalClasses:    len(s.classes.order),
	}
	if org, found := s.orgs.get(caller(c).OrganizationID); found {
		d.OrganizationName = org.Name
	}
	for _, acc := range s.users.all() {
		switch acc.Role {
		case model.RoleStudent:
			d.TotalStudents++
		case model.RoleTutor:
			d.TotalTutors++
		}
	}
	for _, cl := range s.classes.all() {
		if attendance.ClassStatus(cl, now) == model.ClassComing {
			d.UpcomingClasses++
		}
	}
	var records []model.AttendanceRecord
	for _, snap := range s.snapshots(false) {
		if snap.Active {
			d.ActiveSessions++
		}
		records = append(records, snap.Records...)
	}
	d.AttendanceRate = attendance.Compute(records).Rate
	ok(c, http.StatusOK, "", d)
}

func (s *Server) tutorDashboard(c *gin.Context) {
	me := caller(c)
	now := s.now()
	s.mu.RLock()
	defer s.mu.RUnlock()

	var d model.Dashboard
	cats := map[string]bool{}
	for _, cat := range s.categories.all() {
		if slices.Contains(cat.Tutors, me.ID) {
			cats[cat.ID] = true
			d.TotalCategories++
			d.TotalStudents += len(cat.Students)
		}
	}
	classes := map[string]bool{}
	for _, cl := range s.classes.all() {
		if !cats[cl.CategoryID] {
			continue
		}
		classes[cl.ID] = true
		d.TotalClasses++
		if attendance.ClassStatus(cl, now) == model.ClassComing {
			d.UpcomingClasses++
		}
	}
	var records []model.AttendanceRecord
	for _, snap := range s.snapshots(false) {
		if !classes[snap.ClassID] {
			continue
		}
		if snap.Active {
			d.ActiveSessions++
		}
		records = append(records, snap.Records...)
	}
	d.AttendanceRate = attendance.Compute(records).Rate
	ok(c, http.StatusOK, "", d)
}

func (s *Server) studentDashboard(c *gin.Context) {
	me := caller(c)
	now := s.now()
	s.mu.RLock()
	defer s.mu.RUnlock()

	var d model.Dashboard
	for _, cat := range s.categories.all() {
		if slices.Contains(cat.Students, me.ID) {
			d.TotalCategories++
			for _, cl := range s.classes.all() {
				if cl.CategoryID == cat.ID {
					d.TotalClasses++
					if attendance.ClassStatus(cl, now) == model.ClassComing {
						d.UpcomingClasses++
					}
				}
			}
		}
	}
	var mine []model.AttendanceRecord
	for _, snap := range s.snapshots(false) {
		for _, rec := range snap.Records {
			if rec.StudentID != me.ID {
				continue
			}
			d.SessionsTotal++
			if snap.Active {
				d.ActiveSessions++
			}
			if rec.Status != model.StatusAbsent {
				d.SessionsAttended++
			}
			mine = append(mine, rec)
		}
	}
	d.AttendanceRate = attendance.Compute(mine).Rate
	ok(c, http.StatusOK, "", d)
}

// Demo credentials created by Seed.
const (
	AdminEmail      = "admin@school.test"
	AdminPassword   = "admin123"
	TutorEmail      = "tutor@school.test"
	TutorPassword   = "tutor123"
	StudentPassword = "student123"
)

// Demo names the records created by Seed.
type Demo struct {
	OrganizationID string
	AdminID        string
	TutorID        string
	StudentIDs     []string
	StudentEmails  []string
	CourseID       string
	CategoryID     string
	ActiveClassID  string
	LaterClassID   string
}

// Seed loads one organization with an admin, a tutor, three students, a
// course, a category and two classes: one running now and one tomorrow.
func (s *Server) Seed() Demo {
	now := s.now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()

	org := model.Organization{ID: newID(), Name: "Demo Academy", Email: "office@school.test"}
	s.orgs.put(org.ID, org)

	add := func(name, email, password string, role model.Role) string {
		acc := account{
			User:     model.User{ID: newID(), Name: name, Email: email, Role: role, OrganizationID: org.ID},
			password: password,
		}
		s.users.put(acc.ID, acc)
		return acc.ID
	}
	d := Demo{OrganizationID: org.ID}
	d.AdminID = add("Demo Admin", AdminEmail, AdminPassword, model.RoleAdmin)
	d.TutorID = add("Tess Tutor", TutorEmail, TutorPassword, model.RoleTutor)
	for _, st := range []struct{ name, email string }{
		{"Ada Lovelace", "ada@school.test"},
		{"Alan Turing", "alan@school.test"},
		{"Grace Hopper", "grace@school.test"},
	} {
		d.StudentIDs = append(d.StudentIDs, add(st.name, st.email, StudentPassword, model.RoleStudent))
		d.StudentEmails = append(d.StudentEmails, st.email)
	}

	course := model.Course{ID: newID(), Name: "Mathematics", Description: "Core mathematics", OrganizationID: org.ID}
	s.courses.put(course.ID, course)
	d.CourseID = course.ID

	cat := model.Category{
		ID:       newID(),
		Name:     "Algebra",
		CourseID: course.ID,
		Students: slices.Clone(d.StudentIDs),
		Tutors:   []string{d.TutorID},
	}
	s.categories.put(cat.ID, cat)
	d.CategoryID = cat.ID

	active := model.Class{ID: newID(), Topic: "Fractions", CategoryID: cat.ID, StartTime: now.Add(-30 * time.Minute), EndTime: now.Add(30 * time.Minute), Students: []string{}}
	later := model.Class{ID: newID(), Topic: "Linear equations", CategoryID: cat.ID, StartTime: now.Add(24 * time.Hour), EndTime: now.Add(25 * time.Hour), Students: []string{}}
	s.classes.put(active.ID, active)
	s.classes.put(later.ID, later)
	d.ActiveClassID, d.LaterClassID = active.ID, later.ID
	return d
}
