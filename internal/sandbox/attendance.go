package sandbox

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"eduportal/internal/attendance"
	"eduportal/internal/forms"
	"eduportal/internal/model"
)

func (s *Server) createAttendance(c *gin.Context) {
	f, valid := bind[forms.AttendanceCreate](c, nil)
	if !valid {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	class, found := s.classes.get(f.ClassID)
	if !found {
		fail(c, http.StatusBadRequest, "Class not found")
		return
	}
	if err := attendance.CanCreate(class.ID, s.snapshots(true)); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	l := attendance.Open(newID(), class.ID, f.CourseID, s.roster(class), s.newCode, s.now())
	snap := l.Snapshot()
	s.sessions.put(snap.ID, l)
	s.log.Info("attendance session opened", zap.String("session", snap.ID), zap.String("class", class.ID))
	ok(c, http.StatusCreated, "Attendance session created", snap)
}

// roster lists the class's own students, falling back to its category.
func (s *Server) roster(class model.Class) []attendance.Student {
	ids := class.Students
	if len(ids) == 0 {
		if cat, found := s.categories.get(class.CategoryID); found {
			ids = cat.Students
		}
	}
	out := make([]attendance.Student, 0, len(ids))
	for _, id := range ids {
		st := attendance.Student{ID: id}
		if acc, found := s.users.get(id); found {
			st.Name = acc.Name
		}
		out = append(out, st)
	}
	return out
}

// snapshots returns every session, or only the active ones. Callers hold s.mu.
func (s *Server) snapshots(activeOnly bool) []model.AttendanceSession {
	out := make([]model.AttendanceSession, 0, len(s.sessions.order))
	for _, l := range s.sessions.all() {
		snap := l.Snapshot()
		if activeOnly && !snap.Active {
			continue
		}
		out = append(out, snap)
	}
	return out
}

func (s *Server) listAttendance(c *gin.Context) {
	s.mu.RLock()
	all := s.snapshots(false)
	s.mu.RUnlock()
	paged(c, all, false)
}

func (s *Server) activeAttendance(c *gin.Context) {
	s.mu.RLock()
	active := s.snapshots(true)
	s.mu.RUnlock()
	if caller(c).Role == model.RoleStudent {
		for i := range active {
			active[i].SignInCode, active[i].SignOutCode = "", ""
		}
	}
	ok(c, http.StatusOK, "", active)
}

func (s *Server) pastAttendance(c *gin.Context) {
	s.mu.RLock()
	all := s.snapshots(false)
	s.mu.RUnlock()
	past := all[:0]
	for _, snap := range all {
		if !snap.Active {
			past = append(past, snap)
		}
	}
	paged(c, past, false)
}

func (s *Server) ledger(c *gin.Context, id string) (*attendance.Ledger, bool) {
	s.mu.RLock()
	l, found := s.sessions.get(id)
	s.mu.RUnlock()
	if !found {
		fail(c, http.StatusNotFound, "Attendance session not found")
	}
	return l, found
}

func (s *Server) getAttendance(c *gin.Context) {
	if l, found := s.ledger(c, c.Param("id")); found {
		ok(c, http.StatusOK, "", l.Snapshot())
	}
}

func (s *Server) regenerate(c *gin.Context) {
	var body struct {
		Regenerate string `json:"regenerate"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	dir, err := attendance.ParseDirection(body.Regenerate)
	if err != nil {
		fail(c, http.StatusBadRequest, attendance.ErrBadDirection.Error())
		return
	}
	l, found := s.ledger(c, c.Param("id"))
	if !found {
		return
	}
	if _, err := l.Regenerate(dir); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	msg := "Sign-in code regenerated"
	if dir == attendance.SignOut {
		msg = "Sign-out code regenerated"
	}
	ok(c, http.StatusOK, msg, l.Snapshot())
}

func (s *Server) closeAttendance(c *gin.Context) {
	l, found := s.ledger(c, c.Param("id"))
	if !found {
		return
	}
	if err := l.Close(s.now()); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	ok(c, http.StatusOK, "Attendance session closed", l.Snapshot())
}

func (s *Server) deleteAttendance(c *gin.Context) {
	s.mu.Lock()
	removed := s.sessions.remove(c.Param("id"))
	s.mu.Unlock()
	if !removed {
		fail(c, http.StatusNotFound, "Attendance session not found")
		return
	}
	ok(c, http.StatusOK, "Attendance session deleted", nil)
}

// redeem finds the active session currently holding the code and records the
// caller against it. Rule violations are answered with success:false.
func (s *Server) redeem(dir attendance.Direction) gin.HandlerFunc {
	return func(c *gin.Context) {
		f, valid := bind[forms.Redeem](c, nil)
		if !valid {
			return
		}
		f = f.Normalized()
		me := caller(c)

		s.mu.RLock()
		var target *attendance.Ledger
		closed := false
		for _, l := range s.sessions.all() {
			if !l.Holds(dir, f.Code) {
				continue
			}
			if attendance.State(ptr(l.Snapshot())) == attendance.Active {
				target = l
				break
			}
			closed = true
		}
		s.mu.RUnlock()
		if target == nil {
			err := attendance.ErrInvalidCode
			if closed {
				err = attendance.ErrSessionClosed
			}
			reject(c, err.Error())
			return
		}

		var rec model.AttendanceRecord
		var err error
		if dir == attendance.SignIn {
			rec, err = target.RedeemSignIn(me.ID, f.Code, s.now())
		} else {
			rec, err = target.RedeemSignOut(me.ID, f.Code, s.now())
		}
		if err != nil {
			if !errors.Is(err, attendance.ErrCodeUsed) {
				s.log.Debug("redeem refused", zap.String("student", me.ID), zap.Error(err))
			}
			reject(c, err.Error())
			return
		}
		msg := "Signed in successfully"
		if dir == attendance.SignOut {
			msg = "Signed out successfully"
		}
		ok(c, http.StatusOK, msg, rec)
	}
}

func (s *Server) history(c *gin.Context) {
	var f forms.HistoryFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		fail(c, http.StatusBadRequest, "month and day must be numbers")
		return
	}
	if errs := forms.Validate(f); errs != nil {
		fail(c, http.StatusBadRequest, errs.Error())
		return
	}
	me := caller(c)

	s.mu.RLock()
	entries := []model.HistoryEntry{}
	for _, snap := range s.snapshots(false) {
		if !f.Matches(snap.CreatedAt) {
			continue
		}
		for _, rec := range snap.Records {
			if rec.StudentID != me.ID {
				continue
			}
			e := model.HistoryEntry{
				SessionID:   snap.ID,
				ClassID:     snap.ClassID,
				Status:      rec.Status,
				SignInTime:  rec.SignInTime,
				SignOutTime: rec.SignOutTime,
				Date:        snap.CreatedAt,
			}
			if class, found := s.classes.get(snap.ClassID); found {
				e.Topic = class.Topic
			}
			entries = append(entries, e)
		}
	}
	s.mu.RUnlock()
	paged(c, entries, false)
}

func ptr[T any](v T) *T { return &v }
