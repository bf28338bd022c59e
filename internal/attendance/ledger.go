package attendance

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"eduportal/internal/model"
)

// Student is one roster entry of the class an attendance session is bound to.
type Student struct {
	ID   string
	Name string
}

// NewCode returns a six character attendance code.
func NewCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
}

// Ledger keeps the code-redemption bookkeeping of a single attendance session.
// It is safe for concurrent use.
type Ledger struct {
	mu      sync.Mutex
	session model.AttendanceSession
	index   map[string]int // student id -> record position
	newCode func() string
}

// Open starts an active session for the roster; every student starts absent.
func Open(id, classID, courseID string, roster []Student, newCode func() string, now time.Time) *Ledger {
	if newCode == nil {
		newCode = NewCode
	}
	l := &Ledger{
		index:   make(map[string]int, len(roster)),
		newCode: newCode,
	}
	l.session = model.AttendanceSession{
		ID:        id,
		ClassID:   classID,
		CourseID:  courseID,
		Active:    true,
		Records:   make([]model.AttendanceRecord, 0, len(roster)),
		CreatedAt: now.UTC(),
	}
	l.session.SignInCode = newCode()
	l.session.SignOutCode = l.freshCode(l.session.SignInCode)
	for _, st := range roster {
		if _, dup := l.index[st.ID]; dup {
			continue
		}
		l.index[st.ID] = len(l.session.Records)
		l.session.Records = append(l.session.Records, model.AttendanceRecord{
			StudentID:   st.ID,
			StudentName: st.Name,
			Status:      model.StatusAbsent,
		})
	}
	return l
}

// Snapshot returns a deep copy of the session with statuses derived from timestamps.
func (l *Ledger) Snapshot() model.AttendanceSession {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.session
	s.Records = Normalize(l.session.Records)
	if l.session.ClosedAt != nil {
		t := *l.session.ClosedAt
		s.ClosedAt = &t
	}
	return s
}

// Holds reports whether code is the current code for dir.
func (l *Ledger) Holds(dir Direction, code string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return sameCode(l.current(dir), code)
}

// RedeemSignIn moves a student from absent to partial. Each student redeems
// the sign-in code once.
func (l *Ledger) RedeemSignIn(studentID, code string, at time.Time) (model.AttendanceRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkCode(SignIn, code); err != nil {
		return model.AttendanceRecord{}, err
	}
	i, ok := l.index[studentID]
	if !ok {
		return model.AttendanceRecord{}, ErrNotEnrolled
	}
	rec := &l.session.Records[i]
	if rec.SignInTime != nil {
		return model.AttendanceRecord{}, ErrAlreadySignedIn
	}
	t := at.UTC()
	rec.SignInTime = &t
	rec.MarkedBy = studentID
	rec.Status = DeriveStatus(rec.SignInTime, rec.SignOutTime)
	l.session.SignInCodeUsed = true
	return *rec, nil
}

// RedeemSignOut moves a signed-in student from partial to present. Each
// student redeems the sign-out code once.
func (l *Ledger) RedeemSignOut(studentID, code string, at time.Time) (model.AttendanceRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.checkCode(SignOut, code); err != nil {
		return model.AttendanceRecord{}, err
	}
	i, ok := l.index[studentID]
	if !ok {
		return model.AttendanceRecord{}, ErrNotEnrolled
	}
	rec := &l.session.Records[i]
	if rec.SignInTime == nil {
		return model.AttendanceRecord{}, ErrNotSignedIn
	}
	if rec.SignOutTime != nil {
		return model.AttendanceRecord{}, ErrAlreadySignedOut
	}
	t := at.UTC()
	rec.SignOutTime = &t
	rec.MarkedBy = studentID
	rec.Status = DeriveStatus(rec.SignInTime, rec.SignOutTime)
	l.session.SignOutCodeUsed = true
	return *rec, nil
}

// Regenerate invalidates the current code for dir and issues a new one nobody
// has redeemed yet.
// Recorded attendance is left untouched.
func (l *Ledger) Regenerate(dir Direction) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.session.Active {
		return "", ErrSessionClosed
	}
	switch dir {
	case SignIn:
		l.session.SignInCode = l.freshCode(l.session.SignInCode, l.session.SignOutCode)
		l.session.SignInCodeUsed = false
		return l.session.SignInCode, nil
	case SignOut:
		l.session.SignOutCode = l.freshCode(l.session.SignOutCode, l.session.SignInCode)
		l.session.SignOutCodeUsed = false
		return l.session.SignOutCode, nil
	}
	return "", ErrBadDirection
}

// Close marks the session inactive; no further redemption is accepted.
func (l *Ledger) Close(at time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.session.Active {
		return ErrSessionClosed
	}
	t := at.UTC()
	l.session.Active = false
	l.session.ClosedAt = &t
	return nil
}

func (l *Ledger) checkCode(dir Direction, code string) error {
	if !l.session.Active {
		return ErrSessionClosed
	}
	if !sameCode(l.current(dir), code) {
		return ErrInvalidCode
	}
	return Redeemable(l.session, dir)
}

func (l *Ledger) current(dir Direction) string {
	if dir == SignOut {
		return l.session.SignOutCode
	}
	return l.session.SignInCode
}

// freshCode draws codes until one differs from every code in avoid.
func (l *Ledger) freshCode(avoid ...string) string {
	for i := 0; ; i++ {
		c := l.newCode()
		clash := false
		for _, a := range avoid {
			if sameCode(a, c) {
				clash = true
				break
			}
		}
		if !clash || i >= 16 {
			return c
		}
	}
}

func sameCode(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}
