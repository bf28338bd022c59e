package attendance

import (
	"errors"
	"fmt"
	"strings"

	"eduportal/internal/model"
)

var (
	ErrActiveSession    = errors.New("class already has an active attendance session")
	ErrSessionClosed    = errors.New("attendance session is closed")
	ErrInvalidCode      = errors.New("invalid attendance code")
	ErrCodeUsed         = errors.New("attendance code already used")
	ErrNotEnrolled      = errors.New("student is not enrolled in this class")
	ErrAlreadySignedIn  = fmt.Errorf("%w: student already signed in", ErrCodeUsed)
	ErrAlreadySignedOut = fmt.Errorf("%w: student already signed out", ErrCodeUsed)
	ErrNotSignedIn      = errors.New("sign-out requires a prior sign-in")
	ErrBadDirection     = errors.New("direction must be signin or signout")
)

// Direction selects the sign-in or sign-out code of a session.
type Direction string

const (
	SignIn  Direction = "signin"
	SignOut Direction = "signout"
)

// ParseDirection accepts "signin"/"signout" in any case, with or without a dash.
func ParseDirection(s string) (Direction, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "") {
	case "signin", "in":
		return SignIn, nil
	case "signout", "out":
		return SignOut, nil
	}
	return "", fmt.Errorf("%w: %q", ErrBadDirection, s)
}

// SessionState is where an attendance session sits in its lifecycle.
type SessionState string

const (
	NoSession SessionState = "no-session"
	Active    SessionState = "active"
	Closed    SessionState = "closed"
)

// State reports the lifecycle state of s; nil means no session was created.
func State(s *model.AttendanceSession) SessionState {
	switch {
	case s == nil:
		return NoSession
	case s.Active:
		return Active
	default:
		return Closed
	}
}

// CanCreate enforces one active session per class.
func CanCreate(classID string, active []model.AttendanceSession) error {
	for _, s := range active {
		if s.Active && s.ClassID == classID {
			return ErrActiveSession
		}
	}
	return nil
}

// EligibleClasses returns the classes that have no active attendance session.
func EligibleClasses(classes []model.Class, active []model.AttendanceSession) []model.Class {
	busy := make(map[string]struct{}, len(active))
	for _, s := range active {
		if s.Active {
			busy[s.ClassID] = struct{}{}
		}
	}
	out := make([]model.Class, 0, len(classes))
	for _, c := range classes {
		if _, ok := busy[c.ID]; !ok {
			out = append(out, c)
		}
	}
	return out
}

// Redeemable reports whether the code for dir still accepts redemptions.
// A code is shared by the class and stays open until the session closes;
// single use is enforced per student and direction by the ledger.
func Redeemable(s model.AttendanceSession, dir Direction) error {
	if !s.Active {
		return ErrSessionClosed
	}
	if dir != SignIn && dir != SignOut {
		return ErrBadDirection
	}
	return nil
}

// CodeView is the tutor-facing state of one code.
type CodeView struct {
	Direction  Direction `json:"direction"`
	Code       string    `json:"code"`
	Used       bool      `json:"used"`
	Redeemable bool      `json:"redeemable"`
}

// Codes describes both codes of s.
func Codes(s model.AttendanceSession) []CodeView {
	return []CodeView{
		{Direction: SignIn, Code: s.SignInCode, Used: s.SignInCodeUsed, Redeemable: Redeemable(s, SignIn) == nil},
		{Direction: SignOut, Code: s.SignOutCode, Used: s.SignOutCodeUsed, Redeemable: Redeemable(s, SignOut) == nil},
	}
}
