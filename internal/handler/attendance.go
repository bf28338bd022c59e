package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"eduportal/internal/api"
	"eduportal/internal/attendance"
	"eduportal/internal/auth"
	"eduportal/internal/forms"
	"eduportal/internal/model"
	"eduportal/internal/pagination"
)

// sessionView is a session with statuses recomputed from timestamps and
// stats derived from them.
type sessionView struct {
	model.AttendanceSession
	State       attendance.SessionState `json:"state"`
	Stats       attendance.Stats        `json:"stats"`
	RatePercent int                     `json:"ratePercent"`
	Codes       []attendance.CodeView   `json:"codes,omitempty"`
}

func view(s model.AttendanceSession, withCodes bool) sessionView {
	s.Records = attendance.Normalize(s.Records)
	stats := attendance.Compute(s.Records)
	v := sessionView{
		AttendanceSession: s,
		State:             attendance.State(&s),
		Stats:             stats,
		RatePercent:       stats.RatePercent(),
	}
	if withCodes {
		v.Codes = attendance.Codes(s)
	}
	return v
}

func views(sessions []model.AttendanceSession, withCodes bool) []sessionView {
	out := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, view(s, withCodes))
	}
	return out
}

func (h *Handler) activeSessions(c *gin.Context) {
	active, err := h.client(c).ActiveSessions(c.Request.Context())
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	s, _ := auth.Current(c)
	c.JSON(http.StatusOK, gin.H{"items": views(active, s.User.Role != model.RoleStudent)})
}

func (h *Handler) pastSessions(c *gin.Context) {
	p, err := h.listParams(c)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	page, err := h.client(c).PastSessions(c.Request.Context(), p)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	if err := pagination.Validate(p.Page, page.Meta.TotalPages); err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, pagination.Page[sessionView]{Items: views(page.Items, false), Meta: page.Meta})
}

// eligibleClasses lists classes an attendance session may be opened for,
// across every page of the caller's classes.
func (h *Handler) eligibleClasses(c *gin.Context) {
	ctx := c.Request.Context()
	up := h.client(c)
	classes, err := pagination.All(ctx, func(ctx context.Context, p pagination.Params) (pagination.Page[model.Class], error) {
		return up.ListClasses(ctx, api.ClassQuery{Params: p})
	}, pagination.MaxLimit)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	active, err := up.ActiveSessions(ctx)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	eligible := h.annotate(attendance.EligibleClasses(classes, active))
	c.JSON(http.StatusOK, gin.H{"items": eligible})
}

// createSession refuses a class that already has an active session before
// asking upstream.
func (h *Handler) createSession(c *gin.Context) {
	var f forms.AttendanceCreate
	if err := bindForm(c, &f); err != nil {
		h.fail(c, err, f)
		return
	}
	ctx := c.Request.Context()
	up := h.client(c)
	active, err := up.ActiveSessions(ctx)
	if err != nil {
		h.fail(c, err, f)
		return
	}
	if err := attendance.CanCreate(f.ClassID, active); err != nil {
		h.fail(c, err, f)
		return
	}
	res, err := up.CreateAttendance(ctx, f)
	if err != nil {
		h.fail(c, err, f)
		return
	}
	h.succeed(c, http.StatusCreated, res.Message, "Attendance session created", view(res.Data, true))
}

func (h *Handler) getSession(c *gin.Context) {
	s, err := h.client(c).GetAttendance(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": view(s, true)})
}

func (h *Handler) regenerate(c *gin.Context) {
	var f forms.Regenerate
	if err := bindForm(c, &f); err != nil {
		h.fail(c, err, f)
		return
	}
	res, err := h.client(c).RegenerateCode(c.Request.Context(), c.Param("id"), f)
	if err != nil {
		h.fail(c, err, f)
		return
	}
	h.succeed(c, http.StatusOK, res.Message, "Code regenerated", view(res.Data, true))
}

func (h *Handler) closeSession(c *gin.Context) {
	res, err := h.client(c).CloseSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	h.succeed(c, http.StatusOK, res.Message, "Attendance session closed", view(res.Data, false))
}

func (h *Handler) deleteSession(c *gin.Context) {
	h.remove(c, func(ctx context.Context, up *api.Client, id string) (string, error) { return up.DeleteAttendance(ctx, id) }, "Attendance session deleted")
}

func (h *Handler) redeem(dir attendance.Direction) gin.HandlerFunc {
	return func(c *gin.Context) {
		var f forms.Redeem
		if err := bindForm(c, &f); err != nil {
			h.fail(c, err, f)
			return
		}
		up := h.client(c)
		call := up.SignIn
		fallback := "Signed in"
		if dir == attendance.SignOut {
			call, fallback = up.SignOut, "Signed out"
		}
		res, err := call(c.Request.Context(), f.Normalized())
		if err != nil {
			h.fail(c, err, f)
			return
		}
		res.Data.Status = attendance.DeriveStatus(res.Data.SignInTime, res.Data.SignOutTime)
		h.succeed(c, http.StatusOK, res.Message, fallback, res.Data)
	}
}

func (h *Handler) history(c *gin.Context) {
	var f forms.HistoryFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		h.fail(c, forms.Errors{"month": "month and day must be numbers"}, nil)
		return
	}
	if errs := forms.Validate(f); errs != nil {
		h.fail(c, errs, f)
		return
	}
	p, err := h.listParams(c)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	page, err := h.client(c).History(c.Request.Context(), f, p)
	if err != nil {
		h.fail(c, err, f)
		return
	}
	for i := range page.Items {
		e := &page.Items[i]
		e.Status = attendance.DeriveStatus(e.SignInTime, e.SignOutTime)
	}
	c.JSON(http.StatusOK, page)
}
