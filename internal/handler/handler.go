package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"eduportal/internal/api"
	"eduportal/internal/attendance"
	"eduportal/internal/auth"
	"eduportal/internal/forms"
	"eduportal/internal/metrics"
	"eduportal/internal/model"
	"eduportal/internal/pagination"
	"eduportal/internal/session"
	"eduportal/internal/toast"
)

// Handler serves the portal JSON API on top of the organization backend.
type Handler struct {
	Upstream *api.Client
	Sessions *session.Manager
	Toasts   toast.Queue
	Metrics  *metrics.Metrics
	Log      *zap.Logger

	JWTIssuer     string
	JWTSigningKey string
	TokenTTL      time.Duration
	PageSize      int
	SecureCookie  bool

	now func() time.Time
}

// Register mounts every /api route on r.
func (h *Handler) Register(r gin.IRouter) {
	if h.Log == nil {
		h.Log = zap.NewNop()
	}
	if h.now == nil {
		h.now = time.Now
	}
	if h.PageSize <= 0 {
		h.PageSize = pagination.DefaultLimit
	}

	a := r.Group("/api")
	a.POST("/auth/login", h.login)
	a.POST("/organizations", h.createOrganization)

	authed := a.Group("", auth.Required(h.Sessions, h.JWTSigningKey, h.JWTIssuer))
	authed.POST("/auth/logout", h.logout)
	authed.GET("/auth/me", h.me)
	authed.GET("/toasts", h.toasts)
	authed.GET("/dashboard", h.dashboard)

	admin := auth.RequireRole(model.RoleAdmin)
	staff := auth.RequireRole(model.RoleAdmin, model.RoleTutor)
	student := auth.RequireRole(model.RoleStudent)

	users := authed.Group("/users", staff)
	users.GET("", h.listUsers)
	users.POST("", admin, h.createUser)
	users.GET("/:id", h.getUser)
	users.PUT("/:id", admin, h.updateUser)
	users.DELETE("/:id", admin, h.deleteUser)

	authed.GET("/courses", h.listCourses)
	authed.POST("/courses", admin, h.createCourse)
	authed.GET("/courses/:id", h.getCourse)
	authed.PUT("/courses/:id", admin, h.updateCourse)
	authed.DELETE("/courses/:id", admin, h.deleteCourse)

	authed.GET("/categories", h.listCategories)
	authed.POST("/categories", admin, h.createCategory)
	authed.GET("/categories/:id", h.getCategory)
	authed.PUT("/categories/:id", admin, h.updateCategory)
	authed.DELETE("/categories/:id", admin, h.deleteCategory)

	authed.GET("/classes", h.listClasses)
	authed.POST("/classes", staff, h.createClass)
	authed.GET("/classes/:id", h.getClass)
	authed.PUT("/classes/:id", staff, h.updateClass)
	authed.DELETE("/classes/:id", staff, h.deleteClass)

	att := authed.Group("/attendance")
	att.GET("/active", h.activeSessions)
	att.GET("/past", staff, h.pastSessions)
	att.GET("/eligible", staff, h.eligibleClasses)
	att.GET("/history", student, h.history)
	att.POST("/signin", student, h.redeem(attendance.SignIn))
	att.POST("/signout", student, h.redeem(attendance.SignOut))
	att.POST("", staff, h.createSession)
	att.GET("/:id", staff, h.getSession)
	att.POST("/:id/regenerate", staff, h.regenerate)
	att.POST("/:id/close", staff, h.closeSession)
	att.DELETE("/:id", staff, h.deleteSession)
}

// client returns the upstream client bound to the caller's token.
func (h *Handler) client(c *gin.Context) *api.Client {
	s, _ := auth.Current(c)
	return h.Upstream.As(s.Token)
}

func (h *Handler) notify(c *gin.Context, level toast.Level, msg string) {
	s, ok := auth.Current(c)
	if !ok || msg == "" {
		return
	}
	if err := h.Toasts.Push(c.Request.Context(), s.ID, toast.New(level, msg)); err != nil {
		h.Log.Warn("toast push failed", zap.String("session", s.ID), zap.Error(err))
		return
	}
	if h.Metrics != nil {
		h.Metrics.Toast(string(level))
	}
}

// succeed answers with data and queues a success toast.
func (h *Handler) succeed(c *gin.Context, status int, msg, fallback string, data any) {
	if msg == "" {
		msg = fallback
	}
	h.notify(c, toast.Success, msg)
	c.JSON(status, gin.H{"message": msg, "data": data})
}

// fail maps err to a status, queues an error toast and answers with the
// message. A non-nil form is echoed back so the caller can keep its input.
func (h *Handler) fail(c *gin.Context, err error, form any) {
	status, msg := classify(err)
	body := gin.H{"error": msg}

	var fields forms.Errors
	if errors.As(err, &fields) {
		body["fields"] = fields
	} else {
		h.notify(c, toast.Error, msg)
	}
	if form != nil {
		body["form"] = form
	}
	if api.IsUnauthorized(err) {
		if s, ok := auth.Current(c); ok {
			if endErr := h.Sessions.End(c.Request.Context(), s.ID); endErr != nil {
				h.Log.Warn("ending rejected session failed", zap.Error(endErr))
			}
		}
	}
	if status >= http.StatusInternalServerError {
		h.Log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, body)
}

func classify(err error) (int, string) {
	var fields forms.Errors
	var ae *api.Error
	switch {
	case errors.As(err, &fields):
		return http.StatusUnprocessableEntity, "please correct the highlighted fields"
	case errors.Is(err, pagination.ErrPageOutOfRange), errors.Is(err, pagination.ErrBadLimit):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, attendance.ErrActiveSession):
		return http.StatusConflict, err.Error()
	case errors.Is(err, attendance.ErrBadDirection):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &ae):
		switch ae.Kind {
		case api.KindTransport:
			return http.StatusBadGateway, ae.Message
		case api.KindRejected:
			return http.StatusBadRequest, ae.Message
		}
		if ae.Status >= 400 && ae.Status < 500 {
			return ae.Status, ae.Message
		}
		return http.StatusBadGateway, ae.Message
	}
	return http.StatusInternalServerError, "something went wrong"
}

// bindForm decodes the JSON body into f and validates it.
func bindForm[F any](c *gin.Context, f *F) error {
	if err := c.ShouldBindJSON(f); err != nil {
		return forms.Errors{"_": "request body is not valid JSON"}
	}
	if errs := forms.Validate(*f); errs != nil {
		return errs
	}
	return nil
}

// listParams reads page, limit and search. A missing limit uses the
// configured page size.
func (h *Handler) listParams(c *gin.Context) (pagination.Params, error) {
	p, err := pagination.Parse(c.Query("page"), c.Query("limit"), c.Query("search"))
	if err != nil {
		return p, err
	}
	if c.Query("limit") == "" {
		p.Limit = h.PageSize
	}
	return p, nil
}

func (h *Handler) toasts(c *gin.Context) {
	s, _ := auth.Current(c)
	items, err := h.Toasts.Drain(c.Request.Context(), s.ID)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"toasts": items})
}

func (h *Handler) dashboard(c *gin.Context) {
	s, _ := auth.Current(c)
	d, err := h.client(c).Dashboard(c.Request.Context(), s.User.Role)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"role": s.User.Role, "data": d})
}
