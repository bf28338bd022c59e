// Package sandbox is an in-memory implementation of the organization REST API
// used for local development and tests.
package sandbox

import (
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"eduportal/internal/attendance"
	"eduportal/internal/model"
	"eduportal/internal/pagination"
)

type account struct {
	model.User
	password string
}

// Server holds every collection behind one lock.
type Server struct {
	mu sync.RWMutex

	orgs       *collection[model.Organization]
	users      *collection[account]
	courses    *collection[model.Course]
	categories *collection[model.Category]
	classes    *collection[model.Class]
	sessions   *collection[*attendance.Ledger]
	tokens     map[string]string

	newCode func() string
	now     func() time.Time
	log     *zap.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option { return func(s *Server) { s.now = now } }

// WithCodes overrides attendance code generation.
func WithCodes(gen func() string) Option { return func(s *Server) { s.newCode = gen } }

// WithLogger sets the request logger.
func WithLogger(log *zap.Logger) Option { return func(s *Server) { s.log = log } }

// New creates an empty sandbox.
func New(opts ...Option) *Server {
	s := &Server{
		orgs:       newCollection[model.Organization](),
		users:      newCollection[account](),
		courses:    newCollection[model.Course](),
		categories: newCollection[model.Category](),
		classes:    newCollection[model.Class](),
		sessions:   newCollection[*attendance.Ledger](),
		tokens:     make(map[string]string),
		newCode:    attendance.NewCode,
		now:        time.Now,
		log:        zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the API mounted under /api/v1.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery())
	v1 := r.Group("/api/v1")
	v1.POST("/auth/login", s.login)
	v1.POST("/organization/", s.createOrganization)

	authed := v1.Group("", s.authenticate)
	admin := requireRole(model.RoleAdmin)
	staff := requireRole(model.RoleAdmin, model.RoleTutor)
	student := requireRole(model.RoleStudent)

	users := authed.Group("/organization/users")
	users.GET("/dashboard", admin, s.adminDashboard)
	users.GET("/dashboard/tutor", requireRole(model.RoleTutor), s.tutorDashboard)
	users.GET("/dashboard/student", student, s.studentDashboard)
	users.POST("/", admin, s.createUser)
	users.GET("/", staff, s.listUsers)
	users.GET("/:id", s.getUser)
	users.PUT("/:id", admin, s.updateUser)
	users.DELETE("/:id", admin, s.deleteUser)

	courses := authed.Group("/organization/course")
	courses.POST("/", admin, s.createCourse)
	courses.GET("/", s.listCourses)
	courses.GET("/:id", s.getCourse)
	courses.PUT("/:id", admin, s.updateCourse)
	courses.DELETE("/:id", admin, s.deleteCourse)

	categories := authed.Group("/organization/category")
	categories.POST("/", admin, s.createCategory)
	categories.GET("/", s.listCategories)
	categories.GET("/:id", s.getCategory)
	categories.PUT("/:id", admin, s.updateCategory)
	categories.DELETE("/:id", admin, s.deleteCategory)

	classes := authed.Group("/organization/classes")
	classes.POST("/", staff, s.createClass)
	classes.GET("/", s.listClasses)
	classes.GET("/:id", s.getClass)
	classes.PUT("/:id", staff, s.updateClass)
	classes.DELETE("/:id", staff, s.deleteClass)

	att := authed.Group("/organization/attendance")
	att.POST("/", staff, s.createAttendance)
	att.GET("/", staff, s.listAttendance)
	att.GET("/active", s.activeAttendance)
	att.GET("/past", staff, s.pastAttendance)
	att.GET("/history", student, s.history)
	att.POST("/signin", student, s.redeem(attendance.SignIn))
	att.POST("/signout", student, s.redeem(attendance.SignOut))
	att.PUT("/close/:id", staff, s.closeAttendance)
	att.GET("/:id", staff, s.getAttendance)
	att.PUT("/:id", staff, s.regenerate)
	att.DELETE("/:id", staff, s.deleteAttendance)

	return r
}

const callerKey = "caller"

func (s *Server) authenticate(c *gin.Context) {
	authz := c.GetHeader("Authorization")
	if len(authz) < 7 || !strings.EqualFold(authz[:7], "bearer ") {
		fail(c, http.StatusUnauthorized, "missing bearer token")
		return
	}
	s.mu.RLock()
	uid, ok := s.tokens[strings.TrimSpace(authz[7:])]
	acc, found := s.users.get(uid)
	s.mu.RUnlock()
	if !ok || !found {
		fail(c, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	c.Set(callerKey, acc.User)
	c.Next()
}

func requireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !slices.Contains(roles, caller(c).Role) {
			fail(c, http.StatusForbidden, "you are not allowed to do this")
			return
		}
		c.Next()
	}
}

func caller(c *gin.Context) model.User {
	u, _ := c.MustGet(callerKey).(model.User)
	return u
}

func newID() string { return strings.ReplaceAll(uuid.NewString(), "-", "")[:24] }

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": msg})
}

// reject answers 200 with success:false for business rule refusals.
func reject(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, gin.H{"success": false, "message": msg})
}

func ok(c *gin.Context, status int, msg string, data any) {
	body := gin.H{"success": true, "data": data}
	if msg != "" {
		body["message"] = msg
	}
	c.JSON(status, body)
}

// paged writes a list response. Users report currentPage/totalCount, every
// other list reports page/total.
func paged[T any](c *gin.Context, items []T, legacy bool) {
	p, err := pagination.Parse(c.Query("page"), c.Query("limit"), "")
	if err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	pg := pagination.Paginate(items, p)
	body := gin.H{"success": true, "data": pg.Items, "totalPages": pg.Meta.TotalPages}
	if legacy {
		body["currentPage"] = pg.Meta.Page
		body["totalCount"] = pg.Meta.Total
	} else {
		body["page"] = pg.Meta.Page
		body["total"] = pg.Meta.Total
	}
	c.JSON(http.StatusOK, body)
}

// collection keeps insertion order next to a lookup map.
type collection[T any] struct {
	items map[string]T
	order []string
}

func newCollection[T any]() *collection[T] {
	return &collection[T]{items: make(map[string]T)}
}

func (c *collection[T]) get(id string) (T, bool) {
	v, ok := c.items[id]
	return v, ok
}

func (c *collection[T]) put(id string, v T) {
	if _, exists := c.items[id]; !exists {
		c.order = append(c.order, id)
	}
	c.items[id] = v
}

func (c *collection[T]) remove(id string) bool {
	if _, ok := c.items[id]; !ok {
		return false
	}
	delete(c.items, id)
	c.order = slices.DeleteFunc(c.order, func(s string) bool { return s == id })
	return true
}

func (c *collection[T]) all() []T {
	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.items[id])
	}
	return out
}
