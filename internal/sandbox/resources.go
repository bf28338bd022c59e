package sandbox

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"eduportal/internal/forms"
	"eduportal/internal/model"
	"eduportal/internal/pagination"
)

// bind decodes and validates a JSON form, answering 400 on failure.
func bind[F any](c *gin.Context, prepare func(*F)) (F, bool) {
	var f F
	if err := c.ShouldBindJSON(&f); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return f, false
	}
	if prepare != nil {
		prepare(&f)
	}
	if errs := forms.Validate(f); errs != nil {
		fail(c, http.StatusBadRequest, errs.Error())
		return f, false
	}
	return f, true
}

func (s *Server) login(c *gin.Context) {
	f, valid := bind[forms.Login](c, nil)
	if !valid {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acc := range s.users.all() {
		if strings.EqualFold(acc.Email, f.Email) && acc.password == f.Password {
			token := uuid.NewString()
			s.tokens[token] = acc.ID
			ok(c, http.StatusOK, "Login successful", gin.H{"user": acc.User, "token": token})
			return
		}
	}
	fail(c, http.StatusUnauthorized, "Invalid email or password")
}

func (s *Server) createOrganization(c *gin.Context) {
	f, valid := bind[forms.Organization](c, nil)
	if !valid {
		return
	}
	org := model.Organization{ID: newID(), Name: strings.TrimSpace(f.Name), Email: f.Email, Address: f.Address}
	s.mu.Lock()
	s.orgs.put(org.ID, org)
	s.mu.Unlock()
	ok(c, http.StatusCreated, "Organization created", org)
}

func (s *Server) createUser(c *gin.Context) {
	f, valid := bind(c, func(f *forms.User) { f.Creating = true })
	if !valid {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emailTaken(f.Email, "") {
		fail(c, http.StatusConflict, "Email already in use")
		return
	}
	orgID := f.OrganizationID
	if orgID == "" {
		orgID = caller(c).OrganizationID
	}
	acc := account{
		User:     model.User{ID: newID(), Name: strings.TrimSpace(f.Name), Email: f.Email, Role: model.Role(f.Role), OrganizationID: orgID},
		password: f.Password,
	}
	s.users.put(acc.ID, acc)
	ok(c, http.StatusCreated, "User created", acc.User)
}

func (s *Server) emailTaken(email, except string) bool {
	for _, acc := range s.users.all() {
		if acc.ID != except && strings.EqualFold(acc.Email, email) {
			return true
		}
	}
	return false
}

func (s *Server) listUsers(c *gin.Context) {
	role := model.Role(c.Query("userType"))
	orgID := c.Query("organizationId")
	s.mu.RLock()
	users := make([]model.User, 0, len(s.users.order))
	for _, acc := range s.users.all() {
		if role != "" && acc.Role != role {
			continue
		}
		if orgID != "" && acc.OrganizationID != orgID {
			continue
		}
		users = append(users, acc.User)
	}
	s.mu.RUnlock()
	users = pagination.Filter(users, c.Query("search"), func(u model.User) []string { return []string{u.Name, u.Email} })
	paged(c, users, true)
}

func (s *Server) getUser(c *gin.Context) {
	s.mu.RLock()
	acc, found := s.users.get(c.Param("id"))
	s.mu.RUnlock()
	if !found {
		fail(c, http.StatusNotFound, "User not found")
		return
	}
	ok(c, http.StatusOK, "", acc.User)
}

func (s *Server) updateUser(c *gin.Context) {
	f, valid := bind[forms.User](c, nil)
	if !valid {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, found := s.users.get(c.Param("id"))
	if !found {
		fail(c, http.StatusNotFound, "User not found")
		return
	}
	if s.emailTaken(f.Email, acc.ID) {
		fail(c, http.StatusConflict, "Email already in use")
		return
	}
	acc.Name, acc.Email, acc.Role = strings.TrimSpace(f.Name), f.Email, model.Role(f.Role)
	if f.Password != "" {
		acc.password = f.Password
	}
	s.users.put(acc.ID, acc)
	ok(c, http.StatusOK, "User updated", acc.User)
}

func (s *Server) deleteUser(c *gin.Context) {
	s.mu.Lock()
	removed := s.users.remove(c.Param("id"))
	s.mu.Unlock()
	if !removed {
		fail(c, http.StatusNotFound, "User not found")
		return
	}
	ok(c, http.StatusOK, "User deleted", nil)
}

func (s *Server) createCourse(c *gin.Context) {
	f, valid := bind[forms.Course](c, nil)
	if !valid {
		return
	}
	course := model.Course{ID: newID(), Name: strings.TrimSpace(f.Name), Description: f.Description, OrganizationID: caller(c).OrganizationID}
	s.mu.Lock()
	s.courses.put(course.ID, course)
	s.mu.Unlock()
	ok(c, http.StatusCreated, "Course created", course)
}

func (s *Server) listCourses(c *gin.Context) {
	s.mu.RLock()
	courses := s.courses.all()
	s.mu.RUnlock()
	courses = pagination.Filter(courses, c.Query("search"), func(v model.Course) []string { return []string{v.Name, v.Description} })
	paged(c, courses, false)
}

func (s *Server) getCourse(c *gin.Context) {
	s.mu.RLock()
	course, found := s.courses.get(c.Param("id"))
	s.mu.RUnlock()
	if !found {
		fail(c, http.StatusNotFound, "Course not found")
		return
	}
	ok(c, http.StatusOK, "", course)
}

func (s *Server) updateCourse(c *gin.Context) {
	f, valid := bind[forms.Course](c, nil)
	if !valid {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	course, found := s.courses.get(c.Param("id"))
	if !found {
		fail(c, http.StatusNotFound, "Course not found")
		return
	}
	course.Name, course.Description = strings.TrimSpace(f.Name), f.Description
	s.courses.put(course.ID, course)
	ok(c, http.StatusOK, "Course updated", course)
}

func (s *Server) deleteCourse(c *gin.Context) {
	s.mu.Lock()
	removed := s.courses.remove(c.Param("id"))
	s.mu.Unlock()
	if !removed {
		fail(c, http.StatusNotFound, "Course not found")
		return
	}
	ok(c, http.StatusOK, "Course deleted", nil)
}

func (s *Server) createCategory(c *gin.Context) {
	f, valid := bind[forms.Category](c, nil)
	if !valid {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.courses.get(f.CourseID); !found {
		fail(c, http.StatusBadRequest, "Course not found")
		return
	}
	cat := model.Category{
		ID:          newID(),
		Name:        strings.TrimSpace(f.Name),
		Description: f.Description,
		CourseID:    f.CourseID,
		Students:    nonNil(f.Students),
		Tutors:      nonNil(f.Tutors),
	}
	s.categories.put(cat.ID, cat)
	ok(c, http.StatusCreated, "Category created", cat)
}

func (s *Server) listCategories(c *gin.Context) {
	s.mu.RLock()
	cats := s.categories.all()
	s.mu.RUnlock()
	cats = pagination.Filter(cats, c.Query("search"), func(v model.Category) []string { return []string{v.Name, v.Description} })
	paged(c, cats, false)
}

func (s *Server) getCategory(c *gin.Context) {
	s.mu.RLock()
	cat, found := s.categories.get(c.Param("id"))
	s.mu.RUnlock()
	if !found {
		fail(c, http.StatusNotFound, "Category not found")
		return
	}
	ok(c, http.StatusOK, "", cat)
}

func (s *Server) updateCategory(c *gin.Context) {
	f, valid := bind[forms.Category](c, nil)
	if !valid {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cat, found := s.categories.get(c.Param("id"))
	if !found {
		fail(c, http.StatusNotFound, "Category not found")
		return
	}
	cat.Name, cat.Description, cat.CourseID = strings.TrimSpace(f.Name), f.Description, f.CourseID
	cat.Students, cat.Tutors = nonNil(f.Students), nonNil(f.Tutors)
	s.categories.put(cat.ID, cat)
	ok(c, http.StatusOK, "Category updated", cat)
}

func (s *Server) deleteCategory(c *gin.Context) {
	s.mu.Lock()
	removed := s.categories.remove(c.Param("id"))
	s.mu.Unlock()
	if !removed {
		fail(c, http.StatusNotFound, "Category not found")
		return
	}
	ok(c, http.StatusOK, "Category deleted", nil)
}

func (s *Server) createClass(c *gin.Context) {
	f, valid := bind[forms.Class](c, nil)
	if !valid {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.categories.get(f.CategoryID); !found {
		fail(c, http.StatusBadRequest, "Category not found")
		return
	}
	class := model.Class{
		ID:          newID(),
		Topic:       strings.TrimSpace(f.Topic),
		Description: f.Description,
		CategoryID:  f.CategoryID,
		StartTime:   f.StartTime.UTC(),
		EndTime:     f.EndTime.UTC(),
		Students:    nonNil(f.Students),
	}
	s.classes.put(class.ID, class)
	ok(c, http.StatusCreated, "Class created", class)
}

func (s *Server) listClasses(c *gin.Context) {
	catID := c.Query("categoryId")
	s.mu.RLock()
	classes := s.classes.all()
	s.mu.RUnlock()
	if catID != "" {
		filtered := classes[:0:0]
		for _, cl := range classes {
			if cl.CategoryID == catID {
				filtered = append(filtered, cl)
			}
		}
		classes = filtered
	}
	classes = pagination.Filter(classes, c.Query("search"), func(v model.Class) []string { return []string{v.Topic, v.Description} })
	paged(c, classes, false)
}

func (s *Server) getClass(c *gin.Context) {
	s.mu.RLock()
	class, found := s.classes.get(c.Param("id"))
	s.mu.RUnlock()
	if !found {
		fail(c, http.StatusNotFound, "Class not found")
		return
	}
	ok(c, http.StatusOK, "", class)
}

func (s *Server) updateClass(c *gin.Context) {
	f, valid := bind[forms.Class](c, nil)
	if !valid {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	class, found := s.classes.get(c.Param("id"))
	if !found {
		fail(c, http.StatusNotFound, "Class not found")
		return
	}
	class.Topic, class.Description, class.CategoryID = strings.TrimSpace(f.Topic), f.Description, f.CategoryID
	class.StartTime, class.EndTime = f.StartTime.UTC(), f.EndTime.UTC()
	if f.Students != nil {
		class.Students = f.Students
	}
	s.classes.put(class.ID, class)
	ok(c, http.StatusOK, "Class updated", class)
}

func (s *Server) deleteClass(c *gin.Context) {
	s.mu.Lock()
	removed := s.classes.remove(c.Param("id"))
	s.mu.Unlock()
	if !removed {
		fail(c, http.StatusNotFound, "Class not found")
		return
	}
	ok(c, http.StatusOK, "Class deleted", nil)
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
