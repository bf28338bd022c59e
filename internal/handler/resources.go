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

// respondPage fetches one page and rejects a page past the last one.
func respondPage[T any](h *Handler, c *gin.Context, fetch func(context.Context, *api.Client, pagination.Params) (pagination.Page[T], error), decorate func([]T) []T) {
	p, err := h.listParams(c)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	page, err := fetch(c.Request.Context(), h.client(c), p)
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	if err := pagination.Validate(p.Page, page.Meta.TotalPages); err != nil {
		h.fail(c, err, nil)
		return
	}
	if decorate != nil {
		page.Items = decorate(page.Items)
	}
	c.JSON(http.StatusOK, page)
}

func respondOne[T any](h *Handler, c *gin.Context, get func(context.Context, *api.Client, string) (T, error)) {
	v, err := get(c.Request.Context(), h.client(c), c.Param("id"))
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": v})
}

func (h *Handler) remove(c *gin.Context, del func(context.Context, *api.Client, string) (string, error), fallback string) {
	msg, err := del(c.Request.Context(), h.client(c), c.Param("id"))
	if err != nil {
		h.fail(c, err, nil)
		return
	}
	h.succeed(c, http.StatusOK, msg, fallback, nil)
}

func (h *Handler) listUsers(c *gin.Context) {
	s, _ := auth.Current(c)
	role := model.Role(c.Query("role"))
	if role != "" && !role.Valid() {
		h.fail(c, forms.Errors{"role": "role must be one of admin tutor student"}, nil)
		return
	}
	orgID := c.Query("organizationId")
	if orgID == "" {
		orgID = s.User.OrganizationID
	}
	respondPage(h, c, func(ctx context.Context, up *api.Client, p pagination.Params) (pagination.Page[model.User], error) {
		return up.ListUsers(ctx, api.UserQuery{Params: p, Role: role, OrganizationID: orgID})
	}, nil)
}

func (h *Handler) createUser(c *gin.Context) {
	f := forms.User{Creating: true}
	if err := bindForm(c, &f); err != nil {
		f.Password = ""
		h.fail(c, err, f)
		return
	}
	if f.OrganizationID == "" {
		s, _ := auth.Current(c)
		f.OrganizationID = s.User.OrganizationID
	}
	res, err := h.client(c).CreateUser(c.Request.Context(), f)
	if err != nil {
		f.Password = ""
		h.fail(c, err, f)
		return
	}
	h.succeed(c, http.StatusCreated, res.Message, "User created", res.Data)
}

func (h *Handler) getUser(c *gin.Context) {
	respondOne(h, c, func(ctx context.Context, up *api.Client, id string) (model.User, error) { return up.GetUser(ctx, id) })
}

func (h *Handler) updateUser(c *gin.Context) {
	var f forms.User
	if err := bindForm(c, &f); err != nil {
		f.Password = ""
		h.fail(c, err, f)
		return
	}
	res, err := h.client(c).UpdateUser(c.Request.Context(), c.Param("id"), f)
	if err != nil {
		f.Password = ""
		h.fail(c, err, f)
		return
	}
	h.succeed(c, http.StatusOK, res.Message, "User updated", res.Data)
}

func (h *Handler) deleteUser(c *gin.Context) {
	h.remove(c, func(ctx context.Context, up *api.Client, id string) (string, error) { return up.DeleteUser(ctx, id) }, "User deleted")
}

func (h *Handler) listCourses(c *gin.Context) {
	respondPage(h, c, func(ctx context.Context, up *api.Client, p pagination.Params) (pagination.Page[model.Course], error) {
		return up.ListCourses(ctx, p)
	}, nil)
}

func (h *Handler) createCourse(c *gin.Context) {
	var f forms.Course
	if err := bindForm(c, &f); err != nil {
		h.fail(c, err, f)
		return
	}
	res, err := h.client(c).CreateCourse(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err, f)
		return
	}
	h.succeed(c, http.StatusCreated, res.Message, "Course created", res.Data)
}

func (h *Handler) getCourse(c *gin.Context) {
	respondOne(h, c, func(ctx context.Context, up *api.Client, id string) (model.Course, error) { return up.GetCourse(ctx, id) })
}

func (h *Handler) updateCourse(c *gin.Context) {
	var f forms.Course
	if err := bindForm(c, &f); err != nil {
		h.fail(c, err, f)
		return
	}
	res, err := h.client(c).UpdateCourse(c.Request.Context(), c.Param("id"), f)
	if err != nil {
		h.fail(c, err, f)
		return
	}
	h.succeed(c, http.StatusOK, res.Message, "Course updated", res.Data)
}

func (h *Handler) deleteCourse(c *gin.Context) {
	h.remove(c, func(ctx context.Context, up *api.Client, id string) (string, error) { return up.DeleteCourse(ctx, id) }, "Course deleted")
}

func (h *Handler) listCategories(c *gin.Context) {
	respondPage(h, c, func(ctx context.Context, up *api.Client, p pagination.Params) (pagination.Page[model.Category], error) {
		return up.ListCategories(ctx, p)
	}, nil)
}

func (h *Handler) createCategory(c *gin.Context) {
	var f forms.Category
	if err := bindForm(c, &f); err != nil {
		h.fail(c, err, f)
		return
	}
	res, err := h.client(c).CreateCategory(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err, f)
		return
	}
	h.succeed(c, http.StatusCreated, res.Message, "Category created", res.Data)
}

func (h *Handler) getCategory(c *gin.Context) {
	respondOne(h, c, func(ctx context.Context, up *api.Client, id string) (model.Category, error) { return up.GetCategory(ctx, id) })
}

func (h *Handler) updateCategory(c *gin.Context) {
	var f forms.Category
	if err := bindForm(c, &f); err != nil {
		h.fail(c, err, f)
		return
	}
	res, err := h.client(c).UpdateCategory(c.Request.Context(), c.Param("id"), f)
	if err != nil {
		h.fail(c, err, f)
		return
	}
	h.succeed(c, http.StatusOK, res.Message, "Category updated", res.Data)
}

func (h *Handler) deleteCategory(c *gin.Context) {
	h.remove(c, func(ctx context.Context, up *api.Client, id string) (string, error) { return up.DeleteCategory(ctx, id) }, "Category deleted")
}

func (h *Handler) listClasses(c *gin.Context) {
	catID := c.Query("categoryId")
	respondPage(h, c, func(ctx context.Context, up *api.Client, p pagination.Params) (pagination.Page[model.Class], error) {
		return up.ListClasses(ctx, api.ClassQuery{Params: p, CategoryID: catID})
	}, h.annotate)
}

func (h *Handler) annotate(classes []model.Class) []model.Class {
	return attendance.AnnotateClasses(classes, h.now())
}

func (h *Handler) createClass(c *gin.Context) {
	var f forms.Class
	if err := bindForm(c, &f); err != nil {
		h.fail(c, err, f)
		return
	}
	res, err := h.client(c).CreateClass(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err, f)
		return
	}
	res.Data.Status = attendance.ClassStatus(res.Data, h.now())
	h.succeed(c, http.StatusCreated, res.Message, "Class created", res.Data)
}

func (h *Handler) getClass(c *gin.Context) {
	respondOne(h, c, func(ctx context.Context, up *api.Client, id string) (model.Class, error) {
		cl, err := up.GetClass(ctx, id)
		cl.Status = attendance.ClassStatus(cl, h.now())
		return cl, err
	})
}

func (h *Handler) updateClass(c *gin.Context) {
	var f forms.Class
	if err := bindForm(c, &f); err != nil {
		h.fail(c, err, f)
		return
	}
	res, err := h.client(c).UpdateClass(c.Request.Context(), c.Param("id"), f)
	if err != nil {
		h.fail(c, err, f)
		return
	}
	res.Data.Status = attendance.ClassStatus(res.Data, h.now())
	h.succeed(c, http.StatusOK, res.Message, "Class updated", res.Data)
}

func (h *Handler) deleteClass(c *gin.Context) {
	h.remove(c, func(ctx context.Context, up *api.Client, id string) (string, error) { return up.DeleteClass(ctx, id) }, "Class deleted")
}
