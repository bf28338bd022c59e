package api

import (
	"context"
	"net/http"
	"net/url"

	"eduportal/internal/forms"
	"eduportal/internal/model"
	"eduportal/internal/pagination"
)

const (
	usersPath      = "/organization/users/"
	coursesPath    = "/organization/course/"
	categoriesPath = "/organization/category/"
	classesPath    = "/organization/classes/"
)

// UserQuery filters the user list.
type UserQuery struct {
	pagination.Params
	Role           model.Role
	OrganizationID string
}

// ClassQuery filters the class list.
type ClassQuery struct {
	pagination.Params
	CategoryID string
}

// CreateUser adds a user to the organization.
func (c *Client) CreateUser(ctx context.Context, f forms.User) (Result[model.User], error) {
	return send[model.User](ctx, c, http.MethodPost, usersPath, usersPath, f)
}

// ListUsers lists users, optionally narrowed by role and organization.
func (c *Client) ListUsers(ctx context.Context, q UserQuery) (pagination.Page[model.User], error) {
	extra := url.Values{
		"userType":       {string(q.Role)},
		"organizationId": {q.OrganizationID},
	}
	return list[model.User](ctx, c, usersPath, usersPath, q.Params, extra)
}

// GetUser fetches one user.
func (c *Client) GetUser(ctx context.Context, id string) (model.User, error) {
	return fetch[model.User](ctx, c, usersPath+":id", item(usersPath, id), nil)
}

// UpdateUser replaces a user's editable fields.
func (c *Client) UpdateUser(ctx context.Context, id string, f forms.User) (Result[model.User], error) {
	return send[model.User](ctx, c, http.MethodPut, usersPath+":id", item(usersPath, id), f)
}

// DeleteUser removes a user and returns the upstream message.
func (c *Client) DeleteUser(ctx context.Context, id string) (string, error) {
	return remove(ctx, c, usersPath+":id", item(usersPath, id))
}

// CreateCourse adds a course.
func (c *Client) CreateCourse(ctx context.Context, f forms.Course) (Result[model.Course], error) {
	return send[model.Course](ctx, c, http.MethodPost, coursesPath, coursesPath, f)
}

// ListCourses lists courses page by page.
func (c *Client) ListCourses(ctx context.Context, p pagination.Params) (pagination.Page[model.Course], error) {
	return list[model.Course](ctx, c, coursesPath, coursesPath, p, nil)
}

// GetCourse fetches one course.
func (c *Client) GetCourse(ctx context.Context, id string) (model.Course, error) {
	return fetch[model.Course](ctx, c, coursesPath+":id", item(coursesPath, id), nil)
}

// UpdateCourse replaces a course's editable fields.
func (c *Client) UpdateCourse(ctx context.Context, id string, f forms.Course) (Result[model.Course], error) {
	return send[model.Course](ctx, c, http.MethodPut, coursesPath+":id", item(coursesPath, id), f)
}

// DeleteCourse removes a course and returns the upstream message.
func (c *Client) DeleteCourse(ctx context.Context, id string) (string, error) {
	return remove(ctx, c, coursesPath+":id", item(coursesPath, id))
}

// CreateCategory adds a category under a course.
func (c *Client) CreateCategory(ctx context.Context, f forms.Category) (Result[model.Category], error) {
	return send[model.Category](ctx, c, http.MethodPost, categoriesPath, categoriesPath, f)
}

// ListCategories lists categories page by page.
func (c *Client) ListCategories(ctx context.Context, p pagination.Params) (pagination.Page[model.Category], error) {
	return list[model.Category](ctx, c, categoriesPath, categoriesPath, p, nil)
}

// GetCategory fetches one category with its members.
func (c *Client) GetCategory(ctx context.Context, id string) (model.Category, error) {
	return fetch[model.Category](ctx, c, categoriesPath+":id", item(categoriesPath, id), nil)
}

// UpdateCategory replaces a category's fields and members.
func (c *Client) UpdateCategory(ctx context.Context, id string, f forms.Category) (Result[model.Category], error) {
	return send[model.Category](ctx, c, http.MethodPut, categoriesPath+":id", item(categoriesPath, id), f)
}

// DeleteCategory removes a category and returns the upstream message.
func (c *Client) DeleteCategory(ctx context.Context, id string) (string, error) {
	return remove(ctx, c, categoriesPath+":id", item(categoriesPath, id))
}

// CreateClass schedules a class in a category.
func (c *Client) CreateClass(ctx context.Context, f forms.Class) (Result[model.Class], error) {
	return send[model.Class](ctx, c, http.MethodPost, classesPath, classesPath, f)
}

// ListClasses lists classes, optionally within one category.
func (c *Client) ListClasses(ctx context.Context, q ClassQuery) (pagination.Page[model.Class], error) {
	return list[model.Class](ctx, c, classesPath, classesPath, q.Params, url.Values{"categoryId": {q.CategoryID}})
}

// GetClass fetches one class.
func (c *Client) GetClass(ctx context.Context, id string) (model.Class, error) {
	return fetch[model.Class](ctx, c, classesPath+":id", item(classesPath, id), nil)
}

// UpdateClass reschedules or edits a class.
func (c *Client) UpdateClass(ctx context.Context, id string, f forms.Class) (Result[model.Class], error) {
	return send[model.Class](ctx, c, http.MethodPut, classesPath+":id", item(classesPath, id), f)
}

// DeleteClass removes a class and returns the upstream message.
func (c *Client) DeleteClass(ctx context.Context, id string) (string, error) {
	return remove(ctx, c, classesPath+":id", item(classesPath, id))
}
