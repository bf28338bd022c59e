package forms

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCategory(t *testing.T) {
	tests := []struct {
		name   string
		form   Category
		fields []string
	}{
		{name: "valid", form: Category{Name: "Algebra", CourseID: "c1"}},
		{name: "missing name", form: Category{CourseID: "c1"}, fields: []string{"name"}},
		{name: "blank name", form: Category{Name: "   ", CourseID: "c1"}, fields: []string{"name"}},
		{name: "missing course", form: Category{Name: "Algebra"}, fields: []string{"courseId"}},
		{name: "empty member id", form: Category{Name: "Algebra", CourseID: "c1", Students: []string{""}}, fields: []string{"students[0]"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(tt.form)
			if len(tt.fields) == 0 {
				assert.Nil(t, errs)
				return
			}
			require.NotNil(t, errs)
			for _, f := range tt.fields {
				assert.Contains(t, errs, f)
			}
		})
	}
}

func TestValidateUser(t *testing.T) {
	errs := Validate(User{Name: "Ada", Email: "not-an-email", Role: "student"})
	require.NotNil(t, errs)
	assert.Contains(t, errs, "email")

	errs = Validate(User{Name: "Ada", Email: "ada@school.test", Role: "janitor"})
	assert.Contains(t, errs, "role")

	errs = Validate(User{Name: "Ada", Email: "ada@school.test", Role: "tutor", Creating: true})
	assert.Equal(t, requiredText, errs["password"])

	assert.Nil(t, Validate(User{Name: "Ada", Email: "ada@school.test", Role: "tutor"}))
}

func TestValidateLoginMessages(t *testing.T) {
	errs := Validate(Login{})
	assert.Equal(t, Errors{"email": requiredText, "password": requiredText}, errs)
}

func TestValidateClassTimes(t *testing.T) {
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	errs := Validate(Class{Topic: "Fractions", CategoryID: "cat", StartTime: start, EndTime: start.Add(-time.Hour)})
	assert.Contains(t, errs, "endTime")

	assert.Nil(t, Validate(Class{Topic: "Fractions", CategoryID: "cat", StartTime: start, EndTime: start.Add(time.Hour)}))
}

func TestValidateHistoryFilter(t *testing.T) {
	tests := []struct {
		name  string
		form  HistoryFilter
		field string
	}{
		{name: "month only", form: HistoryFilter{Month: 3}},
		{name: "no month selected", form: HistoryFilter{Day: 3}, field: "month"},
		{name: "month 13", form: HistoryFilter{Month: 13}, field: "month"},
		{name: "day 0 is unset", form: HistoryFilter{Month: 3, Day: 0}},
		{name: "day 32", form: HistoryFilter{Month: 3, Day: 32}, field: "day"},
		{name: "day 31", form: HistoryFilter{Month: 3, Day: 31}},
		{name: "feb 30", form: HistoryFilter{Year: 2026, Month: 2, Day: 30}, field: "day"},
		{name: "leap day", form: HistoryFilter{Year: 2028, Month: 2, Day: 29}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(tt.form)
			if tt.field == "" {
				assert.Nil(t, errs)
				return
			}
			assert.Contains(t, errs, tt.field)
		})
	}
}

func TestHistoryFilterMatches(t *testing.T) {
	d := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	assert.True(t, HistoryFilter{Month: 3}.Matches(d))
	assert.True(t, HistoryFilter{Month: 3, Day: 14, Year: 2026}.Matches(d))
	assert.False(t, HistoryFilter{Month: 3, Day: 15}.Matches(d))
	assert.False(t, HistoryFilter{Month: 4}.Matches(d))
}

func TestValidateRegenerateAndRedeem(t *testing.T) {
	assert.Contains(t, Validate(Regenerate{Direction: "both"}), "direction")
	assert.Nil(t, Validate(Regenerate{Direction: "signout"}))
	assert.Contains(t, Validate(Redeem{Code: " "}), "code")
	assert.Equal(t, "AB12CD", Redeem{Code: " AB12CD\n"}.Normalized().Code)
}
