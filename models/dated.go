package models

import (
	"time"

	"gorm.io/gorm"
)

// DateRange is the start/end/current triple shared by experience and
// education. While Current is true EndDate is always nil.
type DateRange struct {
	StartDate time.Time  `json:"startDate" db:"start_date" gorm:"not null;index" validate:"required"`
	EndDate   *time.Time `json:"endDate" db:"end_date"`
	Current   bool       `json:"current" db:"is_current" gorm:"column:is_current;not null"`
}

// Normalize enforces the current/endDate invariant.
func (d *DateRange) Normalize() {
	if d.Current {
		d.EndDate = nil
	}
}

// DateRangePatch is the partial-update form of DateRange.
type DateRangePatch struct {
	StartDate *time.Time          `json:"startDate"`
	EndDate   Nullable[time.Time] `json:"endDate"`
	Current   *bool               `json:"current"`
}

// Resolve returns the range that results from applying the patch to existing.
func (p DateRangePatch) Resolve(existing DateRange) DateRange {
	out := existing
	if p.StartDate != nil {
		out.StartDate = *p.StartDate
	}
	if p.EndDate.Set {
		out.EndDate = p.EndDate.Ptr()
	}
	if p.Current != nil {
		out.Current = *p.Current
	}
	out.Normalize()
	return out
}

// apply writes the patch columns. A current flag that ends up true, whether
// submitted now or already stored, forces end_date to null.
func (p DateRangePatch) apply(u map[string]any, existing DateRange) {
	if p.StartDate != nil {
		u["start_date"] = *p.StartDate
	}
	if p.Current != nil {
		u["is_current"] = *p.Current
	}
	if p.EndDate.Set {
		u["end_date"] = p.EndDate.Column()
	}
	if p.Resolve(existing).Current {
		u["end_date"] = nil
	}
}

// WorkExperience is one position in the experience timeline
type WorkExperience struct {
	Base
	Company        string     `json:"company" db:"company" gorm:"type:text;not null" validate:"notblank,max=150"`
	Position       string     `json:"position" db:"position" gorm:"type:text;not null" validate:"notblank,max=150"`
	Location       string     `json:"location" db:"location" gorm:"type:text;not null"`
	EmploymentType string     `json:"employmentType" db:"employment_type" gorm:"type:text;not null"`
	Description    string     `json:"description" db:"description" gorm:"type:text;not null"`
	CompanyURL     *string    `json:"companyUrl" db:"company_url" gorm:"type:text" validate:"omitempty,urlish"`
	Logo           *string    `json:"logo" db:"logo" gorm:"type:text" validate:"omitempty,urlish"`
	Technologies   StringList `json:"technologies" db:"technologies" gorm:"type:text;not null"`
	DateRange
	Order   int  `json:"order" db:"sort_order" gorm:"column:sort_order;type:integer;not null;index"`
	Visible bool `json:"visible" db:"visible" gorm:"not null;index"`
}

func (WorkExperience) TableName() string { return "work_experiences" }

func (e WorkExperience) Label() string              { return e.Position + " at " + e.Company }
func (e WorkExperience) GetOrder() int              { return e.Order }
func (e *WorkExperience) SetOrder(order int)        { e.Order = order }
func (e WorkExperience) OrderScope() map[string]any { return nil }

func (e *WorkExperience) BeforeSave(tx *gorm.DB) error {
	e.DateRange.Normalize()
	return nil
}

func (e *WorkExperience) AfterFind(tx *gorm.DB) error {
	e.DateRange.Normalize()
	return nil
}

type WorkExperiencePatch struct {
	Company        *string          `json:"company" validate:"omitnil,notblank,max=150"`
	Position       *string          `json:"position" validate:"omitnil,notblank,max=150"`
	Location       *string          `json:"location"`
	EmploymentType *string          `json:"employmentType"`
	Description    *string          `json:"description"`
	CompanyURL     Nullable[string] `json:"companyUrl" validate:"omitempty,urlish"`
	Logo           Nullable[string] `json:"logo" validate:"omitempty,urlish"`
	Technologies   *StringList      `json:"technologies"`
	DateRangePatch
	Order   *int  `json:"order"`
	Visible *bool `json:"visible"`
}

func (p WorkExperiencePatch) Updates(existing WorkExperience) map[string]any {
	u := map[string]any{}
	setString(u, "company", p.Company)
	setString(u, "position", p.Position)
	setString(u, "location", p.Location)
	setString(u, "employment_type", p.EmploymentType)
	setString(u, "description", p.Description)
	setNullable(u, "company_url", p.CompanyURL)
	setNullable(u, "logo", p.Logo)
	setList(u, "technologies", p.Technologies)
	p.DateRangePatch.apply(u, existing.DateRange)
	setOrderVisible(u, p.Order, p.Visible)
	return u
}

// Education is one entry of the education timeline
type Education struct {
	Base
	Institution  string     `json:"institution" db:"institution" gorm:"type:text;not null" validate:"notblank,max=200"`
	Degree       string     `json:"degree" db:"degree" gorm:"type:text;not null" validate:"notblank,max=200"`
	Field        string     `json:"field" db:"field" gorm:"type:text;not null"`
	Location     string     `json:"location" db:"location" gorm:"type:text;not null"`
	Grade        string     `json:"grade" db:"grade" gorm:"type:text;not null"`
	Description  string     `json:"description" db:"description" gorm:"type:text;not null"`
	Achievements StringList `json:"achievements" db:"achievements" gorm:"type:text;not null"`
	DateRange
	Order   int  `json:"order" db:"sort_order" gorm:"column:sort_order;type:integer;not null;index"`
	Visible bool `json:"visible" db:"visible" gorm:"not null;index"`
}

func (Education) TableName() string { return "educations" }

func (e Education) Label() string              { return e.Degree + " at " + e.Institution }
func (e Education) GetOrder() int              { return e.Order }
func (e *Education) SetOrder(order int)        { e.Order = order }
func (e Education) OrderScope() map[string]any { return nil }

func (e *Education) BeforeSave(tx *gorm.DB) error {
	e.DateRange.Normalize()
	return nil
}

func (e *Education) AfterFind(tx *gorm.DB) error {
	e.DateRange.Normalize()
	return nil
}

type EducationPatch struct {
	Institution  *string     `json:"institution" validate:"omitnil,notblank,max=200"`
	Degree       *string     `json:"degree" validate:"omitnil,notblank,max=200"`
	Field        *string     `json:"field"`
	Location     *string     `json:"location"`
	Grade        *string     `json:"grade"`
	Description  *string     `json:"description"`
	Achievements *StringList `json:"achievements"`
	DateRangePatch
	Order   *int  `json:"order"`
	Visible *bool `json:"visible"`
}

func (p EducationPatch) Updates(existing Education) map[string]any {
	u := map[string]any{}
	setString(u, "institution", p.Institution)
	setString(u, "degree", p.Degree)
	setString(u, "field", p.Field)
	setString(u, "location", p.Location)
	setString(u, "grade", p.Grade)
	setString(u, "description", p.Description)
	setList(u, "achievements", p.Achievements)
	p.DateRangePatch.apply(u, existing.DateRange)
	setOrderVisible(u, p.Order, p.Visible)
	return u
}
