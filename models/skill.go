package models

// SkillCategories are the accepted values of Skill.Category.
var SkillCategories = []string{"Programming Languages", "Frameworks", "Tools", "Other"}

// Skill is one entry of the skills section, grouped by category
type Skill struct {
	Base
	Category string `json:"category" db:"category" gorm:"type:text;not null;index:idx_skill_category_order,priority:1" validate:"notblank,skill_category"`
	Name     string `json:"name" db:"name" gorm:"type:text;not null" validate:"notblank,max=100"`
	Level    int    `json:"level" db:"level" gorm:"type:integer;not null" validate:"min=0,max=100"`
	Icon     string `json:"icon" db:"icon" gorm:"type:text;not null"`
	Order    int    `json:"order" db:"sort_order" gorm:"column:sort_order;type:integer;not null;index:idx_skill_category_order,priority:2"`
	Visible  bool   `json:"visible" db:"visible" gorm:"not null;index"`
}

func (s Skill) Label() string       { return s.Name + " (" + s.Category + ")" }
func (s Skill) GetOrder() int       { return s.Order }
func (s *Skill) SetOrder(order int) { s.Order = order }
func (s Skill) OrderScope() map[string]any {
	return map[string]any{"category": s.Category}
}

type SkillPatch struct {
	Category *string `json:"category" validate:"omitnil,notblank,skill_category"`
	Name     *string `json:"name" validate:"omitnil,notblank,max=100"`
	Level    *int    `json:"level" validate:"omitnil,min=0,max=100"`
	Icon     *string `json:"icon"`
	Order    *int    `json:"order"`
	Visible  *bool   `json:"visible"`
}

func (p SkillPatch) Updates(existing Skill) map[string]any {
	u := map[string]any{}
	setString(u, "category", p.Category)
	setString(u, "name", p.Name)
	if p.Level != nil {
		u["level"] = *p.Level
	}
	setString(u, "icon", p.Icon)
	setOrderVisible(u, p.Order, p.Visible)
	return u
}

func setOrderVisible(u map[string]any, order *int, visible *bool) {
	if order != nil {
		u["sort_order"] = *order
	}
	if visible != nil {
		u["visible"] = *visible
	}
}
