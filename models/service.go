package models

// Service is an offering listed on the services section
type Service struct {
	Base
	Title       string     `json:"title" db:"title" gorm:"type:text;not null" validate:"notblank,max=150"`
	Description string     `json:"description" db:"description" gorm:"type:text;not null" validate:"notblank"`
	Icon        string     `json:"icon" db:"icon" gorm:"type:text;not null"`
	Features    StringList `json:"features" db:"features" gorm:"type:text;not null"`
	Order       int        `json:"order" db:"sort_order" gorm:"column:sort_order;type:integer;not null;index"`
	Visible     bool       `json:"visible" db:"visible" gorm:"not null;index"`
}

func (s Service) Label() string              { return s.Title }
func (s Service) GetOrder() int              { return s.Order }
func (s *Service) SetOrder(order int)        { s.Order = order }
func (s Service) OrderScope() map[string]any { return nil }

type ServicePatch struct {
	Title       *string     `json:"title" validate:"omitnil,notblank,max=150"`
	Description *string     `json:"description" validate:"omitnil,notblank"`
	Icon        *string     `json:"icon"`
	Features    *StringList `json:"features"`
	Order       *int        `json:"order"`
	Visible     *bool       `json:"visible"`
}

func (p ServicePatch) Updates(existing Service) map[string]any {
	u := map[string]any{}
	setString(u, "title", p.Title)
	setString(u, "description", p.Description)
	setString(u, "icon", p.Icon)
	setList(u, "features", p.Features)
	setOrderVisible(u, p.Order, p.Visible)
	return u
}
