package models

import (
	"time"

	"gorm.io/datatypes"
)

// SiteSettingsID is the fixed primary key of the settings singleton.
const SiteSettingsID = 1

// SiteSettings holds the hero, about, contact and SEO copy of the site. There
// is exactly one row.
type SiteSettings struct {
	ID             uint              `json:"id" db:"id" gorm:"primaryKey;autoIncrement:false"`
	SiteName       string            `json:"siteName" db:"site_name" gorm:"type:text;not null"`
	HeroTitle      string            `json:"heroTitle" db:"hero_title" gorm:"type:text;not null"`
	HeroSubtitle   string            `json:"heroSubtitle" db:"hero_subtitle" gorm:"type:text;not null"`
	HeroImage      *string           `json:"heroImage" db:"hero_image" gorm:"type:text"`
	AboutTitle     string            `json:"aboutTitle" db:"about_title" gorm:"type:text;not null"`
	AboutText      string            `json:"aboutText" db:"about_text" gorm:"type:text;not null"`
	AboutImage     *string           `json:"aboutImage" db:"about_image" gorm:"type:text"`
	ResumeURL      *string           `json:"resumeUrl" db:"resume_url" gorm:"type:text"`
	ContactEmail   string            `json:"contactEmail" db:"contact_email" gorm:"type:text;not null"`
	ContactPhone   string            `json:"contactPhone" db:"contact_phone" gorm:"type:text;not null"`
	Location       string            `json:"location" db:"location" gorm:"type:text;not null"`
	SeoTitle       string            `json:"seoTitle" db:"seo_title" gorm:"type:text;not null"`
	SeoDescription string            `json:"seoDescription" db:"seo_description" gorm:"type:text;not null"`
	SeoKeywords    StringList        `json:"seoKeywords" db:"seo_keywords" gorm:"type:text;not null"`
	SocialLinks    datatypes.JSONMap `json:"socialLinks" db:"social_links"`
	UpdatedAt      time.Time         `json:"updatedAt" db:"updated_at"`
}

func (SiteSettings) TableName() string { return "site_settings" }

// DefaultSiteSettings is the row created the first time settings are read.
func DefaultSiteSettings() SiteSettings {
	return SiteSettings{
		ID:          SiteSettingsID,
		SiteName:    "Portfolio",
		SeoKeywords: StringList{},
		SocialLinks: datatypes.JSONMap{},
	}
}

type SiteSettingsPatch struct {
	SiteName       *string            `json:"siteName" validate:"omitnil,notblank,max=100"`
	HeroTitle      *string            `json:"heroTitle"`
	HeroSubtitle   *string            `json:"heroSubtitle"`
	HeroImage      Nullable[string]   `json:"heroImage" validate:"omitempty,urlish"`
	AboutTitle     *string            `json:"aboutTitle"`
	AboutText      *string            `json:"aboutText"`
	AboutImage     Nullable[string]   `json:"aboutImage" validate:"omitempty,urlish"`
	ResumeURL      Nullable[string]   `json:"resumeUrl" validate:"omitempty,urlish"`
	ContactEmail   *string            `json:"contactEmail"`
	ContactPhone   *string            `json:"contactPhone"`
	Location       *string            `json:"location"`
	SeoTitle       *string            `json:"seoTitle" validate:"omitnil,max=70"`
	SeoDescription *string            `json:"seoDescription" validate:"omitnil,max=320"`
	SeoKeywords    *StringList        `json:"seoKeywords"`
	SocialLinks    *map[string]string `json:"socialLinks"`
}

func (p SiteSettingsPatch) Updates() map[string]any {
	u := map[string]any{}
	setString(u, "site_name", p.SiteName)
	setString(u, "hero_title", p.HeroTitle)
	setString(u, "hero_subtitle", p.HeroSubtitle)
	setNullable(u, "hero_image", p.HeroImage)
	setString(u, "about_title", p.AboutTitle)
	setString(u, "about_text", p.AboutText)
	setNullable(u, "about_image", p.AboutImage)
	setNullable(u, "resume_url", p.ResumeURL)
	setString(u, "contact_email", p.ContactEmail)
	setString(u, "contact_phone", p.ContactPhone)
	setString(u, "location", p.Location)
	setString(u, "seo_title", p.SeoTitle)
	setString(u, "seo_description", p.SeoDescription)
	setList(u, "seo_keywords", p.SeoKeywords)
	if p.SocialLinks != nil {
		links := datatypes.JSONMap{}
		for k, v := range *p.SocialLinks {
			links[k] = v
		}
		u["social_links"] = links
	}
	return u
}
