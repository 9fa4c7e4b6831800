package models

import (
	"time"

	"github.com/google/uuid"
)

// ProjectCategories are the accepted values of Project.Category.
var ProjectCategories = []string{"web", "game", "mobile", "tool"}

// Project represents a portfolio project with its narrative and media
type Project struct {
	Base
	Slug         string         `json:"slug" db:"slug" gorm:"type:text;not null;uniqueIndex:idx_project_slug" validate:"notblank,slug"`
	Title        string         `json:"title" db:"title" gorm:"type:text;not null" validate:"notblank,max=200"`
	Category     string         `json:"category" db:"category" gorm:"type:text;not null;index" validate:"notblank,project_category"`
	Description  string         `json:"description" db:"description" gorm:"type:text;not null" validate:"notblank"`
	ShortDesc    string         `json:"shortDesc" db:"short_desc" gorm:"type:text;not null" validate:"max=300"`
	Thumbnail    *string        `json:"thumbnail" db:"thumbnail" gorm:"type:text" validate:"omitempty,urlish"`
	Video        *string        `json:"video" db:"video" gorm:"type:text" validate:"omitempty,urlish"`
	DemoURL      *string        `json:"demoUrl" db:"demo_url" gorm:"type:text" validate:"omitempty,urlish"`
	GithubURL    *string        `json:"githubUrl" db:"github_url" gorm:"type:text" validate:"omitempty,urlish"`
	Technologies StringList     `json:"technologies" db:"technologies" gorm:"type:text;not null"`
	Tags         StringList     `json:"tags" db:"tags" gorm:"type:text;not null"`
	Year         int            `json:"year" db:"year" gorm:"type:integer;not null" validate:"omitempty,min=1970,max=2100"`
	Duration     string         `json:"duration" db:"duration" gorm:"type:text;not null"`
	Problem      string         `json:"problem" db:"problem" gorm:"type:text;not null"`
	Solution     string         `json:"solution" db:"solution" gorm:"type:text;not null"`
	Process      string         `json:"process" db:"process" gorm:"type:text;not null"`
	Learnings    string         `json:"learnings" db:"learnings" gorm:"type:text;not null"`
	Featured     bool           `json:"featured" db:"featured" gorm:"not null;index"`
	Published    bool           `json:"published" db:"published" gorm:"not null;index"`
	PublishedAt  *time.Time     `json:"publishedAt" db:"published_at"`
	Images       []ProjectImage `json:"images" gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE" validate:"dive"`
}

func (p Project) Label() string {
	return p.Title + " (" + p.Slug + ")"
}

// ProjectImage is a gallery image owned by a project
type ProjectImage struct {
	ID        uuid.UUID `json:"id" db:"id" gorm:"type:uuid;primaryKey;not null"`
	ProjectID uuid.UUID `json:"projectId" db:"project_id" gorm:"type:uuid;not null;index:idx_project_image_project_id"`
	URL       string    `json:"url" db:"url" gorm:"type:text;not null" validate:"notblank,urlish"`
	Alt       string    `json:"alt" db:"alt" gorm:"type:text;not null"`
	Order     int       `json:"order" db:"sort_order" gorm:"column:sort_order;type:integer;not null"`
}

// ImageInput is the submitted shape of a gallery image.
type ImageInput struct {
	URL string `json:"url" validate:"notblank,urlish"`
	Alt string `json:"alt"`
}

// NewProjectImages builds a fresh image set for projectID, ordered as given.
func NewProjectImages(projectID uuid.UUID, inputs []ImageInput) []ProjectImage {
	images := make([]ProjectImage, 0, len(inputs))
	for i, in := range inputs {
		images = append(images, ProjectImage{
			ID:        uuid.New(),
			ProjectID: projectID,
			URL:       in.URL,
			Alt:       in.Alt,
			Order:     i,
		})
	}
	return images
}

// ProjectInput is the create payload for a project.
type ProjectInput struct {
	Project
	Images []ImageInput `json:"images" validate:"dive"`
}

// ToProject returns the project with a freshly ordered image set and a
// publishedAt stamp when it is created already published.
func (in ProjectInput) ToProject(now time.Time) Project {
	p := in.Project
	p.Images = nil
	if p.Technologies == nil {
		p.Technologies = StringList{}
	}
	if p.Tags == nil {
		p.Tags = StringList{}
	}
	if p.Published && p.PublishedAt == nil {
		p.PublishedAt = &now
	}
	return p
}

// ProjectPatch is a partial update of a project: nil fields are left alone.
type ProjectPatch struct {
	Slug         *string             `json:"slug" validate:"omitnil,notblank,slug"`
	Title        *string             `json:"title" validate:"omitnil,notblank,max=200"`
	Category     *string             `json:"category" validate:"omitnil,notblank,project_category"`
	Description  *string             `json:"description" validate:"omitnil,notblank"`
	ShortDesc    *string             `json:"shortDesc" validate:"omitnil,max=300"`
	Thumbnail    Nullable[string]    `json:"thumbnail" validate:"omitempty,urlish"`
	Video        Nullable[string]    `json:"video" validate:"omitempty,urlish"`
	DemoURL      Nullable[string]    `json:"demoUrl" validate:"omitempty,urlish"`
	GithubURL    Nullable[string]    `json:"githubUrl" validate:"omitempty,urlish"`
	Technologies *StringList         `json:"technologies"`
	Tags         *StringList         `json:"tags"`
	Year         *int                `json:"year" validate:"omitnil,min=1970,max=2100"`
	Duration     *string             `json:"duration"`
	Problem      *string             `json:"problem"`
	Solution     *string             `json:"solution"`
	Process      *string             `json:"process"`
	Learnings    *string             `json:"learnings"`
	Featured     *bool               `json:"featured"`
	Published    *bool               `json:"published"`
	PublishedAt  Nullable[time.Time] `json:"publishedAt"`
	Images       *[]ImageInput       `json:"images" validate:"omitnil,dive"`
}

// Updates returns the column changes of the patch against the stored project.
func (p ProjectPatch) Updates(existing Project, now time.Time) map[string]any {
	u := map[string]any{}
	setString(u, "slug", p.Slug)
	setString(u, "title", p.Title)
	setString(u, "category", p.Category)
	setString(u, "description", p.Description)
	setString(u, "short_desc", p.ShortDesc)
	setNullable(u, "thumbnail", p.Thumbnail)
	setNullable(u, "video", p.Video)
	setNullable(u, "demo_url", p.DemoURL)
	setNullable(u, "github_url", p.GithubURL)
	setList(u, "technologies", p.Technologies)
	setList(u, "tags", p.Tags)
	if p.Year != nil {
		u["year"] = *p.Year
	}
	setString(u, "duration", p.Duration)
	setString(u, "problem", p.Problem)
	setString(u, "solution", p.Solution)
	setString(u, "process", p.Process)
	setString(u, "learnings", p.Learnings)
	if p.Featured != nil {
		u["featured"] = *p.Featured
	}
	if p.Published != nil {
		u["published"] = *p.Published
	}
	setNullable(u, "published_at", p.PublishedAt)
	if p.Published != nil && *p.Published && !existing.Published && !p.PublishedAt.Set && existing.PublishedAt == nil {
		u["published_at"] = now
	}
	return u
}

func setString(u map[string]any, column string, v *string) {
	if v != nil {
		u[column] = *v
	}
}

func setNullable[T any](u map[string]any, column string, v Nullable[T]) {
	if v.Set {
		u[column] = v.Column()
	}
}

func setList(u map[string]any, column string, v *StringList) {
	if v == nil {
		return
	}
	if *v == nil {
		u[column] = StringList{}
		return
	}
	u[column] = *v
}
