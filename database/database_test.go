package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rpupo63/portfolio-cms-backend/models"
)

// setupTestDB opens a migrated database in a temporary directory
func setupTestDB(t *testing.T) Database {
	t.Helper()

	db, err := OpenSQLite(filepath.Join(t.TempDir(), "test.db"), nil)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	d := New(db)
	if err := d.Migrate(); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("Failed to close test database: %v", err)
		}
	})
	return d
}

func addSkill(t *testing.T, d Database, category, name string, order int, visible bool) *models.Skill {
	t.Helper()
	s := &models.Skill{Category: category, Name: name, Level: 50, Order: order, Visible: visible}
	if err := d.SkillRepo().Add(context.Background(), s); err != nil {
		t.Fatalf("Add skill %s: %v", name, err)
	}
	return s
}

func TestNextOrderWithinCategory(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	addSkill(t, d, "Frameworks", "React", 1, true)
	addSkill(t, d, "Frameworks", "Vue", 2, true)
	addSkill(t, d, "Frameworks", "Svelte", 3, true)
	addSkill(t, d, "Tools", "Docker", 10, true)

	next, err := d.SkillRepo().NextOrder(ctx, map[string]any{"category": "Frameworks"})
	if err != nil {
		t.Fatalf("NextOrder: %v", err)
	}
	if next != 4 {
		t.Errorf("NextOrder = %d, want 4", next)
	}

	next, err = d.SkillRepo().NextOrder(ctx, map[string]any{"category": "Other"})
	if err != nil {
		t.Fatalf("NextOrder on empty category: %v", err)
	}
	if next != 0 {
		t.Errorf("NextOrder on empty category = %d, want 0", next)
	}
}

func TestFindAllOrderingAndVisibility(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	addSkill(t, d, "Tools", "Git", 2, true)
	addSkill(t, d, "Frameworks", "Hidden", 0, false)
	addSkill(t, d, "Tools", "Docker", 1, true)

	all, err := d.SkillRepo().FindAll(ctx, nil, false)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	got := make([]string, 0, len(all))
	for _, s := range all {
		got = append(got, s.Name)
	}
	want := []string{"Hidden", "Docker", "Git"}
	if len(got) != len(want) {
		t.Fatalf("FindAll returned %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("FindAll returned %v, want %v", got, want)
		}
	}

	visible, err := d.SkillRepo().FindAll(ctx, map[string]any{"category": "Frameworks"}, true)
	if err != nil {
		t.Fatalf("FindAll visible: %v", err)
	}
	if len(visible) != 0 {
		t.Errorf("hidden skill leaked into visible list: %+v", visible)
	}
}

func TestFindByIDMissingReturnsNil(t *testing.T) {
	d := setupTestDB(t)

	s, err := d.ServiceRepo().FindByID(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if s != nil {
		t.Errorf("expected nil, got %+v", s)
	}
}

func TestDeleteManyRemovesExactlyTheSelection(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	a := addSkill(t, d, "Tools", "A", 0, true)
	b := addSkill(t, d, "Tools", "B", 1, true)
	c := addSkill(t, d, "Tools", "C", 2, true)

	count, err := d.SkillRepo().DeleteMany(ctx, []uuid.UUID{a.ID, c.ID, uuid.New()})
	if err != nil {
		t.Fatalf("DeleteMany: %v", err)
	}
	if count != 2 {
		t.Errorf("DeleteMany count = %d, want 2", count)
	}

	remaining, _ := d.SkillRepo().FindAll(ctx, nil, false)
	if len(remaining) != 1 || remaining[0].ID != b.ID {
		t.Errorf("remaining = %+v, want only B", remaining)
	}
}

func TestUpdatesPartial(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	s := &models.Service{Title: "Consulting", Description: "Advice", Features: models.StringList{"a"}, Visible: true}
	if err := d.ServiceRepo().Add(ctx, s); err != nil {
		t.Fatal(err)
	}

	updated, err := d.ServiceRepo().Updates(ctx, s.ID, map[string]any{"visible": false, "features": models.StringList{"b", "c"}})
	if err != nil {
		t.Fatalf("Updates: %v", err)
	}
	if updated.Visible || updated.Title != "Consulting" || len(updated.Features) != 2 {
		t.Errorf("unexpected record after update: %+v", updated)
	}
}

func TestCurrentExperienceReadsWithoutEndDate(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	e := &models.WorkExperience{Company: "Acme", Position: "Engineer", DateRange: models.DateRange{StartDate: start, Current: true}}
	if err := d.ExperienceRepo().Add(ctx, e); err != nil {
		t.Fatal(err)
	}

	// stale end date written behind the model's back
	err := d.db.Exec("UPDATE work_experiences SET end_date = ? WHERE id = ?", start.AddDate(1, 0, 0), e.ID).Error
	if err != nil {
		t.Fatal(err)
	}

	got, err := d.ExperienceRepo().FindByID(ctx, e.ID)
	if err != nil || got == nil {
		t.Fatalf("FindByID: %v %v", got, err)
	}
	if got.EndDate != nil {
		t.Errorf("current experience read with endDate %v", got.EndDate)
	}
}

func TestProjectSlugAndImages(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	repo := d.ProjectRepo()

	p := &models.Project{Slug: "my-project", Title: "Mine", Category: "web", Description: "d"}
	images := []models.ImageInput{{URL: "/uploads/1.png"}, {URL: "/uploads/2.png"}}
	if err := repo.Add(ctx, p, images); err != nil {
		t.Fatalf("Add: %v", err)
	}

	taken, err := repo.SlugTaken(ctx, "my-project", uuid.Nil)
	if err != nil || !taken {
		t.Errorf("slug should be taken on create: %v %v", taken, err)
	}
	taken, err = repo.SlugTaken(ctx, "my-project", p.ID)
	if err != nil || taken {
		t.Errorf("slug should be free for its own project: %v %v", taken, err)
	}

	replacement := []models.ImageInput{{URL: "/uploads/3.png", Alt: "three"}}
	updated, err := repo.Update(ctx, p.ID, map[string]any{"title": "Renamed"}, &replacement)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "Renamed" || len(updated.Images) != 1 || updated.Images[0].Order != 0 {
		t.Errorf("unexpected project after update: %+v", updated)
	}

	var imageCount int64
	d.db.Model(&models.ProjectImage{}).Count(&imageCount)
	if imageCount != 1 {
		t.Errorf("image rows = %d, want 1", imageCount)
	}

	found, err := repo.FindBySlug(ctx, "my-project", true)
	if err != nil || found != nil {
		t.Errorf("unpublished project visible by slug: %+v %v", found, err)
	}

	count, err := repo.DeleteMany(ctx, []uuid.UUID{p.ID})
	if err != nil || count != 1 {
		t.Fatalf("DeleteMany = %d, %v", count, err)
	}
	d.db.Model(&models.ProjectImage{}).Count(&imageCount)
	if imageCount != 0 {
		t.Errorf("images left after project delete: %d", imageCount)
	}
}

func TestSettingsSingleton(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	s, err := d.SettingsRepo().Get(ctx)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s.ID != models.SiteSettingsID {
		t.Errorf("settings id = %d", s.ID)
	}

	for _, title := range []string{"First", "Second"} {
		if _, err := d.SettingsRepo().Update(ctx, map[string]any{"hero_title": title}); err != nil {
			t.Fatalf("Update: %v", err)
		}
	}

	s, _ = d.SettingsRepo().Get(ctx)
	if s.HeroTitle != "Second" {
		t.Errorf("hero title = %q", s.HeroTitle)
	}
	var rows int64
	d.db.Model(&models.SiteSettings{}).Count(&rows)
	if rows != 1 {
		t.Errorf("settings rows = %d, want 1", rows)
	}
}

func TestActivityLog(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	repo := d.ActivityLogRepo()

	for i := 0; i < 3; i++ {
		entry := &models.ActivityLog{Action: models.ActionCreate, EntityType: "skill", Description: "created", CreatedAt: time.Now().Add(time.Duration(i) * time.Second)}
		if err := repo.Add(ctx, entry); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := repo.List(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || !entries[0].CreatedAt.After(entries[1].CreatedAt) {
		t.Errorf("List returned %+v", entries)
	}

	count, err := repo.Clear(ctx)
	if err != nil || count != 3 {
		t.Errorf("Clear = %d, %v", count, err)
	}
}
