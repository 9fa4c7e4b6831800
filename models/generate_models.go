package models

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"

	"gorm.io/gen"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

/*
Column Mismatch Report Usage:

Reports database columns that no field of the corresponding Go model maps to,
usually left behind by a renamed or removed field.

1. Set the environment variable: GENERATE_COLUMN_REPORT=true
2. Run the application: go run .

Example output:
=== COLUMN MISMATCH REPORT ===
--- Table: skills ---
Found 1 columns not accounted for in model:
  - proficiency

--- Table: projects ---
All columns are accounted for in the model.

=== SUMMARY ===
Total mismatched columns across all tables: 1
*/

// AllModels lists every persisted model in migration order (parents first).
func AllModels() []any {
	return []any{
		&User{},
		&Project{},
		&ProjectImage{},
		&Skill{},
		&WorkExperience{},
		&Education{},
		&Service{},
		&SiteSettings{},
		&ActivityLog{},
	}
}

// GenerateModels migrates the schema and writes typed query helpers to
// ./generated with gorm/gen.
func GenerateModels(db *gorm.DB, out io.Writer) error {
	if err := db.Exec("SELECT 1").Error; err != nil {
		return fmt.Errorf("database not reachable: %w", err)
	}

	verbose := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             0,
			LogLevel:                  logger.Info,
			IgnoreRecordNotFoundError: false,
			Colorful:                  true,
		},
	)
	migrateDB := db.Session(&gorm.Session{
		Logger:                 verbose,
		SkipDefaultTransaction: true,
		PrepareStmt:            false,
	})

	g := gen.NewGenerator(gen.Config{
		OutPath:           "./generated",
		Mode:              gen.WithDefaultQuery | gen.WithQueryInterface,
		FieldNullable:     true,
		FieldCoverable:    true,
		FieldWithIndexTag: true,
		FieldWithTypeTag:  true,
	})
	g.UseDB(migrateDB)
	g.ApplyBasic(AllModels()...)

	fmt.Fprintln(out, "Migrating models...")
	if err := migrateDB.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("migrate models: %w", err)
	}
	fmt.Fprintln(out, "Database migration completed successfully!")

	if _, err := GenerateColumnMismatchReport(db, out); err != nil {
		return err
	}

	g.Execute()
	fmt.Fprintln(out, "Model generation complete!")
	return nil
}

// GenerateColumnMismatchReport prints, per table, the columns the models do
// not map and returns the total count.
func GenerateColumnMismatchReport(db *gorm.DB, out io.Writer) (int, error) {
	fmt.Fprintln(out, "=== COLUMN MISMATCH REPORT ===")

	totalMismatches := 0
	for _, model := range AllModels() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return totalMismatches, fmt.Errorf("parse model %T: %w", model, err)
		}
		tableName := stmt.Schema.Table
		fmt.Fprintf(out, "\n--- Table: %s ---\n", tableName)

		if !db.Migrator().HasTable(model) {
			fmt.Fprintln(out, "Table does not exist yet (will be created during migration)")
			continue
		}

		columnTypes, err := db.Migrator().ColumnTypes(model)
		if err != nil {
			return totalMismatches, fmt.Errorf("read columns of %s: %w", tableName, err)
		}
		dbColumns := make([]string, 0, len(columnTypes))
		for _, ct := range columnTypes {
			dbColumns = append(dbColumns, ct.Name())
		}

		mismatches := findColumnMismatches(dbColumns, stmt.Schema.DBNames)
		if len(mismatches) > 0 {
			fmt.Fprintf(out, "Found %d columns not accounted for in model:\n", len(mismatches))
			for _, col := range mismatches {
				fmt.Fprintf(out, "  - %s\n", col)
			}
			totalMismatches += len(mismatches)
		} else {
			fmt.Fprintln(out, "All columns are accounted for in the model.")
		}
	}

	fmt.Fprintf(out, "\n=== SUMMARY ===\n")
	fmt.Fprintf(out, "Total mismatched columns across all tables: %d\n", totalMismatches)
	return totalMismatches, nil
}

// findColumnMismatches finds columns that exist in the database but not in the model
func findColumnMismatches(dbColumns, modelFields []string) []string {
	modelFieldSet := make(map[string]bool, len(modelFields))
	for _, field := range modelFields {
		modelFieldSet[field] = true
	}

	var mismatches []string
	for _, col := range dbColumns {
		if !modelFieldSet[col] {
			mismatches = append(mismatches, col)
		}
	}
	sort.Strings(mismatches)
	return mismatches
}
