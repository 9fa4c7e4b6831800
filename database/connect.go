package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"

	"github.com/rpupo63/portfolio-cms-backend/config"

	_ "modernc.org/sqlite" // pure Go driver registered as "sqlite"
)

// Open connects to the database selected by DB_TYPE (supa, postgres or
// sqlite). When DB_REPLICA_HOST is set, reads are routed to that replica.
func Open(cfg map[string]string) (*gorm.DB, error) {
	dbType := strings.ToLower(config.GetString(cfg, "DB_TYPE", "sqlite"))
	gormCfg := &gorm.Config{
		PrepareStmt: false,
		Logger:      newGormLogger(cfg),
	}

	switch dbType {
	case "supa", "postgres":
		db, err := gorm.Open(postgres.New(postgres.Config{
			DSN:                  postgresDSN(cfg, dbType, ""),
			PreferSimpleProtocol: true,
		}), gormCfg)
		if err != nil {
			return nil, fmt.Errorf("connect to %s database: %w", dbType, err)
		}

		if replicaHost := config.GetString(cfg, "DB_REPLICA_HOST", ""); replicaHost != "" {
			err := db.Use(dbresolver.Register(dbresolver.Config{
				Replicas: []gorm.Dialector{postgres.New(postgres.Config{
					DSN:                  postgresDSN(cfg, dbType, replicaHost),
					PreferSimpleProtocol: true,
				})},
				Policy: dbresolver.RandomPolicy{},
			}))
			if err != nil {
				return nil, fmt.Errorf("register read replica: %w", err)
			}
			zlog.Info().Str("replica", replicaHost).Msg("read replica registered")
		}
		return db, nil

	case "sqlite":
		return OpenSQLite(config.GetString(cfg, "SQLITE_PATH", "portfolio.db"), gormCfg)

	default:
		return nil, fmt.Errorf("unsupported DB_TYPE %q", dbType)
	}
}

// OpenSQLite opens a SQLite file through the pure Go modernc driver.
func OpenSQLite(path string, gormCfg *gorm.Config) (*gorm.DB, error) {
	if gormCfg == nil {
		gormCfg = &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	}

	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_time_format=sqlite"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	db, err := gorm.Open(sqlite.Dialector{Conn: sqlDB}, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to sqlite database: %w", err)
	}

	// single writer
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)
	return db, nil
}

func postgresDSN(cfg map[string]string, dbType, hostOverride string) string {
	prefix, sslDefault := "DB_", "disable"
	if dbType == "supa" {
		prefix, sslDefault = "SUPABASE_DB_", "require"
	}

	host := config.GetString(cfg, prefix+"HOST", "localhost")
	if hostOverride != "" {
		host = hostOverride
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		host,
		config.GetString(cfg, prefix+"USER", ""),
		config.GetString(cfg, prefix+"PASSWORD", ""),
		config.GetString(cfg, prefix+"NAME", ""),
		config.GetString(cfg, prefix+"PORT", "5432"),
		config.GetString(cfg, "DB_SSLMODE", sslDefault),
	)
}

func newGormLogger(cfg map[string]string) logger.Interface {
	level := logger.Warn
	if zerolog.GlobalLevel() <= zerolog.DebugLevel || config.GetBool(cfg, "DB_LOG_QUERIES", false) {
		level = logger.Info
	}
	return logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             10 * time.Second,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)
}
