package db

import (
	"fmt"
	"os"
	"strings"
	"time"

	migrate "github.com/golang-migrate/migrate/v4"
	// Blank imports register the postgres driver and file source for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/gorm"

	"blogium/internal/models"
)

// ConnectAndMigrate opens the store and brings the schema up to date.
// With MIGRATIONS=1 (postgres only) versioned SQL migrations run via
// golang-migrate; otherwise AutoMigrate keeps dev and test databases in
// shape. DB_SEED=1 inserts baseline taxonomy rows.
func ConnectAndMigrate(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_DSN is empty; check the environment")
	}
	var conn *gorm.DB
	var err error
	for i := 0; i < 10; i++ {
		conn, err = Open(dsn)
		if err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("connect after retries: %w", err)
	}
	if pingErr := conn.Exec("SELECT 1").Error; pingErr != nil {
		return nil, fmt.Errorf("ping: %w", pingErr)
	}

	if v := strings.ToLower(os.Getenv("MIGRATIONS")); v == "1" || v == "true" || v == "yes" {
		if !IsPostgresDSN(dsn) {
			return nil, fmt.Errorf("MIGRATIONS=1 requires a postgres DSN")
		}
		if err := runSQLMigrations(dsn); err != nil {
			return nil, fmt.Errorf("sql migrations: %w", err)
		}
	} else if err := AutoMigrate(conn); err != nil {
		return nil, err
	}

	if v := strings.ToLower(os.Getenv("DB_SEED")); v == "1" || v == "true" || v == "yes" {
		seed(conn)
	}
	return conn, nil
}

// AutoMigrate creates or updates every table of the blog schema.
func AutoMigrate(conn *gorm.DB) error {
	toMigrate := []any{
		&models.User{}, &models.Category{}, &models.Location{}, &models.Post{}, &models.Comment{},
	}
	for _, m := range toMigrate {
		if err := conn.AutoMigrate(m); err != nil {
			return fmt.Errorf("automigrate %T: %w", m, err)
		}
	}
	return nil
}

func seed(conn *gorm.DB) {
	baseCategories := []models.Category{
		{Title: "General", Slug: "general", Description: "Everything else", IsPublished: true},
		{Title: "Travel", Slug: "travel", Description: "Trips and places", IsPublished: true},
		{Title: "News", Slug: "news", Description: "Site announcements", IsPublished: true},
	}
	for _, c := range baseCategories {
		var existing models.Category
		if err := conn.Where("slug = ?", c.Slug).First(&existing).Error; err == gorm.ErrRecordNotFound {
			conn.Create(&c)
		}
	}
	baseLocations := []models.Location{
		{Name: "Nowhere in particular", IsPublished: true},
	}
	for _, l := range baseLocations {
		var existing models.Location
		if err := conn.Where("name = ?", l.Name).First(&existing).Error; err == gorm.ErrRecordNotFound {
			conn.Create(&l)
		}
	}
}

// runSQLMigrations executes migrations in ./migrations using the
// golang-migrate file source.
func runSQLMigrations(dsn string) error {
	m, err := migrate.New("file://migrations", dsn)
	if err != nil {
		return err
	}
	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}
