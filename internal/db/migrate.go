package db

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zulandar/educode/internal/account"
	"github.com/zulandar/educode/internal/models"
)

// AllModels returns every GORM model managed by AutoMigrate.
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Container{},
		&models.Course{},
	}
}

// AutoMigrate creates or updates all tables.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return errors.Wrap(err, "db: auto-migrate")
	}
	return nil
}

// DemoCredential is a seeded login.
type DemoCredential struct {
	Username string
	Password string
	Mobile   string
}

// DemoUsers are the accounts seeded for the login endpoint.
func DemoUsers() []DemoCredential {
	return []DemoCredential{
		{Username: "admin", Password: "888888", Mobile: "13888888888"},
		{Username: "user", Password: "ant.design", Mobile: "13900000000"},
	}
}

// DemoContainers returns the containers seeded into a fresh workspace.
func DemoContainers(now time.Time) []models.Container {
	ago := func(d time.Duration) *time.Time {
		t := now.Add(-d)
		return &t
	}
	return []models.Container{
		{
			ID: "c1", Name: "react-lab", Status: models.ContainerRunning,
			Description: "React component architecture workspace",
			Tags:        []string{"react", "typescript"},
			CreatedAt:   now.AddDate(0, 0, -12), LastRunAt: ago(5 * time.Minute),
		},
		{
			ID: "c2", Name: "node-api", Status: models.ContainerStopped,
			Description: "API design with Node.js",
			Tags:        []string{"node"},
			CreatedAt:   now.AddDate(0, 0, -7), LastRunAt: ago(26 * time.Hour),
		},
		{
			ID: "c3", Name: "css-grid", Status: models.ContainerExited,
			Description: "CSS grid exercises",
			CreatedAt:   now.AddDate(0, 0, -2),
		},
	}
}

// DemoCourses returns the assignment cards seeded into a fresh workspace.
func DemoCourses() []models.Course {
	return []models.Course{
		{
			ID: 1, Title: "React Component Architecture", Rating: "4.8", Level: "Intermediate",
			Tags:        []string{"React", "TypeScript", "Components"},
			Description: "Build a scalable component system with TypeScript and modern React patterns",
			Duration:    "2-3 hours", DueDate: "2024-01-15", Progress: 100,
		},
		{
			ID: 2, Title: "API Design with Node.js", Rating: "4.6", Level: "Advanced",
			Tags:        []string{"Node.js", "JavaScript", "Open API"},
			Description: "Learn how to design robust and scalable APIs using Node.js",
			Duration:    "3-4 hours", DueDate: "2024-01-20", Progress: 50,
		},
		{
			ID: 3, Title: "CSS Grid Mastery", Rating: "4.9", Level: "Beginner",
			Tags:        []string{"CSS", "Layout", "Grid"},
			Description: "Master CSS Grid layout system through practical exercises and real-world examples",
			Duration:    "1-2 hours", DueDate: "2024-01-10", Progress: 89,
		},
	}
}

// Seed inserts the demo users, containers and courses. Existing rows are
// left untouched, so Seed is safe to run repeatedly.
func Seed(db *gorm.DB, now time.Time) error {
	var users []models.User
	for _, cred := range DemoUsers() {
		u, err := account.NewUser(cred.Username, cred.Password, cred.Mobile)
		if err != nil {
			return errors.Wrap(err, "db: seed users")
		}
		users = append(users, u)
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&users).Error; err != nil {
		return errors.Wrap(err, "db: seed users")
	}
	containers := DemoContainers(now)
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&containers).Error; err != nil {
		return errors.Wrap(err, "db: seed containers")
	}
	courses := DemoCourses()
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&courses).Error; err != nil {
		return errors.Wrap(err, "db: seed courses")
	}
	return nil
}
