// Package course manages the assignment cards on the workspace board.
package course

import (
	"fmt"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/zulandar/educode/internal/models"
)

// List returns all courses ordered by ID.
func List(db *gorm.DB) ([]models.Course, error) {
	var cs []models.Course
	if err := db.Order("id").Find(&cs).Error; err != nil {
		return nil, errors.Wrap(err, "course: list")
	}
	return cs, nil
}

// AddCard appends a placeholder course card with the next ID, the same
// way the board's "add card" button does.
func AddCard(db *gorm.DB) (*models.Course, error) {
	var card models.Course
	err := db.Transaction(func(tx *gorm.DB) error {
		var maxID uint
		if err := tx.Model(&models.Course{}).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error; err != nil {
			return errors.Wrap(err, "max id")
		}
		var count int64
		if err := tx.Model(&models.Course{}).Count(&count).Error; err != nil {
			return errors.Wrap(err, "count")
		}

		card = models.Course{
			ID:          maxID + 1,
			Title:       fmt.Sprintf("New Course %d", count+1),
			Rating:      "4.0",
			Level:       "Beginner",
			Tags:        []string{"New", "Course"},
			Description: "This is a newly added course card",
			Duration:    "1-2 hours",
			DueDate:     "2024-02-01",
		}
		return tx.Create(&card).Error
	})
	if err != nil {
		return nil, errors.Wrap(err, "course: add card")
	}
	return &card, nil
}
