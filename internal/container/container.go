// Package container provides workspace container lifecycle operations
// backed by the GORM store.
package container

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/zulandar/educode/internal/models"
)

// ErrNotFound is returned when no container has the requested ID.
var ErrNotFound = errors.New("container: not found")

// ErrInvalidField is returned when an update names a field that cannot be
// edited or carries a value of the wrong shape.
var ErrInvalidField = errors.New("container: invalid field")

// CreateOpts holds parameters for creating a new container.
type CreateOpts struct {
	Name        string
	Description string
	Tags        []string
}

// EditableFields lists the keys accepted by Update.
var EditableFields = []string{"name", "description", "status", "tags"}

// ValidTransitions maps each lifecycle action to the status it produces.
var ValidTransitions = map[string]string{
	"start":   models.ContainerRunning,
	"stop":    models.ContainerStopped,
	"restart": models.ContainerRestarting,
}

// Create adds a container with the next free "cN" ID. A blank name
// becomes "New container N"; status starts as stopped.
func Create(db *gorm.DB, opts CreateOpts) (*models.Container, error) {
	id, n, err := nextID(db)
	if err != nil {
		return nil, err
	}
	if opts.Name == "" {
		opts.Name = fmt.Sprintf("New container %d", n)
	}
	if opts.Description == "" {
		opts.Description = "Newly created container"
	}
	if opts.Tags == nil {
		opts.Tags = []string{"new"}
	}

	c := models.Container{
		ID:          id,
		Name:        opts.Name,
		Status:      models.ContainerStopped,
		Description: opts.Description,
		Tags:        opts.Tags,
	}
	if err := db.Create(&c).Error; err != nil {
		return nil, errors.Wrap(err, "container: create")
	}
	return &c, nil
}

// Get retrieves a container by ID.
func Get(db *gorm.DB, id string) (*models.Container, error) {
	var c models.Container
	if err := db.Where("id = ?", id).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Wrap(ErrNotFound, id)
		}
		return nil, errors.Wrapf(err, "container: get %s", id)
	}
	return &c, nil
}

// List returns all containers ordered by creation time.
func List(db *gorm.DB) ([]models.Container, error) {
	var cs []models.Container
	if err := db.Order("created_at, id").Find(&cs).Error; err != nil {
		return nil, errors.Wrap(err, "container: list")
	}
	return cs, nil
}

// Update sets a single editable field. The raw JSON value must match the
// field's type (string, or a string array for tags).
func Update(db *gorm.DB, id, field string, raw json.RawMessage) (*models.Container, error) {
	if !slices.Contains(EditableFields, field) {
		return nil, errors.Wrapf(ErrInvalidField, "%q is not editable", field)
	}

	var value interface{}
	if field == "tags" {
		var tags []string
		if err := json.Unmarshal(raw, &tags); err != nil {
			return nil, errors.Wrap(ErrInvalidField, "tags must be a string array")
		}
		value = tags
	} else {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, errors.Wrapf(ErrInvalidField, "%s must be a string", field)
		}
		if field == "status" && !slices.Contains(models.ContainerStatuses, s) {
			return nil, errors.Wrapf(ErrInvalidField, "unknown status %q", s)
		}
		if field == "name" && s == "" {
			return nil, errors.Wrap(ErrInvalidField, "name must not be empty")
		}
		value = s
	}

	c, err := Get(db, id)
	if err != nil {
		return nil, err
	}
	switch field {
	case "name":
		c.Name = value.(string)
	case "description":
		c.Description = value.(string)
	case "status":
		c.Status = value.(string)
	case "tags":
		c.Tags = value.([]string)
	}
	if err := db.Save(c).Error; err != nil {
		return nil, errors.Wrapf(err, "container: update %s.%s", id, field)
	}
	return c, nil
}

// Transition applies a lifecycle action (start, stop, restart). Starting
// or restarting records LastRunAt.
func Transition(db *gorm.DB, id, action string, now time.Time) (*models.Container, error) {
	status, ok := ValidTransitions[action]
	if !ok {
		return nil, errors.Errorf("container: unknown action %q", action)
	}
	c, err := Get(db, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{"status": status}
	if status != models.ContainerStopped {
		updates["last_run_at"] = now
	}
	if err := db.Model(c).Updates(updates).Error; err != nil {
		return nil, errors.Wrapf(err, "container: %s %s", action, id)
	}
	return Get(db, id)
}

// FinishRestart moves a restarting container back to running. Containers
// in any other state are left alone.
func FinishRestart(db *gorm.DB, id string) error {
	result := db.Model(&models.Container{}).
		Where("id = ? AND status = ?", id, models.ContainerRestarting).
		Update("status", models.ContainerRunning)
	if result.Error != nil {
		return errors.Wrapf(result.Error, "container: finish restart %s", id)
	}
	return nil
}

// Delete removes a container.
func Delete(db *gorm.DB, id string) error {
	result := db.Where("id = ?", id).Delete(&models.Container{})
	if result.Error != nil {
		return errors.Wrapf(result.Error, "container: delete %s", id)
	}
	if result.RowsAffected == 0 {
		return errors.Wrap(ErrNotFound, id)
	}
	return nil
}

// nextID returns the first unused "cN" ID, starting after the current count.
func nextID(db *gorm.DB) (string, int, error) {
	var count int64
	if err := db.Model(&models.Container{}).Count(&count).Error; err != nil {
		return "", 0, errors.Wrap(err, "container: count")
	}
	for n := int(count) + 1; n < int(count)+1000; n++ {
		id := fmt.Sprintf("c%d", n)
		var exists int64
		if err := db.Model(&models.Container{}).Where("id = ?", id).Count(&exists).Error; err != nil {
			return "", 0, errors.Wrapf(err, "container: check ID %s", id)
		}
		if exists == 0 {
			return id, n, nil
		}
	}
	return "", 0, errors.New("container: no free ID")
}
