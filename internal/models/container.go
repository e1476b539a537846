package models

import "time"

// Container statuses shown on the workspace cards.
const (
	ContainerRunning    = "running"
	ContainerStopped    = "stopped"
	ContainerRestarting = "restarting"
	ContainerExited     = "exited"
)

// ContainerStatuses lists every valid container status.
var ContainerStatuses = []string{ContainerRunning, ContainerStopped, ContainerRestarting, ContainerExited}

// Container is a development container listed in the workspace.
type Container struct {
	ID          string     `gorm:"primaryKey;size:32" json:"id"`
	Name        string     `gorm:"size:128;not null" json:"name"`
	Status      string     `gorm:"size:16;default:stopped;index" json:"status"`
	Description string     `gorm:"type:text" json:"description,omitempty"`
	Tags        []string   `gorm:"serializer:json;type:text" json:"tags,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"-"`
	LastRunAt   *time.Time `json:"lastRunAt"`
	LastRunAgo  string     `gorm:"-" json:"lastRunAgo,omitempty"`
}
