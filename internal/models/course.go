package models

// Course is an assignment card on the workspace board.
type Course struct {
	ID          uint     `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string   `gorm:"size:256;not null" json:"title"`
	Rating      string   `gorm:"size:8" json:"rating"`
	Level       string   `gorm:"size:32" json:"level"`
	Tags        []string `gorm:"serializer:json;type:text" json:"tags"`
	Description string   `gorm:"type:text" json:"description"`
	Duration    string   `gorm:"size:32" json:"duration"`
	DueDate     string   `gorm:"size:10" json:"dueDate"`
	Progress    int      `gorm:"default:0" json:"progress"`
}
