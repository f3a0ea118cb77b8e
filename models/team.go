package models

import (
	"time"
)

type Team struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `gorm:"uniqueIndex;not null;size:100" json:"name"`
	ManagerID *uint     `gorm:"index" json:"manager_id"`
	Users     []User    `gorm:"foreignKey:TeamID" json:"users,omitempty"`
}

// IsManagedBy reports whether userID is the team's manager.
func (t *Team) IsManagedBy(userID uint) bool {
	return t.ManagerID != nil && *t.ManagerID == userID
}
