package models

import "time"

// Favorite marks a property as saved. There is no user identity in this
// system, so at most one favorite row exists per property.
type Favorite struct {
	PropertyID int64     `gorm:"primaryKey;autoIncrement:false" json:"property_id"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime" json:"created_at"`

	Property *Property `gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for Favorite
func (Favorite) TableName() string {
	return "favorites"
}
