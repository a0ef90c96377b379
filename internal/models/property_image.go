package models

// PropertyImage represents an image associated with a property
type PropertyImage struct {
	ID         int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	PropertyID int64  `gorm:"not null;index" json:"property_id"`
	URL        string `gorm:"type:text;not null" json:"url"`
}

// TableName specifies the table name for PropertyImage
func (PropertyImage) TableName() string {
	return "property_images"
}
