package models

import "time"

// InquiryStatus tracks how far a lead has been followed up.
type InquiryStatus string

const (
	InquiryStatusPending   InquiryStatus = "pendiente"
	InquiryStatusContacted InquiryStatus = "contactado"
	InquiryStatusClosed    InquiryStatus = "cerrado"
)

// Inquiry is a contact message tied to a property. The property reference is
// nulled out when the property is deleted so historical inquiries survive.
type Inquiry struct {
	ID          int64         `gorm:"primaryKey;autoIncrement" json:"id"`
	PropertyID  *int64        `gorm:"index" json:"property_id"`
	ClientName  string        `gorm:"type:text;not null" json:"client_name"`
	ClientPhone string        `gorm:"type:text" json:"client_phone"`
	Message     string        `gorm:"type:text" json:"message"`
	Status      InquiryStatus `gorm:"type:varchar(20);not null;default:'pendiente'" json:"status"`
	CreatedAt   time.Time     `gorm:"not null;autoCreateTime" json:"created_at"`

	Property *Property `gorm:"foreignKey:PropertyID;constraint:OnDelete:SET NULL" json:"-"`
}

// TableName specifies the table name for Inquiry
func (Inquiry) TableName() string {
	return "inquiries"
}

// InquiryWithProperty is the list response shape: the inquiry plus the title
// and main image of the referenced property, empty when the property is gone.
type InquiryWithProperty struct {
	Inquiry
	PropertyTitle string `json:"property_title,omitempty"`
	PropertyImage string `json:"property_image,omitempty"`
}
