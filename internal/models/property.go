package models

import "time"

// PropertyType classifies a listing.
type PropertyType string

const (
	PropertyTypeHouse      PropertyType = "casa"
	PropertyTypeApartment  PropertyType = "apartamento"
	PropertyTypeLand       PropertyType = "terreno"
	PropertyTypeCommercial PropertyType = "comercial"
	PropertyTypeVilla      PropertyType = "villa"
)

// OperationType is the sale vs. rental classification of a listing.
type OperationType string

const (
	OperationSale   OperationType = "venta"
	OperationRental OperationType = "alquiler"
)

// PropertyStatus is the availability state of a listing.
type PropertyStatus string

const (
	PropertyStatusAvailable PropertyStatus = "disponible"
	PropertyStatusReserved  PropertyStatus = "reservada"
	PropertyStatusSold      PropertyStatus = "vendida"
)

type Property struct {
	ID          int64   `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string  `gorm:"type:text;not null" json:"title"`
	Description string  `gorm:"type:text" json:"description"`
	Price       float64 `gorm:"type:numeric;not null" json:"price"`
	Location    string  `gorm:"type:text;not null" json:"location"`

	// Filter attributes
	Type      PropertyType  `gorm:"type:varchar(20);not null;index" json:"type"`
	Operation OperationType `gorm:"type:varchar(20);not null;index" json:"operation"`
	Bedrooms  int           `gorm:"type:int" json:"bedrooms"`
	Bathrooms int           `gorm:"type:int" json:"bathrooms"`
	Area      float64       `gorm:"type:numeric" json:"area"`

	// Display control
	Featured  bool           `gorm:"not null;default:false;index" json:"featured"`
	Status    PropertyStatus `gorm:"type:varchar(20);not null;default:'disponible';index" json:"status"`
	MainImage string         `gorm:"type:text" json:"main_image"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index:idx_properties_created_at,sort:desc" json:"created_at"`

	// Images is only populated on the single-property fetch, never on list queries.
	Images []PropertyImage `gorm:"foreignKey:PropertyID;constraint:OnDelete:CASCADE" json:"images,omitempty"`
}

// TableName specifies the table name explicitly
func (Property) TableName() string {
	return "properties"
}

// IsAvailable reports whether the listing can still be sold or rented.
func (p *Property) IsAvailable() bool {
	return p.Status == PropertyStatusAvailable
}
