package models

import "time"

type Supplier struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CompanyName   string    `gorm:"size:150;not null" json:"company_name"`
	ContactPerson string    `gorm:"size:150" json:"contact_person"`
	ContactNumber string    `gorm:"size:40" json:"contact_number"`
	Email         string    `gorm:"size:150;not null" json:"email"`
	Address       string    `gorm:"size:255" json:"address"`
	NIT           string    `gorm:"column:nit;size:30;not null;uniqueIndex" json:"nit"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
