package models

import (
	"github.com/google/uuid"
)

// Currency is a money unit an organization prices its menu in.
type Currency struct {
	BaseModel
	Name string `json:"name"`
	Code string `gorm:"size:3;uniqueIndex" json:"code"`
}

// WiFi is a network guests of an organization may join.
type WiFi struct {
	BaseModel
	OrganizationID *uuid.UUID `gorm:"type:uuid;index" json:"organization_id"`
	Name           string     `json:"name"`
	Password       string     `json:"password"`
	QRCode         string     `json:"qr_code"`
}

// TableName overrides gorm's "wi_fis" pluralisation.
func (WiFi) TableName() string {
	return "wifis"
}

// Organization is an eatery publishing a menu.
type Organization struct {
	BaseModel
	Name        string     `json:"name"`
	ShortName   string     `gorm:"size:50;uniqueIndex" json:"short_name"`
	Logo        string     `json:"logo"`
	Wallpaper   string     `json:"wallpaper"`
	CurrencyID  uuid.UUID  `gorm:"type:uuid" json:"currency_id"`
	Currency    *Currency  `json:"currency,omitempty"`
	PhoneNumber string     `gorm:"size:16" json:"phone_number"`
	Address     string     `json:"address"`
	ServiceFee  float64    `json:"service_fee"`
	Description string     `json:"description"`
	WiFi        []WiFi     `json:"wifi,omitempty"`
	Products    []Product  `json:"products,omitempty"`
	Tables      []Table    `json:"tables,omitempty"`
}

// Category groups products on a menu.
type Category struct {
	BaseModel
	Name     string    `json:"name"`
	Image    string    `json:"image"`
	Products []Product `json:"products,omitempty"`
}
