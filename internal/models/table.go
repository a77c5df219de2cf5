package models

import "github.com/google/uuid"

// Table is a physical table of an organization, reachable through its QR code.
type Table struct {
	BaseModel
	OrganizationID uuid.UUID     `gorm:"type:uuid;uniqueIndex:idx_table_org_number" json:"organization_id"`
	Organization   *Organization `json:"organization,omitempty"`
	Number         int           `gorm:"uniqueIndex:idx_table_org_number" json:"number"`
	QRCode         string        `json:"qr_code"`
}
