package dbmodels

import "barangay-services-backend/models"

// RequestCategory defines one administrator-managed request type instance:
// a document/certificate type or a benefit definition. The required-evidence
// list is stored in its legacy text form (JSON array or comma-separated) and
// parsed at the ingress boundary.
type RequestCategory struct {
	BaseModel
	Kind            models.RequestKind `gorm:"type:varchar(30);index"`
	Name            string             `gorm:"type:varchar(200)"`
	Description     string
	Requirements    string // legacy dual representation, see requirement catalog
	Fee             float64
	ProcessingDays  int
	ValidityDays    int
	MaxRecipients   int
	AutoExpire      bool
	Active          bool `gorm:"index"`
	ContactPerson   string `gorm:"type:varchar(200)"`
	ContactNumber   string `gorm:"type:varchar(30)"`
	ContactEmail    string `gorm:"type:varchar(100)"`
	EligibilityNote string
}
