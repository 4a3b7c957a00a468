package categoryapimodels

import (
	"fmt"
	"time"

	"barangay-services-backend/lib/utils/apperrors"
	"barangay-services-backend/models"
	dbmodels "barangay-services-backend/models/db"
)

type CategoryData struct {
	Kind            models.RequestKind `json:"kind"`             // request kind this category serves
	Name            string             `json:"name"`             // display name, e.g. "Barangay Clearance"
	Description     string             `json:"description"`      // free-form description
	Requirements    []string           `json:"requirements"`     // ordered required evidence names
	Fee             float64            `json:"fee"`              // fee in PHP
	ProcessingDays  int                `json:"processing_days"`  // expected processing duration
	ValidityDays    int                `json:"validity_days"`    // issued document validity
	MaxRecipients   int                `json:"max_recipients"`   // benefit kinds: recipient cap, 0 = unlimited
	AutoExpire      bool               `json:"auto_expire"`      // purge issued documents past validity
	ContactPerson   string             `json:"contact_person"`
	ContactNumber   string             `json:"contact_number"`
	ContactEmail    string             `json:"contact_email"`
	EligibilityNote string             `json:"eligibility_note"`
}

func (c CategoryData) Validate() error {
	if c.Name == "" {
		return apperrors.NewValidationError("category name is required")
	}
	if err := c.Kind.Validate(); err != nil {
		return err
	}
	if !c.Kind.RequiresCategory() {
		return apperrors.NewValidationError(fmt.Sprintf("%v requests do not use categories", c.Kind))
	}
	if c.Fee < 0 {
		return apperrors.NewValidationError("fee cannot be negative")
	}
	if c.ProcessingDays < 0 || c.ValidityDays < 0 {
		return apperrors.NewValidationError("durations cannot be negative")
	}
	return nil
}

type CategoryEditData struct {
	CategoryData
	// MigrateRequirements explicitly acknowledges changing the required-evidence
	// list under existing requests.
	MigrateRequirements bool `json:"migrate_requirements"`
}

type CategoryView struct {
	CategoryData
	ID        string    `json:"id"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func CategoryConvert(rec dbmodels.RequestCategory, requirements []string) CategoryView {
	return CategoryView{
		CategoryData: CategoryData{
			Kind:            rec.Kind,
			Name:            rec.Name,
			Description:     rec.Description,
			Requirements:    requirements,
			Fee:             rec.Fee,
			ProcessingDays:  rec.ProcessingDays,
			ValidityDays:    rec.ValidityDays,
			MaxRecipients:   rec.MaxRecipients,
			AutoExpire:      rec.AutoExpire,
			ContactPerson:   rec.ContactPerson,
			ContactNumber:   rec.ContactNumber,
			ContactEmail:    rec.ContactEmail,
			EligibilityNote: rec.EligibilityNote,
		},
		ID:        rec.ID,
		Active:    rec.Active,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

type DeleteData struct {
	Reason string `json:"reason"` // optional, recorded in the system cancellation reason
	Force  bool   `json:"force"`  // second round-trip confirmation
}

// DeleteConflict is returned on the first round-trip when requests still
// reference the category. The caller re-issues the call with force=true.
type DeleteConflict struct {
	Message        string           `json:"message"`
	TotalRequests  int64            `json:"total_requests"`
	CountsByStatus map[string]int64 `json:"counts_by_status"`
	ForceAvailable bool             `json:"force_available"`
}

type BulkDeleteData struct {
	IDs    []string `json:"ids"`
	Reason string   `json:"reason"`
	Force  bool     `json:"force"`
}

func (b BulkDeleteData) Validate() error {
	if len(b.IDs) == 0 {
		return apperrors.NewValidationError("no category ids given")
	}
	return nil
}

// BulkDeleteResult is the per-item ledger entry of a bulk deletion.
type BulkDeleteResult struct {
	ID       string          `json:"id"`
	Deleted  bool            `json:"deleted"`
	Message  string          `json:"message,omitempty"`
	Conflict *DeleteConflict `json:"conflict,omitempty"`
}
