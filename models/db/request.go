package dbmodels

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"barangay-services-backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RequestRecord is the polymorphic core entity: one row per resident request of
// any kind, discriminated by Kind. Lifecycle fields are shared, the
// kind-specific part lives in the Payload union. Columns that decisions mutate
// (relocation approval flags, item reference) stay relational so the engine can
// update them with status-guarded writes.
type RequestRecord struct {
	BaseModel
	Kind        models.RequestKind `gorm:"type:varchar(30);index"`
	BarangayID  string             `gorm:"type:varchar(36);index"`
	RequesterID string             `gorm:"type:varchar(36);index"`
	Requester   *User              `gorm:"foreignKey:RequesterID"`

	CategoryID string `gorm:"type:varchar(36);index:idx_request_category"`
	Category   *RequestCategory
	ItemID     string `gorm:"type:varchar(36)"`
	Item       *Item

	Purpose  string
	Status   models.RequestStatus   `gorm:"type:varchar(20);index"`
	Priority models.RequestPriority `gorm:"type:varchar(10);index"`
	Payload  RequestPayload         `gorm:"type:jsonb"`

	RejectionReason string
	DecisionNotes   string
	ProcessedBy     string `gorm:"type:varchar(36)"`
	Processor       *User  `gorm:"foreignKey:ProcessedBy"`
	ProcessedAt     *time.Time

	// Dual approval, relocation kind only.
	FromBarangayID       string `gorm:"type:varchar(36)"`
	ToBarangayID         string `gorm:"type:varchar(36)"`
	FromBarangayApproved bool
	FromApprovedBy       string `gorm:"type:varchar(36)"`
	FromApprovedAt       *time.Time
	ToBarangayApproved   bool
	ToApprovedBy         string `gorm:"type:varchar(36)"`
	ToApprovedAt         *time.Time

	// Document artifact.
	ArtifactURL      string `gorm:"type:varchar(500)"`
	VerificationCode string `gorm:"type:varchar(64);index"`
	ExpiresAt        *time.Time
	Expired          bool

	DeliveryMethod  models.DeliveryMethod `gorm:"type:varchar(20)"`
	DeliveryAddress string
	DeliveryNotes   string

	Attachments []EvidenceAttachment `gorm:"foreignKey:RequestID"`
	Decisions   []DecisionLog        `gorm:"foreignKey:RequestID"`
}

func (r *RequestRecord) AfterDelete(tx *gorm.DB) (err error) {
	if r.ID == "" {
		return nil
	}
	tx.Clauses(clause.Returning{}).Where("request_id = ?", r.ID).Delete(&EvidenceAttachment{})
	return
}

// RequestPayload is the kind-specific part of a request, a tagged union with
// exactly one member set, persisted as jsonb.
type RequestPayload struct {
	Document   *DocumentPayload   `json:"document,omitempty"`
	Benefit    *BenefitPayload    `json:"benefit,omitempty"`
	ItemLoan   *ItemLoanPayload   `json:"item_loan,omitempty"`
	Sos        *SosPayload        `json:"sos,omitempty"`
	Relocation *RelocationPayload `json:"relocation,omitempty"`
}

type DocumentPayload struct {
	Quantity int `json:"quantity"`
}

type BenefitPayload struct {
	ApplicationData map[string]string `json:"application_data,omitempty"`
}

type ItemLoanPayload struct {
	LoanDays         int        `json:"loan_days"`
	StartDate        *time.Time `json:"start_date,omitempty"`
	EndDate          *time.Time `json:"end_date,omitempty"`
	RequesterMessage string     `json:"requester_message,omitempty"`
	OwnerMessage     string     `json:"owner_message,omitempty"`
}

type SosPayload struct {
	EmergencyType models.EmergencyType `json:"emergency_type"`
	Location      string               `json:"location,omitempty"`
	Latitude      *float64             `json:"latitude,omitempty"`
	Longitude     *float64             `json:"longitude,omitempty"`
	ContactPhone  string               `json:"contact_phone,omitempty"`
	ResponseNotes string               `json:"response_notes,omitempty"`
	RespondedAt   *time.Time           `json:"responded_at,omitempty"`
}

type RelocationPayload struct {
	NewAddress    string     `json:"new_address"`
	Reason        string     `json:"reason,omitempty"`
	FromNotes     string     `json:"from_notes,omitempty"`
	ToNotes       string     `json:"to_notes,omitempty"`
	TransferDate  *time.Time `json:"transfer_date,omitempty"`
	TransferNotes string     `json:"transfer_notes,omitempty"`
}

func (j RequestPayload) Value() (driver.Value, error) {
	valueString, err := json.Marshal(j)
	return string(valueString), err
}

func (j *RequestPayload) Scan(value any) error {
	if value == nil {
		return nil
	}
	if err := json.Unmarshal(value.([]byte), &j); err != nil {
		return err
	}
	return nil
}
