package requestapimodels

import (
	"fmt"
	"time"

	"barangay-services-backend/lib/utils/apperrors"
	"barangay-services-backend/models"
	apimodels "barangay-services-backend/models/api"
	evidenceapimodels "barangay-services-backend/models/api/evidence"
	dbmodels "barangay-services-backend/models/db"
)

type DocumentData struct {
	Quantity int `json:"quantity"`
}

type BenefitData struct {
	ApplicationData map[string]string `json:"application_data"`
}

type ItemLoanData struct {
	ItemID    string `json:"item_id"`
	LoanDays  int    `json:"loan_days"`
	StartDate string `json:"start_date"` // YYYY-MM-DD, optional
	Message   string `json:"message"`
}

type SosData struct {
	EmergencyType models.EmergencyType `json:"emergency_type"`
	Location      string               `json:"location"`
	Latitude      *float64             `json:"latitude"`
	Longitude     *float64             `json:"longitude"`
	ContactPhone  string               `json:"contact_phone"`
}

type RelocationData struct {
	FromBarangayID string `json:"from_barangay_id"`
	ToBarangayID   string `json:"to_barangay_id"`
	NewAddress     string `json:"new_address"`
	Reason         string `json:"reason"`
}

type SubmitData struct {
	Kind            models.RequestKind      `json:"kind"`
	CategoryID      string                  `json:"category_id"`      // required for document/benefit kinds
	Purpose         string                  `json:"purpose"`
	Priority        models.RequestPriority  `json:"priority"`         // optional, derived per kind when empty
	DeliveryMethod  models.DeliveryMethod   `json:"delivery_method"`  // document kind
	DeliveryAddress string                  `json:"delivery_address"`
	DeliveryNotes   string                  `json:"delivery_notes"`
	Evidence        []string                `json:"evidence"`         // staged upload ids
	Document        *DocumentData           `json:"document,omitempty"`
	Benefit         *BenefitData            `json:"benefit,omitempty"`
	ItemLoan        *ItemLoanData           `json:"item_loan,omitempty"`
	Sos             *SosData                `json:"sos,omitempty"`
	Relocation      *RelocationData         `json:"relocation,omitempty"`
}

func (s SubmitData) Validate() error {
	if err := s.Kind.Validate(); err != nil {
		return err
	}
	if s.Kind.RequiresCategory() && s.CategoryID == "" {
		return apperrors.NewValidationError(fmt.Sprintf("%v submissions require a category", s.Kind.ToHuman()))
	}
	if s.Priority != "" {
		if err := s.Priority.Validate(); err != nil {
			return err
		}
	}
	if s.DeliveryMethod != "" {
		if err := s.DeliveryMethod.Validate(); err != nil {
			return err
		}
	}
	switch s.Kind {
	case models.KindItemLoan:
		if s.ItemLoan == nil || s.ItemLoan.ItemID == "" {
			return apperrors.NewValidationError("item loan submissions require an item")
		}
		if s.ItemLoan.LoanDays <= 0 {
			return apperrors.NewValidationError("loan period must be at least one day")
		}
	case models.KindSos:
		if s.Sos == nil {
			return apperrors.NewValidationError("sos submissions require emergency details")
		}
		if err := s.Sos.EmergencyType.Validate(); err != nil {
			return err
		}
	case models.KindRelocation:
		if s.Relocation == nil {
			return apperrors.NewValidationError("relocation submissions require transfer details")
		}
		if s.Relocation.FromBarangayID == "" || s.Relocation.ToBarangayID == "" {
			return apperrors.NewValidationError("relocation submissions require origin and destination barangays")
		}
		if s.Relocation.FromBarangayID == s.Relocation.ToBarangayID {
			return apperrors.NewValidationError("origin and destination barangays must differ")
		}
		if s.Relocation.NewAddress == "" {
			return apperrors.NewValidationError("relocation submissions require the new address")
		}
	}
	return nil
}

type DecisionData struct {
	Outcome models.DecisionOutcome `json:"outcome"`
	Reason  string                 `json:"reason"` // required when outcome = rejected
	Notes   string                 `json:"notes"`
}

func (d DecisionData) Validate() error {
	if err := d.Outcome.Validate(); err != nil {
		return err
	}
	if d.Outcome == models.OutcomeRejected && d.Reason == "" {
		return apperrors.NewValidationError("a rejection requires a reason")
	}
	return nil
}

type RequestFilter struct {
	apimodels.Pagination
	Kind     models.RequestKind     `json:"kind"`
	Status   models.RequestStatus   `json:"status"`
	Priority models.RequestPriority `json:"priority"`
	Query    string                 `json:"query"` // matches requester name and purpose
}

type RequestView struct {
	ID               string                 `json:"id"`
	Kind             models.RequestKind     `json:"kind"`
	KindName         string                 `json:"kind_name"`
	Status           models.RequestStatus   `json:"status"`
	StatusName       string                 `json:"status_name"`
	Priority         models.RequestPriority `json:"priority"`
	CategoryID       string                 `json:"category_id,omitempty"`
	CategoryName     string                 `json:"category_name,omitempty"`
	RequesterID      string                 `json:"requester_id"`
	RequesterName    string                 `json:"requester_name,omitempty"`
	Purpose          string                 `json:"purpose,omitempty"`
	CreatedAt        time.Time              `json:"created_at"`
	ProcessedAt      *time.Time             `json:"processed_at,omitempty"`
	DecisionNotes    string                 `json:"decision_notes,omitempty"`
	RejectionReason  string                 `json:"rejection_reason,omitempty"`
	DeliveryMethod   models.DeliveryMethod  `json:"delivery_method,omitempty"`
	DeliveryAddress  string                 `json:"delivery_address,omitempty"`
	ArtifactURL      string                 `json:"artifact_url,omitempty"`
	VerificationCode string                 `json:"verification_code,omitempty"`
	ExpiresAt        *time.Time             `json:"expires_at,omitempty"`
	Payload          dbmodels.RequestPayload `json:"payload"`

	FromBarangayApproved bool `json:"from_barangay_approved,omitempty"`
	ToBarangayApproved   bool `json:"to_barangay_approved,omitempty"`
}

func RequestConvert(rec dbmodels.RequestRecord) RequestView {
	result := RequestView{
		ID:                   rec.ID,
		Kind:                 rec.Kind,
		KindName:             rec.Kind.ToHuman(),
		Status:               rec.Status,
		StatusName:           rec.Status.ToHuman(),
		Priority:             rec.Priority,
		RequesterID:          rec.RequesterID,
		Purpose:              rec.Purpose,
		CreatedAt:            rec.CreatedAt,
		ProcessedAt:          rec.ProcessedAt,
		DecisionNotes:        rec.DecisionNotes,
		RejectionReason:      rec.RejectionReason,
		DeliveryMethod:       rec.DeliveryMethod,
		DeliveryAddress:      rec.DeliveryAddress,
		ArtifactURL:          rec.ArtifactURL,
		VerificationCode:     rec.VerificationCode,
		ExpiresAt:            rec.ExpiresAt,
		Payload:              rec.Payload,
		FromBarangayApproved: rec.FromBarangayApproved,
		ToBarangayApproved:   rec.ToBarangayApproved,
	}
	result.CategoryID = rec.CategoryID
	if rec.Category != nil {
		result.CategoryName = rec.Category.Name
	}
	if rec.Requester != nil {
		result.RequesterName = rec.Requester.GetFullName()
	}
	return result
}

// RequestDetailView resolves the evidence listing on top of the common view.
type RequestDetailView struct {
	RequestView
	EvidenceByCategory map[string][]evidenceapimodels.EvidenceView `json:"evidence_by_category"`
	MissingCategories  []string                                    `json:"missing_categories"`
	Decisions          []DecisionView                              `json:"decisions"`
}

type DecisionView struct {
	ActorID    string               `json:"actor_id"`
	ActorName  string               `json:"actor_name,omitempty"`
	FromStatus models.RequestStatus `json:"from_status"`
	ToStatus   models.RequestStatus `json:"to_status"`
	Reason     string               `json:"reason,omitempty"`
	Notes      string               `json:"notes,omitempty"`
	DecidedAt  time.Time            `json:"decided_at"`
}

func DecisionConvert(rec dbmodels.DecisionLog) DecisionView {
	result := DecisionView{
		ActorID:    rec.ActorID,
		FromStatus: rec.FromStatus,
		ToStatus:   rec.ToStatus,
		Reason:     rec.Reason,
		Notes:      rec.Notes,
		DecidedAt:  rec.DecidedAt,
	}
	if rec.Actor != nil {
		result.ActorName = rec.Actor.GetFullName()
	}
	return result
}

// VerificationView is the public answer of the certificate verification endpoint.
type VerificationView struct {
	Valid        bool       `json:"valid"`
	DocumentName string     `json:"document_name,omitempty"`
	HolderName   string     `json:"holder_name,omitempty"`
	Status       string     `json:"status,omitempty"`
	IssuedAt     *time.Time `json:"issued_at,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	Expired      bool       `json:"expired,omitempty"`
}
