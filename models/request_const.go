package models

import "github.com/pkg/errors"

type RequestKind string

const (
	KindDocument   RequestKind = "document"
	KindBenefit    RequestKind = "benefit"
	KindItemLoan   RequestKind = "item_loan"
	KindSos        RequestKind = "sos"
	KindRelocation RequestKind = "relocation"
)

var kindHumanName = map[RequestKind]string{
	KindDocument:   "Document request",
	KindBenefit:    "Benefit application",
	KindItemLoan:   "Item loan request",
	KindSos:        "SOS alert",
	KindRelocation: "Relocation transfer",
}

func (k RequestKind) ToHuman() string {
	if human, exist := kindHumanName[k]; exist {
		return human
	}
	return string(k)
}

func (k RequestKind) Validate() error {
	switch k {
	case KindDocument, KindBenefit, KindItemLoan, KindSos, KindRelocation:
		return nil
	}
	return errors.Errorf("unknown request kind: %v", k)
}

// RequiresCategory reports whether submissions of this kind must reference a category.
func (k RequestKind) RequiresCategory() bool {
	return k == KindDocument || k == KindBenefit
}

// HasFulfillmentStages reports whether the kind passes through processing/ready
// between approval and completion.
func (k RequestKind) HasFulfillmentStages() bool {
	return k == KindDocument || k == KindBenefit
}

type RequestStatus string

const (
	StatusPending    RequestStatus = "pending"
	StatusApproved   RequestStatus = "approved"
	StatusRejected   RequestStatus = "rejected"
	StatusProcessing RequestStatus = "processing"
	StatusReady      RequestStatus = "ready"
	StatusCompleted  RequestStatus = "completed"
	StatusCancelled  RequestStatus = "cancelled"
)

var statusHumanName = map[RequestStatus]string{
	StatusPending:    "Pending review",
	StatusApproved:   "Approved",
	StatusRejected:   "Rejected",
	StatusProcessing: "Processing",
	StatusReady:      "Ready for release",
	StatusCompleted:  "Completed",
	StatusCancelled:  "Cancelled",
}

func (s RequestStatus) ToHuman() string {
	if human, exist := statusHumanName[s]; exist {
		return human
	}
	return string(s)
}

func (s RequestStatus) IsTerminal() bool {
	return s == StatusRejected || s == StatusCompleted || s == StatusCancelled
}

// IsAllowChange validates a single transition of the shared lifecycle for the
// given kind. Document/benefit requests pass through processing/ready on the
// way to completed, the remaining kinds complete straight from approved.
func (s RequestStatus) IsAllowChange(to RequestStatus, kind RequestKind) bool {
	switch s {
	case StatusPending:
		return to == StatusApproved || to == StatusRejected || to == StatusCancelled
	case StatusApproved:
		if kind.HasFulfillmentStages() {
			return to == StatusProcessing || to == StatusCompleted
		}
		return to == StatusCompleted
	case StatusProcessing:
		return kind.HasFulfillmentStages() && to == StatusReady
	case StatusReady:
		return kind.HasFulfillmentStages() && to == StatusCompleted
	}
	return false
}

type RequestPriority string

const (
	PriorityUrgent RequestPriority = "urgent"
	PriorityHigh   RequestPriority = "high"
	PriorityMedium RequestPriority = "medium"
	PriorityLow    RequestPriority = "low"
)

func (p RequestPriority) Validate() error {
	switch p {
	case PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow:
		return nil
	}
	return errors.Errorf("unknown priority: %v", p)
}

// Rank orders priorities for the review queue, lower ranks first.
func (p RequestPriority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 0
	case PriorityHigh:
		return 1
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 3
	}
	return 4
}

// DefaultPriority derives the submission priority when the caller assigns none.
func (k RequestKind) DefaultPriority() RequestPriority {
	switch k {
	case KindSos:
		return PriorityUrgent
	case KindRelocation:
		return PriorityHigh
	}
	return PriorityMedium
}

type DecisionOutcome string

const (
	OutcomeApproved DecisionOutcome = "approved"
	OutcomeRejected DecisionOutcome = "rejected"
)

func (o DecisionOutcome) Validate() error {
	if o != OutcomeApproved && o != OutcomeRejected {
		return errors.Errorf("unknown decision outcome: %v", o)
	}
	return nil
}

type DeliveryMethod string

const (
	DeliveryPickup DeliveryMethod = "pickup"
	DeliveryEmail  DeliveryMethod = "email"
	DeliveryMail   DeliveryMethod = "mail"
)

func (d DeliveryMethod) Validate() error {
	switch d {
	case DeliveryPickup, DeliveryEmail, DeliveryMail:
		return nil
	}
	return errors.Errorf("unknown delivery method: %v", d)
}

type EmergencyType string

const (
	EmergencyMedical  EmergencyType = "medical"
	EmergencyFire     EmergencyType = "fire"
	EmergencySecurity EmergencyType = "security"
	EmergencyDisaster EmergencyType = "natural_disaster"
	EmergencyOther    EmergencyType = "other"
)

func (e EmergencyType) Validate() error {
	switch e {
	case EmergencyMedical, EmergencyFire, EmergencySecurity, EmergencyDisaster, EmergencyOther:
		return nil
	}
	return errors.Errorf("unknown emergency type: %v", e)
}

// SupportingDocCategory is the ad-hoc evidence slot for files attached by staff
// during processing, outside the category's required list.
const SupportingDocCategory = "Supporting Document"
