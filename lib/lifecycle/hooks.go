package lifecycle

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"barangay-services-backend/lib/utils/apperrors"
	"barangay-services-backend/models"
	requestapimodels "barangay-services-backend/models/api/request"
	dbmodels "barangay-services-backend/models/db"
)

// kindHook carries the side effects a request kind attaches to lifecycle
// transitions. The engine stays kind-agnostic: it checks legality and applies
// the guarded write, the hook decides what else has to happen.
type kindHook interface {
	onApprove(ctx context.Context, i impl, principal models.Principal, rec *dbmodels.RequestRecord, data requestapimodels.DecisionData) error
	onReject(principal models.Principal, rec *dbmodels.RequestRecord, updMap map[string]interface{}) error
	onComplete(tx *gorm.DB, i impl, rec *dbmodels.RequestRecord) error
}

func hookFor(kind models.RequestKind) kindHook {
	switch kind {
	case models.KindDocument:
		return documentHook{}
	case models.KindItemLoan:
		return itemLoanHook{}
	case models.KindSos:
		return sosHook{}
	case models.KindRelocation:
		return relocationHook{}
	default:
		return baseHook{}
	}
}

// baseHook covers kinds with no extra machinery: approval simply moves the
// record to approved.
type baseHook struct{}

func (baseHook) onApprove(_ context.Context, i impl, principal models.Principal, rec *dbmodels.RequestRecord, data requestapimodels.DecisionData) error {
	return approveTo(i, principal, rec, data, models.StatusApproved, nil)
}

func (baseHook) onReject(models.Principal, *dbmodels.RequestRecord, map[string]interface{}) error {
	return nil
}

func (baseHook) onComplete(*gorm.DB, impl, *dbmodels.RequestRecord) error { return nil }

// approveTo applies the shared approval write: guarded status flip plus the
// decision audit row.
func approveTo(i impl, principal models.Principal, rec *dbmodels.RequestRecord, data requestapimodels.DecisionData, target models.RequestStatus, extra map[string]interface{}) error {
	updated, err := i.store.UpdateWhereStatus(rec.ID, models.StatusPending, mergeApproval(principal, data, target, extra))
	if err != nil {
		return err
	}
	if !updated {
		return &apperrors.StaleStateError{Entity: "request", ID: rec.ID}
	}
	return i.appendDecision(rec.ID, principal.UserID, models.StatusPending, target, "", data.Notes, "")
}

// documentHook moves an approved document request straight into processing and
// kicks off certificate generation. A generation failure leaves the record at
// processing for a later retry.
type documentHook struct{}

func (documentHook) onApprove(ctx context.Context, i impl, principal models.Principal, rec *dbmodels.RequestRecord, data requestapimodels.DecisionData) error {
	if err := approveTo(i, principal, rec, data, models.StatusProcessing, nil); err != nil {
		return err
	}
	if err := i.generateAndRelease(ctx, rec); err != nil {
		i.getLogger(rec.ID).WithError(err).Warn("certificate generation deferred")
	}
	return nil
}

func (documentHook) onReject(models.Principal, *dbmodels.RequestRecord, map[string]interface{}) error {
	return nil
}

func (documentHook) onComplete(*gorm.DB, impl, *dbmodels.RequestRecord) error { return nil }

// itemLoanHook reserves the item when the loan is approved and releases it
// when the loan completes. The availability flip is a guarded update, so two
// overlapping approvals for the same item cannot both win.
type itemLoanHook struct{}

func (itemLoanHook) onApprove(_ context.Context, i impl, principal models.Principal, rec *dbmodels.RequestRecord, data requestapimodels.DecisionData) error {
	if rec.ItemID == "" {
		return errors.New("item loan request has no item")
	}
	return i.transact(func(tx *gorm.DB) error {
		reserved, err := i.itemStoreFor(tx).SetAvailability(rec.ItemID, true, false)
		if err != nil {
			return err
		}
		if !reserved {
			return &apperrors.ConflictError{Message: "item is no longer available"}
		}
		extra := map[string]interface{}{}
		if rec.Payload.ItemLoan != nil && rec.Payload.ItemLoan.LoanDays > 0 {
			payload := rec.Payload
			start := time.Now()
			if payload.ItemLoan.StartDate != nil {
				start = *payload.ItemLoan.StartDate
			}
			end := start.AddDate(0, 0, payload.ItemLoan.LoanDays)
			payload.ItemLoan.StartDate = &start
			payload.ItemLoan.EndDate = &end
			extra["payload"] = payload
		}
		updated, err := i.storeFor(tx).UpdateWhereStatus(rec.ID, models.StatusPending, mergeApproval(principal, data, models.StatusApproved, extra))
		if err != nil {
			return err
		}
		if !updated {
			return &apperrors.StaleStateError{Entity: "request", ID: rec.ID}
		}
		return i.appendDecision(rec.ID, principal.UserID, models.StatusPending, models.StatusApproved, "", data.Notes, "")
	})
}

func (itemLoanHook) onReject(models.Principal, *dbmodels.RequestRecord, map[string]interface{}) error {
	return nil
}

func (itemLoanHook) onComplete(tx *gorm.DB, i impl, rec *dbmodels.RequestRecord) error {
	if rec.ItemID == "" {
		return nil
	}
	released, err := i.itemStoreFor(tx).SetAvailability(rec.ItemID, false, true)
	if err != nil {
		return err
	}
	if !released {
		i.getLogger(rec.ID).WithField("item_id", rec.ItemID).Warn("loaned item was already marked available")
	}
	return nil
}

func mergeApproval(principal models.Principal, data requestapimodels.DecisionData, target models.RequestStatus, extra map[string]interface{}) map[string]interface{} {
	updMap := map[string]interface{}{
		"status":         target,
		"decision_notes": data.Notes,
		"processed_by":   principal.UserID,
		"processed_at":   time.Now(),
	}
	for k, v := range extra {
		updMap[k] = v
	}
	return updMap
}

// sosHook stamps the response moment into the payload so responders can see
// how long the emergency waited.
type sosHook struct{}

func (sosHook) onApprove(_ context.Context, i impl, principal models.Principal, rec *dbmodels.RequestRecord, data requestapimodels.DecisionData) error {
	payload := rec.Payload
	if payload.Sos != nil {
		now := time.Now()
		payload.Sos.RespondedAt = &now
		payload.Sos.ResponseNotes = data.Notes
	}
	return approveTo(i, principal, rec, data, models.StatusApproved, map[string]interface{}{"payload": payload})
}

func (sosHook) onReject(models.Principal, *dbmodels.RequestRecord, map[string]interface{}) error {
	return nil
}

func (sosHook) onComplete(*gorm.DB, impl, *dbmodels.RequestRecord) error { return nil }

// relocationHook implements the dual approval: origin and destination staff
// each set their own flag, the record only leaves pending once both halves
// agree or either side rejects.
type relocationHook struct{}

func (relocationHook) onApprove(_ context.Context, i impl, principal models.Principal, rec *dbmodels.RequestRecord, data requestapimodels.DecisionData) error {
	side, err := relocationSide(principal, rec)
	if err != nil {
		return err
	}

	now := time.Now()
	updMap := map[string]interface{}{}
	bothApproved := false
	switch side {
	case "from":
		if rec.FromBarangayApproved {
			return &apperrors.ConflictError{Message: "origin barangay already approved this relocation"}
		}
		updMap["from_barangay_approved"] = true
		updMap["from_approved_by"] = principal.UserID
		updMap["from_approved_at"] = now
		bothApproved = rec.ToBarangayApproved
	case "to":
		if rec.ToBarangayApproved {
			return &apperrors.ConflictError{Message: "destination barangay already approved this relocation"}
		}
		updMap["to_barangay_approved"] = true
		updMap["to_approved_by"] = principal.UserID
		updMap["to_approved_at"] = now
		bothApproved = rec.FromBarangayApproved
	}

	target := models.StatusPending
	if bothApproved {
		target = models.StatusApproved
		updMap["status"] = models.StatusApproved
		updMap["processed_by"] = principal.UserID
		updMap["processed_at"] = now
	}
	if data.Notes != "" {
		payload := rec.Payload
		if payload.Relocation != nil {
			if side == "from" {
				payload.Relocation.FromNotes = data.Notes
			} else {
				payload.Relocation.ToNotes = data.Notes
			}
			updMap["payload"] = payload
		}
	}

	updated, err := i.store.UpdateWhereStatus(rec.ID, models.StatusPending, updMap)
	if err != nil {
		return err
	}
	if !updated {
		return &apperrors.StaleStateError{Entity: "request", ID: rec.ID}
	}
	return i.appendDecision(rec.ID, principal.UserID, models.StatusPending, target,
		"", side+" barangay approved", "")
}

func (relocationHook) onReject(principal models.Principal, rec *dbmodels.RequestRecord, updMap map[string]interface{}) error {
	// A single rejecting side sinks the whole relocation, no second opinion.
	side, err := relocationSide(principal, rec)
	if err != nil {
		return err
	}
	if side == "from" {
		updMap["from_barangay_approved"] = false
	} else {
		updMap["to_barangay_approved"] = false
	}
	return nil
}

func (relocationHook) onComplete(*gorm.DB, impl, *dbmodels.RequestRecord) error { return nil }

func relocationSide(principal models.Principal, rec *dbmodels.RequestRecord) (string, error) {
	switch principal.BarangayID {
	case rec.FromBarangayID:
		return "from", nil
	case rec.ToBarangayID:
		return "to", nil
	default:
		return "", &apperrors.ForbiddenError{Message: "staff barangay is not a party to this relocation"}
	}
}
