package lifecycle

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"barangay-services-backend/db"
	artifacthandler "barangay-services-backend/lib/artifact"
	itemstore "barangay-services-backend/lib/item/store"
	decisionstore "barangay-services-backend/lib/lifecycle/decision-store"
	"barangay-services-backend/lib/notification"
	requeststore "barangay-services-backend/lib/request/store"
	"barangay-services-backend/lib/utils/apperrors"
	"barangay-services-backend/lib/utils/lock"
	"barangay-services-backend/models"
	requestapimodels "barangay-services-backend/models/api/request"
	dbmodels "barangay-services-backend/models/db"
)

const lockWait = 5 * time.Second

// Provider is the lifecycle engine: it owns every status transition of a
// request record. Transitions are applied under per-record mutual exclusion
// with a status-guarded write, so a lost race surfaces as StaleStateError
// instead of a double decision.
type Provider interface {
	Decide(ctx context.Context, principal models.Principal, requestID string, data requestapimodels.DecisionData) (requestapimodels.RequestView, error)
	Complete(ctx context.Context, principal models.Principal, requestID string) (requestapimodels.RequestView, error)
	Cancel(ctx context.Context, principal models.Principal, requestID string) (requestapimodels.RequestView, error)
	// RetryArtifact re-runs certificate generation for a document request stuck
	// in processing after a dependency timeout. Idempotent per request.
	RetryArtifact(ctx context.Context, principal models.Principal, requestID string) (requestapimodels.RequestView, error)
}

var Instance Provider

func NewHandler() {
	Instance = &impl{
		store:         requeststore.NewInstance(db.DB),
		decisionStore: decisionstore.NewInstance(db.DB),
		storeFor:      func(tx *gorm.DB) requeststore.Provider { return requeststore.NewInstance(tx) },
		itemStoreFor:  func(tx *gorm.DB) itemstore.Provider { return itemstore.NewInstance(tx) },
		artifact:      artifacthandler.Instance,
		notifier:      notification.Instance,
		transact:      func(fn func(tx *gorm.DB) error) error { return db.DB.Transaction(fn) },
	}
}

type impl struct {
	store         requeststore.Provider
	decisionStore decisionstore.Provider
	storeFor      func(tx *gorm.DB) requeststore.Provider
	itemStoreFor  func(tx *gorm.DB) itemstore.Provider
	artifact      artifacthandler.Provider
	notifier      notification.Provider
	transact      func(fn func(tx *gorm.DB) error) error
}

func (i impl) getLogger(requestID string) *log.Entry {
	return log.WithField("request_id", requestID)
}

func (i impl) getRec(requestID string) (*dbmodels.RequestRecord, error) {
	rec, err := i.store.GetByID(requestID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, &apperrors.NotFoundError{Entity: "request", ID: requestID}
	}
	return rec, nil
}

func (i impl) Decide(ctx context.Context, principal models.Principal, requestID string, data requestapimodels.DecisionData) (view requestapimodels.RequestView, err error) {
	if err := data.Validate(); err != nil {
		return requestapimodels.RequestView{}, err
	}
	if !principal.IsStaff() {
		return requestapimodels.RequestView{}, &apperrors.ForbiddenError{Message: "only staff may decide requests"}
	}
	seen, err := i.getRec(requestID)
	if err != nil {
		return requestapimodels.RequestView{}, err
	}
	lastSeen := seen.Status
	ok, err := lock.WithDelay(ctx, lock.RequestKey(requestID), lockWait, func() error {
		view, err = i.decideLocked(ctx, principal, requestID, lastSeen, data)
		return err
	})
	if err != nil {
		return requestapimodels.RequestView{}, err
	}
	if !ok {
		return requestapimodels.RequestView{}, &apperrors.StaleStateError{Entity: "request", ID: requestID}
	}
	return view, nil
}

// decideLocked applies the decision under the record lock. lastSeen is the
// status the caller read before taking the lock: when it was still pending but
// the record has moved on, another decision won the race and the caller gets
// StaleStateError rather than an illegal-transition complaint.
func (i impl) decideLocked(ctx context.Context, principal models.Principal, requestID string, lastSeen models.RequestStatus, data requestapimodels.DecisionData) (requestapimodels.RequestView, error) {
	logger := i.getLogger(requestID).WithField("outcome", data.Outcome)
	rec, err := i.getRec(requestID)
	if err != nil {
		return requestapimodels.RequestView{}, err
	}
	if rec.Status != models.StatusPending {
		if lastSeen == models.StatusPending {
			return requestapimodels.RequestView{}, &apperrors.StaleStateError{Entity: "request", ID: requestID}
		}
		return requestapimodels.RequestView{}, &apperrors.IllegalTransitionError{
			Kind: rec.Kind, From: rec.Status, To: models.RequestStatus(data.Outcome),
		}
	}

	hook := hookFor(rec.Kind)
	if data.Outcome == models.OutcomeRejected {
		err = i.applyReject(principal, rec, data, hook)
	} else {
		err = hook.onApprove(ctx, i, principal, rec, data)
	}
	if err != nil {
		logger.WithError(err).Error("decision failed")
		return requestapimodels.RequestView{}, err
	}

	updated, err := i.getRec(requestID)
	if err != nil {
		return requestapimodels.RequestView{}, err
	}
	logger.WithField("new_status", updated.Status).Info("request decided")
	i.notifyDecision(updated)
	return requestapimodels.RequestConvert(*updated), nil
}

func (i impl) applyReject(principal models.Principal, rec *dbmodels.RequestRecord, data requestapimodels.DecisionData, hook kindHook) error {
	now := time.Now()
	updMap := map[string]interface{}{
		"status":           models.StatusRejected,
		"rejection_reason": data.Reason,
		"decision_notes":   data.Notes,
		"processed_by":     principal.UserID,
		"processed_at":     now,
	}
	if err := hook.onReject(principal, rec, updMap); err != nil {
		return err
	}
	updated, err := i.store.UpdateWhereStatus(rec.ID, models.StatusPending, updMap)
	if err != nil {
		return err
	}
	if !updated {
		return &apperrors.StaleStateError{Entity: "request", ID: rec.ID}
	}
	return i.appendDecision(rec.ID, principal.UserID, rec.Status, models.StatusRejected, data.Reason, data.Notes, "")
}

func (i impl) Complete(ctx context.Context, principal models.Principal, requestID string) (view requestapimodels.RequestView, err error) {
	if !principal.IsStaff() {
		return requestapimodels.RequestView{}, &apperrors.ForbiddenError{Message: "only staff may complete requests"}
	}
	ok, err := lock.WithDelay(ctx, lock.RequestKey(requestID), lockWait, func() error {
		view, err = i.completeLocked(principal, requestID)
		return err
	})
	if err != nil {
		return requestapimodels.RequestView{}, err
	}
	if !ok {
		return requestapimodels.RequestView{}, &apperrors.StaleStateError{Entity: "request", ID: requestID}
	}
	return view, nil
}

func (i impl) completeLocked(principal models.Principal, requestID string) (requestapimodels.RequestView, error) {
	rec, err := i.getRec(requestID)
	if err != nil {
		return requestapimodels.RequestView{}, err
	}
	if !rec.Status.IsAllowChange(models.StatusCompleted, rec.Kind) {
		return requestapimodels.RequestView{}, &apperrors.IllegalTransitionError{
			Kind: rec.Kind, From: rec.Status, To: models.StatusCompleted,
		}
	}

	fromStatus := rec.Status
	err = i.transact(func(tx *gorm.DB) error {
		store := i.storeFor(tx)
		updated, err := store.UpdateWhereStatus(requestID, fromStatus, map[string]interface{}{
			"status": models.StatusCompleted,
		})
		if err != nil {
			return err
		}
		if !updated {
			return &apperrors.StaleStateError{Entity: "request", ID: requestID}
		}
		return hookFor(rec.Kind).onComplete(tx, i, rec)
	})
	if err != nil {
		return requestapimodels.RequestView{}, err
	}
	err = i.appendDecision(requestID, principal.UserID, fromStatus, models.StatusCompleted, "", "", "")
	if err != nil {
		return requestapimodels.RequestView{}, err
	}
	i.getLogger(requestID).Info("request completed")
	i.notifier.Notify(rec.RequesterID, "Request completed",
		fmt.Sprintf("Your %v is completed.", rec.Kind.ToHuman()))
	return i.freshView(requestID)
}

func (i impl) Cancel(ctx context.Context, principal models.Principal, requestID string) (view requestapimodels.RequestView, err error) {
	ok, err := lock.WithDelay(ctx, lock.RequestKey(requestID), lockWait, func() error {
		view, err = i.cancelLocked(principal, requestID)
		return err
	})
	if err != nil {
		return requestapimodels.RequestView{}, err
	}
	if !ok {
		return requestapimodels.RequestView{}, &apperrors.StaleStateError{Entity: "request", ID: requestID}
	}
	return view, nil
}

func (i impl) cancelLocked(principal models.Principal, requestID string) (requestapimodels.RequestView, error) {
	rec, err := i.getRec(requestID)
	if err != nil {
		return requestapimodels.RequestView{}, err
	}
	if rec.RequesterID != principal.UserID {
		return requestapimodels.RequestView{}, &apperrors.ForbiddenError{Message: "only the requester may cancel a request"}
	}
	if rec.Status != models.StatusPending {
		return requestapimodels.RequestView{}, &apperrors.IllegalTransitionError{
			Kind: rec.Kind, From: rec.Status, To: models.StatusCancelled,
		}
	}
	updated, err := i.store.UpdateWhereStatus(requestID, models.StatusPending, map[string]interface{}{
		"status": models.StatusCancelled,
	})
	if err != nil {
		return requestapimodels.RequestView{}, err
	}
	if !updated {
		return requestapimodels.RequestView{}, &apperrors.StaleStateError{Entity: "request", ID: requestID}
	}
	err = i.appendDecision(requestID, principal.UserID, models.StatusPending, models.StatusCancelled, "cancelled by requester", "", "")
	if err != nil {
		return requestapimodels.RequestView{}, err
	}
	i.getLogger(requestID).Info("request cancelled by requester")
	return i.freshView(requestID)
}

func (i impl) RetryArtifact(ctx context.Context, principal models.Principal, requestID string) (view requestapimodels.RequestView, err error) {
	if !principal.IsStaff() {
		return requestapimodels.RequestView{}, &apperrors.ForbiddenError{Message: "only staff may retry generation"}
	}
	ok, err := lock.WithDelay(ctx, lock.RequestKey(requestID), lockWait, func() error {
		rec, recErr := i.getRec(requestID)
		if recErr != nil {
			err = recErr
			return recErr
		}
		if rec.Kind != models.KindDocument || rec.Status != models.StatusProcessing {
			return &apperrors.IllegalTransitionError{Kind: rec.Kind, From: rec.Status, To: models.StatusReady}
		}
		return i.generateAndRelease(ctx, rec)
	})
	if err != nil {
		return requestapimodels.RequestView{}, err
	}
	if !ok {
		return requestapimodels.RequestView{}, &apperrors.StaleStateError{Entity: "request", ID: requestID}
	}
	return i.freshView(requestID)
}

// generateAndRelease runs artifact generation for a processing document
// request and advances it to ready. On any failure the status is left at
// processing so the call can be retried.
func (i impl) generateAndRelease(ctx context.Context, rec *dbmodels.RequestRecord) error {
	result, err := i.artifact.Generate(ctx, *rec)
	if err != nil {
		return err
	}
	updMap := map[string]interface{}{
		"status":            models.StatusReady,
		"artifact_url":      result.ArtifactURL,
		"verification_code": result.VerificationCode,
	}
	if rec.Category != nil && rec.Category.ValidityDays > 0 {
		updMap["expires_at"] = time.Now().AddDate(0, 0, rec.Category.ValidityDays)
	}
	updated, err := i.store.UpdateWhereStatus(rec.ID, models.StatusProcessing, updMap)
	if err != nil {
		return err
	}
	if !updated {
		return &apperrors.StaleStateError{Entity: "request", ID: rec.ID}
	}
	err = i.appendDecision(rec.ID, models.SystemUser, models.StatusProcessing, models.StatusReady, "", "certificate generated", result.ArtifactURL)
	if err != nil {
		return err
	}
	i.notifier.Notify(rec.RequesterID, "Document ready",
		"Your requested document has been generated and is ready for release.")
	return nil
}

func (i impl) appendDecision(requestID, actorID string, from, to models.RequestStatus, reason, notes, artifactURL string) error {
	_, err := i.decisionStore.Append(dbmodels.DecisionLog{
		RequestID:   requestID,
		ActorID:     actorID,
		FromStatus:  from,
		ToStatus:    to,
		Reason:      reason,
		Notes:       notes,
		ArtifactURL: artifactURL,
		DecidedAt:   time.Now(),
	})
	return err
}

func (i impl) freshView(requestID string) (requestapimodels.RequestView, error) {
	rec, err := i.getRec(requestID)
	if err != nil {
		return requestapimodels.RequestView{}, err
	}
	return requestapimodels.RequestConvert(*rec), nil
}

func (i impl) notifyDecision(rec *dbmodels.RequestRecord) {
	switch rec.Status {
	// A record already at ready was announced by generateAndRelease.
	case models.StatusApproved, models.StatusProcessing:
		i.notifier.Notify(rec.RequesterID, "Request approved",
			fmt.Sprintf("Your %v has been approved.", rec.Kind.ToHuman()))
	case models.StatusRejected:
		i.notifier.Notify(rec.RequesterID, "Request rejected",
			fmt.Sprintf("Your %v was rejected: %v", rec.Kind.ToHuman(), rec.RejectionReason))
	}
}
