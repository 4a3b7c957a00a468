package category

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"barangay-services-backend/db"
	categorystore "barangay-services-backend/lib/category/store"
	evidencestore "barangay-services-backend/lib/evidence/store"
	filestorage "barangay-services-backend/lib/file-storage"
	"barangay-services-backend/lib/notification"
	requirementcatalog "barangay-services-backend/lib/requirement"
	requeststore "barangay-services-backend/lib/request/store"
	"barangay-services-backend/lib/utils/apperrors"
	"barangay-services-backend/models"
	categoryapimodels "barangay-services-backend/models/api/category"
	dbmodels "barangay-services-backend/models/db"
)

// Provider manages the category catalog, including the two-phase deletion:
// the first delete call reports the referencing requests, only an explicit
// force call cancels them and removes the category.
type Provider interface {
	Create(data categoryapimodels.CategoryData) (categoryapimodels.CategoryView, error)
	Update(categoryID string, data categoryapimodels.CategoryEditData) (categoryapimodels.CategoryView, error)
	GetByID(categoryID string) (categoryapimodels.CategoryView, error)
	List(kind models.RequestKind, activeOnly bool) ([]categoryapimodels.CategoryView, error)
	SetActive(categoryID string, active bool) (categoryapimodels.CategoryView, error)
	Delete(principal models.Principal, categoryID string, data categoryapimodels.DeleteData) (*categoryapimodels.DeleteConflict, error)
	BulkDelete(principal models.Principal, data categoryapimodels.BulkDeleteData) ([]categoryapimodels.BulkDeleteResult, error)
}

var Instance Provider

func NewHandler() {
	Instance = &impl{
		store:       categorystore.NewInstance(db.DB),
		requests:    requeststore.NewInstance(db.DB),
		notifier:    notification.Instance,
		storage:     filestorage.Instance,
		storeFor:    func(tx *gorm.DB) categorystore.Provider { return categorystore.NewInstance(tx) },
		requestsFor: func(tx *gorm.DB) requeststore.Provider { return requeststore.NewInstance(tx) },
		evidenceFor: func(tx *gorm.DB) evidencestore.Provider { return evidencestore.NewInstance(tx) },
		transact:    func(fn func(tx *gorm.DB) error) error { return db.DB.Transaction(fn) },
	}
}

type impl struct {
	store       categorystore.Provider
	requests    requeststore.Provider
	notifier    notification.Provider
	storage     filestorage.Provider
	storeFor    func(tx *gorm.DB) categorystore.Provider
	requestsFor func(tx *gorm.DB) requeststore.Provider
	evidenceFor func(tx *gorm.DB) evidencestore.Provider
	transact    func(fn func(tx *gorm.DB) error) error
}

func (i impl) Create(data categoryapimodels.CategoryData) (categoryapimodels.CategoryView, error) {
	if err := data.Validate(); err != nil {
		return categoryapimodels.CategoryView{}, err
	}
	rec := buildRecord(data)
	rec.Active = true
	id, err := i.store.Create(rec)
	if err != nil {
		return categoryapimodels.CategoryView{}, err
	}
	log.WithField("category_id", id).WithField("name", data.Name).Info("category created")
	return i.GetByID(id)
}

func (i impl) Update(categoryID string, data categoryapimodels.CategoryEditData) (categoryapimodels.CategoryView, error) {
	if err := data.Validate(); err != nil {
		return categoryapimodels.CategoryView{}, err
	}
	rec, err := i.store.GetByID(categoryID)
	if err != nil {
		return categoryapimodels.CategoryView{}, err
	}
	if rec == nil {
		return categoryapimodels.CategoryView{}, &apperrors.NotFoundError{Entity: "category", ID: categoryID}
	}
	if rec.Kind != data.Kind {
		return categoryapimodels.CategoryView{}, apperrors.NewValidationError("category kind cannot change")
	}

	newRequirements := requirementcatalog.Serialize(data.Requirements)
	if newRequirements != rec.Requirements && !data.MigrateRequirements {
		pending, err := i.pendingCount(categoryID)
		if err != nil {
			return categoryapimodels.CategoryView{}, err
		}
		if pending > 0 {
			return categoryapimodels.CategoryView{}, &apperrors.ConflictError{
				Message: "requirement changes affect requests still in review, repeat with migrate_requirements",
				Counts:  apperrors.StatusCounts{models.StatusPending: pending},
			}
		}
	}

	updMap := map[string]interface{}{
		"name":             data.Name,
		"description":      data.Description,
		"requirements":     newRequirements,
		"fee":              data.Fee,
		"processing_days":  data.ProcessingDays,
		"validity_days":    data.ValidityDays,
		"max_recipients":   data.MaxRecipients,
		"auto_expire":      data.AutoExpire,
		"contact_person":   data.ContactPerson,
		"contact_number":   data.ContactNumber,
		"contact_email":    data.ContactEmail,
		"eligibility_note": data.EligibilityNote,
	}
	if err := i.store.Update(categoryID, updMap); err != nil {
		return categoryapimodels.CategoryView{}, err
	}
	return i.GetByID(categoryID)
}

func (i impl) GetByID(categoryID string) (categoryapimodels.CategoryView, error) {
	rec, err := i.store.GetByID(categoryID)
	if err != nil {
		return categoryapimodels.CategoryView{}, err
	}
	if rec == nil {
		return categoryapimodels.CategoryView{}, &apperrors.NotFoundError{Entity: "category", ID: categoryID}
	}
	return categoryapimodels.CategoryConvert(*rec, requirementcatalog.Parse(rec.Requirements)), nil
}

func (i impl) List(kind models.RequestKind, activeOnly bool) ([]categoryapimodels.CategoryView, error) {
	list, err := i.store.List(kind, activeOnly)
	if err != nil {
		return nil, err
	}
	views := []categoryapimodels.CategoryView{}
	for _, rec := range list {
		views = append(views, categoryapimodels.CategoryConvert(rec, requirementcatalog.Parse(rec.Requirements)))
	}
	return views, nil
}

// SetActive toggles intake without touching existing requests. A deactivated
// category refuses new submissions but stays resolvable for history.
func (i impl) SetActive(categoryID string, active bool) (categoryapimodels.CategoryView, error) {
	rec, err := i.store.GetByID(categoryID)
	if err != nil {
		return categoryapimodels.CategoryView{}, err
	}
	if rec == nil {
		return categoryapimodels.CategoryView{}, &apperrors.NotFoundError{Entity: "category", ID: categoryID}
	}
	if err := i.store.Update(categoryID, map[string]interface{}{"active": active}); err != nil {
		return categoryapimodels.CategoryView{}, err
	}
	log.WithField("category_id", categoryID).WithField("active", active).Info("category intake toggled")
	return i.GetByID(categoryID)
}

// Delete is the two-phase removal. Without force it only reports the
// referencing requests broken down by status. With force it cancels every
// still-open request under a system-attributed reason and removes the
// category in the same transaction.
func (i impl) Delete(principal models.Principal, categoryID string, data categoryapimodels.DeleteData) (*categoryapimodels.DeleteConflict, error) {
	rec, err := i.store.GetByID(categoryID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, &apperrors.NotFoundError{Entity: "category", ID: categoryID}
	}

	counts, err := i.requests.CountByCategoryAndStatus(categoryID)
	if err != nil {
		return nil, err
	}
	blocking := openCounts(counts)

	if blocking.Total() == 0 {
		if err := i.store.Delete(categoryID); err != nil {
			return nil, err
		}
		log.WithField("category_id", categoryID).Info("category deleted")
		return nil, nil
	}

	if !data.Force {
		return buildConflict(blocking), nil
	}

	cancelled, blobKeys, err := i.forceDelete(principal, categoryID, data.Reason)
	if err != nil {
		return nil, err
	}
	i.purgeBlobs(categoryID, blobKeys)
	for _, rec := range cancelled {
		i.notifier.Notify(rec.RequesterID, "Request cancelled",
			fmt.Sprintf("Your %v was cancelled because the service category was removed.", rec.Kind.ToHuman()))
	}
	log.WithField("category_id", categoryID).
		WithField("cancelled_requests", len(cancelled)).
		Warn("category force deleted")
	return nil, nil
}

func (i impl) forceDelete(principal models.Principal, categoryID string, reason string) (cancelled []dbmodels.RequestRecord, blobKeys []string, err error) {
	systemReason := "Category deleted"
	if reason != "" {
		systemReason = "Category deleted: " + reason
	}
	err = i.transact(func(tx *gorm.DB) error {
		requests := i.requestsFor(tx)
		evidence := i.evidenceFor(tx)
		list, err := requests.ListByCategory(categoryID)
		if err != nil {
			return err
		}
		for _, rec := range list {
			if rec.Status.IsTerminal() {
				continue
			}
			updated, err := requests.UpdateWhereStatus(rec.ID, rec.Status, map[string]interface{}{
				"status":           models.StatusCancelled,
				"rejection_reason": systemReason,
				"processed_by":     models.SystemUser,
			})
			if err != nil {
				return err
			}
			if !updated {
				return &apperrors.StaleStateError{Entity: "request", ID: rec.ID}
			}
			attachments, err := evidence.ListByRequest(rec.ID)
			if err != nil {
				return err
			}
			for _, att := range attachments {
				blobKeys = append(blobKeys, filestorage.AttachmentKey(att.StoredName))
			}
			if err := evidence.DeleteByRequest(rec.ID); err != nil {
				return err
			}
			cancelled = append(cancelled, rec)
		}
		return i.storeFor(tx).Delete(categoryID)
	})
	if err != nil {
		return nil, nil, err
	}
	return cancelled, blobKeys, nil
}

// purgeBlobs removes evidence files after the cascade committed. A failed
// delete leaves an orphan blob, logged for a manual sweep.
func (i impl) purgeBlobs(categoryID string, keys []string) {
	ctx := context.Background()
	for _, key := range keys {
		if err := i.storage.Delete(ctx, key); err != nil {
			log.WithError(err).
				WithField("category_id", categoryID).
				WithField("key", key).
				Error("evidence blob purge failed")
		}
	}
}

// BulkDelete runs the deletion per category and never aborts the batch: each
// entry of the ledger reports its own outcome.
func (i impl) BulkDelete(principal models.Principal, data categoryapimodels.BulkDeleteData) ([]categoryapimodels.BulkDeleteResult, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}
	results := []categoryapimodels.BulkDeleteResult{}
	for _, id := range data.IDs {
		conflict, err := i.Delete(principal, id, categoryapimodels.DeleteData{Reason: data.Reason, Force: data.Force})
		entry := categoryapimodels.BulkDeleteResult{ID: id}
		switch {
		case err != nil:
			entry.Message = err.Error()
		case conflict != nil:
			entry.Conflict = conflict
			entry.Message = conflict.Message
		default:
			entry.Deleted = true
		}
		results = append(results, entry)
	}
	return results, nil
}

func (i impl) pendingCount(categoryID string) (int64, error) {
	counts, err := i.requests.CountByCategoryAndStatus(categoryID)
	if err != nil {
		return 0, err
	}
	return counts[models.StatusPending], nil
}

func buildRecord(data categoryapimodels.CategoryData) dbmodels.RequestCategory {
	return dbmodels.RequestCategory{
		Kind:            data.Kind,
		Name:            data.Name,
		Description:     data.Description,
		Requirements:    requirementcatalog.Serialize(data.Requirements),
		Fee:             data.Fee,
		ProcessingDays:  data.ProcessingDays,
		ValidityDays:    data.ValidityDays,
		MaxRecipients:   data.MaxRecipients,
		AutoExpire:      data.AutoExpire,
		ContactPerson:   data.ContactPerson,
		ContactNumber:   data.ContactNumber,
		ContactEmail:    data.ContactEmail,
		EligibilityNote: data.EligibilityNote,
	}
}

func openCounts(counts map[models.RequestStatus]int64) apperrors.StatusCounts {
	open := apperrors.StatusCounts{}
	for status, n := range counts {
		if !status.IsTerminal() {
			open[status] = n
		}
	}
	return open
}

func buildConflict(blocking apperrors.StatusCounts) *categoryapimodels.DeleteConflict {
	byStatus := map[string]int64{}
	for status, n := range blocking {
		byStatus[string(status)] = n
	}
	return &categoryapimodels.DeleteConflict{
		Message:        "requests still reference this category",
		TotalRequests:  blocking.Total(),
		CountsByStatus: byStatus,
		ForceAvailable: true,
	}
}
