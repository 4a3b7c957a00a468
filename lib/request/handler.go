package request

import (
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"barangay-services-backend/db"
	barangaystore "barangay-services-backend/lib/barangay/store"
	categorystore "barangay-services-backend/lib/category/store"
	evidencestore "barangay-services-backend/lib/evidence/store"
	filestorage "barangay-services-backend/lib/file-storage"
	itemstore "barangay-services-backend/lib/item/store"
	decisionstore "barangay-services-backend/lib/lifecycle/decision-store"
	requirementcatalog "barangay-services-backend/lib/requirement"
	requeststore "barangay-services-backend/lib/request/store"
	"barangay-services-backend/lib/utils/apperrors"
	"barangay-services-backend/models"
	evidenceapimodels "barangay-services-backend/models/api/evidence"
	requestapimodels "barangay-services-backend/models/api/request"
	dbmodels "barangay-services-backend/models/db"
)

const startDateLayout = "2006-01-02"

// Provider is the resident-facing intake surface: submissions, own-request
// listings and the detail projection. Evidence completeness is checked before
// anything is written, a rejected submission leaves no record behind.
type Provider interface {
	Submit(principal models.Principal, data requestapimodels.SubmitData) (requestapimodels.RequestView, error)
	GetByID(principal models.Principal, requestID string) (requestapimodels.RequestDetailView, error)
	MyRequests(principal models.Principal) ([]requestapimodels.RequestView, error)
	Verify(code string) (requestapimodels.VerificationView, error)
}

var Instance Provider

func NewHandler() {
	Instance = &impl{
		store:         requeststore.NewInstance(db.DB),
		evidence:      evidencestore.NewInstance(db.DB),
		categories:    categorystore.NewInstance(db.DB),
		items:         itemstore.NewInstance(db.DB),
		barangays:     barangaystore.NewInstance(db.DB),
		decisionStore: decisionstore.NewInstance(db.DB),
		storage:       filestorage.Instance,
		storeFor:      func(tx *gorm.DB) requeststore.Provider { return requeststore.NewInstance(tx) },
		evidenceFor:   func(tx *gorm.DB) evidencestore.Provider { return evidencestore.NewInstance(tx) },
		transact:      func(fn func(tx *gorm.DB) error) error { return db.DB.Transaction(fn) },
	}
}

type impl struct {
	store         requeststore.Provider
	evidence      evidencestore.Provider
	categories    categorystore.Provider
	items         itemstore.Provider
	barangays     barangaystore.Provider
	decisionStore decisionstore.Provider
	storage       filestorage.Provider
	storeFor      func(tx *gorm.DB) requeststore.Provider
	evidenceFor   func(tx *gorm.DB) evidencestore.Provider
	transact      func(fn func(tx *gorm.DB) error) error
}

func (i impl) Submit(principal models.Principal, data requestapimodels.SubmitData) (requestapimodels.RequestView, error) {
	if err := data.Validate(); err != nil {
		return requestapimodels.RequestView{}, err
	}

	rec := dbmodels.RequestRecord{
		Kind:            data.Kind,
		BarangayID:      principal.BarangayID,
		RequesterID:     principal.UserID,
		Purpose:         data.Purpose,
		Status:          models.StatusPending,
		Priority:        data.Priority,
		DeliveryMethod:  data.DeliveryMethod,
		DeliveryAddress: data.DeliveryAddress,
		DeliveryNotes:   data.DeliveryNotes,
	}
	if rec.Priority == "" {
		rec.Priority = data.Kind.DefaultPriority()
	}

	if data.Kind.RequiresCategory() {
		category, err := i.categories.GetByID(data.CategoryID)
		if err != nil {
			return requestapimodels.RequestView{}, err
		}
		if category == nil || category.Kind != data.Kind {
			return requestapimodels.RequestView{}, &apperrors.NotFoundError{Entity: "category", ID: data.CategoryID}
		}
		if !category.Active {
			return requestapimodels.RequestView{}, apperrors.NewValidationError("category is not accepting submissions")
		}
		rec.CategoryID = category.ID
		if err := i.checkEvidence(principal, category, data.Evidence); err != nil {
			return requestapimodels.RequestView{}, err
		}
	}

	if err := i.fillPayload(&rec, data); err != nil {
		return requestapimodels.RequestView{}, err
	}

	err := i.transact(func(tx *gorm.DB) error {
		id, err := i.storeFor(tx).Create(rec)
		if err != nil {
			return err
		}
		rec.ID = id
		return i.evidenceFor(tx).Claim(data.Evidence, id)
	})
	if err != nil {
		return requestapimodels.RequestView{}, err
	}

	log.WithField("request_id", rec.ID).
		WithField("kind", rec.Kind).
		WithField("requester_id", rec.RequesterID).
		Info("request submitted")

	created, err := i.store.GetByID(rec.ID)
	if err != nil {
		return requestapimodels.RequestView{}, err
	}
	return requestapimodels.RequestConvert(*created), nil
}

// checkEvidence verifies the staged uploads cover every requirement of the
// category before a record exists. The uploads must belong to the submitting
// resident and must not already be claimed by another request.
func (i impl) checkEvidence(principal models.Principal, category *dbmodels.RequestCategory, uploadIDs []string) error {
	attachments, err := i.evidence.ListByIDs(uploadIDs)
	if err != nil {
		return err
	}
	if len(attachments) != len(uploadIDs) {
		return apperrors.NewValidationError("some evidence uploads were not found")
	}
	for _, attachment := range attachments {
		if attachment.UploaderID != principal.UserID {
			return apperrors.NewValidationError("evidence uploads must belong to the submitting resident")
		}
		if attachment.RequestID != "" {
			return apperrors.NewValidationError("evidence upload already belongs to another request")
		}
	}
	required := requirementcatalog.Parse(category.Requirements)
	missing := requirementcatalog.MissingCategories(required, attachments)
	if len(missing) > 0 {
		return apperrors.NewValidationError("required evidence is incomplete", missing...)
	}
	return nil
}

func (i impl) fillPayload(rec *dbmodels.RequestRecord, data requestapimodels.SubmitData) error {
	switch data.Kind {
	case models.KindDocument:
		quantity := 1
		if data.Document != nil && data.Document.Quantity > 0 {
			quantity = data.Document.Quantity
		}
		rec.Payload = dbmodels.RequestPayload{Document: &dbmodels.DocumentPayload{Quantity: quantity}}
		if rec.DeliveryMethod == "" {
			rec.DeliveryMethod = models.DeliveryPickup
		}

	case models.KindBenefit:
		payload := &dbmodels.BenefitPayload{}
		if data.Benefit != nil {
			payload.ApplicationData = data.Benefit.ApplicationData
		}
		rec.Payload = dbmodels.RequestPayload{Benefit: payload}

	case models.KindItemLoan:
		item, err := i.items.GetByID(data.ItemLoan.ItemID)
		if err != nil {
			return err
		}
		if item == nil {
			return &apperrors.NotFoundError{Entity: "item", ID: data.ItemLoan.ItemID}
		}
		if !item.Available {
			return &apperrors.ConflictError{Message: "item is not available for loan"}
		}
		if item.MaxLoanDays > 0 && data.ItemLoan.LoanDays > item.MaxLoanDays {
			return apperrors.NewValidationError("loan period exceeds the item limit")
		}
		rec.ItemID = item.ID
		payload := &dbmodels.ItemLoanPayload{
			LoanDays:         data.ItemLoan.LoanDays,
			RequesterMessage: data.ItemLoan.Message,
		}
		if data.ItemLoan.StartDate != "" {
			start, err := time.Parse(startDateLayout, data.ItemLoan.StartDate)
			if err != nil {
				return apperrors.NewValidationError("start date must look like 2006-01-02")
			}
			payload.StartDate = &start
		}
		rec.Payload = dbmodels.RequestPayload{ItemLoan: payload}

	case models.KindSos:
		rec.Payload = dbmodels.RequestPayload{Sos: &dbmodels.SosPayload{
			EmergencyType: data.Sos.EmergencyType,
			Location:      data.Sos.Location,
			Latitude:      data.Sos.Latitude,
			Longitude:     data.Sos.Longitude,
			ContactPhone:  data.Sos.ContactPhone,
		}}

	case models.KindRelocation:
		for _, barangayID := range []string{data.Relocation.FromBarangayID, data.Relocation.ToBarangayID} {
			barangay, err := i.barangays.GetByID(barangayID)
			if err != nil {
				return err
			}
			if barangay == nil {
				return &apperrors.NotFoundError{Entity: "barangay", ID: barangayID}
			}
		}
		rec.FromBarangayID = data.Relocation.FromBarangayID
		rec.ToBarangayID = data.Relocation.ToBarangayID
		rec.Payload = dbmodels.RequestPayload{Relocation: &dbmodels.RelocationPayload{
			NewAddress: data.Relocation.NewAddress,
			Reason:     data.Relocation.Reason,
		}}
	}
	return nil
}

func (i impl) GetByID(principal models.Principal, requestID string) (requestapimodels.RequestDetailView, error) {
	rec, err := i.store.GetByID(requestID)
	if err != nil {
		return requestapimodels.RequestDetailView{}, err
	}
	if rec == nil {
		return requestapimodels.RequestDetailView{}, &apperrors.NotFoundError{Entity: "request", ID: requestID}
	}
	if !principal.IsStaff() && rec.RequesterID != principal.UserID {
		return requestapimodels.RequestDetailView{}, &apperrors.NotFoundError{Entity: "request", ID: requestID}
	}
	return i.buildDetail(*rec)
}

func (i impl) buildDetail(rec dbmodels.RequestRecord) (requestapimodels.RequestDetailView, error) {
	attachments, err := i.evidence.ListByRequest(rec.ID)
	if err != nil {
		return requestapimodels.RequestDetailView{}, err
	}

	var required []string
	if rec.Category != nil {
		required = requirementcatalog.Parse(rec.Category.Requirements)
	}
	grouped := requirementcatalog.GroupByCategory(required, attachments)
	byCategory := map[string][]evidenceapimodels.EvidenceView{}
	for category, items := range grouped {
		views := []evidenceapimodels.EvidenceView{}
		for _, attachment := range items {
			views = append(views, evidenceapimodels.EvidenceConvert(attachment, i.storage.URL(filestorage.AttachmentKey(attachment.StoredName))))
		}
		byCategory[category] = views
	}

	decisions, err := i.decisionStore.ListByRequest(rec.ID)
	if err != nil {
		return requestapimodels.RequestDetailView{}, err
	}
	decisionViews := []requestapimodels.DecisionView{}
	for _, decision := range decisions {
		decisionViews = append(decisionViews, requestapimodels.DecisionConvert(decision))
	}

	return requestapimodels.RequestDetailView{
		RequestView:        requestapimodels.RequestConvert(rec),
		EvidenceByCategory: byCategory,
		MissingCategories:  requirementcatalog.MissingCategories(required, attachments),
		Decisions:          decisionViews,
	}, nil
}

func (i impl) MyRequests(principal models.Principal) ([]requestapimodels.RequestView, error) {
	list, err := i.store.ListByRequester(principal.UserID)
	if err != nil {
		return nil, err
	}
	views := []requestapimodels.RequestView{}
	for _, rec := range list {
		views = append(views, requestapimodels.RequestConvert(rec))
	}
	return views, nil
}

// Verify answers the public certificate check. An unknown code is reported as
// invalid instead of an error, the endpoint is anonymous.
func (i impl) Verify(code string) (requestapimodels.VerificationView, error) {
	rec, err := i.store.GetByVerificationCode(code)
	if err != nil {
		return requestapimodels.VerificationView{}, err
	}
	if rec == nil || rec.Kind != models.KindDocument {
		return requestapimodels.VerificationView{Valid: false}, nil
	}

	expired := rec.Expired || (rec.ExpiresAt != nil && rec.ExpiresAt.Before(time.Now()))
	view := requestapimodels.VerificationView{
		Valid:     !expired,
		Status:    rec.Status.ToHuman(),
		IssuedAt:  rec.ProcessedAt,
		ExpiresAt: rec.ExpiresAt,
		Expired:   expired,
	}
	if rec.Category != nil {
		view.DocumentName = rec.Category.Name
	}
	if rec.Requester != nil {
		view.HolderName = rec.Requester.GetFullName()
	}
	return view, nil
}
