package evidence

import (
	"context"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"barangay-services-backend/db"
	evidencestore "barangay-services-backend/lib/evidence/store"
	filestorage "barangay-services-backend/lib/file-storage"
	requeststore "barangay-services-backend/lib/request/store"
	"barangay-services-backend/lib/utils/apperrors"
	"barangay-services-backend/lib/utils/helpers"
	"barangay-services-backend/lib/utils/lock"
	"barangay-services-backend/models"
	evidenceapimodels "barangay-services-backend/models/api/evidence"
	dbmodels "barangay-services-backend/models/db"
)

const (
	maxUploadBytes = 10 << 20
	lockWait       = 5 * time.Second
)

// UploadData carries one uploaded file.
type UploadData struct {
	FileName     string
	ContentType  string
	CategoryName string
	Body         []byte
}

func (u UploadData) Validate() error {
	if u.FileName == "" {
		return apperrors.NewValidationError("upload needs a file name")
	}
	if len(u.Body) == 0 {
		return apperrors.NewValidationError("upload is empty")
	}
	if len(u.Body) > maxUploadBytes {
		return apperrors.NewValidationError("upload exceeds the 10 MB limit")
	}
	return nil
}

// Provider manages evidence files. Residents stage uploads before submitting,
// staff attach ad-hoc files to existing requests. The blob write happens
// before the row insert, a failed upload leaves nothing to clean up in the
// database.
type Provider interface {
	Stage(ctx context.Context, principal models.Principal, data UploadData) (evidenceapimodels.EvidenceView, error)
	AttachToRequest(ctx context.Context, principal models.Principal, requestID string, data UploadData) (evidenceapimodels.EvidenceView, error)
	ListByRequest(principal models.Principal, requestID string) ([]evidenceapimodels.EvidenceView, error)
	Delete(ctx context.Context, principal models.Principal, attachmentID string) error
}

var Instance Provider

func NewHandler() {
	Instance = &impl{
		store:    evidencestore.NewInstance(db.DB),
		requests: requeststore.NewInstance(db.DB),
		storage:  filestorage.Instance,
	}
}

type impl struct {
	store    evidencestore.Provider
	requests requeststore.Provider
	storage  filestorage.Provider
}

// Stage uploads a file without binding it to a request. The returned id is
// handed back in the submission payload, unclaimed uploads are swept by the
// janitor after a day.
func (i impl) Stage(ctx context.Context, principal models.Principal, data UploadData) (evidenceapimodels.EvidenceView, error) {
	if err := data.Validate(); err != nil {
		return evidenceapimodels.EvidenceView{}, err
	}
	if data.CategoryName == "" {
		data.CategoryName = models.SupportingDocCategory
	}

	rec, err := i.storeUpload(ctx, principal, "", data)
	if err != nil {
		return evidenceapimodels.EvidenceView{}, err
	}
	log.WithField("attachment_id", rec.ID).
		WithField("uploader_id", principal.UserID).
		Info("evidence staged")
	return evidenceapimodels.EvidenceConvert(rec, i.storage.URL(filestorage.AttachmentKey(rec.StoredName))), nil
}

// AttachToRequest adds a file to an existing request, serialized against
// decisions on the same record.
func (i impl) AttachToRequest(ctx context.Context, principal models.Principal, requestID string, data UploadData) (view evidenceapimodels.EvidenceView, err error) {
	if err := data.Validate(); err != nil {
		return evidenceapimodels.EvidenceView{}, err
	}
	if data.CategoryName == "" {
		data.CategoryName = models.SupportingDocCategory
	}

	ok, err := lock.WithDelay(ctx, lock.RequestKey(requestID), lockWait, func() error {
		rec, recErr := i.requests.GetByID(requestID)
		if recErr != nil {
			return recErr
		}
		if rec == nil {
			return &apperrors.NotFoundError{Entity: "request", ID: requestID}
		}
		if !principal.IsStaff() && rec.RequesterID != principal.UserID {
			return &apperrors.NotFoundError{Entity: "request", ID: requestID}
		}
		if rec.Status.IsTerminal() {
			return apperrors.NewValidationError("request is closed, no more evidence can be attached")
		}
		attachment, attachErr := i.storeUpload(ctx, principal, requestID, data)
		if attachErr != nil {
			return attachErr
		}
		view = evidenceapimodels.EvidenceConvert(attachment, i.storage.URL(filestorage.AttachmentKey(attachment.StoredName)))
		return nil
	})
	if err != nil {
		return evidenceapimodels.EvidenceView{}, err
	}
	if !ok {
		return evidenceapimodels.EvidenceView{}, &apperrors.StaleStateError{Entity: "request", ID: requestID}
	}
	log.WithField("request_id", requestID).WithField("attachment_id", view.ID).Info("evidence attached")
	return view, nil
}

func (i impl) storeUpload(ctx context.Context, principal models.Principal, requestID string, data UploadData) (dbmodels.EvidenceAttachment, error) {
	storedName := uuid.NewString() + filepath.Ext(helpers.SanitizeFileName(data.FileName))
	if _, err := i.storage.Put(ctx, filestorage.AttachmentKey(storedName), data.Body, data.ContentType); err != nil {
		return dbmodels.EvidenceAttachment{}, err
	}

	rec := dbmodels.EvidenceAttachment{
		RequestID:        requestID,
		UploaderID:       principal.UserID,
		CategoryName:     data.CategoryName,
		OriginalFileName: helpers.SanitizeFileName(data.FileName),
		StoredName:       storedName,
		Size:             int64(len(data.Body)),
		ContentType:      data.ContentType,
	}
	id, err := i.store.Create(rec)
	if err != nil {
		return dbmodels.EvidenceAttachment{}, err
	}
	rec.ID = id
	return rec, nil
}

func (i impl) ListByRequest(principal models.Principal, requestID string) ([]evidenceapimodels.EvidenceView, error) {
	rec, err := i.requests.GetByID(requestID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, &apperrors.NotFoundError{Entity: "request", ID: requestID}
	}
	if !principal.IsStaff() && rec.RequesterID != principal.UserID {
		return nil, &apperrors.NotFoundError{Entity: "request", ID: requestID}
	}
	attachments, err := i.store.ListByRequest(requestID)
	if err != nil {
		return nil, err
	}
	views := []evidenceapimodels.EvidenceView{}
	for _, attachment := range attachments {
		views = append(views, evidenceapimodels.EvidenceConvert(attachment, i.storage.URL(filestorage.AttachmentKey(attachment.StoredName))))
	}
	return views, nil
}

// Delete removes an upload. Residents may only drop their own staged uploads
// or attachments of their still-pending requests, staff may drop anything on
// an open request.
func (i impl) Delete(ctx context.Context, principal models.Principal, attachmentID string) error {
	attachment, err := i.store.GetByID(attachmentID)
	if err != nil {
		return err
	}
	if attachment == nil {
		return &apperrors.NotFoundError{Entity: "attachment", ID: attachmentID}
	}
	if !principal.IsStaff() && attachment.UploaderID != principal.UserID {
		return &apperrors.NotFoundError{Entity: "attachment", ID: attachmentID}
	}
	if attachment.RequestID != "" {
		rec, err := i.requests.GetByID(attachment.RequestID)
		if err != nil {
			return err
		}
		if rec != nil {
			if rec.Status.IsTerminal() {
				return apperrors.NewValidationError("request is closed, evidence is kept")
			}
			if !principal.IsStaff() && rec.Status != models.StatusPending {
				return apperrors.NewValidationError("evidence can only be withdrawn while the request is pending")
			}
		}
	}

	if err := i.storage.Delete(ctx, filestorage.AttachmentKey(attachment.StoredName)); err != nil {
		var notFound *apperrors.NotFoundError
		if !errors.As(err, &notFound) {
			return err
		}
	}
	if err := i.store.Delete(attachmentID); err != nil {
		return err
	}
	log.WithField("attachment_id", attachmentID).Info("evidence deleted")
	return nil
}
