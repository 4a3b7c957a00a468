package expiryworker

import (
	"context"
	"time"

	"barangay-services-backend/config"
	"barangay-services-backend/db"
	evidencestore "barangay-services-backend/lib/evidence/store"
	filestorage "barangay-services-backend/lib/file-storage"
	requeststore "barangay-services-backend/lib/request/store"
	baseworker "barangay-services-backend/lib/utils/base-worker"
)

const staleUploadAge = 24 * time.Hour

// Worker sweeps two kinds of leftovers: issued documents past their validity
// window and staged evidence uploads that never made it into a submission.
type Worker struct {
	base     *baseworker.BaseImpl
	store    requeststore.Provider
	evidence evidencestore.Provider
	storage  filestorage.Provider
}

func NewWorker() *Worker {
	interval := time.Duration(config.Conf.Workers.ExpiryCheckMinutes) * time.Minute
	return &Worker{
		base:     baseworker.NewInstance("expiry-worker", time.Minute, interval),
		store:    requeststore.NewInstance(db.DB),
		evidence: evidencestore.NewInstance(db.DB),
		storage:  filestorage.Instance,
	}
}

func (w *Worker) Run(ctx context.Context) {
	w.base.Run(ctx, func(ctx context.Context) {
		w.expireDocuments(ctx)
		w.sweepStaleUploads(ctx)
	})
}

func (w *Worker) expireDocuments(ctx context.Context) {
	logger := w.base.GetLogger()
	list, err := w.store.ListExpirable(time.Now())
	if err != nil {
		logger.WithError(err).Error("expirable listing failed")
		return
	}
	for _, rec := range list {
		updMap := map[string]interface{}{"expired": true}
		purge := rec.Category != nil && rec.Category.AutoExpire && rec.ArtifactURL != ""
		if purge {
			if err := w.storage.Delete(ctx, filestorage.ObjectKey(rec.ID, "certificate.pdf")); err != nil {
				logger.WithError(err).
					WithField("request_id", rec.ID).
					Warn("expired certificate purge failed, will retry next run")
				continue
			}
			updMap["artifact_url"] = ""
		}
		if err := w.store.Update(rec.ID, updMap); err != nil {
			logger.WithError(err).WithField("request_id", rec.ID).Error("expiry update failed")
			continue
		}
		logger.WithField("request_id", rec.ID).Info("document expired")
	}
}

// sweepStaleUploads drops staged evidence that was never claimed by a
// submission within a day.
func (w *Worker) sweepStaleUploads(ctx context.Context) {
	logger := w.base.GetLogger()
	stale, err := w.evidence.ListStale(time.Now().Add(-staleUploadAge))
	if err != nil {
		logger.WithError(err).Error("stale upload listing failed")
		return
	}
	for _, attachment := range stale {
		if err := w.storage.Delete(ctx, filestorage.AttachmentKey(attachment.StoredName)); err != nil {
			logger.WithError(err).
				WithField("attachment_id", attachment.ID).
				Warn("stale upload blob delete failed")
		}
		if err := w.evidence.Delete(attachment.ID); err != nil {
			logger.WithError(err).WithField("attachment_id", attachment.ID).Error("stale upload delete failed")
			continue
		}
	}
	if len(stale) > 0 {
		logger.WithField("removed", len(stale)).Info("stale staged uploads removed")
	}
}
