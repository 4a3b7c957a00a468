package evidenceapimodels

import (
	"time"

	dbmodels "barangay-services-backend/models/db"
)

type EvidenceView struct {
	ID           string    `json:"id"`
	CategoryName string    `json:"category_name"`
	FileName     string    `json:"file_name"`
	Size         int64     `json:"size"`
	ContentType  string    `json:"content_type"`
	URL          string    `json:"url"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

func EvidenceConvert(rec dbmodels.EvidenceAttachment, url string) EvidenceView {
	return EvidenceView{
		ID:           rec.ID,
		CategoryName: rec.CategoryName,
		FileName:     rec.OriginalFileName,
		Size:         rec.Size,
		ContentType:  rec.ContentType,
		URL:          url,
		UploadedAt:   rec.CreatedAt,
	}
}
