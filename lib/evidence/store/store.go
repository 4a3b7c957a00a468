package evidencestore

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	dbmodels "barangay-services-backend/models/db"
)

type Provider interface {
	Create(rec dbmodels.EvidenceAttachment) (id string, err error)
	GetByID(id string) (rec *dbmodels.EvidenceAttachment, err error)
	ListByRequest(requestID string) (list []dbmodels.EvidenceAttachment, err error)
	ListByIDs(ids []string) (list []dbmodels.EvidenceAttachment, err error)
	// Claim binds staged uploads to their request. Only unclaimed rows may be
	// claimed.
	Claim(ids []string, requestID string) error
	Delete(id string) error
	DeleteByRequest(requestID string) error
	ListStale(olderThan time.Time) (list []dbmodels.EvidenceAttachment, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.EvidenceAttachment) (id string, err error) {
	err = i.db.Save(&rec).Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) GetByID(id string) (*dbmodels.EvidenceAttachment, error) {
	rec := dbmodels.EvidenceAttachment{}
	err := i.db.
		Where("id = ?", id).
		First(&rec).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (i impl) ListByRequest(requestID string) (list []dbmodels.EvidenceAttachment, err error) {
	list = []dbmodels.EvidenceAttachment{}
	err = i.db.
		Where("request_id = ?", requestID).
		Order("created_at asc").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) ListByIDs(ids []string) (list []dbmodels.EvidenceAttachment, err error) {
	list = []dbmodels.EvidenceAttachment{}
	if len(ids) == 0 {
		return list, nil
	}
	err = i.db.
		Where("id IN ?", ids).
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) Claim(ids []string, requestID string) error {
	if len(ids) == 0 {
		return nil
	}
	res := i.db.
		Model(&dbmodels.EvidenceAttachment{}).
		Where("id IN ?", ids).
		Where("request_id = ?", "").
		Update("request_id", requestID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != int64(len(ids)) {
		return errors.New("some uploads are missing or already claimed")
	}
	return nil
}

func (i impl) Delete(id string) error {
	return i.db.
		Where("id = ?", id).
		Delete(&dbmodels.EvidenceAttachment{}).
		Error
}

func (i impl) DeleteByRequest(requestID string) error {
	return i.db.
		Where("request_id = ?", requestID).
		Delete(&dbmodels.EvidenceAttachment{}).
		Error
}

func (i impl) ListStale(olderThan time.Time) (list []dbmodels.EvidenceAttachment, err error) {
	list = []dbmodels.EvidenceAttachment{}
	err = i.db.
		Where("request_id = ?", "").
		Where("created_at < ?", olderThan).
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
