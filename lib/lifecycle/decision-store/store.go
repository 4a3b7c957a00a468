package decisionstore

import (
	"gorm.io/gorm"

	dbmodels "barangay-services-backend/models/db"
)

// Append-only audit log of lifecycle transitions.
type Provider interface {
	Append(rec dbmodels.DecisionLog) (id string, err error)
	ListByRequest(requestID string) (list []dbmodels.DecisionLog, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Append(rec dbmodels.DecisionLog) (id string, err error) {
	err = i.db.Create(&rec).Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) ListByRequest(requestID string) (list []dbmodels.DecisionLog, err error) {
	list = []dbmodels.DecisionLog{}
	err = i.db.
		Where("request_id = ?", requestID).
		Preload("Actor").
		Order("decided_at asc").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
