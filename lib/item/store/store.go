package itemstore

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	dbmodels "barangay-services-backend/models/db"
)

type Provider interface {
	Create(rec dbmodels.Item) (id string, err error)
	GetByID(id string) (rec *dbmodels.Item, err error)
	List(barangayID string, availableOnly bool) (list []dbmodels.Item, err error)
	// SetAvailability flips the availability flag with a guard on its current
	// value, so two approved loans cannot both take the same item.
	SetAvailability(id string, from, to bool) (updated bool, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.Item) (id string, err error) {
	err = i.db.Save(&rec).Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) GetByID(id string) (*dbmodels.Item, error) {
	rec := dbmodels.Item{}
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

func (i impl) List(barangayID string, availableOnly bool) (list []dbmodels.Item, err error) {
	list = []dbmodels.Item{}
	tx := i.db.Model(&dbmodels.Item{})
	if barangayID != "" {
		tx = tx.Where("barangay_id = ?", barangayID)
	}
	if availableOnly {
		tx = tx.Where("available = ?", true)
	}
	err = tx.Order("title asc").Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) SetAvailability(id string, from, to bool) (bool, error) {
	res := i.db.
		Model(&dbmodels.Item{}).
		Where("id = ?", id).
		Where("available = ?", from).
		Update("available", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
