package barangaystore

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	dbmodels "barangay-services-backend/models/db"
)

type Provider interface {
	GetByID(id string) (rec *dbmodels.Barangay, err error)
	List() (list []dbmodels.Barangay, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) GetByID(id string) (*dbmodels.Barangay, error) {
	rec := dbmodels.Barangay{}
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

func (i impl) List() (list []dbmodels.Barangay, err error) {
	list = []dbmodels.Barangay{}
	err = i.db.Order("name asc").Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
