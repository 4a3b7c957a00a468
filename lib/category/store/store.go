package categorystore

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"barangay-services-backend/models"
	dbmodels "barangay-services-backend/models/db"
)

type Provider interface {
	Create(rec dbmodels.RequestCategory) (id string, err error)
	GetByID(id string) (rec *dbmodels.RequestCategory, err error)
	Update(id string, updMap map[string]interface{}) error
	Delete(id string) error
	List(kind models.RequestKind, activeOnly bool) (list []dbmodels.RequestCategory, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.RequestCategory) (id string, err error) {
	err = i.db.Save(&rec).Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) GetByID(id string) (*dbmodels.RequestCategory, error) {
	rec := dbmodels.RequestCategory{}
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

func (i impl) Update(id string, updMap map[string]interface{}) error {
	if len(updMap) == 0 {
		return nil
	}
	tx := i.db.
		Model(&dbmodels.RequestCategory{}).
		Where("id = ?", id).
		Updates(updMap)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return errors.New("record not found")
	}
	return nil
}

func (i impl) Delete(id string) error {
	tx := i.db.
		Where("id = ?", id).
		Delete(&dbmodels.RequestCategory{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (i impl) List(kind models.RequestKind, activeOnly bool) (list []dbmodels.RequestCategory, err error) {
	list = []dbmodels.RequestCategory{}
	tx := i.db.Model(&dbmodels.RequestCategory{})
	if kind != "" {
		tx = tx.Where("kind = ?", kind)
	}
	if activeOnly {
		tx = tx.Where("active = ?", true)
	}
	err = tx.Order("name asc").Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
