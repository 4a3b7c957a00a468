package requeststore

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"barangay-services-backend/models"
	requestapimodels "barangay-services-backend/models/api/request"
	dbmodels "barangay-services-backend/models/db"
)

type Provider interface {
	Create(rec dbmodels.RequestRecord) (id string, err error)
	GetByID(id string) (rec *dbmodels.RequestRecord, err error)
	GetByVerificationCode(code string) (rec *dbmodels.RequestRecord, err error)
	Update(id string, updMap map[string]interface{}) error
	// UpdateWhereStatus applies updMap only while the record still holds
	// fromStatus. Returns false without error when the guard misses, which the
	// caller surfaces as a stale state.
	UpdateWhereStatus(id string, fromStatus models.RequestStatus, updMap map[string]interface{}) (updated bool, err error)
	List(filter requestapimodels.RequestFilter) (list []dbmodels.RequestRecord, err error)
	ListCount(filter requestapimodels.RequestFilter) (rowCount int64, err error)
	ListByRequester(requesterID string) (list []dbmodels.RequestRecord, err error)
	CountByCategoryAndStatus(categoryID string) (counts map[models.RequestStatus]int64, err error)
	ListByCategory(categoryID string) (list []dbmodels.RequestRecord, err error)
	ListExpirable(now time.Time) (list []dbmodels.RequestRecord, err error)
}

func NewInstance(DB *gorm.DB) Provider {
	return &impl{
		db: DB,
	}
}

type impl struct {
	db *gorm.DB
}

func (i impl) Create(rec dbmodels.RequestRecord) (id string, err error) {
	err = i.db.Omit(clause.Associations).
		Save(&rec).
		Error
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (i impl) GetByID(id string) (*dbmodels.RequestRecord, error) {
	rec := dbmodels.RequestRecord{}
	err := i.db.
		Where("id = ?", id).
		Preload("Requester").
		Preload("Category").
		Preload("Item").
		Preload("Attachments").
		Preload("Decisions").
		Preload("Decisions.Actor").
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

func (i impl) GetByVerificationCode(code string) (*dbmodels.RequestRecord, error) {
	rec := dbmodels.RequestRecord{}
	err := i.db.
		Where("verification_code = ?", code).
		Preload("Requester").
		Preload("Category").
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
		Model(&dbmodels.RequestRecord{}).
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

func (i impl) UpdateWhereStatus(id string, fromStatus models.RequestStatus, updMap map[string]interface{}) (bool, error) {
	tx := i.db.
		Model(&dbmodels.RequestRecord{}).
		Where("id = ?", id).
		Where("status = ?", fromStatus).
		Updates(updMap)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func applyFilter(tx *gorm.DB, filter requestapimodels.RequestFilter) *gorm.DB {
	if filter.Kind != "" {
		tx = tx.Where("request_records.kind = ?", filter.Kind)
	}
	if filter.Status != "" {
		tx = tx.Where("request_records.status = ?", filter.Status)
	}
	if filter.Priority != "" {
		tx = tx.Where("request_records.priority = ?", filter.Priority)
	}
	if filter.Query != "" {
		pattern := "%" + filter.Query + "%"
		tx = tx.
			Joins("LEFT JOIN users ON users.id = request_records.requester_id").
			Where("request_records.purpose ILIKE ? OR users.first_name ILIKE ? OR users.last_name ILIKE ?",
				pattern, pattern, pattern)
	}
	return tx
}

// queueOrder sorts the review queue urgent>high>medium>low, oldest first inside
// a band, so no request starves within its priority class.
const queueOrder = "CASE priority " +
	"WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 WHEN 'medium' THEN 2 WHEN 'low' THEN 3 ELSE 4 END, " +
	"request_records.created_at asc"

func (i impl) List(filter requestapimodels.RequestFilter) (list []dbmodels.RequestRecord, err error) {
	list = []dbmodels.RequestRecord{}
	page, limit := filter.GetPage()
	offset := (page - 1) * limit
	tx := applyFilter(i.db.Model(&dbmodels.RequestRecord{}), filter).
		Preload("Requester").
		Preload("Category").
		Order(queueOrder).
		Offset(offset).
		Limit(limit)
	err = tx.Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) ListCount(filter requestapimodels.RequestFilter) (rowCount int64, err error) {
	err = applyFilter(i.db.Model(&dbmodels.RequestRecord{}), filter).
		Count(&rowCount).
		Error
	if err != nil {
		return 0, err
	}
	return rowCount, nil
}

func (i impl) ListByRequester(requesterID string) (list []dbmodels.RequestRecord, err error) {
	list = []dbmodels.RequestRecord{}
	err = i.db.
		Where("requester_id = ?", requesterID).
		Preload("Category").
		Preload("Attachments").
		Order("created_at desc").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) CountByCategoryAndStatus(categoryID string) (map[models.RequestStatus]int64, error) {
	type row struct {
		Status models.RequestStatus
		Total  int64
	}
	rows := []row{}
	err := i.db.
		Model(&dbmodels.RequestRecord{}).
		Select("status, count(*) as total").
		Where("category_id = ?", categoryID).
		Group("status").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	counts := make(map[models.RequestStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Total
	}
	return counts, nil
}

func (i impl) ListByCategory(categoryID string) (list []dbmodels.RequestRecord, err error) {
	list = []dbmodels.RequestRecord{}
	err = i.db.
		Where("category_id = ?", categoryID).
		Preload("Attachments").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (i impl) ListExpirable(now time.Time) (list []dbmodels.RequestRecord, err error) {
	list = []dbmodels.RequestRecord{}
	err = i.db.
		Where("kind = ?", models.KindDocument).
		Where("status IN ?", []models.RequestStatus{models.StatusReady, models.StatusCompleted}).
		Where("expired = ?", false).
		Where("expires_at IS NOT NULL AND expires_at < ?", now).
		Preload("Category").
		Find(&list).
		Error
	if err != nil {
		return nil, err
	}
	return list, nil
}
