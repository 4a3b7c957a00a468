package item

import (
	log "github.com/sirupsen/logrus"

	"barangay-services-backend/db"
	itemstore "barangay-services-backend/lib/item/store"
	"barangay-services-backend/lib/utils/apperrors"
	"barangay-services-backend/models"
	dbmodels "barangay-services-backend/models/db"
)

type ItemData struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Condition   string `json:"condition"`
	MaxLoanDays int    `json:"max_loan_days"`
}

func (d ItemData) Validate() error {
	if d.Title == "" {
		return apperrors.NewValidationError("item title is required")
	}
	if d.MaxLoanDays < 0 {
		return apperrors.NewValidationError("loan limit cannot be negative")
	}
	return nil
}

type ItemView struct {
	ID          string `json:"id"`
	BarangayID  string `json:"barangay_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Condition   string `json:"condition,omitempty"`
	Available   bool   `json:"available"`
	MaxLoanDays int    `json:"max_loan_days,omitempty"`
}

func ItemConvert(rec dbmodels.Item) ItemView {
	return ItemView{
		ID:          rec.ID,
		BarangayID:  rec.BarangayID,
		Title:       rec.Title,
		Description: rec.Description,
		Condition:   rec.Condition,
		Available:   rec.Available,
		MaxLoanDays: rec.MaxLoanDays,
	}
}

// Provider is the loanable-item registry backing the item loan request kind.
type Provider interface {
	Create(principal models.Principal, data ItemData) (ItemView, error)
	GetByID(itemID string) (ItemView, error)
	List(barangayID string, availableOnly bool) ([]ItemView, error)
}

var Instance Provider

func NewHandler() {
	Instance = &impl{
		store: itemstore.NewInstance(db.DB),
	}
}

type impl struct {
	store itemstore.Provider
}

func (i impl) Create(principal models.Principal, data ItemData) (ItemView, error) {
	if err := data.Validate(); err != nil {
		return ItemView{}, err
	}
	id, err := i.store.Create(dbmodels.Item{
		BarangayID:  principal.BarangayID,
		OwnerID:     principal.UserID,
		Title:       data.Title,
		Description: data.Description,
		Condition:   data.Condition,
		Available:   true,
		MaxLoanDays: data.MaxLoanDays,
	})
	if err != nil {
		return ItemView{}, err
	}
	log.WithField("item_id", id).WithField("title", data.Title).Info("loanable item registered")
	return i.GetByID(id)
}

func (i impl) GetByID(itemID string) (ItemView, error) {
	rec, err := i.store.GetByID(itemID)
	if err != nil {
		return ItemView{}, err
	}
	if rec == nil {
		return ItemView{}, &apperrors.NotFoundError{Entity: "item", ID: itemID}
	}
	return ItemConvert(*rec), nil
}

func (i impl) List(barangayID string, availableOnly bool) ([]ItemView, error) {
	list, err := i.store.List(barangayID, availableOnly)
	if err != nil {
		return nil, err
	}
	views := []ItemView{}
	for _, rec := range list {
		views = append(views, ItemConvert(rec))
	}
	return views, nil
}
