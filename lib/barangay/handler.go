package barangay

import (
	"barangay-services-backend/db"
	barangaystore "barangay-services-backend/lib/barangay/store"
	"barangay-services-backend/lib/utils/apperrors"
	dbmodels "barangay-services-backend/models/db"
)

type BarangayView struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Municipality string `json:"municipality,omitempty"`
	Province     string `json:"province,omitempty"`
}

func BarangayConvert(rec dbmodels.Barangay) BarangayView {
	return BarangayView{
		ID:           rec.ID,
		Name:         rec.Name,
		Municipality: rec.Municipality,
		Province:     rec.Province,
	}
}

// Provider is the barangay dictionary, mostly read by relocation submissions.
type Provider interface {
	List() ([]BarangayView, error)
	GetByID(id string) (BarangayView, error)
}

var Instance Provider

func NewHandler() {
	Instance = &impl{
		store: barangaystore.NewInstance(db.DB),
	}
}

type impl struct {
	store barangaystore.Provider
}

func (i impl) List() ([]BarangayView, error) {
	list, err := i.store.List()
	if err != nil {
		return nil, err
	}
	views := []BarangayView{}
	for _, rec := range list {
		views = append(views, BarangayConvert(rec))
	}
	return views, nil
}

func (i impl) GetByID(id string) (BarangayView, error) {
	rec, err := i.store.GetByID(id)
	if err != nil {
		return BarangayView{}, err
	}
	if rec == nil {
		return BarangayView{}, &apperrors.NotFoundError{Entity: "barangay", ID: id}
	}
	return BarangayConvert(*rec), nil
}
