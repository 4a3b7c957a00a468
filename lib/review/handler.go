package review

import (
	"barangay-services-backend/db"
	requeststore "barangay-services-backend/lib/request/store"
	"barangay-services-backend/models"
	requestapimodels "barangay-services-backend/models/api/request"
)

// Provider is the staff review queue: open requests ordered by priority first,
// oldest first within the same priority, with kind, status, priority and
// free-text filters.
type Provider interface {
	Queue(principal models.Principal, filter requestapimodels.RequestFilter) (list []requestapimodels.RequestView, rowCount int64, err error)
}

var Instance Provider

func NewHandler() {
	Instance = &impl{
		store: requeststore.NewInstance(db.DB),
	}
}

type impl struct {
	store requeststore.Provider
}

func (i impl) Queue(principal models.Principal, filter requestapimodels.RequestFilter) ([]requestapimodels.RequestView, int64, error) {
	if filter.Status == "" && filter.Query == "" {
		filter.Status = models.StatusPending
	}

	rowCount, err := i.store.ListCount(filter)
	if err != nil {
		return nil, 0, err
	}
	list, err := i.store.List(filter)
	if err != nil {
		return nil, 0, err
	}

	views := []requestapimodels.RequestView{}
	for _, rec := range list {
		views = append(views, requestapimodels.RequestConvert(rec))
	}
	return views, rowCount, nil
}
