package category

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	categorystore "barangay-services-backend/lib/category/store"
	evidencestore "barangay-services-backend/lib/evidence/store"
	filestorage "barangay-services-backend/lib/file-storage"
	requeststore "barangay-services-backend/lib/request/store"
	"barangay-services-backend/lib/utils/apperrors"
	"barangay-services-backend/models"
	categoryapimodels "barangay-services-backend/models/api/category"
	requestapimodels "barangay-services-backend/models/api/request"
	dbmodels "barangay-services-backend/models/db"
)

type fakeCategoryStore struct {
	recs map[string]*dbmodels.RequestCategory
}

func (s *fakeCategoryStore) Create(rec dbmodels.RequestCategory) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	s.recs[rec.ID] = &rec
	return rec.ID, nil
}

func (s *fakeCategoryStore) GetByID(id string) (*dbmodels.RequestCategory, error) {
	rec, ok := s.recs[id]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (s *fakeCategoryStore) Update(id string, updMap map[string]interface{}) error {
	rec, ok := s.recs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for k, v := range updMap {
		switch k {
		case "name":
			rec.Name = v.(string)
		case "requirements":
			rec.Requirements = v.(string)
		case "active":
			rec.Active = v.(bool)
		case "fee":
			rec.Fee = v.(float64)
		}
	}
	return nil
}

func (s *fakeCategoryStore) Delete(id string) error {
	if _, ok := s.recs[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.recs, id)
	return nil
}

func (s *fakeCategoryStore) List(models.RequestKind, bool) ([]dbmodels.RequestCategory, error) {
	list := []dbmodels.RequestCategory{}
	for _, rec := range s.recs {
		list = append(list, *rec)
	}
	return list, nil
}

type fakeRequestStore struct {
	recs map[string]*dbmodels.RequestRecord
}

func (s *fakeRequestStore) Create(rec dbmodels.RequestRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	s.recs[rec.ID] = &rec
	return rec.ID, nil
}

func (s *fakeRequestStore) GetByID(id string) (*dbmodels.RequestRecord, error) {
	rec, ok := s.recs[id]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (s *fakeRequestStore) GetByVerificationCode(string) (*dbmodels.RequestRecord, error) {
	return nil, nil
}

func (s *fakeRequestStore) Update(string, map[string]interface{}) error { return nil }

func (s *fakeRequestStore) UpdateWhereStatus(id string, fromStatus models.RequestStatus, updMap map[string]interface{}) (bool, error) {
	rec, ok := s.recs[id]
	if !ok || rec.Status != fromStatus {
		return false, nil
	}
	for k, v := range updMap {
		switch k {
		case "status":
			rec.Status = v.(models.RequestStatus)
		case "rejection_reason":
			rec.RejectionReason = v.(string)
		case "processed_by":
			rec.ProcessedBy = v.(string)
		}
	}
	return true, nil
}

func (s *fakeRequestStore) List(requestapimodels.RequestFilter) ([]dbmodels.RequestRecord, error) {
	return nil, nil
}

func (s *fakeRequestStore) ListCount(requestapimodels.RequestFilter) (int64, error) { return 0, nil }

func (s *fakeRequestStore) ListByRequester(string) ([]dbmodels.RequestRecord, error) {
	return nil, nil
}

func (s *fakeRequestStore) CountByCategoryAndStatus(categoryID string) (map[models.RequestStatus]int64, error) {
	counts := map[models.RequestStatus]int64{}
	for _, rec := range s.recs {
		if rec.CategoryID == categoryID {
			counts[rec.Status]++
		}
	}
	return counts, nil
}

func (s *fakeRequestStore) ListByCategory(categoryID string) ([]dbmodels.RequestRecord, error) {
	list := []dbmodels.RequestRecord{}
	for _, rec := range s.recs {
		if rec.CategoryID == categoryID {
			list = append(list, *rec)
		}
	}
	return list, nil
}

func (s *fakeRequestStore) ListExpirable(time.Time) ([]dbmodels.RequestRecord, error) {
	return nil, nil
}

type fakeEvidenceStore struct {
	recs map[string]*dbmodels.EvidenceAttachment
}

func (s *fakeEvidenceStore) Create(rec dbmodels.EvidenceAttachment) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	s.recs[rec.ID] = &rec
	return rec.ID, nil
}

func (s *fakeEvidenceStore) GetByID(id string) (*dbmodels.EvidenceAttachment, error) {
	rec, ok := s.recs[id]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (s *fakeEvidenceStore) ListByRequest(requestID string) ([]dbmodels.EvidenceAttachment, error) {
	list := []dbmodels.EvidenceAttachment{}
	for _, rec := range s.recs {
		if rec.RequestID == requestID {
			list = append(list, *rec)
		}
	}
	return list, nil
}

func (s *fakeEvidenceStore) ListByIDs([]string) ([]dbmodels.EvidenceAttachment, error) {
	return nil, nil
}

func (s *fakeEvidenceStore) Claim([]string, string) error { return nil }

func (s *fakeEvidenceStore) Delete(id string) error {
	delete(s.recs, id)
	return nil
}

func (s *fakeEvidenceStore) DeleteByRequest(requestID string) error {
	for id, rec := range s.recs {
		if rec.RequestID == requestID {
			delete(s.recs, id)
		}
	}
	return nil
}

func (s *fakeEvidenceStore) ListStale(time.Time) ([]dbmodels.EvidenceAttachment, error) {
	return nil, nil
}

type fakeStorage struct {
	deleted []string
}

func (s *fakeStorage) Put(context.Context, string, []byte, string) (string, error) {
	return "", nil
}

func (s *fakeStorage) Get(context.Context, string) ([]byte, error) { return nil, nil }

func (s *fakeStorage) Delete(_ context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *fakeStorage) URL(key string) string { return "/" + key }

type fakeNotifier struct {
	notified []string
}

func (n *fakeNotifier) Notify(userID, _, _ string) {
	n.notified = append(n.notified, userID)
}

type fixture struct {
	handler    impl
	categories *fakeCategoryStore
	requests   *fakeRequestStore
	evidence   *fakeEvidenceStore
	storage    *fakeStorage
	notifier   *fakeNotifier
}

func newFixture() *fixture {
	f := &fixture{
		categories: &fakeCategoryStore{recs: map[string]*dbmodels.RequestCategory{}},
		requests:   &fakeRequestStore{recs: map[string]*dbmodels.RequestRecord{}},
		evidence:   &fakeEvidenceStore{recs: map[string]*dbmodels.EvidenceAttachment{}},
		storage:    &fakeStorage{},
		notifier:   &fakeNotifier{},
	}
	f.handler = impl{
		store:       f.categories,
		requests:    f.requests,
		notifier:    f.notifier,
		storage:     f.storage,
		storeFor:    func(*gorm.DB) categorystore.Provider { return f.categories },
		requestsFor: func(*gorm.DB) requeststore.Provider { return f.requests },
		evidenceFor: func(*gorm.DB) evidencestore.Provider { return f.evidence },
		transact:    func(fn func(tx *gorm.DB) error) error { return fn(nil) },
	}
	return f
}

func admin() models.Principal {
	return models.Principal{UserID: uuid.NewString(), Role: models.AdminRole}
}

func clearanceData() categoryapimodels.CategoryData {
	return categoryapimodels.CategoryData{
		Kind:         models.KindDocument,
		Name:         "Barangay Clearance",
		Requirements: []string{"Valid ID", "Proof of Residency"},
		Fee:          50,
		ValidityDays: 180,
	}
}

func (f *fixture) addRequest(categoryID string, status models.RequestStatus) string {
	id, _ := f.requests.Create(dbmodels.RequestRecord{
		Kind:        models.KindDocument,
		CategoryID:  categoryID,
		RequesterID: uuid.NewString(),
		Status:      status,
	})
	return id
}

func TestCreateAndGet(t *testing.T) {
	f := newFixture()

	view, err := f.handler.Create(clearanceData())
	require.NoError(t, err)
	require.True(t, view.Active)
	require.Equal(t, []string{"Valid ID", "Proof of Residency"}, view.Requirements)

	t.Run("kind without categories", func(t *testing.T) {
		data := clearanceData()
		data.Kind = models.KindSos
		_, err := f.handler.Create(data)
		var valErr *apperrors.ValidationError
		require.ErrorAs(t, err, &valErr)
	})
}

func TestUpdateRequirements(t *testing.T) {
	t.Run("pending requests guard the edit", func(t *testing.T) {
		f := newFixture()
		view, err := f.handler.Create(clearanceData())
		require.NoError(t, err)
		f.addRequest(view.ID, models.StatusPending)

		edit := categoryapimodels.CategoryEditData{CategoryData: clearanceData()}
		edit.Requirements = []string{"Valid ID"}
		_, err = f.handler.Update(view.ID, edit)
		var conflict *apperrors.ConflictError
		require.ErrorAs(t, err, &conflict)
		require.Equal(t, int64(1), conflict.Counts[models.StatusPending])
	})

	t.Run("acknowledged migration goes through", func(t *testing.T) {
		f := newFixture()
		view, err := f.handler.Create(clearanceData())
		require.NoError(t, err)
		f.addRequest(view.ID, models.StatusPending)

		edit := categoryapimodels.CategoryEditData{CategoryData: clearanceData(), MigrateRequirements: true}
		edit.Requirements = []string{"Valid ID"}
		updated, err := f.handler.Update(view.ID, edit)
		require.NoError(t, err)
		require.Equal(t, []string{"Valid ID"}, updated.Requirements)
	})

	t.Run("kind is immutable", func(t *testing.T) {
		f := newFixture()
		view, err := f.handler.Create(clearanceData())
		require.NoError(t, err)

		edit := categoryapimodels.CategoryEditData{CategoryData: clearanceData()}
		edit.Kind = models.KindBenefit
		_, err = f.handler.Update(view.ID, edit)
		var valErr *apperrors.ValidationError
		require.ErrorAs(t, err, &valErr)
	})
}

func TestDelete(t *testing.T) {
	t.Run("unreferenced category deletes at once", func(t *testing.T) {
		f := newFixture()
		view, err := f.handler.Create(clearanceData())
		require.NoError(t, err)

		conflict, err := f.handler.Delete(admin(), view.ID, categoryapimodels.DeleteData{})
		require.NoError(t, err)
		require.Nil(t, conflict)
		require.Empty(t, f.categories.recs)
	})

	t.Run("terminal requests do not block", func(t *testing.T) {
		f := newFixture()
		view, err := f.handler.Create(clearanceData())
		require.NoError(t, err)
		f.addRequest(view.ID, models.StatusCompleted)
		f.addRequest(view.ID, models.StatusRejected)

		conflict, err := f.handler.Delete(admin(), view.ID, categoryapimodels.DeleteData{})
		require.NoError(t, err)
		require.Nil(t, conflict)
	})

	t.Run("open requests report a conflict", func(t *testing.T) {
		f := newFixture()
		view, err := f.handler.Create(clearanceData())
		require.NoError(t, err)
		f.addRequest(view.ID, models.StatusPending)
		f.addRequest(view.ID, models.StatusPending)
		f.addRequest(view.ID, models.StatusReady)

		conflict, err := f.handler.Delete(admin(), view.ID, categoryapimodels.DeleteData{})
		require.NoError(t, err)
		require.NotNil(t, conflict)
		require.Equal(t, int64(3), conflict.TotalRequests)
		require.Equal(t, int64(2), conflict.CountsByStatus[string(models.StatusPending)])
		require.True(t, conflict.ForceAvailable)
		require.Len(t, f.categories.recs, 1)
	})

	t.Run("force cancels open requests and deletes", func(t *testing.T) {
		f := newFixture()
		view, err := f.handler.Create(clearanceData())
		require.NoError(t, err)
		openID := f.addRequest(view.ID, models.StatusPending)
		doneID := f.addRequest(view.ID, models.StatusCompleted)
		attID, _ := f.evidence.Create(dbmodels.EvidenceAttachment{
			RequestID:  openID,
			StoredName: "id-front.jpg",
		})

		conflict, err := f.handler.Delete(admin(), view.ID, categoryapimodels.DeleteData{
			Reason: "service retired",
			Force:  true,
		})
		require.NoError(t, err)
		require.Nil(t, conflict)
		require.Empty(t, f.categories.recs)

		att, err := f.evidence.GetByID(attID)
		require.NoError(t, err)
		require.Nil(t, att)
		require.Equal(t, []string{filestorage.AttachmentKey("id-front.jpg")}, f.storage.deleted)

		open, err := f.requests.GetByID(openID)
		require.NoError(t, err)
		require.Equal(t, models.StatusCancelled, open.Status)
		require.Equal(t, "Category deleted: service retired", open.RejectionReason)
		require.Equal(t, models.SystemUser, open.ProcessedBy)

		done, err := f.requests.GetByID(doneID)
		require.NoError(t, err)
		require.Equal(t, models.StatusCompleted, done.Status)

		require.Equal(t, []string{open.RequesterID}, f.notifier.notified)
	})
}

func TestBulkDelete(t *testing.T) {
	f := newFixture()
	clean, err := f.handler.Create(clearanceData())
	require.NoError(t, err)
	busy, err := f.handler.Create(clearanceData())
	require.NoError(t, err)
	f.addRequest(busy.ID, models.StatusPending)
	missing := uuid.NewString()

	results, err := f.handler.BulkDelete(admin(), categoryapimodels.BulkDeleteData{
		IDs: []string{clean.ID, busy.ID, missing},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	require.True(t, results[0].Deleted)
	require.False(t, results[1].Deleted)
	require.NotNil(t, results[1].Conflict)
	require.False(t, results[2].Deleted)
	require.NotEmpty(t, results[2].Message)
}
