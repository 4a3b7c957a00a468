package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	artifacthandler "barangay-services-backend/lib/artifact"
	itemstore "barangay-services-backend/lib/item/store"
	requeststore "barangay-services-backend/lib/request/store"
	"barangay-services-backend/lib/utils/apperrors"
	"barangay-services-backend/models"
	requestapimodels "barangay-services-backend/models/api/request"
	dbmodels "barangay-services-backend/models/db"
)

type fakeRequestStore struct {
	recs map[string]*dbmodels.RequestRecord
}

func newFakeRequestStore(recs ...*dbmodels.RequestRecord) *fakeRequestStore {
	s := &fakeRequestStore{recs: map[string]*dbmodels.RequestRecord{}}
	for _, rec := range recs {
		s.recs[rec.ID] = rec
	}
	return s
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

func (s *fakeRequestStore) GetByVerificationCode(code string) (*dbmodels.RequestRecord, error) {
	for _, rec := range s.recs {
		if rec.VerificationCode == code {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeRequestStore) Update(id string, updMap map[string]interface{}) error {
	rec, ok := s.recs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	applyUpd(rec, updMap)
	return nil
}

func (s *fakeRequestStore) UpdateWhereStatus(id string, fromStatus models.RequestStatus, updMap map[string]interface{}) (bool, error) {
	rec, ok := s.recs[id]
	if !ok || rec.Status != fromStatus {
		return false, nil
	}
	applyUpd(rec, updMap)
	return true, nil
}

func applyUpd(rec *dbmodels.RequestRecord, updMap map[string]interface{}) {
	for k, v := range updMap {
		switch k {
		case "status":
			rec.Status = v.(models.RequestStatus)
		case "rejection_reason":
			rec.RejectionReason = v.(string)
		case "decision_notes":
			rec.DecisionNotes = v.(string)
		case "processed_by":
			rec.ProcessedBy = v.(string)
		case "processed_at":
			t := v.(time.Time)
			rec.ProcessedAt = &t
		case "artifact_url":
			rec.ArtifactURL = v.(string)
		case "verification_code":
			rec.VerificationCode = v.(string)
		case "expires_at":
			t := v.(time.Time)
			rec.ExpiresAt = &t
		case "payload":
			rec.Payload = v.(dbmodels.RequestPayload)
		case "from_barangay_approved":
			rec.FromBarangayApproved = v.(bool)
		case "to_barangay_approved":
			rec.ToBarangayApproved = v.(bool)
		case "from_approved_by":
			rec.FromApprovedBy = v.(string)
		case "to_approved_by":
			rec.ToApprovedBy = v.(string)
		case "from_approved_at":
			t := v.(time.Time)
			rec.FromApprovedAt = &t
		case "to_approved_at":
			t := v.(time.Time)
			rec.ToApprovedAt = &t
		}
	}
}

func (s *fakeRequestStore) List(requestapimodels.RequestFilter) ([]dbmodels.RequestRecord, error) {
	return nil, nil
}

func (s *fakeRequestStore) ListCount(requestapimodels.RequestFilter) (int64, error) { return 0, nil }

func (s *fakeRequestStore) ListByRequester(string) ([]dbmodels.RequestRecord, error) {
	return nil, nil
}

func (s *fakeRequestStore) CountByCategoryAndStatus(string) (map[models.RequestStatus]int64, error) {
	return nil, nil
}

func (s *fakeRequestStore) ListByCategory(string) ([]dbmodels.RequestRecord, error) {
	return nil, nil
}

func (s *fakeRequestStore) ListExpirable(time.Time) ([]dbmodels.RequestRecord, error) {
	return nil, nil
}

type fakeDecisionStore struct {
	rows []dbmodels.DecisionLog
}

func (s *fakeDecisionStore) Append(rec dbmodels.DecisionLog) (string, error) {
	rec.ID = uuid.NewString()
	s.rows = append(s.rows, rec)
	return rec.ID, nil
}

func (s *fakeDecisionStore) ListByRequest(requestID string) ([]dbmodels.DecisionLog, error) {
	list := []dbmodels.DecisionLog{}
	for _, row := range s.rows {
		if row.RequestID == requestID {
			list = append(list, row)
		}
	}
	return list, nil
}

type fakeItemStore struct {
	items map[string]*dbmodels.Item
}

func (s *fakeItemStore) Create(rec dbmodels.Item) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	s.items[rec.ID] = &rec
	return rec.ID, nil
}

func (s *fakeItemStore) GetByID(id string) (*dbmodels.Item, error) {
	rec, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (s *fakeItemStore) List(string, bool) ([]dbmodels.Item, error) { return nil, nil }

func (s *fakeItemStore) SetAvailability(id string, from, to bool) (bool, error) {
	rec, ok := s.items[id]
	if !ok || rec.Available != from {
		return false, nil
	}
	rec.Available = to
	return true, nil
}

type fakeArtifact struct {
	err   error
	calls int
}

func (a *fakeArtifact) Generate(_ context.Context, rec dbmodels.RequestRecord) (artifacthandler.Result, error) {
	a.calls++
	if a.err != nil {
		return artifacthandler.Result{}, a.err
	}
	code := rec.VerificationCode
	if code == "" {
		code = uuid.NewString()
	}
	return artifacthandler.Result{
		ArtifactURL:      "https://storage.local/" + rec.ID + "/certificate.pdf",
		VerificationCode: code,
	}, nil
}

type fakeNotifier struct {
	events []string
}

func (n *fakeNotifier) Notify(_, event, _ string) {
	n.events = append(n.events, event)
}

type engineFixture struct {
	engine    impl
	requests  *fakeRequestStore
	decisions *fakeDecisionStore
	items     *fakeItemStore
	artifact  *fakeArtifact
	notifier  *fakeNotifier
}

func newEngineFixture(recs ...*dbmodels.RequestRecord) *engineFixture {
	f := &engineFixture{
		requests:  newFakeRequestStore(recs...),
		decisions: &fakeDecisionStore{},
		items:     &fakeItemStore{items: map[string]*dbmodels.Item{}},
		artifact:  &fakeArtifact{},
		notifier:  &fakeNotifier{},
	}
	f.engine = impl{
		store:         f.requests,
		decisionStore: f.decisions,
		storeFor:      func(*gorm.DB) requeststore.Provider { return f.requests },
		itemStoreFor:  func(*gorm.DB) itemstore.Provider { return f.items },
		artifact:      f.artifact,
		notifier:      f.notifier,
		transact:      func(fn func(tx *gorm.DB) error) error { return fn(nil) },
	}
	return f
}

func pendingRequest(kind models.RequestKind) *dbmodels.RequestRecord {
	return &dbmodels.RequestRecord{
		BaseModel:   dbmodels.BaseModel{ID: uuid.NewString()},
		Kind:        kind,
		BarangayID:  uuid.NewString(),
		RequesterID: uuid.NewString(),
		Purpose:     "test purpose",
		Status:      models.StatusPending,
		Priority:    kind.DefaultPriority(),
	}
}

func staff() models.Principal {
	return models.Principal{
		UserID:     uuid.NewString(),
		Role:       models.StaffRole,
		BarangayID: uuid.NewString(),
		FullName:   "Test Staff",
	}
}

func TestDecide(t *testing.T) {
	ctx := context.Background()

	t.Run("approve benefit", func(t *testing.T) {
		rec := pendingRequest(models.KindBenefit)
		f := newEngineFixture(rec)

		view, err := f.engine.Decide(ctx, staff(), rec.ID, requestapimodels.DecisionData{
			Outcome: models.OutcomeApproved,
			Notes:   "eligible",
		})
		require.NoError(t, err)
		require.Equal(t, models.StatusApproved, view.Status)

		stored, err := f.requests.GetByID(rec.ID)
		require.NoError(t, err)
		require.Equal(t, models.StatusApproved, stored.Status)
		require.Equal(t, "eligible", stored.DecisionNotes)
		require.NotNil(t, stored.ProcessedAt)

		require.Len(t, f.decisions.rows, 1)
		require.Equal(t, models.StatusApproved, f.decisions.rows[0].ToStatus)
		require.Equal(t, []string{"Request approved"}, f.notifier.events)
	})

	t.Run("reject requires reason", func(t *testing.T) {
		rec := pendingRequest(models.KindBenefit)
		f := newEngineFixture(rec)

		_, err := f.engine.Decide(ctx, staff(), rec.ID, requestapimodels.DecisionData{
			Outcome: models.OutcomeRejected,
		})
		var valErr *apperrors.ValidationError
		require.ErrorAs(t, err, &valErr)

		stored, err := f.requests.GetByID(rec.ID)
		require.NoError(t, err)
		require.Equal(t, models.StatusPending, stored.Status)
	})

	t.Run("reject stores reason", func(t *testing.T) {
		rec := pendingRequest(models.KindDocument)
		f := newEngineFixture(rec)

		view, err := f.engine.Decide(ctx, staff(), rec.ID, requestapimodels.DecisionData{
			Outcome: models.OutcomeRejected,
			Reason:  "incomplete evidence",
		})
		require.NoError(t, err)
		require.Equal(t, models.StatusRejected, view.Status)
		require.Equal(t, "incomplete evidence", view.RejectionReason)
		require.Equal(t, []string{"Request rejected"}, f.notifier.events)
	})

	t.Run("non-staff forbidden", func(t *testing.T) {
		rec := pendingRequest(models.KindBenefit)
		f := newEngineFixture(rec)

		resident := models.Principal{UserID: rec.RequesterID, Role: models.ResidentRole}
		_, err := f.engine.Decide(ctx, resident, rec.ID, requestapimodels.DecisionData{
			Outcome: models.OutcomeApproved,
		})
		require.Error(t, err)
	})

	t.Run("already decided", func(t *testing.T) {
		rec := pendingRequest(models.KindBenefit)
		rec.Status = models.StatusApproved
		f := newEngineFixture(rec)

		_, err := f.engine.Decide(ctx, staff(), rec.ID, requestapimodels.DecisionData{
			Outcome: models.OutcomeApproved,
		})
		var trErr *apperrors.IllegalTransitionError
		require.ErrorAs(t, err, &trErr)
	})

	t.Run("unknown request", func(t *testing.T) {
		f := newEngineFixture()
		_, err := f.engine.Decide(ctx, staff(), uuid.NewString(), requestapimodels.DecisionData{
			Outcome: models.OutcomeApproved,
		})
		var nfErr *apperrors.NotFoundError
		require.ErrorAs(t, err, &nfErr)
	})

	t.Run("lost decision race yields stale state", func(t *testing.T) {
		rec := pendingRequest(models.KindBenefit)
		f := newEngineFixture(rec)

		_, err := f.engine.Decide(ctx, staff(), rec.ID, requestapimodels.DecisionData{
			Outcome: models.OutcomeApproved,
		})
		require.NoError(t, err)

		// The loser of two concurrent decisions read the record while it
		// was still pending, then found it already moved under the lock.
		_, err = f.engine.decideLocked(ctx, staff(), rec.ID, models.StatusPending, requestapimodels.DecisionData{
			Outcome: models.OutcomeRejected,
			Reason:  "duplicate decision",
		})
		var staleErr *apperrors.StaleStateError
		require.ErrorAs(t, err, &staleErr)

		// A decision started after the record already moved is an
		// illegal transition, not a stale read.
		_, err = f.engine.Decide(ctx, staff(), rec.ID, requestapimodels.DecisionData{
			Outcome: models.OutcomeRejected,
			Reason:  "duplicate decision",
		})
		var trErr *apperrors.IllegalTransitionError
		require.ErrorAs(t, err, &trErr)
	})
}

func TestDecideDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("approve generates certificate", func(t *testing.T) {
		rec := pendingRequest(models.KindDocument)
		rec.Category = &dbmodels.RequestCategory{ValidityDays: 30}
		f := newEngineFixture(rec)

		view, err := f.engine.Decide(ctx, staff(), rec.ID, requestapimodels.DecisionData{
			Outcome: models.OutcomeApproved,
		})
		require.NoError(t, err)
		require.Equal(t, models.StatusReady, view.Status)
		require.NotEmpty(t, view.ArtifactURL)
		require.NotEmpty(t, view.VerificationCode)

		stored, err := f.requests.GetByID(rec.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.ExpiresAt)
		require.True(t, stored.ExpiresAt.After(time.Now().AddDate(0, 0, 29)))

		require.Len(t, f.decisions.rows, 2)
		require.Equal(t, models.StatusProcessing, f.decisions.rows[0].ToStatus)
		require.Equal(t, models.StatusReady, f.decisions.rows[1].ToStatus)
		require.Equal(t, models.SystemUser, f.decisions.rows[1].ActorID)

		// The requester hears about the document once, when it is ready.
		require.Equal(t, []string{"Document ready"}, f.notifier.events)
	})

	t.Run("generation timeout leaves processing", func(t *testing.T) {
		rec := pendingRequest(models.KindDocument)
		f := newEngineFixture(rec)
		f.artifact.err = &apperrors.DependencyTimeoutError{Dependency: "artifact generator"}

		view, err := f.engine.Decide(ctx, staff(), rec.ID, requestapimodels.DecisionData{
			Outcome: models.OutcomeApproved,
		})
		require.NoError(t, err)
		require.Equal(t, models.StatusProcessing, view.Status)
		require.Empty(t, view.ArtifactURL)

		f.artifact.err = nil
		view, err = f.engine.RetryArtifact(ctx, staff(), rec.ID)
		require.NoError(t, err)
		require.Equal(t, models.StatusReady, view.Status)
		require.NotEmpty(t, view.ArtifactURL)
		require.Equal(t, 2, f.artifact.calls)
	})

	t.Run("retry only from processing", func(t *testing.T) {
		rec := pendingRequest(models.KindDocument)
		f := newEngineFixture(rec)

		_, err := f.engine.RetryArtifact(ctx, staff(), rec.ID)
		var trErr *apperrors.IllegalTransitionError
		require.ErrorAs(t, err, &trErr)
	})
}

func TestDecideItemLoan(t *testing.T) {
	ctx := context.Background()

	newLoan := func(available bool) (*engineFixture, *dbmodels.RequestRecord, string) {
		rec := pendingRequest(models.KindItemLoan)
		f := newEngineFixture(rec)
		itemID, _ := f.items.Create(dbmodels.Item{Title: "folding tent", Available: available})
		rec.ItemID = itemID
		f.requests.recs[rec.ID].ItemID = itemID
		f.requests.recs[rec.ID].Payload = dbmodels.RequestPayload{
			ItemLoan: &dbmodels.ItemLoanPayload{LoanDays: 7},
		}
		return f, rec, itemID
	}

	t.Run("approve reserves item", func(t *testing.T) {
		f, rec, itemID := newLoan(true)

		view, err := f.engine.Decide(ctx, staff(), rec.ID, requestapimodels.DecisionData{
			Outcome: models.OutcomeApproved,
		})
		require.NoError(t, err)
		require.Equal(t, models.StatusApproved, view.Status)

		item, err := f.items.GetByID(itemID)
		require.NoError(t, err)
		require.False(t, item.Available)

		stored, err := f.requests.GetByID(rec.ID)
		require.NoError(t, err)
		require.NotNil(t, stored.Payload.ItemLoan.StartDate)
		require.NotNil(t, stored.Payload.ItemLoan.EndDate)
		require.Equal(t, 7, stored.Payload.ItemLoan.LoanDays)
	})

	t.Run("unavailable item conflicts", func(t *testing.T) {
		f, rec, _ := newLoan(false)

		_, err := f.engine.Decide(ctx, staff(), rec.ID, requestapimodels.DecisionData{
			Outcome: models.OutcomeApproved,
		})
		var conflict *apperrors.ConflictError
		require.ErrorAs(t, err, &conflict)

		stored, err := f.requests.GetByID(rec.ID)
		require.NoError(t, err)
		require.Equal(t, models.StatusPending, stored.Status)
	})

	t.Run("complete releases item", func(t *testing.T) {
		f, rec, itemID := newLoan(true)

		_, err := f.engine.Decide(ctx, staff(), rec.ID, requestapimodels.DecisionData{
			Outcome: models.OutcomeApproved,
		})
		require.NoError(t, err)

		view, err := f.engine.Complete(ctx, staff(), rec.ID)
		require.NoError(t, err)
		require.Equal(t, models.StatusCompleted, view.Status)

		item, err := f.items.GetByID(itemID)
		require.NoError(t, err)
		require.True(t, item.Available)
	})
}

func TestDecideRelocation(t *testing.T) {
	ctx := context.Background()

	newRelocation := func() (*engineFixture, *dbmodels.RequestRecord, models.Principal, models.Principal) {
		rec := pendingRequest(models.KindRelocation)
		rec.FromBarangayID = uuid.NewString()
		rec.ToBarangayID = uuid.NewString()
		rec.Payload = dbmodels.RequestPayload{
			Relocation: &dbmodels.RelocationPayload{NewAddress: "12 Mabini St", Reason: "work"},
		}
		f := newEngineFixture(rec)
		origin := staff()
		origin.BarangayID = rec.FromBarangayID
		destination := staff()
		destination.BarangayID = rec.ToBarangayID
		return f, rec, origin, destination
	}

	t.Run("single approval stays pending", func(t *testing.T) {
		f, rec, origin, _ := newRelocation()

		view, err := f.engine.Decide(ctx, origin, rec.ID, requestapimodels.DecisionData{
			Outcome: models.OutcomeApproved,
		})
		require.NoError(t, err)
		require.Equal(t, models.StatusPending, view.Status)

		stored, err := f.requests.GetByID(rec.ID)
		require.NoError(t, err)
		require.True(t, stored.FromBarangayApproved)
		require.False(t, stored.ToBarangayApproved)
		require.Equal(t, origin.UserID, stored.FromApprovedBy)
	})

	t.Run("both approvals approve", func(t *testing.T) {
		f, rec, origin, destination := newRelocation()

		_, err := f.engine.Decide(ctx, origin, rec.ID, requestapimodels.DecisionData{
			Outcome: models.OutcomeApproved,
		})
		require.NoError(t, err)

		view, err := f.engine.Decide(ctx, destination, rec.ID, requestapimodels.DecisionData{
			Outcome: models.OutcomeApproved,
		})
		require.NoError(t, err)
		require.Equal(t, models.StatusApproved, view.Status)
		require.Len(t, f.decisions.rows, 2)
	})

	t.Run("repeated side approval fails", func(t *testing.T) {
		f, rec, origin, _ := newRelocation()

		_, err := f.engine.Decide(ctx, origin, rec.ID, requestapimodels.DecisionData{
			Outcome: models.OutcomeApproved,
		})
		require.NoError(t, err)

		_, err = f.engine.Decide(ctx, origin, rec.ID, requestapimodels.DecisionData{
			Outcome: models.OutcomeApproved,
		})
		require.Error(t, err)
	})

	t.Run("either side rejects", func(t *testing.T) {
		f, rec, origin, destination := newRelocation()

		_, err := f.engine.Decide(ctx, origin, rec.ID, requestapimodels.DecisionData{
			Outcome: models.OutcomeApproved,
		})
		require.NoError(t, err)

		view, err := f.engine.Decide(ctx, destination, rec.ID, requestapimodels.DecisionData{
			Outcome: models.OutcomeRejected,
			Reason:  "no capacity",
		})
		require.NoError(t, err)
		require.Equal(t, models.StatusRejected, view.Status)
		require.Equal(t, "no capacity", view.RejectionReason)
	})

	t.Run("outside barangay is not a party", func(t *testing.T) {
		f, rec, _, _ := newRelocation()

		_, err := f.engine.Decide(ctx, staff(), rec.ID, requestapimodels.DecisionData{
			Outcome: models.OutcomeApproved,
		})
		require.Error(t, err)
	})
}

func TestCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("requester cancels pending", func(t *testing.T) {
		rec := pendingRequest(models.KindDocument)
		f := newEngineFixture(rec)

		requester := models.Principal{UserID: rec.RequesterID, Role: models.ResidentRole}
		view, err := f.engine.Cancel(ctx, requester, rec.ID)
		require.NoError(t, err)
		require.Equal(t, models.StatusCancelled, view.Status)
		require.Len(t, f.decisions.rows, 1)
	})

	t.Run("only requester may cancel", func(t *testing.T) {
		rec := pendingRequest(models.KindDocument)
		f := newEngineFixture(rec)

		stranger := models.Principal{UserID: uuid.NewString(), Role: models.ResidentRole}
		_, err := f.engine.Cancel(ctx, stranger, rec.ID)
		require.Error(t, err)
	})

	t.Run("decided request cannot be cancelled", func(t *testing.T) {
		rec := pendingRequest(models.KindDocument)
		rec.Status = models.StatusRejected
		f := newEngineFixture(rec)

		requester := models.Principal{UserID: rec.RequesterID, Role: models.ResidentRole}
		_, err := f.engine.Cancel(ctx, requester, rec.ID)
		var trErr *apperrors.IllegalTransitionError
		require.ErrorAs(t, err, &trErr)
	})
}

func TestComplete(t *testing.T) {
	ctx := context.Background()

	t.Run("ready document completes", func(t *testing.T) {
		rec := pendingRequest(models.KindDocument)
		rec.Status = models.StatusReady
		f := newEngineFixture(rec)

		view, err := f.engine.Complete(ctx, staff(), rec.ID)
		require.NoError(t, err)
		require.Equal(t, models.StatusCompleted, view.Status)
		require.Equal(t, []string{"Request completed"}, f.notifier.events)
	})

	t.Run("pending cannot complete", func(t *testing.T) {
		rec := pendingRequest(models.KindBenefit)
		f := newEngineFixture(rec)

		_, err := f.engine.Complete(ctx, staff(), rec.ID)
		var trErr *apperrors.IllegalTransitionError
		require.ErrorAs(t, err, &trErr)
	})
}
