package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rosterly/staffing-api/internal/models"
	"github.com/rosterly/staffing-api/internal/repository"
	appErrors "github.com/rosterly/staffing-api/pkg/errors"
)

// fakeAdhocStore is an in-memory class repository with the same version
// guard semantics as the SQL layer.
type fakeAdhocStore struct {
	classes map[string]*models.AdHocClass
}

func newFakeAdhocStore(classes ...*models.AdHocClass) *fakeAdhocStore {
	store := &fakeAdhocStore{classes: make(map[string]*models.AdHocClass)}
	for _, c := range classes {
		store.classes[c.ID] = c
	}
	return store
}

func (f *fakeAdhocStore) List(ctx context.Context, filter models.AdHocClassFilter) ([]models.AdHocClass, int, error) {
	var out []models.AdHocClass
	for _, c := range f.classes {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (f *fakeAdhocStore) FindByID(ctx context.Context, id string) (*models.AdHocClass, error) {
	c, ok := f.classes[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copy := *c
	return &copy, nil
}

func (f *fakeAdhocStore) Create(ctx context.Context, class *models.AdHocClass) error {
	if class.ID == "" {
		class.ID = "gen-class"
	}
	class.Version = 1
	copy := *class
	f.classes[class.ID] = &copy
	return nil
}

func (f *fakeAdhocStore) Update(ctx context.Context, class *models.AdHocClass) error {
	if _, ok := f.classes[class.ID]; !ok {
		return sql.ErrNoRows
	}
	copy := *class
	f.classes[class.ID] = &copy
	return nil
}

func (f *fakeAdhocStore) SetStatus(ctx context.Context, classID string, version int, status models.ClassStatus) error {
	c, ok := f.classes[classID]
	if !ok || c.Version != version {
		return repository.ErrVersionConflict
	}
	c.Status = status
	c.Version++
	return nil
}

func (f *fakeAdhocStore) ClearAssignment(ctx context.Context, classID string, version int, history []string) error {
	c, ok := f.classes[classID]
	if !ok || c.Version != version {
		return repository.ErrVersionConflict
	}
	c.AssignedTeacherID = nil
	c.AssignedHistory = history
	c.Status = models.StatusPending
	c.Version++
	return nil
}

func (f *fakeAdhocStore) Delete(ctx context.Context, id string) error {
	if _, ok := f.classes[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.classes, id)
	return nil
}

func classRequest(kind string) CreateClassRequest {
	req := CreateClassRequest{
		Kind:          kind,
		ClassName:     "Extra session",
		ScheduledDate: day("2026-06-10"),
		StartTime:     "10:00",
		EndTime:       "11:00",
	}
	if kind == "test" {
		req.SubjectID = strPtr("sub1")
	} else {
		req.SubjectLevelID = strPtr("lvl1")
	}
	return req
}

func TestAdHocCreatePending(t *testing.T) {
	store := newFakeAdhocStore()
	stats := &fakeStatsSpy{}
	svc := NewAdHocClassService(store, stats, nil, zap.NewNop())

	class, err := svc.Create(context.Background(), classRequest("offset"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, class.Status)
	assert.Equal(t, models.KindOffset, class.Kind)
	assert.Equal(t, 1, stats.invalidations)
}

func TestAdHocCreateOffsetNeedsLevel(t *testing.T) {
	svc := NewAdHocClassService(newFakeAdhocStore(), nil, nil, zap.NewNop())

	req := classRequest("offset")
	req.SubjectLevelID = nil
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAdHocCreateTestNeedsSubject(t *testing.T) {
	svc := NewAdHocClassService(newFakeAdhocStore(), nil, nil, zap.NewNop())

	req := classRequest("test")
	req.SubjectID = nil
	req.SubjectLevelID = strPtr("lvl1")
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAdHocUpdateAssignedWindowLocked(t *testing.T) {
	class := pendingClass()
	class.Status = models.StatusAssigned
	class.AssignedTeacherID = strPtr("t1")
	svc := NewAdHocClassService(newFakeAdhocStore(class), nil, nil, zap.NewNop())

	_, err := svc.Update(context.Background(), "c1", UpdateClassRequest{
		ClassName:     class.ClassName,
		ScheduledDate: class.ScheduledDate,
		StartTime:     "11:00",
		EndTime:       "12:00",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAdHocUpdateAssignedDetailsAllowed(t *testing.T) {
	class := pendingClass()
	class.Status = models.StatusAssigned
	class.AssignedTeacherID = strPtr("t1")
	svc := NewAdHocClassService(newFakeAdhocStore(class), nil, nil, zap.NewNop())

	got, err := svc.Update(context.Background(), "c1", UpdateClassRequest{
		ClassName:     "Renamed",
		ScheduledDate: class.ScheduledDate,
		StartTime:     class.StartTime,
		EndTime:       class.EndTime,
		Notes:         strPtr("bring worksheets"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.ClassName)
}

func TestAdHocCompleteRequiresAssigned(t *testing.T) {
	svc := NewAdHocClassService(newFakeAdhocStore(pendingClass()), nil, nil, zap.NewNop())

	_, err := svc.Complete(context.Background(), "c1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAdHocCancelFromAssigned(t *testing.T) {
	class := pendingClass()
	class.Status = models.StatusAssigned
	class.AssignedTeacherID = strPtr("t1")
	svc := NewAdHocClassService(newFakeAdhocStore(class), nil, nil, zap.NewNop())

	got, err := svc.Cancel(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)
	assert.Equal(t, 2, got.Version)
}

func TestAdHocTerminalImmutable(t *testing.T) {
	class := pendingClass()
	class.Status = models.StatusCompleted
	svc := NewAdHocClassService(newFakeAdhocStore(class), nil, nil, zap.NewNop())

	_, err := svc.Cancel(context.Background(), "c1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTerminalStatus.Code, appErrors.FromError(err).Code)
}

func TestAdHocUnassignKeepsHistory(t *testing.T) {
	class := pendingClass()
	class.Status = models.StatusAssigned
	class.AssignedTeacherID = strPtr("t1")
	class.AssignedHistory = []string{"t1"}
	store := newFakeAdhocStore(class)
	svc := NewAdHocClassService(store, nil, nil, zap.NewNop())

	got, err := svc.Unassign(context.Background(), "c1")
	require.NoError(t, err)
	assert.Nil(t, got.AssignedTeacherID)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.Equal(t, []string{"t1"}, []string(store.classes["c1"].AssignedHistory))
}

func TestAdHocDeleteAssignedRefused(t *testing.T) {
	class := pendingClass()
	class.Status = models.StatusAssigned
	class.AssignedTeacherID = strPtr("t1")
	svc := NewAdHocClassService(newFakeAdhocStore(class), nil, nil, zap.NewNop())

	err := svc.Delete(context.Background(), "c1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAdHocDeletePending(t *testing.T) {
	store := newFakeAdhocStore(pendingClass())
	svc := NewAdHocClassService(store, nil, nil, zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), "c1"))
	assert.Empty(t, store.classes)
}
