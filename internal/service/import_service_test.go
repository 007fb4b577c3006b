package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rosterly/staffing-api/internal/models"
	appErrors "github.com/rosterly/staffing-api/pkg/errors"
)

type fakeClassCreator struct {
	created []CreateClassRequest
	failOn  string
}

func (f *fakeClassCreator) Create(ctx context.Context, req CreateClassRequest) (*models.AdHocClass, error) {
	if f.failOn != "" && req.ClassName == f.failOn {
		return nil, appErrors.Clone(appErrors.ErrValidation, "offset class requires a subject level")
	}
	f.created = append(f.created, req)
	return &models.AdHocClass{ID: "gen", ClassName: req.ClassName}, nil
}

const importHeader = "kind,class_name,subject_level_id,subject_id,date,start_time,end_time,notes\n"

func TestImportClasses(t *testing.T) {
	creator := &fakeClassCreator{}
	svc := NewImportService(creator, zap.NewNop())

	csv := importHeader +
		"offset,Catch-up maths,lvl1,,2026-06-10,10:00,11:00,bring calculators\n" +
		"test,Midterm,,sub1,2026-06-11,09:00,10:30,\n"
	result, err := svc.ImportClasses(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 0, result.Failed)
	require.Len(t, creator.created, 2)
	assert.Equal(t, "offset", creator.created[0].Kind)
	assert.Equal(t, "bring calculators", *creator.created[0].Notes)
	assert.Equal(t, "sub1", *creator.created[1].SubjectID)
}

func TestImportClassesBadRowsCollected(t *testing.T) {
	creator := &fakeClassCreator{failOn: "Broken"}
	svc := NewImportService(creator, zap.NewNop())

	csv := importHeader +
		"offset,Fine,lvl1,,2026-06-10,10:00,11:00,\n" +
		"offset,Bad date,lvl1,,June 10th,10:00,11:00,\n" +
		"offset,Broken,lvl1,,2026-06-10,10:00,11:00,\n"
	result, err := svc.ImportClasses(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 2, result.Failed)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, 3, result.Errors[0].Row)
	assert.Contains(t, result.Errors[0].Message, "invalid date")
	assert.Equal(t, 4, result.Errors[1].Row)
}

func TestImportClassesMissingColumn(t *testing.T) {
	svc := NewImportService(&fakeClassCreator{}, zap.NewNop())

	_, err := svc.ImportClasses(context.Background(), strings.NewReader("kind,class_name\noffset,x\n"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestImportClassesEmptyStream(t *testing.T) {
	svc := NewImportService(&fakeClassCreator{}, zap.NewNop())

	_, err := svc.ImportClasses(context.Background(), strings.NewReader(""))
	require.Error(t, err)
}
