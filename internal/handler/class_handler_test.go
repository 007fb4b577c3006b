package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rosterly/staffing-api/internal/models"
	"github.com/rosterly/staffing-api/internal/service"
	"github.com/rosterly/staffing-api/pkg/response"
)

type stubClassCreator struct {
	created []service.CreateClassRequest
}

func (c *stubClassCreator) Create(_ context.Context, req service.CreateClassRequest) (*models.AdHocClass, error) {
	c.created = append(c.created, req)
	return &models.AdHocClass{ID: "c1", ClassName: req.ClassName}, nil
}

func TestClassHandlerImport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	creator := &stubClassCreator{}
	h := NewClassHandler(nil, nil, service.NewImportService(creator, nil))

	r := gin.New()
	r.POST("/classes/import", h.Import)

	csv := strings.Join([]string{
		"kind,class_name,subject_level_id,subject_id,date,start_time,end_time,notes",
		"supplementary,Algebra Catch-up,lvl1,,2026-06-01,10:00,11:00,",
		"offset,Missed Geometry,,,not-a-date,10:00,11:00,",
	}, "\n")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/classes/import", bytes.NewBufferString(csv))
	req.Header.Set("Content-Type", "text/csv")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data service.ImportResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, 1, envelope.Data.Created)
	assert.Equal(t, 1, envelope.Data.Failed)
	require.Len(t, creator.created, 1)
	assert.Equal(t, "Algebra Catch-up", creator.created[0].ClassName)
}

func TestClassHandlerAssignRejectsUnknownStrategy(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewClassHandler(nil, nil, nil)

	r := gin.New()
	r.POST("/classes/:id/allocate", h.Assign)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/classes/c1/allocate", bytes.NewBufferString(`{"strategy":"round_robin"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "VALIDATION_ERROR", envelope.Error.Code)
}
