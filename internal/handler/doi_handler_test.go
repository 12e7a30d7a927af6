package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/journal-editorial-api/internal/models"
	appErrors "github.com/noah-isme/journal-editorial-api/pkg/errors"
)

var editorClaims = &models.JWTClaims{UserID: "editor-1", Roles: []models.UserRole{models.RoleEditor}}

func TestDOIHandlerDepositFailureCarriesRecord(t *testing.T) {
	deposit := models.NewDepositState()
	deposit.Record(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC), models.DepositSourceDeposit, errors.New("registrar timeout"), "")
	svc := &doiServiceMock{
		manuscript: &models.Manuscript{ID: "JNL-2026-00001", Deposit: deposit},
		err:        appErrors.Wrap(errors.New("registrar timeout"), appErrors.ErrExternalFailure, "doi deposit failed"),
	}
	h := NewDOIHandler(svc)
	req, _ := http.NewRequest(http.MethodPost, "/manuscripts/JNL-2026-00001/doi/deposit", nil)
	c, w := testContext(req, editorClaims)
	c.AddParam("id", "JNL-2026-00001")

	h.Deposit(c)

	require.Equal(t, http.StatusBadGateway, w.Code)
	var env struct {
		Data  models.Manuscript `json:"data"`
		Error appErrors.Error   `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, appErrors.KindExternalFailure, env.Error.Kind)
	assert.Equal(t, models.DepositStatusFailed, env.Data.Deposit.Status)
	assert.Equal(t, 1, env.Data.Deposit.Attempts)
}

func TestDOIHandlerGuardFailureHasNoData(t *testing.T) {
	h := NewDOIHandler(&doiServiceMock{err: appErrors.Clone(appErrors.ErrPreconditionFailed, "only failed deposits can be retried")})
	req, _ := http.NewRequest(http.MethodPost, "/manuscripts/JNL-2026-00001/doi/retry", nil)
	c, w := testContext(req, editorClaims)

	h.Retry(c)

	require.Equal(t, http.StatusPreconditionFailed, w.Code)
	assert.NotContains(t, w.Body.String(), `"data"`)
}

func TestDOIHandlerAssignManualAndBulkRetry(t *testing.T) {
	svc := &doiServiceMock{manuscript: &models.Manuscript{ID: "JNL-2026-00001"}}
	h := NewDOIHandler(svc)

	req, _ := http.NewRequest(http.MethodPut, "/manuscripts/JNL-2026-00001/doi", bytes.NewBufferString(`{"doi":"10.1234/abc"}`))
	req.Header.Set("Content-Type", "application/json")
	c, w := testContext(req, editorClaims)
	h.AssignManual(c)
	require.Equal(t, http.StatusOK, w.Code)

	req, _ = http.NewRequest(http.MethodPost, "/doi/bulk-retry", nil)
	c, w = testContext(req, editorClaims)
	h.BulkRetry(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"processed":3`)
	assert.Equal(t, []string{"AssignManual:10.1234/abc", "BulkRetry"}, svc.calls)
}
