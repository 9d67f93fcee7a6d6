package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"DiabScreen/internal/domain/models"
	domsvc "DiabScreen/internal/domain/service"
	"DiabScreen/internal/service/ratelimit"
	"DiabScreen/internal/usecase"
	xhttp "DiabScreen/pkg/http"
	xlogger "DiabScreen/pkg/logger"
	"DiabScreen/pkg/metrics"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClassifier struct {
	p     float64
	err   error
	calls int
}

func (s *stubClassifier) PredictProba(context.Context, models.FeatureVector) (float64, error) {
	s.calls++
	return s.p, s.err
}

const validBody = `{"age":45,"gender":"Male","height":1.75,"weight":85,"smoking_history":"former","hypertension":"Yes","heart_disease":"No"}`

func newTestEcho(clf domsvc.Classifier, limiter *ratelimit.TokenBucket) *echo.Echo {
	var bundle *domsvc.Bundle
	if clf != nil {
		bundle = &domsvc.Bundle{Model: clf, Threshold: 0.4, Version: "1.0.0", LoadedAt: time.Now()}
	}
	screener := usecase.NewScreener(bundle, metrics.Nop{}, nil, xlogger.Nop())

	var h *ScreeningEchoHandler
	if limiter != nil {
		h = NewScreeningEchoHandler(xlogger.Nop(), screener, limiter)
	} else {
		h = NewScreeningEchoHandler(xlogger.Nop(), screener, nil)
	}
	e := echo.New()
	h.RegisterRoutes(e)
	return e
}

func do(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRoot(t *testing.T) {
	rec := do(newTestEcho(&stubClassifier{}, nil), http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Diabetes Screening API is running"}`, rec.Body.String())
}

func TestHealth(t *testing.T) {
	rec := do(newTestEcho(&stubClassifier{}, nil), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"OK","model_loaded":true,"threshold_loaded":true,"model_version":"1.0.0"}`, rec.Body.String())
}

func TestScreenSuccess(t *testing.T) {
	rec := do(newTestEcho(&stubClassifier{p: 0.6834}, nil), http.MethodPost, "/screen-diabetes", validBody)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"diabetes_risk_probability": 0.683,
		"screening_result": "High Risk",
		"screening_threshold": 0.4,
		"model_version": "1.0.0"
	}`, rec.Body.String())
}

func TestScreenValidationIs422(t *testing.T) {
	clf := &stubClassifier{p: 0.9}
	e := newTestEcho(clf, nil)
	body := strings.Replace(validBody, `"weight":85`, `"weight":310`, 1)

	rec := do(e, http.MethodPost, "/screen-diabetes", body)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, 0, clf.calls)

	var resp xhttp.APIResponse422Err
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Status)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "weight", resp.Data[0].Field)
	assert.Equal(t, "ERR_LT", resp.Data[0].Code)
}

func TestScreenMalformedBodyIs422(t *testing.T) {
	cases := map[string]string{
		"broken json": `{"age":`,
		"wrong type":  strings.Replace(validBody, `"age":45`, `"age":"old"`, 1),
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			clf := &stubClassifier{}
			rec := do(newTestEcho(clf, nil), http.MethodPost, "/screen-diabetes", body)
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			assert.Contains(t, rec.Body.String(), "ERR_DECODE")
			assert.Equal(t, 0, clf.calls)
		})
	}
}

func TestScreenEmptyObjectListsAllFields(t *testing.T) {
	rec := do(newTestEcho(&stubClassifier{}, nil), http.MethodPost, "/screen-diabetes", `{}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var resp xhttp.APIResponse422Err
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	fields := make([]string, 0, len(resp.Data))
	for _, d := range resp.Data {
		fields = append(fields, d.Field)
	}
	assert.ElementsMatch(t, []string{
		"age", "gender", "height", "weight", "smoking_history", "hypertension", "heart_disease",
	}, fields)
}

func TestScreenScoringFailureIs500(t *testing.T) {
	rec := do(newTestEcho(&stubClassifier{err: errors.New("bad row")}, nil), http.MethodPost, "/screen-diabetes", validBody)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "ERR_INTERNAL")
}

func TestScreenNotReadyIs503(t *testing.T) {
	e := newTestEcho(nil, nil)
	rec := do(e, http.MethodPost, "/screen-diabetes", validBody)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"OK","model_loaded":false,"threshold_loaded":false,"model_version":""}`, rec.Body.String())
}

func TestScreenRateLimited(t *testing.T) {
	e := newTestEcho(&stubClassifier{p: 0.1}, ratelimit.NewTokenBucket(1, 0))

	rec := do(e, http.MethodPost, "/screen-diabetes", validBody)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodPost, "/screen-diabetes", validBody)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "ERR_RATE_LIMITED")

	rec = do(e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code, "only screening is throttled")
}
