package usecase

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"DiabScreen/internal/domain/models"
	domsvc "DiabScreen/internal/domain/service"
	applogger "DiabScreen/pkg/logger"
	"DiabScreen/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClassifier struct {
	mu    sync.Mutex
	p     float64
	err   error
	calls int
	last  models.FeatureVector
}

func (f *fakeClassifier) PredictProba(_ context.Context, vec models.FeatureVector) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.last = vec
	return f.p, f.err
}

type fakeQueue struct {
	events []*models.ScreeningEvent
	full   bool
}

func (q *fakeQueue) Enqueue(ev *models.ScreeningEvent) bool {
	if q.full {
		return false
	}
	q.events = append(q.events, ev)
	return true
}

func validRequest() *models.ScreeningRequest {
	return &models.ScreeningRequest{
		Age:            45,
		Gender:         "Male",
		Height:         1.75,
		Weight:         85,
		SmokingHistory: "former",
		Hypertension:   "Yes",
		HeartDisease:   "No",
	}
}

func newScreener(c domsvc.Classifier, threshold float64, q domsvc.EventQueue) *Screener {
	bundle := &domsvc.Bundle{Model: c, Threshold: threshold, Version: "1.0.0", LoadedAt: time.Now()}
	return NewScreener(bundle, metrics.Nop{}, q, applogger.Nop())
}

func TestScreenExample(t *testing.T) {
	clf := &fakeClassifier{p: 0.6834}
	q := &fakeQueue{}
	s := newScreener(clf, 0.4, q)

	res, err := s.Screen(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, &models.ScoredResult{
		Probability:  0.683,
		Label:        models.LabelHighRisk,
		Threshold:    0.4,
		ModelVersion: "1.0.0",
	}, res)

	require.Len(t, clf.last, 6)
	assert.Equal(t, models.FeatureOrder, clf.last.Names())
	assert.Equal(t, 27.76, clf.last[3].Num)
	assert.Equal(t, 1.0, clf.last[4].Num)
	assert.Equal(t, 0.0, clf.last[5].Num)

	require.Len(t, q.events, 1)
	ev := q.events[0]
	assert.NotEmpty(t, ev.ID)
	assert.Equal(t, 27.76, ev.BMI)
	assert.Equal(t, 0.6834, ev.Probability)
	assert.Equal(t, models.LabelHighRisk, ev.Label)
}

func TestScreenThresholdIsInclusive(t *testing.T) {
	cases := []struct {
		p, threshold float64
		want         string
	}{
		{0.5, 0.5, models.LabelHighRisk},
		{0.4999, 0.5, models.LabelLowRisk},
		{0.0, 0.0, models.LabelHighRisk},
		{1.0, 1.0, models.LabelHighRisk},
		{0.9999, 1.0, models.LabelLowRisk},
	}
	for _, tc := range cases {
		s := newScreener(&fakeClassifier{p: tc.p}, tc.threshold, nil)
		res, err := s.Screen(context.Background(), validRequest())
		require.NoError(t, err)
		assert.Equal(t, tc.want, res.Label, "p=%v threshold=%v", tc.p, tc.threshold)
	}
}

func TestScreenLabelsOnUnroundedProbability(t *testing.T) {
	// 0.4996 rounds to 0.5 but is still below the threshold
	s := newScreener(&fakeClassifier{p: 0.4996}, 0.5, nil)
	res, err := s.Screen(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, 0.5, res.Probability)
	assert.Equal(t, models.LabelLowRisk, res.Label)
}

func TestScreenRoundsThreshold(t *testing.T) {
	s := newScreener(&fakeClassifier{p: 0.1}, 0.41234, nil)
	res, err := s.Screen(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, 0.412, res.Threshold)
}

func TestScreenValidationNeverCallsModel(t *testing.T) {
	mutate := map[string]func(r *models.ScreeningRequest){
		"age zero":        func(r *models.ScreeningRequest) { r.Age = 0 },
		"age 120":         func(r *models.ScreeningRequest) { r.Age = 120 },
		"height 0.5":      func(r *models.ScreeningRequest) { r.Height = 0.5 },
		"height 2.5":      func(r *models.ScreeningRequest) { r.Height = 2.5 },
		"weight 310":      func(r *models.ScreeningRequest) { r.Weight = 310 },
		"weight 20":       func(r *models.ScreeningRequest) { r.Weight = 20 },
		"gender":          func(r *models.ScreeningRequest) { r.Gender = "male" },
		"smoking":         func(r *models.ScreeningRequest) { r.SmokingHistory = "No Info" },
		"hypertension":    func(r *models.ScreeningRequest) { r.Hypertension = "Y" },
		"heart disease":   func(r *models.ScreeningRequest) { r.HeartDisease = "" },
		"negative weight": func(r *models.ScreeningRequest) { r.Weight = -1 },
	}
	for name, m := range mutate {
		t.Run(name, func(t *testing.T) {
			clf := &fakeClassifier{p: 0.9}
			q := &fakeQueue{}
			s := newScreener(clf, 0.5, q)
			req := validRequest()
			m(req)

			res, err := s.Screen(context.Background(), req)
			assert.Nil(t, res)
			var ve *models.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Len(t, ve.Violations, 1)
			assert.Equal(t, 0, clf.calls)
			assert.Empty(t, q.events)
		})
	}
}

func TestScreenReportsEveryViolation(t *testing.T) {
	s := newScreener(&fakeClassifier{}, 0.5, nil)
	req := validRequest()
	req.Age = 130
	req.Weight = 310
	req.SmokingHistory = "sometimes"

	_, err := s.Screen(context.Background(), req)
	var ve *models.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.ElementsMatch(t, []string{"age", "weight", "smoking_history"}, ve.Fields())
}

func TestScreenAcceptsNotCurrent(t *testing.T) {
	clf := &fakeClassifier{p: 0.2}
	s := newScreener(clf, 0.5, nil)
	req := validRequest()
	req.SmokingHistory = "not current"

	_, err := s.Screen(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "not current", clf.last[2].Cat)
}

func TestScreenScoringErrors(t *testing.T) {
	cases := map[string]*fakeClassifier{
		"model error": {err: errors.New("bad row")},
		"nan":         {p: math.NaN()},
		"above one":   {p: 1.2},
		"negative":    {p: -0.1},
	}
	for name, clf := range cases {
		t.Run(name, func(t *testing.T) {
			q := &fakeQueue{}
			s := newScreener(clf, 0.5, q)
			res, err := s.Screen(context.Background(), validRequest())
			assert.Nil(t, res)
			var se *models.ScoringError
			assert.True(t, errors.As(err, &se))
			assert.Empty(t, q.events)
		})
	}
}

func TestScreenIsIdempotent(t *testing.T) {
	s := newScreener(&fakeClassifier{p: 0.3141}, 0.5, nil)
	first, err := s.Screen(context.Background(), validRequest())
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		got, err := s.Screen(context.Background(), validRequest())
		require.NoError(t, err)
		assert.Equal(t, first, got)
	}
}

func TestScreenDroppedEventDoesNotFail(t *testing.T) {
	s := newScreener(&fakeClassifier{p: 0.3}, 0.5, &fakeQueue{full: true})
	_, err := s.Screen(context.Background(), validRequest())
	assert.NoError(t, err)
}

func TestScreenNotReady(t *testing.T) {
	s := NewScreener(nil, metrics.Nop{}, nil, applogger.Nop())
	_, err := s.Screen(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrNotReady)

	h := s.Health()
	assert.Equal(t, "OK", h.Status)
	assert.False(t, h.ModelLoaded)
	assert.False(t, h.ThresholdLoaded)
}

func TestHealthReportsConfiguredVersionBeforeLoad(t *testing.T) {
	s := NewScreener(nil, metrics.Nop{}, nil, applogger.Nop(), WithModelVersion("1.0.0"))
	assert.Equal(t, models.HealthStatus{
		Status:       "OK",
		ModelVersion: "1.0.0",
	}, s.Health())
}

func TestHealth(t *testing.T) {
	s := newScreener(&fakeClassifier{}, 0.5, nil)
	assert.Equal(t, models.HealthStatus{
		Status:          "OK",
		ModelLoaded:     true,
		ThresholdLoaded: true,
		ModelVersion:    "1.0.0",
	}, s.Health())
}
