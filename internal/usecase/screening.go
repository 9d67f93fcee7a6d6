package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"DiabScreen/internal/domain/models"
	domrepo "DiabScreen/internal/domain/repository"
	domsvc "DiabScreen/internal/domain/service"
	"DiabScreen/internal/services/features"
	applogger "DiabScreen/pkg/logger"
	"DiabScreen/pkg/util"
	"DiabScreen/pkg/validate"

	"github.com/google/uuid"
)

// ResultPlaces is the precision of probability and threshold in responses.
const ResultPlaces = 3

// ErrNotReady is returned when no artifacts are loaded.
var ErrNotReady = errors.New("screening model not loaded")

type Screener struct {
	bundle  *domsvc.Bundle
	version string
	metrics domrepo.Metrics
	events  domsvc.EventQueue
	log     *applogger.Logger
	now     func() time.Time
}

// ScreenerOption configures a Screener.
type ScreenerOption func(*Screener)

// WithModelVersion sets the version reported by Health before a bundle is loaded.
func WithModelVersion(v string) ScreenerOption {
	return func(s *Screener) {
		s.version = v
	}
}

// NewScreener wires a screener. events may be nil.
func NewScreener(bundle *domsvc.Bundle, metrics domrepo.Metrics, events domsvc.EventQueue, log *applogger.Logger, opts ...ScreenerOption) *Screener {
	s := &Screener{
		bundle:  bundle,
		metrics: metrics,
		events:  events,
		log:     log.Named("screener"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if bundle != nil && bundle.Version != "" {
		s.version = bundle.Version
	}
	return s
}

// Screen validates req, scores it and labels the result. Nothing is scored
// unless the whole request is valid.
func (s *Screener) Screen(ctx context.Context, req *models.ScreeningRequest) (*models.ScoredResult, error) {
	if errs := validate.Struct(ctx, req); len(errs) > 0 {
		s.metrics.RecordError("validation")
		return nil, toValidationError(errs)
	}
	if s.bundle == nil || s.bundle.Model == nil {
		return nil, ErrNotReady
	}

	start := s.now()
	derived := features.Derive(req)
	vec := features.BuildVector(req, derived)

	p, err := s.bundle.Model.PredictProba(ctx, vec)
	if err == nil && (math.IsNaN(p) || p < 0 || p > 1) {
		err = fmt.Errorf("probability %v outside [0,1]", p)
	}
	if err != nil {
		s.metrics.RecordError("scoring")
		s.log.Error("scoring failed", applogger.Error(err))
		return nil, &models.ScoringError{Err: err}
	}
	elapsed := s.now().Sub(start)
	s.metrics.RecordLatency("score", elapsed.Seconds())

	label := models.LabelLowRisk
	if p >= s.bundle.Threshold {
		label = models.LabelHighRisk
	}
	s.metrics.RecordScreening(label, p)

	res := &models.ScoredResult{
		Probability:  util.Round(p, ResultPlaces),
		Label:        label,
		Threshold:    util.Round(s.bundle.Threshold, ResultPlaces),
		ModelVersion: s.bundle.Version,
	}

	s.emit(req, derived, p, label, elapsed)
	return res, nil
}

// Health reports artifact readiness. It never fails.
func (s *Screener) Health() models.HealthStatus {
	h := models.HealthStatus{Status: "OK", ModelVersion: s.version}
	if s.bundle != nil {
		h.ModelLoaded = s.bundle.Model != nil
		h.ThresholdLoaded = true
	}
	return h
}

func (s *Screener) emit(req *models.ScreeningRequest, d models.DerivedFeatures, p float64, label string, elapsed time.Duration) {
	if s.events == nil {
		return
	}
	ev := &models.ScreeningEvent{
		ID:             uuid.NewString(),
		Timestamp:      s.now().UTC(),
		Age:            req.Age,
		Gender:         req.Gender,
		SmokingHistory: req.SmokingHistory,
		BMI:            d.BMI,
		Hypertension:   d.HypertensionBin,
		HeartDisease:   d.HeartDiseaseBin,
		Probability:    p,
		Label:          label,
		Threshold:      s.bundle.Threshold,
		ModelVersion:   s.bundle.Version,
		LatencyMs:      float64(elapsed.Microseconds()) / 1000,
	}
	if !s.events.Enqueue(ev) {
		s.log.Debug("screening event dropped", applogger.String("id", ev.ID))
	}
}

func toValidationError(errs []validate.FieldError) *models.ValidationError {
	out := &models.ValidationError{Violations: make([]models.Violation, 0, len(errs))}
	for _, e := range errs {
		out.Violations = append(out.Violations, models.Violation{
			Code:    e.Code,
			Field:   e.Field,
			Message: e.Message,
			Params:  e.Params,
		})
	}
	return out
}
