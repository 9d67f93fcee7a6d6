package models

import "time"

const (
	LabelHighRisk = "High Risk"
	LabelLowRisk  = "Low Risk"

	AnswerYes = "Yes"
	AnswerNo  = "No"
)

// ScreeningRequest is the inbound patient payload.
// Numeric bounds are exclusive on both ends.
type ScreeningRequest struct {
	Age            float64 `json:"age" validate:"gt=0,lt=120"`
	Gender         string  `json:"gender" validate:"required,oneof=Male Female Other"`
	Height         float64 `json:"height" validate:"gt=0.5,lt=2.5"`
	Weight         float64 `json:"weight" validate:"gt=20,lt=300"`
	SmokingHistory string  `json:"smoking_history" validate:"required,oneof=never former current ever 'not current'"`
	Hypertension   string  `json:"hypertension" validate:"required,oneof=Yes No"`
	HeartDisease   string  `json:"heart_disease" validate:"required,oneof=Yes No"`
}

// DerivedFeatures are computed from a validated request and never persisted.
type DerivedFeatures struct {
	BMI             float64 `json:"bmi"`
	HypertensionBin int     `json:"hypertension_bin"`
	HeartDiseaseBin int     `json:"heart_disease_bin"`
}

// ScoredResult is the verdict returned to the caller.
type ScoredResult struct {
	Probability  float64 `json:"diabetes_risk_probability"`
	Label        string  `json:"screening_result"`
	Threshold    float64 `json:"screening_threshold"`
	ModelVersion string  `json:"model_version"`
}

// HealthStatus reports whether the artifacts are ready.
type HealthStatus struct {
	Status          string `json:"status"`
	ModelLoaded     bool   `json:"model_loaded"`
	ThresholdLoaded bool   `json:"threshold_loaded"`
	ModelVersion    string `json:"model_version"`
}

// ScreeningEvent is the audit record emitted after a successful screening.
// Height and weight are only kept through BMI.
type ScreeningEvent struct {
	ID             string    `json:"id"`
	Timestamp      time.Time `json:"timestamp"`
	Age            float64   `json:"age"`
	Gender         string    `json:"gender"`
	SmokingHistory string    `json:"smoking_history"`
	BMI            float64   `json:"bmi"`
	Hypertension   int       `json:"hypertension"`
	HeartDisease   int       `json:"heart_disease"`
	Probability    float64   `json:"probability"`
	Label          string    `json:"label"`
	Threshold      float64   `json:"threshold"`
	ModelVersion   string    `json:"model_version"`
	LatencyMs      float64   `json:"latency_ms"`
}
