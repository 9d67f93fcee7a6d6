package forest

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testModel = `{
  "format": "forest/v1",
  "classes": [0, 1],
  "columns": [
    {"name": "age", "kind": "numeric"},
    {"name": "gender", "kind": "categorical", "categories": ["Female", "Male", "Other"]},
    {"name": "smoking_history", "kind": "categorical", "categories": ["current", "ever", "former", "never", "not current"]},
    {"name": "bmi", "kind": "numeric"},
    {"name": "hypertension", "kind": "numeric"},
    {"name": "heart_disease", "kind": "numeric"}
  ],
  "trees": [
    {"nodes": [
      {"feature": 0, "threshold": 50, "left": 1, "right": 2},
      {"leaf": true, "value": [80, 20]},
      {"leaf": true, "value": [40, 60]}
    ]},
    {"nodes": [
      {"feature": 10, "threshold": 0.5, "left": 1, "right": 2},
      {"leaf": true, "value": [0.9, 0.1]},
      {"feature": 9, "threshold": 30, "left": 3, "right": 4},
      {"leaf": true, "value": [5, 5]},
      {"leaf": true, "value": [2, 8]}
    ]}
  ]
}`

func loadTestModel(t *testing.T) *Model {
	t.Helper()
	m, err := Load(strings.NewReader(testModel))
	require.NoError(t, err)
	return m
}

func row(age float64, gender, smoking string, bmi, hyp, heart float64) []Value {
	return []Value{
		Num("age", age),
		Cat("gender", gender),
		Cat("smoking_history", smoking),
		Num("bmi", bmi),
		Num("hypertension", hyp),
		Num("heart_disease", heart),
	}
}

func TestLoadComputesWidth(t *testing.T) {
	m := loadTestModel(t)
	assert.Equal(t, 12, m.Width())
}

func TestPredictProbaAveragesTrees(t *testing.T) {
	m := loadTestModel(t)

	tests := []struct {
		name string
		row  []Value
		want float64
	}{
		{"young hypertensive", row(45, "Male", "former", 27.76, 1, 0), (0.2 + 0.5) / 2},
		{"older hypertensive obese", row(60, "Female", "never", 35, 1, 1), (0.6 + 0.8) / 2},
		{"young normotensive", row(30, "Other", "not current", 22, 0, 0), (0.2 + 0.1) / 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.PredictProba(tt.row)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestPredictProbaDeterministic(t *testing.T) {
	m := loadTestModel(t)
	r := row(45, "Male", "former", 27.76, 1, 0)
	first, err := m.PredictProba(r)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		got, err := m.PredictProba(r)
		require.NoError(t, err)
		assert.Equal(t, first, got)
	}
}

func TestEncodeOneHot(t *testing.T) {
	m := loadTestModel(t)

	x, err := m.encode(row(45, "Male", "not current", 27.76, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, []float64{45, 0, 1, 0, 0, 0, 0, 0, 1, 27.76, 1, 0}, x)

	x, err = m.encode(row(45, "Unknown", "former", 27.76, 1, 0))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0}, x[1:4], "unknown category encodes as zeros")
}

func TestPredictProbaRejectsWrongLayout(t *testing.T) {
	m := loadTestModel(t)

	_, err := m.PredictProba(row(45, "Male", "former", 27.76, 1, 0)[:5])
	assert.True(t, errors.Is(err, ErrColumnCount))

	swapped := row(45, "Male", "former", 27.76, 1, 0)
	swapped[1], swapped[2] = swapped[2], swapped[1]
	_, err = m.PredictProba(swapped)
	assert.True(t, errors.Is(err, ErrColumnMismatch))
}

func TestLoadRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":        `{{`,
		"wrong format":    strings.Replace(testModel, "forest/v1", "forest/v0", 1),
		"no positive":     strings.Replace(testModel, `"classes": [0, 1]`, `"classes": [0, 2]`, 1),
		"bad kind":        strings.Replace(testModel, `"kind": "numeric"}`, `"kind": "ordinal"}`, 1),
		"child backwards": strings.Replace(testModel, `"left": 3, "right": 4`, `"left": 1, "right": 4`, 1),
		"feature range":   strings.Replace(testModel, `"feature": 9,`, `"feature": 12,`, 1),
		"leaf arity":      strings.Replace(testModel, `[80, 20]`, `[80, 20, 1]`, 1),
		"unknown field":   strings.Replace(testModel, `"format"`, `"flavour": 1, "format"`, 1),
		"no trees":        testModel[:strings.Index(testModel, `"trees"`)] + `"trees": []}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

const stumpModel = `{
  "format": "forest/v1",
  "classes": [0, 1],
  "columns": [{"name": "x", "kind": "numeric"}],
  "trees": [{"nodes": [
    {"feature": 0, "threshold": %s, "left": 1, "right": 2},
    {"leaf": true, "value": [1, 0]},
    {"leaf": true, "value": [0, 1]}
  ]}]
}`

func TestSplitComparesAtFloat32(t *testing.T) {
	tests := []struct {
		threshold string
		x         float64
		want      float64
	}{
		{"0.5", 0.5, 0},
		{"0.5", 0.50000000001, 0},
		{"0.5", 0.5001, 1},
		{"0.1", 0.09, 0},
		{"0.1", 0.1, 1},
	}
	for _, tt := range tests {
		m, err := Load(strings.NewReader(fmt.Sprintf(stumpModel, tt.threshold)))
		require.NoError(t, err)
		got, err := m.PredictProba([]Value{Num("x", tt.x)})
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "x=%v threshold=%s", tt.x, tt.threshold)
	}
}
