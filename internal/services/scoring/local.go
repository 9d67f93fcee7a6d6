// Package scoring provides the Classifier implementations.
package scoring

import (
	"context"

	"DiabScreen/internal/domain/models"
	"DiabScreen/pkg/forest"
)

// Forest scores in-process with a loaded random-forest model.
type Forest struct {
	model *forest.Model
}

func NewForest(m *forest.Model) *Forest {
	return &Forest{model: m}
}

func (f *Forest) PredictProba(_ context.Context, vec models.FeatureVector) (float64, error) {
	row := make([]forest.Value, len(vec))
	for i, feat := range vec {
		if feat.Kind == models.Categorical {
			row[i] = forest.Cat(feat.Name, feat.Cat)
		} else {
			row[i] = forest.Num(feat.Name, feat.Num)
		}
	}
	return f.model.PredictProba(row)
}
