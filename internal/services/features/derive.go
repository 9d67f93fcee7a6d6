// Package features turns a validated screening request into classifier input.
package features

import (
	"DiabScreen/internal/domain/models"
	"DiabScreen/pkg/util"
)

// BMIPlaces is the precision BMI is rounded to before it reaches the model.
const BMIPlaces = 2

// BMI returns weight / height² rounded to two decimals.
func BMI(heightM, weightKg float64) float64 {
	return util.Round(weightKg/(heightM*heightM), BMIPlaces)
}

// YesNo maps "Yes" to 1 and anything else to 0.
func YesNo(answer string) int {
	if answer == models.AnswerYes {
		return 1
	}
	return 0
}

// Derive computes the features that are not sent verbatim.
// The request must already be valid; height is therefore never zero.
func Derive(req *models.ScreeningRequest) models.DerivedFeatures {
	return models.DerivedFeatures{
		BMI:             BMI(req.Height, req.Weight),
		HypertensionBin: YesNo(req.Hypertension),
		HeartDiseaseBin: YesNo(req.HeartDisease),
	}
}

// BuildVector lays out the classifier row in training column order.
func BuildVector(req *models.ScreeningRequest, d models.DerivedFeatures) models.FeatureVector {
	return models.FeatureVector{
		{Name: models.ColAge, Kind: models.Numeric, Num: req.Age},
		{Name: models.ColGender, Kind: models.Categorical, Cat: req.Gender},
		{Name: models.ColSmokingHistory, Kind: models.Categorical, Cat: req.SmokingHistory},
		{Name: models.ColBMI, Kind: models.Numeric, Num: d.BMI},
		{Name: models.ColHypertension, Kind: models.Numeric, Num: float64(d.HypertensionBin)},
		{Name: models.ColHeartDisease, Kind: models.Numeric, Num: float64(d.HeartDiseaseBin)},
	}
}
