package features

import (
	"testing"

	"DiabScreen/internal/domain/models"

	"github.com/stretchr/testify/assert"
)

func sampleRequest() *models.ScreeningRequest {
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

func TestDerive(t *testing.T) {
	d := Derive(sampleRequest())
	assert.Equal(t, 27.76, d.BMI)
	assert.Equal(t, 1, d.HypertensionBin)
	assert.Equal(t, 0, d.HeartDiseaseBin)
}

func TestBMIRounding(t *testing.T) {
	cases := []struct {
		h, w float64
		want float64
	}{
		{1.75, 85, 27.76},
		{1.80, 72, 22.22},
		{1.60, 50, 19.53},
		{2.0, 100, 25},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, BMI(c.h, c.w), "h=%v w=%v", c.h, c.w)
	}
}

func TestYesNo(t *testing.T) {
	assert.Equal(t, 1, YesNo("Yes"))
	assert.Equal(t, 0, YesNo("No"))
	assert.Equal(t, 0, YesNo("yes"))
}

func TestBuildVectorOrder(t *testing.T) {
	req := sampleRequest()
	vec := BuildVector(req, Derive(req))

	assert.Equal(t, models.FeatureOrder, vec.Names())
	assert.Equal(t, map[string]interface{}{
		"age":             45.0,
		"gender":          "Male",
		"smoking_history": "former",
		"bmi":             27.76,
		"hypertension":    1.0,
		"heart_disease":   0.0,
	}, vec.Map())
}
