package models

// Column names of the feature vector, in the order the classifier was trained on.
const (
	ColAge            = "age"
	ColGender         = "gender"
	ColSmokingHistory = "smoking_history"
	ColBMI            = "bmi"
	ColHypertension   = "hypertension"
	ColHeartDisease   = "heart_disease"
)

// FeatureOrder lists the training column layout.
var FeatureOrder = []string{ColAge, ColGender, ColSmokingHistory, ColBMI, ColHypertension, ColHeartDisease}

type FeatureKind int

const (
	Numeric FeatureKind = iota
	Categorical
)

// Feature is one named cell of a feature vector.
type Feature struct {
	Name string
	Kind FeatureKind
	Num  float64
	Cat  string
}

// Value returns the cell as a JSON-friendly value.
func (f Feature) Value() interface{} {
	if f.Kind == Categorical {
		return f.Cat
	}
	return f.Num
}

// FeatureVector is a single ordered row for the classifier.
type FeatureVector []Feature

// Names returns the column names in order.
func (v FeatureVector) Names() []string {
	out := make([]string, len(v))
	for i, f := range v {
		out[i] = f.Name
	}
	return out
}

// Map returns the vector keyed by column name.
func (v FeatureVector) Map() map[string]interface{} {
	out := make(map[string]interface{}, len(v))
	for _, f := range v {
		out[f.Name] = f.Value()
	}
	return out
}
