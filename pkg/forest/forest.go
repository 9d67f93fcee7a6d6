// Package forest evaluates serialized random-forest classifiers.
//
// A model is a set of binary decision trees over an encoded feature row.
// Numeric columns are passed through as-is; categorical columns are one-hot
// encoded in the order of their declared categories, with unknown categories
// encoded as all zeros. Each tree votes with the class distribution of the
// leaf it reaches and the forest averages those distributions.
//
// Split inputs are compared at float32 precision against float64 thresholds,
// matching how the trees were fitted.
package forest

import (
	"errors"
	"fmt"
)

// FormatV1 is the only artifact format understood by this package.
const FormatV1 = "forest/v1"

// ColumnKind describes how an input column is encoded.
type ColumnKind string

const (
	Numeric     ColumnKind = "numeric"
	Categorical ColumnKind = "categorical"
)

var (
	ErrColumnCount    = errors.New("forest: column count mismatch")
	ErrColumnMismatch = errors.New("forest: column mismatch")
	ErrNoTrees        = errors.New("forest: model has no trees")
)

// Column is one input column of the model.
type Column struct {
	Name       string     `json:"name"`
	Kind       ColumnKind `json:"kind"`
	Categories []string   `json:"categories,omitempty"`
}

// width returns the number of encoded slots the column occupies.
func (c Column) width() int {
	if c.Kind == Categorical {
		return len(c.Categories)
	}
	return 1
}

// Node is a tree node. Leaves carry per-class weights in Value; split nodes
// send x[Feature] <= Threshold to Left and everything else to Right.
type Node struct {
	Leaf      bool      `json:"leaf,omitempty"`
	Feature   int       `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      int       `json:"left,omitempty"`
	Right     int       `json:"right,omitempty"`
	Value     []float64 `json:"value,omitempty"`
}

// Tree is a flat array of nodes rooted at index 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Model is an immutable random-forest classifier. It is safe for concurrent use.
type Model struct {
	Format  string   `json:"format"`
	Classes []int    `json:"classes"`
	Columns []Column `json:"columns"`
	Trees   []Tree   `json:"trees"`

	width    int
	positive int
	index    []map[string]int
}

// Value is one named cell of an input row.
type Value struct {
	Name     string
	Number   float64
	Category string
}

// Num builds a numeric cell.
func Num(name string, v float64) Value { return Value{Name: name, Number: v} }

// Cat builds a categorical cell.
func Cat(name, v string) Value { return Value{Name: name, Category: v} }

// Width returns the encoded row width.
func (m *Model) Width() int { return m.width }

// PredictProba returns the probability of the class labelled 1 for one row.
// The row must list the model's columns in declared order.
func (m *Model) PredictProba(row []Value) (float64, error) {
	x, err := m.encode(row)
	if err != nil {
		return 0, err
	}
	if len(m.Trees) == 0 {
		return 0, ErrNoTrees
	}

	var sum float64
	for i := range m.Trees {
		p, err := m.Trees[i].vote(x, m.positive)
		if err != nil {
			return 0, fmt.Errorf("tree %d: %w", i, err)
		}
		sum += p
	}
	return sum / float64(len(m.Trees)), nil
}

func (m *Model) encode(row []Value) ([]float64, error) {
	if len(row) != len(m.Columns) {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrColumnCount, len(row), len(m.Columns))
	}
	x := make([]float64, 0, m.width)
	for i, col := range m.Columns {
		v := row[i]
		if v.Name != col.Name {
			return nil, fmt.Errorf("%w: position %d is %q, want %q", ErrColumnMismatch, i, v.Name, col.Name)
		}
		if col.Kind != Categorical {
			x = append(x, v.Number)
			continue
		}
		hot, ok := m.index[i][v.Category]
		for j := range col.Categories {
			if ok && j == hot {
				x = append(x, 1)
			} else {
				x = append(x, 0)
			}
		}
	}
	return x, nil
}

// vote walks the tree and returns the normalised weight of the positive class.
func (t *Tree) vote(x []float64, positive int) (float64, error) {
	i := 0
	// a well-formed tree reaches a leaf in at most len(Nodes) steps
	for steps := 0; steps <= len(t.Nodes); steps++ {
		n := &t.Nodes[i]
		if n.Leaf {
			var total float64
			for _, w := range n.Value {
				total += w
			}
			if total <= 0 {
				return 0, fmt.Errorf("leaf %d has no weight", i)
			}
			return n.Value[positive] / total, nil
		}
		if float64(float32(x[n.Feature])) <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return 0, errors.New("cycle detected")
}
