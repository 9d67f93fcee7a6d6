package forest

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Load decodes and validates a model artifact.
func Load(r io.Reader) (*Model, error) {
	var m Model
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	if err := m.prepare(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadFile opens path and decodes it with Load.
func LoadFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open model: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// prepare validates the decoded structure and builds lookup tables.
func (m *Model) prepare() error {
	if m.Format != FormatV1 {
		return fmt.Errorf("unsupported model format %q", m.Format)
	}
	if len(m.Classes) < 2 {
		return fmt.Errorf("model needs at least two classes, got %d", len(m.Classes))
	}
	m.positive = -1
	for i, c := range m.Classes {
		if c == 1 {
			m.positive = i
		}
	}
	if m.positive < 0 {
		return fmt.Errorf("model has no positive class (label 1)")
	}
	if len(m.Columns) == 0 {
		return fmt.Errorf("model has no columns")
	}

	m.width = 0
	m.index = make([]map[string]int, len(m.Columns))
	seen := make(map[string]struct{}, len(m.Columns))
	for i, col := range m.Columns {
		if col.Name == "" {
			return fmt.Errorf("column %d has no name", i)
		}
		if _, dup := seen[col.Name]; dup {
			return fmt.Errorf("duplicate column %q", col.Name)
		}
		seen[col.Name] = struct{}{}
		switch col.Kind {
		case Numeric:
		case Categorical:
			if len(col.Categories) == 0 {
				return fmt.Errorf("categorical column %q has no categories", col.Name)
			}
			idx := make(map[string]int, len(col.Categories))
			for j, cat := range col.Categories {
				idx[cat] = j
			}
			m.index[i] = idx
		default:
			return fmt.Errorf("column %q has unknown kind %q", col.Name, col.Kind)
		}
		m.width += col.width()
	}

	if len(m.Trees) == 0 {
		return ErrNoTrees
	}
	for t := range m.Trees {
		if err := m.checkTree(&m.Trees[t]); err != nil {
			return fmt.Errorf("tree %d: %w", t, err)
		}
	}
	return nil
}

func (m *Model) checkTree(t *Tree) error {
	n := len(t.Nodes)
	if n == 0 {
		return fmt.Errorf("no nodes")
	}
	for i, node := range t.Nodes {
		if node.Leaf {
			if len(node.Value) != len(m.Classes) {
				return fmt.Errorf("leaf %d has %d values, want %d", i, len(node.Value), len(m.Classes))
			}
			continue
		}
		if node.Feature < 0 || node.Feature >= m.width {
			return fmt.Errorf("node %d splits on feature %d outside [0,%d)", i, node.Feature, m.width)
		}
		if node.Left <= i || node.Left >= n || node.Right <= i || node.Right >= n {
			return fmt.Errorf("node %d has children out of range", i)
		}
	}
	return nil
}
