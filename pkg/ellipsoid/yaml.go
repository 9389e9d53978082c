package ellipsoid

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

// Definition is the YAML document describing a fitted ellipsoid, used to
// persist fitting results between pipeline stages
type Definition struct {
	// SemiAxes holds the sorted semi-axis lengths
	SemiAxes struct {
		A float64 `yaml:"a"`
		B float64 `yaml:"b"`
		C float64 `yaml:"c"`
	} `yaml:"semiAxes"`

	// Centroid is the world-space center of the ellipsoid
	Centroid struct {
		X float64 `yaml:"x"`
		Y float64 `yaml:"y"`
		Z float64 `yaml:"z"`
	} `yaml:"centroid"`

	// Orientation holds the 3x3 orientation basis as three rows
	Orientation [][]float64 `yaml:"orientation"`
}

// Definition returns the serializable description of the current state
func (e *Ellipsoid) Definition() *Definition {
	def := &Definition{}
	def.SemiAxes.A = e.a
	def.SemiAxes.B = e.b
	def.SemiAxes.C = e.c
	def.Centroid.X = e.centroid.X
	def.Centroid.Y = e.centroid.Y
	def.Centroid.Z = e.centroid.Z

	def.Orientation = make([][]float64, 3)
	for i := range def.Orientation {
		def.Orientation[i] = []float64{
			e.orientation.At(i, 0),
			e.orientation.At(i, 1),
			e.orientation.At(i, 2),
		}
	}
	return def
}

// FromDefinition builds an ellipsoid from a persisted definition. The
// definition goes through the full constructor and setter validation, so a
// hand-edited or corrupted document is rejected with the same errors as
// direct API misuse.
func FromDefinition(def *Definition) (*Ellipsoid, error) {
	if def == nil {
		return nil, fmt.Errorf("%w: definition", ErrNilArgument)
	}

	e, err := New(def.SemiAxes.A, def.SemiAxes.B, def.SemiAxes.C)
	if err != nil {
		return nil, err
	}

	centroid := Vector3{X: def.Centroid.X, Y: def.Centroid.Y, Z: def.Centroid.Z}
	if err := e.SetCentroid(&centroid); err != nil {
		return nil, err
	}

	if len(def.Orientation) != 3 {
		return nil, fmt.Errorf("%w: orientation must have 3 rows, got %d", ErrInvalidArgument, len(def.Orientation))
	}
	basis := mat.NewDense(3, 3, nil)
	for i, row := range def.Orientation {
		if len(row) != 3 {
			return nil, fmt.Errorf("%w: orientation row %d must have 3 columns, got %d", ErrInvalidArgument, i, len(row))
		}
		for j, value := range row {
			basis.Set(i, j, value)
		}
	}
	if err := e.SetOrientation(basis); err != nil {
		return nil, err
	}
	return e, nil
}

// LoadDefinition reads an ellipsoid definition from a YAML file
func LoadDefinition(path string) (*Ellipsoid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading definition file: %w", err)
	}

	def := &Definition{}
	if err := yaml.Unmarshal(data, def); err != nil {
		return nil, fmt.Errorf("error parsing definition file: %w", err)
	}

	return FromDefinition(def)
}

// SaveDefinition writes the ellipsoid's definition to a YAML file
func (e *Ellipsoid) SaveDefinition(path string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating definition directory: %w", err)
	}

	data, err := yaml.Marshal(e.Definition())
	if err != nil {
		return fmt.Errorf("error marshaling definition: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing definition file: %w", err)
	}

	return nil
}
