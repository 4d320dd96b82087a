package outlier

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aouyang1/go-outlier/forecast"
	"github.com/goccy/go-json"
)

// ModelFile is the name of the file holding a serialized model within a model directory
const ModelFile = "model.json"

var ErrNoModelDir = errors.New("no model directory specified")

// Model is the serializable form of a fit Detector
type Model struct {
	Options     *Options       `json:"options"`
	Series      forecast.Model `json:"series_model"`
	Uncertainty forecast.Model `json:"uncertainty_model"`
}

// TablePrint writes a human readable summary of the series and uncertainty models
func (m Model) TablePrint(w io.Writer) error {
	if m.Options != nil {
		if _, err := fmt.Fprintf(w, "Uncertainty Threshold: %.2f    Min Uncertainty: %.3f\n",
			m.Options.UncertaintyThreshold, m.Options.MinUncertaintyValue); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(w, "Series:"); err != nil {
		return err
	}
	if err := m.Series.TablePrint(w, "", "  ", 1); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "Uncertainty:"); err != nil {
		return err
	}
	return m.Uncertainty.TablePrint(w, "", "  ", 1)
}

// SaveModel writes the model as json into dir, creating the directory if needed
func (m Model) SaveModel(dir string) error {
	if dir == "" {
		return ErrNoModelDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("unable to create model directory, %w", err)
	}
	out, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to marshal model, %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ModelFile), out, 0o644); err != nil {
		return fmt.Errorf("unable to write model, %w", err)
	}
	return nil
}

// LoadModel reads a model previously written with SaveModel
func LoadModel(dir string) (Model, error) {
	if dir == "" {
		return Model{}, ErrNoModelDir
	}
	in, err := os.ReadFile(filepath.Join(dir, ModelFile))
	if err != nil {
		return Model{}, fmt.Errorf("unable to read model, %w", err)
	}
	var m Model
	if err := json.Unmarshal(in, &m); err != nil {
		return Model{}, fmt.Errorf("unable to unmarshal model, %w", err)
	}
	return m, nil
}

// SaveModel writes the fit detector model into dir
func (d *Detector) SaveModel(dir string) error {
	m, err := d.Model()
	if err != nil {
		return err
	}
	return m.SaveModel(dir)
}

// Load initializes a Detector from a model directory
func Load(dir string) (*Detector, error) {
	m, err := LoadModel(dir)
	if err != nil {
		return nil, err
	}
	return NewFromModel(m)
}
