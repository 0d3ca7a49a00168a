package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/air-quality-predict/internal/airquality"
)

// ErrArtifactNotFound is returned by Load when no model has been trained yet.
var ErrArtifactNotFound = errors.New("model artifact not found")

// Evaluation holds the scores computed right after fitting.
type Evaluation struct {
	Train Metrics `json:"train"`
	Test  Metrics `json:"test"`
}

// Artifact is the serialized output of the trainer and the only input of the server.
type Artifact struct {
	ID           uuid.UUID  `json:"id"`
	CreatedAt    time.Time  `json:"created_at"`
	FeatureNames []string   `json:"feature_names"`
	Target       string     `json:"target"`
	Params       Params     `json:"params"`
	Evaluation   Evaluation `json:"evaluation"`
	Forest       *Forest    `json:"forest"`
}

// NewArtifact wraps a fitted forest with a fresh id.
func NewArtifact(f *Forest, p Params, eval Evaluation) *Artifact {
	return &Artifact{
		ID:           uuid.New(),
		CreatedAt:    time.Now().UTC(),
		FeatureNames: slices.Clone(airquality.FeatureColumns),
		Target:       airquality.TargetColumn,
		Params:       p,
		Evaluation:   eval,
		Forest:       f,
	}
}

// Importances pairs each feature name with its impurity-based importance.
func (a *Artifact) Importances() map[string]float64 {
	out := make(map[string]float64, len(a.FeatureNames))
	for i, name := range a.FeatureNames {
		out[name] = a.Forest.Importances[i]
	}
	return out
}

// Predict runs the forest on a feature vector in FeatureNames order.
func (a *Artifact) Predict(x []float64) (float64, error) {
	return a.Forest.Predict(x)
}

// PredictNamed orders named values by FeatureNames and predicts.
func (a *Artifact) PredictNamed(values map[string]float64) (float64, error) {
	x := make([]float64, len(a.FeatureNames))
	for i, name := range a.FeatureNames {
		v, ok := values[name]
		if !ok {
			return 0, fmt.Errorf("%w: missing %q", ErrFeatureCount, name)
		}
		x[i] = v
	}
	return a.Forest.Predict(x)
}

func (a *Artifact) validate() error {
	if a.ID == uuid.Nil {
		return errors.New("artifact has no id")
	}
	if a.Forest == nil {
		return errors.New("artifact has no forest")
	}
	if err := a.Forest.validate(); err != nil {
		return err
	}
	if len(a.FeatureNames) != a.Forest.NFeatures {
		return fmt.Errorf("%d feature names for a forest of %d features", len(a.FeatureNames), a.Forest.NFeatures)
	}
	if len(a.Forest.Importances) != a.Forest.NFeatures {
		return fmt.Errorf("%d importances for a forest of %d features", len(a.Forest.Importances), a.Forest.NFeatures)
	}
	if !slices.Equal(a.FeatureNames, airquality.FeatureColumns) {
		return fmt.Errorf("feature names %v do not match %v", a.FeatureNames, airquality.FeatureColumns)
	}
	return nil
}

// Save writes the artifact as JSON, replacing path atomically.
func Save(path string, a *Artifact) error {
	if err := a.validate(); err != nil {
		return fmt.Errorf("save model: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := json.NewEncoder(tmp).Encode(a); err != nil {
		tmp.Close()
		return fmt.Errorf("encode model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return os.Rename(tmp.Name(), path)
}

// Load reads and validates an artifact written by Save.
func Load(path string) (*Artifact, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w", ErrArtifactNotFound, err)
		}
		return nil, fmt.Errorf("read model: %w", err)
	}

	var a Artifact
	if err := json.Unmarshal(b, &a); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", path, err)
	}
	if err := a.validate(); err != nil {
		return nil, fmt.Errorf("invalid model %s: %w", path, err)
	}
	return &a, nil
}
