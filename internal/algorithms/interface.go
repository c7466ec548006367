// Background model registry used by the motion stage
package algorithms

import (
	"fmt"
	"sort"

	"gocv.io/x/gocv"
)

// BackgroundModel maintains an adaptive per-pixel model of the scene.
// Apply updates the model with frame and writes a single-channel 8-bit
// foreground mask of the same size into mask.
type BackgroundModel interface {
	Apply(frame gocv.Mat, mask *gocv.Mat) error
	Close() error
}

// Algorithm describes a background model implementation
type Algorithm interface {
	New(params map[string]interface{}) (BackgroundModel, error)
	GetDefaultParams() map[string]interface{}
	GetName() string
	GetDescription() string
	Validate(params map[string]interface{}) error
	GetParameterInfo() []ParameterInfo
}

// ParameterInfo describes a model parameter for configuration docs
type ParameterInfo struct {
	Name        string      `json:"name"`
	Type        string      `json:"type"` // "int", "float", "bool"
	Min         interface{} `json:"min,omitempty"`
	Max         interface{} `json:"max,omitempty"`
	Default     interface{} `json:"default"`
	Description string      `json:"description"`
}

var algorithms = make(map[string]Algorithm)

func Register(name string, algorithm Algorithm) {
	algorithms[name] = algorithm
}

func Get(name string) (Algorithm, bool) {
	algorithm, exists := algorithms[name]
	return algorithm, exists
}

// New validates params and builds the named background model. Missing
// params fall back to the algorithm defaults.
func New(name string, params map[string]interface{}) (BackgroundModel, error) {
	algorithm, exists := algorithms[name]
	if !exists {
		return nil, fmt.Errorf("algorithm not found: %s", name)
	}

	merged := algorithm.GetDefaultParams()
	for k, v := range params {
		merged[k] = v
	}

	if err := algorithm.Validate(merged); err != nil {
		return nil, fmt.Errorf("invalid parameters for %s: %w", name, err)
	}

	return algorithm.New(merged)
}

func ValidateParameters(name string, params map[string]interface{}) error {
	algorithm, exists := algorithms[name]
	if !exists {
		return fmt.Errorf("algorithm not found: %s", name)
	}

	return algorithm.Validate(params)
}

func IsValidAlgorithm(name string) bool {
	_, exists := algorithms[name]
	return exists
}

// Names returns the registered algorithm names, sorted
func Names() []string {
	names := make([]string, 0, len(algorithms))
	for name := range algorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register("mog2", NewMOG2())
	Register("knn", NewKNN())
	Register("running_average", NewRunningAverage())
}
