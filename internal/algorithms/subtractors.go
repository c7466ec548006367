// Mixture-model background subtractors backed by OpenCV
package algorithms

import (
	"fmt"

	"gocv.io/x/gocv"
)

// MOG2 implements Gaussian mixture background subtraction
type MOG2 struct{}

// NewMOG2 creates the MOG2 algorithm descriptor
func NewMOG2() *MOG2 {
	return &MOG2{}
}

type mog2Model struct {
	subtractor gocv.BackgroundSubtractorMOG2
}

func (m *MOG2) New(params map[string]interface{}) (BackgroundModel, error) {
	history := intParam(params, "history", 500)
	varThreshold := floatParam(params, "var_threshold", 16)
	detectShadows := boolParam(params, "detect_shadows", true)

	return &mog2Model{
		subtractor: gocv.NewBackgroundSubtractorMOG2WithParams(history, varThreshold, detectShadows),
	}, nil
}

func (m *mog2Model) Apply(frame gocv.Mat, mask *gocv.Mat) error {
	if frame.Empty() {
		return fmt.Errorf("input frame is empty")
	}
	return m.subtractor.Apply(frame, mask)
}

func (m *mog2Model) Close() error {
	return m.subtractor.Close()
}

func (m *MOG2) GetDefaultParams() map[string]interface{} {
	return map[string]interface{}{
		"history":        500.0,
		"var_threshold":  16.0,
		"detect_shadows": true,
	}
}

func (m *MOG2) GetName() string {
	return "MOG2"
}

func (m *MOG2) GetDescription() string {
	return "Adaptive Gaussian mixture per pixel; shadows are marked 127 in the mask"
}

func (m *MOG2) Validate(params map[string]interface{}) error {
	if err := checkRange(params, "history", 1, 100000); err != nil {
		return err
	}
	if err := checkRange(params, "var_threshold", 1, 1000); err != nil {
		return err
	}
	return checkBool(params, "detect_shadows")
}

func (m *MOG2) GetParameterInfo() []ParameterInfo {
	return []ParameterInfo{
		{
			Name:        "history",
			Type:        "int",
			Min:         1.0,
			Max:         100000.0,
			Default:     500.0,
			Description: "Number of frames that shape the background",
		},
		{
			Name:        "var_threshold",
			Type:        "float",
			Min:         1.0,
			Max:         1000.0,
			Default:     16.0,
			Description: "Squared Mahalanobis distance deciding if a pixel fits the model",
		},
		{
			Name:        "detect_shadows",
			Type:        "bool",
			Default:     true,
			Description: "Mark shadows with a grey value instead of foreground",
		},
	}
}

// KNN implements k-nearest-neighbours background subtraction
type KNN struct{}

// NewKNN creates the KNN algorithm descriptor
func NewKNN() *KNN {
	return &KNN{}
}

type knnModel struct {
	subtractor gocv.BackgroundSubtractorKNN
}

func (k *KNN) New(params map[string]interface{}) (BackgroundModel, error) {
	history := intParam(params, "history", 500)
	dist2Threshold := floatParam(params, "dist2_threshold", 400)
	detectShadows := boolParam(params, "detect_shadows", true)

	return &knnModel{
		subtractor: gocv.NewBackgroundSubtractorKNNWithParams(history, dist2Threshold, detectShadows),
	}, nil
}

func (k *knnModel) Apply(frame gocv.Mat, mask *gocv.Mat) error {
	if frame.Empty() {
		return fmt.Errorf("input frame is empty")
	}
	return k.subtractor.Apply(frame, mask)
}

func (k *knnModel) Close() error {
	return k.subtractor.Close()
}

func (k *KNN) GetDefaultParams() map[string]interface{} {
	return map[string]interface{}{
		"history":         500.0,
		"dist2_threshold": 400.0,
		"detect_shadows":  true,
	}
}

func (k *KNN) GetName() string {
	return "KNN"
}

func (k *KNN) GetDescription() string {
	return "Non-parametric k-nearest-neighbours background model"
}

func (k *KNN) Validate(params map[string]interface{}) error {
	if err := checkRange(params, "history", 1, 100000); err != nil {
		return err
	}
	if err := checkRange(params, "dist2_threshold", 1, 100000); err != nil {
		return err
	}
	return checkBool(params, "detect_shadows")
}

func (k *KNN) GetParameterInfo() []ParameterInfo {
	return []ParameterInfo{
		{
			Name:        "history",
			Type:        "int",
			Min:         1.0,
			Max:         100000.0,
			Default:     500.0,
			Description: "Number of frames that shape the background",
		},
		{
			Name:        "dist2_threshold",
			Type:        "float",
			Min:         1.0,
			Max:         100000.0,
			Default:     400.0,
			Description: "Squared distance threshold between a pixel and its samples",
		},
		{
			Name:        "detect_shadows",
			Type:        "bool",
			Default:     true,
			Description: "Mark shadows with a grey value instead of foreground",
		},
	}
}
