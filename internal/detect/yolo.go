// YOLO object detector on the OpenCV dnn module
package detect

import (
	"fmt"
	"image"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// YOLOConfig configures a YOLO network
type YOLOConfig struct {
	// ModelPath is an ONNX export or Darknet weights file
	ModelPath string
	// ConfigPath is the Darknet .cfg file, empty for ONNX
	ConfigPath    string
	Labels        []string
	ConfThreshold float32
	NMSThreshold  float64
}

// YOLO runs YOLOv5 or YOLOv8 style networks through gocv dnn
type YOLO struct {
	net    gocv.Net
	cfg    YOLOConfig
	logger *logrus.Entry
}

// NewYOLO loads the network. Labels default to the COCO classes.
func NewYOLO(cfg YOLOConfig, logger *logrus.Logger) (*YOLO, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("yolo model path is required")
	}
	if len(cfg.Labels) == 0 {
		cfg.Labels = CocoClasses
	}
	if cfg.ConfThreshold <= 0 {
		cfg.ConfThreshold = 0.25
	}
	if cfg.NMSThreshold <= 0 {
		cfg.NMSThreshold = 0.45
	}

	net := gocv.ReadNet(cfg.ModelPath, cfg.ConfigPath)
	if net.Empty() {
		net.Close()
		return nil, fmt.Errorf("failed to load yolo model: %s", cfg.ModelPath)
	}

	entry := logger.WithField("model", cfg.ModelPath)
	entry.WithFields(logrus.Fields{
		"classes":        len(cfg.Labels),
		"conf_threshold": cfg.ConfThreshold,
	}).Info("DETECT: YOLO model loaded")

	return &YOLO{net: net, cfg: cfg, logger: entry}, nil
}

// Detect runs the network on an RGB image resized to target
func (y *YOLO) Detect(img gocv.Mat, target image.Point) ([]Detection, error) {
	if img.Empty() {
		return nil, fmt.Errorf("input image is empty")
	}
	if target.X <= 0 || target.Y <= 0 {
		return nil, fmt.Errorf("invalid target size %v", target)
	}

	// the stage already hands over RGB, so no channel swap here
	blob := gocv.BlobFromImage(img, 1.0/255.0, target, gocv.NewScalar(0, 0, 0, 0), false, false)
	defer blob.Close()

	y.net.SetInput(blob, "")
	out := y.net.Forward("")
	defer out.Close()

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read yolo output: %w", err)
	}

	scaleX := float64(img.Cols()) / float64(target.X)
	scaleY := float64(img.Rows()) / float64(target.Y)
	dets, err := decodeOutput(data, out.Size(), scaleX, scaleY, y.cfg.ConfThreshold)
	if err != nil {
		return nil, err
	}

	dets = Suppress(dets, y.cfg.NMSThreshold)
	y.logger.WithField("detections", len(dets)).Debug("DETECT: Inference complete")
	return dets, nil
}

// ClassName maps a class id to its label
func (y *YOLO) ClassName(id int) string {
	return className(y.cfg.Labels, id)
}

// Close releases the network
func (y *YOLO) Close() error {
	return y.net.Close()
}

// decodeOutput parses a YOLO output tensor. Two layouts are accepted:
// YOLOv8 [1, 4+classes, N] (attribute-major, no objectness) and YOLOv5
// [1, N, 5+classes] (row-major with objectness at index 4). Box centres
// and sizes are in network input pixels and are scaled to the frame. The
// shorter axis is taken as the attribute axis.
func decodeOutput(data []float32, sizes []int, scaleX, scaleY float64, conf float32) ([]Detection, error) {
	dims := make([]int, 0, len(sizes))
	for _, s := range sizes {
		if s != 1 || len(dims) > 0 {
			dims = append(dims, s)
		}
	}
	if len(dims) != 2 {
		return nil, fmt.Errorf("unexpected yolo output shape %v", sizes)
	}
	if len(data) < dims[0]*dims[1] {
		return nil, fmt.Errorf("yolo output has %d values, shape %v needs %d", len(data), sizes, dims[0]*dims[1])
	}

	v8 := dims[0] < dims[1]
	var attrs, count, firstClass int
	var at func(i, k int) float32
	if v8 {
		attrs, count, firstClass = dims[0], dims[1], 4
		at = func(i, k int) float32 { return data[k*count+i] }
	} else {
		count, attrs, firstClass = dims[0], dims[1], 5
		at = func(i, k int) float32 { return data[i*attrs+k] }
	}
	if attrs <= firstClass {
		return nil, fmt.Errorf("yolo output has no class scores, shape %v", sizes)
	}

	var dets []Detection
	for i := 0; i < count; i++ {
		bestClass, bestScore := -1, float32(0)
		for k := firstClass; k < attrs; k++ {
			if s := at(i, k); s > bestScore {
				bestClass, bestScore = k-firstClass, s
			}
		}
		if !v8 {
			bestScore *= at(i, 4)
		}
		if bestClass < 0 || bestScore < conf {
			continue
		}
		if bestScore > 1 {
			bestScore = 1
		}

		cx, cy := float64(at(i, 0)), float64(at(i, 1))
		w, h := float64(at(i, 2)), float64(at(i, 3))
		box := image.Rect(
			int((cx-w/2)*scaleX),
			int((cy-h/2)*scaleY),
			int((cx+w/2)*scaleX),
			int((cy+h/2)*scaleY),
		)
		dets = append(dets, Detection{ClassID: bestClass, Score: bestScore, Box: box})
	}
	return dets, nil
}
