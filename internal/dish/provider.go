package dish

import "context"

// Label is one prediction from an image classification model.
type Label struct {
	Name       string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// LabelProvider returns labels for an image, best first.
type LabelProvider interface {
	DetectLabels(ctx context.Context, image []byte) ([]Label, error)
}
