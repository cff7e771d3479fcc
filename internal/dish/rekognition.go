package dish

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

type rekognitionAPI interface {
	DetectLabels(ctx context.Context, in *rekognition.DetectLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectLabelsOutput, error)
}

// RekognitionProvider labels images with AWS Rekognition DetectLabels.
type RekognitionProvider struct {
	client        rekognitionAPI
	maxLabels     int32
	minConfidence float32
}

func NewRekognitionProvider(ctx context.Context, region string, minConfidence float32) (*RekognitionProvider, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return newRekognitionProvider(rekognition.NewFromConfig(cfg), minConfidence), nil
}

func newRekognitionProvider(client rekognitionAPI, minConfidence float32) *RekognitionProvider {
	if minConfidence <= 0 {
		minConfidence = 75
	}
	return &RekognitionProvider{
		client:        client,
		maxLabels:     5,
		minConfidence: minConfidence,
	}
}

// DetectLabels returns Rekognition labels ordered by confidence.
func (r *RekognitionProvider) DetectLabels(ctx context.Context, image []byte) ([]Label, error) {
	if len(image) == 0 {
		return nil, errors.New("empty image")
	}

	out, err := r.client.DetectLabels(ctx, &rekognition.DetectLabelsInput{
		Image:         &types.Image{Bytes: image},
		MaxLabels:     aws.Int32(r.maxLabels),
		MinConfidence: aws.Float32(r.minConfidence),
	})
	if err != nil {
		return nil, err
	}

	labels := make([]Label, 0, len(out.Labels))
	for _, l := range out.Labels {
		if l.Name == nil {
			continue
		}
		var conf float64
		if l.Confidence != nil {
			conf = float64(*l.Confidence) / 100
		}
		labels = append(labels, Label{Name: *l.Name, Confidence: conf})
	}
	return labels, nil
}
