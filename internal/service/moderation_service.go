package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/market_admin/internal/config"
)

// ModerationAPI is the part of the Rekognition client used for screening.
type ModerationAPI interface {
	DetectModerationLabels(ctx context.Context, params *rekognition.DetectModerationLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectModerationLabelsOutput, error)
}

// ModerationService screens product images before they are uploaded.
type ModerationService struct {
	api           ModerationAPI
	minConfidence float64
}

// NewModerationService builds the service from config. It returns nil when
// moderation is disabled; a nil *ModerationService accepts every image.
func NewModerationService(ctx context.Context, cfg config.ModerationConfig) (*ModerationService, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS SDK config: %w", err)
	}
	return NewModerationServiceWithAPI(rekognition.NewFromConfig(awsCfg), cfg.MinConfidence), nil
}

// NewModerationServiceWithAPI wraps an existing client.
func NewModerationServiceWithAPI(api ModerationAPI, minConfidence float64) *ModerationService {
	return &ModerationService{api: api, minConfidence: minConfidence}
}

// Screen returns the names of the moderation labels found in image at or
// above the confidence threshold. An empty result means the image is allowed.
func (s *ModerationService) Screen(ctx context.Context, image []byte) ([]string, error) {
	if s == nil {
		return nil, nil
	}
	out, err := s.api.DetectModerationLabels(ctx, &rekognition.DetectModerationLabelsInput{
		Image:         &types.Image{Bytes: image},
		MinConfidence: aws.Float32(float32(s.minConfidence)),
	})
	if err != nil {
		return nil, fmt.Errorf("moderation request failed: %w", err)
	}

	var labels []string
	for _, l := range out.ModerationLabels {
		if l.Confidence != nil && float64(*l.Confidence) < s.minConfidence {
			continue
		}
		name := aws.ToString(l.Name)
		if parent := aws.ToString(l.ParentName); parent != "" {
			name = parent + "/" + name
		}
		labels = append(labels, name)
	}
	if len(labels) > 0 {
		log.Info().Strs("labels", labels).Msg("Image flagged by moderation")
	}
	return labels, nil
}

func rejectedImageMessage(filename string, labels []string) string {
	return fmt.Sprintf("Image %s was rejected (%s)", filename, strings.Join(labels, ", "))
}
