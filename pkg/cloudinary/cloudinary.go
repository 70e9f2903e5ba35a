package cloudinary

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
)

// Config contains credentials required to talk to Cloudinary.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// ReceiptStore uploads rendered fee receipts and returns a public link that
// can be attached to a WhatsApp message.
type ReceiptStore struct {
	client *cloudinary.Cloudinary
	folder string
	logger zerolog.Logger
}

// New constructs a receipt store.
func New(cfg Config, logger zerolog.Logger) (*ReceiptStore, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &ReceiptStore{
		client: cld,
		folder: strings.Trim(cfg.Folder, "/"),
		logger: logger.With().Str("component", "receipt_store").Logger(),
	}, nil
}

// Upload stores the receipt under a stable public id so re-sending a receipt
// for the same payment overwrites the earlier copy.
func (s *ReceiptStore) Upload(ctx context.Context, name string, content io.Reader) (string, error) {
	params := uploader.UploadParams{
		Folder:       s.folder,
		PublicID:     PublicID(name),
		ResourceType: "raw",
		Overwrite:    api.Bool(true),
	}

	result, err := s.client.Upload.Upload(ctx, content, params)
	if err != nil {
		return "", fmt.Errorf("failed to upload receipt: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("failed to upload receipt: %s", result.Error.Message)
	}

	s.logger.Info().Str("public_id", result.PublicID).Msg("receipt uploaded")

	return result.SecureURL, nil
}

// PublicID turns a file name into a Cloudinary public id, keeping the
// extension because raw assets are served by their full name.
func PublicID(name string) string {
	id := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' {
			return r
		}
		return '-'
	}, name)

	id = strings.Trim(id, "-.")
	if id == "" {
		return "receipt"
	}
	return id
}
