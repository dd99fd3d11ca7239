package cloudinary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const noteTag = "unishare-note"

// Config holds the account credentials and the folder note files are filed under.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Service stores note attachments in Cloudinary.
type Service struct {
	client *cloudinary.Cloudinary
	folder string
	logger zerolog.Logger
}

// New validates the credentials and builds the client.
func New(cfg Config, logger zerolog.Logger) (*Service, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, errors.New("cloudinary credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}

	return &Service{
		client: cld,
		folder: strings.Trim(cfg.Folder, "/"),
		logger: logger.With().Str("component", "cloudinary").Logger(),
	}, nil
}

// Upload stores a note file under a fresh public id and returns its HTTPS URL.
// Existing assets are never overwritten.
func (s *Service) Upload(ctx context.Context, name string, reader io.Reader) (string, error) {
	publicID := buildPublicID(name)

	result, err := s.client.Upload.Upload(ctx, reader, uploader.UploadParams{
		Folder:         s.folder,
		PublicID:       publicID,
		ResourceType:   resourceType(name),
		Overwrite:      api.Bool(false),
		UniqueFilename: api.Bool(false),
		Tags:           api.CldAPIArray{noteTag},
		Context:        api.CldAPIMap{"original_name": name},
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", publicID, err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("upload %s: %s", publicID, result.Error.Message)
	}

	s.logger.Info().
		Str("public_id", result.PublicID).
		Str("resource_type", result.ResourceType).
		Int("bytes", result.Bytes).
		Msg("note file stored")

	return result.SecureURL, nil
}

// buildPublicID keeps a readable slug of the file name and appends a random suffix.
func buildPublicID(name string) string {
	base := strings.ToLower(strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)))
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		return '-'
	}, base)
	base = strings.Trim(base, "-")
	if len(base) > 48 {
		base = strings.TrimRight(base[:48], "-")
	}

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	if base == "" {
		return "note-" + suffix
	}
	return base + "-" + suffix
}

// resourceType files images as images so Cloudinary can derive previews; documents stay raw.
func resourceType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp":
		return "image"
	default:
		return "raw"
	}
}
