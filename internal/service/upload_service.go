package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrUploadTooLarge indicates the payload exceeded the configured limit.
	ErrUploadTooLarge = fmt.Errorf("file exceeds maximum allowed size: %w", ErrInvalidInput)
	// ErrUploadTypeNotAllowed indicates the detected MIME type is not a note format.
	ErrUploadTypeNotAllowed = fmt.Errorf("file type not allowed: %w", ErrInvalidInput)
)

var allowedNoteMimes = map[string]bool{
	"application/pdf": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   true,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": true,
	"application/msword":            true,
	"application/vnd.ms-powerpoint": true,
	"text/plain":                    true,
	"image":                         true,
}

// FileStorage abstracts upload destinations.
type FileStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// StoredFile describes a note attachment after it reached storage.
type StoredFile struct {
	URL       string
	FileName  string
	MimeType  string
	SizeBytes int64
	Checksum  string
}

// NoteFileUploader validates note attachments and hands them to storage.
type NoteFileUploader interface {
	Store(ctx context.Context, file *multipart.FileHeader) (StoredFile, error)
}

type noteFileUploader struct {
	storage FileStorage
	logger  zerolog.Logger
	maxSize int64
	tracer  trace.Tracer
}

// NewNoteFileUploader constructs the attachment uploader.
func NewNoteFileUploader(storage FileStorage, maxSizeMB int, logger zerolog.Logger) NoteFileUploader {
	if maxSizeMB <= 0 {
		maxSizeMB = 20
	}
	return &noteFileUploader{
		storage: storage,
		logger:  logger.With().Str("component", "note_file_uploader").Logger(),
		maxSize: int64(maxSizeMB) * 1024 * 1024,
		tracer:  otel.Tracer("github.com/noah-isme/unishare-api/internal/service/upload"),
	}
}

func (s *noteFileUploader) Store(ctx context.Context, file *multipart.FileHeader) (StoredFile, error) {
	ctx, span := s.tracer.Start(ctx, "upload.store")
	defer span.End()

	span.SetAttributes(attribute.Int64("upload.max_bytes", s.maxSize))
	if file == nil {
		err := invalidInput("file is required")
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return StoredFile{}, err
	}
	span.SetAttributes(
		attribute.String("upload.original_name", strings.TrimSpace(file.Filename)),
		attribute.Int64("upload.request_size", file.Size),
	)

	if file.Size > s.maxSize {
		span.RecordError(ErrUploadTooLarge)
		span.SetStatus(codes.Error, "payload too large")
		return StoredFile{}, ErrUploadTooLarge
	}

	handle, err := file.Open()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "open failed")
		return StoredFile{}, err
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "read failed")
		return StoredFile{}, err
	}
	if int64(buf.Len()) > s.maxSize {
		span.RecordError(ErrUploadTooLarge)
		span.SetStatus(codes.Error, "payload too large")
		return StoredFile{}, ErrUploadTooLarge
	}

	fileType := normalizeMime(mimetype.Detect(buf.Bytes()).String())
	span.SetAttributes(attribute.String("upload.detected_mime", fileType))
	if !allowedNoteMimes[fileType] {
		span.RecordError(ErrUploadTypeNotAllowed)
		span.SetStatus(codes.Error, "type not allowed")
		return StoredFile{}, ErrUploadTypeNotAllowed
	}

	if s.storage == nil {
		err := errors.New("file storage is not configured")
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage unavailable")
		return StoredFile{}, err
	}

	checksum := sha256.Sum256(buf.Bytes())
	name := sanitizeFileName(file.Filename)
	url, err := s.storage.Upload(ctx, name, bytes.NewReader(buf.Bytes()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "storage failed")
		return StoredFile{}, fmt.Errorf("store note file: %w", err)
	}

	span.SetStatus(codes.Ok, "stored")
	s.logger.Debug().Str("file", name).Str("mime", fileType).Int("size", buf.Len()).Msg("note file stored")

	return StoredFile{
		URL:       url,
		FileName:  name,
		MimeType:  fileType,
		SizeBytes: int64(buf.Len()),
		Checksum:  hex.EncodeToString(checksum[:]),
	}, nil
}

func sanitizeFileName(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.ToLower(base)
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, base)
	base = strings.Trim(base, "-")
	if base == "" {
		base = fmt.Sprintf("note-%d", time.Now().Unix())
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = ".bin"
	}
	return base + ext
}

func normalizeMime(m string) string {
	lower := strings.ToLower(strings.TrimSpace(m))
	if idx := strings.Index(lower, ";"); idx >= 0 {
		lower = strings.TrimSpace(lower[:idx])
	}
	if strings.HasPrefix(lower, "image/") {
		return "image"
	}
	return lower
}
