package document

import (
	"context"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"jan-server/clients/jan-chat/internal/utils/platformerrors"
)

const (
	// DefaultMaxBytes is the largest file accepted for upload.
	DefaultMaxBytes int64 = 10 * 1024 * 1024
	// DefaultTitle is sent with pasted text documents.
	DefaultTitle = "Text Document"

	MIMEPDF  = "application/pdf"
	MIMEDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEText = "text/plain"

	textUploaded = "Document uploaded successfully!"
	fileUploaded = "File uploaded successfully!"
)

var allowedTypes = []string{MIMEPDF, MIMEDOCX, MIMEText}

// File is an upload candidate that passed validation.
type File struct {
	Name    string
	Content []byte
	MIME    string
}

// API is the ingestion surface of the backend. Both calls return the backend's
// confirmation text, which may be empty.
type API interface {
	UploadDocument(ctx context.Context, text, title string) (string, error)
	UploadFile(ctx context.Context, file *File) (string, error)
}

// ValidateFile checks size and sniffed content type before any network call.
func ValidateFile(ctx context.Context, name string, content []byte, maxBytes int64) (*File, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if len(content) == 0 {
		return nil, platformerrors.Validation(ctx, platformerrors.LayerDomain, "Please select a file")
	}
	if int64(len(content)) > maxBytes {
		return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("File size must be less than %s", humanSize(maxBytes)), nil,
			map[string]any{"size": len(content), "limit": maxBytes})
	}

	// Only the detected type itself counts. HTML, JSON, CSV and SVG all descend
	// from text/plain and must not pass as text.
	detected := mimetype.Detect(content)
	for _, allowed := range allowedTypes {
		if detected.Is(allowed) {
			return &File{Name: name, Content: content, MIME: allowed}, nil
		}
	}
	return nil, platformerrors.NewErrorWithContext(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
		"Only PDF, DOCX, and TXT files are allowed", nil,
		map[string]any{"detected_mime": detected.String()})
}

// Service runs the upload flows.
type Service struct {
	api      API
	maxBytes int64
	log      zerolog.Logger
}

// NewService creates a Service accepting files up to maxBytes.
func NewService(api API, maxBytes int64, log zerolog.Logger) *Service {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Service{
		api:      api,
		maxBytes: maxBytes,
		log:      log.With().Str("component", "document-service").Logger(),
	}
}

// MaxBytes returns the configured upload limit.
func (s *Service) MaxBytes() int64 {
	return s.maxBytes
}

// UploadText sends pasted text for ingestion and returns the confirmation to show.
func (s *Service) UploadText(ctx context.Context, text, title string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", platformerrors.Validation(ctx, platformerrors.LayerDomain, "Please enter document content")
	}
	if title == "" {
		title = DefaultTitle
	}
	msg, err := s.api.UploadDocument(ctx, text, title)
	if err != nil {
		return "", platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "upload document")
	}
	s.log.Info().Int("bytes", len(text)).Msg("document uploaded")
	return orDefault(msg, textUploaded), nil
}

// UploadFile validates and sends a file for ingestion.
func (s *Service) UploadFile(ctx context.Context, name string, content []byte) (string, error) {
	file, err := ValidateFile(ctx, name, content, s.maxBytes)
	if err != nil {
		return "", err
	}
	msg, err := s.api.UploadFile(ctx, file)
	if err != nil {
		return "", platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "upload file")
	}
	s.log.Info().Str("mime", file.MIME).Int("bytes", len(content)).Msg("file uploaded")
	return orDefault(msg, fileUploaded), nil
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func humanSize(n int64) string {
	const mb = 1024 * 1024
	if n%mb == 0 {
		return fmt.Sprintf("%dMB", n/mb)
	}
	return fmt.Sprintf("%d bytes", n)
}
