// ABOUTME: Admin PDF upload: local file checks, then a streamed multipart request
// ABOUTME: Returns the backend confirmation or an error with displayable text

package admin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/2389/legisbot/internal/api"
)

// Upload errors detected before any request is sent.
var (
	ErrNoFile = errors.New("no file selected")
	ErrNotPDF = errors.New("file is not a PDF")
)

// UploadSuccessText is shown when the backend confirms without a message.
const UploadSuccessText = "Documento subido y contexto creado correctamente."

// UploadBackend is what the uploader needs from the backend client.
type UploadBackend interface {
	UploadDocument(ctx context.Context, filename string, content io.Reader, contextName string) (*api.UploadResult, error)
}

// Uploader sends PDFs to the backend.
type Uploader struct {
	backend UploadBackend
	logger  *zap.Logger
}

// NewUploader creates an Uploader.
func NewUploader(backend UploadBackend, logger *zap.Logger) *Uploader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Uploader{backend: backend, logger: logger.Named("upload")}
}

// Upload sends the PDF at path into contextName and returns the confirmation.
func (u *Uploader) Upload(ctx context.Context, path, contextName string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", ErrNoFile
	}
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return "", fmt.Errorf("%w: %s", ErrNotPDF, filepath.Base(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	if err := checkPDF(f); err != nil {
		return "", fmt.Errorf("%w: %s", err, filepath.Base(path))
	}

	contextName = strings.TrimSpace(contextName)
	result, err := u.backend.UploadDocument(ctx, filepath.Base(path), f, contextName)
	if err != nil {
		u.logger.Warn("upload failed", zap.String("file", filepath.Base(path)), zap.Error(err))
		return "", err
	}

	u.logger.Info("document uploaded",
		zap.String("file", filepath.Base(path)),
		zap.String("context", contextName))
	if result.Message != "" {
		return result.Message, nil
	}
	return UploadSuccessText, nil
}

// checkPDF sniffs the header and rewinds f.
func checkPDF(f *os.File) error {
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("reading file header: %w", err)
	}
	if http.DetectContentType(head[:n]) != "application/pdf" {
		return ErrNotPDF
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewinding file: %w", err)
	}
	return nil
}
