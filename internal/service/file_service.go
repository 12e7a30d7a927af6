package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/journal-editorial-api/internal/models"
	appErrors "github.com/noah-isme/journal-editorial-api/pkg/errors"
)

type blobStorage interface {
	SaveStream(filename string, r io.Reader) (int64, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

type downloadSigner interface {
	Generate(fileID, relPath string) (string, time.Time, error)
	Parse(token string) (fileID, relPath string, expiresAt time.Time, err error)
}

// FileUpload carries one multipart part.
type FileUpload struct {
	Filename string
	Size     int64
	Content  io.ReadSeeker
}

// FileServiceConfig holds validation parameters for manuscript files.
type FileServiceConfig struct {
	MaxFileSize  int64
	AllowedMIMEs []string
	APIPrefix    string
}

// FileService is the blob store behind manuscripts: it validates uploads, lays files out
// per manuscript version and issues signed download links.
type FileService struct {
	storage blobStorage
	signer  downloadSigner
	logger  *zap.Logger
	cfg     FileServiceConfig
	mimeSet map[string]struct{}
	now     func() time.Time
}

// NewFileService constructs the service with defaults.
func NewFileService(storage blobStorage, signer downloadSigner, logger *zap.Logger, cfg FileServiceConfig) *FileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 25 * 1024 * 1024
	}
	if len(cfg.AllowedMIMEs) == 0 {
		cfg.AllowedMIMEs = []string{
			"application/pdf",
			"application/msword",
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
			"application/x-tex",
			"text/plain",
			"application/zip",
		}
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	mimeSet := make(map[string]struct{}, len(cfg.AllowedMIMEs))
	for _, mt := range cfg.AllowedMIMEs {
		mimeSet[strings.ToLower(strings.TrimSpace(mt))] = struct{}{}
	}
	return &FileService{storage: storage, signer: signer, logger: logger, cfg: cfg, mimeSet: mimeSet, now: systemNow}
}

// Store validates and writes every upload under manuscripts/<id>/v<version>/. Either all
// files are stored or none are.
func (s *FileService) Store(ctx context.Context, manuscriptID string, version int, uploads []FileUpload) (models.ManuscriptFiles, error) {
	seen := make(map[string]struct{}, len(uploads))
	for _, upload := range uploads {
		if err := s.validate(upload); err != nil {
			return nil, err
		}
		// Revisions are compared by original name, so a name appears once per batch.
		key := strings.ToLower(filepath.Base(upload.Filename))
		if _, dup := seen[key]; dup {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("duplicate file name %s", filepath.Base(upload.Filename)))
		}
		seen[key] = struct{}{}
	}
	stored := make(models.ManuscriptFiles, 0, len(uploads))
	for _, upload := range uploads {
		file, err := s.storeOne(manuscriptID, version, upload)
		if err != nil {
			s.Discard(stored...)
			return nil, err
		}
		stored = append(stored, file)
	}
	return stored, nil
}

func (s *FileService) storeOne(manuscriptID string, version int, upload FileUpload) (models.ManuscriptFile, error) {
	mimeType, err := s.detectMime(upload)
	if err != nil {
		return models.ManuscriptFile{}, err
	}
	id := uuid.NewString()
	ext := strings.ToLower(filepath.Ext(upload.Filename))
	if ext == "" {
		if known := mimetype.Lookup(mimeType); known != nil {
			ext = known.Extension()
		}
	}
	rel := path.Join("manuscripts", manuscriptID, fmt.Sprintf("v%d", version), id+ext)
	if _, err := upload.Content.Seek(0, io.SeekStart); err != nil {
		return models.ManuscriptFile{}, appErrors.Wrap(err, appErrors.ErrInternal, "failed to reset upload stream")
	}
	written, err := s.storage.SaveStream(rel, io.LimitReader(upload.Content, s.cfg.MaxFileSize+1))
	if err != nil {
		return models.ManuscriptFile{}, appErrors.Wrap(err, appErrors.ErrInternal, "failed to persist manuscript file")
	}
	if written > s.cfg.MaxFileSize {
		_ = s.storage.Delete(rel)
		return models.ManuscriptFile{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s exceeds %d bytes limit", upload.Filename, s.cfg.MaxFileSize))
	}
	return models.ManuscriptFile{
		ID:           id,
		OriginalName: filepath.Base(upload.Filename),
		StoredPath:   rel,
		MimeType:     mimeType,
		SizeBytes:    written,
		UploadedAt:   s.now(),
	}, nil
}

// Open streams a stored file.
func (s *FileService) Open(file models.ManuscriptFile) (io.ReadCloser, error) {
	f, err := s.storage.Open(file.StoredPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "file not found in storage")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal, "failed to open file")
	}
	return f, nil
}

// Delete removes one stored file.
func (s *FileService) Delete(file models.ManuscriptFile) error {
	return s.storage.Delete(file.StoredPath)
}

// Discard deletes files and only logs failures.
func (s *FileService) Discard(files ...models.ManuscriptFile) {
	for _, f := range files {
		if err := s.storage.Delete(f.StoredPath); err != nil {
			s.logger.Warn("failed to discard stored file", zap.String("file_id", f.ID), zap.String("path", f.StoredPath), zap.Error(err))
		}
	}
}

// SignedURL issues a time-limited download link for a file.
func (s *FileService) SignedURL(file models.ManuscriptFile) (string, time.Time, error) {
	if s.signer == nil {
		return "", time.Time{}, appErrors.Clone(appErrors.ErrInternal, "signed downloads are not configured")
	}
	token, expiresAt, err := s.signer.Generate(file.ID, file.StoredPath)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal, "failed to sign download")
	}
	return fmt.Sprintf("%s/files/download?token=%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token), expiresAt, nil
}

// OpenSigned resolves a signed token and opens the file it names.
func (s *FileService) OpenSigned(token string) (io.ReadCloser, string, error) {
	if s.signer == nil {
		return nil, "", appErrors.ErrUnauthorized
	}
	_, rel, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrUnauthorized, "invalid or expired download token")
	}
	rc, err := s.Open(models.ManuscriptFile{StoredPath: rel})
	if err != nil {
		return nil, "", err
	}
	return rc, path.Base(rel), nil
}

func (s *FileService) validate(upload FileUpload) error {
	if upload.Content == nil || upload.Size <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "file is empty")
	}
	if strings.TrimSpace(upload.Filename) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "file name is required")
	}
	if upload.Size > s.cfg.MaxFileSize {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s exceeds %d bytes limit", upload.Filename, s.cfg.MaxFileSize))
	}
	return nil
}

// detectMime sniffs the content and walks up the mimetype hierarchy so that e.g. a
// docx is accepted when only application/zip is allowed.
func (s *FileService) detectMime(upload FileUpload) (string, error) {
	if _, err := upload.Content.Seek(0, io.SeekStart); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal, "failed to reset upload stream")
	}
	detected, err := mimetype.DetectReader(upload.Content)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal, "failed to inspect file")
	}
	for mt := detected; mt != nil; mt = mt.Parent() {
		base := strings.ToLower(strings.SplitN(mt.String(), ";", 2)[0])
		if _, ok := s.mimeSet[base]; ok {
			return strings.ToLower(strings.SplitN(detected.String(), ";", 2)[0]), nil
		}
	}
	return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s: mime type %s not allowed", upload.Filename, detected.String()))
}
