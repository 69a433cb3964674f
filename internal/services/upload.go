package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/nexo-rrhh/portal/internal/mq"
	"github.com/nexo-rrhh/portal/internal/storage"
	"github.com/nexo-rrhh/portal/internal/store"
	"github.com/nexo-rrhh/portal/types"
	"github.com/rs/zerolog"
)

const maxStoreAttempts = 5

var contentTypes = map[string]string{
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".xls":  "application/vnd.ms-excel",
}

// UploadRepository defines persistence operations for upload metadata.
type UploadRepository interface {
	Create(ctx context.Context, upload types.Upload) (types.Upload, error)
	ListRecent(ctx context.Context, limit int) ([]types.UploadListItem, error)
	GetByStoredName(ctx context.Context, storedName string) (types.Upload, error)
}

// EventPublisher receives a notification for every recorded upload.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// UploadInput is a file received from a user.
type UploadInput struct {
	// Filename is the name the client sent; it may contain a path.
	Filename string
	File     io.Reader
	Size     int64
	Notes    string
	Uploader types.User
}

// Artifact is a stored file ready to be streamed back.
type Artifact struct {
	Upload      types.Upload
	Body        io.ReadCloser
	ContentType string
}

// UploadOptions configures an UploadService.
type UploadOptions struct {
	AllowedExtensions []string
	EventsChannel     string
}

// UploadService validates, stores and records uploaded spreadsheets.
type UploadService struct {
	repo      UploadRepository
	storage   *storage.Storage
	publisher EventPublisher
	channel   string
	allowed   map[string]struct{}
	log       zerolog.Logger
	now       func() time.Time
	token     func() string
}

// NewUploadService constructs an UploadService. publisher may be nil, in
// which case no events are emitted.
func NewUploadService(repo UploadRepository, objects *storage.Storage, publisher EventPublisher, opts UploadOptions, log zerolog.Logger) *UploadService {
	allowed := make(map[string]struct{}, len(opts.AllowedExtensions))
	for _, ext := range opts.AllowedExtensions {
		allowed[strings.ToLower(ext)] = struct{}{}
	}
	return &UploadService{
		repo:      repo,
		storage:   objects,
		publisher: publisher,
		channel:   opts.EventsChannel,
		allowed:   allowed,
		log:       log,
		now:       time.Now,
		token:     newUploadToken,
	}
}

// Accept stores the file under a fresh unique name and then records its
// metadata. The file is complete in storage before the row exists; if the
// row cannot be written the file is removed again.
func (s *UploadService) Accept(ctx context.Context, in UploadInput) (types.Upload, error) {
	if in.File == nil || clientBaseName(in.Filename) == "" {
		return types.Upload{}, ErrNoFileSelected
	}
	ext := fileExtension(in.Filename)
	if _, ok := s.allowed[ext]; !ok {
		return types.Upload{}, ErrUnsupportedFormat
	}

	storedName, err := s.store(ctx, in)
	if err != nil {
		return types.Upload{}, err
	}

	upload, err := s.repo.Create(ctx, types.Upload{
		OriginalName: clientBaseName(in.Filename),
		StoredName:   storedName,
		UploadedBy:   in.Uploader.ID,
		Notes:        strings.TrimSpace(in.Notes),
	})
	if err != nil {
		if delErr := s.storage.Delete(ctx, storedName); delErr != nil {
			s.log.Warn().Err(delErr).Str("stored_name", storedName).Msg("failed to remove orphaned upload")
		}
		return types.Upload{}, fmt.Errorf("record upload: %w", err)
	}

	s.publish(ctx, upload)
	return upload, nil
}

func (s *UploadService) store(ctx context.Context, in UploadInput) (string, error) {
	sanitized := SanitizeFilename(in.Filename)
	contentType := contentTypes[fileExtension(sanitized)]

	for attempt := 0; attempt < maxStoreAttempts; attempt++ {
		if attempt > 0 {
			// A backend may have consumed the payload before noticing the
			// name was taken.
			seeker, ok := in.File.(io.Seeker)
			if !ok {
				break
			}
			if _, err := seeker.Seek(0, io.SeekStart); err != nil {
				return "", fmt.Errorf("rewind upload: %w", err)
			}
		}
		name := buildStoredName(s.now(), s.token(), sanitized)
		err := s.storage.Put(ctx, name, in.File, in.Size, contentType)
		if err == nil {
			return name, nil
		}
		if !errors.Is(err, storage.ErrObjectExists) {
			return "", fmt.Errorf("store upload: %w", err)
		}
		s.log.Debug().Str("stored_name", name).Msg("stored name taken, retrying")
	}
	return "", fmt.Errorf("store upload: %w", storage.ErrObjectExists)
}

func (s *UploadService) publish(ctx context.Context, upload types.Upload) {
	if s.publisher == nil || s.channel == "" {
		return
	}
	payload, err := json.Marshal(types.UploadEvent{
		UploadID:     upload.ID,
		StoredName:   upload.StoredName,
		OriginalName: upload.OriginalName,
		UploadedBy:   upload.UploadedBy,
		UploadedAt:   upload.UploadedAt,
	})
	if err != nil {
		s.log.Error().Err(err).Int("upload_id", upload.ID).Msg("failed to encode upload event")
		return
	}
	attrs := map[string]string{
		mq.AttrContentType: "application/json",
		"event":            "upload.recorded",
	}
	if _, err := s.publisher.Publish(ctx, s.channel, payload, attrs); err != nil {
		s.log.Warn().Err(err).Int("upload_id", upload.ID).Msg("failed to publish upload event")
	}
}

// ListRecent returns the newest uploads with their uploader's username.
func (s *UploadService) ListRecent(ctx context.Context, limit int) ([]types.UploadListItem, error) {
	return s.repo.ListRecent(ctx, limit)
}

// Fetch opens a recorded artifact. Names that could not have been generated
// by Accept are rejected before storage or the database is consulted.
func (s *UploadService) Fetch(ctx context.Context, storedName string) (Artifact, error) {
	if !validStoredName(storedName) {
		return Artifact{}, ErrPathTraversalRejected
	}

	upload, err := s.repo.GetByStoredName(ctx, storedName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Artifact{}, ErrArtifactNotFound
		}
		return Artifact{}, fmt.Errorf("load upload: %w", err)
	}

	body, err := s.storage.Get(ctx, storedName)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrObjectNotFound):
			return Artifact{}, ErrArtifactNotFound
		case errors.Is(err, storage.ErrInvalidKey):
			return Artifact{}, ErrPathTraversalRejected
		}
		return Artifact{}, fmt.Errorf("open artifact: %w", err)
	}

	contentType, ok := contentTypes[strings.ToLower(filepath.Ext(storedName))]
	if !ok {
		contentType = "application/octet-stream"
	}
	return Artifact{Upload: upload, Body: body, ContentType: contentType}, nil
}
