package services

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"

	"github.com/nexo-rrhh/portal/internal/storage"
	"github.com/nexo-rrhh/portal/internal/testutil"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

func newTestUserService(t *testing.T) (*UserService, *testutil.Users) {
	t.Helper()
	repo := testutil.NewUsers()
	svc := NewUserService(repo)
	svc.hashCost = bcrypt.MinCost
	return svc, repo
}

// countingBackend records how often storage was reached.
type countingBackend struct {
	storage.ObjectStorage
	mu    sync.Mutex
	calls int
}

func (c *countingBackend) hit() {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
}

func (c *countingBackend) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	c.hit()
	return c.ObjectStorage.Put(ctx, key, r, size, contentType)
}

func (c *countingBackend) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	c.hit()
	return c.ObjectStorage.Get(ctx, key)
}

func (c *countingBackend) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type publishedMessage struct {
	channel string
	data    []byte
	attrs   map[string]string
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []publishedMessage
}

func (p *recordingPublisher) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, publishedMessage{channel: channel, data: data, attrs: attrs})
	return "msg-1", nil
}

type uploadFixture struct {
	users     *UserService
	userRepo  *testutil.Users
	uploads   *testutil.Uploads
	backend   *countingBackend
	dir       string
	publisher *recordingPublisher
	svc       *UploadService
}

func newUploadFixture(t *testing.T) *uploadFixture {
	t.Helper()
	users, userRepo := newTestUserService(t)
	uploads := testutil.NewUploads(userRepo)

	dir := filepath.Join(t.TempDir(), "uploads")
	local, err := storage.NewLocalDisk(dir)
	if err != nil {
		t.Fatalf("NewLocalDisk: %v", err)
	}
	backend := &countingBackend{ObjectStorage: local}
	objects := storage.NewStorage(backend)
	if err := objects.EnsureBucket(context.Background()); err != nil {
		t.Fatalf("EnsureBucket: %v", err)
	}

	publisher := &recordingPublisher{}
	svc := NewUploadService(uploads, objects, publisher, UploadOptions{
		AllowedExtensions: []string{".xlsx", ".xls"},
		EventsChannel:     "nexo.uploads.recorded",
	}, zerolog.Nop())

	return &uploadFixture{
		users:     users,
		userRepo:  userRepo,
		uploads:   uploads,
		backend:   backend,
		dir:       dir,
		publisher: publisher,
		svc:       svc,
	}
}
