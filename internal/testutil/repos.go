// Package testutil provides in-memory repositories that honor the same
// constraints as the PostgreSQL schema: unique usernames and stored names,
// and uploads that must reference an existing user.
package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/nexo-rrhh/portal/internal/store"
	"github.com/nexo-rrhh/portal/types"
)

// Users is an in-memory users table.
type Users struct {
	mu     sync.Mutex
	nextID int
	rows   map[int]types.User
}

func NewUsers() *Users {
	return &Users{nextID: 1, rows: make(map[int]types.User)}
}

func (u *Users) GetActiveByID(ctx context.Context, id int) (types.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.rows[id]
	if !ok || !user.IsActive {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (u *Users) GetActiveByUsername(ctx context.Context, username string) (types.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, user := range u.rows {
		if user.Username == username && user.IsActive {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (u *Users) List(ctx context.Context) ([]types.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	users := make([]types.User, 0, len(u.rows))
	for _, user := range u.rows {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (u *Users) Count(ctx context.Context) (int, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.rows), nil
}

func (u *Users) Create(ctx context.Context, user types.User) (types.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, existing := range u.rows {
		if existing.Username == user.Username {
			return types.User{}, store.ErrDuplicateUsername
		}
	}
	user.ID = u.nextID
	user.CreatedAt = time.Now()
	u.nextID++
	u.rows[user.ID] = user
	return user, nil
}

func (u *Users) SetActive(ctx context.Context, id int, active bool) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.rows[id]
	if !ok {
		return store.ErrNotFound
	}
	user.IsActive = active
	u.rows[id] = user
	return nil
}

func (u *Users) exists(id int) (types.User, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.rows[id]
	return user, ok
}

// Uploads is an in-memory uploads table bound to a Users table for the
// foreign key.
type Uploads struct {
	mu     sync.Mutex
	users  *Users
	nextID int
	rows   []types.Upload
}

func NewUploads(users *Users) *Uploads {
	return &Uploads{users: users, nextID: 1}
}

func (u *Uploads) Create(ctx context.Context, upload types.Upload) (types.Upload, error) {
	if _, ok := u.users.exists(upload.UploadedBy); !ok {
		return types.Upload{}, store.ErrForeignKeyViolation
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	for _, existing := range u.rows {
		if existing.StoredName == upload.StoredName {
			return types.Upload{}, store.ErrConflict
		}
	}
	upload.ID = u.nextID
	upload.UploadedAt = time.Now()
	upload.Notes = strings.TrimSpace(upload.Notes)
	u.nextID++
	u.rows = append(u.rows, upload)
	return upload, nil
}

func (u *Uploads) ListRecent(ctx context.Context, limit int) ([]types.UploadListItem, error) {
	if limit <= 0 {
		limit = store.DefaultRecentLimit
	}

	u.mu.Lock()
	rows := append([]types.Upload(nil), u.rows...)
	u.mu.Unlock()

	items := make([]types.UploadListItem, 0, limit)
	for i := len(rows) - 1; i >= 0 && len(items) < limit; i-- {
		user, _ := u.users.exists(rows[i].UploadedBy)
		items = append(items, types.UploadListItem{Upload: rows[i], UploaderUsername: user.Username})
	}
	return items, nil
}

func (u *Uploads) GetByStoredName(ctx context.Context, storedName string) (types.Upload, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, upload := range u.rows {
		if upload.StoredName == storedName {
			return upload, nil
		}
	}
	return types.Upload{}, store.ErrNotFound
}

// Len returns the number of recorded uploads.
func (u *Uploads) Len() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.rows)
}
