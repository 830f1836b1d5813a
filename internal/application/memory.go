package application

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store. It backs local development without
// Postgres and the service tests. Semantics mirror Repository, including
// the write-once guards on QR code and check-in.
type MemoryStore struct {
	mu   sync.RWMutex
	apps map[string]Application
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{apps: make(map[string]Application)}
}

func (m *MemoryStore) Insert(_ context.Context, app Application) (Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now().UTC()
	app.ID = uuid.NewString()
	app.SubmittedAt = now
	app.UpdatedAt = now
	m.apps[app.ID] = app
	return app, nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	app, ok := m.apps[id]
	if !ok {
		return Application{}, &NotFoundError{ID: id}
	}
	return app, nil
}

func (m *MemoryStore) UpdateStatus(_ context.Context, id string, upd StatusUpdate) (Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	app, ok := m.apps[id]
	if !ok {
		return Application{}, &NotFoundError{ID: id}
	}

	app.Status = upd.Status
	if upd.RejectionReason != nil {
		app.RejectionReason = *upd.RejectionReason
	}
	if upd.QRCodeURL != nil {
		app.QRCodeURL = *upd.QRCodeURL
	}
	app.UpdatedAt = time.Now().UTC()
	m.apps[id] = app
	return app, nil
}

func (m *MemoryStore) SetQRCode(_ context.Context, id, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	app, ok := m.apps[id]
	if !ok {
		return &NotFoundError{ID: id}
	}
	if app.QRCodeURL != "" {
		return nil
	}
	app.QRCodeURL = url
	app.UpdatedAt = time.Now().UTC()
	m.apps[id] = app
	return nil
}

func (m *MemoryStore) MarkCheckedIn(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	app, ok := m.apps[id]
	if !ok {
		return &NotFoundError{ID: id}
	}
	if app.CheckInStatus == CheckedIn {
		return nil
	}
	app.CheckInStatus = CheckedIn
	app.CheckInTime = &at
	app.UpdatedAt = time.Now().UTC()
	m.apps[id] = app
	return nil
}

func (m *MemoryStore) List(_ context.Context) ([]Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	apps := make([]Application, 0, len(m.apps))
	for _, app := range m.apps {
		apps = append(apps, app)
	}
	sort.Slice(apps, func(i, j int) bool {
		return apps[i].SubmittedAt.After(apps[j].SubmittedAt)
	})
	return apps, nil
}
