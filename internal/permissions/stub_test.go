package permissions

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// stubStore is an in-memory Store used across the engine tests.
type stubStore struct {
	mu        sync.Mutex
	profiles  map[uuid.UUID]ProfileRecord
	overrides map[uuid.UUID][]byte
	readErr   error
	writeErr  error
	writes    int
}

func newStubStore() *stubStore {
	return &stubStore{
		profiles:  make(map[uuid.UUID]ProfileRecord),
		overrides: make(map[uuid.UUID][]byte),
	}
}

func (s *stubStore) addProfile(rec ProfileRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[rec.ID] = rec
}

func (s *stubStore) setRawOverride(id uuid.UUID, raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[id] = raw
}

func (s *stubStore) ReadOverride(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	if _, ok := s.profiles[userID]; !ok {
		return nil, ErrProfileNotFound
	}
	return s.overrides[userID], nil
}

func (s *stubStore) WriteOverride(ctx context.Context, userID uuid.UUID, o Override) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	if _, ok := s.profiles[userID]; !ok {
		return ErrProfileNotFound
	}
	data, err := o.Serialize()
	if err != nil {
		return err
	}
	s.overrides[userID] = data
	s.writes++
	return nil
}

func (s *stubStore) GetProfile(ctx context.Context, userID uuid.UUID) (ProfileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.profiles[userID]
	if !ok {
		return ProfileRecord{}, ErrProfileNotFound
	}
	return rec, nil
}

func (s *stubStore) ListProfiles(ctx context.Context, filter ListFilter) ([]ProfileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []ProfileRecord
	for _, rec := range s.profiles {
		if filter.ActiveOnly && !rec.Active {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func testDraftStore(t *testing.T) *DraftStore {
	t.Helper()
	return NewDraftStore(testRedis(t), 30*time.Minute)
}

func principalFor(rec ProfileRecord) Principal {
	return rec.Principal()
}

func employeeProfile() ProfileRecord {
	return ProfileRecord{
		ID:         uuid.New(),
		Email:      "clerk@station.test",
		Name:       "Station Clerk",
		Role:       RoleEmployee,
		Station:    "MOBIL",
		EmployeeID: "EMP-1042",
		Active:     true,
	}
}

func adminProfile() ProfileRecord {
	return ProfileRecord{
		ID:         uuid.New(),
		Email:      "admin@portal.test",
		Name:       "Portal Admin",
		Role:       RoleAdministrator,
		Station:    "ALL_STATIONS",
		EmployeeID: "EMP-0001",
		Active:     true,
	}
}
