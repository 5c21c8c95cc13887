package permissions

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNoDraft indicates no open edit session exists for the user.
var ErrNoDraft = errors.New("permissions: no open draft")

// DraftStore keeps edit-session drafts in Redis, keyed per edited user.
// Drafts expire with the TTL so abandoned sessions clean themselves up.
// Concurrent edit sessions for the same user are not coordinated; the last
// writer's draft wins, matching the save semantics.
type DraftStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDraftStore constructs a DraftStore.
func NewDraftStore(client *redis.Client, ttl time.Duration) *DraftStore {
	return &DraftStore{client: client, ttl: ttl}
}

func (s *DraftStore) key(userID uuid.UUID) string {
	return "perm:draft:" + userID.String()
}

// Get loads the open draft for a user.
func (s *DraftStore) Get(ctx context.Context, userID uuid.UUID) (*Draft, error) {
	data, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoDraft
		}
		return nil, err
	}
	var draft Draft
	if err := json.Unmarshal(data, &draft); err != nil {
		return nil, err
	}
	if draft.Matrix == nil {
		draft.Matrix = Matrix{}
	}
	return &draft, nil
}

// Put stores the draft, refreshing its TTL.
func (s *DraftStore) Put(ctx context.Context, draft *Draft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(draft.UserID), data, s.ttl).Err()
}

// Delete removes the draft, if any.
func (s *DraftStore) Delete(ctx context.Context, userID uuid.UUID) {
	_ = s.client.Del(ctx, s.key(userID)).Err()
}
