package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"school-quiz-service/internal/domain"
)

// GroupLoader fetches quiz group content from a backing store.
type GroupLoader interface {
	LoadGroups(ctx context.Context) ([]domain.QuizGroup, error)
}

// GroupRepository caches the serialized group list in Redis and falls back
// to the loader on cache miss. Cache fills are deduplicated with
// singleflight and expirations spread with TTL jitter.
type GroupRepository struct {
	client *redis.Client
	loader GroupLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewGroupRepository(client *redis.Client, loader GroupLoader, ttl time.Duration) *GroupRepository {
	return &GroupRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

const groupsKey = "quiz:groups"

// GetByPassword returns the single group whose password matches, or
// domain.ErrInvalidCredential.
func (r *GroupRepository) GetByPassword(ctx context.Context, password string) (domain.QuizGroup, error) {
	groups, err := r.load(ctx)
	if err != nil {
		return domain.QuizGroup{}, err
	}
	for _, group := range groups {
		if group.Password == password {
			return group, nil
		}
	}
	return domain.QuizGroup{}, domain.ErrInvalidCredential
}

// GetGroup returns a group by id, or domain.ErrNotFound.
func (r *GroupRepository) GetGroup(ctx context.Context, groupID string) (domain.QuizGroup, error) {
	groups, err := r.load(ctx)
	if err != nil {
		return domain.QuizGroup{}, err
	}
	for _, group := range groups {
		if group.ID == groupID {
			return group, nil
		}
	}
	return domain.QuizGroup{}, domain.ErrNotFound
}

func (r *GroupRepository) load(ctx context.Context) ([]domain.QuizGroup, error) {
	if groups, ok := r.fromCache(ctx); ok {
		return groups, nil
	}

	result, err, _ := r.sf.Do(groupsKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if groups, ok := r.fromCache(ctx); ok {
			return groups, nil
		}

		groups, err := r.loader.LoadGroups(ctx)
		if err != nil {
			return nil, err
		}

		if data, err := json.Marshal(groups); err == nil {
			_ = r.client.Set(ctx, groupsKey, data, r.ttlWithJitter()).Err()
		}
		return groups, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.QuizGroup), nil
}

func (r *GroupRepository) fromCache(ctx context.Context) ([]domain.QuizGroup, bool) {
	data, err := r.client.Get(ctx, groupsKey).Bytes()
	if err != nil {
		// miss or cache trouble, fall back to the loader
		return nil, false
	}
	var groups []domain.QuizGroup
	if err := json.Unmarshal(data, &groups); err != nil {
		return nil, false
	}
	return groups, true
}

func (r *GroupRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
