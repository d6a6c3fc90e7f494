package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"school-quiz-service/internal/domain"
)

// GroupLoader fetches quiz group content from a backing store.
type GroupLoader interface {
	LoadGroups(ctx context.Context) ([]domain.QuizGroup, error)
}

// GroupRepository caches the full group list with TTL to avoid repeated
// DB hits. The list is small (a handful of competitions), so password and
// id lookups scan the cached slice.
type GroupRepository struct {
	loader GroupLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	groups    []domain.QuizGroup
	expiresAt time.Time
}

func NewGroupRepository(loader GroupLoader, ttl time.Duration) *GroupRepository {
	return &GroupRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// GetByPassword returns the single group whose password matches the
// credential, or domain.ErrInvalidCredential.
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
	now := r.clock()

	r.mu.RLock()
	if r.groups != nil && r.expiresAt.After(now) {
		groups := r.groups
		r.mu.RUnlock()
		return groups, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do("groups", func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if r.groups != nil && r.expiresAt.After(now) {
			groups := r.groups
			r.mu.RUnlock()
			return groups, nil
		}
		r.mu.RUnlock()

		groups, err := r.loader.LoadGroups(ctx)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.groups = groups
		r.expiresAt = now.Add(r.ttlWithJitter())
		r.mu.Unlock()
		return groups, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.QuizGroup), nil
}

func (r *GroupRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

// StaticGroupLoader serves groups from an in-memory slice (tests/demos).
type StaticGroupLoader struct {
	groups []domain.QuizGroup
}

func NewStaticGroupLoader(groups []domain.QuizGroup) *StaticGroupLoader {
	return &StaticGroupLoader{groups: groups}
}

func (l *StaticGroupLoader) LoadGroups(_ context.Context) ([]domain.QuizGroup, error) {
	return l.groups, nil
}
