package repository

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/customeros/formlayer/interfaces"
	"github.com/customeros/formlayer/internal/models"
	"github.com/customeros/formlayer/internal/utils"
)

// memoryOptionRepository keeps the relay in process memory. It follows the
// expiry rules of the postgres repository and backs tests of code that
// depends on interfaces.OptionRepository.
type memoryOptionRepository struct {
	mu      sync.Mutex
	options map[string]models.Option
	now     func() time.Time
}

func NewMemoryOptionRepository(now func() time.Time) interfaces.OptionRepository {
	if now == nil {
		now = utils.Now
	}
	return &memoryOptionRepository{options: make(map[string]models.Option), now: now}
}

func (r *memoryOptionRepository) expiresAt(ttl time.Duration) *time.Time {
	if ttl <= 0 {
		return nil
	}
	t := r.now().Add(ttl)
	return &t
}

func (r *memoryOptionRepository) liveOption(name string) (models.Option, bool) {
	option, ok := r.options[name]
	if !ok || option.Expired(r.now()) {
		return models.Option{}, false
	}
	return option, true
}

func (r *memoryOptionRepository) Get(_ context.Context, name string) (*models.Option, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	option, ok := r.liveOption(name)
	if !ok {
		return nil, nil
	}
	return &option, nil
}

func (r *memoryOptionRepository) Set(_ context.Context, name string, value any, ttl time.Duration) error {
	if name == "" {
		return ErrInvalidInput
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.options[name] = models.Option{Name: name, Value: raw, ExpiresAt: r.expiresAt(ttl), UpdatedAt: r.now()}
	return nil
}

func (r *memoryOptionRepository) Take(_ context.Context, name string) (*models.Option, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	option, ok := r.liveOption(name)
	delete(r.options, name)
	if !ok {
		return nil, nil
	}
	return &option, nil
}

func (r *memoryOptionRepository) AppendToList(_ context.Context, name, item string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var items []string
	if option, ok := r.liveOption(name); ok {
		_ = option.Decode(&items)
	}
	if !utils.IsStringInSlice(item, items) {
		items = append(items, item)
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	r.options[name] = models.Option{Name: name, Value: raw, ExpiresAt: r.expiresAt(ttl), UpdatedAt: r.now()}
	return nil
}

func (r *memoryOptionRepository) Delete(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.options, name)
	return nil
}

func (r *memoryOptionRepository) ListNames(_ context.Context, prefix string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var names []string
	for name := range r.options {
		if _, ok := r.liveOption(name); ok && strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (r *memoryOptionRepository) DeleteExpired(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for name, option := range r.options {
		if option.Expired(r.now()) {
			delete(r.options, name)
			deleted++
		}
	}
	return deleted, nil
}
