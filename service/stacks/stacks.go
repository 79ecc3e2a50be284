package stacks

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/aleph-zero/stacklab/stack"
	log "github.com/go-chi/httplog/v2"
	"github.com/google/uuid"
)

// Service is a registry of live int64 stacks addressed by id. The registry
// serialises access; individual stacks are never touched concurrently.
type Service interface {
	Create(ctx context.Context, variant stack.Variant, capacity int) (*Info, error)
	Push(ctx context.Context, id string, value int64) (*Info, error)
	Pop(ctx context.Context, id string) (*PopResult, error)
	Get(id string) (*Info, error)
	List() []*Info
	Delete(ctx context.Context, id string) error
	Close(ctx context.Context)
}

type ServiceProvider struct {
	lock        sync.Mutex
	maxCapacity int
	stacks      map[string]*entry
}

type entry struct {
	id      string
	variant stack.Variant
	stack   stack.Stack[int64]
	created time.Time
}

func NewService(config *Config) *ServiceProvider {
	return &ServiceProvider{
		maxCapacity: config.MaxCapacity,
		stacks:      make(map[string]*entry),
	}
}

func (s *ServiceProvider) Create(ctx context.Context, variant stack.Variant, capacity int) (*Info, error) {
	if capacity <= 0 || capacity > s.maxCapacity {
		return nil, Error{
			ErrorCode: InvalidCapacity,
			Message:   fmt.Sprintf("capacity must be between 1 and %d, got %d", s.maxCapacity, capacity),
		}
	}
	if variant != stack.VariantManual && variant != stack.VariantManaged {
		return nil, Error{
			ErrorCode: InvalidVariant,
			Message:   fmt.Sprintf("unknown stack variant %v", variant),
		}
	}

	e := &entry{
		id:      uuid.NewString(),
		variant: variant,
		stack:   stack.New[int64](variant, capacity),
		created: time.Now().UTC(),
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	s.stacks[e.id] = e
	log.LogEntry(ctx).Info("Created stack", "id", e.id, "variant", variant.String(), "capacity", capacity)
	return e.info(), nil
}

func (s *ServiceProvider) Push(ctx context.Context, id string, value int64) (*Info, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	if e.stack.Len() >= e.stack.Cap() {
		log.LogEntry(ctx).Warn("Push onto full stack refused", "id", id, "capacity", e.stack.Cap())
		return nil, Error{
			ErrorCode: StackFull,
			Message:   fmt.Sprintf("stack %s is full (capacity %d)", id, e.stack.Cap()),
		}
	}
	e.stack.Push(value)
	return e.info(), nil
}

func (s *ServiceProvider) Pop(ctx context.Context, id string) (*PopResult, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	result := &PopResult{}
	if v, ok := e.stack.Pop(); ok {
		result.Value = &v
		result.Present = true
	}
	result.Len = e.stack.Len()
	return result, nil
}

func (s *ServiceProvider) Get(id string) (*Info, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	e, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	return e.info(), nil
}

func (s *ServiceProvider) List() []*Info {
	s.lock.Lock()
	defer s.lock.Unlock()

	infos := make([]*Info, 0, len(s.stacks))
	for _, e := range s.stacks {
		infos = append(infos, e.info())
	}
	slices.SortFunc(infos, func(a, b *Info) int {
		if c := a.Created.Compare(b.Created); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return infos
}

// Delete removes the stack and releases its storage along with any values it
// still holds.
func (s *ServiceProvider) Delete(ctx context.Context, id string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	e, err := s.lookup(id)
	if err != nil {
		return err
	}
	delete(s.stacks, id)
	log.LogEntry(ctx).Info("Releasing stack", "id", id, "len", e.stack.Len())
	stack.Release(e.stack)
	return nil
}

// Close releases every stack in the registry.
func (s *ServiceProvider) Close(ctx context.Context) {
	s.lock.Lock()
	defer s.lock.Unlock()

	for id, e := range s.stacks {
		stack.Release(e.stack)
		delete(s.stacks, id)
	}
	log.LogEntry(ctx).Info("Stack registry closed")
}

func (s *ServiceProvider) lookup(id string) (*entry, error) {
	e, ok := s.stacks[id]
	if !ok {
		return nil, Error{
			ErrorCode: NoSuchStack,
			Message:   fmt.Sprintf("stack %s does not exist", id),
		}
	}
	return e, nil
}

func (e *entry) info() *Info {
	return &Info{
		ID:       e.id,
		Variant:  e.variant,
		Len:      e.stack.Len(),
		Capacity: e.stack.Cap(),
		Created:  e.created,
	}
}

type Info struct {
	ID       string        `json:"id"`
	Variant  stack.Variant `json:"variant"`
	Len      int           `json:"len"`
	Capacity int           `json:"capacity"`
	Created  time.Time     `json:"created"`
}

type PopResult struct {
	Value   *int64 `json:"value,omitempty"`
	Present bool   `json:"present"`
	Len     int    `json:"len"`
}

/* *** Stacks Config *** */

const DefaultMaxCapacity = 1 << 20

type Config struct {
	MaxCapacity int
}

type Option func(*Config)

func NewConfig(options ...Option) *Config {
	cfg := &Config{MaxCapacity: DefaultMaxCapacity}
	for _, option := range options {
		option(cfg)
	}
	return cfg
}

func WithMaxCapacity(maxCapacity int) Option {
	return func(config *Config) {
		if maxCapacity > 0 {
			config.MaxCapacity = maxCapacity
		}
	}
}

/* *** Errors *** */

type ErrorCode int

const (
	NoSuchStack ErrorCode = iota + 1
	StackFull
	InvalidCapacity
	InvalidVariant
)

type Error struct {
	ErrorCode ErrorCode
	Message   string
	Err       error
}

func (e Error) Error() string {
	return e.Message
}

func (e Error) Unwrap() error {
	return e.Err
}

func (e Error) Is(target error) bool {
	if other, ok := target.(Error); ok {
		ignoreErrorCode := other.ErrorCode == 0
		ignoreMessage := other.Message == ""
		matchErrorCode := other.ErrorCode == e.ErrorCode
		matchMessage := other.Message == e.Message

		return matchMessage && matchErrorCode || matchMessage && ignoreErrorCode || ignoreMessage && matchErrorCode
	}
	return false
}
