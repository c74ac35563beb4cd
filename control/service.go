package control

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/valyala/bytebufferpool"

	"github.com/djdv/go-flowpool"
	"github.com/djdv/go-flowpool/buffer"
	"github.com/djdv/go-flowpool/packet"
)

type (
	// Registry is the flow lifecycle surface shared by
	// [Apply], [Consumer], and the HTTP API.
	Registry interface {
		AddFlow(Flow) error
		RemoveFlow(id string) error
		ClearFlows() int
		GetFlow(id string) (Flow, bool)
		ListFlows(Query) ([]Flow, error)
		Stats() Stats
	}
	// Stats summarizes a [Service].
	Stats struct {
		Flows     int          `json:"flows"`
		Templates int          `json:"templates"`
		Buffers   buffer.Stats `json:"buffers"`
	}
	// Service keeps one pre-built probe packet per flow
	// in a [flowpool.Pool], using handles from an allocator.
	// It is safe for concurrent use.
	// Constructed by [NewService].
	Service[Handle any] struct {
		mu        sync.Mutex
		pool      *flowpool.Pool[Handle]
		flows     *catalog
		allocator buffer.Allocator[Handle]
		builder   *packet.Builder
		scratch   bytebufferpool.Pool
		logger    *log.Logger
		now       func() time.Time
	}
	// Option configures a [Service].
	Option func(*settings)
	settings struct {
		sizeHint int
		logger   *log.Logger
		now      func() time.Time
	}
)

var _ Registry = (*Service[int])(nil)

// WithSizeHint pre-sizes the pool for an expected number of flows.
func WithSizeHint(flows int) Option {
	return func(s *settings) { s.sizeHint = flows }
}

// WithLogger sets the logger; [log.Default] is used otherwise.
func WithLogger(logger *log.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithClock sets the time source used to stamp probes.
func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

// NewService creates a [Service] whose packets are held in
// handles from allocator and encoded by builder.
// The allocator is the pool's release policy.
func NewService[Handle any](
	allocator buffer.Allocator[Handle], builder *packet.Builder,
	options ...Option,
) (*Service[Handle], error) {
	settings := settings{
		logger: log.Default(),
		now:    time.Now,
	}
	for _, apply := range options {
		apply(&settings)
	}
	pool, err := flowpool.New[Handle](allocator, settings.sizeHint)
	if err != nil {
		return nil, err
	}
	return &Service[Handle]{
		pool:      pool,
		flows:     newCatalog(),
		allocator: allocator,
		builder:   builder,
		logger:    settings.logger,
		now:       settings.now,
	}, nil
}

// AddFlow encodes the flow's probe and admits it.
// Identifiers already live are rejected with [flowpool.ErrDuplicateFlow].
func (s *Service[Handle]) AddFlow(flow Flow) error {
	if flow.ID == "" {
		return fmt.Errorf("%w: empty identifier", ErrInvalidFlow)
	}
	scratch := s.scratch.Get()
	defer s.scratch.Put(scratch)
	encoded, err := s.builder.Append(scratch.B[:0], flow.ID, flow.Direction, flow.Endpoint)
	if err != nil {
		return invalidFlowError(flow.ID, err)
	}
	scratch.B = encoded
	s.mu.Lock()
	defer s.mu.Unlock()
	handle, err := s.allocator.Acquire(encoded)
	if err != nil {
		return fmt.Errorf("packet buffer for flow %q: %w", flow.ID, err)
	}
	if err := s.pool.Insert(flow.ID, handle); err != nil {
		// Rejected inserts leave the handle with us.
		s.allocator.Release(handle)
		return err
	}
	s.flows.ReplaceOrInsert(flow)
	return nil
}

// RemoveFlow withdraws a flow and releases its packet.
func (s *Service[Handle]) RemoveFlow(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pool.Remove(id) {
		return notFoundError(id)
	}
	s.flows.Delete(Flow{ID: id})
	return nil
}

// ClearFlows withdraws every flow and returns how many there were.
func (s *Service[Handle]) ClearFlows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clear()
}

func (s *Service[Handle]) clear() int {
	count := s.pool.Len()
	s.pool.Clear()
	s.flows.Clear(false)
	return count
}

func (s *Service[Handle]) GetFlow(id string) (Flow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flows.Get(Flow{ID: id})
}

// ListFlows returns the flows selected by q, ordered by identifier.
func (s *Service[Handle]) ListFlows(q Query) ([]Flow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return selectFlows(s.flows, q)
}

func (s *Service[Handle]) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Flows:     s.pool.Len(),
		Templates: s.builder.Cached(),
		Buffers:   s.allocator.Stats(),
	}
}

// Transmit stamps and hands every pooled probe to send, in table order.
// It stops at the first send error and returns the number of probes sent.
// The packet passed to send is only valid for the duration of the call.
func (s *Service[Handle]) Transmit(send func(id string, pkt []byte) error) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, handle := range s.pool.Values() {
		var (
			id, _ = s.pool.At(i)
			pkt   = s.allocator.Bytes(handle)
		)
		if err := packet.Stamp(pkt, s.now()); err != nil {
			return i, fmt.Errorf("stamping probe for flow %q: %w", id, err)
		}
		if err := send(id, pkt); err != nil {
			return i, fmt.Errorf("sending probe for flow %q: %w", id, err)
		}
	}
	return s.pool.Len(), nil
}

// Close withdraws every flow, releasing all pooled packets.
func (s *Service[Handle]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if count := s.clear(); count > 0 {
		s.logger.Printf("released %d flows on close", count)
	}
	return s.pool.Close()
}
