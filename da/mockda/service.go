package mockda

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/onflow/rollup-node/da"
	"github.com/onflow/rollup-node/model/rollup"
)

// ErrForkAboveHead is returned when a planned fork is triggered before the
// chain reached its fork height.
var ErrForkAboveHead = errors.New("planned fork height above head")

// PlannedFork replaces the chain above ForkHeight with one block per blob in
// Blobs, the first time TriggerHeight is requested.
type PlannedFork struct {
	TriggerHeight uint64
	ForkHeight    uint64
	Blobs         [][]byte
}

// Option configures a Service.
type Option func(*Service)

// WithoutParentLinks produces blocks that carry no parent id, like DA layers
// that do not link blocks by hash.
func WithoutParentLinks() Option {
	return func(s *Service) {
		s.parentLinks = false
	}
}

// WithWaitAttempts makes every height report da.ErrBlockPending for the first
// attempts requests after it was produced.
func WithWaitAttempts(attempts int) Option {
	return func(s *Service) {
		s.waitAttempts = attempts
	}
}

// Service is an in-memory DA layer. A block at height 0 exists from the
// start, every SendBlob produces the next block.
type Service struct {
	mu            sync.Mutex
	sequencer     rollup.Address
	finalityDepth uint64
	parentLinks   bool
	waitAttempts  int

	blocks   []*rollup.Block
	sequence uint64
	fork     *PlannedFork
	waited   map[uint64]int // pending replies given per height
}

var _ da.Service = (*Service)(nil)

// New creates a Service whose heights become final finalityDepth blocks below
// the head. A depth of 0 makes every block final immediately.
func New(sequencer rollup.Address, finalityDepth uint64, opts ...Option) *Service {
	s := &Service{
		sequencer:     sequencer,
		finalityDepth: finalityDepth,
		parentLinks:   true,
		waited:        make(map[uint64]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.blocks = []*rollup.Block{rollup.NewBlock(0, nil, 0, nil, nil)}
	return s
}

// SendBlob produces a new block holding data and returns its height.
func (s *Service) SendBlob(data []byte) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendBlock(data).Height()
}

// SetPlannedFork schedules a reorg of the chain.
func (s *Service) SetPlannedFork(fork PlannedFork) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if fork.ForkHeight >= fork.TriggerHeight {
		return fmt.Errorf("fork height %d must be below trigger height %d", fork.ForkHeight, fork.TriggerHeight)
	}
	if fork.ForkHeight+uint64(len(fork.Blobs)) < fork.TriggerHeight {
		return fmt.Errorf("fork of %d blocks at height %d does not reach trigger height %d",
			len(fork.Blobs), fork.ForkHeight, fork.TriggerHeight)
	}
	s.fork = &fork
	return nil
}

func (s *Service) appendBlock(data []byte) *rollup.Block {
	parent := s.blocks[len(s.blocks)-1]
	height := parent.Height() + 1

	var parentID *rollup.Identifier
	if s.parentLinks {
		id := parent.ID()
		parentID = &id
	}

	blob := rollup.Blob{Sender: s.sequencer, Sequence: s.sequence, Data: data}
	s.sequence++

	block := rollup.NewBlock(height, parentID, height, []rollup.Blob{blob}, nil)
	s.blocks = append(s.blocks, block)
	return block
}

func (s *Service) head() uint64 {
	return s.blocks[len(s.blocks)-1].Height()
}

// applyFork truncates the chain to the fork height and appends the fork blocks.
// The fork stays scheduled when the chain did not reach the fork height yet.
func (s *Service) applyFork() error {
	fork := s.fork
	if fork.ForkHeight > s.head() {
		return fmt.Errorf("fork height %d, head %d: %w", fork.ForkHeight, s.head(), ErrForkAboveHead)
	}
	s.fork = nil

	s.blocks = s.blocks[:fork.ForkHeight+1]
	for _, data := range fork.Blobs {
		s.appendBlock(data)
	}
	return nil
}

func (s *Service) BlockAt(ctx context.Context, height uint64) (*rollup.Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fork != nil && height >= s.fork.TriggerHeight {
		if err := s.applyFork(); err != nil {
			return nil, err
		}
	}

	if height > s.head() {
		return nil, fmt.Errorf("height %d above head %d: %w", height, s.head(), da.ErrBlockPending)
	}
	if s.waited[height] < s.waitAttempts {
		s.waited[height]++
		return nil, fmt.Errorf("height %d not released yet: %w", height, da.ErrBlockPending)
	}

	return s.blocks[height], nil
}

func (s *Service) LastFinalizedHeight(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFinalizedHeight(), nil
}

func (s *Service) lastFinalizedHeight() uint64 {
	head := s.head()
	if head < s.finalityDepth {
		return 0
	}
	return head - s.finalityDepth
}

func (s *Service) LastFinalizedBlockHeader(ctx context.Context) (*rollup.Header, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	header := *s.blocks[s.lastFinalizedHeight()].Header
	return &header, nil
}
