package runner

import (
	"context"
	"fmt"

	"github.com/onflow/rollup-node/da"
)

// FinalityMode selects how heights become final.
type FinalityMode string

const (
	// FinalityDA trusts the finalized height reported by the DA layer.
	FinalityDA FinalityMode = "da"
	// FinalityDepth treats a height as final once enough blocks were applied on top of it.
	FinalityDepth FinalityMode = "depth"
	// FinalityBoth requires both rules to hold.
	FinalityBoth FinalityMode = "both"
)

// FinalityRule decides whether an applied height can be committed.
type FinalityRule interface {
	// IsFinal returns true if height is final given the canonical tip height.
	IsFinal(ctx context.Context, height uint64, tip uint64) (bool, error)
}

// depthRule makes height final when height + depth <= tip. Depth 0 is instant finality.
type depthRule struct {
	depth uint64
}

func (r depthRule) IsFinal(_ context.Context, height uint64, tip uint64) (bool, error) {
	return height+r.depth <= tip, nil
}

// daRule makes height final when the DA layer reports it as final.
type daRule struct {
	service da.Service
}

func (r daRule) IsFinal(ctx context.Context, height uint64, _ uint64) (bool, error) {
	finalized, err := r.service.LastFinalizedHeight(ctx)
	if err != nil {
		return false, fmt.Errorf("could not get finalized height from DA: %w", err)
	}
	return height <= finalized, nil
}

// allRules makes height final when every rule holds.
type allRules []FinalityRule

func (rules allRules) IsFinal(ctx context.Context, height uint64, tip uint64) (bool, error) {
	for _, rule := range rules {
		final, err := rule.IsFinal(ctx, height, tip)
		if err != nil || !final {
			return false, err
		}
	}
	return true, nil
}

// NewFinalityRule creates the rule for the given mode.
func NewFinalityRule(mode FinalityMode, depth uint64, service da.Service) (FinalityRule, error) {
	switch mode {
	case FinalityDepth:
		return depthRule{depth: depth}, nil
	case FinalityDA:
		return daRule{service: service}, nil
	case FinalityBoth:
		return allRules{daRule{service: service}, depthRule{depth: depth}}, nil
	default:
		return nil, fmt.Errorf("unknown finality mode %q", mode)
	}
}
