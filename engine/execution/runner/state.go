package runner

import (
	"fmt"
)

// State is the stage of the reorg protocol the Runner is in.
type State int32

const (
	// Following extends the canonical chain block by block.
	Following State = iota
	// Diverging searches the common ancestor of the canonical chain and a fork.
	Diverging
	// Recovering replays the fork on top of the common ancestor.
	Recovering
)

func (s State) String() string {
	switch s {
	case Following:
		return "following"
	case Diverging:
		return "diverging"
	case Recovering:
		return "recovering"
	default:
		return fmt.Sprintf("unknown(%d)", int32(s))
	}
}
