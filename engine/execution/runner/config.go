package runner

// DefaultMaxReorgDepth bounds the number of heights a fork may replace.
const DefaultMaxReorgDepth = 64

// Config of the Runner.
type Config struct {
	FinalityMode  FinalityMode
	FinalityDepth uint64
	// MaxReorgDepth bounds the backward walk when searching the common ancestor of a fork. 0 disables the bound.
	MaxReorgDepth uint64
	// StopAtHeight makes Run return once the canonical tip reaches it. 0 disables.
	StopAtHeight uint64
}

func DefaultConfig() Config {
	return Config{
		FinalityMode:  FinalityDepth,
		FinalityDepth: 0,
		MaxReorgDepth: DefaultMaxReorgDepth,
	}
}
