package jsonval

// Config bundles the structural limits and mode flags for a validation or
// sanitization pass. It is a plain value: behavior is a pure function of
// (input, Config) with no hidden state carried between calls. Construct one
// with Default or a preset and adjust fields as needed.
type Config struct {
	// MaxDepth is the deepest container nesting allowed. The root container
	// sits at depth 1, so a chain of MaxDepth nested containers passes and
	// one more is flagged.
	MaxDepth int
	// MaxTotalSize is the largest raw payload, in bytes, ValidateText will
	// parse at all.
	MaxTotalSize int64
	// MaxStringLen is the longest string leaf, in characters.
	MaxStringLen int
	// MaxArrayLen is the longest array.
	MaxArrayLen int
	// MaxKeys is the largest object member count.
	MaxKeys int
	// AllowDangerousKeys disables dangerous-key checks entirely.
	AllowDangerousKeys bool
	// StrictMode enables injection, encoding, and dangerous-key checks, and
	// makes Serialize/Deserialize fail on any violation.
	StrictMode bool
}

// Documented default limits.
const (
	DefaultMaxDepth     = 10
	DefaultMaxTotalSize = 1_000_000
	DefaultMaxStringLen = 10_000
	DefaultMaxArrayLen  = 1_000
	DefaultMaxKeys      = 1_000
)

// Default returns the baseline configuration: default limits, dangerous-key
// checks enabled, strict mode off.
func Default() Config {
	return Config{
		MaxDepth:     DefaultMaxDepth,
		MaxTotalSize: DefaultMaxTotalSize,
		MaxStringLen: DefaultMaxStringLen,
		MaxArrayLen:  DefaultMaxArrayLen,
		MaxKeys:      DefaultMaxKeys,
	}
}

// Strict returns the strict preset: default limits with StrictMode on.
// Violations make Serialize and Deserialize fail.
func Strict() Config {
	cfg := Default()
	cfg.StrictMode = true
	return cfg
}

// Relaxed returns the relaxed preset: roomier limits, dangerous keys
// allowed, violations advisory only.
func Relaxed() Config {
	return Config{
		MaxDepth:           20,
		MaxTotalSize:       DefaultMaxTotalSize,
		MaxStringLen:       100_000,
		MaxArrayLen:        10_000,
		MaxKeys:            DefaultMaxKeys,
		AllowDangerousKeys: true,
	}
}

// API returns the preset for untrusted API payloads: strict mode with
// tighter limits than Strict.
func API() Config {
	return Config{
		MaxDepth:     5,
		MaxTotalSize: 262_144,
		MaxStringLen: 5_000,
		MaxArrayLen:  500,
		MaxKeys:      100,
		StrictMode:   true,
	}
}
