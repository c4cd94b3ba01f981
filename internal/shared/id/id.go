// Package id provides identifier generation for the bridge.
//
// Identifiers are prefixed ULIDs:
//   - Sortable: creation order is visible in logs
//   - Typed: WindowID and TraceID cannot be mixed up at compile time
//   - Debuggable: prefixes (win_*, ipc_*) make log lines readable
//
// Correlation ids are NOT generated here; they are minted by the rendered
// content and treated as opaque strings by the bridge.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// WindowID identifies a window/webview pair for its whole lifetime.
type WindowID string

// TraceID tags one inbound IPC message across log lines.
type TraceID string

// InstanceID identifies one bridge instance (one process).
type InstanceID string

const (
	WindowPrefix = "win"
	TracePrefix  = "ipc"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex // Protects entropy reader
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand.
func NewGenerator() *Generator {
	return &Generator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
// Tests use it for deterministic ids.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{
		entropy: entropy,
	}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewWindowID generates a new window ID
func NewWindowID() WindowID {
	return WindowID(Default().GenerateWithPrefix(WindowPrefix))
}

// NewTraceID generates a new trace ID for an inbound message
func NewTraceID() TraceID {
	return TraceID(Default().GenerateWithPrefix(TracePrefix))
}

// NewInstanceID returns a random instance id.
func NewInstanceID() InstanceID {
	return InstanceID(uuid.NewString())
}

func (id WindowID) String() string   { return string(id) }
func (id TraceID) String() string    { return string(id) }
func (id InstanceID) String() string { return string(id) }

// Valid reports whether a prefixed id carries the expected prefix and a
// well-formed ULID.
func Valid(prefixed, prefix string) bool {
	rest, ok := strings.CutPrefix(prefixed, prefix+"_")
	if !ok {
		return false
	}
	_, err := ulid.Parse(rest)
	return err == nil
}

// Timestamp extracts the creation time from a prefixed id.
func Timestamp(prefixed string) (time.Time, error) {
	_, rest, ok := strings.Cut(prefixed, "_")
	if !ok {
		rest = prefixed
	}
	parsed, err := ulid.Parse(rest)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
