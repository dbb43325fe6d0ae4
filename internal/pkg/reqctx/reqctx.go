// Package reqctx carries per-call correlation metadata.
//
// Every inbound call gets exactly one RequestContext. Its id generator and clock are injected
// so that handlers, tests and CLI commands can produce deterministic ids and timestamps.
package reqctx

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
)

// TimestampLayout is the wire format for RequestContext timestamps.
const TimestampLayout = time.RFC3339Nano

// RequestContext identifies a single inbound call.
type RequestContext struct {
	CorrelationID string
	ReceivedAt    time.Time
}

// Timestamp returns ReceivedAt formatted for error payloads.
func (rc RequestContext) Timestamp() string {
	return rc.ReceivedAt.UTC().Format(TimestampLayout)
}

// IsZero reports whether the context was never initialised.
func (rc RequestContext) IsZero() bool {
	return rc.CorrelationID == "" && rc.ReceivedAt.IsZero()
}

// IDGenerator produces correlation ids.
type IDGenerator interface {
	NewID() string
}

// IDGeneratorFunc adapts a function to IDGenerator.
type IDGeneratorFunc func() string

func (f IDGeneratorFunc) NewID() string { return f() }

// Clock returns the current time.
type Clock func() time.Time

// SystemClock is the default wall clock.
func SystemClock() time.Time { return time.Now() }

// New builds a RequestContext from the injected generator and clock.
func New(gen IDGenerator, clock Clock) RequestContext {
	if clock == nil {
		clock = SystemClock
	}
	return RequestContext{
		CorrelationID: gen.NewID(),
		ReceivedAt:    clock(),
	}
}

// SnowflakeGenerator issues time-ordered ids from a snowflake node.
type SnowflakeGenerator struct {
	node *snowflake.Node
}

// NewSnowflakeGenerator creates a generator bound to the given node number (0-1023).
func NewSnowflakeGenerator(nodeID int64) (*SnowflakeGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("create snowflake node %d: %w", nodeID, err)
	}
	return &SnowflakeGenerator{node: node}, nil
}

func (g *SnowflakeGenerator) NewID() string {
	return g.node.Generate().String()
}

// UUIDGenerator issues UUIDv7 ids, which are also time-ordered.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// NewGenerator picks a generator by format name ("snowflake" or "uuid").
func NewGenerator(format string, nodeID int64) (IDGenerator, error) {
	switch format {
	case "", "snowflake":
		return NewSnowflakeGenerator(nodeID)
	case "uuid":
		return UUIDGenerator{}, nil
	default:
		return nil, fmt.Errorf("unknown request id format %q", format)
	}
}

type contextKey struct{}

// With stores rc in ctx.
func With(ctx context.Context, rc RequestContext) context.Context {
	return context.WithValue(ctx, contextKey{}, rc)
}

// From returns the RequestContext stored in ctx, if any.
func From(ctx context.Context) (RequestContext, bool) {
	rc, ok := ctx.Value(contextKey{}).(RequestContext)
	return rc, ok
}

// Ensure returns ctx unchanged when it already carries a RequestContext, otherwise it attaches
// a fresh one built from gen and clock. The payment service and agent tools go through here.
func Ensure(ctx context.Context, gen IDGenerator, clock Clock) (context.Context, RequestContext) {
	if rc, ok := From(ctx); ok {
		return ctx, rc
	}
	rc := New(gen, clock)
	return With(ctx, rc), rc
}

// RequestID returns the correlation id from ctx or "unknown".
func RequestID(ctx context.Context) string {
	if rc, ok := From(ctx); ok && rc.CorrelationID != "" {
		return rc.CorrelationID
	}
	return "unknown"
}
