// Package compiler turns an authored marker grid into a blockscript program.
//
// The scan visits altitude bands from the region origin upward, depth rows
// within each band, and cells along each row until the first empty cell.
// Every row that yields at least one token becomes one line:
//
//	band y=64, row z=0:  [event join] [action message] ...  ->  join&message~(Hi)~
//
// The resulting program replaces whatever the store held for the world.
package compiler

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zurustar/blockscript/pkg/logger"
	"github.com/zurustar/blockscript/pkg/opcode"
	"github.com/zurustar/blockscript/pkg/store"
)

// DefaultWorldSuffix is stripped from grid names to derive world ids.
const DefaultWorldSuffix = "_dev"

// MissFunc receives every marker that produced no token because its
// arguments could not be extracted.
type MissFunc func(err *MissError)

// Compiler scans grids into programs and writes them to a store.
type Compiler struct {
	resolver *Resolver
	store    store.ProgramStore
	suffix   string
	log      *slog.Logger
	tracer   trace.Tracer
	onMiss   MissFunc
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) { c.log = l }
}

// WithWorldSuffix sets the suffix stripped from grid names.
func WithWorldSuffix(suffix string) Option {
	return func(c *Compiler) { c.suffix = suffix }
}

// WithMissHandler replaces the default warn-level log for parse misses.
func WithMissHandler(f MissFunc) Option {
	return func(c *Compiler) { c.onMiss = f }
}

// WithTracer sets the tracer used for compile spans.
func WithTracer(t trace.Tracer) Option {
	return func(c *Compiler) { c.tracer = t }
}

// New creates a compiler writing to st. A nil resolver uses DefaultTable.
func New(st store.ProgramStore, r *Resolver, opts ...Option) *Compiler {
	if r == nil {
		r = NewResolver(DefaultTable())
	}
	c := &Compiler{
		resolver: r,
		store:    st,
		suffix:   DefaultWorldSuffix,
		log:      logger.GetLogger(),
		tracer:   otel.Tracer("blockscript/compiler"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.onMiss == nil {
		c.onMiss = func(err *MissError) {
			c.log.Warn("marker skipped", "error", err)
		}
	}
	return c
}

// WorldID derives the world id from a grid name.
func WorldID(name, suffix string) string {
	if suffix == "" {
		return name
	}
	return strings.TrimSuffix(name, suffix)
}

// WorldID derives the world id for g with the configured suffix.
func (c *Compiler) WorldID(g Grid) string {
	return WorldID(g.Name(), c.suffix)
}

// Scan builds the program for g without touching the store.
func (c *Compiler) Scan(g Grid) []string {
	reg := g.Region()
	step := reg.BandStep
	if step <= 0 {
		step = 1
	}

	program := []string{}
	for y := reg.Origin.Y; y < reg.Origin.Y+reg.Height; y += step {
		for z := reg.Origin.Z; z < reg.Origin.Z+reg.Depth; z++ {
			var tokens []string
			for x := reg.Origin.X; x < reg.Origin.X+reg.Width; x++ {
				pos := Pos{X: x, Y: y, Z: z}
				m, ok := g.MarkerAt(pos)
				if !ok {
					break
				}
				tok, err := c.resolver.Resolve(m)
				if err != nil {
					c.miss(pos, err)
					continue
				}
				tokens = append(tokens, tok)
			}
			if len(tokens) > 0 {
				program = append(program, opcode.JoinLine(tokens))
			}
		}
	}
	return program
}

func (c *Compiler) miss(pos Pos, err error) {
	me, ok := err.(*MissError)
	if !ok {
		c.log.Warn("marker skipped", "pos", pos, "error", err)
		return
	}
	me.Pos = pos
	if me.Kind == MissUnrecognized {
		c.log.Debug("unrecognized marker", "family", me.Family.String(), "label", me.Label, "pos", pos)
		return
	}
	c.onMiss(me)
}

// Compile scans g and replaces the world's program in the store with one
// SetLines and one Save. It returns the program even when the store fails.
func (c *Compiler) Compile(ctx context.Context, g Grid) ([]string, error) {
	worldID := c.WorldID(g)
	ctx, span := c.tracer.Start(ctx, "compiler.compile",
		trace.WithAttributes(attribute.String("world.id", worldID)))
	defer span.End()

	program := c.Scan(g)
	span.SetAttributes(attribute.Int("program.lines", len(program)))

	if err := c.store.SetLines(ctx, worldID, program); err != nil {
		span.RecordError(err)
		return program, fmt.Errorf("failed to store program for %s: %w", worldID, err)
	}
	if err := c.store.Save(ctx); err != nil {
		span.RecordError(err)
		return program, fmt.Errorf("failed to save program for %s: %w", worldID, err)
	}

	c.log.Info("compiled world", "world", worldID, "lines", len(program))
	return program, nil
}
