// Package bench measures push and pop throughput of the stack variants.
package bench

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aleph-zero/stacklab/stack"
	"github.com/aleph-zero/stacklab/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var DefaultSizes = []int{1024, 512 * 1024, 1024 * 1024, 2 * 1024 * 1024}

const DefaultIterations = 10

/* *** Bench Config *** */

type Config struct {
	Sizes      []int
	Iterations int
	Variants   []stack.Variant
}

type Option func(*Config)

func NewConfig(options ...Option) *Config {
	cfg := &Config{
		Sizes:      DefaultSizes,
		Iterations: DefaultIterations,
		Variants:   []stack.Variant{stack.VariantManaged, stack.VariantManual},
	}
	for _, option := range options {
		option(cfg)
	}
	return cfg
}

func WithSizes(sizes []int) Option {
	return func(c *Config) {
		if len(sizes) > 0 {
			c.Sizes = sizes
		}
	}
}

func WithIterations(iterations int) Option {
	return func(c *Config) {
		if iterations > 0 {
			c.Iterations = iterations
		}
	}
}

func WithVariants(variants []stack.Variant) Option {
	return func(c *Config) {
		if len(variants) > 0 {
			c.Variants = variants
		}
	}
}

/* *** Results *** */

type Op string

const (
	OpPush Op = "push"
	OpPop  Op = "pop"
)

type Result struct {
	Variant    stack.Variant `json:"variant"`
	Op         Op            `json:"op"`
	Elements   int           `json:"elements"`
	Samples    int           `json:"samples"`
	Min        time.Duration `json:"min"`
	Mean       time.Duration `json:"mean"`
	Max        time.Duration `json:"max"`
	Throughput float64       `json:"throughput"` // elements per second at the mean
}

// sink keeps popped values observable so the pop loop is not optimised away.
var sink int

type instruments struct {
	duration metric.Float64Histogram
	elements metric.Int64Counter
}

func newInstruments() (*instruments, error) {
	meter := telemetry.Meter()
	duration, err := meter.Float64Histogram("stacklab.bench.duration",
		metric.WithDescription("Time to push or pop every element of one stack"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("creating duration histogram: %w", err)
	}
	elements, err := meter.Int64Counter("stacklab.bench.elements",
		metric.WithDescription("Elements moved through stacks while benchmarking"))
	if err != nil {
		return nil, fmt.Errorf("creating elements counter: %w", err)
	}
	return &instruments{duration: duration, elements: elements}, nil
}

// Run measures every variant, size and operation in cfg. Stack construction,
// and for pops the initial fill, are excluded from the timings.
func Run(ctx context.Context, cfg *Config) ([]Result, error) {
	if cfg.Iterations <= 0 {
		return nil, fmt.Errorf("benchmark iterations must be positive, got %d", cfg.Iterations)
	}
	for _, size := range cfg.Sizes {
		if size <= 0 {
			return nil, fmt.Errorf("benchmark size must be positive, got %d", size)
		}
	}
	inst, err := newInstruments()
	if err != nil {
		return nil, err
	}

	results := make([]Result, 0, len(cfg.Variants)*len(cfg.Sizes)*2)
	for _, op := range []Op{OpPush, OpPop} {
		for _, variant := range cfg.Variants {
			for _, size := range cfg.Sizes {
				result, err := runCase(ctx, inst, variant, op, size, cfg.Iterations)
				if err != nil {
					return results, err
				}
				slog.InfoContext(ctx, "Benchmark case complete",
					"variant", variant.String(), "op", string(op), "elements", size,
					"mean", result.Mean, "throughput", result.Throughput)
				results = append(results, result)
			}
		}
	}
	return results, nil
}

func runCase(ctx context.Context, inst *instruments, variant stack.Variant, op Op, size, iterations int) (Result, error) {
	attrs := []attribute.KeyValue{
		attribute.String("variant", variant.String()),
		attribute.String("op", string(op)),
		attribute.Int("elements", size),
	}
	ctx, span := telemetry.StartSpan(ctx, "bench.Case")
	defer span.End()
	telemetry.SetAttributes(span, attrs...)

	result := Result{Variant: variant, Op: op, Elements: size}
	var total time.Duration
	for i := 0; i < iterations; i++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		d := sample(variant, op, size)
		inst.duration.Record(ctx, d.Seconds(), metric.WithAttributes(attrs...))
		inst.elements.Add(ctx, int64(size), metric.WithAttributes(attrs...))

		if result.Samples == 0 || d < result.Min {
			result.Min = d
		}
		result.Max = max(result.Max, d)
		total += d
		result.Samples++
	}

	result.Mean = total / time.Duration(result.Samples)
	if result.Mean > 0 {
		result.Throughput = float64(size) / result.Mean.Seconds()
	}
	return result, nil
}

func sample(variant stack.Variant, op Op, size int) time.Duration {
	s := stack.New[int](variant, size)
	defer stack.Release(s)

	if op == OpPush {
		start := time.Now()
		for i := 0; i < size; i++ {
			s.Push(i)
		}
		return time.Since(start)
	}

	for i := 0; i < size; i++ {
		s.Push(i)
	}
	start := time.Now()
	for {
		v, ok := s.Pop()
		if !ok {
			break
		}
		sink = v
	}
	return time.Since(start)
}
