package classify

import (
	"context"
	"time"

	"github.com/jonathan/form-autofill/internal/backend"
	"github.com/jonathan/form-autofill/internal/cache"
	"github.com/jonathan/form-autofill/internal/types"
	"go.uber.org/zap"
)

// Batch classifier constants.
const (
	BatchSize     = types.MaxBatchFields
	ChunkCooldown = 100 * time.Millisecond
)

// StatisticalReason prefixes reasons contributed by the batch classifier.
const StatisticalReason = "statistical classifier"

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// BatchClassifier sends uncached fields to a backend transport in chunks of
// at most BatchSize and caches what comes back.
type BatchClassifier struct {
	transport backend.Transport
	cache     cache.Store
	logger    *zap.Logger
	sleep     SleepFunc
	cooldown  time.Duration
}

// BatchOption configures a BatchClassifier.
type BatchOption func(*BatchClassifier)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) BatchOption {
	return func(b *BatchClassifier) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithSleep replaces the inter-chunk wait.
func WithSleep(sleep SleepFunc) BatchOption {
	return func(b *BatchClassifier) { b.sleep = sleep }
}

// WithCooldown overrides ChunkCooldown.
func WithCooldown(d time.Duration) BatchOption {
	return func(b *BatchClassifier) { b.cooldown = d }
}

// NewBatchClassifier creates a batch classifier. A nil store gets an
// in-memory cache with cache.DefaultTTL.
func NewBatchClassifier(transport backend.Transport, store cache.Store, opts ...BatchOption) *BatchClassifier {
	if store == nil {
		store = cache.NewMemory(cache.DefaultTTL)
	}
	b := &BatchClassifier{
		transport: transport,
		cache:     store,
		logger:    zap.NewNop(),
		sleep:     sleepContext,
		cooldown:  ChunkCooldown,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Classify returns candidates for every field, keyed by field index. Fields
// of a failed chunk map to an empty list, which callers treat the same as
// "no rule matched". Chunks are sent sequentially with a cooldown between
// them. Only fields from successful chunks are written to the cache.
func (b *BatchClassifier) Classify(ctx context.Context, fields []types.FieldDescriptor, blocks *types.ContextBlocks) map[int][]types.Candidate {
	out := make(map[int][]types.Candidate, len(fields))

	var pending []types.FieldDescriptor
	keys := make(map[int]string, len(fields))
	for _, f := range fields {
		key := cache.Fingerprint(f)
		keys[f.Index] = key
		if entry, ok := b.cache.Get(ctx, key); ok {
			out[f.Index] = entry.Candidates
			continue
		}
		pending = append(pending, f)
	}

	if len(pending) == 0 {
		return out
	}

	chunks := Chunk(pending, BatchSize)
	b.logger.Debug("classifying uncached fields",
		zap.Int("fields", len(fields)),
		zap.Int("uncached", len(pending)),
		zap.Int("chunks", len(chunks)))

	for i, chunk := range chunks {
		if i > 0 {
			if err := b.sleep(ctx, b.cooldown); err != nil {
				b.fail(out, chunks[i:], i, err)
				break
			}
		}

		results, err := b.classifyChunk(ctx, chunk, blocks)
		if err != nil {
			b.fail(out, chunks[i:i+1], i, err)
			continue
		}

		for _, f := range chunk {
			cands, ok := results[f.Index]
			if !ok {
				cands = []types.Candidate{}
			}
			out[f.Index] = cands
			b.cache.Set(ctx, keys[f.Index], cands)
		}
	}

	return out
}

func (b *BatchClassifier) classifyChunk(ctx context.Context, chunk []types.FieldDescriptor, blocks *types.ContextBlocks) (map[int][]types.Candidate, error) {
	req := &types.ClassifyFieldsRequest{
		Fields:        make([]types.BackendField, 0, len(chunk)),
		ContextBlocks: blocks,
	}
	for _, f := range chunk {
		req.Fields = append(req.Fields, ToBackendField(f))
	}

	resp, err := b.transport.ClassifyFields(ctx, req)
	if err != nil {
		return nil, err
	}

	out := make(map[int][]types.Candidate, len(resp.Results))
	for _, r := range resp.Results {
		out[r.Index] = ResultCandidates(r)
	}
	return out, nil
}

func (b *BatchClassifier) fail(out map[int][]types.Candidate, chunks [][]types.FieldDescriptor, first int, err error) {
	for n, chunk := range chunks {
		b.logger.Warn("classification chunk failed",
			zap.Int("chunk", first+n),
			zap.Int("fields", len(chunk)),
			zap.Error(err))
		for _, f := range chunk {
			out[f.Index] = []types.Candidate{}
		}
	}
}

// ResultCandidates converts one backend result to candidates. Types outside
// the taxonomy, and UNKNOWN, yield an empty list.
func ResultCandidates(r types.BackendResult) []types.Candidate {
	t, ok := types.ParseTaxonomy(r.Type)
	if !ok || t == types.Unknown {
		return []types.Candidate{}
	}
	return []types.Candidate{types.NewCandidate(t, r.Confidence, StatisticalReason)}
}

// Chunk splits fields into consecutive groups of at most size.
func Chunk(fields []types.FieldDescriptor, size int) [][]types.FieldDescriptor {
	if size <= 0 {
		size = BatchSize
	}
	var out [][]types.FieldDescriptor
	for start := 0; start < len(fields); start += size {
		end := min(start+size, len(fields))
		out = append(out, fields[start:end])
	}
	return out
}
