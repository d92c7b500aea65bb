package summarize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/thywilljoshua/pdf-summarizer/internal/ai"
	"github.com/thywilljoshua/pdf-summarizer/internal/metrics"
	"github.com/thywilljoshua/pdf-summarizer/internal/segment"
)

const (
	DefaultWorkers     = 3
	MaxWorkers         = 8
	DefaultChunkChars  = 12000
	DefaultMaxAttempts = 4
	DefaultCallTimeout = 2 * time.Minute
)

var (
	ErrCancelled   = errors.New("not processed: run cancelled")
	ErrAborted     = errors.New("not processed: run aborted")
	ErrNoSummaries = errors.New("no chapter summaries to combine")
)

type Options struct {
	// Prompt replaces DefaultChapterPrompt.
	Prompt      string
	Workers     int
	ChunkChars  int
	MaxAttempts int
	// RateLimit caps provider calls per second across workers; 0 disables it.
	RateLimit   float64
	CallTimeout time.Duration
	// BackOff returns the wait policy between attempts of one call.
	BackOff func() backoff.BackOff
	Now     func() time.Time
	// Provider labels metrics and logs.
	Provider string
}

func (o Options) withDefaults() Options {
	if strings.TrimSpace(o.Prompt) == "" {
		o.Prompt = DefaultChapterPrompt
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers
	}
	if o.Workers > MaxWorkers {
		o.Workers = MaxWorkers
	}
	if o.ChunkChars <= 0 {
		o.ChunkChars = DefaultChunkChars
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = DefaultCallTimeout
	}
	if o.BackOff == nil {
		o.BackOff = DefaultBackOff
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Provider == "" {
		o.Provider = "unknown"
	}
	return o
}

// DefaultBackOff waits 1s, 2s, 4s... up to 30s with jitter.
func DefaultBackOff() backoff.BackOff {
	return &backoff.ExponentialBackOff{
		InitialInterval:     time.Second,
		RandomizationFactor: 0.3,
		Multiplier:          2,
		MaxInterval:         30 * time.Second,
	}
}

type Pipeline struct {
	s       ai.Summarizer
	opts    Options
	limiter *rate.Limiter
	log     *zap.Logger
}

func New(s ai.Summarizer, opts Options, log *zap.Logger) *Pipeline {
	opts = opts.withDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	p := &Pipeline{s: s, opts: opts, log: log}
	if opts.RateLimit > 0 {
		burst := int(opts.RateLimit)
		if burst < 1 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return p
}

// Summarize produces one Result per chapter, in input order, followed by an
// overall summary. The overall summary is synthesized from the successful
// chapter summaries, not from the raw chapter text.
//
// Chapter failures are recorded in the report and do not stop the run. An
// authentication or fatal provider error stops new chapters from starting
// and is returned together with the partial report, as is the context error
// when ctx is cancelled. Calls already in flight run to completion, bounded
// by CallTimeout.
func (p *Pipeline) Summarize(ctx context.Context, document string, chapters []segment.Chapter) (*Report, error) {
	report := &Report{Document: document, StartedAt: p.opts.Now()}
	results := make([]Result, len(chapters))
	for i, c := range chapters {
		results[i] = Result{Chapter: c, Status: StatusSkipped}
	}

	p.log.Info("summarizing chapters",
		zap.String("document", document),
		zap.Int("chapters", len(chapters)),
		zap.Int("workers", p.opts.Workers),
		zap.String("provider", p.opts.Provider),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Workers)
	for i := range chapters {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			res := p.chapter(gctx, chapters[i])
			results[i] = res
			if res.Err != nil && ai.KindOf(res.Err).Aborts() {
				return res.Err
			}
			return nil
		})
	}
	runErr := g.Wait()
	if runErr == nil {
		runErr = ctx.Err()
	}

	for i := range results {
		if results[i].Status != StatusSkipped || results[i].Err != nil {
			continue
		}
		results[i].Err = skipReason(runErr)
		results[i].Error = results[i].Err.Error()
	}
	report.Chapters = results

	if runErr != nil {
		report.Overall = Result{Chapter: overallChapter(), Status: StatusSkipped, Err: skipReason(runErr)}
		report.Overall.Error = report.Overall.Err.Error()
	} else {
		report.Overall = p.overall(ctx, document, results)
	}

	for _, r := range report.Results() {
		metrics.ChaptersTotal.WithLabelValues(string(r.Status)).Inc()
		if r.Status == StatusFailed || r.Status == StatusSkipped {
			report.Failures = append(report.Failures, Failure{Ordinal: r.Chapter.Ordinal, Title: r.Chapter.Title, Reason: r.Reason()})
		}
	}
	report.FinishedAt = p.opts.Now()

	p.log.Info("summarization finished",
		zap.Int("succeeded", report.Succeeded()),
		zap.Int("failed", len(report.Failures)),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)),
	)
	return report, runErr
}

func skipReason(runErr error) error {
	if runErr == nil || errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
		return ErrCancelled
	}
	return fmt.Errorf("%w: %v", ErrAborted, runErr)
}

func (p *Pipeline) chapter(ctx context.Context, c segment.Chapter) Result {
	res := Result{Chapter: c}
	log := p.log.With(zap.Int("ordinal", c.Ordinal), zap.String("title", c.Title))

	chunks := Split(c.Body, p.opts.ChunkChars)
	if len(chunks) == 0 {
		res.Status = StatusEmpty
		res.GeneratedAt = p.opts.Now()
		log.Debug("chapter has no text")
		return res
	}

	partials := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		out, n, err := p.call(ctx, ai.Request{
			System: systemPrompt,
			Prompt: chapterRequest(p.opts.Prompt, c.Title, chunk, i+1, len(chunks)),
		})
		res.Attempts += n
		if err != nil {
			return p.fail(ctx, log, res, err)
		}
		partials = append(partials, out)
	}

	summary, n, err := p.reduce(ctx, partials, func(group []string) string {
		return combineRequest(p.opts.Prompt, c.Title, group)
	})
	res.Attempts += n
	if err != nil {
		return p.fail(ctx, log, res, err)
	}

	res.Summary = summary
	res.Status = StatusOK
	res.GeneratedAt = p.opts.Now()
	log.Debug("chapter summarized", zap.Int("chunks", len(chunks)), zap.Int("attempts", res.Attempts))
	return res
}

func (p *Pipeline) fail(ctx context.Context, log *zap.Logger, res Result, err error) Result {
	res.GeneratedAt = p.opts.Now()
	if interrupted(ctx, err) {
		res.Status = StatusSkipped
		res.Err = skipReason(context.Cause(ctx))
	} else {
		res.Status = StatusFailed
		res.Err = err
	}
	res.Error = res.Err.Error()
	log.Warn("chapter not summarized", zap.String("status", string(res.Status)), zap.Error(err))
	return res
}

// interrupted reports whether err is the run being stopped rather than a
// failure of this chapter's own calls.
func interrupted(ctx context.Context, err error) bool {
	if ctx.Err() == nil {
		return false
	}
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Cause(ctx))
}

func (p *Pipeline) overall(ctx context.Context, document string, chapters []Result) Result {
	res := Result{Chapter: overallChapter()}
	var ok []Result
	for _, r := range chapters {
		if r.OK() {
			ok = append(ok, r)
		}
	}
	if len(ok) == 0 {
		res.Status = StatusFailed
		res.Err = ErrNoSummaries
		res.Error = res.Err.Error()
		res.GeneratedAt = p.opts.Now()
		return res
	}

	// Chapter summaries that do not fit one request are first merged
	// pairwise, then the survivors are condensed into the overall summary.
	parts := make([]string, len(ok))
	for i, r := range ok {
		parts[i] = chapterBlock(r)
	}
	merged, n, err := p.reduceUntilFits(ctx, parts, func(group []string) string {
		return combineRequest(p.opts.Prompt, document, group)
	})
	res.Attempts += n
	if err == nil {
		var out string
		out, n, err = p.call(ctx, ai.Request{System: systemPrompt, Prompt: overallRequest(document, merged)})
		res.Attempts += n
		res.Summary = out
	}
	res.GeneratedAt = p.opts.Now()
	if err != nil {
		res.Status = StatusFailed
		res.Err = err
		res.Error = err.Error()
		p.log.Warn("overall summary failed", zap.Error(err))
		return res
	}
	res.Status = StatusOK
	return res
}

// reduce combines partial summaries tree-style until one remains.
func (p *Pipeline) reduce(ctx context.Context, partials []string, prompt func([]string) string) (string, int, error) {
	attempts := 0
	for len(partials) > 1 {
		next, n, err := p.reduceLevel(ctx, partials, prompt)
		attempts += n
		if err != nil {
			return "", attempts, err
		}
		partials = next
	}
	return partials[0], attempts, nil
}

// reduceUntilFits merges partials until their total size fits one request.
func (p *Pipeline) reduceUntilFits(ctx context.Context, partials []string, prompt func([]string) string) ([]string, int, error) {
	attempts := 0
	for len(partials) > 1 && totalLen(partials) > p.opts.ChunkChars {
		next, n, err := p.reduceLevel(ctx, partials, prompt)
		attempts += n
		if err != nil {
			return nil, attempts, err
		}
		partials = next
	}
	return partials, attempts, nil
}

func (p *Pipeline) reduceLevel(ctx context.Context, partials []string, prompt func([]string) string) ([]string, int, error) {
	attempts := 0
	var next []string
	for _, grp := range group(partials, p.opts.ChunkChars) {
		if len(grp) == 1 {
			next = append(next, grp[0])
			continue
		}
		out, n, err := p.call(ctx, ai.Request{System: systemPrompt, Prompt: prompt(grp)})
		attempts += n
		if err != nil {
			return nil, attempts, err
		}
		next = append(next, out)
	}
	return next, attempts, nil
}

// group packs consecutive items into groups of at most max bytes. Every
// group except possibly the last has at least two items, so each level
// shrinks the list.
func group(items []string, max int) [][]string {
	var out [][]string
	var cur []string
	size := 0
	for _, it := range items {
		if len(cur) >= 2 && size+len(it) > max {
			out = append(out, cur)
			cur, size = nil, 0
		}
		cur = append(cur, it)
		size += len(it)
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

func totalLen(items []string) int {
	n := 0
	for _, it := range items {
		n += len(it)
	}
	return n
}
