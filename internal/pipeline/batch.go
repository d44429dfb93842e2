package pipeline

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/google/uuid"

	"github.com/rasterandstate/majestic-canon/internal/edition"
	"github.com/rasterandstate/majestic-canon/internal/logging"
	"github.com/rasterandstate/majestic-canon/internal/validate"
)

// Input is one record to identify. Err carries a failure to read or decode
// the record.
type Input struct {
	Record  string
	Edition *edition.Edition
	Err     error
}

// Summary is the outcome of a batch run. Results follow input order.
type Summary struct {
	RunID      string               `json:"run_id"`
	Results    []Result             `json:"results"`
	Advisories []validate.Violation `json:"advisories,omitempty"`

	advisoryBlocking bool
}

// Report combines every blocking problem and advisory of the run.
func (s Summary) Report() validate.Report {
	report := validate.Report{AdvisoryBlocking: s.advisoryBlocking}
	for _, r := range s.Results {
		report.Add(r.Problems()...)
	}
	report.Add(s.Advisories...)
	return report
}

// Derived returns the successful results.
func (s Summary) Derived() []Result {
	var out []Result
	for _, r := range s.Results {
		if r.OK() {
			out = append(out, r)
		}
	}
	return out
}

// Batch identifies many records concurrently. Records share no mutable
// state, so each is an independent unit of work.
type Batch struct {
	opts             Options
	workers          int
	advisoryBlocking bool
	logger           *slog.Logger
}

// NewBatch returns a batch runner. workers <= 0 uses GOMAXPROCS.
func NewBatch(opts Options, workers int, advisoryBlocking bool, logger *slog.Logger) *Batch {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Batch{
		opts:             opts.withDefaults(),
		workers:          workers,
		advisoryBlocking: advisoryBlocking,
		logger:           logging.NewComponentLogger(logger, "pipeline"),
	}
}

// Run identifies inputs under the run id carried by ctx, or a fresh one.
// Records not started before ctx is cancelled carry ctx.Err().
func (b *Batch) Run(ctx context.Context, inputs []Input) Summary {
	runID, ok := logging.RunIDFromContext(ctx)
	if !ok {
		runID = uuid.NewString()
		ctx = logging.WithRunID(ctx, runID)
	}
	summary := Summary{
		RunID:            runID,
		Results:          make([]Result, len(inputs)),
		advisoryBlocking: b.advisoryBlocking,
	}
	logger := logging.WithContext(ctx, b.logger)
	logger.Info("batch started",
		logging.Int("records", len(inputs)),
		logging.Int("workers", b.workers),
		logging.String(logging.FieldHashVersion, b.opts.Version.String()))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(b.workers, max(len(inputs), 1)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				summary.Results[i] = b.identify(ctx, inputs[i])
			}
		}()
	}

	next := 0
feed:
	for ; next < len(inputs); next++ {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- next:
		}
	}
	close(jobs)
	wg.Wait()
	for i := next; i < len(inputs); i++ {
		summary.Results[i] = Result{Record: inputs[i].Record, Err: ctx.Err()}
	}

	records := make([]validate.Record, 0, len(inputs))
	for i, in := range inputs {
		e := summary.Results[i].Edition()
		if e == nil && in.Err == nil {
			e = in.Edition
		}
		if e != nil {
			records = append(records, validate.Record{Name: in.Record, Edition: e})
		}
	}
	summary.Advisories = validate.CrossRecord(records, b.opts.Tables)

	derived := len(summary.Derived())
	logger.Info("batch finished",
		logging.Int("derived", derived),
		logging.Int("failed", len(inputs)-derived),
		logging.Int("advisories", len(summary.Advisories)))
	return summary
}

func (b *Batch) identify(ctx context.Context, in Input) Result {
	if in.Err != nil {
		return Result{Record: in.Record, Err: in.Err}
	}
	res := Identify(in.Record, in.Edition, b.opts)
	logger := logging.WithContext(logging.WithRecord(ctx, in.Record), b.logger)
	switch {
	case res.OK():
		logger.Debug("identity derived", logging.String(logging.FieldEditionID, string(res.ID)))
	case len(res.Violations) > 0:
		logger.Debug("record failed validation", logging.Int("violations", len(res.Violations)))
	default:
		logger.Debug("record not derived", logging.Error(res.Err))
	}
	return res
}
