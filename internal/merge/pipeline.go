package merge

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/gonzaloobispo/Bioengine/internal/adapter"
	"github.com/gonzaloobispo/Bioengine/internal/config"
	"github.com/gonzaloobispo/Bioengine/internal/domain"
	"github.com/gonzaloobispo/Bioengine/internal/enrich"
	"github.com/gonzaloobispo/Bioengine/internal/observability"
	"github.com/gonzaloobispo/Bioengine/internal/persistence/csvtable"
	"github.com/gonzaloobispo/Bioengine/internal/runlock"
)

// Mirror replicates the master tables into an external store after a run.
type Mirror interface {
	Replace(ctx context.Context, runID string, weights []domain.WeightRecord, activities []domain.ActivityRecord) error
}

// Publisher announces a completed run.
type Publisher interface {
	PublishMergeCompleted(ctx context.Context, report *domain.Report) error
}

// Pipeline owns one full merge: fetch every source, reconcile both tables,
// enrich, persist. The stage order is explicit because later stages consume
// earlier outputs; the activity enrichment needs the merged weight table.
type Pipeline struct {
	cfg             config.Config
	weightSources   []adapter.WeightSource
	activitySources []adapter.ActivitySource
	writer          *csvtable.Writer
	mirror          Mirror
	publisher       Publisher
	logger          *log.Logger
}

// Option configures optional behaviour for the Pipeline.
type Option func(*Pipeline)

// WithMirror attaches a Postgres mirror.
func WithMirror(m Mirror) Option {
	return func(p *Pipeline) { p.mirror = m }
}

// WithPublisher attaches a run-summary publisher.
func WithPublisher(pub Publisher) Option {
	return func(p *Pipeline) { p.publisher = pub }
}

// WithLogger overrides the logger.
func WithLogger(logger *log.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// NewPipeline builds a Pipeline over the registered sources.
func NewPipeline(cfg config.Config, weightSources []adapter.WeightSource, activitySources []adapter.ActivitySource, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:             cfg,
		weightSources:   weightSources,
		activitySources: activitySources,
		writer:          csvtable.NewWriter(cfg.Pipeline.DecimalConvention),
		logger:          log.New(log.Writer(), "[merge] ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// state carries the intermediate products between stages.
type state struct {
	weightTables   [][]domain.WeightRecord
	activityTables [][]domain.ActivityRecord
	weights        []domain.WeightRecord
	activities     []domain.ActivityRecord
}

type stage struct {
	name string
	run  func(ctx context.Context, st *state, report *domain.Report) error
}

// Run executes one merge under the run lock. Source failures degrade to
// empty contributions; stage failures (I/O on the outputs) abort the run.
func (p *Pipeline) Run(ctx context.Context) (*domain.Report, error) {
	lock, err := runlock.Acquire(p.cfg.RunLockPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := lock.Release(); releaseErr != nil {
			p.logger.Printf("release run lock: %v", releaseErr)
		}
	}()

	report := domain.NewReport(uuid.NewString(), time.Now())
	st := &state{}

	stages := []stage{
		{name: "fetch", run: p.fetch},
		{name: "merge-weight", run: p.mergeWeight},
		{name: "merge-activity", run: p.mergeActivity},
		{name: "enrich", run: p.enrich},
		{name: "write", run: p.write},
		{name: "mirror", run: p.mirrorStage},
		{name: "publish", run: p.publish},
	}
	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := s.run(ctx, st, report); err != nil {
			return report, fmt.Errorf("stage %s: %w", s.name, err)
		}
		report.StagesRun = append(report.StagesRun, s.name)
	}

	observability.RecordRun(report.FinishedAt, report.WeightRows, report.ActivityRows)
	p.logger.Printf("run %s complete: %d weight rows, %d activity rows, %d dropped",
		report.RunID, report.WeightRows, report.ActivityRows, report.TotalDropped())
	return report, nil
}

// fetch pulls every source. A failed source is logged, counted and then
// contributes zero rows; the merge proceeds with the rest.
func (p *Pipeline) fetch(ctx context.Context, st *state, report *domain.Report) error {
	type weightTable struct {
		source string
		rows   []domain.WeightRecord
	}
	type activityTable struct {
		source string
		rows   []domain.ActivityRecord
	}

	var weightTables []weightTable
	for _, src := range p.weightSources {
		rows, err := src.FetchWeights(ctx)
		if err != nil {
			p.logger.Printf("source %s (weight) failed: %v", src.Name(), err)
			observability.RecordSourceError(src.Name())
		}
		report.RecordSource(src.Name()+"/weight", len(rows), err)
		if len(rows) > 0 {
			weightTables = append(weightTables, weightTable{source: src.Name(), rows: rows})
		}
	}

	var activityTables []activityTable
	for _, src := range p.activitySources {
		rows, err := src.FetchActivities(ctx)
		if err != nil {
			p.logger.Printf("source %s (activity) failed: %v", src.Name(), err)
			observability.RecordSourceError(src.Name())
		}
		report.RecordSource(src.Name()+"/activity", len(rows), err)
		if len(rows) > 0 {
			activityTables = append(activityTables, activityTable{source: src.Name(), rows: rows})
		}
	}

	// Stable-sort the tables into the configured priority order so the
	// dedupe passes see higher-fidelity sources first.
	rank := make(map[string]int, len(p.cfg.Pipeline.SourcePriority))
	for i, name := range p.cfg.Pipeline.SourcePriority {
		rank[name] = i
	}
	priority := func(name string) int {
		if r, ok := rank[name]; ok {
			return r
		}
		return len(rank)
	}
	sort.SliceStable(weightTables, func(i, j int) bool {
		return priority(weightTables[i].source) < priority(weightTables[j].source)
	})
	sort.SliceStable(activityTables, func(i, j int) bool {
		return priority(activityTables[i].source) < priority(activityTables[j].source)
	})

	for _, t := range weightTables {
		st.weightTables = append(st.weightTables, t.rows)
	}
	for _, t := range activityTables {
		st.activityTables = append(st.activityTables, t.rows)
	}
	return nil
}

func (p *Pipeline) mergeWeight(_ context.Context, st *state, report *domain.Report) error {
	st.weights = Weights(st.weightTables, p.cfg.Pipeline, report)
	return nil
}

func (p *Pipeline) mergeActivity(_ context.Context, st *state, report *domain.Report) error {
	st.activities = Activities(st.activityTables, p.cfg.Pipeline, report)
	return nil
}

func (p *Pipeline) enrich(_ context.Context, st *state, _ *domain.Report) error {
	calendar, err := enrich.LoadCalendar(p.cfg.CalendarCSVPath)
	if err != nil {
		p.logger.Printf("calendar unavailable: %v", err)
		calendar = enrich.Calendar{}
	}
	enrich.New(p.cfg.Pipeline, calendar, st.weights).Apply(st.activities)
	return nil
}

func (p *Pipeline) write(_ context.Context, st *state, _ *domain.Report) error {
	if err := p.writer.WriteWeights(p.cfg.WeightMasterPath, st.weights); err != nil {
		return err
	}
	return p.writer.WriteActivities(p.cfg.ActivityMasterPath, st.activities)
}

func (p *Pipeline) mirrorStage(ctx context.Context, st *state, report *domain.Report) error {
	if p.mirror == nil {
		return nil
	}
	return p.mirror.Replace(ctx, report.RunID, st.weights, st.activities)
}

func (p *Pipeline) publish(ctx context.Context, _ *state, report *domain.Report) error {
	report.FinishedAt = time.Now()
	if p.publisher == nil {
		return nil
	}
	// The summary is advisory; a broker outage must not fail the run.
	if err := p.publisher.PublishMergeCompleted(ctx, report); err != nil {
		p.logger.Printf("publish merge summary: %v", err)
	}
	return nil
}
