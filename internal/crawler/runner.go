package crawler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/YehoanatnEzra/Whatsapp-Crawler/internal/core/domain"
	errs "github.com/YehoanatnEzra/Whatsapp-Crawler/internal/core/errors"
	"github.com/YehoanatnEzra/Whatsapp-Crawler/internal/identity"
	"github.com/YehoanatnEzra/Whatsapp-Crawler/internal/observability"
	"github.com/YehoanatnEzra/Whatsapp-Crawler/internal/process/enrich"
	"github.com/YehoanatnEzra/Whatsapp-Crawler/internal/progress"
)

// Writer persists one finished export bundle and returns the written path.
type Writer interface {
	Write(ctx context.Context, bundle domain.ExportBundle) (string, error)
}

// RunStats is a snapshot of the live run counters served by the stats
// endpoint.
type RunStats struct {
	GroupsSelected   int `json:"groupsSelected"`
	GroupsDone       int `json:"groupsDone"`
	GroupsPartial    int `json:"groupsPartial"`
	GroupsFailed     int `json:"groupsFailed"`
	MessagesExported int `json:"messagesExported"`
	PagesFetched     int `json:"pagesFetched"`
}

// Runner executes a multi-group crawl sequentially, never concurrently,
// and aggregates the per-group outcomes into one summary.
type Runner struct {
	crawler   *Crawler
	discovery *Discovery
	writer    Writer
	settings  enrich.Settings
	bus       *progress.Bus
	logger    zerolog.Logger

	// The crawl itself is single-threaded; the mutex is for the stats
	// endpoint reading counters while a run is in progress.
	mu    sync.Mutex
	stats RunStats
}

// NewRunner wires the orchestrator parts together. The bus may be nil when
// no progress consumer exists.
func NewRunner(crawler *Crawler, discovery *Discovery, writer Writer, settings enrich.Settings, bus *progress.Bus, logger zerolog.Logger) *Runner {
	return &Runner{
		crawler:   crawler,
		discovery: discovery,
		writer:    writer,
		settings:  settings,
		bus:       bus,
		logger:    logger,
	}
}

// Run crawls the named groups in the given order. One group's failure
// never aborts the remaining groups; per-group failures land in the
// summary and the returned error reports selection problems or
// cancellation only.
func (r *Runner) Run(ctx context.Context, names []string) (domain.RunSummary, error) {
	if len(names) == 0 {
		return domain.RunSummary{}, errs.ErrNoGroupsSelected
	}

	runID := uuid.NewString()
	logger := r.logger.With().Str(fieldRunID, runID).Logger()

	logger.Info().Int(fieldCount, len(names)).Msg("Starting crawl run")

	r.mu.Lock()
	r.stats.GroupsSelected += len(names)
	r.mu.Unlock()

	summary := domain.RunSummary{TotalGroups: len(names)}

	for _, name := range names {
		res := r.runGroup(ctx, logger, name)
		summary.Results = append(summary.Results, res)

		if res.Status == domain.StatusFailed {
			summary.Failed++
		} else {
			summary.Successful++
		}

		r.record(res)
		observability.GroupsCrawled.WithLabelValues(string(res.Status)).Inc()

		if ctx.Err() != nil {
			return summary, ctx.Err()
		}
	}

	logger.Info().
		Int("successful", summary.Successful).
		Int("failed", summary.Failed).
		Msg("Crawl run finished")

	return summary, nil
}

// runGroup drives one group through the whole pipeline: selection,
// readiness, roster, loading, enrichment, analysis and export.
func (r *Runner) runGroup(ctx context.Context, logger zerolog.Logger, name string) domain.GroupResult {
	start := time.Now()
	res := domain.GroupResult{GroupName: name}

	defer func() {
		observability.GroupCrawlDuration.Observe(time.Since(start).Seconds())
	}()

	group, err := r.discovery.Find(ctx, name)
	if err != nil {
		logger.Error().Err(err).Str(fieldGroup, name).Msg("Group selection failed")

		return failed(res, err)
	}

	res.GroupID = group.ID
	res.GroupName = group.Name

	glog := logger.With().Str(fieldGroup, group.Name).Logger()

	confirmed, err := r.crawler.WaitReady(ctx, group.ID)
	if err != nil {
		return failed(res, err)
	}

	if !confirmed {
		res.Notes = append(res.Notes, "chat readiness not confirmed before timeout")
		observability.DataQualityFlags.Inc()
	}

	members, err := r.crawler.Roster(ctx, group.ID)
	if err != nil {
		glog.Warn().Err(err).Msg("Roster fetch failed, senders will not resolve")
		res.Notes = append(res.Notes, "member roster unavailable")
		observability.DataQualityFlags.Inc()
	}

	capture, loadErr := r.crawler.Load(ctx, group)
	if loadErr != nil && len(capture.Messages) == 0 {
		glog.Error().Err(loadErr).Msg("Crawl failed with nothing accumulated")

		return failed(res, loadErr)
	}

	res.Pages = capture.Pages
	res.StopReason = capture.StopReason

	if loadErr != nil {
		res.Status = domain.StatusPartial
		res.Error = loadErr.Error()
		res.Notes = append(res.Notes, fmt.Sprintf("remote failure after %d pages, exporting partial capture", capture.Pages))
		glog.Warn().Err(loadErr).Int(fieldCount, len(capture.Messages)).Msg("Remote failed mid-crawl, keeping partial capture")
	} else {
		res.Status = domain.StatusDone
	}

	r.publish(ctx, group.Name, progress.StageLoad, fmt.Sprintf("Loaded %d messages in %d pages", len(capture.Messages), capture.Pages))

	resolver := identity.NewResolver(members, glog)
	pipeline := enrich.New(resolver, r.settings, glog)

	enriched, stats := pipeline.Enrich(capture.Messages)
	res.MessageCount = len(enriched)

	r.publish(ctx, group.Name, progress.StageEnrich, fmt.Sprintf("Enriched %d messages", len(enriched)))

	r.analyze(ctx, glog, group, resolver, stats, &res)

	bundle := domain.ExportBundle{
		Metadata: domain.BundleMetadata{
			GroupName:        group.Name,
			GroupID:          group.ID,
			ParticipantCount: resolver.Count(),
			MessageCount:     len(enriched),
			ExportDate:       time.Now().UTC().Format(time.RFC3339),
		},
		Messages:     enriched,
		Participants: resolver.Members(),
	}

	path, err := r.writer.Write(ctx, bundle)
	if err != nil {
		glog.Error().Err(err).Msg("Bundle write failed")

		return failed(res, err)
	}

	res.OutputPath = path

	r.publish(ctx, group.Name, progress.StageExport, fmt.Sprintf("Exported to %s", path))

	glog.Info().
		Str(fieldStatus, string(res.Status)).
		Int(fieldCount, res.MessageCount).
		Int(fieldPages, res.Pages).
		Str(fieldPath, path).
		Msg("Group crawl finished")

	return res
}

// analyze reports data-quality signals without reconciling them: the
// metadata member count and the live roster may legitimately disagree and
// both values are preserved as-is.
func (r *Runner) analyze(ctx context.Context, logger zerolog.Logger, group domain.Group, resolver *identity.Resolver, stats enrich.Stats, res *domain.GroupResult) {
	if group.MetaCount > 0 && resolver.Count() > 0 && group.MetaCount != resolver.Count() {
		logger.Warn().
			Int("metadata_count", group.MetaCount).
			Int("roster_count", resolver.Count()).
			Msg("Metadata and roster member counts disagree")

		res.Notes = append(res.Notes, fmt.Sprintf("member counts disagree: metadata %d, roster %d", group.MetaCount, resolver.Count()))
		observability.DataQualityFlags.Inc()
	}

	if resolver.Count() > 0 && stats.DistinctSenders > resolver.Count() {
		logger.Warn().
			Int("distinct_senders", stats.DistinctSenders).
			Int("roster_count", resolver.Count()).
			Msg("History contains senders beyond the current roster")

		res.Notes = append(res.Notes, fmt.Sprintf("%d distinct senders in history, roster has %d", stats.DistinctSenders, resolver.Count()))
		observability.DataQualityFlags.Inc()
	}

	if stats.UnknownSenders > 0 {
		res.Notes = append(res.Notes, fmt.Sprintf("%d messages from unresolved senders", stats.UnknownSenders))
	}

	if stats.DroppedTimestamp > 0 {
		res.Notes = append(res.Notes, fmt.Sprintf("%d messages excluded for invalid timestamps", stats.DroppedTimestamp))
	}

	r.publish(ctx, group.Name, progress.StageAnalyze, "Analysis complete")
}

// Stats returns a snapshot of the run counters.
func (r *Runner) Stats() RunStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.stats
}

func (r *Runner) record(res domain.GroupResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch res.Status {
	case domain.StatusDone:
		r.stats.GroupsDone++
	case domain.StatusPartial:
		r.stats.GroupsPartial++
	case domain.StatusFailed:
		r.stats.GroupsFailed++
	}

	r.stats.MessagesExported += res.MessageCount
	r.stats.PagesFetched += res.Pages
}

func (r *Runner) publish(ctx context.Context, group string, stage progress.Stage, msg string) {
	if r.bus == nil {
		return
	}

	_ = r.bus.Publish(ctx, progress.Event{
		Stage:   stage,
		Group:   group,
		Message: msg,
		Current: stage.Percent(),
		Total:   100,
	})
}

func failed(res domain.GroupResult, err error) domain.GroupResult {
	res.Status = domain.StatusFailed
	res.Error = err.Error()

	return res
}
