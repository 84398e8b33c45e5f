package scraper

import (
	"context"
	"fmt"
	"time"

	"biliguard/pkg/bilibili"
	"biliguard/pkg/config"
	errs "biliguard/pkg/errors"
	"biliguard/pkg/logger"
	"biliguard/pkg/metrics"
	"biliguard/pkg/ratelimit"
	"biliguard/pkg/retry"
	"biliguard/pkg/status"
	"biliguard/pkg/store"
)

// API is the remote content/comment surface the scraper consumes.
// *bilibili.Client satisfies it.
type API interface {
	UserInfo(ctx context.Context, mid int64) (bilibili.UserInfo, error)
	ListVideos(ctx context.Context, mid int64, page int) (bilibili.VideoList, error)
	ListDynamics(ctx context.Context, mid int64, offset int64) (bilibili.DynamicFeed, error)
	ListComments(ctx context.Context, oid int64, kind bilibili.ResourceType, page int, order bilibili.CommentOrder) (bilibili.ReplyPage, error)
	ListSubReplies(ctx context.Context, oid int64, kind bilibili.ResourceType, root int64, page int) (bilibili.ReplyPage, error)
}

// ContentItem is one scraped unit, re-derived every pass and never persisted
type ContentItem struct {
	Oid       int64
	Kind      bilibili.ResourceType
	Label     string
	CreatedAt time.Time
	// Recent marks items created after the configured cutoff; they are
	// excluded from the legacy aggregate counters
	Recent bool
}

// Scraper drives the scrape-and-reconcile engine for one account
type Scraper struct {
	api      API
	store    store.Store
	gate     *ratelimit.Gate
	tracker  *ratelimit.Tracker
	status   *status.Manager
	metrics  *metrics.Metrics
	cfg      *config.Config
	retryCfg *retry.Config
	log      logger.Logger
}

// New creates a Scraper. The gate paces the sub-reply endpoint, which is the
// upstream's most aggressive rate-limit target.
func New(api API, st store.Store, statusMgr *status.Manager, m *metrics.Metrics, cfg *config.Config, log logger.Logger) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}

	retryCfg := retry.DefaultConfig()
	retryCfg.Logger = log

	return &Scraper{
		api:      api,
		store:    st,
		gate:     ratelimit.NewGate(cfg.Scrape.BackoffBaseDelay),
		tracker:  ratelimit.NewTracker(),
		status:   statusMgr,
		metrics:  m,
		cfg:      cfg,
		retryCfg: retryCfg,
		log:      log,
	}
}

// Rates returns the current processing throughput
func (s *Scraper) Rates() ratelimit.Rates {
	return s.tracker.Rates()
}

// Run executes scrape passes back to back until ctx is cancelled. A failed
// pass is logged and the next one starts; only cancellation stops the loop.
func (s *Scraper) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		if err := s.RunPass(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.metrics.PassFailures.Inc()
			s.log.WithError(err).Error("scrape pass aborted")
			continue
		}

		s.metrics.PassesCompleted.Inc()
		s.metrics.PassDuration.Observe(time.Since(start).Seconds())
	}
}

// RunPass runs one full pass: enumerate both content kinds, then collect and
// reconcile every item. A not-found item is terminal for that item only; any
// other error aborts the rest of the pass. Already-committed items stay
// committed and the next pass re-derives the remainder from scratch.
func (s *Scraper) RunPass(ctx context.Context) error {
	info, err := retry.Do(ctx, s.retryCfg, "load account profile", func() (bilibili.UserInfo, error) {
		return s.api.UserInfo(ctx, s.cfg.Account.Mid)
	})
	if err != nil {
		return fmt.Errorf("failed to load account profile: %w", err)
	}
	s.status.SetAccountName(info.Name)
	s.log.InfoWithFields("starting scrape pass", map[string]interface{}{
		"mid":  s.cfg.Account.Mid,
		"name": info.Name,
	})

	videos, err := s.enumerateVideos(ctx)
	if err != nil {
		return fmt.Errorf("failed to enumerate videos: %w", err)
	}
	dynamics, err := s.enumerateDynamics(ctx)
	if err != nil {
		return fmt.Errorf("failed to enumerate dynamics: %w", err)
	}

	items := make([]ContentItem, 0, len(videos)+len(dynamics))
	items = append(items, videos...)
	items = append(items, dynamics...)

	var itemsDone, recentItems int
	var commentsSeen, removals int64

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}

		res, err := s.processItem(ctx, item)
		if err != nil {
			if errs.IsNotFound(err) {
				s.log.InfoWithFields("content item gone upstream, skipping", map[string]interface{}{
					"oid":   item.Oid,
					"kind":  int(item.Kind),
					"label": item.Label,
				})
				continue
			}
			return fmt.Errorf("item %d: %w", item.Oid, err)
		}

		itemsDone++
		if item.Recent {
			recentItems++
		}
		commentsSeen += int64(res.comments)
		removals += int64(res.removals)

		s.tracker.RecordItems(1)
		s.tracker.RecordComments(res.comments)
		s.metrics.ItemsProcessed.Inc()
		s.metrics.CommentsProcessed.Add(float64(res.comments))
		s.metrics.RemovalsDetected.Add(float64(res.removals))
	}

	s.status.CompletePass(itemsDone, recentItems, commentsSeen, removals)
	s.log.InfoWithFields("scrape pass completed", map[string]interface{}{
		"items":    itemsDone,
		"comments": commentsSeen,
		"removals": removals,
	})
	return nil
}

// processItem collects both comment orderings for one item and reconciles
// them against the store. The popularity pass excludes everything the time
// pass already captured; within a bounded page budget neither ordering alone
// sees everything, but their union approximates full coverage.
func (s *Scraper) processItem(ctx context.Context, item ContentItem) (itemResult, error) {
	byTime, err := s.collect(ctx, item, bilibili.OrderTime, nil)
	if err != nil {
		return itemResult{}, err
	}

	byLikes, err := s.collect(ctx, item, bilibili.OrderLike, byTime.comments)
	if err != nil {
		return itemResult{}, err
	}

	return s.reconcile(ctx, item, byTime, byLikes)
}
