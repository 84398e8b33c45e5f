package scraper

import (
	"context"
	"errors"
	"time"

	"biliguard/pkg/store"
)

// itemResult summarizes the reconciliation of one content item
type itemResult struct {
	comments int
	removals int
}

// candidate is one freshly observed comment plus its watermark eligibility
type candidate struct {
	record store.Comment
	// fromTime marks candidates surfaced by the chronological ordering, the
	// only ordering with a reliable continuous timestamp frontier
	fromTime bool
}

// reconcile diffs the freshly collected comment sets of one content item
// against the persisted store and commits the delta in one transaction.
//
// The upstream exposes no deletion events, so removal is inferred: every
// persisted top-level comment no older than the oldest comment surfaced this
// pass should have been re-observed; absence means it vanished. The
// watermark must be a true lower bound of what was fetched. Under-estimating
// widens the window harmlessly; over-estimating risks false removals, so
// without a full scrape it narrows to the chronological ordering's
// candidates. Popularity-ordered candidates still join the window check
// itself; that mixing is long-standing behavior kept on purpose.
func (s *Scraper) reconcile(ctx context.Context, item ContentItem, byTime, byLikes collection) (itemResult, error) {
	fullScrape := byTime.exhausted && byLikes.exhausted

	// Candidate records, time-ordered map first so the watermark draws from
	// the trusted frontier.
	candidates := make([]candidate, 0, len(byTime.comments)+len(byLikes.comments))
	observed := make(map[int64]struct{}, len(byTime.comments)+len(byLikes.comments))
	for rpid, r := range byTime.comments {
		candidates = append(candidates, candidate{record: store.NewComment(r, item.Label), fromTime: true})
		observed[rpid] = struct{}{}
	}
	for rpid, r := range byLikes.comments {
		if _, dup := observed[rpid]; dup {
			continue
		}
		candidates = append(candidates, candidate{record: store.NewComment(r, item.Label)})
		observed[rpid] = struct{}{}
	}

	var earliest time.Time
	haveWatermark := false
	for _, cand := range candidates {
		if !cand.record.IsTopLevel() {
			continue
		}
		if !cand.fromTime && !fullScrape {
			continue
		}
		if !haveWatermark || cand.record.Ctime.Before(earliest) {
			earliest = cand.record.Ctime
			haveWatermark = true
		}
	}

	subSets := mergeSubSets(byTime.subIDs, byLikes.subIDs)

	removals := 0
	err := s.store.InTx(ctx, func(tx store.Store) error {
		if haveWatermark {
			n, err := s.reconcileWindow(ctx, tx, item.Oid, earliest, observed)
			if err != nil {
				return err
			}
			removals += n

			n, err = s.reconcileSubThreads(ctx, tx, subSets)
			if err != nil {
				return err
			}
			removals += n
		}

		// Insert only ids the store has never seen. The rpid is a global
		// primary key, so existence is checked against the whole store; the
		// same id can resurface across the two capped page ranges or across
		// cycles.
		var toInsert []store.Comment
		for _, cand := range candidates {
			_, err := tx.Get(ctx, cand.record.Rpid)
			if err == nil {
				continue
			}
			if !errors.Is(err, store.ErrNotFound) {
				return err
			}
			toInsert = append(toInsert, cand.record)
		}
		return tx.BulkInsert(ctx, toInsert)
	})
	if err != nil {
		return itemResult{}, err
	}

	return itemResult{comments: len(candidates), removals: removals}, nil
}

// reconcileWindow re-checks every persisted top-level comment of the item no
// older than the watermark. Absent ids become REMOVED with the removal
// cascading to their persisted sub-replies; present ids are re-affirmed
// PRESENT. Flagged comments are never touched, and statuses are written only
// when they actually change.
func (s *Scraper) reconcileWindow(ctx context.Context, tx store.Store, oid int64, earliest time.Time, observed map[int64]struct{}) (int, error) {
	window, err := tx.QueryTopLevelSince(ctx, oid, earliest)
	if err != nil {
		return 0, err
	}

	removals := 0
	for _, pc := range window {
		if pc.Status == store.StatusFlagged {
			continue
		}

		if _, ok := observed[pc.Rpid]; ok {
			if pc.Status != store.StatusPresent {
				if err := tx.UpdateStatus(ctx, pc.Rpid, store.StatusPresent); err != nil {
					return removals, err
				}
			}
			continue
		}

		if pc.Status != store.StatusRemoved {
			if err := tx.UpdateStatus(ctx, pc.Rpid, store.StatusRemoved); err != nil {
				return removals, err
			}
			removals++
			s.log.InfoWithFields("comment removed upstream", map[string]interface{}{
				"rpid":  pc.Rpid,
				"oid":   pc.Oid,
				"mname": pc.Mname,
				"text":  pc.Abstract(20),
			})
		}

		subs, err := tx.QuerySubReplies(ctx, pc.Rpid)
		if err != nil {
			return removals, err
		}
		for _, sc := range subs {
			if sc.Status == store.StatusFlagged || sc.Status == store.StatusRemoved {
				continue
			}
			if err := tx.UpdateStatus(ctx, sc.Rpid, store.StatusRemoved); err != nil {
				return removals, err
			}
			removals++
		}
	}

	return removals, nil
}

// reconcileSubThreads diffs each fully captured sub-reply set against the
// persisted sub-replies of its thread head. This catches removals inside a
// thread even when the head itself is unchanged.
func (s *Scraper) reconcileSubThreads(ctx context.Context, tx store.Store, subSets map[int64]map[int64]struct{}) (int, error) {
	removals := 0
	for root, ids := range subSets {
		subs, err := tx.QuerySubReplies(ctx, root)
		if err != nil {
			return removals, err
		}

		for _, sc := range subs {
			if sc.Status == store.StatusFlagged {
				continue
			}

			if _, ok := ids[sc.Rpid]; ok {
				if sc.Status != store.StatusPresent {
					if err := tx.UpdateStatus(ctx, sc.Rpid, store.StatusPresent); err != nil {
						return removals, err
					}
				}
				continue
			}

			if sc.Status != store.StatusRemoved {
				if err := tx.UpdateStatus(ctx, sc.Rpid, store.StatusRemoved); err != nil {
					return removals, err
				}
				removals++
			}
		}
	}

	return removals, nil
}

// mergeSubSets unions the per-thread sub-reply id sets of both orderings
func mergeSubSets(a, b map[int64]map[int64]struct{}) map[int64]map[int64]struct{} {
	merged := make(map[int64]map[int64]struct{}, len(a)+len(b))
	for root, ids := range a {
		set := make(map[int64]struct{}, len(ids))
		for id := range ids {
			set[id] = struct{}{}
		}
		merged[root] = set
	}
	for root, ids := range b {
		set, ok := merged[root]
		if !ok {
			set = make(map[int64]struct{}, len(ids))
			merged[root] = set
		}
		for id := range ids {
			set[id] = struct{}{}
		}
	}
	return merged
}
