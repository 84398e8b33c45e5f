package scraper

import (
	"context"

	"biliguard/pkg/bilibili"
	"biliguard/pkg/retry"
)

// collection is what one ordering pass over a content item yields
type collection struct {
	// comments holds every observed reply, top-level and sub-reply alike,
	// keyed by rpid
	comments map[int64]bilibili.Reply
	// subIDs maps each thread head to its observed sub-reply ids, present
	// only for threads whose sub-reply set was fully captured this pass
	subIDs map[int64]map[int64]struct{}
	// exhausted is true when the listing reached a naturally empty page
	// within the page budget
	exhausted bool
}

func newCollection() collection {
	return collection{
		comments: make(map[int64]bilibili.Reply),
		subIDs:   make(map[int64]map[int64]struct{}),
	}
}

// collect pages through the comment listing of one content item in the given
// order, up to the configured page budget or until an empty page. Top-level
// comments already in exclude (captured by a prior ordering pass this cycle)
// are skipped. Exhaustion of the chronological order means the item was
// fully scraped this pass, which widens the reconciliation window.
func (s *Scraper) collect(ctx context.Context, item ContentItem, order bilibili.CommentOrder, exclude map[int64]bilibili.Reply) (collection, error) {
	col := newCollection()

	for page := 1; page <= s.cfg.Scrape.MaxPage; page++ {
		pageNum := page
		rp, err := retry.Do(ctx, s.retryCfg, "list comments", func() (bilibili.ReplyPage, error) {
			return s.api.ListComments(ctx, item.Oid, item.Kind, pageNum, order)
		})
		if err != nil {
			return col, err
		}
		if len(rp.Replies) == 0 {
			col.exhausted = true
			break
		}

		for _, r := range rp.Replies {
			if _, seen := exclude[r.Rpid]; seen {
				continue
			}
			if _, seen := col.comments[r.Rpid]; seen {
				continue
			}
			col.comments[r.Rpid] = r
			s.resolveSubReplies(ctx, item, r, &col)
		}
	}

	return col, nil
}

// resolveSubReplies records the sub-replies of one top-level comment. When
// the declared rcount exceeds the inlined preview, the dedicated sub-reply
// endpoint is paged through the backoff gate until an empty page. If the
// gate turns us away or expansion fails, the thread's sub-reply set is
// treated as unknown for this pass: whatever was inlined still counts as
// observed, but no sub-thread reconciliation happens for it.
func (s *Scraper) resolveSubReplies(ctx context.Context, item ContentItem, r bilibili.Reply, col *collection) {
	if r.Rcount <= len(r.Replies) {
		ids := make(map[int64]struct{}, len(r.Replies))
		for _, sub := range r.Replies {
			col.comments[sub.Rpid] = sub
			ids[sub.Rpid] = struct{}{}
		}
		col.subIDs[r.Rpid] = ids
		return
	}

	ids := make(map[int64]struct{})
	complete := true

	for page := 1; ; page++ {
		var rp bilibili.ReplyPage
		pageNum := page
		ran, err := s.gate.Admit(func() error {
			var callErr error
			rp, callErr = s.api.ListSubReplies(ctx, item.Oid, item.Kind, r.Rpid, pageNum)
			return callErr
		})
		s.metrics.BackoffLevel.Set(float64(s.gate.WaitLevel()))

		if !ran {
			s.log.DebugWithFields("sub-reply expansion deferred by backoff gate", map[string]interface{}{
				"oid":  item.Oid,
				"root": r.Rpid,
			})
			complete = false
			break
		}
		if err != nil {
			s.log.WarnWithFields("sub-reply expansion failed", map[string]interface{}{
				"oid":   item.Oid,
				"root":  r.Rpid,
				"page":  pageNum,
				"error": err.Error(),
			})
			complete = false
			break
		}
		if len(rp.Replies) == 0 {
			break
		}

		for _, sub := range rp.Replies {
			col.comments[sub.Rpid] = sub
			ids[sub.Rpid] = struct{}{}
		}
	}

	if !complete {
		for _, sub := range r.Replies {
			col.comments[sub.Rpid] = sub
		}
		return
	}

	col.subIDs[r.Rpid] = ids
}
