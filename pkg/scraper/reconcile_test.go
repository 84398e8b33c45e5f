package scraper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biliguard/pkg/bilibili"
	"biliguard/pkg/store"
)

func buildCollection(exhausted bool, replies ...bilibili.Reply) collection {
	col := newCollection()
	col.exhausted = exhausted
	for _, r := range replies {
		col.comments[r.Rpid] = r
	}
	return col
}

func seedComments(t *testing.T, st store.Store, replies ...bilibili.Reply) {
	t.Helper()
	records := make([]store.Comment, 0, len(replies))
	for _, r := range replies {
		records = append(records, store.NewComment(r, "seed"))
	}
	require.NoError(t, st.BulkInsert(context.Background(), records))
}

func statusOf(t *testing.T, st store.Store, rpid int64) store.Status {
	t.Helper()
	c, err := st.Get(context.Background(), rpid)
	require.NoError(t, err)
	return c.Status
}

func TestReconcileInsertsNewComments(t *testing.T) {
	st := store.NewMemoryStore()
	s := newTestScraper(t, &fakeAPI{}, st)
	item := ContentItem{Oid: 5, Kind: bilibili.ResourceTypeVideo, Label: "v"}

	byTime := buildCollection(true, topReply(1, 5, 100), topReply(2, 5, 101))
	res, err := s.reconcile(context.Background(), item, byTime, buildCollection(true))
	require.NoError(t, err)

	assert.Equal(t, 2, res.comments)
	assert.Equal(t, 0, res.removals)
	assert.Equal(t, store.StatusPresent, statusOf(t, st, 1))
	assert.Equal(t, store.StatusPresent, statusOf(t, st, 2))
}

func TestReconcileDoesNotOverwriteExistingRecords(t *testing.T) {
	st := store.NewMemoryStore()
	s := newTestScraper(t, &fakeAPI{}, st)
	item := ContentItem{Oid: 5, Kind: bilibili.ResourceTypeVideo, Label: "v"}

	seedComments(t, st, topReply(1, 5, 100))
	seeded, err := st.Get(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "seed", seeded.Oname)

	edited := topReply(1, 5, 100)
	edited.Content.Message = "edited upstream"
	byTime := buildCollection(true, edited)
	_, err = s.reconcile(context.Background(), item, byTime, buildCollection(true))
	require.NoError(t, err)

	got, err := st.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "seed", got.Oname, "re-observed records keep their first-seen snapshot")
	assert.Equal(t, "hello", got.Message)
}

func TestReconcileDetectsRemovalWithCascade(t *testing.T) {
	st := store.NewMemoryStore()
	s := newTestScraper(t, &fakeAPI{}, st)
	item := ContentItem{Oid: 5, Kind: bilibili.ResourceTypeVideo, Label: "v"}

	seedComments(t, st,
		topReply(1, 5, 100),
		topReply(2, 5, 101),
		topReply(3, 5, 102),
		subReply(21, 5, 2, 103),
		subReply(22, 5, 2, 104),
	)

	// The pass re-observes 1 and 3 back to the oldest; 2 is gone upstream
	byTime := buildCollection(true, topReply(1, 5, 100), topReply(3, 5, 102))
	res, err := s.reconcile(context.Background(), item, byTime, buildCollection(true))
	require.NoError(t, err)

	assert.Equal(t, 3, res.removals, "head plus two cascaded sub-replies")
	assert.Equal(t, store.StatusRemoved, statusOf(t, st, 2))
	assert.Equal(t, store.StatusRemoved, statusOf(t, st, 21))
	assert.Equal(t, store.StatusRemoved, statusOf(t, st, 22))
	assert.Equal(t, store.StatusPresent, statusOf(t, st, 1))
	assert.Equal(t, store.StatusPresent, statusOf(t, st, 3))
}

func TestReconcileWindowExcludesOlderThanWatermark(t *testing.T) {
	st := store.NewMemoryStore()
	s := newTestScraper(t, &fakeAPI{}, st)
	item := ContentItem{Oid: 5, Kind: bilibili.ResourceTypeVideo, Label: "v"}

	seedComments(t, st, topReply(1, 5, 100), topReply(2, 5, 101))

	// A truncated pass only reached back to ctime 102; absence of the older
	// comments proves nothing
	byTime := buildCollection(false, topReply(3, 5, 102))
	res, err := s.reconcile(context.Background(), item, byTime, buildCollection(false))
	require.NoError(t, err)

	assert.Equal(t, 0, res.removals)
	assert.Equal(t, store.StatusPresent, statusOf(t, st, 1))
	assert.Equal(t, store.StatusPresent, statusOf(t, st, 2))
	assert.Equal(t, store.StatusPresent, statusOf(t, st, 3))
}

func TestReconcilePopularityCandidatesWidenWatermarkOnlyWhenExhausted(t *testing.T) {
	item := ContentItem{Oid: 5, Kind: bilibili.ResourceTypeVideo, Label: "v"}

	// Partial scrape: the popularity ordering surfaced an old comment, but
	// without exhaustion its timestamp cannot anchor the window
	st := store.NewMemoryStore()
	s := newTestScraper(t, &fakeAPI{}, st)
	seedComments(t, st, topReply(1, 5, 100))

	byTime := buildCollection(false, topReply(3, 5, 102))
	byLikes := buildCollection(false, topReply(4, 5, 99))
	res, err := s.reconcile(context.Background(), item, byTime, byLikes)
	require.NoError(t, err)
	assert.Equal(t, 0, res.removals)
	assert.Equal(t, store.StatusPresent, statusOf(t, st, 1))

	// Full scrape: both orderings exhausted, so the popularity candidate's
	// older timestamp anchors the window and exposes the removal
	st = store.NewMemoryStore()
	s = newTestScraper(t, &fakeAPI{}, st)
	seedComments(t, st, topReply(1, 5, 100))

	byTime = buildCollection(true, topReply(3, 5, 102))
	byLikes = buildCollection(true, topReply(4, 5, 99))
	res, err = s.reconcile(context.Background(), item, byTime, byLikes)
	require.NoError(t, err)
	assert.Equal(t, 1, res.removals)
	assert.Equal(t, store.StatusRemoved, statusOf(t, st, 1))
}

func TestReconcileReaffirmsRemovedComment(t *testing.T) {
	st := store.NewMemoryStore()
	s := newTestScraper(t, &fakeAPI{}, st)
	item := ContentItem{Oid: 5, Kind: bilibili.ResourceTypeVideo, Label: "v"}

	seedComments(t, st, topReply(1, 5, 100))
	require.NoError(t, st.UpdateStatus(context.Background(), 1, store.StatusRemoved))

	byTime := buildCollection(true, topReply(1, 5, 100))
	res, err := s.reconcile(context.Background(), item, byTime, buildCollection(true))
	require.NoError(t, err)

	assert.Equal(t, 0, res.removals)
	assert.Equal(t, store.StatusPresent, statusOf(t, st, 1), "a re-observed comment comes back to present")
}

func TestReconcileNeverTouchesFlagged(t *testing.T) {
	st := store.NewMemoryStore()
	s := newTestScraper(t, &fakeAPI{}, st)
	item := ContentItem{Oid: 5, Kind: bilibili.ResourceTypeVideo, Label: "v"}

	seedComments(t, st,
		topReply(1, 5, 100),
		topReply(2, 5, 101),
		subReply(11, 5, 1, 102),
	)
	require.NoError(t, st.UpdateStatus(context.Background(), 2, store.StatusFlagged))
	require.NoError(t, st.UpdateStatus(context.Background(), 11, store.StatusFlagged))

	// Neither 1 nor 2 is re-observed; 1 goes removed, flagged 2 stays put and
	// 1's flagged sub-reply escapes the cascade
	byTime := buildCollection(true, topReply(3, 5, 99))
	res, err := s.reconcile(context.Background(), item, byTime, buildCollection(true))
	require.NoError(t, err)

	assert.Equal(t, 1, res.removals)
	assert.Equal(t, store.StatusRemoved, statusOf(t, st, 1))
	assert.Equal(t, store.StatusFlagged, statusOf(t, st, 2))
	assert.Equal(t, store.StatusFlagged, statusOf(t, st, 11))
}

func TestReconcileSubThreadDiff(t *testing.T) {
	st := store.NewMemoryStore()
	s := newTestScraper(t, &fakeAPI{}, st)
	item := ContentItem{Oid: 5, Kind: bilibili.ResourceTypeVideo, Label: "v"}

	seedComments(t, st,
		topReply(1, 5, 100),
		subReply(11, 5, 1, 101),
		subReply(12, 5, 1, 102),
	)

	// The head is alive and its sub-reply set was fully captured; 12 is gone
	byTime := buildCollection(true, topReply(1, 5, 100), subReply(11, 5, 1, 101))
	byTime.subIDs[1] = map[int64]struct{}{11: {}}

	res, err := s.reconcile(context.Background(), item, byTime, buildCollection(true))
	require.NoError(t, err)

	assert.Equal(t, 1, res.removals)
	assert.Equal(t, store.StatusPresent, statusOf(t, st, 1))
	assert.Equal(t, store.StatusPresent, statusOf(t, st, 11))
	assert.Equal(t, store.StatusRemoved, statusOf(t, st, 12))
}

func TestReconcileUnknownSubThreadIsLeftAlone(t *testing.T) {
	st := store.NewMemoryStore()
	s := newTestScraper(t, &fakeAPI{}, st)
	item := ContentItem{Oid: 5, Kind: bilibili.ResourceTypeVideo, Label: "v"}

	seedComments(t, st,
		topReply(1, 5, 100),
		subReply(11, 5, 1, 101),
	)

	// The head was re-observed but its thread expansion was deferred, so no
	// subIDs entry exists and 11's absence proves nothing
	byTime := buildCollection(true, topReply(1, 5, 100))
	res, err := s.reconcile(context.Background(), item, byTime, buildCollection(true))
	require.NoError(t, err)

	assert.Equal(t, 0, res.removals)
	assert.Equal(t, store.StatusPresent, statusOf(t, st, 11))
}

func TestReconcileNoCandidatesSkipsRemovalSweep(t *testing.T) {
	st := store.NewMemoryStore()
	s := newTestScraper(t, &fakeAPI{}, st)
	item := ContentItem{Oid: 5, Kind: bilibili.ResourceTypeVideo, Label: "v"}

	seedComments(t, st, topReply(1, 5, 100))

	res, err := s.reconcile(context.Background(), item, buildCollection(true), buildCollection(true))
	require.NoError(t, err)

	assert.Equal(t, 0, res.comments)
	assert.Equal(t, 0, res.removals)
	assert.Equal(t, store.StatusPresent, statusOf(t, st, 1),
		"an empty observation has no watermark and must not sweep")
}

func TestReconcileIsIdempotentAcrossPasses(t *testing.T) {
	st := store.NewMemoryStore()
	s := newTestScraper(t, &fakeAPI{}, st)
	item := ContentItem{Oid: 5, Kind: bilibili.ResourceTypeVideo, Label: "v"}

	byTime := buildCollection(true, topReply(1, 5, 100), topReply(2, 5, 101))

	for i := 0; i < 3; i++ {
		res, err := s.reconcile(context.Background(), item, byTime, buildCollection(true))
		require.NoError(t, err)
		assert.Equal(t, 0, res.removals)
	}

	all, total, err := st.RecentFirst(context.Background(), 1, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, all, 2)
}

func TestReconcileWatermarkIgnoresSubReplies(t *testing.T) {
	st := store.NewMemoryStore()
	s := newTestScraper(t, &fakeAPI{}, st)
	item := ContentItem{Oid: 5, Kind: bilibili.ResourceTypeVideo, Label: "v"}

	seedComments(t, st, topReply(1, 5, 100))

	// A very old sub-reply must not drag the window below what the top-level
	// frontier actually covered
	byTime := buildCollection(false,
		topReply(3, 5, 102),
		subReply(31, 5, 3, 50),
	)
	res, err := s.reconcile(context.Background(), item, byTime, buildCollection(false))
	require.NoError(t, err)

	assert.Equal(t, 0, res.removals)
	assert.Equal(t, store.StatusPresent, statusOf(t, st, 1))

	window, err := st.QueryTopLevelSince(context.Background(), 5, time.Unix(100, 0).UTC())
	require.NoError(t, err)
	assert.Len(t, window, 2, "both top-level records persisted")
}
