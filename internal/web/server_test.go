package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biliguard/pkg/bilibili"
	"biliguard/pkg/metrics"
	"biliguard/pkg/ratelimit"
	"biliguard/pkg/status"
	"biliguard/pkg/store"
)

func newTestServer(t *testing.T) (*Server, *store.MemoryStore) {
	t.Helper()

	st := store.NewMemoryStore()
	reg := prometheus.NewRegistry()
	metrics.New(reg)

	srv := NewServer(":0", st, status.NewManager(""), func() ratelimit.Rates {
		return ratelimit.Rates{CommentsPerSecond: 1.5, ItemsPerMinute: 12}
	}, reg, nil)

	return srv, st
}

func seedComment(t *testing.T, st store.Store, rpid int64, ctime int64) {
	t.Helper()
	r := bilibili.Reply{
		Rpid:    rpid,
		Oid:     5,
		Type:    int(bilibili.ResourceTypeVideo),
		Ctime:   ctime,
		Member:  bilibili.Member{Uname: "viewer"},
		Content: bilibili.Content{Message: "nice video"},
	}
	require.NoError(t, st.BulkInsert(context.Background(), []store.Comment{store.NewComment(r, "some video")}))
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestStatusEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1.5, body["comments_per_second"])
	assert.Equal(t, float64(12), body["items_per_minute"])
}

func TestFeedRendersComments(t *testing.T) {
	srv, st := newTestServer(t)
	seedComment(t, st, 1, time.Now().Unix())

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/comments", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "nice video")
	assert.Contains(t, w.Body.String(), "viewer")
}

func TestCommentsJSONPaginates(t *testing.T) {
	srv, st := newTestServer(t)
	for i := int64(1); i <= 60; i++ {
		seedComment(t, st, i, 1000+i)
	}

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/comments?page=2", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Page     int             `json:"page"`
		PerPage  int             `json:"per_page"`
		Total    int64           `json:"total"`
		Comments []store.Comment `json:"comments"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

	assert.Equal(t, 2, body.Page)
	assert.Equal(t, int64(60), body.Total)
	assert.Len(t, body.Comments, 10, "second page holds the overflow")
	assert.Equal(t, int64(10), body.Comments[0].Rpid, "newest first, so page 2 starts at rpid 10")
}

func TestFlagAndUnflag(t *testing.T) {
	srv, st := newTestServer(t)
	seedComment(t, st, 7, 1000)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/comments/7/flag", nil))
	require.Equal(t, http.StatusOK, w.Code)

	c, err := st.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, store.StatusFlagged, c.Status)

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/comments/7/unflag", nil))
	require.Equal(t, http.StatusOK, w.Code)

	c, err = st.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, store.StatusPresent, c.Status)
}

func TestFlagUnknownComment(t *testing.T) {
	srv, _ := newTestServer(t)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/comments/404/flag", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/comments/abc/flag", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "biliguard_comments_processed_total"))
}
