package web

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"biliguard/pkg/store"
)

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleStatus reports the worker snapshot plus live throughput
func (s *Server) handleStatus(c *gin.Context) {
	snap := s.status.Snapshot()
	rates := s.rates()

	c.JSON(http.StatusOK, gin.H{
		"account_name":        snap.AccountName,
		"last_refreshed_at":   snap.LastRefreshedAt,
		"passes":              snap.Passes,
		"items_seen":          snap.ItemsSeen,
		"comments_seen":       snap.CommentsSeen,
		"removals_detected":   snap.RemovalsDetected,
		"recent_items":        snap.RecentItems,
		"comments_per_second": rates.CommentsPerSecond,
		"items_per_minute":    rates.ItemsPerMinute,
	})
}

// feedRow is one rendered comment of the HTML feed
type feedRow struct {
	Rpid       int64
	Mname      string
	Message    string
	Ctime      string
	KindName   string
	Oname      string
	Link       string
	ObjectLink string
	Status     string
	Flagged    bool
	Removed    bool
	SubReply   bool
}

// handleFeed renders the newest-first comment feed as HTML
func (s *Server) handleFeed(c *gin.Context) {
	page := parsePage(c.Query("page"))

	comments, total, err := s.store.RecentFirst(c.Request.Context(), page, commentsPerPage)
	if err != nil {
		s.log.WithError(err).Error("feed query failed")
		c.String(http.StatusInternalServerError, "store unavailable")
		return
	}

	rows := make([]feedRow, 0, len(comments))
	for _, cm := range comments {
		rows = append(rows, feedRow{
			Rpid:       cm.Rpid,
			Mname:      cm.Mname,
			Message:    cm.Message,
			Ctime:      cm.Ctime.Format("2006-01-02 15:04:05"),
			KindName:   cm.KindName(),
			Oname:      cm.Oname,
			Link:       cm.Link(),
			ObjectLink: cm.ObjectLink(),
			Status:     cm.Status.String(),
			Flagged:    cm.Status == store.StatusFlagged,
			Removed:    cm.Status == store.StatusRemoved,
			SubReply:   !cm.IsTopLevel(),
		})
	}

	lastPage := int((total + commentsPerPage - 1) / commentsPerPage)
	if lastPage < 1 {
		lastPage = 1
	}

	snap := s.status.Snapshot()
	c.HTML(http.StatusOK, "feed", gin.H{
		"AccountName":   snap.AccountName,
		"LastRefreshed": snap.LastRefreshedAt.Format("2006-01-02 15:04:05"),
		"Removals":      snap.RemovalsDetected,
		"Rows":          rows,
		"Page":          page,
		"PrevPage":      page - 1,
		"NextPage":      page + 1,
		"HasPrev":       page > 1,
		"HasNext":       page < lastPage,
		"Total":         total,
	})
}

// handleCommentsJSON serves the same feed as JSON for scripts
func (s *Server) handleCommentsJSON(c *gin.Context) {
	page := parsePage(c.Query("page"))

	comments, total, err := s.store.RecentFirst(c.Request.Context(), page, commentsPerPage)
	if err != nil {
		s.log.WithError(err).Error("feed query failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"page":     page,
		"per_page": commentsPerPage,
		"total":    total,
		"comments": comments,
	})
}

// handleFlag marks a comment for takedown. Flagged comments are frozen: the
// reconciliation sweep skips them until an operator unflags.
func (s *Server) handleFlag(c *gin.Context) {
	s.setStatus(c, store.StatusFlagged)
}

// handleUnflag returns a flagged comment to normal reconciliation
func (s *Server) handleUnflag(c *gin.Context) {
	s.setStatus(c, store.StatusPresent)
}

func (s *Server) setStatus(c *gin.Context, status store.Status) {
	rpid, err := strconv.ParseInt(c.Param("rpid"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rpid"})
		return
	}

	if err := s.store.UpdateStatus(c.Request.Context(), rpid, status); err != nil {
		if err == store.ErrNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "comment not found"})
			return
		}
		s.log.WithError(err).Error("status update failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store unavailable"})
		return
	}

	s.log.InfoWithFields("comment status changed by operator", map[string]interface{}{
		"rpid":   rpid,
		"status": status.String(),
	})
	c.JSON(http.StatusOK, gin.H{"rpid": rpid, "status": status.String()})
}

func parsePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}
