package scraper

import (
	"encoding/json"
	"fmt"
	"time"

	"context"

	"biliguard/pkg/bilibili"
	"biliguard/pkg/retry"
)

// enumerateVideos pages through the account's video catalog until the
// catalog is exhausted or the configured cap is reached. Entries whose
// declared owner is not the monitored account are dropped; the listing API
// has been seen returning foreign entries.
func (s *Scraper) enumerateVideos(ctx context.Context) ([]ContentItem, error) {
	var items []ContentItem

	for page := 1; ; page++ {
		pageNum := page
		list, err := retry.Do(ctx, s.retryCfg, "list videos", func() (bilibili.VideoList, error) {
			return s.api.ListVideos(ctx, s.cfg.Account.Mid, pageNum)
		})
		if err != nil {
			return nil, err
		}
		if len(list.List.VList) == 0 {
			break
		}

		for _, v := range list.List.VList {
			if v.Mid != s.cfg.Account.Mid {
				continue
			}
			created := time.Unix(v.Created, 0).UTC()
			items = append(items, ContentItem{
				Oid:       v.Aid,
				Kind:      bilibili.ResourceTypeVideo,
				Label:     v.Title,
				CreatedAt: created,
				Recent:    s.isRecent(created),
			})
		}

		if len(items) >= s.cfg.Scrape.VideoCount {
			break
		}
	}

	if len(items) > s.cfg.Scrape.VideoCount {
		items = items[:s.cfg.Scrape.VideoCount]
	}

	s.log.DebugWithFields("videos enumerated", map[string]interface{}{
		"count": len(items),
	})
	return items, nil
}

// enumerateDynamics pages through the account's dynamic feed by offset
// cursor until exhausted or the configured cap is reached. Video-upload
// dynamics are skipped, their comments live under the video itself.
func (s *Scraper) enumerateDynamics(ctx context.Context) ([]ContentItem, error) {
	var items []ContentItem
	var offset int64

	for {
		cursor := offset
		feed, err := retry.Do(ctx, s.retryCfg, "list dynamics", func() (bilibili.DynamicFeed, error) {
			return s.api.ListDynamics(ctx, s.cfg.Account.Mid, cursor)
		})
		if err != nil {
			return nil, err
		}
		if len(feed.Cards) == 0 {
			break
		}

		for _, card := range feed.Cards {
			if card.Desc.Type == bilibili.DynamicTypeVideo {
				continue
			}
			created := time.Unix(card.Desc.Timestamp, 0).UTC()
			items = append(items, ContentItem{
				Oid:       dynamicOid(card),
				Kind:      dynamicResourceType(card),
				Label:     dynamicLabel(card),
				CreatedAt: created,
				Recent:    s.isRecent(created),
			})
		}

		if len(items) >= s.cfg.Scrape.DynamicCount {
			break
		}
		if feed.HasMore == 0 {
			break
		}
		offset = feed.NextOffset
	}

	if len(items) > s.cfg.Scrape.DynamicCount {
		items = items[:s.cfg.Scrape.DynamicCount]
	}

	s.log.DebugWithFields("dynamics enumerated", map[string]interface{}{
		"count": len(items),
	})
	return items, nil
}

// isRecent reports whether created falls after the configured cutoff
func (s *Scraper) isRecent(created time.Time) bool {
	cutoff := s.cfg.Scrape.RecentCutoff
	return !cutoff.IsZero() && created.After(cutoff)
}

// dynamicResourceType maps the dynamic type to its comment-area kind
func dynamicResourceType(card bilibili.DynamicCard) bilibili.ResourceType {
	if card.Desc.Type == bilibili.DynamicTypeDraw {
		return bilibili.ResourceTypeDynamicDraw
	}
	return bilibili.ResourceTypeDynamic
}

// dynamicOid returns the comment-area id of a dynamic. Image dynamics key
// their comment area by the draw rid; everything else uses the dynamic id.
// This asymmetry is an upstream quirk and must be preserved.
func dynamicOid(card bilibili.DynamicCard) int64 {
	if card.Desc.Type == bilibili.DynamicTypeDraw {
		return card.Desc.Rid
	}
	return card.Desc.DynamicID
}

// dynamicLabel derives the display label from the per-type card payload
func dynamicLabel(card bilibili.DynamicCard) string {
	switch card.Desc.Type {
	case bilibili.DynamicTypeRepost:
		var c struct {
			Item struct {
				Content string `json:"content"`
			} `json:"item"`
			OriginUser struct {
				Info struct {
					Uname string `json:"uname"`
				} `json:"info"`
			} `json:"origin_user"`
		}
		if err := json.Unmarshal([]byte(card.Card), &c); err == nil {
			return fmt.Sprintf("%s：转发\"%s\"", c.Item.Content, c.OriginUser.Info.Uname)
		}
	case bilibili.DynamicTypeDraw:
		var c struct {
			Item struct {
				Description string `json:"description"`
			} `json:"item"`
		}
		if err := json.Unmarshal([]byte(card.Card), &c); err == nil {
			return c.Item.Description
		}
	case bilibili.DynamicTypeText:
		var c struct {
			Item struct {
				Content string `json:"content"`
			} `json:"item"`
		}
		if err := json.Unmarshal([]byte(card.Card), &c); err == nil {
			return c.Item.Content
		}
	}
	return fmt.Sprintf("动态 %d", card.Desc.DynamicID)
}
