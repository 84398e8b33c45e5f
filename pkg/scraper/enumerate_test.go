package scraper

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"biliguard/pkg/bilibili"
	"biliguard/pkg/store"
)

func TestEnumerateVideosFiltersForeignOwners(t *testing.T) {
	api := &fakeAPI{
		videos: func(_ int64, page int) (bilibili.VideoList, error) {
			var list bilibili.VideoList
			if page == 1 {
				list.List.VList = []bilibili.Video{
					{Aid: 1, Mid: 100, Title: "mine"},
					{Aid: 2, Mid: 999, Title: "collab leak"},
					{Aid: 3, Mid: 100, Title: "also mine"},
				}
			}
			return list, nil
		},
	}
	s := newTestScraper(t, api, store.NewMemoryStore())

	items, err := s.enumerateVideos(context.Background())
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, int64(1), items[0].Oid)
	assert.Equal(t, int64(3), items[1].Oid)
	assert.Equal(t, bilibili.ResourceTypeVideo, items[0].Kind)
}

func TestEnumerateVideosHonorsCap(t *testing.T) {
	api := &fakeAPI{
		videos: func(_ int64, page int) (bilibili.VideoList, error) {
			var list bilibili.VideoList
			for i := 0; i < 30; i++ {
				list.List.VList = append(list.List.VList, bilibili.Video{
					Aid: int64(page*100 + i),
					Mid: 100,
				})
			}
			return list, nil
		},
	}
	s := newTestScraper(t, api, store.NewMemoryStore())
	s.cfg.Scrape.VideoCount = 5

	items, err := s.enumerateVideos(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 5)
}

func TestEnumerateDynamicsSkipsVideoUploads(t *testing.T) {
	textCard, _ := json.Marshal(map[string]interface{}{
		"item": map[string]interface{}{"content": "weekend stream"},
	})

	api := &fakeAPI{
		dynamics: func(_ int64, offset int64) (bilibili.DynamicFeed, error) {
			if offset != 0 {
				return bilibili.DynamicFeed{}, nil
			}
			return bilibili.DynamicFeed{
				HasMore: 0,
				Cards: []bilibili.DynamicCard{
					{Desc: bilibili.DynamicDesc{Type: bilibili.DynamicTypeVideo, Rid: 900, DynamicID: 1000}},
					{Desc: bilibili.DynamicDesc{Type: bilibili.DynamicTypeText, DynamicID: 1001}, Card: string(textCard)},
				},
			}, nil
		},
	}
	s := newTestScraper(t, api, store.NewMemoryStore())

	items, err := s.enumerateDynamics(context.Background())
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, int64(1001), items[0].Oid)
	assert.Equal(t, bilibili.ResourceTypeDynamic, items[0].Kind)
	assert.Equal(t, "weekend stream", items[0].Label)
}

func TestDynamicOidUsesDrawRid(t *testing.T) {
	draw := bilibili.DynamicCard{
		Desc: bilibili.DynamicDesc{Type: bilibili.DynamicTypeDraw, Rid: 42, DynamicID: 9000},
	}
	assert.Equal(t, int64(42), dynamicOid(draw))
	assert.Equal(t, bilibili.ResourceTypeDynamicDraw, dynamicResourceType(draw))

	text := bilibili.DynamicCard{
		Desc: bilibili.DynamicDesc{Type: bilibili.DynamicTypeText, Rid: 42, DynamicID: 9000},
	}
	assert.Equal(t, int64(9000), dynamicOid(text))
	assert.Equal(t, bilibili.ResourceTypeDynamic, dynamicResourceType(text))
}

func TestDynamicLabelPerType(t *testing.T) {
	repostCard, _ := json.Marshal(map[string]interface{}{
		"item":        map[string]interface{}{"content": "看这个"},
		"origin_user": map[string]interface{}{"info": map[string]interface{}{"uname": "阿婆主"}},
	})
	drawCard, _ := json.Marshal(map[string]interface{}{
		"item": map[string]interface{}{"description": "新图"},
	})

	repost := bilibili.DynamicCard{
		Desc: bilibili.DynamicDesc{Type: bilibili.DynamicTypeRepost, DynamicID: 1},
		Card: string(repostCard),
	}
	assert.Equal(t, "看这个：转发\"阿婆主\"", dynamicLabel(repost))

	draw := bilibili.DynamicCard{
		Desc: bilibili.DynamicDesc{Type: bilibili.DynamicTypeDraw, DynamicID: 2},
		Card: string(drawCard),
	}
	assert.Equal(t, "新图", dynamicLabel(draw))

	broken := bilibili.DynamicCard{
		Desc: bilibili.DynamicDesc{Type: bilibili.DynamicTypeText, DynamicID: 3},
		Card: "{not json",
	}
	assert.Equal(t, "动态 3", dynamicLabel(broken))
}

func TestIsRecentAgainstCutoff(t *testing.T) {
	s := newTestScraper(t, &fakeAPI{}, store.NewMemoryStore())

	assert.False(t, s.isRecent(time.Now()), "zero cutoff disables the recent split")

	s.cfg.Scrape.RecentCutoff = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, s.isRecent(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, s.isRecent(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)))
}
