package store

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"biliguard/pkg/bilibili"
)

func TestNewComment(t *testing.T) {
	r := bilibili.Reply{
		Rpid:      99,
		Oid:       5,
		Type:      int(bilibili.ResourceTypeVideo),
		Mid:       7,
		Root:      1,
		Parent:    11,
		Rcount:    3,
		Like:      42,
		Ctime:     1700000000,
		Fansgrade: 1,
		Member:    bilibili.Member{Uname: "viewer"},
		Content:   bilibili.Content{Message: "好活"},
	}

	c := NewComment(r, "某个视频")

	assert.Equal(t, int64(99), c.Rpid)
	assert.Equal(t, "好活", c.Message)
	assert.Equal(t, "某个视频", c.Oname)
	assert.Equal(t, "viewer", c.Mname)
	assert.Equal(t, int64(1), c.Root)
	assert.Equal(t, int64(11), c.Parent)
	assert.Equal(t, StatusPresent, c.Status)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), c.Ctime)
	assert.False(t, c.IsTopLevel())
	assert.Contains(t, c.Raw, `"rpid":99`)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "present", StatusPresent.String())
	assert.Equal(t, "flagged", StatusFlagged.String())
	assert.Equal(t, "removed", StatusRemoved.String())
	assert.Equal(t, "status(9)", Status(9).String())
}

func TestKindName(t *testing.T) {
	assert.Equal(t, "视频", Comment{Kind: int(bilibili.ResourceTypeVideo)}.KindName())
	assert.Equal(t, "动态", Comment{Kind: int(bilibili.ResourceTypeDynamic)}.KindName())
	assert.Equal(t, "动态", Comment{Kind: int(bilibili.ResourceTypeDynamicDraw)}.KindName())
	assert.Equal(t, "未知", Comment{Kind: 99}.KindName())
}

func TestLinks(t *testing.T) {
	video := Comment{Rpid: 9, Oid: 123, Kind: int(bilibili.ResourceTypeVideo)}
	assert.Equal(t, "https://www.bilibili.com/video/av123#reply9", video.Link())
	assert.Equal(t, "https://www.bilibili.com/video/av123", video.ObjectLink())

	dynamic := Comment{Rpid: 9, Oid: 456, Kind: int(bilibili.ResourceTypeDynamic)}
	assert.Equal(t, "https://t.bilibili.com/456#reply9", dynamic.Link())
	assert.Equal(t, "https://t.bilibili.com/456", dynamic.ObjectLink())
}

func TestAbstract(t *testing.T) {
	c := Comment{Message: "一二三四五"}
	assert.Equal(t, "一二三四五", c.Abstract(5))
	assert.Equal(t, "一二三...", c.Abstract(3))

	long := Comment{Message: strings.Repeat("a", 30)}
	assert.Equal(t, strings.Repeat("a", 10)+"...", long.Abstract(10))
}
