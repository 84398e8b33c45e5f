package store

import (
	"encoding/json"
	"fmt"
	"time"

	"biliguard/pkg/bilibili"
)

// Status is the lifecycle status of a persisted comment
type Status int

const (
	// StatusPresent means the comment was observed during the latest
	// reconciliation covering it
	StatusPresent Status = 0
	// StatusFlagged means an operator marked the comment for takedown;
	// reconciliation never touches a flagged comment
	StatusFlagged Status = 1
	// StatusRemoved means the comment vanished upstream after being observed
	StatusRemoved Status = 2
)

// String returns the display name of the status
func (s Status) String() string {
	switch s {
	case StatusPresent:
		return "present"
	case StatusFlagged:
		return "flagged"
	case StatusRemoved:
		return "removed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Comment is the persisted record of one observed comment. Records are never
// physically deleted; the table is an append-mostly audit log of everything
// ever seen plus its last-known status.
type Comment struct {
	// Rpid is the upstream reply id, globally unique across all content
	Rpid int64 `gorm:"column:rpid;primaryKey" json:"rpid"`
	// Message is the comment text
	Message string `gorm:"column:message;type:text" json:"message"`
	// Oid is the owning content item
	Oid int64 `gorm:"column:oid;index:idx_oid_root" json:"oid"`
	// Oname is the human label of the owning item at observation time
	Oname string `gorm:"column:oname;type:text" json:"oname"`
	// Kind is the upstream comment-area type code
	Kind int `gorm:"column:kind" json:"kind"`
	// Mid is the author's account id
	Mid int64 `gorm:"column:mid" json:"mid"`
	// Mname is the author's display name at observation time
	Mname string `gorm:"column:mname" json:"mname"`
	// Fansgrade marks fan-club members
	Fansgrade int `gorm:"column:fansgrade" json:"fansgrade"`
	// Ctime is the comment's publication time, UTC
	Ctime time.Time `gorm:"column:ctime;index" json:"ctime"`
	// Rcount is the declared sub-reply total at observation time
	Rcount int `gorm:"column:rcount" json:"rcount"`
	// Like is the like count at observation time
	Like int `gorm:"column:like_count" json:"like"`
	// Root is 0 for top-level comments, else the id of the thread head.
	// Legacy rows predating threading migrate in with the zero default.
	Root int64 `gorm:"column:root;default:0;index:idx_oid_root" json:"root"`
	// Parent is 0 for top-level comments, else the immediate parent id
	Parent int64 `gorm:"column:parent;default:0" json:"parent"`
	// Status is the lifecycle status, see the Status constants
	Status Status `gorm:"column:guardian_status;default:0" json:"status"`
	// Raw is the serialized upstream record, kept for audit and display
	Raw string `gorm:"column:raw;type:text" json:"-"`
}

// TableName keeps the legacy table name
func (Comment) TableName() string {
	return "comment"
}

// NewComment builds a persistable record from an upstream reply. The record
// starts PRESENT; oname is the owning item's display label.
func NewComment(r bilibili.Reply, oname string) Comment {
	raw, _ := json.Marshal(r)
	return Comment{
		Rpid:      r.Rpid,
		Message:   r.Content.Message,
		Oid:       r.Oid,
		Oname:     oname,
		Kind:      r.Type,
		Mid:       r.Mid,
		Mname:     r.Member.Uname,
		Fansgrade: r.Fansgrade,
		Ctime:     time.Unix(r.Ctime, 0).UTC(),
		Rcount:    r.Rcount,
		Like:      r.Like,
		Root:      r.Root,
		Parent:    r.Parent,
		Status:    StatusPresent,
		Raw:       string(raw),
	}
}

// IsTopLevel reports whether the comment heads its own thread
func (c Comment) IsTopLevel() bool {
	return c.Root == 0
}

// KindName returns the display name of the owning content kind
func (c Comment) KindName() string {
	switch bilibili.ResourceType(c.Kind) {
	case bilibili.ResourceTypeVideo:
		return "视频"
	case bilibili.ResourceTypeDynamic, bilibili.ResourceTypeDynamicDraw:
		return "动态"
	default:
		return "未知"
	}
}

// Link returns the public URL of the comment
func (c Comment) Link() string {
	if bilibili.ResourceType(c.Kind) == bilibili.ResourceTypeVideo {
		return fmt.Sprintf("%s#reply%d", bilibili.VideoURL(c.Oid), c.Rpid)
	}
	return fmt.Sprintf("%s#reply%d", bilibili.DynamicURL(c.Oid), c.Rpid)
}

// ObjectLink returns the public URL of the owning content item
func (c Comment) ObjectLink() string {
	if bilibili.ResourceType(c.Kind) == bilibili.ResourceTypeVideo {
		return bilibili.VideoURL(c.Oid)
	}
	return bilibili.DynamicURL(c.Oid)
}

// Abstract returns the message truncated to length runes
func (c Comment) Abstract(length int) string {
	runes := []rune(c.Message)
	if len(runes) <= length {
		return c.Message
	}
	return string(runes[:length]) + "..."
}
