package bilibili

import "encoding/json"

// ResourceType identifies the kind of content a comment thread hangs off.
// Values are the upstream comment-area type codes.
type ResourceType int

const (
	// ResourceTypeVideo is a regular video comment area
	ResourceTypeVideo ResourceType = 1
	// ResourceTypeDynamicDraw is an image dynamic; its comment area is keyed
	// by the draw rid, not the dynamic id
	ResourceTypeDynamicDraw ResourceType = 11
	// ResourceTypeDynamic is a plain text dynamic
	ResourceTypeDynamic ResourceType = 17
)

// CommentOrder selects the listing order of a comment page
type CommentOrder int

const (
	// OrderTime lists comments chronologically
	OrderTime CommentOrder = 0
	// OrderLike lists comments by popularity
	OrderLike CommentOrder = 2
)

// envelope is the common Bilibili response wrapper
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// UserInfo is the subset of the account profile the scraper needs
type UserInfo struct {
	Mid  int64  `json:"mid"`
	Name string `json:"name"`
}

// VideoList is one page of an account's video catalog
type VideoList struct {
	List struct {
		VList []Video `json:"vlist"`
	} `json:"list"`
	Page struct {
		Pn    int `json:"pn"`
		Ps    int `json:"ps"`
		Count int `json:"count"`
	} `json:"page"`
}

// Video is one entry of the video catalog
type Video struct {
	Aid     int64  `json:"aid"`
	Mid     int64  `json:"mid"`
	Title   string `json:"title"`
	Created int64  `json:"created"`
}

// DynamicFeed is one page of an account's dynamic feed
type DynamicFeed struct {
	HasMore    int           `json:"has_more"`
	Cards      []DynamicCard `json:"cards"`
	NextOffset int64         `json:"next_offset"`
}

// DynamicCard is one dynamic; Card is a nested JSON document whose shape
// depends on Desc.Type
type DynamicCard struct {
	Desc DynamicDesc `json:"desc"`
	Card string      `json:"card"`
}

// DynamicDesc is the dynamic envelope
type DynamicDesc struct {
	UID       int64 `json:"uid"`
	Type      int   `json:"type"`
	Rid       int64 `json:"rid"`
	DynamicID int64 `json:"dynamic_id"`
	Timestamp int64 `json:"timestamp"`
}

// Dynamic desc type codes, see
// https://github.com/SocialSisterYi/bilibili-API-collect/issues/143
const (
	// DynamicTypeRepost is a repost of another dynamic
	DynamicTypeRepost = 1
	// DynamicTypeDraw is an image dynamic
	DynamicTypeDraw = 2
	// DynamicTypeText is a plain text dynamic
	DynamicTypeText = 4
	// DynamicTypeVideo is the auto-generated dynamic of a video upload;
	// its comments live under the video, so it is skipped during enumeration
	DynamicTypeVideo = 8
)

// ReplyPage is one page of a comment listing
type ReplyPage struct {
	Page struct {
		Num    int `json:"num"`
		Size   int `json:"size"`
		Count  int `json:"count"`
		Acount int `json:"acount"`
	} `json:"page"`
	Replies []Reply `json:"replies"`
}

// Reply is a single comment as returned by the reply endpoints
type Reply struct {
	Rpid      int64   `json:"rpid"`
	Oid       int64   `json:"oid"`
	Type      int     `json:"type"`
	Mid       int64   `json:"mid"`
	Root      int64   `json:"root"`
	Parent    int64   `json:"parent"`
	Rcount    int     `json:"rcount"`
	Like      int     `json:"like"`
	Ctime     int64   `json:"ctime"`
	Fansgrade int     `json:"fansgrade"`
	Member    Member  `json:"member"`
	Content   Content `json:"content"`
	Replies   []Reply `json:"replies"`
}

// Member is the comment author
type Member struct {
	Uname string `json:"uname"`
}

// Content is the comment body
type Content struct {
	Message string `json:"message"`
}

// IsTopLevel reports whether the reply heads its own thread
func (r Reply) IsTopLevel() bool {
	return r.Root == 0
}
