package bilibili

import (
	"fmt"
	"net/url"
)

const (
	// APIBase is the main REST API host
	APIBase = "https://api.bilibili.com"

	// VCBase hosts the dynamic feed endpoints
	VCBase = "https://api.vc.bilibili.com"

	// videoPageSize is the catalog page size
	videoPageSize = 30

	// subReplyPageSize is the sub-reply page size
	subReplyPageSize = 20
)

// userInfoURL constructs the URL for an account profile
func userInfoURL(base string, mid int64) string {
	params := url.Values{}
	params.Set("mid", fmt.Sprintf("%d", mid))
	return fmt.Sprintf("%s/x/space/acc/info?%s", base, params.Encode())
}

// videosURL constructs the URL for one page of an account's video catalog
func videosURL(base string, mid int64, page int) string {
	params := url.Values{}
	params.Set("mid", fmt.Sprintf("%d", mid))
	params.Set("pn", fmt.Sprintf("%d", page))
	params.Set("ps", fmt.Sprintf("%d", videoPageSize))
	params.Set("order", "pubdate")
	return fmt.Sprintf("%s/x/space/arc/search?%s", base, params.Encode())
}

// dynamicsURL constructs the URL for one page of an account's dynamic feed.
// Paging is by the offset cursor returned with the previous page, not a page
// index.
func dynamicsURL(base string, mid int64, offset int64) string {
	params := url.Values{}
	params.Set("host_uid", fmt.Sprintf("%d", mid))
	params.Set("offset_dynamic_id", fmt.Sprintf("%d", offset))
	return fmt.Sprintf("%s/dynamic_svr/v1/dynamic_svr/space_history?%s", base, params.Encode())
}

// commentsURL constructs the URL for one page of a comment listing
func commentsURL(base string, oid int64, kind ResourceType, page int, order CommentOrder) string {
	params := url.Values{}
	params.Set("oid", fmt.Sprintf("%d", oid))
	params.Set("type", fmt.Sprintf("%d", kind))
	params.Set("pn", fmt.Sprintf("%d", page))
	params.Set("sort", fmt.Sprintf("%d", order))
	return fmt.Sprintf("%s/x/v2/reply?%s", base, params.Encode())
}

// subRepliesURL constructs the URL for one page of a comment's sub-replies
func subRepliesURL(base string, oid int64, kind ResourceType, root int64, page int) string {
	params := url.Values{}
	params.Set("oid", fmt.Sprintf("%d", oid))
	params.Set("type", fmt.Sprintf("%d", kind))
	params.Set("root", fmt.Sprintf("%d", root))
	params.Set("pn", fmt.Sprintf("%d", page))
	params.Set("ps", fmt.Sprintf("%d", subReplyPageSize))
	return fmt.Sprintf("%s/x/v2/reply/reply?%s", base, params.Encode())
}

// VideoURL returns the public page of a video
func VideoURL(aid int64) string {
	return fmt.Sprintf("https://www.bilibili.com/video/av%d", aid)
}

// DynamicURL returns the public page of a dynamic
func DynamicURL(oid int64) string {
	return fmt.Sprintf("https://t.bilibili.com/%d", oid)
}
