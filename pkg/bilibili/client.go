package bilibili

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	errs "biliguard/pkg/errors"
	"biliguard/pkg/logger"
)

// Credentials is the Bilibili cookie set, passed through unmodified
type Credentials struct {
	SessData string
	BiliJct  string
	Buvid3   string
}

// Client is a Bilibili REST API client
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	apiBase    string
	vcBase     string
	logger     logger.Logger
}

// NewClient creates a new Bilibili API client
func NewClient(timeout time.Duration, creds Credentials, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	c := &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"User-Agent":      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			"Accept":          "application/json, text/plain, */*",
			"Accept-Language": "zh-CN,zh;q=0.9,en;q=0.8",
			"Referer":         "https://www.bilibili.com",
		},
		apiBase: APIBase,
		vcBase:  VCBase,
		logger:  log,
	}

	var cookies []string
	if creds.SessData != "" {
		cookies = append(cookies, fmt.Sprintf("SESSDATA=%s", creds.SessData))
	}
	if creds.BiliJct != "" {
		cookies = append(cookies, fmt.Sprintf("bili_jct=%s", creds.BiliJct))
	}
	if creds.Buvid3 != "" {
		cookies = append(cookies, fmt.Sprintf("buvid3=%s", creds.Buvid3))
	}
	if len(cookies) > 0 {
		c.headers["Cookie"] = strings.Join(cookies, "; ")
	}

	return c
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetBaseURL points both API hosts at base; used by tests
func (c *Client) SetBaseURL(base string) {
	c.apiBase = base
	c.vcBase = base
}

// getJSON performs a GET request, checks the HTTP status and the Bilibili
// response envelope, and decodes the data payload into target
func (c *Client) getJSON(ctx context.Context, url string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errs.New(errs.ErrorTypeUnknown, fmt.Sprintf("failed to create request: %v", err), 0)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"url":      url,
			"error":    err.Error(),
			"duration": duration,
		})
		return errs.New(errs.ErrorTypeNetwork, fmt.Sprintf("network error: %v", err), 0)
	}
	defer resp.Body.Close()

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"url":      url,
		"status":   resp.StatusCode,
		"duration": duration,
	})

	if err := c.checkResponseStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.New(errs.ErrorTypeNetwork, fmt.Sprintf("failed to read response body: %v", err), resp.StatusCode)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return errs.New(errs.ErrorTypeParsing, fmt.Sprintf("failed to parse JSON: %v", err), resp.StatusCode)
	}

	if env.Code != 0 {
		apiErr := errs.FromBilibiliCode(env.Code, env.Message)
		c.logger.WarnWithFields("bilibili api returned error code", map[string]interface{}{
			"url":     url,
			"code":    env.Code,
			"message": env.Message,
			"type":    string(apiErr.Type),
		})
		return apiErr
	}

	if target != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, target); err != nil {
			return errs.New(errs.ErrorTypeParsing, fmt.Sprintf("failed to parse data payload: %v", err), resp.StatusCode)
		}
	}

	return nil
}

// checkResponseStatus maps the HTTP status onto the error taxonomy
func (c *Client) checkResponseStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusPreconditionFailed || resp.StatusCode == http.StatusTooManyRequests:
		// 412 is the anti-crawl gateway's throttle response
		c.logger.WarnWithFields("rate limit exceeded", map[string]interface{}{
			"status": resp.StatusCode,
			"url":    resp.Request.URL.String(),
		})
		return errs.New(errs.ErrorTypeRateLimit, "rate limit exceeded", resp.StatusCode)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errs.New(errs.ErrorTypeAuth, "authentication required", resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return errs.New(errs.ErrorTypeNotFound, "resource not found", resp.StatusCode)
	case resp.StatusCode >= 500:
		return errs.New(errs.ErrorTypeServerError, "server error", resp.StatusCode)
	case resp.StatusCode >= 400:
		return errs.New(errs.ErrorTypeUnknown, fmt.Sprintf("unexpected status code: %d", resp.StatusCode), resp.StatusCode)
	default:
		return nil
	}
}

// UserInfo fetches the monitored account's profile
func (c *Client) UserInfo(ctx context.Context, mid int64) (UserInfo, error) {
	var info UserInfo
	err := c.getJSON(ctx, userInfoURL(c.apiBase, mid), &info)
	return info, err
}

// ListVideos fetches one page of the account's video catalog
func (c *Client) ListVideos(ctx context.Context, mid int64, page int) (VideoList, error) {
	var list VideoList
	err := c.getJSON(ctx, videosURL(c.apiBase, mid, page), &list)
	return list, err
}

// ListDynamics fetches one page of the account's dynamic feed using the
// offset cursor returned with the previous page
func (c *Client) ListDynamics(ctx context.Context, mid int64, offset int64) (DynamicFeed, error) {
	var feed DynamicFeed
	err := c.getJSON(ctx, dynamicsURL(c.vcBase, mid, offset), &feed)
	return feed, err
}

// ListComments fetches one page of a content item's comment listing in the
// given order
func (c *Client) ListComments(ctx context.Context, oid int64, kind ResourceType, page int, order CommentOrder) (ReplyPage, error) {
	var replies ReplyPage
	err := c.getJSON(ctx, commentsURL(c.apiBase, oid, kind, page, order), &replies)
	return replies, err
}

// ListSubReplies fetches one page of a top-level comment's sub-replies
func (c *Client) ListSubReplies(ctx context.Context, oid int64, kind ResourceType, root int64, page int) (ReplyPage, error) {
	var replies ReplyPage
	err := c.getJSON(ctx, subRepliesURL(c.apiBase, oid, kind, root, page), &replies)
	return replies, err
}
