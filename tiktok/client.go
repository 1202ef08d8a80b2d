package tiktok

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const (
	opUploadVideo        = "upload video"
	opInitVideoUpload    = "init video upload"
	opTransferVideo      = "transfer video"
	opFetchAccountInfo   = "fetch account info"
	opFetchPublishStatus = "fetch publish status"

	accountFields = "open_id,union_id,avatar_url,display_name,username,bio_description,is_verified,follower_count,following_count,likes_count,video_count"

	maxResponseSize     = 10 << 20
	fileTransferTimeout = 10 * time.Minute
)

// Client sends authenticated requests to the TikTok open API. Each method makes
// exactly one request and never retries.
type Client struct {
	baseURL      string
	apiKey       string
	apiSecret    string
	HTTPClient   *http.Client
	uploadClient *http.Client
}

func NewClient(apiKey string, apiSecret string, baseURL url.URL, timeout time.Duration) *Client {
	// The API key doubles as the bearer token
	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: apiKey, TokenType: "Bearer"})
	httpClient := oauth2.NewClient(context.Background(), tokenSource)
	httpClient.Timeout = timeout

	return &Client{
		baseURL:      strings.TrimSuffix(baseURL.String(), "/"),
		apiKey:       apiKey,
		apiSecret:    apiSecret,
		HTTPClient:   httpClient,
		uploadClient: &http.Client{Timeout: fileTransferTimeout},
	}
}

// UploadVideo asks TikTok to pull the video at videoURL and publish it with the
// caption and hashtags.
func (c Client) UploadVideo(ctx context.Context, videoURL string, caption string, hashtags []string) (*PublishResponse, error) {
	fullCaption := FormatCaption(caption, hashtags)
	reqBody := PublishVideoRequest{
		VideoURL: videoURL,
		Caption:  fullCaption,
		PostInfo: PostInfo{
			Title: titleFromCaption(fullCaption),
		},
		APISecret: c.apiSecret,
	}

	var pr PublishResponse
	if err := c.do(ctx, opUploadVideo, true, http.MethodPost, "/post/publish/video/url", nil, reqBody, &pr); err != nil {
		return nil, err
	}
	if pr.PublishID == "" {
		return nil, &Error{Kind: ErrRemoteServer, Operation: opUploadVideo, Message: "response missing publish_id"}
	}
	return &pr, nil
}

// InitVideoUpload reserves an upload slot for a local video file.
func (c Client) InitVideoUpload(ctx context.Context, fileName string, size int64) (*InitUploadResponse, error) {
	reqBody := InitUploadRequest{
		Source:      "FILE_UPLOAD",
		ContentType: "video/mp4",
		Filename:    fileName,
		VideoSize:   size,
		APISecret:   c.apiSecret,
	}

	var iur InitUploadResponse
	if err := c.do(ctx, opInitVideoUpload, true, http.MethodPost, "/post/publish/video/init", nil, reqBody, &iur); err != nil {
		return nil, err
	}
	if iur.UploadURL == "" || iur.VideoURL == "" {
		return nil, &Error{Kind: ErrRemoteServer, Operation: opInitVideoUpload, Message: "response missing upload_url or video_url"}
	}
	return &iur, nil
}

// TransferVideo sends the file bytes to the upload URL returned by InitVideoUpload.
// The upload URL is pre-signed, so no credentials are attached.
func (c Client) TransferVideo(ctx context.Context, uploadURL string, video io.Reader, size int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, video)
	if err != nil {
		return &Error{Kind: ErrRemoteServer, Operation: opTransferVideo, Message: "invalid upload_url", Err: err}
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", "video/mp4")
	req.Header.Set("Content-Range", fmt.Sprintf("bytes 0-%d/%d", size-1, size))

	resp, err := c.uploadClient.Do(req)
	if err != nil {
		return networkError(opTransferVideo, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		apiErr := &Error{
			Kind:       classifyResponse(resp.StatusCode, "", true),
			Operation:  opTransferVideo,
			StatusCode: resp.StatusCode,
			Message:    truncate(string(body), 200),
		}
		if apiErr.Kind == ErrRateLimit {
			apiErr.RateLimit = parseRateLimit(resp.Header)
		}
		return apiErr
	}
	return nil
}

// FetchAccountInfo returns the account the credentials belong to.
func (c Client) FetchAccountInfo(ctx context.Context) (*AccountInfoResponse, error) {
	query := url.Values{}
	query.Add("fields", accountFields)

	var air AccountInfoResponse
	if err := c.do(ctx, opFetchAccountInfo, false, http.MethodGet, "/user/info", query, nil, &air); err != nil {
		return nil, err
	}
	if air.User.OpenID == "" {
		return nil, &Error{Kind: ErrRemoteServer, Operation: opFetchAccountInfo, Message: "response missing open_id"}
	}
	if air.User.FollowerCount < 0 {
		return nil, &Error{Kind: ErrRemoteServer, Operation: opFetchAccountInfo, Message: fmt.Sprintf("invalid follower_count %d", air.User.FollowerCount)}
	}
	return &air, nil
}

// FetchPublishStatus returns the processing status of a published video.
func (c Client) FetchPublishStatus(ctx context.Context, publishID string) (*PublishStatusResponse, error) {
	query := url.Values{}
	query.Add("video_id", publishID)

	var psr PublishStatusResponse
	if err := c.do(ctx, opFetchPublishStatus, true, http.MethodGet, "/post/publish/status", query, nil, &psr); err != nil {
		return nil, err
	}
	if psr.Status == "" {
		return nil, &Error{Kind: ErrRemoteServer, Operation: opFetchPublishStatus, Message: "response missing status"}
	}
	return &psr, nil
}

// do sends one request and decodes the envelope's data into out. Every failure
// after the request is built is returned as an *Error.
func (c Client) do(ctx context.Context, operation string, allowValidation bool, method string, path string, query url.Values, body interface{}, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", operation, err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return networkError(operation, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return networkError(operation, err)
	}
	log.WithField("operation", operation).WithField("statusCode", resp.StatusCode).Debug("TikTok API response")

	var env envelope
	decodeErr := json.Unmarshal(respBody, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || env.Error.failed() {
		apiErr := &Error{
			Kind:       classifyResponse(resp.StatusCode, env.Error.Code, allowValidation),
			Operation:  operation,
			StatusCode: resp.StatusCode,
			Code:       env.Error.Code,
			Message:    env.Error.Message,
			LogID:      env.Error.LogID,
		}
		if apiErr.Kind == ErrRateLimit {
			apiErr.RateLimit = parseRateLimit(resp.Header)
		}
		if apiErr.Message == "" && decodeErr != nil {
			apiErr.Message = truncate(string(respBody), 200)
		}
		return apiErr
	}

	if decodeErr != nil {
		return &Error{Kind: ErrRemoteServer, Operation: operation, StatusCode: resp.StatusCode, Message: "undecodable response", Err: decodeErr}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &Error{Kind: ErrRemoteServer, Operation: operation, StatusCode: resp.StatusCode, Message: "undecodable response data", Err: err}
		}
	}
	return nil
}

// truncate keeps at most n characters of s without splitting one.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
