package tiktok

import "encoding/json"

// Every response is wrapped in the same envelope. On success Error.Code is "ok"
// (or absent) and Data holds the operation's payload.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error apiError        `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	LogID   string `json:"log_id"`
}

func (e apiError) failed() bool {
	return e.Code != "" && e.Code != "ok"
}

type PostInfo struct {
	Title          string `json:"title"`
	DisableComment bool   `json:"disable_comment"`
	DisableDuet    bool   `json:"disable_duet"`
	DisableStitch  bool   `json:"disable_stitch"`
}

type PublishVideoRequest struct {
	VideoURL  string   `json:"video_url"`
	Caption   string   `json:"caption"`
	PostInfo  PostInfo `json:"post_info"`
	APISecret string   `json:"api_secret"`
}

type PublishResponse struct {
	PublishID string `json:"publish_id"`
}

type InitUploadRequest struct {
	Source      string `json:"source"`
	ContentType string `json:"content_type"`
	Filename    string `json:"filename"`
	VideoSize   int64  `json:"video_size"`
	APISecret   string `json:"api_secret"`
}

type InitUploadResponse struct {
	PublishID string `json:"publish_id"`
	UploadURL string `json:"upload_url"`
	VideoURL  string `json:"video_url"`
}

type User struct {
	OpenID         string `json:"open_id"`
	UnionID        string `json:"union_id"`
	AvatarURL      string `json:"avatar_url"`
	DisplayName    string `json:"display_name"`
	Username       string `json:"username"`
	BioDescription string `json:"bio_description"`
	IsVerified     bool   `json:"is_verified"`
	FollowerCount  int64  `json:"follower_count"`
	FollowingCount int64  `json:"following_count"`
	LikesCount     int64  `json:"likes_count"`
	VideoCount     int64  `json:"video_count"`
}

type AccountInfoResponse struct {
	User User `json:"user"`
}

/*
The shape changes somewhat depending on Status:
If Status == FAILED:

	FailReason is populated.

If Status == PUBLISH_COMPLETE:

	PublicPostIDs holds the IDs of the public posts (empty for private posts).

Otherwise the post is still processing and UploadedBytes/DownloadedBytes report progress.
*/
type PublishStatusResponse struct {
	Status          string  `json:"status"`
	FailReason      string  `json:"fail_reason,omitempty"`
	PublicPostIDs   []int64 `json:"publicaly_available_post_id,omitempty"`
	UploadedBytes   int64   `json:"uploaded_bytes,omitempty"`
	DownloadedBytes int64   `json:"downloaded_bytes,omitempty"`
}
