package model

type ErrorCode string

const (
	ErrorCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrorCodeAuth         ErrorCode = "AUTH_ERROR"
	ErrorCodeRateLimit    ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrorCodeNetwork      ErrorCode = "NETWORK_ERROR"
	ErrorCodeRemoteServer ErrorCode = "REMOTE_SERVER_ERROR"
	ErrorCodeUnknown      ErrorCode = "UNKNOWN_ERROR"
)

/*
Results are terminal values handed back to the host application.
If Success == true:

	PostID (or Account, or Status) is populated, ErrorCode and ErrorMessage are empty.

If Success == false:

	ErrorCode and ErrorMessage are populated and nothing else is.
*/
type PostResult struct {
	Success      bool      `json:"success"`
	PostID       string    `json:"post_id,omitempty"`
	ErrorCode    ErrorCode `json:"error_code,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

func PostSucceeded(postID string) PostResult {
	return PostResult{Success: true, PostID: postID}
}

func PostFailed(code ErrorCode, message string) PostResult {
	return PostResult{Success: false, ErrorCode: code, ErrorMessage: failureMessage(code, message)}
}

type AccountInfo struct {
	AccountID      string `json:"account_id"`
	UnionID        string `json:"union_id,omitempty"`
	DisplayName    string `json:"display_name"`
	Username       string `json:"username,omitempty"`
	AvatarURL      string `json:"avatar_url,omitempty"`
	BioDescription string `json:"bio_description,omitempty"`
	IsVerified     bool   `json:"is_verified"`
	FollowerCount  int64  `json:"follower_count"`
	FollowingCount int64  `json:"following_count"`
	LikesCount     int64  `json:"likes_count"`
	VideoCount     int64  `json:"video_count"`
}

type AccountInfoResult struct {
	Success      bool         `json:"success"`
	Account      *AccountInfo `json:"account,omitempty"`
	ErrorCode    ErrorCode    `json:"error_code,omitempty"`
	ErrorMessage string       `json:"error_message,omitempty"`
}

func AccountInfoSucceeded(account AccountInfo) AccountInfoResult {
	return AccountInfoResult{Success: true, Account: &account}
}

func AccountInfoFailed(code ErrorCode, message string) AccountInfoResult {
	return AccountInfoResult{Success: false, ErrorCode: code, ErrorMessage: failureMessage(code, message)}
}

type PublishStatusResult struct {
	Success      bool          `json:"success"`
	PublishID    string        `json:"publish_id,omitempty"`
	Status       PublishStatus `json:"status,omitempty"`
	FailReason   string        `json:"fail_reason,omitempty"`
	PostURL      string        `json:"post_url,omitempty"`
	ErrorCode    ErrorCode     `json:"error_code,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

func PublishStatusResultFailed(publishID string, code ErrorCode, message string) PublishStatusResult {
	return PublishStatusResult{Success: false, PublishID: publishID, ErrorCode: code, ErrorMessage: failureMessage(code, message)}
}

// A failed result must always explain itself
func failureMessage(code ErrorCode, message string) string {
	if message != "" {
		return message
	}
	return string(code)
}
