package model

import (
	"fmt"
	"strings"
)

type PublishStatus string

const (
	PublishStatusProcessingUpload   PublishStatus = "PROCESSING_UPLOAD"
	PublishStatusProcessingDownload PublishStatus = "PROCESSING_DOWNLOAD"
	PublishStatusSentToInbox        PublishStatus = "SEND_TO_USER_INBOX"
	PublishStatusComplete           PublishStatus = "PUBLISH_COMPLETE"
	PublishStatusFailed             PublishStatus = "FAILED"
)

func ParsePublishStatus(s string) (PublishStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case string(PublishStatusProcessingUpload):
		return PublishStatusProcessingUpload, nil
	case string(PublishStatusProcessingDownload):
		return PublishStatusProcessingDownload, nil
	case string(PublishStatusSentToInbox):
		return PublishStatusSentToInbox, nil
	case string(PublishStatusComplete):
		return PublishStatusComplete, nil
	case string(PublishStatusFailed):
		return PublishStatusFailed, nil
	default:
		return PublishStatusFailed, fmt.Errorf("unknown publish status: %s", s)
	}
}

// IsTerminal reports whether TikTok will not move the post to another status.
// Inbox delivery counts as terminal: the account owner finishes it in the app.
func (s PublishStatus) IsTerminal() bool {
	switch s {
	case PublishStatusComplete, PublishStatusFailed, PublishStatusSentToInbox:
		return true
	default:
		return false
	}
}
