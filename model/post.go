package model

import (
	"time"

	"github.com/truemediaorg/tiktokpost/database/db"
)

// Post is an entry of the publish log.
type Post struct {
	ID           string
	VideoURL     string
	Caption      string
	Hashtags     []string
	PublishID    string
	Status       PublishStatus
	ErrorCode    ErrorCode
	ErrorMessage string
	PostURL      string
	Attempts     int
	Created      time.Time
	Updated      time.Time
}

func PostFromPostLog(pl db.PostLog) (*Post, error) {
	status, err := ParsePublishStatus(pl.Status)
	if err != nil {
		return nil, err
	}
	hashtags := pl.Hashtags
	if hashtags == nil {
		hashtags = []string{}
	}
	return &Post{
		ID:           pl.ID,
		VideoURL:     pl.VideoURL,
		Caption:      pl.Caption,
		Hashtags:     hashtags,
		PublishID:    pl.PublishID,
		Status:       status,
		ErrorCode:    ErrorCode(pl.ErrorCode),
		ErrorMessage: pl.ErrorMessage,
		PostURL:      pl.PostURL,
		Attempts:     pl.Attempts,
		Created:      pl.Created,
		Updated:      pl.Updated,
	}, nil
}
