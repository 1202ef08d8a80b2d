package db

import "time"

type PostLog struct {
	ID           string    `db:"id"`
	VideoURL     string    `db:"video_url"`
	Caption      string    `db:"caption"`
	Hashtags     []string  `db:"hashtags"`
	PublishID    string    `db:"publish_id"`
	Status       string    `db:"status"`
	ErrorCode    string    `db:"error_code"`
	ErrorMessage string    `db:"error_message"`
	PostURL      string    `db:"post_url"`
	Attempts     int       `db:"attempts"`
	Created      time.Time `db:"created"`
	Updated      time.Time `db:"updated"`
}
