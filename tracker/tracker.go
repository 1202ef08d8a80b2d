package tracker

import (
	"context"
	"time"

	"github.com/truemediaorg/tiktokpost/model"

	log "github.com/sirupsen/logrus"
)

const (
	// How long a post may stay in processing before it is given up on
	maximumProcessingDelay = 24 * time.Hour

	processingTimeoutReason = "publish status still processing after 24h"
)

type PostStore interface {
	GetPendingPosts(ctx context.Context) ([]model.Post, error)
	UpdatePostStatus(ctx context.Context, id string, status model.PublishStatus, failReason string, postURL string) error
}

type StatusChecker interface {
	GetPublishStatus(ctx context.Context, publishID string) model.PublishStatusResult
}

// Tracker follows logged posts until TikTok reports a terminal status.
type Tracker struct {
	statusChecker StatusChecker
	db            PostStore
	interval      time.Duration
	now           func() time.Time
}

func NewTracker(statusChecker StatusChecker, db PostStore, interval time.Duration) *Tracker {
	return &Tracker{
		statusChecker: statusChecker,
		db:            db,
		interval:      interval,
		now:           time.Now,
	}
}

func (t *Tracker) Track(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			log.Debug("exiting Tracker by closing channel")
			return nil
		case <-time.After(t.interval):
			if err := t.checkPending(ctx); err != nil {
				// Context canceled errors are expected if the program is terminating
				if ctx.Err() != nil {
					return nil
				}
				// A publish log outage must not stop the server
				log.Errorf("error getting pending posts, retrying in %s: %v", t.interval, err)
			}
		}
	}
}

// checkPending runs one pass over the pending posts. Only a failure to read the
// publish log is returned; per-post problems are logged and skipped.
func (t *Tracker) checkPending(ctx context.Context) error {
	posts, err := t.db.GetPendingPosts(ctx)
	if err != nil {
		return err
	}
	if len(posts) > 0 {
		log.Infof("found %d posts still processing", len(posts))
	}

	for _, post := range posts {
		logger := log.WithField("id", post.ID).WithField("publishID", post.PublishID)

		if t.now().Sub(post.Created) > maximumProcessingDelay {
			logger.WithField("created", post.Created).Warn("post processing taking too long, marking as failed")
			t.update(ctx, post, model.PublishStatusFailed, processingTimeoutReason, "")
			continue
		}

		result := t.statusChecker.GetPublishStatus(ctx, post.PublishID)
		if !result.Success {
			if result.ErrorCode == model.ErrorCodeRateLimit {
				// The rest of the pass would be rate limited too
				logger.Warn("TikTok rate limit encountered, ending status pass early")
				return nil
			}
			logger.WithField("errorCode", result.ErrorCode).Errorf("error getting publish status: %s", result.ErrorMessage)
			continue
		}

		if result.Status == post.Status {
			logger.WithField("status", result.Status).Debug("publish status unchanged")
			continue
		}
		logger.WithField("status", result.Status).Info("publish status changed")
		t.update(ctx, post, result.Status, result.FailReason, result.PostURL)
	}
	return nil
}

func (t *Tracker) update(ctx context.Context, post model.Post, status model.PublishStatus, failReason string, postURL string) {
	if err := t.db.UpdatePostStatus(ctx, post.ID, status, failReason, postURL); err != nil {
		log.WithField("id", post.ID).WithField("status", status).Errorf("error updating post status: %v", err)
	}
}
