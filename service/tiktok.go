package service

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/truemediaorg/tiktokpost/config"
	"github.com/truemediaorg/tiktokpost/model"
	"github.com/truemediaorg/tiktokpost/tiktok"

	"github.com/lucsky/cuid"
	log "github.com/sirupsen/logrus"
)

// APIClient is the TikTok API surface the service depends on.
type APIClient interface {
	UploadVideo(ctx context.Context, videoURL string, caption string, hashtags []string) (*tiktok.PublishResponse, error)
	InitVideoUpload(ctx context.Context, fileName string, size int64) (*tiktok.InitUploadResponse, error)
	TransferVideo(ctx context.Context, uploadURL string, video io.Reader, size int64) error
	FetchAccountInfo(ctx context.Context) (*tiktok.AccountInfoResponse, error)
	FetchPublishStatus(ctx context.Context, publishID string) (*tiktok.PublishStatusResponse, error)
}

// PostRecorder keeps a log of published videos.
type PostRecorder interface {
	AddPost(ctx context.Context, post model.Post) error
}

// TikTokService turns host requests into TikTok API calls. Every operation
// returns a result value; errors never escape.
type TikTokService struct {
	client          APIClient
	recorder        PostRecorder
	retrier         retrier
	testModeEnabled bool
}

// NewTikTokService resolves credentials and builds the API client. recorder may be nil.
func NewTikTokService(ctx context.Context, cfg config.Config, secrets SecretGetter, recorder PostRecorder) (*TikTokService, error) {
	credentials, err := ResolveCredentials(ctx, cfg.TikTok, secrets)
	if err != nil {
		return nil, err
	}

	client := tiktok.NewClient(credentials.APIKey, credentials.APISecret, cfg.TikTok.ApiURL, cfg.TikTok.RequestTimeout)
	log.Infof("TikTok client initialized. Host: %s", cfg.TikTok.ApiURL.String())

	policy := DefaultRetryPolicy()
	if cfg.TikTok.MaxAttempts > 0 {
		policy.MaxAttempts = cfg.TikTok.MaxAttempts
	}
	if cfg.TikTok.RetryBaseDelay > 0 {
		policy.BaseDelay = cfg.TikTok.RetryBaseDelay
	}

	return &TikTokService{
		client:          client,
		recorder:        recorder,
		retrier:         newRetrier(policy),
		testModeEnabled: cfg.TestModeEnabled,
	}, nil
}

// PostVideo publishes the video at videoURL.
func (s *TikTokService) PostVideo(ctx context.Context, videoURL string, caption string, hashtags []string) model.PostResult {
	req, err := model.NewPostRequest(videoURL, caption, hashtags)
	if err != nil {
		log.WithField("videoURL", videoURL).Warnf("rejected post request: %v", err)
		result := model.PostFailed(model.ErrorCodeValidation, err.Error())
		s.record(ctx, rejectedRequest(videoURL, caption, hashtags), "", result, 0)
		return result
	}
	logger := log.WithField("videoURL", req.VideoURL)

	if s.testModeEnabled {
		return s.simulatePost(ctx, req)
	}

	var publish *tiktok.PublishResponse
	attempts, err := s.retrier.run(ctx, "post video", func(ctx context.Context) error {
		var err error
		publish, err = s.client.UploadVideo(ctx, req.VideoURL, req.Caption, req.Hashtags)
		return err
	})
	if err != nil {
		result := failedPost(logger, err)
		s.record(ctx, req, "", result, attempts)
		return result
	}

	logger.WithField("publishID", publish.PublishID).WithField("attempts", attempts).Info("posted video to TikTok")
	result := model.PostSucceeded(publish.PublishID)
	s.record(ctx, req, publish.PublishID, result, attempts)
	return result
}

// PostVideoFile uploads a local .mp4 file and publishes it.
func (s *TikTokService) PostVideoFile(ctx context.Context, path string, caption string, hashtags []string) model.PostResult {
	req, err := model.NewFilePostRequest(path, caption, hashtags)
	if err != nil {
		log.WithField("path", path).Warnf("rejected file post request: %v", err)
		result := model.PostFailed(model.ErrorCodeValidation, err.Error())
		s.record(ctx, rejectedRequest("file://"+strings.TrimSpace(path), caption, hashtags), "", result, 0)
		return result
	}
	logger := log.WithField("path", req.Path).WithField("size", req.Size)
	logged := model.PostRequest{VideoURL: "file://" + req.Path, Caption: req.Caption, Hashtags: req.Hashtags}

	if s.testModeEnabled {
		return s.simulatePost(ctx, logged)
	}

	var upload *tiktok.InitUploadResponse
	attempts, err := s.retrier.run(ctx, "init video upload", func(ctx context.Context) error {
		var err error
		upload, err = s.client.InitVideoUpload(ctx, filepath.Base(req.Path), req.Size)
		return err
	})
	if err == nil {
		var n int
		n, err = s.retrier.run(ctx, "transfer video", func(ctx context.Context) error {
			// Reopen on every attempt so a retry starts from the first byte
			file, err := os.Open(req.Path)
			if err != nil {
				return err
			}
			defer file.Close()
			return s.client.TransferVideo(ctx, upload.UploadURL, file, req.Size)
		})
		attempts += n
	}
	var publish *tiktok.PublishResponse
	if err == nil {
		logged.VideoURL = upload.VideoURL
		var n int
		n, err = s.retrier.run(ctx, "post video", func(ctx context.Context) error {
			var err error
			publish, err = s.client.UploadVideo(ctx, upload.VideoURL, req.Caption, req.Hashtags)
			return err
		})
		attempts += n
	}
	if err != nil {
		result := failedPost(logger, err)
		s.record(ctx, logged, "", result, attempts)
		return result
	}

	logger.WithField("publishID", publish.PublishID).WithField("attempts", attempts).Info("posted video file to TikTok")
	result := model.PostSucceeded(publish.PublishID)
	s.record(ctx, logged, publish.PublishID, result, attempts)
	return result
}

// GetAccountInfo fetches the account the credentials belong to.
func (s *TikTokService) GetAccountInfo(ctx context.Context) model.AccountInfoResult {
	account, err := s.fetchAccount(ctx)
	if err != nil {
		code := ErrorCodeFor(err)
		logFailure(log.WithField("operation", "get account info"), code, err)
		return model.AccountInfoFailed(code, err.Error())
	}
	return model.AccountInfoSucceeded(account)
}

// GetPublishStatus reports how far TikTok has got with a published video.
func (s *TikTokService) GetPublishStatus(ctx context.Context, publishID string) model.PublishStatusResult {
	if publishID == "" {
		return model.PublishStatusResultFailed(publishID, model.ErrorCodeValidation, "publish_id is required")
	}
	logger := log.WithField("publishID", publishID)

	var resp *tiktok.PublishStatusResponse
	_, err := s.retrier.run(ctx, "get publish status", func(ctx context.Context) error {
		var err error
		resp, err = s.client.FetchPublishStatus(ctx, publishID)
		return err
	})
	if err != nil {
		code := ErrorCodeFor(err)
		logFailure(logger, code, err)
		return model.PublishStatusResultFailed(publishID, code, err.Error())
	}

	status, err := model.ParsePublishStatus(resp.Status)
	if err != nil {
		logger.Warnf("unexpected publish status: %v", err)
		return model.PublishStatusResultFailed(publishID, model.ErrorCodeRemoteServer, err.Error())
	}

	result := model.PublishStatusResult{
		Success:    true,
		PublishID:  publishID,
		Status:     status,
		FailReason: resp.FailReason,
	}
	if status == model.PublishStatusComplete && len(resp.PublicPostIDs) > 0 {
		// The post URL needs the username, which the status response lacks
		account, err := s.fetchAccount(ctx)
		if err != nil {
			logger.Warnf("unable to build post URL: %v", err)
		} else if account.Username != "" {
			result.PostURL = tiktok.ConstructVideoURL(account.Username, strconv.FormatInt(resp.PublicPostIDs[0], 10))
		}
	}
	return result
}

func (s *TikTokService) fetchAccount(ctx context.Context) (model.AccountInfo, error) {
	var resp *tiktok.AccountInfoResponse
	_, err := s.retrier.run(ctx, "get account info", func(ctx context.Context) error {
		var err error
		resp, err = s.client.FetchAccountInfo(ctx)
		return err
	})
	if err != nil {
		return model.AccountInfo{}, err
	}
	user := resp.User
	return model.AccountInfo{
		AccountID:      user.OpenID,
		UnionID:        user.UnionID,
		DisplayName:    user.DisplayName,
		Username:       user.Username,
		AvatarURL:      user.AvatarURL,
		BioDescription: user.BioDescription,
		IsVerified:     user.IsVerified,
		FollowerCount:  user.FollowerCount,
		FollowingCount: user.FollowingCount,
		LikesCount:     user.LikesCount,
		VideoCount:     user.VideoCount,
	}, nil
}

func (s *TikTokService) simulatePost(ctx context.Context, req model.PostRequest) model.PostResult {
	postID := cuid.New()
	log.WithField("videoURL", req.VideoURL).WithField("caption", tiktok.FormatCaption(req.Caption, req.Hashtags)).Infof("Simulating TikTok post with post ID %s", postID)
	result := model.PostSucceeded(postID)
	s.record(ctx, req, postID, result, 0)
	return result
}

// record writes the outcome to the publish log. A recording failure is logged
// and never changes the result.
func (s *TikTokService) record(ctx context.Context, req model.PostRequest, publishID string, result model.PostResult, attempts int) {
	if s.recorder == nil {
		return
	}
	now := time.Now().UTC()
	post := model.Post{
		VideoURL:     req.VideoURL,
		Caption:      req.Caption,
		Hashtags:     req.Hashtags,
		PublishID:    publishID,
		Status:       model.PublishStatusProcessingDownload,
		ErrorCode:    result.ErrorCode,
		ErrorMessage: result.ErrorMessage,
		Attempts:     attempts,
		Created:      now,
		Updated:      now,
	}
	switch {
	case !result.Success:
		post.Status = model.PublishStatusFailed
	case s.testModeEnabled:
		// Nothing to track for a simulated post
		post.Status = model.PublishStatusComplete
	}
	if err := s.recorder.AddPost(ctx, post); err != nil {
		log.WithField("publishID", publishID).Warnf("Post result wasn't recorded in the publish log: %v", err)
	}
}

// rejectedRequest keeps what the caller sent for a request that failed validation.
func rejectedRequest(videoURL string, caption string, hashtags []string) model.PostRequest {
	return model.PostRequest{
		VideoURL: strings.TrimSpace(videoURL),
		Caption:  strings.TrimSpace(caption),
		Hashtags: model.NormalizeHashtags(hashtags),
	}
}

func failedPost(logger *log.Entry, err error) model.PostResult {
	code := ErrorCodeFor(err)
	logFailure(logger, code, err)
	return model.PostFailed(code, err.Error())
}

func logFailure(logger *log.Entry, code model.ErrorCode, err error) {
	logger = logger.WithField("errorCode", code)
	switch code {
	case model.ErrorCodeAuth, model.ErrorCodeUnknown:
		logger.Errorf("TikTok call failed: %v", err)
	default:
		logger.Warnf("TikTok call failed: %v", err)
	}
}

// ErrorCodeFor maps an error onto the result error codes.
func ErrorCodeFor(err error) model.ErrorCode {
	switch {
	case errors.Is(err, model.ErrInvalidRequest), errors.Is(err, tiktok.ErrValidation):
		return model.ErrorCodeValidation
	case errors.Is(err, tiktok.ErrAuthentication):
		return model.ErrorCodeAuth
	case errors.Is(err, tiktok.ErrRateLimit):
		return model.ErrorCodeRateLimit
	case errors.Is(err, tiktok.ErrTransientNetwork):
		return model.ErrorCodeNetwork
	case errors.Is(err, tiktok.ErrRemoteServer):
		return model.ErrorCodeRemoteServer
	default:
		return model.ErrorCodeUnknown
	}
}
