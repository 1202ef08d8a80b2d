package service

import (
	"context"
	"io"
	"time"

	"github.com/truemediaorg/tiktokpost/model"
	"github.com/truemediaorg/tiktokpost/tiktok"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/stretchr/testify/mock"
)

type MockAPIClient struct {
	mock.Mock
}

func (m *MockAPIClient) UploadVideo(ctx context.Context, videoURL string, caption string, hashtags []string) (*tiktok.PublishResponse, error) {
	args := m.Called(ctx, videoURL, caption, hashtags)
	resp, _ := args.Get(0).(*tiktok.PublishResponse)
	return resp, args.Error(1)
}

func (m *MockAPIClient) InitVideoUpload(ctx context.Context, fileName string, size int64) (*tiktok.InitUploadResponse, error) {
	args := m.Called(ctx, fileName, size)
	resp, _ := args.Get(0).(*tiktok.InitUploadResponse)
	return resp, args.Error(1)
}

func (m *MockAPIClient) TransferVideo(ctx context.Context, uploadURL string, video io.Reader, size int64) error {
	args := m.Called(ctx, uploadURL, video, size)
	return args.Error(0)
}

func (m *MockAPIClient) FetchAccountInfo(ctx context.Context) (*tiktok.AccountInfoResponse, error) {
	args := m.Called(ctx)
	resp, _ := args.Get(0).(*tiktok.AccountInfoResponse)
	return resp, args.Error(1)
}

func (m *MockAPIClient) FetchPublishStatus(ctx context.Context, publishID string) (*tiktok.PublishStatusResponse, error) {
	args := m.Called(ctx, publishID)
	resp, _ := args.Get(0).(*tiktok.PublishStatusResponse)
	return resp, args.Error(1)
}

type MockPostRecorder struct {
	mock.Mock
}

func (m *MockPostRecorder) AddPost(ctx context.Context, post model.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

type MockSecretGetter struct {
	mock.Mock
}

func (m *MockSecretGetter) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*secretsmanager.GetSecretValueOutput)
	return out, args.Error(1)
}

// recordingSleeper stands in for real waits and remembers what was asked for.
type recordingSleeper struct {
	delays []time.Duration
}

func (r *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

func newTestService(client APIClient, recorder PostRecorder, sleeper *recordingSleeper) *TikTokService {
	return &TikTokService{
		client:   client,
		recorder: recorder,
		retrier: retrier{
			policy: DefaultRetryPolicy(),
			sleep:  sleeper.sleep,
			now:    func() time.Time { return time.Unix(1700000000, 0) },
		},
	}
}

func rateLimitError(retryAfter time.Duration) error {
	return &tiktok.Error{
		Kind:       tiktok.ErrRateLimit,
		Operation:  "upload video",
		StatusCode: 429,
		Code:       "rate_limit_exceeded",
		RateLimit:  &tiktok.RateLimit{RetryAfter: retryAfter},
	}
}
