package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/truemediaorg/tiktokpost/model"

	log "github.com/sirupsen/logrus"
)

const maxRequestBodySize = 1 << 20

type TikTokPoster interface {
	PostVideo(ctx context.Context, videoURL string, caption string, hashtags []string) model.PostResult
	GetAccountInfo(ctx context.Context) model.AccountInfoResult
	GetPublishStatus(ctx context.Context, publishID string) model.PublishStatusResult
}

func handlePost(poster TikTokPoster) http.Handler {
	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
			var req model.PostRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				message := "request body must be a JSON object"
				var maxBytesErr *http.MaxBytesError
				if errors.As(err, &maxBytesErr) {
					message = "request body too large"
				}
				log.WithField("path", r.URL.Path).Debugf("undecodable request: %v", err)
				writeResult(w, model.PostFailed(model.ErrorCodeValidation, message), model.ErrorCodeValidation)
				return
			}
			result := poster.PostVideo(r.Context(), req.VideoURL, req.Caption, req.Hashtags)
			writeResult(w, result, result.ErrorCode)
		},
	)
}

func handleAccount(poster TikTokPoster) http.Handler {
	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			result := poster.GetAccountInfo(r.Context())
			writeResult(w, result, result.ErrorCode)
		},
	)
}

func handleStatus(poster TikTokPoster) http.Handler {
	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			result := poster.GetPublishStatus(r.Context(), r.URL.Query().Get("publish_id"))
			writeResult(w, result, result.ErrorCode)
		},
	)
}

// statusCodeFor picks the HTTP status for a result; an empty code is a success.
func statusCodeFor(code model.ErrorCode) int {
	switch code {
	case "":
		return http.StatusOK
	case model.ErrorCodeValidation:
		return http.StatusBadRequest
	case model.ErrorCodeAuth, model.ErrorCodeRemoteServer:
		return http.StatusBadGateway
	case model.ErrorCodeRateLimit:
		return http.StatusTooManyRequests
	case model.ErrorCodeNetwork:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeResult(w http.ResponseWriter, result interface{}, code model.ErrorCode) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCodeFor(code))
	if err := json.NewEncoder(w).Encode(result); err != nil {
		log.Errorf("error writing response: %v", err)
	}
}
