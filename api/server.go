package api

import (
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

type Server struct {
	HTTPServer http.Server
}

func NewServer(port int, poster TikTokPoster) *Server {
	return &Server{
		HTTPServer: http.Server{
			Addr:              fmt.Sprintf("0.0.0.0:%d", port),
			Handler:           NewHandler(poster),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// NewHandler routes the TikTok endpoints and the healthcheck.
func NewHandler(poster TikTokPoster) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /healthz", handleHealthcheck())
	mux.Handle("POST /api/tiktok/post", handlePost(poster))
	mux.Handle("GET /api/tiktok/account", handleAccount(poster))
	mux.Handle("GET /api/tiktok/status", handleStatus(poster))
	return mux
}

func handleHealthcheck() http.Handler {
	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			log.Debug("received healthcheck request")
			// This will have a status of 200
			fmt.Fprintf(w, "all good in the hood")
		},
	)
}
