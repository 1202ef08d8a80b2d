package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/truemediaorg/tiktokpost/model"
	"github.com/truemediaorg/tiktokpost/service"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	postVideoURL string
	postFile     string
	postCaption  string
	postHashtags []string
	postBatch    string
)

func init() {
	postCmd.Flags().StringVar(&postVideoURL, "video-url", "", "public URL of the video to post")
	postCmd.Flags().StringVar(&postFile, "file", "", "local .mp4 file to upload and post")
	postCmd.Flags().StringVar(&postCaption, "caption", "", "caption for the post")
	postCmd.Flags().StringArrayVar(&postHashtags, "hashtag", nil, "hashtag to add (repeatable)")
	postCmd.Flags().StringVar(&postBatch, "batch", "", "YAML file listing several posts")
	postCmd.MarkFlagsMutuallyExclusive("video-url", "file", "batch")
	postCmd.MarkFlagsOneRequired("video-url", "file", "batch")
	rootCmd.AddCommand(postCmd)
}

// batchPost is one entry of a --batch file. Exactly one of VideoURL or File is set.
type batchPost struct {
	VideoURL string   `yaml:"video_url"`
	File     string   `yaml:"file"`
	Caption  string   `yaml:"caption"`
	Hashtags []string `yaml:"hashtags"`
}

type batchFile struct {
	Posts []batchPost `yaml:"posts"`
}

var postCmd = &cobra.Command{
	Use:   "post",
	Short: "Posts one or more videos to TikTok",
	Long:  `Posts a video from a URL or a local file, or every video listed in a YAML batch file. Prints one JSON result per post.`,
	Run: func(cmd *cobra.Command, args []string) {
		posts := []batchPost{{VideoURL: postVideoURL, File: postFile, Caption: postCaption, Hashtags: postHashtags}}
		if postBatch != "" {
			var err error
			if posts, err = loadBatch(postBatch); err != nil {
				log.Fatalf("error reading batch file: %v", err)
			}
		}

		ctx := context.Background()
		_, tiktokService, db := setup(ctx)
		if db != nil {
			defer db.Disconnect()
		}

		failed := 0
		for _, post := range posts {
			result := publish(ctx, tiktokService, post)
			if !result.Success {
				failed++
			}
			printJSON(cmd.OutOrStdout(), result)
		}
		if failed > 0 {
			log.Errorf("%d of %d posts failed", failed, len(posts))
			exitWithFailure(db)
		}
	},
}

func publish(ctx context.Context, tiktokService *service.TikTokService, post batchPost) model.PostResult {
	switch {
	case post.VideoURL != "" && post.File != "":
		return model.PostFailed(model.ErrorCodeValidation, "set only one of video_url or file")
	case post.File != "":
		return tiktokService.PostVideoFile(ctx, post.File, post.Caption, post.Hashtags)
	default:
		return tiktokService.PostVideo(ctx, post.VideoURL, post.Caption, post.Hashtags)
	}
}

func loadBatch(path string) ([]batchPost, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var batch batchFile
	if err := yaml.Unmarshal(raw, &batch); err != nil {
		return nil, err
	}
	if len(batch.Posts) == 0 {
		return nil, fmt.Errorf("%s lists no posts", path)
	}
	return batch.Posts, nil
}
