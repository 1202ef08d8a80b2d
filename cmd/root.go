package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/truemediaorg/tiktokpost/config"
	"github.com/truemediaorg/tiktokpost/database"
	"github.com/truemediaorg/tiktokpost/service"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "tiktokpost",
	Short: "tiktokpost posts videos to TikTok on behalf of a host application",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("No subcommand given")
		cmd.Usage()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Exit with a nonzero exit code if the command fails with an error
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func configureLogging(cfg config.Config) {
	log.SetLevel(cfg.LogLevel)
	switch cfg.LogFormat {
	case config.LogFormatJSON:
		log.SetFormatter(&log.JSONFormatter{})
	default:
		log.SetFormatter(&log.TextFormatter{})
	}
	if cfg.TestModeEnabled {
		log.Info("TEST MODE ENABLED")
	}
}

// newSecretGetter returns nil when nothing has to be read from Secrets Manager.
func newSecretGetter(ctx context.Context, cfg config.Config) service.SecretGetter {
	if !cfg.NeedsSecretsManager() {
		return nil
	}
	awsConfig, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Fatal(err)
	}
	return secretsmanager.NewFromConfig(awsConfig)
}

// openPublishLog connects to the publish log, or returns nil when it isn't configured.
func openPublishLog(ctx context.Context, cfg config.Config, secrets service.SecretGetter) *database.Database {
	if !cfg.PublishLogEnabled() {
		return nil
	}
	databaseURL, err := service.ResolvePostgresURL(ctx, cfg, secrets)
	if err != nil {
		log.Fatalf("error reading postgres config: %v", err)
	}
	db := database.NewDatabase(databaseURL)
	if err := db.Connect(ctx); err != nil {
		log.Fatalf("error connecting to database: %v", err)
	}
	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("error migrating database: %v", err)
	}
	return db
}

// setup does the work shared by every command: config, logging, secrets, the
// optional publish log and the service. Callers must Disconnect a non-nil db.
func setup(ctx context.Context) (config.Config, *service.TikTokService, *database.Database) {
	cfg := config.FromEnvfile()
	configureLogging(cfg)

	secrets := newSecretGetter(ctx, cfg)
	db := openPublishLog(ctx, cfg, secrets)

	var recorder service.PostRecorder
	if db != nil {
		recorder = db
	}
	tiktokService, err := service.NewTikTokService(ctx, cfg, secrets, recorder)
	if err != nil {
		log.Fatalf("error creating TikTok service: %v", err)
	}
	return cfg, tiktokService, db
}

type disconnector interface {
	Disconnect()
}

// exit is replaced in tests.
var exit = os.Exit

// exitWithFailure disconnects the publish log and exits with status 1.
// Deferred calls do not run on os.Exit, so the disconnect has to happen here.
func exitWithFailure(db disconnector) {
	db.Disconnect()
	exit(1)
}

func printJSON(w io.Writer, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("error writing output: %v", err)
	}
}
