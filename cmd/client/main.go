package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"agent_chat/internal/config"
	"agent_chat/internal/identity"
	identityRepo "agent_chat/internal/repository/identity"
	"agent_chat/internal/service/app"
	"agent_chat/internal/utils/log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

func main() {
	var (
		directURL string
		profile   string
	)

	root := &cobra.Command{
		Use:   "agentchat [agent-address]",
		Short: "Chat with a remote agent over the relay or a direct endpoint",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agentAddress := ""
			if len(args) > 0 {
				agentAddress = args[0]
			}
			return run(agentAddress, directURL, profile)
		},
	}
	root.Flags().StringVar(&directURL, "direct", "", "agent endpoint to dial directly, bypassing the relay")
	root.Flags().StringVar(&profile, "profile", "", "identity profile name (default from PROFILE)")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(agentAddress, directURL, profile string) error {
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if directURL != "" {
		cfg.DirectURL = directURL
	}
	if profile != "" {
		cfg.Profile = profile
	}
	if agentAddress == "" && cfg.DirectURL == "" {
		return fmt.Errorf("an agent address is required in relay mode")
	}

	// The terminal belongs to the UI; logs go to a file.
	fileLogger, err := newFileLogger("agent_chat.log")
	if err != nil {
		return err
	}
	log.ReplaceLogger(fileLogger)

	mongoDBClient, err := initMongo(cfg.MongoURI)
	if err != nil {
		return fmt.Errorf("connect mongo: %w", err)
	}
	db := mongoDBClient.Database(cfg.Database)

	ctx := context.Background()
	repo := identityRepo.NewIdentityRepo(db)
	provider, err := identity.LoadOrGenerate(ctx, repo, cfg.Profile)
	if err != nil {
		return err
	}

	a := app.NewApp(provider, cfg, agentAddress)
	a.Run()
	return nil
}

func initMongo(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	return client, client.Ping(ctx, nil)
}

func newFileLogger(path string) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	return cfg.Build()
}
