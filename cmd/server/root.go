package main

import (
	"fmt"
	"log"

	"reading-tree/backend/internal/config"
	"reading-tree/backend/internal/recommender"
	"reading-tree/backend/internal/server"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	port    string
)

var rootCmd = &cobra.Command{
	Use:   "reading-tree",
	Short: "Book recommendation API backed by an LLM",
	Long: `Serves POST /recommend: takes a reading preference prompt, asks the
configured LLM provider (openai or gemini) for books, and returns a
deduplicated list of {title, author, reason}.

Configuration comes from environment variables (OPENAI_API_KEY,
LLM_PROVIDER, ...), an optional .env.local file and an optional config file.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Missing .env.local is fine; real deployments use the environment
		_ = godotenv.Load(".env.local")

		v := viper.New()
		if err := v.BindPFlag("port", cmd.Flags().Lookup("port")); err != nil {
			return err
		}
		cfg, err := config.Load(v, cfgFile)
		if err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		log.Printf("[INFO] Starting reading-tree env=%s provider=%s", cfg.Env, cfg.LLMProvider)

		llmClient, err := server.NewLLMClient(ctx, cfg)
		if err != nil {
			return err
		}
		rec := recommender.New(llmClient, recommender.Options{
			AttemptTimeout: cfg.AttemptTimeout,
			RetryDelay:     cfg.RetryDelay,
		})

		return server.Run(ctx, cfg, server.NewRouter(cfg, rec))
	},
}

func init() {
	rootCmd.Flags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	rootCmd.Flags().StringVar(&port, "port", "8080", "Port to listen on (overrides PORT)")
}
