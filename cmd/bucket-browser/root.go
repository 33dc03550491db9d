package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/SaiNageswarS/go-bucket-browser/async"
	"github.com/SaiNageswarS/go-bucket-browser/auth"
	"github.com/SaiNageswarS/go-bucket-browser/browser"
	"github.com/SaiNageswarS/go-bucket-browser/cloud"
	"github.com/SaiNageswarS/go-bucket-browser/config"
	"github.com/SaiNageswarS/go-bucket-browser/controller"
	"github.com/SaiNageswarS/go-bucket-browser/dotenv"
	"github.com/SaiNageswarS/go-bucket-browser/logger"
	"github.com/SaiNageswarS/go-bucket-browser/server"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const signConcurrency = 8

// swapped in tests
var (
	newCloud        = cloud.Provide
	newSecretLoader = secretLoaderFor
	serveFn         = serve
)

type rootFlags struct {
	configPath string
	envFile    string
}

func NewRoot() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:           "bucket-browser",
		Short:         "Browse object storage folders and hand out temporary download links",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "INI config file; the section is picked by ENV")
	rootCmd.PersistentFlags().StringVar(&flags.envFile, "env-file", "", "dotenv file to load before reading config (default .env if present)")

	rootCmd.AddCommand(
		newLsCmd(flags),
		newSignCmd(flags),
		newServeCmd(flags),
		newTokenCmd(flags),
	)
	return rootCmd
}

func newLsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "ls BUCKET [FOLDER]",
		Short: "List files directly under a folder, one per line",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, _, err := newBrowser(flags)
			if err != nil {
				return err
			}

			folder := ""
			if len(args) == 2 {
				folder = args[1]
			}

			files, err := b.ListFilesInFolder(cmd.Context(), args[0], folder)
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return nil
		},
	}
}

func newSignCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sign BUCKET KEY...",
		Short: "Print a temporary read URL per object, in argument order",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, _, err := newBrowser(flags)
			if err != nil {
				return err
			}

			bucket := args[0]
			urls, err := async.Map(args[1:], signConcurrency, func(key string) (string, error) {
				return b.GenerateSignedUrl(cmd.Context(), bucket, key)
			})
			if err != nil {
				return err
			}
			for _, u := range urls {
				fmt.Fprintln(cmd.OutOrStdout(), u)
			}
			return nil
		},
	}
}

func newServeCmd(flags *rootFlags) *cobra.Command {
	var loadSecrets bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			if loadSecrets {
				if cfg, err = loadSecretsAndReload(cmd.Context(), flags, cfg); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serveFn(ctx, cfg)
		},
	}
	cmd.Flags().BoolVar(&loadSecrets, "load-secrets", false, "copy the provider's secret store into the environment first")
	return cmd
}

func newTokenCmd(flags *rootFlags) *cobra.Command {
	var userType string
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token TENANT USER",
		Short: "Issue an API token signed with ACCESS_SECRET",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			if ttl == 0 {
				ttl = time.Duration(cfg.TokenTtlSeconds) * time.Second
			}

			token, err := auth.GetToken(cfg.AccessSecret, args[0], args[1], userType, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userType, "type", "viewer", "user type claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default token_ttl_seconds from config)")
	return cmd
}

func loadConfig(flags *rootFlags) (*config.BrowserConfig, error) {
	var err error
	if flags.envFile != "" {
		err = dotenv.LoadEnv(flags.envFile)
	} else {
		err = dotenv.LoadEnv()
	}
	if err != nil {
		logger.Error("Failed loading env file", zap.String("path", flags.envFile), zap.Error(err))
		return nil, err
	}

	cfg, err := config.LoadBrowserConfig(flags.configPath)
	if err != nil {
		logger.Error("Failed loading config", zap.String("path", flags.configPath), zap.Error(err))
		return nil, err
	}
	return cfg, nil
}

func newBrowser(flags *rootFlags) (*browser.Browser, *config.BrowserConfig, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, nil, err
	}

	c, err := newCloud(cfg)
	if err != nil {
		logger.Error("Failed creating cloud client", zap.Error(err))
		return nil, nil, err
	}
	return browser.New(cfg, c), cfg, nil
}

func secretLoaderFor(cfg *config.BrowserConfig) (cloud.SecretLoader, error) {
	switch cfg.CloudProvider {
	case config.ProviderAzure:
		return cloud.ProvideAzure(cfg), nil
	case config.ProviderGCP:
		return cloud.ProvideGCP(cfg), nil
	default:
		return nil, fmt.Errorf("provider %q has no secret store", cfg.CloudProvider)
	}
}

// loadSecretsAndReload copies provider secrets into the environment, retrying
// transient failures, then re-reads config so the secrets take effect.
func loadSecretsAndReload(ctx context.Context, flags *rootFlags, cfg *config.BrowserConfig) (*config.BrowserConfig, error) {
	loader, err := newSecretLoader(cfg)
	if err != nil {
		logger.Error("Failed loading secrets", zap.Error(err))
		return nil, err
	}

	err = server.RetryWithExponentialBackoff(ctx, 3, time.Second, func() error {
		return loader.LoadSecretsIntoEnv(ctx)
	})
	if err != nil {
		logger.Error("Failed loading secrets", zap.Error(err))
		return nil, err
	}

	return loadConfig(flags)
}

func serve(ctx context.Context, cfg *config.BrowserConfig) error {
	srv, err := server.New().
		HTTPPort(cfg.HttpPort).
		CORS(cors.New(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{"GET"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
		})).
		RateLimit(cfg.RequestsPerSecond, cfg.RequestBurst).
		Authenticate(auth.VerifyTokenHttpMiddleware(cfg.AccessSecret)).
		Provide(cfg).
		ProvideFunc(newCloud).
		ProvideFunc(browser.New).
		RegisterController(controller.ProvideBrowserController).
		Build()
	if err != nil {
		logger.Error("Failed building server", zap.Error(err))
		return err
	}

	return srv.Serve(ctx)
}
