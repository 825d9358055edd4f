// Package cmd implements the lightspeed command line tool.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	lightspeedbridge "github.com/opengovern/lightspeed-bridge"
	"github.com/opengovern/lightspeed-bridge/credentials"
)

// Execute runs the root command until completion or interrupt.
func Execute(version string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return NewRootCmd(version).ExecuteContext(ctx)
}

// NewRootCmd builds the command tree with its own viper instance.
func NewRootCmd(version string) *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:           "lightspeed",
		Short:         "Call the Lightspeed Retail API with automatic throttling and token refresh",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lightspeedbridge.BindEnv(v)
			if cfgFile := v.GetString("config"); cfgFile != "" {
				v.SetConfigFile(cfgFile)
				if err := v.ReadInConfig(); err != nil {
					return fmt.Errorf("read config %s: %w", cfgFile, err)
				}
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (yaml, json or toml)")
	flags.BoolP("verbose", "v", false, "log decoded payloads and throttle retries")
	flags.String("base-url", lightspeedbridge.DefaultBaseURL, "API base URL")
	flags.String("account-id", "", "account ID used by --account paths")
	flags.Int("max-throttle-retries", 0, "give up after this many throttled retries (0 = unlimited)")
	flags.Duration("max-throttle-wait", 0, "give up once throttle waits would exceed this total (0 = unlimited)")

	_ = v.BindPFlag("config", flags.Lookup("config"))
	_ = v.BindPFlag("verbose", flags.Lookup("verbose"))
	_ = v.BindPFlag("base_url", flags.Lookup("base-url"))
	_ = v.BindPFlag("account_id", flags.Lookup("account-id"))
	_ = v.BindPFlag("max_throttle_retries", flags.Lookup("max-throttle-retries"))
	_ = v.BindPFlag("max_throttle_wait", flags.Lookup("max-throttle-wait"))

	for _, m := range []lightspeedbridge.Method{
		lightspeedbridge.MethodGet,
		lightspeedbridge.MethodPost,
		lightspeedbridge.MethodPut,
		lightspeedbridge.MethodDelete,
	} {
		root.AddCommand(newRequestCmd(v, m))
	}
	root.AddCommand(newRequestCmd(v, ""))
	root.AddCommand(newRateLimitCmd(v))
	return root
}

// newClient builds a Client from viper settings. A refresh token plus client ID
// selects the OAuth2 provider, a bare access token a static one.
func newClient(v *viper.Viper) (*lightspeedbridge.Client, *lightspeedbridge.Settings, error) {
	settings, err := lightspeedbridge.LoadConfig(v)
	if err != nil {
		return nil, nil, err
	}

	logger := zap.NewNop()
	if settings.Config.Verbose {
		logger, err = zap.NewDevelopment()
		if err != nil {
			return nil, nil, fmt.Errorf("init logger: %w", err)
		}
	}
	settings.Config.Logger = logger

	var creds lightspeedbridge.CredentialProvider
	switch {
	case settings.RefreshToken != "" && settings.ClientID != "":
		creds, err = credentials.NewOAuth2(credentials.OAuth2Config{
			ClientID:     settings.ClientID,
			ClientSecret: settings.ClientSecret,
			TokenURL:     settings.TokenURL,
			RefreshToken: settings.RefreshToken,
			AccessToken:  settings.AccessToken,
			Logger:       logger,
		})
		if err != nil {
			return nil, nil, err
		}
	case settings.AccessToken != "":
		creds = credentials.NewStatic(settings.AccessToken)
	}

	client, err := lightspeedbridge.NewClient(creds, settings.Config)
	if err != nil {
		return nil, nil, err
	}
	return client, settings, nil
}

// ExitCode maps a failure to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return 130
	case errors.Is(err, lightspeedbridge.ErrUnauthorized), errors.Is(err, lightspeedbridge.ErrNotAuthorized):
		return 3
	case errors.Is(err, lightspeedbridge.ErrNotFound):
		return 4
	case errors.Is(err, lightspeedbridge.ErrThrottled):
		return 5
	case errors.Is(err, lightspeedbridge.ErrTransport):
		return 6
	default:
		return 1
	}
}
