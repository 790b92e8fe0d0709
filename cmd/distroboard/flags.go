package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jpalmerr/distroboard/config"
	"github.com/jpalmerr/distroboard/credentials"
	"github.com/jpalmerr/distroboard/source"
)

// envPrefix namespaces environment overrides, e.g. DISTROBOARD_PORT.
const envPrefix = "DISTROBOARD"

// newSources builds the remote source factory. Tests replace it.
var newSources = func(cfg *config.Config) source.Factory {
	return source.NewDynamoFactory(source.DynamoConfig{Endpoint: cfg.DynamoDB.Endpoint})
}

// addOverrideFlags registers the flags that override config file values.
func addOverrideFlags(cmd *cobra.Command) {
	fs := cmd.PersistentFlags()
	fs.String("title", "", "dashboard title")
	fs.Int("port", 0, "HTTP port (default 8080)")
	fs.Duration("poll-interval", 0, "time between scans (default 2s)")
	fs.String("credentials-file", "", "where operator credentials are stored")
	fs.String("dynamodb-endpoint", "", "DynamoDB endpoint override, e.g. http://localhost:8000")
	fs.String("timezone", "", "IANA time zone for replication timestamps")
	fs.String("log-level", "", "log level: debug, info, warn or error")
	fs.String("log-file", "", "write logs to this file with rotation")
	fs.Bool("auto-start", false, "start polling on launch with stored credentials")
	fs.Bool("metrics", true, "serve Prometheus metrics on /metrics")
}

// loadConfig reads the config file (if any) and applies environment and
// flag overrides. Flags win over environment, environment over the file.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	cfg := config.Default()
	if path := v.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	applyOverrides(cfg, v)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyOverrides(cfg *config.Config, v *viper.Viper) {
	if v.IsSet("title") {
		cfg.Title = v.GetString("title")
	}
	if v.IsSet("port") {
		cfg.Port = v.GetInt("port")
	}
	if v.IsSet("poll-interval") {
		cfg.PollInterval = config.Duration(v.GetDuration("poll-interval"))
	}
	if v.IsSet("credentials-file") {
		cfg.CredentialsFile = v.GetString("credentials-file")
	}
	if v.IsSet("dynamodb-endpoint") {
		cfg.DynamoDB.Endpoint = v.GetString("dynamodb-endpoint")
	}
	if v.IsSet("timezone") {
		cfg.Display.Timezone = v.GetString("timezone")
	}
	if v.IsSet("log-level") {
		cfg.Log.Level = v.GetString("log-level")
	}
	if v.IsSet("log-file") {
		cfg.Log.File = v.GetString("log-file")
	}
	if v.IsSet("auto-start") {
		cfg.AutoStart = v.GetBool("auto-start")
	}
	if v.IsSet("metrics") {
		enabled := v.GetBool("metrics")
		cfg.Metrics.Enabled = &enabled
	}
}

// credentialStore opens the configured credentials file.
func credentialStore(cfg *config.Config) (*credentials.FileStore, error) {
	path := cfg.CredentialsFile
	if path == "" {
		var err error
		path, err = credentials.DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return credentials.NewFileStore(path), nil
}

// storedCredentials loads complete credentials or explains what is missing.
func storedCredentials(cfg *config.Config) (credentials.Credentials, error) {
	st, err := credentialStore(cfg)
	if err != nil {
		return credentials.Credentials{}, err
	}
	creds, err := st.Load()
	if err != nil {
		return credentials.Credentials{}, err
	}
	if !creds.Complete() {
		return credentials.Credentials{}, fmt.Errorf("no complete credentials in %s; start a session from the dashboard first", st.Path())
	}
	return creds.WithDefaults(), nil
}
