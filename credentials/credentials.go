// Package credentials persists the operator-entered connection settings for
// DistroBoard between runs.
//
// Four strings are stored: the clustered video stream name (which is also the
// name of the remote table), an access key id, a secret access key and the SDK
// region. Two [Store] implementations are provided:
//
//   - [FileStore]: YAML file on disk, written atomically with mode 0600
//   - [MemoryStore]: in-process store for tests and embedding
package credentials

import (
	"log/slog"
)

// DefaultRegion is used when no region was entered.
const DefaultRegion = "us-east-1"

// Credentials holds the connection settings entered by the operator.
//
// The YAML keys match the field names persisted by earlier releases of the
// dashboard, so existing credential files keep loading.
type Credentials struct {
	// StreamName identifies the clustered video stream. It doubles as the
	// name of the table that is scanned on every poll.
	StreamName string `yaml:"clustered_video_stream_name" json:"stream_name"`

	AccessKeyID     string `yaml:"access_key_id" json:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key" json:"secret_access_key"`

	// Region is the SDK region. Empty means [DefaultRegion].
	Region string `yaml:"sdk_region" json:"region"`
}

// Complete reports whether the three fields needed to reach the remote
// table are present. Region is not required since it has a default.
func (c Credentials) Complete() bool {
	return c.StreamName != "" && c.AccessKeyID != "" && c.SecretAccessKey != ""
}

// WithDefaults returns a copy with an empty region replaced by [DefaultRegion].
func (c Credentials) WithDefaults() Credentials {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	return c
}

// Masked returns a copy with the secret access key removed.
func (c Credentials) Masked() Credentials {
	c.SecretAccessKey = ""
	return c
}

// LogValue implements slog.LogValuer so the secret never reaches a log line.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("stream_name", c.StreamName),
		slog.String("access_key_id", c.AccessKeyID),
		slog.Bool("has_secret", c.SecretAccessKey != ""),
		slog.String("region", c.Region),
	)
}

// Store loads and saves [Credentials].
//
// Load on a store that has never been written returns zero Credentials and a
// nil error.
type Store interface {
	Load() (Credentials, error)
	Save(Credentials) error
}
