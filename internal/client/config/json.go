package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gistkeeper/internal/flagx"
	"github.com/dmitrijs2005/gistkeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Intervals
// use timex.Duration so they can be written as "5m" or as nanoseconds.
// Pointer fields distinguish "absent" from an explicit false or zero.
type JsonConfig struct {
	DatabasePath string `json:"database_path"`
	Backend      string `json:"backend"`

	GistID      string `json:"gist_id"`
	GistToken   string `json:"gist_token"`
	GistAPIBase string `json:"gist_api_base"`

	S3Region       string `json:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`
	S3AccessKey    string `json:"s3_access_key"`
	S3SecretKey    string `json:"s3_secret_key"`
	S3Bucket       string `json:"s3_bucket"`
	S3Prefix       string `json:"s3_prefix"`

	PollInterval    timex.Duration `json:"poll_interval"`
	MinSyncInterval timex.Duration `json:"min_sync_interval"`
	RequestTimeout  timex.Duration `json:"request_timeout"`
	MaxRetries      *int           `json:"max_retries"`
	Equality        string         `json:"equality"`
	AutoSync        *bool          `json:"auto_sync"`
	DeviceID        string         `json:"device_id"`

	LogLevel string `json:"log_level"`
	LogFile  string `json:"log_file"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// The file path comes from -c/-config or the GISTKEEPER_CONFIG environment
// variable (flagx.ConfigPath). Without one, nothing happens. Only fields
// present in the file override cfg. Panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigPath(os.Args[1:])
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}
	jc.apply(cfg)
}

func (jc *JsonConfig) apply(cfg *Config) {
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.Backend, jc.Backend)
	setString(&cfg.GistID, jc.GistID)
	setString(&cfg.GistToken, jc.GistToken)
	setString(&cfg.GistAPIBase, jc.GistAPIBase)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3Prefix, jc.S3Prefix)
	setString(&cfg.Equality, jc.Equality)
	setString(&cfg.DeviceID, jc.DeviceID)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFile, jc.LogFile)

	if jc.PollInterval.Duration != 0 {
		cfg.PollInterval = jc.PollInterval.Duration
	}
	if jc.MinSyncInterval.Duration != 0 {
		cfg.MinSyncInterval = jc.MinSyncInterval.Duration
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.MaxRetries != nil {
		cfg.MaxRetries = *jc.MaxRetries
	}
	if jc.AutoSync != nil {
		cfg.AutoSync = *jc.AutoSync
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
