package config

import (
	"encoding/json"
	"os"

	"github.com/legalize/backoffice/internal/timex"
)

// JsonConfig is the on-disk shape of the configuration file. Durations
// accept "15s" strings or integer nanoseconds.
type JsonConfig struct {
	EndpointAddrHTTP string         `json:"endpoint_addr_http"`
	EndpointAddrGRPC string         `json:"endpoint_addr_grpc"`
	APISecret        string         `json:"api_secret"`
	DatabaseDSN      string         `json:"database_dsn"`
	FernetKeys       []string       `json:"fernet_keys"`
	S3RootUser       string         `json:"s3_root_user"`
	S3RootPassword   string         `json:"s3_root_password"`
	S3Bucket         string         `json:"s3_bucket"`
	S3Region         string         `json:"s3_region"`
	S3BaseEndpoint   string         `json:"s3_base_endpoint"`
	SMTPHost         string         `json:"smtp_host"`
	SMTPPort         int            `json:"smtp_port"`
	SMTPUser         string         `json:"smtp_user"`
	SMTPPassword     string         `json:"smtp_password"`
	SMTPFrom         string         `json:"smtp_from"`
	SMTPReplyTo      string         `json:"smtp_reply_to"`
	DefaultLanguage  string         `json:"default_language"`
	InpolEmail       string         `json:"inpol_email"`
	InpolPassword    string         `json:"inpol_password"`
	InpolBaseURL     string         `json:"inpol_base_url"`
	InpolTimeout     timex.Duration `json:"inpol_timeout"`
	InpolPollCron    string         `json:"inpol_poll_cron"`
	ReminderCron     string         `json:"reminder_cron"`
	NBPURL           string         `json:"nbp_url"`
	NBPTimeout       timex.Duration `json:"nbp_timeout"`
	FXTTL            timex.Duration `json:"fx_ttl"`
	FXFallback       string         `json:"fx_fallback"`
	RedisAddr        string         `json:"redis_addr"`
	TesseractPath    string         `json:"tesseract_path"`
	PdftoppmPath     string         `json:"pdftoppm_path"`
	LogBackend       string         `json:"log_backend"`
	LogLevel         string         `json:"log_level"`
	LogFormat        string         `json:"log_format"`
}

// parseJson loads the file named by -c/-config, if any, and copies every
// field present in it over config. A file that cannot be read or parsed
// panics.
func parseJson(config *Config) {
	jsonConfigFile := jsonConfigPath()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	if len(c.FernetKeys) > 0 {
		config.FernetKeys = c.FernetKeys
	}
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.SMTPHost, c.SMTPHost)
	if c.SMTPPort != 0 {
		config.SMTPPort = c.SMTPPort
	}
	setString(&config.APISecret, c.APISecret)
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.SMTPFrom, c.SMTPFrom)
	setString(&config.SMTPReplyTo, c.SMTPReplyTo)
	setString(&config.DefaultLanguage, c.DefaultLanguage)
	setString(&config.InpolEmail, c.InpolEmail)
	setString(&config.InpolPassword, c.InpolPassword)
	setString(&config.InpolBaseURL, c.InpolBaseURL)
	if c.InpolTimeout.Duration != 0 {
		config.InpolTimeout = c.InpolTimeout.Duration
	}
	setString(&config.InpolPollCron, c.InpolPollCron)
	setString(&config.ReminderCron, c.ReminderCron)
	setString(&config.NBPURL, c.NBPURL)
	if c.NBPTimeout.Duration != 0 {
		config.NBPTimeout = c.NBPTimeout.Duration
	}
	if c.FXTTL.Duration != 0 {
		config.FXTTL = c.FXTTL.Duration
	}
	setString(&config.FXFallback, c.FXFallback)
	setString(&config.RedisAddr, c.RedisAddr)
	setString(&config.TesseractPath, c.TesseractPath)
	setString(&config.PdftoppmPath, c.PdftoppmPath)
	setString(&config.LogBackend, c.LogBackend)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
