package config

import "github.com/legalize/backoffice/internal/flagx"

// parseEnv overlays values from the environment. Mains load .env first, so
// the same names work from a file.
func parseEnv(config *Config) {
	flagx.EnvString(&config.EndpointAddrHTTP, "HTTP_ADDR")
	flagx.EnvString(&config.EndpointAddrGRPC, "GRPC_ADDR")
	flagx.EnvString(&config.APISecret, "API_SECRET")
	flagx.EnvString(&config.DatabaseDSN, "DATABASE_DSN")
	flagx.EnvList(&config.FernetKeys, "FERNET_KEYS")
	flagx.EnvString(&config.S3RootUser, "S3_ROOT_USER")
	flagx.EnvString(&config.S3RootPassword, "S3_ROOT_PASSWORD")
	flagx.EnvString(&config.S3Bucket, "S3_BUCKET")
	flagx.EnvString(&config.S3Region, "S3_REGION")
	flagx.EnvString(&config.S3BaseEndpoint, "S3_BASE_ENDPOINT")
	flagx.EnvString(&config.SMTPHost, "SMTP_HOST")
	flagx.EnvInt(&config.SMTPPort, "SMTP_PORT")
	flagx.EnvString(&config.SMTPUser, "SMTP_USER")
	flagx.EnvString(&config.SMTPPassword, "SMTP_PASSWORD")
	flagx.EnvString(&config.SMTPFrom, "DEFAULT_FROM_EMAIL")
	flagx.EnvString(&config.SMTPReplyTo, "REPLY_TO_EMAIL")
	flagx.EnvString(&config.DefaultLanguage, "DEFAULT_LANGUAGE")
	flagx.EnvString(&config.InpolEmail, "INPOL_EMAIL")
	flagx.EnvString(&config.InpolPassword, "INPOL_PASSWORD")
	flagx.EnvString(&config.InpolBaseURL, "INPOL_BASE_URL")
	flagx.EnvDuration(&config.InpolTimeout, "INPOL_TIMEOUT")
	flagx.EnvString(&config.InpolPollCron, "INPOL_POLL_CRON")
	flagx.EnvString(&config.ReminderCron, "REMINDER_CRON")
	flagx.EnvString(&config.NBPURL, "NBP_URL")
	flagx.EnvDuration(&config.NBPTimeout, "NBP_TIMEOUT")
	flagx.EnvDuration(&config.FXTTL, "FX_TTL")
	flagx.EnvString(&config.FXFallback, "FX_FALLBACK")
	flagx.EnvString(&config.RedisAddr, "REDIS_ADDR")
	flagx.EnvString(&config.TesseractPath, "TESSERACT_PATH")
	flagx.EnvString(&config.PdftoppmPath, "PDFTOPPM_PATH")
	flagx.EnvString(&config.LogBackend, "LOG_BACKEND")
	flagx.EnvString(&config.LogLevel, "LOG_LEVEL")
	flagx.EnvString(&config.LogFormat, "LOG_FORMAT")
}
