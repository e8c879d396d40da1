package config

import (
	"time"
)

type AppConfig struct {
	APIPort   string `env:"PORT,required" envDefault:"12222"`
	APIKey    string `env:"API_KEY,required"`
	PublicURL string `env:"PUBLIC_URL" envDefault:"http://localhost:12222"`
	// URL of the form host; probed at startup to surface an admin notice when it is down
	FormHostURL string `env:"FORM_HOST_URL"`
	RabbitMQURL string `env:"RABBITMQ_URL"`
}

type DataLayerConfig struct {
	KeyPrefix        string        `env:"DATALAYER_KEY_PREFIX" envDefault:"wpforms_datalayer"`
	SubmissionPrefix string        `env:"DATALAYER_SUBMISSION_PREFIX" envDefault:"wpforms"`
	DefaultEventName string        `env:"DATALAYER_DEFAULT_EVENT" envDefault:"wpforms_submission"`
	RecordTTL        time.Duration `env:"DATALAYER_RECORD_TTL" envDefault:"5m"`
	FallbackDelay    time.Duration `env:"DATALAYER_FALLBACK_DELAY" envDefault:"2s"`
	AjaxURLPatterns  []string      `env:"DATALAYER_AJAX_URL_PATTERNS" envDefault:"wp-admin/admin-ajax.php,wpforms/submit"`
	// Host AJAX endpoint exposed to the browser listener as formLayer.ajaxurl
	AjaxURL string `env:"DATALAYER_AJAX_URL"`
	// Server-side listener dedup window
	DedupTTL  time.Duration `env:"DATALAYER_DEDUP_TTL" envDefault:"1h"`
	DedupSize int           `env:"DATALAYER_DEDUP_SIZE" envDefault:"10000"`
}

type DatabaseConfig struct {
	Host            string `env:"FORMLAYER_POSTGRES_HOST,required"`
	Port            string `env:"FORMLAYER_POSTGRES_PORT,required"`
	User            string `env:"FORMLAYER_POSTGRES_USER,required"`
	DBName          string `env:"FORMLAYER_POSTGRES_DB_NAME,required"`
	Password        string `env:"FORMLAYER_POSTGRES_PASSWORD,required"`
	MaxConn         int    `env:"FORMLAYER_POSTGRES_DB_MAX_CONN" envDefault:"25"`
	MaxIdleConn     int    `env:"FORMLAYER_POSTGRES_DB_MAX_IDLE_CONN" envDefault:"10"`
	ConnMaxLifetime int    `env:"FORMLAYER_POSTGRES_DB_CONN_MAX_LIFETIME" envDefault:"60"`
	LogLevel        string `env:"FORMLAYER_POSTGRES_LOG_LEVEL" envDefault:"WARN"`
	SSLMode         string `env:"FORMLAYER_POSTGRES_SSL_MODE" envDefault:"require"`
}

// R2StorageConfig is optional; debug payloads are archived only when AccountID is set.
type R2StorageConfig struct {
	AccountID       string `env:"CLOUDFLARE_R2_ACCOUNT_ID"`
	AccessKeyID     string `env:"CLOUDFLARE_R2_ACCESS_KEY_ID"`
	AccessKeySecret string `env:"CLOUDFLARE_R2_ACCESS_KEY_SECRET"`
	DebugBucket     string `env:"BUCKET_NAME_DATALAYER_DEBUG" envDefault:"datalayer-debug"`
}

func (c *R2StorageConfig) Enabled() bool {
	return c != nil && c.AccountID != "" && c.AccessKeyID != "" && c.AccessKeySecret != ""
}

type KubernetesConfig struct {
	PodName   string `env:"POD_NAME" envDefault:"local"`
	Namespace string `env:"POD_NAMESPACE" envDefault:"default"`
	LocalDev  bool   `env:"LOCAL_DEV" envDefault:"false"`
}
