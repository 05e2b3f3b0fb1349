package config

type AppConfig struct {
	APIPort     string `env:"PORT,required" envDefault:"11000"`
	APIKey      string `env:"API_KEY,required"`
	RabbitMQURL string `env:"RABBITMQ_URL"`
}

type DatabaseConfig struct {
	Host            string `env:"DOMAINOPS_POSTGRES_HOST,required"`
	Port            string `env:"DOMAINOPS_POSTGRES_PORT,required"`
	User            string `env:"DOMAINOPS_POSTGRES_USER,required"`
	DBName          string `env:"DOMAINOPS_POSTGRES_DB_NAME,required"`
	Password        string `env:"DOMAINOPS_POSTGRES_PASSWORD,required"`
	MaxConn         int    `env:"DOMAINOPS_POSTGRES_DB_MAX_CONN" envDefault:"50"`
	MaxIdleConn     int    `env:"DOMAINOPS_POSTGRES_DB_MAX_IDLE_CONN" envDefault:"10"`
	ConnMaxLifetime int    `env:"DOMAINOPS_POSTGRES_DB_CONN_MAX_LIFETIME" envDefault:"60"`
	LogLevel        string `env:"DOMAINOPS_POSTGRES_LOG_LEVEL" envDefault:"WARN"`
	SSLMode         string `env:"DOMAINOPS_POSTGRES_SSL_MODE" envDefault:"require"`
}

type DomainConfig struct {
	// TLD accepted for AI-generated candidates, without the leading dot.
	TLD string `env:"DOMAINOPS_TLD" envDefault:"online"`
	// MaxAttempts bounds the per-slot candidate retry loop.
	MaxAttempts int `env:"DOMAINOPS_MAX_ATTEMPTS" envDefault:"10"`
	// RetryBackoffSeconds is the fixed delay between candidate attempts.
	RetryBackoffSeconds int `env:"DOMAINOPS_RETRY_BACKOFF_SECONDS" envDefault:"2"`
	// HostingIP, when set, is targeted by a proxied A record after zone
	// creation.
	HostingIP string `env:"DOMAINOPS_HOSTING_IP"`
	// SessionMaxAgeMinutes bounds how long a purchase session may stay in
	// the in-memory registry before the sweep evicts it.
	SessionMaxAgeMinutes int `env:"DOMAINOPS_SESSION_MAX_AGE_MINUTES" envDefault:"60"`
	// NotificationLanguage, when set, is the target language for
	// user-facing failure reasons. Empty keeps them in English.
	NotificationLanguage string `env:"DOMAINOPS_NOTIFICATION_LANGUAGE"`
}

type NamecheapConfig struct {
	Url                   string  `env:"NAMECHEAP_URL" envDefault:"https://api.namecheap.com/xml.response" validate:"required"`
	ApiKey                string  `env:"NAMECHEAP_API_KEY"`
	ApiUser               string  `env:"NAMECHEAP_API_USER"`
	ApiUsername           string  `env:"NAMECHEAP_API_USERNAME"`
	ApiClientIp           string  `env:"NAMECHEAP_API_CLIENT_IP"`
	MaxPrice              float64 `env:"NAMECHEAP_MAX_PRICE" envDefault:"20.0"`
	Years                 int     `env:"NAMECHEAP_YEARS" envDefault:"1"`
	RegistrantFirstName   string  `env:"NAMECHEAP_REGISTRANT_FIRST_NAME"`
	RegistrantLastName    string  `env:"NAMECHEAP_REGISTRANT_LAST_NAME"`
	RegistrantCompanyName string  `env:"NAMECHEAP_REGISTRANT_COMPANY_NAME"`
	RegistrantJobTitle    string  `env:"NAMECHEAP_REGISTRANT_JOB_TITLE"`
	RegistrantAddress1    string  `env:"NAMECHEAP_REGISTRANT_ADDRESS1"`
	RegistrantCity        string  `env:"NAMECHEAP_REGISTRANT_CITY"`
	RegistrantState       string  `env:"NAMECHEAP_REGISTRANT_STATE"`
	RegistrantZIP         string  `env:"NAMECHEAP_REGISTRANT_ZIP"`
	RegistrantCountry     string  `env:"NAMECHEAP_REGISTRANT_COUNTRY"`
	RegistrantPhoneNumber string  `env:"NAMECHEAP_REGISTRANT_PHONE_NUMBER"`
	RegistrantEmail       string  `env:"NAMECHEAP_REGISTRANT_EMAIL"`
}

type CloudflareConfig struct {
	Url    string `env:"CLOUDFLARE_URL" envDefault:"https://api.cloudflare.com/client/v4" validate:"required"`
	ApiKey string `env:"CLOUDFLARE_API_KEY"`
	Email  string `env:"CLOUDFLARE_API_EMAIL"`
}

type CPanelConfig struct {
	Host            string `env:"CPANEL_HOST"`
	Port            string `env:"CPANEL_PORT" envDefault:"2087"`
	Username        string `env:"CPANEL_USERNAME"`
	APIToken        string `env:"CPANEL_API_TOKEN"`
	Package         string `env:"CPANEL_PACKAGE" envDefault:"default"`
	WPAdminUser     string `env:"CPANEL_WP_ADMIN_USER" envDefault:"admin"`
	WPAdminPassword string `env:"CPANEL_WP_ADMIN_PASSWORD"`
	WPAdminEmail    string `env:"CPANEL_WP_ADMIN_EMAIL"`
}

type OpenAIConfig struct {
	Url    string `env:"OPENAI_URL" envDefault:"https://api.openai.com/v1" validate:"required"`
	ApiKey string `env:"OPENAI_API_KEY"`
	Model  string `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
}
