package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"

	MediaProviderCloudinary = "cloudinary"
	MediaProviderMinIO      = "minio"
)

// DatabaseConfig holds PostgreSQL database connection settings.
// URL, when set, takes precedence over the individual components.
type DatabaseConfig struct {
	URL                string
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// CloudinaryConfig holds media host credentials.
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

// MediaConfig describes where uploaded images go and how they are shaped.
type MediaConfig struct {
	Provider       string
	Folder         string
	MaxWidth       int
	MaxHeight      int
	MaxUploadBytes int64
	PublicBaseURL  string
	Cloudinary     CloudinaryConfig
}

// ContentConfig names the languages the title and content maps are keyed by.
type ContentConfig struct {
	PrimaryLanguage   string
	SecondaryLanguage string
}

// TranslationConfig holds the external translation service endpoint and key.
type TranslationConfig struct {
	APIURL string
	APIKey string
}

// TracingConfig mirrors the standard OTEL_* variables the tracer setup reads.
type TracingConfig struct {
	Disabled    bool
	ServiceName string
	Protocol    string
	Endpoint    string
	Sampler     string
	SamplerArg  string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	AppHost     string
	Port        string
	Timezone    string
	StoreDriver string
	Database    DatabaseConfig
	Mongo       MongoConfig
	MinIO       MinIOConfig
	Media       MediaConfig
	Content     ContentConfig
	Translation TranslationConfig
	Tracing     TracingConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		AppHost:     getEnv("APP_HOST", "localhost:8080"),
		Port:        getEnv("PORT", "8080"),
		Timezone:    getEnv("APP_TIMEZONE", "UTC"),
		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		Database: DatabaseConfig{
			URL:                getEnv("DATABASE_URL", ""),
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		Mongo: MongoConfig{
			URI:        getEnv("MONGODB_URI", ""),
			Database:   getEnv("MONGODB_DATABASE", "blog"),
			Collection: getEnv("MONGODB_COLLECTION", "blogs"),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		Media: MediaConfig{
			Provider:       strings.ToLower(getEnv("MEDIA_PROVIDER", MediaProviderCloudinary)),
			Folder:         getEnv("MEDIA_FOLDER", "blogs"),
			MaxWidth:       getEnvInt("MEDIA_MAX_WIDTH", 800),
			MaxHeight:      getEnvInt("MEDIA_MAX_HEIGHT", 600),
			MaxUploadBytes: getEnvInt64("MEDIA_MAX_UPLOAD_BYTES", 50<<20),
			PublicBaseURL:  strings.TrimRight(getEnv("MEDIA_PUBLIC_BASE_URL", "http://localhost:8080/media"), "/"),
			Cloudinary: CloudinaryConfig{
				CloudName: getEnv("CLOUDINARY_CLOUD_NAME", ""),
				APIKey:    getEnv("CLOUDINARY_API_KEY", ""),
				APISecret: getEnv("CLOUDINARY_API_SECRET", ""),
			},
		},
		Content: ContentConfig{
			PrimaryLanguage:   strings.ToLower(getEnv("CONTENT_PRIMARY_LANG", "pl")),
			SecondaryLanguage: strings.ToLower(getEnv("CONTENT_SECONDARY_LANG", "en")),
		},
		Translation: TranslationConfig{
			APIURL: getEnv("TRANSLATION_API_URL", "https://api-free.deepl.com/v2/translate"),
			APIKey: getEnv("TRANSLATION_API_KEY", ""),
		},
		Tracing: TracingConfig{
			Disabled:    getEnvBool("OTEL_SDK_DISABLED", false),
			ServiceName: getEnv("OTEL_SERVICE_NAME", "blogapi"),
			Protocol:    getEnv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"),
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "")),
			Sampler:     getEnv("OTEL_TRACES_SAMPLER", "parentbased_traceidratio"),
			SamplerArg:  getEnv("OTEL_TRACES_SAMPLER_ARG", "1.0"),
		},
	}
}

// Location resolves Timezone, falling back to UTC when it is unknown.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Validate reports every setting the selected store and media provider need but lack.
// The translation key is not checked: the service starts without it and the
// translate route fails per request.
func (c *AppConfig) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.Database.URL == "" && (c.Database.Host == "" || c.Database.User == "" || c.Database.Name == "") {
			errs = append(errs, errors.New("postgres store requires DATABASE_URL or DB_HOST, DB_USER and DB_NAME"))
		}
	case StoreDriverMongo:
		if c.Mongo.URI == "" {
			errs = append(errs, errors.New("mongo store requires MONGODB_URI"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	switch c.Media.Provider {
	case MediaProviderCloudinary:
		cl := c.Media.Cloudinary
		if cl.CloudName == "" || cl.APIKey == "" || cl.APISecret == "" {
			errs = append(errs, errors.New("cloudinary media requires CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET"))
		}
	case MediaProviderMinIO:
		if c.MinIO.Endpoint == "" || c.MinIO.Bucket == "" {
			errs = append(errs, errors.New("minio media requires MINIO_ENDPOINT and MINIO_BUCKET"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown MEDIA_PROVIDER %q", c.Media.Provider))
	}

	if c.Media.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("MEDIA_MAX_UPLOAD_BYTES must be positive"))
	}
	if c.Content.PrimaryLanguage == "" {
		errs = append(errs, errors.New("CONTENT_PRIMARY_LANG must not be empty"))
	}
	if c.Content.SecondaryLanguage == "" {
		errs = append(errs, errors.New("CONTENT_SECONDARY_LANG must not be empty"))
	} else if strings.EqualFold(c.Content.PrimaryLanguage, c.Content.SecondaryLanguage) {
		errs = append(errs, fmt.Errorf("CONTENT_PRIMARY_LANG and CONTENT_SECONDARY_LANG must differ, both are %q", c.Content.PrimaryLanguage))
	}

	return errors.Join(errs...)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.ParseInt(v, 10, 64)
		if err == nil {
			return i
		}
	}
	return def
}
