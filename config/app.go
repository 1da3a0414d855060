package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/portfolio-site/backend/errs"
)

// App is the typed view of the environment the binary runs with.
type App struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	AcceptedOrigins []string

	LogLevel  string
	LogFormat string

	Database Database
	Auth     Auth
	Assets   Assets
	Blog     Blog
}

type Database struct {
	Type        string // supa, postgres or sqlite
	Host        string
	User        string
	Password    string
	Name        string
	DBPort      string
	SSLMode     string
	SQLitePath  string
	ReplicaDSNs []string
}

type Auth struct {
	JWTSecret string
	JWTIssuer string
	TokenTTL  time.Duration
}

type Assets struct {
	Backend         string // local or s3
	UploadDir       string
	PublicBaseURL   string
	S3Bucket        string
	S3Region        string
	S3Prefix        string
	S3PublicBaseURL string
	UploadAttempts  int
	RetryDelay      time.Duration
	MaxImageBytes   int64
}

type Blog struct {
	DefaultAuthor    string
	SanitizeHTML     bool
	ExcerptWordLimit int
}

// Load reads every setting from c, applying defaults.
func Load(c map[string]string) App {
	dbType := strings.ToLower(GetString(c, "DB_TYPE", "sqlite"))

	db := Database{
		Type:        dbType,
		SQLitePath:  GetString(c, "SQLITE_PATH", "portfolio.db"),
		SSLMode:     GetString(c, "DB_SSLMODE", "disable"),
		ReplicaDSNs: GetList(c, "DB_REPLICA_DSNS"),
	}
	switch dbType {
	case "supa":
		db.Host = GetString(c, "SUPABASE_DB_HOST", "")
		db.User = GetString(c, "SUPABASE_DB_USER", "")
		db.Password = GetString(c, "SUPABASE_DB_PASSWORD", "")
		db.Name = GetString(c, "SUPABASE_DB_NAME", "")
		db.DBPort = GetString(c, "SUPABASE_DB_PORT", "5432")
		db.SSLMode = "require"
	default:
		db.Host = GetString(c, "DB_HOST", "localhost")
		db.User = GetString(c, "DB_USER", "postgres")
		db.Password = GetString(c, "DB_PASSWORD", "")
		db.Name = GetString(c, "DB_NAME", "portfolio")
		db.DBPort = GetString(c, "DB_PORT", "5432")
	}

	return App{
		Port:            GetString(c, "PORT", "8080"),
		ReadTimeout:     GetDuration(c, "READ_TIMEOUT_SECONDS", 180*time.Second),
		WriteTimeout:    GetDuration(c, "WRITE_TIMEOUT_SECONDS", 180*time.Second),
		IdleTimeout:     GetDuration(c, "IDLE_TIMEOUT_SECONDS", 180*time.Second),
		ShutdownTimeout: GetDuration(c, "SHUTDOWN_TIMEOUT_SECONDS", 30*time.Second),
		AcceptedOrigins: GetList(c, "ACCEPTED_ORIGINS"),
		LogLevel:        GetString(c, "LOG_LEVEL", "info"),
		LogFormat:       GetString(c, "LOG_FORMAT", "json"),
		Database:        db,
		Auth: Auth{
			JWTSecret: GetString(c, "BLOG_JWT_SECRET", ""),
			JWTIssuer: GetString(c, "BLOG_JWT_ISSUER", "portfolio-blog"),
			TokenTTL:  GetDuration(c, "BLOG_TOKEN_TTL", 12*time.Hour),
		},
		Assets: Assets{
			Backend:         strings.ToLower(GetString(c, "ASSET_BACKEND", "local")),
			UploadDir:       GetString(c, "UPLOAD_DIR", "uploads"),
			PublicBaseURL:   strings.TrimSuffix(GetString(c, "PUBLIC_BASE_URL", ""), "/"),
			S3Bucket:        GetString(c, "S3_BUCKET", ""),
			S3Region:        GetString(c, "S3_REGION", GetString(c, "AWS_REGION", "us-east-1")),
			S3Prefix:        strings.Trim(GetString(c, "S3_PREFIX", "portfolio"), "/"),
			S3PublicBaseURL: strings.TrimSuffix(GetString(c, "S3_PUBLIC_BASE_URL", ""), "/"),
			UploadAttempts:  GetInt(c, "ASSET_UPLOAD_ATTEMPTS", 2),
			RetryDelay:      GetDuration(c, "ASSET_UPLOAD_RETRY_DELAY", 250*time.Millisecond),
			MaxImageBytes:   GetInt64(c, "MAX_IMAGE_BYTES", 10<<20),
		},
		Blog: Blog{
			DefaultAuthor:    GetString(c, "BLOG_DEFAULT_AUTHOR", "Admin"),
			SanitizeHTML:     GetBool(c, "BLOG_SANITIZE_HTML", true),
			ExcerptWordLimit: GetInt(c, "BLOG_EXCERPT_WORD_LIMIT", 400),
		},
	}
}

// DSN builds the PostgreSQL connection string. It is unused for sqlite.
func (d Database) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		d.Host, d.User, d.Password, d.Name, d.DBPort, d.SSLMode)
}

// Validate checks the settings `serve` cannot start without.
func (a App) Validate() error {
	if a.Auth.JWTSecret == "" {
		return errs.NewConfigMissingError("BLOG_JWT_SECRET")
	}
	if len(a.Auth.JWTSecret) < 32 {
		return errs.NewConfigError("BLOG_JWT_SECRET", fmt.Errorf("secret must be at least 32 bytes"))
	}
	switch a.Database.Type {
	case "supa", "postgres", "sqlite":
	default:
		return errs.NewConfigError("DB_TYPE", fmt.Errorf("unsupported database type %q", a.Database.Type))
	}
	switch a.Assets.Backend {
	case "local":
	case "s3":
		if a.Assets.S3Bucket == "" {
			return errs.NewConfigMissingError("S3_BUCKET")
		}
	default:
		return errs.NewConfigError("ASSET_BACKEND", fmt.Errorf("unsupported asset backend %q", a.Assets.Backend))
	}
	if a.Assets.UploadAttempts < 1 {
		return errs.NewConfigError("ASSET_UPLOAD_ATTEMPTS", fmt.Errorf("must be at least 1"))
	}
	if a.Assets.RetryDelay <= 0 {
		return errs.NewConfigError("ASSET_UPLOAD_RETRY_DELAY", fmt.Errorf("must be positive"))
	}
	return nil
}
