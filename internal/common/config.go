package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string            `toml:"environment"` // "development" or "production"
	Server      ServerConfig      `toml:"server"`
	Storage     StorageConfig     `toml:"storage"`
	Logging     LoggingConfig     `toml:"logging"`
	Scraper     ScraperConfig     `toml:"scraper"`
	Wikipedia   WikipediaConfig   `toml:"wikipedia"`
	Pixabay     PixabayConfig     `toml:"pixabay"`
	Gemini      GeminiConfig      `toml:"gemini"`
	Claude      ClaudeConfig      `toml:"claude"`
	LLM         LLMConfig         `toml:"llm"`
	Generation  GenerationConfig  `toml:"generation"`
	Upload      UploadConfig      `toml:"upload"`
	Maintenance MaintenanceConfig `toml:"maintenance"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger     BadgerConfig     `toml:"badger"`
	Filesystem FilesystemConfig `toml:"filesystem"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type FilesystemConfig struct {
	Images  string `toml:"images"`  // Stored slide images, laid out as owner/presentation/slide
	Decks   string `toml:"decks"`   // Rendered presentation files
	Uploads string `toml:"uploads"` // Staged PDF/DOCX uploads awaiting generation
}

type LoggingConfig struct {
	Level      string   `toml:"level"`       // "debug", "info", "warn", "error"
	Format     string   `toml:"format"`      // "json" or "text"
	Output     []string `toml:"output"`      // "stdout", "file"
	TimeFormat string   `toml:"time_format"` // Time format for logs (default: "15:04:05.000")
}

// ScraperConfig controls web content acquisition
type ScraperConfig struct {
	UserAgent      string        `toml:"user_agent"`      // User agent string sent on every request
	RequestTimeout time.Duration `toml:"request_timeout"` // HTTP request timeout
	MaxBodySize    int           `toml:"max_body_size"`   // Maximum response body size in bytes
	FollowRobots   bool          `toml:"follow_robots"`   // Respect robots.txt rules before scraping
	MaxHeadings    int           `toml:"max_headings"`    // Cap on extracted headings per page
	MaxParagraphs  int           `toml:"max_paragraphs"`  // Cap on extracted paragraphs per page
}

// WikipediaConfig controls the encyclopedic fallback source
type WikipediaConfig struct {
	BaseURL        string        `toml:"base_url"`        // REST summary endpoint base
	SearchURL      string        `toml:"search_url"`      // Title search endpoint
	MaxArticles    int           `toml:"max_articles"`    // Articles combined per lookup
	RequestTimeout time.Duration `toml:"request_timeout"` // HTTP request timeout
}

// PixabayConfig contains image search API configuration
type PixabayConfig struct {
	APIKey          string        `toml:"api_key"`          // Pixabay API key
	BaseURL         string        `toml:"base_url"`         // API endpoint
	RateLimit       time.Duration `toml:"rate_limit"`       // Minimum time between API requests
	RequestTimeout  time.Duration `toml:"request_timeout"`  // HTTP request timeout
	PerPage         int           `toml:"per_page"`         // Results requested per search
	MaxCandidates   int           `toml:"max_candidates"`   // Candidates returned per slide
	DownloadWorkers int           `toml:"download_workers"` // Concurrent image downloads
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`     // Google Gemini API key
	Model       string  `toml:"model"`       // Model for outline generation (default: "gemini-3-flash-preview")
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	RateLimit   string  `toml:"rate_limit"`  // Rate limit duration string (default: "4s" for 15 RPM)
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.7)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key
	Model       string  `toml:"model"`       // Model for outline generation (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 8192)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	RateLimit   string  `toml:"rate_limit"`  // Rate limit duration string (default: "1s")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.7)
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig contains unified configuration for all AI providers
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider"` // Default provider: "gemini" or "claude" (default: "claude")
}

// GenerationConfig controls the presentation pipeline
type GenerationConfig struct {
	MaxContextChars int `toml:"max_context_chars"` // Aggregated source content cap (default: 10000)
	MaxSlides       int `toml:"max_slides"`        // Hard upper bound on slide count per deck
	OutlineRetries  int `toml:"outline_retries"`   // Extra attempts after a failed outline parse (default: 1)
}

// UploadConfig controls PDF/DOCX upload handling
type UploadConfig struct {
	MaxFileSize int64 `toml:"max_file_size"` // Maximum upload size in bytes
}

// MaintenanceConfig controls the background cleanup sweep
type MaintenanceConfig struct {
	Enabled  bool   `toml:"enabled"`  // Run the orphaned-file sweep
	Schedule string `toml:"schedule"` // Cron schedule format
}

// NewDefaultConfig creates a configuration with default values
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in slidecraft.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development", // Default to development mode - allows test URLs
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
			Filesystem: FilesystemConfig{
				Images:  "./data/images",
				Decks:   "./data/decks",
				Uploads: "./data/uploads",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",                     // Info level for production (debug|info|warn|error)
			Format: "text",                     // Human-readable text format (text|json)
			Output: []string{"stdout", "file"}, // Log to both console and file
		},
		Scraper: ScraperConfig{
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			RequestTimeout: 30 * time.Second,
			MaxBodySize:    10 * 1024 * 1024, // 10MB
			FollowRobots:   true,
			MaxHeadings:    20,
			MaxParagraphs:  30,
		},
		Wikipedia: WikipediaConfig{
			BaseURL:        "https://en.wikipedia.org/api/rest_v1/page/summary",
			SearchURL:      "https://en.wikipedia.org/w/rest.php/v1/search/page",
			MaxArticles:    3,
			RequestTimeout: 15 * time.Second,
		},
		Pixabay: PixabayConfig{
			APIKey:          "", // User must provide API key in config file
			BaseURL:         "https://pixabay.com/api/",
			RateLimit:       500 * time.Millisecond,
			RequestTimeout:  20 * time.Second,
			PerPage:         10,
			MaxCandidates:   5,
			DownloadWorkers: 3,
		},
		Gemini: GeminiConfig{
			APIKey:      "",                       // User must provide API key (no fallback)
			Model:       "gemini-3-flash-preview", // Model for outline generation
			Timeout:     "2m",
			RateLimit:   "4s", // Default to 4s (15 RPM) for free tier
			Temperature: 0.7,
		},
		Claude: ClaudeConfig{
			APIKey:      "",                          // User must provide API key (ANTHROPIC_API_KEY or config)
			Model:       "claude-haiku-3-5-20241022", // Model for outline generation
			MaxTokens:   8192,
			Timeout:     "2m",
			RateLimit:   "1s",
			Temperature: 0.7,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderClaude,
		},
		Generation: GenerationConfig{
			MaxContextChars: 10000,
			MaxSlides:       30,
			OutlineRetries:  1,
		},
		Upload: UploadConfig{
			MaxFileSize: 20 * 1024 * 1024, // 20MB
		},
		Maintenance: MaintenanceConfig{
			Enabled:  true,
			Schedule: "0 0 */6 * * *", // Every 6 hours (cron format with seconds)
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env -> CLI
// Priority system: CLI flags > Environment variables > Config file > Defaults
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority: default -> file1 -> file2 -> ... -> env -> CLI
// Later files override earlier files.
// Example: LoadFromFiles("base.toml", "override.toml") - override.toml settings take precedence over base.toml
func LoadFromFiles(paths ...string) (*Config, error) {
	// Start with defaults
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier files)
	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal into config (merges with existing values, later values override)
		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	// Apply environment variables (overrides all file configs)
	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: SLIDECRAFT_ENV, fallback: GO_ENV)
	if env := os.Getenv("SLIDECRAFT_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("SLIDECRAFT_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("SLIDECRAFT_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if badgerPath := os.Getenv("SLIDECRAFT_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if imagesDir := os.Getenv("SLIDECRAFT_IMAGES_DIR"); imagesDir != "" {
		config.Storage.Filesystem.Images = imagesDir
	}
	if decksDir := os.Getenv("SLIDECRAFT_DECKS_DIR"); decksDir != "" {
		config.Storage.Filesystem.Decks = decksDir
	}
	if uploadsDir := os.Getenv("SLIDECRAFT_UPLOADS_DIR"); uploadsDir != "" {
		config.Storage.Filesystem.Uploads = uploadsDir
	}

	// Logging configuration
	if level := os.Getenv("SLIDECRAFT_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("SLIDECRAFT_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("SLIDECRAFT_LOG_OUTPUT"); output != "" {
		// Split comma-separated output types
		outputs := []string{}
		for _, o := range splitString(output, ",") {
			trimmed := trimSpace(o)
			if trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Scraper configuration
	if userAgent := os.Getenv("SLIDECRAFT_SCRAPER_USER_AGENT"); userAgent != "" {
		config.Scraper.UserAgent = userAgent
	}
	if requestTimeout := os.Getenv("SLIDECRAFT_SCRAPER_REQUEST_TIMEOUT"); requestTimeout != "" {
		if rt, err := time.ParseDuration(requestTimeout); err == nil {
			config.Scraper.RequestTimeout = rt
		}
	}
	if maxBodySize := os.Getenv("SLIDECRAFT_SCRAPER_MAX_BODY_SIZE"); maxBodySize != "" {
		if mbs, err := strconv.Atoi(maxBodySize); err == nil {
			config.Scraper.MaxBodySize = mbs
		}
	}
	if followRobots := os.Getenv("SLIDECRAFT_SCRAPER_FOLLOW_ROBOTS"); followRobots != "" {
		if fr, err := strconv.ParseBool(followRobots); err == nil {
			config.Scraper.FollowRobots = fr
		}
	}

	// Wikipedia configuration
	if baseURL := os.Getenv("SLIDECRAFT_WIKIPEDIA_BASE_URL"); baseURL != "" {
		config.Wikipedia.BaseURL = baseURL
	}

	// Pixabay configuration
	if apiKey := os.Getenv("SLIDECRAFT_PIXABAY_API_KEY"); apiKey != "" {
		config.Pixabay.APIKey = apiKey
	} else if apiKey := os.Getenv("PIXABAY_API_KEY"); apiKey != "" {
		config.Pixabay.APIKey = apiKey
	}
	if baseURL := os.Getenv("SLIDECRAFT_PIXABAY_BASE_URL"); baseURL != "" {
		config.Pixabay.BaseURL = baseURL
	}
	if rateLimit := os.Getenv("SLIDECRAFT_PIXABAY_RATE_LIMIT"); rateLimit != "" {
		if rl, err := time.ParseDuration(rateLimit); err == nil {
			config.Pixabay.RateLimit = rl
		}
	}
	if perPage := os.Getenv("SLIDECRAFT_PIXABAY_PER_PAGE"); perPage != "" {
		if pp, err := strconv.Atoi(perPage); err == nil {
			config.Pixabay.PerPage = pp
		}
	}

	// Gemini configuration
	if apiKey := os.Getenv("SLIDECRAFT_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	} else if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("SLIDECRAFT_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if timeout := os.Getenv("SLIDECRAFT_GEMINI_TIMEOUT"); timeout != "" {
		config.Gemini.Timeout = timeout
	}
	if rateLimit := os.Getenv("SLIDECRAFT_GEMINI_RATE_LIMIT"); rateLimit != "" {
		config.Gemini.RateLimit = rateLimit
	}
	if temperature := os.Getenv("SLIDECRAFT_GEMINI_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Gemini.Temperature = float32(t)
		}
	}

	// Claude configuration
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("SLIDECRAFT_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey // SLIDECRAFT_ prefix takes priority
	}
	if model := os.Getenv("SLIDECRAFT_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if maxTokens := os.Getenv("SLIDECRAFT_CLAUDE_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.Claude.MaxTokens = mt
		}
	}
	if timeout := os.Getenv("SLIDECRAFT_CLAUDE_TIMEOUT"); timeout != "" {
		config.Claude.Timeout = timeout
	}
	if rateLimit := os.Getenv("SLIDECRAFT_CLAUDE_RATE_LIMIT"); rateLimit != "" {
		config.Claude.RateLimit = rateLimit
	}
	if temperature := os.Getenv("SLIDECRAFT_CLAUDE_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Claude.Temperature = float32(t)
		}
	}

	// LLM provider configuration
	if provider := os.Getenv("SLIDECRAFT_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}

	// Generation configuration
	if maxChars := os.Getenv("SLIDECRAFT_GENERATION_MAX_CONTEXT_CHARS"); maxChars != "" {
		if mc, err := strconv.Atoi(maxChars); err == nil {
			config.Generation.MaxContextChars = mc
		}
	}
	if maxSlides := os.Getenv("SLIDECRAFT_GENERATION_MAX_SLIDES"); maxSlides != "" {
		if ms, err := strconv.Atoi(maxSlides); err == nil {
			config.Generation.MaxSlides = ms
		}
	}

	// Upload configuration
	if maxFileSize := os.Getenv("SLIDECRAFT_UPLOAD_MAX_FILE_SIZE"); maxFileSize != "" {
		if mfs, err := strconv.ParseInt(maxFileSize, 10, 64); err == nil {
			config.Upload.MaxFileSize = mfs
		}
	}

	// Maintenance configuration
	if enabled := os.Getenv("SLIDECRAFT_MAINTENANCE_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Maintenance.Enabled = e
		}
	}
	if schedule := os.Getenv("SLIDECRAFT_MAINTENANCE_SCHEDULE"); schedule != "" {
		config.Maintenance.Schedule = schedule
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	// Command-line flags have highest priority
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// Helper functions for string manipulation
func splitString(s, sep string) []string {
	result := []string{}
	start := 0
	for i := 0; i < len(s); i++ {
		if i+len(sep) <= len(s) && s[i:i+len(sep)] == sep {
			result = append(result, s[start:i])
			start = i + len(sep)
			i = start - 1
		}
	}
	result = append(result, s[start:])
	return result
}

func trimSpace(s string) string {
	start := 0
	end := len(s)
	for start < end && (s[start] == ' ' || s[start] == '\t' || s[start] == '\n' || s[start] == '\r') {
		start++
	}
	for end > start && (s[end-1] == ' ' || s[end-1] == '\t' || s[end-1] == '\n' || s[end-1] == '\r') {
		end--
	}
	return s[start:end]
}

// ValidateSweepSchedule validates a cron schedule expression for the maintenance sweep
// and ensures a minimum 5-minute interval
func ValidateSweepSchedule(schedule string) error {
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	_, err := parser.Parse(schedule)
	if err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	parts := strings.Fields(schedule)
	if len(parts) < 6 {
		return fmt.Errorf("invalid cron format: expected 6 fields")
	}

	minuteField := parts[1]

	// Check for patterns that violate 5-minute minimum
	if minuteField == "*" {
		return fmt.Errorf("schedule must have minimum 5-minute interval (every minute is not allowed)")
	}

	if strings.HasPrefix(minuteField, "*/") {
		intervalStr := strings.TrimPrefix(minuteField, "*/")
		interval, err := strconv.Atoi(intervalStr)
		if err == nil && interval < 5 {
			return fmt.Errorf("schedule interval must be at least 5 minutes, got %d", interval)
		}
	}

	return nil
}
