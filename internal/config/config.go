package config

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Paths       PathsConfig       `yaml:"paths"`
	Recognition RecognitionConfig `yaml:"recognition"`
	Display     DisplayConfig     `yaml:"display"`
	Camera      CameraConfig      `yaml:"camera"`
	Web         WebConfig         `yaml:"web"`
	Database    DatabaseConfig    `yaml:"database"`
	Log         LogConfig         `yaml:"log"`
}

type PathsConfig struct {
	TrainingDir   string `yaml:"training_dir"`
	ValidationDir string `yaml:"validation_dir"`
	OutputDir     string `yaml:"output_dir"`
	EncodingsFile string `yaml:"encodings_file"` // gob file used when no database is configured
	SnapshotDir   string `yaml:"snapshot_dir"`
	ReportFile    string `yaml:"report_file"`
}

type RecognitionConfig struct {
	Model        string  `yaml:"model"`     // hog or cnn
	Tolerance    float64 `yaml:"tolerance"` // max euclidean distance counted as a match
	ModelsDir    string  `yaml:"models_dir"`
	MaxImageSize int     `yaml:"max_image_size"` // 0 keeps the original resolution
}

type DisplayConfig struct {
	BoxColor     string `yaml:"box_color"`
	TextColor    string `yaml:"text_color"`
	UnknownLabel string `yaml:"unknown_label"`
}

type CameraConfig struct {
	Device      int           `yaml:"device"`
	Warmup      time.Duration `yaml:"warmup"`
	CascadeFile string        `yaml:"cascade_file"` // pigo facefinder cascade, empty disables the presence gate
	MaxFrames   int           `yaml:"max_frames"`
}

type WebConfig struct {
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	Source      string `yaml:"source"`       // file or webcam
	SourceImage string `yaml:"source_image"` // image used by /date when source is file
	ReportName  string `yaml:"report_name"`  // download name of the CSV attachment

	AllowedOrigins []string `yaml:"allowed_origins"` // CORS origins besides localhost
}

type DatabaseConfig struct {
	URL          string `yaml:"-"` // PostgreSQL connection URL
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Source values for WebConfig.Source.
const (
	SourceFile   = "file"
	SourceWebcam = "webcam"
)

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads a positive float from the environment, falling back to defaultVal.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d >= 0 {
		return d
	}
	return defaultVal
}

// envList splits a comma separated variable, dropping empty items.
func envList(key string, defaultVal []string) []string {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	var out []string
	for item := range strings.SplitSeq(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func defaults() *Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}
	return &cfg
}

// Load returns the embedded defaults with environment overrides applied.
func Load() *Config {
	cfg := defaults()
	applyEnv(cfg)
	return cfg
}

// LoadFile layers a YAML file over the embedded defaults, then applies
// environment overrides. Keys missing from the file keep their defaults.
func LoadFile(path string) (*Config, error) {
	cfg := defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Paths.TrainingDir = envString("TRAINING_DIR", cfg.Paths.TrainingDir)
	cfg.Paths.ValidationDir = envString("VALIDATION_DIR", cfg.Paths.ValidationDir)
	cfg.Paths.OutputDir = envString("OUTPUT_DIR", cfg.Paths.OutputDir)
	cfg.Paths.EncodingsFile = envString("ENCODINGS_FILE", cfg.Paths.EncodingsFile)
	cfg.Paths.SnapshotDir = envString("SNAPSHOT_DIR", cfg.Paths.SnapshotDir)
	cfg.Paths.ReportFile = envString("REPORT_FILE", cfg.Paths.ReportFile)

	cfg.Recognition.Model = envString("RECOGNITION_MODEL", cfg.Recognition.Model)
	cfg.Recognition.Tolerance = envFloat("RECOGNITION_TOLERANCE", cfg.Recognition.Tolerance)
	cfg.Recognition.ModelsDir = envString("MODELS_DIR", cfg.Recognition.ModelsDir)
	cfg.Recognition.MaxImageSize = envInt("MAX_IMAGE_SIZE", cfg.Recognition.MaxImageSize)

	cfg.Display.BoxColor = envString("BOX_COLOR", cfg.Display.BoxColor)
	cfg.Display.TextColor = envString("TEXT_COLOR", cfg.Display.TextColor)

	if s := os.Getenv("CAMERA_DEVICE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			cfg.Camera.Device = n
		}
	}
	cfg.Camera.Warmup = envDuration("CAMERA_WARMUP", cfg.Camera.Warmup)
	cfg.Camera.CascadeFile = envString("CAMERA_CASCADE_FILE", cfg.Camera.CascadeFile)
	cfg.Camera.MaxFrames = envInt("CAMERA_MAX_FRAMES", cfg.Camera.MaxFrames)

	cfg.Web.Host = envString("WEB_HOST", cfg.Web.Host)
	cfg.Web.Port = envInt("WEB_PORT", cfg.Web.Port)
	cfg.Web.Source = envString("ATTENDANCE_SOURCE", cfg.Web.Source)
	cfg.Web.SourceImage = envString("ATTENDANCE_SOURCE_IMAGE", cfg.Web.SourceImage)
	cfg.Web.AllowedOrigins = envList("WEB_ALLOWED_ORIGINS", cfg.Web.AllowedOrigins)

	cfg.Database.URL = os.Getenv("DATABASE_URL")
	cfg.Database.MaxOpenConns = envInt("DATABASE_MAX_OPEN_CONNS", cfg.Database.MaxOpenConns)
	cfg.Database.MaxIdleConns = envInt("DATABASE_MAX_IDLE_CONNS", cfg.Database.MaxIdleConns)

	cfg.Log.Level = envString("LOG_LEVEL", cfg.Log.Level)
}

// Validate checks values that would otherwise fail deep inside a command.
func (c *Config) Validate() error {
	if c.Recognition.Tolerance <= 0 {
		return fmt.Errorf("recognition tolerance must be positive, got %v", c.Recognition.Tolerance)
	}
	switch c.Web.Source {
	case SourceFile, SourceWebcam:
	default:
		return fmt.Errorf("unknown attendance source %q (want %s or %s)", c.Web.Source, SourceFile, SourceWebcam)
	}
	if c.Web.Source == SourceFile && c.Web.SourceImage == "" {
		return fmt.Errorf("web.source_image is required when source is %s", SourceFile)
	}
	return nil
}

// HasDatabase reports whether a PostgreSQL backend is configured.
func (c *Config) HasDatabase() bool {
	return c.Database.URL != ""
}
