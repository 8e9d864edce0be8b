package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"  validate:"required"`
	Worker  WorkerConfig  `mapstructure:"worker"  validate:"required"`
	Storage StorageConfig `mapstructure:"storage" validate:"required"`
	Media   MediaConfig   `mapstructure:"media"   validate:"required"`
	LLM     LLMConfig     `mapstructure:"llm"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// WorkerConfig contains settings for the background worker pool that
// executes transcription jobs.
type WorkerConfig struct {
	// Count determines how many jobs may run concurrently. Each job
	// occupies one worker for its full duration, including blocking
	// external-tool calls.
	Count int `mapstructure:"count" validate:"required,gt=0"`

	// QueueSize is the buffer size of the in-memory job queue. Jobs
	// accepted beyond the worker count wait here for a free slot.
	QueueSize int `mapstructure:"queue_size" validate:"required,gt=0"`
}

// StorageConfig contains filesystem locations used by the service.
type StorageConfig struct {
	// TempDir is where intermediate audio files and result artifacts
	// are written.
	TempDir string `mapstructure:"temp_dir" validate:"required"`

	// TasksFile is the durable snapshot of the job registry. The file
	// is rewritten atomically on every state change; its absence means
	// "start empty".
	TasksFile string `mapstructure:"tasks_file" validate:"required"`
}

// MediaConfig contains paths to the external media tools the pipeline
// shells out to.
type MediaConfig struct {
	YtDlpPath    string `mapstructure:"ytdlp_path"    validate:"required"`
	WhisperPath  string `mapstructure:"whisper_path"  validate:"required"`
	WhisperModel string `mapstructure:"whisper_model" validate:"required"`
}

// LLMConfig contains all LLM integration related settings. An empty
// GeminiAPIKey disables text optimization, translation, and
// summarization; the pipeline then degrades to documented pass-through
// behavior.
type LLMConfig struct {
	GeminiAPIKey      string `mapstructure:"gemini_api_key"`
	ModelName         string `mapstructure:"model_name"          validate:"required"`
	MaxRetries        int    `mapstructure:"max_retries"         validate:"gte=0"`
	RetryDelaySeconds int    `mapstructure:"retry_delay_seconds" validate:"gte=0"`
}
