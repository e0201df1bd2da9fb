package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/sayclip/internal/ctl"
	"github.com/dgnsrekt/sayclip/internal/player"
	"github.com/dgnsrekt/sayclip/internal/queue"
	"github.com/dgnsrekt/sayclip/internal/segment"
	"github.com/dgnsrekt/sayclip/internal/session"
	"github.com/dgnsrekt/sayclip/internal/tts"
)

// Playback speed bounds. Two atempo stages in each direction cover this
// range without audible artifacts.
const (
	speedMin = 0.25
	speedMax = 4.0
)

// Settings holds every tunable of the daemon. Defaults come from the
// envDefault tags; a config file and flags are layered on top via viper.
type Settings struct {
	Voice  string  `yaml:"voice" env:"SAYCLIP_VOICE" envDefault:"auto"`
	Rate   string  `yaml:"rate" env:"SAYCLIP_RATE" envDefault:"+0%"`
	Volume string  `yaml:"volume" env:"SAYCLIP_VOLUME" envDefault:"+0%"`
	Pitch  string  `yaml:"pitch" env:"SAYCLIP_PITCH" envDefault:"+0Hz"`
	Speed  float64 `yaml:"speed" env:"SAYCLIP_SPEED" envDefault:"1.5"`
	Engine string  `yaml:"engine" env:"SAYCLIP_ENGINE" envDefault:"edge"`
	Player string  `yaml:"player" env:"SAYCLIP_PLAYER" envDefault:"ffplay"`
	Listen string  `yaml:"listen" env:"SAYCLIP_LISTEN" envDefault:"127.0.0.1:45678"`

	QueueSize     int           `yaml:"queue_size" env:"SAYCLIP_QUEUE_SIZE" envDefault:"200"`
	FrameTimeout  time.Duration `yaml:"frame_timeout" env:"SAYCLIP_FRAME_TIMEOUT" envDefault:"10s"`
	FetchAttempts int           `yaml:"fetch_attempts" env:"SAYCLIP_FETCH_ATTEMPTS" envDefault:"3"`
	FetchCooldown time.Duration `yaml:"fetch_cooldown" env:"SAYCLIP_FETCH_COOLDOWN" envDefault:"1s"`
	PollInterval  time.Duration `yaml:"poll_interval" env:"SAYCLIP_POLL_INTERVAL" envDefault:"1s"`

	ChunkMinSize   int  `yaml:"chunk_min_size" env:"SAYCLIP_CHUNK_MIN_SIZE" envDefault:"500"`
	ChunkMaxSize   int  `yaml:"chunk_max_size" env:"SAYCLIP_CHUNK_MAX_SIZE" envDefault:"800"`
	ChunkHardLimit int  `yaml:"chunk_hard_limit" env:"SAYCLIP_CHUNK_HARD_LIMIT" envDefault:"1000"`
	StripMarkup    bool `yaml:"strip_markup" env:"SAYCLIP_STRIP_MARKUP" envDefault:"true"`

	Mock MockSettings `yaml:"mock"`
}

// MockSettings tunes the mock engine for pipeline dry runs.
type MockSettings struct {
	GenerationDelay time.Duration `yaml:"generation_delay" env:"SAYCLIP_MOCK_GENERATION_DELAY" envDefault:"10ms"`
	FailureRate     float64       `yaml:"failure_rate" env:"SAYCLIP_MOCK_FAILURE_RATE" envDefault:"0"`
}

// DefaultSettings returns the built-in defaults.
func DefaultSettings() Settings {
	return Settings{
		Voice:  "auto",
		Rate:   "+0%",
		Volume: "+0%",
		Pitch:  "+0Hz",
		Speed:  1.5,
		Engine: "edge",
		Player: player.DefaultBinary,
		Listen: ctl.DefaultAddr,

		QueueSize:     queue.DefaultCapacity,
		FrameTimeout:  tts.DefaultFrameTimeout,
		FetchAttempts: tts.DefaultAttempts,
		FetchCooldown: tts.DefaultCooldown,
		PollInterval:  session.DefaultPollInterval,

		ChunkMinSize:   segment.DefaultMinSize,
		ChunkMaxSize:   segment.DefaultMaxSize,
		ChunkHardLimit: segment.DefaultHardLimit,
		StripMarkup:    true,

		Mock: MockSettings{GenerationDelay: 10 * time.Millisecond},
	}
}

// loadSettings builds the effective settings: envDefault tags, then
// SAYCLIP_* environment variables, then whatever viper has from the
// config file and changed flags.
func loadSettings() (Settings, error) {
	cfg, err := env.ParseAs[Settings]()
	if err != nil {
		return cfg, fmt.Errorf("unable to parse environment: %w", err)
	}
	cfg.fromViper()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// fromViper overrides fields whose keys viper has a value for, so unset
// keys keep the environment-derived value.
func (c *Settings) fromViper() {
	if viper.IsSet("voice") {
		c.Voice = viper.GetString("voice")
	}
	if viper.IsSet("rate") {
		c.Rate = viper.GetString("rate")
	}
	if viper.IsSet("volume") {
		c.Volume = viper.GetString("volume")
	}
	if viper.IsSet("pitch") {
		c.Pitch = viper.GetString("pitch")
	}
	if viper.IsSet("speed") {
		c.Speed = viper.GetFloat64("speed")
	}
	if viper.IsSet("engine") {
		c.Engine = viper.GetString("engine")
	}
	if viper.IsSet("player") {
		c.Player = viper.GetString("player")
	}
	if viper.IsSet("listen") {
		c.Listen = viper.GetString("listen")
	}
	if viper.IsSet("queue_size") {
		c.QueueSize = viper.GetInt("queue_size")
	}
	if viper.IsSet("fetch_attempts") {
		c.FetchAttempts = viper.GetInt("fetch_attempts")
	}
	if viper.IsSet("chunk_min_size") {
		c.ChunkMinSize = viper.GetInt("chunk_min_size")
	}
	if viper.IsSet("chunk_max_size") {
		c.ChunkMaxSize = viper.GetInt("chunk_max_size")
	}
	if viper.IsSet("chunk_hard_limit") {
		c.ChunkHardLimit = viper.GetInt("chunk_hard_limit")
	}
	if viper.IsSet("strip_markup") {
		c.StripMarkup = viper.GetBool("strip_markup")
	}
	if viper.IsSet("mock.failure_rate") {
		c.Mock.FailureRate = viper.GetFloat64("mock.failure_rate")
	}

	c.durationFromViper("frame_timeout", &c.FrameTimeout)
	c.durationFromViper("fetch_cooldown", &c.FetchCooldown)
	c.durationFromViper("poll_interval", &c.PollInterval)
	c.durationFromViper("mock.generation_delay", &c.Mock.GenerationDelay)
}

func (c *Settings) durationFromViper(key string, dst *time.Duration) {
	if !viper.IsSet(key) {
		return
	}
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Warn("Ignoring invalid duration", "key", key, "value", raw)
		return
	}
	*dst = d
}

// Validate checks ranges and normalizes the engine name.
func (c *Settings) Validate() error {
	if err := c.EngineOptions().Validate(); err != nil {
		return err
	}
	if c.Speed < speedMin || c.Speed > speedMax {
		return fmt.Errorf("speed must be between 0.25 and 4.0, got %g", c.Speed)
	}

	c.Engine = strings.ToLower(c.Engine)
	switch c.Engine {
	case "edge", "mock":
	default:
		return fmt.Errorf("%w: %q (want edge or mock)", tts.ErrUnknownEngine, c.Engine)
	}

	if c.Player == "" {
		return fmt.Errorf("player binary must not be empty")
	}
	if c.Listen == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("queue_size must be positive, got %d", c.QueueSize)
	}
	if c.FrameTimeout <= 0 {
		return fmt.Errorf("frame_timeout must be positive, got %s", c.FrameTimeout)
	}
	if c.FetchAttempts < 1 {
		return fmt.Errorf("fetch_attempts must be positive, got %d", c.FetchAttempts)
	}
	if c.FetchCooldown < 0 {
		return fmt.Errorf("fetch_cooldown must not be negative, got %s", c.FetchCooldown)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	if c.ChunkMinSize < 1 || c.ChunkMaxSize < 1 || c.ChunkHardLimit < 1 {
		return fmt.Errorf("chunk sizes must be positive")
	}
	if c.Mock.FailureRate < 0 || c.Mock.FailureRate > 1 {
		return fmt.Errorf("mock failure_rate must be between 0 and 1, got %g", c.Mock.FailureRate)
	}
	if c.Mock.GenerationDelay < 0 {
		return fmt.Errorf("mock generation_delay must not be negative, got %s", c.Mock.GenerationDelay)
	}
	return nil
}

// EngineOptions maps the prosody settings onto engine options.
func (c Settings) EngineOptions() tts.Options {
	return tts.Options{
		Voice:  c.Voice,
		Rate:   c.Rate,
		Volume: c.Volume,
		Pitch:  c.Pitch,
	}
}

// SegmentConfig maps the chunk settings onto the segmenter.
func (c Settings) SegmentConfig() segment.Config {
	return segment.Config{
		MinSize:     c.ChunkMinSize,
		MaxSize:     c.ChunkMaxSize,
		HardLimit:   c.ChunkHardLimit,
		StripMarkup: c.StripMarkup,
	}
}

// PlayerCommand maps the playback settings onto a player launch command.
func (c Settings) PlayerCommand() player.Command {
	return player.Command{
		Binary: c.Player,
		Speed:  c.Speed,
	}
}

// NewEngine builds the synthesis engine the settings select.
func (c Settings) NewEngine() (tts.Engine, error) {
	switch c.Engine {
	case "edge":
		engine, err := tts.NewEdgeEngine(c.EngineOptions())
		if err != nil {
			return nil, err
		}
		log.Debug("Voice resolved", "voice", engine.Voice())
		return engine, nil
	case "mock":
		engine := tts.NewMockEngine()
		engine.SetDelay(c.Mock.GenerationDelay)
		engine.SetFailureRate(c.Mock.FailureRate)
		return engine, nil
	default:
		return nil, fmt.Errorf("%w: %q", tts.ErrUnknownEngine, c.Engine)
	}
}

// NewFetcher builds the per-chunk fetcher driving the engine.
func (c Settings) NewFetcher(engine tts.Engine) *tts.Fetcher {
	f := tts.NewFetcher(engine)
	f.FrameTimeout = c.FrameTimeout
	f.Attempts = c.FetchAttempts
	f.Cooldown = c.FetchCooldown
	return f
}

// SessionConfig assembles the pipeline collaborators for the session
// controller.
func (c Settings) SessionConfig(source session.Source) (session.Config, error) {
	engine, err := c.NewEngine()
	if err != nil {
		return session.Config{}, err
	}
	return session.Config{
		Source:       source,
		Segmenter:    segment.New(c.SegmentConfig()),
		Fetcher:      c.NewFetcher(engine),
		Player:       c.PlayerCommand(),
		QueueSize:    c.QueueSize,
		PollInterval: c.PollInterval,
	}, nil
}
