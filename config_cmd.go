package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# voice name, or "auto" to match the system locale
voice: "auto"
# synthesis rate offset, signed percent
rate: "+0%"
# synthesis volume offset, signed percent
volume: "+0%"
# synthesis pitch offset, signed hertz
pitch: "+0Hz"
# playback speed multiplier (0.25 to 4.0)
speed: 1.5
# synthesis engine: edge or mock
engine: "edge"
# audio player binary
player: "ffplay"
# control endpoint address
listen: "127.0.0.1:45678"

# Pipeline tuning. The defaults are fine for almost everyone.
#
# frames buffered between synthesis and playback
#queue_size: 200
# wait for a single synthesis event before retrying the chunk
#frame_timeout: "10s"
# synthesis attempts per chunk
#fetch_attempts: 3
# pause between attempts
#fetch_cooldown: "1s"
# playback poll granularity
#poll_interval: "1s"

# Chunking bounds, in characters.
#chunk_min_size: 500
#chunk_max_size: 800
#chunk_hard_limit: 1000
# drop Markdown syntax before reading
#strip_markup: true

# Mock engine tuning, for dry runs without a network.
#mock:
#  generation_delay: "10ms"
#  failure_rate: 0.0
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the sayclip config file",
	Long:    paragraph(fmt.Sprintf("\n%s the sayclip config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("sayclip config\nsayclip config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("Sayclip", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
