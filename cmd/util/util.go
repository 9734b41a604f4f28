package util

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/penpenguin/PetaTas-sub000/lib/checklist"
	"github.com/penpenguin/PetaTas-sub000/lib/codec"
	"github.com/penpenguin/PetaTas-sub000/lib/kv"
	"github.com/penpenguin/PetaTas-sub000/lib/kv/filekv"
	"github.com/penpenguin/PetaTas-sub000/lib/kv/memkv"
	"github.com/penpenguin/PetaTas-sub000/lib/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var lines []string
	var line strings.Builder

	for _, word := range strings.Fields(text) {
		if line.Len() > 0 && line.Len()+1+len(word) > Wrap {
			lines = append(lines, line.String())
			line.Reset()
		}
		if line.Len() > 0 {
			line.WriteString(" ")
		}
		line.WriteString(word)
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}

	return strings.Join(lines, "\n")
}

// SetupStoreFlags adds the common storage flags to a command
func SetupStoreFlags(cmd *cobra.Command) {
	key := "backend"
	cmd.PersistentFlags().String(key, "file", WrapString("Storage backend to use (memory, file)"))

	key = "file"
	cmd.PersistentFlags().String(key, "petatas.json", WrapString("Snapshot path for the file backend"))

	key = "codec"
	cmd.PersistentFlags().String(key, "json", WrapString("Record encoding to use (json, gob)"))

	key = "throttle"
	cmd.PersistentFlags().Duration(key, 0, WrapString("Flush delay for the write coalescer (0 uses the store default)"))

	key = "max-writes"
	cmd.PersistentFlags().Int(key, 0, WrapString("Write budget per minute (0 uses the backend limit)"))

	key = "log-level"
	cmd.PersistentFlags().String(key, "info", WrapString("Level at which logs will be output (debug, info, warn, error)"))
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("petatas")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// GetLogger creates a logger based on configuration
func GetLogger() (*slog.Logger, error) {
	level, err := logging.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		return nil, err
	}
	opts := logging.DefaultOptions()
	opts.Level = level
	return logging.New(opts), nil
}

// GetCodec creates a record codec based on configuration
func GetCodec() (codec.Codec, error) {
	switch viper.GetString("codec") {
	case "json":
		return codec.NewJSONCodec(), nil
	case "gob":
		return codec.NewGOBCodec(), nil
	default:
		return nil, fmt.Errorf("invalid codec %s", viper.GetString("codec"))
	}
}

// GetBackend creates a storage backend based on configuration
func GetBackend() (kv.Backend, error) {
	switch viper.GetString("backend") {
	case "memory":
		return memkv.NewMemoryBackend(nil), nil
	case "file":
		return filekv.NewFileBackend(viper.GetString("file"), nil)
	default:
		return nil, fmt.Errorf("invalid backend %s", viper.GetString("backend"))
	}
}

// GetStore assembles a checklist store from the configured backend,
// codec and logger
func GetStore() (*checklist.Store, error) {
	logger, err := GetLogger()
	if err != nil {
		return nil, err
	}

	backend, err := GetBackend()
	if err != nil {
		return nil, err
	}

	recordCodec, err := GetCodec()
	if err != nil {
		backend.Close()
		return nil, err
	}

	return checklist.New(backend, &checklist.Options{
		WriteThrottle:      viper.GetDuration("throttle"),
		MaxWritesPerMinute: viper.GetInt("max-writes"),
		Codec:              recordCodec,
		Logger:             logger,
	}), nil
}
