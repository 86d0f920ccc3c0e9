package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	EnvWSURL    = "SKETCHROOM_WS_URL"
	EnvHTTPURL  = "SKETCHROOM_HTTP_URL"
	EnvDataDir  = "SKETCHROOM_DATA_DIR"
	EnvLogLevel = "SKETCHROOM_LOG_LEVEL"
	EnvDev      = "SKETCHROOM_DEV"
)

type Config struct {
	WSURL    string
	HTTPURL  string
	DataDir  string
	LogLevel string
	Dev      bool
}

func Defaults() Config {
	dir := ".sketchroom"
	if home, err := os.UserHomeDir(); err == nil {
		dir = filepath.Join(home, ".sketchroom")
	}
	return Config{
		WSURL:    "ws://localhost:8080",
		HTTPURL:  "http://localhost:8080",
		DataDir:  dir,
		LogLevel: "info",
	}
}

// Load reads files (default ".env") and overlays the process environment,
// which always wins. Missing files are not an error.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	vars := map[string]string{}
	for _, f := range files {
		m, err := godotenv.Read(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Config{}, fmt.Errorf("read %s: %w", f, err)
		}
		for k, v := range m {
			if _, set := vars[k]; !set {
				vars[k] = v
			}
		}
	}
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := vars[key]
		return v, ok
	}

	c := Defaults()
	if v, ok := lookup(EnvWSURL); ok && v != "" {
		c.WSURL = v
	}
	if v, ok := lookup(EnvHTTPURL); ok && v != "" {
		c.HTTPURL = v
	}
	if v, ok := lookup(EnvDataDir); ok && v != "" {
		c.DataDir = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup(EnvDev); ok && v != "" {
		dev, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvDev, err)
		}
		c.Dev = dev
	}
	return c, nil
}
