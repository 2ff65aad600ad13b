package utils

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NewLogger 在生产环境输出 JSON，其余环境输出便于阅读的格式，并替换全局 logger
func NewLogger(environment string) zerolog.Logger {
	var output io.Writer = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	if environment == "production" {
		output = os.Stdout
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger
	return logger
}
