// Package logging configures devexy's rotating application log.
//
// All output goes to a single app.log file under the app directory,
// rotated at 5 MiB with up to 5 backups kept — matching the Python
// predecessor's RotatingFileHandler(maxBytes=5*1024*1024, backupCount=5).
package logging

import (
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/sycdan/devexy/internal/appdir"
)

const (
	maxSizeMB  = 5
	maxBackups = 5
)

var (
	level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	once       sync.Once
	sharedCore zapcore.Core
)

// Configure sets the minimum level for every logger returned by Get, now
// and in the future — callers don't need to call it before Get. noisy=true
// selects Debug; otherwise Info. Mirrors the Python configure_logger(level)
// call; NewRootCommand calls it once at startup with DEVEXY_NOISY's value.
func Configure(noisy bool) {
	if noisy {
		level.SetLevel(zapcore.DebugLevel)
	} else {
		level.SetLevel(zapcore.InfoLevel)
	}
}

func core() zapcore.Core {
	once.Do(func() {
		encoderCfg := zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			MessageKey:     "msg",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
		}

		logPath := "app.log"
		if dir, err := appdir.Dir(); err == nil {
			logPath = dir + "/app.log"
		}

		writer := &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			Compress:   false,
		}

		sharedCore = zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderCfg),
			zapcore.AddSync(writer),
			level,
		)
	})
	return sharedCore
}

// Get returns a named logger, analogous to the Python get_logger(name).
// Names are typically dotted package paths (e.g. "resource", "kube.kubectl").
func Get(name string) *zap.Logger {
	return zap.New(core()).Named(strings.TrimPrefix(name, "github.com/sycdan/devexy/"))
}
