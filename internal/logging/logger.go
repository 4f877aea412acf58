package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the process-wide logger. It writes to stderr until Init is called.
var Logger = logrus.New()

var once sync.Once

// EventFormatter renders "Date, Time, Event Source, Event Type, Message" lines.
type EventFormatter struct {
	SystemName string
}

func (f *EventFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	b := entry.Buffer
	if b == nil {
		b = &bytes.Buffer{}
	}

	b.WriteString(fmt.Sprintf("Date: %s, Time: %s, ", entry.Time.Format("2006-01-02"), entry.Time.Format("15:04:05")))
	b.WriteString(fmt.Sprintf("Event Source: %s, ", f.SystemName))
	b.WriteString(fmt.Sprintf("Event Type: %s, ", strings.ToUpper(entry.Level.String())))
	b.WriteString(fmt.Sprintf("Message: %s", entry.Message))

	for key, value := range entry.Data {
		b.WriteString(fmt.Sprintf(", %s: %v", key, value))
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

// Options configures Init.
type Options struct {
	SystemName string
	File       string
	Level      string
}

// Init points Logger at stdout and a rotating log file. Only the first call has an effect.
func Init(opts Options) {
	once.Do(func() {
		writers := []io.Writer{os.Stdout}

		if opts.File != "" {
			if err := os.MkdirAll(filepath.Dir(opts.File), 0o700); err != nil {
				Logger.Warnf("Event ID: LOG_DIR_CREATE_FAILED, Description: Failed to create log directory: %v", err)
			} else {
				writers = append(writers, &lumberjack.Logger{
					Filename:   opts.File,
					MaxSize:    10, // megabytes
					MaxBackups: 3,
					MaxAge:     28, // days
					Compress:   true,
				})
			}
		}

		Logger.SetOutput(io.MultiWriter(writers...))
		Logger.SetFormatter(&EventFormatter{SystemName: opts.SystemName})

		level, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			level = logrus.InfoLevel
		}
		Logger.SetLevel(level)

		Logger.Infof("Event ID: LOGGER_INITIALIZED, Description: Logger initialized for %s, level %s", opts.SystemName, level)
	})
}
