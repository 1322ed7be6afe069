package logging

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"
)

// Fields are additional key/value pairs attached to a log line.
type Fields map[string]any

// Logger writes one JSON object per line. It is safe for concurrent use.
//
// Every line carries:
// - ts (RFC3339Nano in the configured location)
// - level ("info" unless an error is attached)
// - msg
type Logger struct {
	mu  sync.Mutex
	enc *json.Encoder
	loc *time.Location
}

// New creates a Logger writing to w. A nil loc means UTC.
func New(w io.Writer, loc *time.Location) *Logger {
	if loc == nil {
		loc = time.UTC
	}
	return &Logger{enc: json.NewEncoder(w), loc: loc}
}

// Default returns a Logger writing to stdout in UTC.
func Default() *Logger {
	return New(os.Stdout, time.UTC)
}

// Log writes data as-is after stamping ts and a default level.
func (l *Logger) Log(data Fields) {
	if data == nil {
		data = Fields{}
	}
	data["ts"] = time.Now().In(l.loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if _, failed := data["error"]; failed {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.enc.Encode(data)
}

// Info logs msg at info level.
func (l *Logger) Info(msg string, fields Fields) {
	data := merge(fields)
	data["level"] = "info"
	data["msg"] = msg
	l.Log(data)
}

// Error logs msg at error level with err attached.
func (l *Logger) Error(msg string, err error, fields Fields) {
	data := merge(fields)
	data["level"] = "error"
	data["msg"] = msg
	if err != nil {
		data["error"] = err.Error()
	}
	l.Log(data)
}

func merge(fields Fields) Fields {
	data := make(Fields, len(fields)+3)
	for k, v := range fields {
		data[k] = v
	}
	return data
}
