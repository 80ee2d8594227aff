// Package logging builds the process logger and routes client-go's klog
// output through it.
package logging

import (
	"fmt"
	"io"

	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"k8s.io/klog/v2"
)

const (
	// JSONFormat represents JSON logging mode.
	JSONFormat = "json"
	// TextFormat represents text logging mode.
	// Default logging mode is TextFormat.
	TextFormat = "text"
)

// New returns a logger writing to w in format. Verbose enables debug level;
// otherwise only warnings and errors are written.
func New(format string, verbose bool, w io.Writer) (*zap.Logger, error) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	switch format {
	case TextFormat, "":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	case JSONFormat:
		enc = zapcore.NewJSONEncoder(encCfg)
	default:
		return nil, fmt.Errorf("log format %q not recognized, pass `text` or `json`", format)
	}

	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	core := zapcore.NewCore(enc, zapcore.AddSync(w), level)
	return zap.New(core), nil
}

// Setup builds the logger and installs it as klog's sink, so client-go
// warnings share the same format and destination.
func Setup(format string, verbose bool, w io.Writer) (*zap.Logger, error) {
	logger, err := New(format, verbose, w)
	if err != nil {
		return nil, err
	}
	klog.SetLogger(zapr.NewLogger(logger.Named("client-go")))
	return logger, nil
}
