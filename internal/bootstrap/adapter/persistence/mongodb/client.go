package mongodb

import (
	"context"
	"time"

	"setdb-init/internal/shared/logger"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const appName = "setdb-init"

// ClientConfig holds the settings used to open the admin connection
type ClientConfig struct {
	URI            string
	ConnectTimeout time.Duration
	// DriverLog forwards driver command and topology events to the logger
	DriverLog bool
}

// clientOptions builds the driver options for cfg
func clientOptions(cfg ClientConfig, log logger.Logger) *options.ClientOptions {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetAppName(appName)

	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout).
			SetServerSelectionTimeout(cfg.ConnectTimeout)
	}

	if cfg.DriverLog && log != nil {
		opts.SetLoggerOptions(options.Logger().
			SetSink(NewLogSink(log)).
			SetMaxDocumentLength(512).
			SetComponentLevel(options.LogComponentCommand, options.LogLevelDebug).
			SetComponentLevel(options.LogComponentTopology, options.LogLevelInfo))
	}
	return opts
}

// Connect opens a client for cfg. The server is not contacted until the first
// operation, so callers should Ping before relying on the connection.
func Connect(ctx context.Context, cfg ClientConfig, log logger.Logger) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, clientOptions(cfg, log))
	if err != nil {
		return nil, classifyError(err, "connect")
	}
	return client, nil
}
