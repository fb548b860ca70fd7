package observability

import (
	"os"

	"github.com/danmuck/receiptkit/internal/logging"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger installs a process logger tagged with app. Output goes to
// stderr so decoded receipts can own stdout.
func InitLogger(app string) zerolog.Logger {
	cfg := logging.Current()
	ctx := zerolog.New(logging.NewWriter(os.Stderr, cfg)).With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	logger := ctx.Str("app", app).Logger()
	log.Logger = logger
	return logger
}
