// Package signalfile implements the execution context's SignalWriter port:
// an append-only NDJSON file plus a stdout echo, the sole persisted trace
// of every opportunity the bot decided to act on.
package signalfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/aptosarb/arbitrage-bot/business/execution/domain"
	"github.com/aptosarb/arbitrage-bot/internal/apperror"
	"github.com/aptosarb/arbitrage-bot/internal/logger"
)

// Writer appends one JSON line per Signal to path, creating parent
// directories as needed, and echoes a concise line through logger.
type Writer struct {
	mu     sync.Mutex
	file   *os.File
	logger logger.LoggerInterface
}

// New opens (creating if necessary) the NDJSON file at path for appending.
func New(path string, log logger.LoggerInterface) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, apperror.Internal(apperror.CodeInternalError, "signalfile.new: mkdir", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, apperror.Internal(apperror.CodeInternalError, "signalfile.new: open", err)
	}
	return &Writer{file: f, logger: log}, nil
}

// Write implements execution/app.SignalWriter.
func (w *Writer) Write(sig domain.Signal) error {
	line, err := json.Marshal(sig)
	if err != nil {
		return apperror.Internal(apperror.CodeInternalError, "signalfile.write: marshal", err)
	}
	line = append(line, '\n')

	w.mu.Lock()
	_, writeErr := w.file.Write(line)
	w.mu.Unlock()
	if writeErr != nil {
		return apperror.Internal(apperror.CodeInternalError, "signalfile.write: append", writeErr)
	}

	w.logger.Info(context.Background(), "signal",
		"shape", sig.Shape, "direction", sig.Direction, "outcome", string(sig.Outcome),
		"net_profit", sig.NetProfit.String(), "qty", sig.Qty.String())
	return nil
}

// Close closes the underlying file.
func (w *Writer) Close() error {
	return w.file.Close()
}
