package registry

import (
	"errors"
	"log/slog"
	"math/big"
	"sync"

	"github.com/amaracantik180418/code-wiz-2000/interfaces"
)

// LedgerSink is an in-memory treasury sink keeping per-recipient running
// totals. The service deployment uses it as the accounting ledger for
// forwarded fees; tests use it to check that collected fees match
// registrations exactly.
type LedgerSink struct {
	mu     sync.RWMutex
	totals map[interfaces.Address]*big.Int
	log    *slog.Logger
}

// NewLedgerSink creates an empty ledger sink.
func NewLedgerSink(log *slog.Logger) *LedgerSink {
	return &LedgerSink{
		totals: make(map[interfaces.Address]*big.Int),
		log:    log,
	}
}

// Forward credits the amount to the recipient's running total.
func (s *LedgerSink) Forward(recipient interfaces.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return errors.New("forward amount must be a non-negative amount")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	total, ok := s.totals[recipient]
	if !ok {
		total = new(big.Int)
		s.totals[recipient] = total
	}
	total.Add(total, amount)

	s.log.Debug("Fee forwarded",
		slog.String("recipient", recipient.String()),
		slog.String("amount", amount.String()),
		slog.String("total", total.String()))

	return nil
}

// TotalFor returns the cumulative amount forwarded to the recipient.
func (s *LedgerSink) TotalFor(recipient interfaces.Address) *big.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total, ok := s.totals[recipient]
	if !ok {
		return new(big.Int)
	}
	return new(big.Int).Set(total)
}
