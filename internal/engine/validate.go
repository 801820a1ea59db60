package engine

import (
	"fmt"

	"github.com/dcwatch/dcwatch/internal/contracts"
	"github.com/dcwatch/dcwatch/pkg/logger"
)

// Validator screens a snapshot before any analytics component touches it.
type Validator struct {
	logger *logger.Logger
}

// NewValidator creates a new snapshot validator.
func NewValidator(log *logger.Logger) *Validator {
	return &Validator{logger: log}
}

// Screen partitions trades into usable and malformed. Malformed trades
// are reported by identity in diag, in input order, and excluded from
// every downstream component. The input is never mutated.
func (v *Validator) Screen(trades []*contracts.Trade, diag *contracts.Diagnostics) []*contracts.Trade {
	valid := make([]*contracts.Trade, 0, len(trades))
	seen := make(map[string]struct{}, len(trades))

	for _, t := range trades {
		if reason, detail, ok := v.check(t, seen); !ok {
			diag.AddMalformed(t, reason, detail)
			continue
		}
		seen[t.ID] = struct{}{}
		valid = append(valid, t)
	}

	if n := len(trades) - len(valid); n > 0 {
		v.logger.WithFields(map[string]interface{}{
			"total":     len(trades),
			"malformed": n,
		}).Warn("Snapshot contains malformed trades")
	}

	return valid
}

// check returns the first failing rule for a trade.
func (v *Validator) check(t *contracts.Trade, seen map[string]struct{}) (contracts.MalformedReason, string, bool) {
	if t.Politician == "" {
		return contracts.ReasonEmptyPolitician, "", false
	}
	if !t.TxType.Known() {
		return contracts.ReasonUnknownTxType, fmt.Sprintf("tx_type %q", t.TxType), false
	}
	if !t.Party.Known() {
		return contracts.ReasonUnknownParty, fmt.Sprintf("party %q", t.Party), false
	}
	if !t.Chamber.Known() {
		return contracts.ReasonUnknownChamber, fmt.Sprintf("chamber %q", t.Chamber), false
	}
	if t.TxDate.IsZero() {
		return contracts.ReasonMissingTxDate, "", false
	}
	if !t.DisclosureDate.IsZero() && t.DisclosureDate.Before(t.TxDate) {
		detail := fmt.Sprintf("disclosed %s before transaction %s", t.DisclosureDate, t.TxDate)
		return contracts.ReasonNegativeDaysLate, detail, false
	}
	if t.AmountHigh < t.AmountLow {
		detail := fmt.Sprintf("amount band %d..%d inverted", t.AmountLow, t.AmountHigh)
		return contracts.ReasonInvertedAmountBand, detail, false
	}
	if _, dup := seen[t.ID]; dup {
		return contracts.ReasonDuplicateTradeID, "", false
	}
	return "", "", true
}
