package game

import (
	"fmt"

	"starhold/pkg/core"
	"starhold/pkg/types"
)

// appendLedger mirrors a balance mutation into the audit trail. It is always
// the last step of a mutation and uses the balance after it. The ledger is an
// audit log, not the source of truth: a failed append is logged and the
// balance mutation stands.
func (e *Engine) appendLedger(empireID, amount int64, reason, note string, balanceAfter int64) {
	prev, err := e.store.LastLedgerHash(empireID)
	if err != nil {
		e.errlog.Printf("ledger: read chain head for empire %d: %v", empireID, err)
		prev = ""
	}
	ts := e.nowMs()
	payload := fmt.Sprintf("%d|%d|%s|%s|%d|%d", empireID, amount, reason, note, balanceAfter, ts)
	entry := types.LedgerEntry{
		EmpireID:  empireID,
		Amount:    amount,
		Reason:    reason,
		Note:      note,
		Balance:   balanceAfter,
		PrevHash:  prev,
		Hash:      core.ChainHash(prev, []byte(payload)),
		Timestamp: ts,
	}
	if _, err := e.store.AppendLedger(entry); err != nil {
		e.errlog.Printf("ledger: append failed for empire %d (%s %+d): %v", empireID, reason, amount, err)
	}
}

// LedgerHistory returns the most recent entries, newest first.
func (e *Engine) LedgerHistory(empireID int64, limit int) ([]types.LedgerEntry, error) {
	entries, err := e.store.LedgerHistory(empireID, limit)
	if err != nil {
		return nil, errServer(err, "ledger history")
	}
	return entries, nil
}
