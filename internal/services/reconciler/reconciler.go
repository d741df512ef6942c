// Package reconciler computes account balances from transaction
// sequences and verifies them against provider-reported running totals.
package reconciler

import (
	"github.com/shopspring/decimal"

	"github.com/JustKiet/finkeith/internal/domain"
)

// defaultTolerance is one smallest currency unit. VND has no subunit,
// so anything below a whole dong is rounding noise.
var defaultTolerance = decimal.NewFromInt(1)

// Reconciler sums transaction amounts with exact decimal arithmetic
// and cross-checks provider accumulated balances where present.
type Reconciler struct {
	tolerance decimal.Decimal
}

// New creates a Reconciler. A non-positive tolerance falls back to one
// smallest currency unit.
func New(tolerance decimal.Decimal) *Reconciler {
	if tolerance.LessThanOrEqual(decimal.Zero) {
		tolerance = defaultTolerance
	}
	return &Reconciler{tolerance: tolerance}
}

// ComputeBalance returns startingBalance + Σ(amount_in) - Σ(amount_out)
// over records, which the caller must supply in chronological ascending
// order. The input is never sorted here: silent reordering would hide
// upstream ordering bugs the consistency check should surface instead.
//
// When records carry accumulated balances, each one is verified against
// the running sum. The first divergence beyond the tolerance is
// returned as a BalanceInconsistencyError alongside the computed
// balance; the computation itself always completes.
func (r *Reconciler) ComputeBalance(records []domain.Transaction, startingBalance decimal.Decimal) (decimal.Decimal, *domain.BalanceInconsistencyError) {
	running := startingBalance

	var inconsistency *domain.BalanceInconsistencyError
	for i, tx := range records {
		running = running.Add(tx.AmountIn).Sub(tx.AmountOut)

		if tx.Accumulated == nil || inconsistency != nil {
			continue
		}
		if running.Sub(*tx.Accumulated).Abs().GreaterThan(r.tolerance) {
			inconsistency = &domain.BalanceInconsistencyError{
				TransactionID: tx.ID,
				Index:         i,
				Computed:      running,
				Reported:      *tx.Accumulated,
			}
		}
	}

	return running, inconsistency
}

// AnchorBalance derives the balance the account must have held just
// before the first record that reports an accumulated total. It lets a
// caller with no independent opening balance reconcile a window of
// history against the provider's own running figures. Returns false
// when no record carries an accumulated balance.
func AnchorBalance(records []domain.Transaction) (decimal.Decimal, bool) {
	net := decimal.Zero
	for _, tx := range records {
		net = net.Add(tx.Net())
		if tx.Accumulated != nil {
			return tx.Accumulated.Sub(net), true
		}
	}
	return decimal.Zero, false
}
