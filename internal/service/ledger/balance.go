package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// balanceDeltas accumulates the signed effect of one unit of work per
// account so each touched account is incremented exactly once.
type balanceDeltas map[uuid.UUID]decimal.Decimal

func (d balanceDeltas) add(accountID uuid.UUID, delta decimal.Decimal) {
	d[accountID] = d[accountID].Add(delta)
}

// apply increments each account by its net delta in ascending id order, so
// two units touching the same pair of accounts take row locks in the same
// order.
func (d balanceDeltas) apply(ctx context.Context, tx *sql.Tx, accounts accountRepo, ownerID uuid.UUID) error {
	ids := make([]uuid.UUID, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].String() < ids[j].String()
	})

	for _, id := range ids {
		delta := d[id]
		if delta.IsZero() {
			continue
		}
		if err := accounts.IncrementBalance(ctx, tx, id, ownerID, delta); err != nil {
			return fmt.Errorf("apply: %w", err)
		}
	}
	return nil
}
