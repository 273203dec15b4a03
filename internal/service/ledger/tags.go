package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// normalizeTags trims names, drops empties and duplicates, and sorts the
// result so concurrent units upsert shared tags in the same order.
func normalizeTags(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (s *Service) linkTags(ctx context.Context, tx *sql.Tx, ownerID uuid.UUID, names []string, transactionIDs ...uuid.UUID) error {
	for _, name := range names {
		tagID, err := s.tags.Upsert(ctx, tx, ownerID, name)
		if err != nil {
			return fmt.Errorf("linkTags: %q: %w", name, err)
		}
		for _, txnID := range transactionIDs {
			if err := s.tags.Link(ctx, tx, txnID, tagID); err != nil {
				return fmt.Errorf("linkTags: %q: %w", name, err)
			}
		}
	}
	return nil
}
