package users

import (
	"context"
	"fmt"
)

// Directory resolves employee ids to display profiles for claim enrichment.
type Directory struct {
	repo UserRepository
}

func NewDirectory(r UserRepository) *Directory {
	return &Directory{repo: r}
}

// ResolveNames looks up the given ids in batches of at most MaxLookupBatch.
// Duplicates and empty ids are dropped; ids without a profile are absent from
// the result.
func (d *Directory) ResolveNames(ctx context.Context, ids []string) (map[string]Profile, error) {
	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	out := make(map[string]Profile, len(unique))
	for start := 0; start < len(unique); start += MaxLookupBatch {
		end := start + MaxLookupBatch
		if end > len(unique) {
			end = len(unique)
		}
		found, err := d.repo.FindByUIDs(ctx, unique[start:end])
		if err != nil {
			return nil, fmt.Errorf("resolve names batch %d: %w", start/MaxLookupBatch, err)
		}
		for _, u := range found {
			out[u.UID] = u.Profile()
		}
	}
	return out, nil
}
