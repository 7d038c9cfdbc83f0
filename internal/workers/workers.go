package workers

import (
	"time"

	"github.com/rs/zerolog/log"

	"secondbrain/internal/engine/content"
)

// PurgeDeletedContent hard-deletes content rows soft-deleted longer ago
// than the retention window, together with their tag joins and attachment
// metadata.
func PurgeDeletedContent(repo *content.Repository, retention time.Duration) error {
	cutoff := time.Now().Add(-retention).Unix()

	n, err := repo.PurgeDeletedBefore(cutoff)
	if err != nil {
		return err
	}
	if n > 0 {
		log.Info().Int64("purged", n).Msg("purged soft-deleted content")
	}
	return nil
}
