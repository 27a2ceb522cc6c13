package migration

import (
	"fmt"

	"gorm.io/gorm"

	coreport "github.com/amoria-global/faxon-sub002/internal/domain/port/core"
)

// indexDefinition describes a single index to ensure on the schema.
type indexDefinition struct {
	name string
	sql  string
}

// IndexManager creates the indexes the query paths depend on. GORM's
// AutoMigrate handles the indexes declared on the models; this covers
// the partial and expression indexes it cannot express.
type IndexManager struct {
	db     *gorm.DB
	logger coreport.Logger
}

// NewIndexManager creates a new index manager
func NewIndexManager(db *gorm.DB, logger coreport.Logger) *IndexManager {
	return &IndexManager{
		db:     db,
		logger: logger,
	}
}

// CreateIndexes ensures all supplementary indexes exist.
func (im *IndexManager) CreateIndexes() error {
	indexes := []indexDefinition{
		{
			// Sweep query: completed transactions still waiting for distribution.
			name: "idx_transactions_pending_distribution",
			sql: `CREATE INDEX IF NOT EXISTS idx_transactions_pending_distribution
				ON transactions (distribution_attempts, created_at)
				WHERE status = 'COMPLETED' AND distribution_state = 'PENDING'`,
		},
		{
			// Status poller: non-terminal transactions ordered oldest first.
			name: "idx_transactions_open_by_age",
			sql: `CREATE INDEX IF NOT EXISTS idx_transactions_open_by_age
				ON transactions (created_at)
				WHERE status IN ('SUBMITTED', 'PENDING_PROVIDER')`,
		},
		{
			name: "idx_transactions_provider_ref",
			sql: `CREATE INDEX IF NOT EXISTS idx_transactions_provider_ref
				ON transactions (provider, provider_transaction_ref)
				WHERE provider_transaction_ref <> ''`,
		},
		{
			// Statement query: newest entries first per party.
			name: "idx_ledger_party_recent",
			sql: `CREATE INDEX IF NOT EXISTS idx_ledger_party_recent
				ON wallet_ledger_entries (party_id, created_at DESC, id DESC)`,
		},
		{
			name: "idx_ledger_transaction_id",
			sql: `CREATE INDEX IF NOT EXISTS idx_ledger_transaction_id
				ON wallet_ledger_entries (transaction_id)`,
		},
	}

	for _, idx := range indexes {
		if err := im.db.Exec(idx.sql).Error; err != nil {
			im.logger.Error("Failed to create index", map[string]any{
				"index": idx.name,
				"error": err.Error(),
			})
			return fmt.Errorf("create index %s: %w", idx.name, err)
		}
		im.logger.Debug("Ensured index", map[string]any{"index": idx.name})
	}

	return nil
}
