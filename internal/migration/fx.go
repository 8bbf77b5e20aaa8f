package migration

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	auditdomain "github.com/smallbiznis/leadflow/internal/audit/domain"
	"github.com/smallbiznis/leadflow/internal/config"
	distributiondomain "github.com/smallbiznis/leadflow/internal/distribution/domain"
	leaddomain "github.com/smallbiznis/leadflow/internal/lead/domain"
	ledgerdomain "github.com/smallbiznis/leadflow/internal/ledger/domain"
	nichedomain "github.com/smallbiznis/leadflow/internal/niche/domain"
	providerdomain "github.com/smallbiznis/leadflow/internal/provider/domain"
	subscriptiondomain "github.com/smallbiznis/leadflow/internal/subscription/domain"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// Versioned SQL migrations are written for postgres. Other dialects
		// (sqlite for local runs) fall back to schema sync.
		if cfg.DBType != "postgres" {
			return conn.AutoMigrate(
				&nichedomain.Niche{},
				&nichedomain.CompetitionLevel{},
				&nichedomain.NicheField{},
				&leaddomain.Lead{},
				&providerdomain.Provider{},
				&subscriptiondomain.Subscription{},
				&distributiondomain.Assignment{},
				&ledgerdomain.LedgerEntry{},
				&auditdomain.AuditLog{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
