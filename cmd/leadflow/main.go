package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/smallbiznis/leadflow/internal/audit"
	"github.com/smallbiznis/leadflow/internal/clock"
	"github.com/smallbiznis/leadflow/internal/config"
	"github.com/smallbiznis/leadflow/internal/dispatcher"
	"github.com/smallbiznis/leadflow/internal/distribution"
	"github.com/smallbiznis/leadflow/internal/lead"
	"github.com/smallbiznis/leadflow/internal/ledger"
	"github.com/smallbiznis/leadflow/internal/logger"
	"github.com/smallbiznis/leadflow/internal/migration"
	"github.com/smallbiznis/leadflow/internal/niche"
	"github.com/smallbiznis/leadflow/internal/notification"
	"github.com/smallbiznis/leadflow/internal/observability/metrics"
	"github.com/smallbiznis/leadflow/internal/provider"
	"github.com/smallbiznis/leadflow/internal/subscription"
	"github.com/smallbiznis/leadflow/pkg/db"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		metrics.Module,
		migration.Module,

		// Domain data
		niche.Module,
		lead.Module,
		provider.Module,
		subscription.Module,
		ledger.Module,
		audit.Module,
		notification.Module,

		// Engine
		distribution.Module,
		dispatcher.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
