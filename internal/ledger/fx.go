package ledger

import (
	"github.com/smallbiznis/leadflow/internal/ledger/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("ledger",
	fx.Provide(
		repository.Provide,
	),
)
