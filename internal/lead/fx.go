package lead

import (
	"github.com/smallbiznis/leadflow/internal/lead/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("lead",
	fx.Provide(
		repository.Provide,
	),
)
