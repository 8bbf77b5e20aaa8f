package provider

import (
	"github.com/smallbiznis/leadflow/internal/provider/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("provider",
	fx.Provide(
		repository.Provide,
	),
)
