package niche

import (
	"github.com/smallbiznis/leadflow/internal/niche/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("niche",
	fx.Provide(
		repository.Provide,
	),
)
