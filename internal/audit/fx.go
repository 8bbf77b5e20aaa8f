package audit

import (
	"github.com/smallbiznis/leadflow/internal/audit/repository"
	"github.com/smallbiznis/leadflow/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
