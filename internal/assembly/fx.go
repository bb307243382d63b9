package assembly

import (
	"github.com/c3s/memberadmin/internal/assembly/service"
	"go.uber.org/fx"
)

var Module = fx.Module("assembly",
	fx.Provide(service.NewService),
)
