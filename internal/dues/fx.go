package dues

import (
	"github.com/c3s/memberadmin/internal/dues/service"
	"go.uber.org/fx"
)

var Module = fx.Module("dues",
	fx.Provide(service.NewService),
)
