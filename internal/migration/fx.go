package migration

import (
	"github.com/c3s/memberadmin/internal/config"
	"go.uber.org/fx"
	"gorm.io/gorm"

	assemblydomain "github.com/c3s/memberadmin/internal/assembly/domain"
	duesdomain "github.com/c3s/memberadmin/internal/dues/domain"
	memberdomain "github.com/c3s/memberadmin/internal/member/domain"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// Embedded migrations target postgres; sqlite setups (local
		// development, throwaway environments) migrate through gorm.
		if cfg.DBType != "postgres" {
			return conn.AutoMigrate(
				&memberdomain.Member{},
				&memberdomain.DuesRecord{},
				&duesdomain.Invoice{},
				&assemblydomain.GeneralAssembly{},
				&assemblydomain.Invitation{},
			)
		}
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
