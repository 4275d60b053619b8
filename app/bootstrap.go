// app/bootstrap.go
package app

import (
	"context"

	"neighborly/config"

	"go.uber.org/zap"
)

type AdminPromoter interface {
	PromoteAdmins(ctx context.Context, usernames []string) (int64, error)
}

// SyncAdmins grants the admin flag to every user listed in ADMIN_EMAILS.
func SyncAdmins(ctx context.Context, cfg config.Config, repo AdminPromoter, log *zap.Logger) {
	if len(cfg.AdminEmails) == 0 {
		return
	}
	n, err := repo.PromoteAdmins(ctx, cfg.AdminEmails)
	if err != nil {
		log.Warn("admin sync failed", zap.Error(err))
		return
	}
	if n > 0 {
		log.Info("promoted configured admins", zap.Int64("count", n))
	}
}
