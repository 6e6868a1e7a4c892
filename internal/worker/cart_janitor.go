package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/brookemaisy/storefront-api/internal/repository"
)

// CartJanitor reclaims carts nobody has touched for longer than the
// configured window. Guest sessions expire and their carts would otherwise
// pile up forever.
type CartJanitor struct {
	cartRepo repository.CartRepository
	after    time.Duration
	cron     *cron.Cron
	log      *slog.Logger
}

func NewCartJanitor(cartRepo repository.CartRepository, after time.Duration, log *slog.Logger) *CartJanitor {
	return &CartJanitor{
		cartRepo: cartRepo,
		after:    after,
		cron:     cron.New(),
		log:      log,
	}
}

func (j *CartJanitor) Start(spec string) error {
	if _, err := j.cron.AddFunc(spec, j.sweep); err != nil {
		return err
	}
	j.cron.Start()
	j.log.Info("cart janitor started", "schedule", spec, "abandoned_after", j.after)
	return nil
}

func (j *CartJanitor) Stop() {
	ctx := j.cron.Stop()
	<-ctx.Done()
}

func (j *CartJanitor) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	deleted, err := j.cartRepo.DeleteAbandoned(ctx, time.Now().Add(-j.after))
	if err != nil {
		j.log.Error("sweep abandoned carts", "error", err)
		return
	}
	if deleted > 0 {
		j.log.Info("swept abandoned carts", "deleted", deleted)
	}
}
