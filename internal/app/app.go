// Package app собирает сервисы баллов поверх выбранного хранилища.
// Общая сборка для сервера, pointsctl и тестов API.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/emotionalcenter/amistapp/internal/award"
	"github.com/emotionalcenter/amistapp/internal/cache"
	"github.com/emotionalcenter/amistapp/internal/config"
	"github.com/emotionalcenter/amistapp/internal/db"
	"github.com/emotionalcenter/amistapp/internal/idempotency"
	"github.com/emotionalcenter/amistapp/internal/ledger"
	"github.com/emotionalcenter/amistapp/internal/memstore"
	"github.com/emotionalcenter/amistapp/internal/notify"
	"github.com/emotionalcenter/amistapp/internal/redemption"
	"github.com/emotionalcenter/amistapp/internal/report"
	"github.com/emotionalcenter/amistapp/internal/streak"
)

// Store: всё, что нужно сервисам. Реализуют memstore.Store и db.Store.
type Store interface {
	ledger.Store
	award.Catalog
	streak.Store
	redemption.Store
	report.Store
	notify.InboxStore
	db.ActionUpserter
	Ping(ctx context.Context) error
}

var (
	_ Store = (*memstore.Store)(nil)
	_ Store = (*db.Store)(nil)
)

type App struct {
	Store      Store
	Ledger     *ledger.Ledger
	Award      *award.Engine
	Streak     *streak.Tracker
	Redemption *redemption.Machine
	Reports    *report.Workflow
	Inbox      *notify.Inbox
	Dispatcher *notify.Dispatcher
}

// Build связывает сервисы. Уведомления всегда пишутся в inbox, extra: дополнительные каналы.
func Build(cfg *config.Config, store Store, guard idempotency.Guard, log *zap.Logger, extra ...notify.Sink) *App {
	if log == nil {
		log = zap.NewNop()
	}
	sinks := append([]notify.Sink{notify.NewInboxSink(store)}, extra...)
	d := notify.NewDispatcher(log, sinks...)

	l := ledger.New(store, log)
	return &App{
		Store:      store,
		Ledger:     l,
		Award:      award.New(l, store, guard, d, cfg.IdempotencyTTL, log),
		Streak:     streak.New(store, d, streak.Config{BonusEvery: cfg.StreakBonusEvery, BonusPoints: cfg.StreakBonusPoints, Location: cfg.Location()}, log),
		Redemption: redemption.New(store, d, log),
		Reports:    report.New(store, d, log),
		Inbox:      notify.NewInbox(store),
		Dispatcher: d,
	}
}

// Backend: хранилище и окно идемпотентности с ресурсами, которые надо закрыть.
type Backend struct {
	Store Store
	Guard idempotency.Guard
	// DB и Redis nil, если работаем в памяти.
	DB    *sql.DB
	Redis *redis.Client

	closers []func()
}

func (b *Backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// Sinks: дополнительные каналы уведомлений для этого бэкенда.
func (b *Backend) Sinks(cfg *config.Config, log *zap.Logger) []notify.Sink {
	sinks := []notify.Sink{notify.NewLogSink(log)}
	if b.Redis != nil {
		sinks = append(sinks, notify.NewPubSubSink(b.Redis, cfg.NotifyChannel))
	}
	return sinks
}

// Open выбирает Postgres или память по DATABASE_URL, Redis или память по REDIS_URL.
// Postgres мигрируется при открытии.
func Open(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Backend, error) {
	b := &Backend{}
	if cfg.UsePostgres() {
		database, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = database.Close() })
		if err := db.Migrate(ctx, database); err != nil {
			b.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		b.DB = database
		b.Store = db.New(database)
		log.Info("store: postgres")
	} else {
		b.Store = memstore.New()
		log.Warn("store: in-memory, data is lost on restart")
	}

	if cfg.RedisURL != "" {
		rdb, err := cache.Open(ctx, cfg.RedisURL)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.closers = append(b.closers, func() { _ = rdb.Close() })
		b.Redis = rdb
		b.Guard = idempotency.NewRedis(rdb, "")
		log.Info("idempotency: redis")
	} else {
		b.Guard = idempotency.NewMemory()
	}
	return b, nil
}
