package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/shop/internal/storage/postgres"
)

// migrate применяет или откатывает миграции схемы PostgreSQL.
// DSN берётся из флага -dsn или переменной окружения SHOP_POSTGRES_DSN.
func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	var (
		action = flag.String("action", "up", "up | down | status")
		steps  = flag.Int("steps", 0, "сколько миграций применить/откатить (0 для up = все)")
		dsn    = flag.String("dsn", os.Getenv("SHOP_POSTGRES_DSN"), "PostgreSQL DSN")
	)
	flag.Parse()

	if *dsn == "" {
		log.Fatal("не задан DSN: используйте -dsn или SHOP_POSTGRES_DSN")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	store, err := postgres.Open(ctx, *dsn)
	if err != nil {
		log.WithError(err).Fatal("не удалось подключиться к postgres")
	}
	defer func() {
		_ = store.Close()
	}()

	switch *action {
	case "up":
		if err := store.MigrateUp(ctx, *steps); err != nil {
			log.WithError(err).Fatal("migrate up failed")
		}
		log.Info("миграции применены")
	case "down":
		if err := store.MigrateDown(ctx, *steps); err != nil {
			log.WithError(err).Fatal("migrate down failed")
		}
		log.Info("миграции откатаны")
	case "status":
		version, count, err := store.MigrationStatus(ctx)
		if err != nil {
			log.WithError(err).Fatal("migration status failed")
		}
		fmt.Printf("version=%d applied=%d\n", version, count)
	default:
		log.Fatalf("неизвестное действие: %s", *action)
	}
}
