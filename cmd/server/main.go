package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/splitpro/splitpro-backend/internal/adapter/repository/postgres"
	"github.com/splitpro/splitpro-backend/internal/adapter/repository/sqlite"
	"github.com/splitpro/splitpro-backend/internal/config"
	"github.com/splitpro/splitpro-backend/internal/domain"
	httpadapter "github.com/splitpro/splitpro-backend/internal/http"
	"github.com/splitpro/splitpro-backend/internal/usecase/balance"
	"github.com/splitpro/splitpro-backend/internal/usecase/expense"
	"github.com/splitpro/splitpro-backend/internal/usecase/friend"
	"github.com/splitpro/splitpro-backend/internal/usecase/group"
	"github.com/splitpro/splitpro-backend/internal/usecase/ledger"
	"github.com/splitpro/splitpro-backend/internal/usecase/settlement"
	"github.com/splitpro/splitpro-backend/internal/usecase/user"
	"github.com/splitpro/splitpro-backend/pkg/logging"
)

// repositories bundles the storage implementations behind one driver choice.
type repositories struct {
	users       domain.UserRepository
	friends     domain.FriendRepository
	expenses    domain.ExpenseRepository
	groups      domain.GroupRepository
	settlements domain.SettlementRepository
	closer      io.Closer
}

func main() {
	_ = godotenv.Load()
	logging.Setup()

	cfg := config.Load(os.Getenv)
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	repos, err := openRepositories(cfg)
	if err != nil {
		return err
	}
	defer repos.closer.Close()

	ldg := ledger.NewLedger(repos.friends)

	userService := user.NewService(repos.users)
	friendService := friend.NewService(repos.friends, repos.users)
	balanceService := balance.NewService(repos.friends)
	expenseService := expense.NewService(repos.expenses, repos.users, repos.groups, ldg)
	groupService := group.NewService(repos.groups, repos.users, repos.expenses)
	settlementService := settlement.NewService(repos.settlements, repos.users, ldg)

	server := httpadapter.NewServer(
		":"+cfg.Port,
		userService,
		friendService,
		balanceService,
		expenseService,
		groupService,
		settlementService,
		ldg,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("server listening", "addr", server.Addr, "driver", cfg.StorageDriver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openRepositories(cfg *config.Config) (*repositories, error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		db, err := postgres.NewDB(cfg.PostgresDSN())
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return &repositories{
			users:       postgres.NewUserRepository(db),
			friends:     postgres.NewFriendRepository(db),
			expenses:    postgres.NewExpenseRepository(db),
			groups:      postgres.NewGroupRepository(db),
			settlements: postgres.NewSettlementRepository(db),
			closer:      db,
		}, nil
	case config.DriverSQLite:
		store, err := sqlite.New(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		return &repositories{
			users:       sqlite.NewUserRepository(store),
			friends:     sqlite.NewFriendRepository(store),
			expenses:    sqlite.NewExpenseRepository(store),
			groups:      sqlite.NewGroupRepository(store),
			settlements: sqlite.NewSettlementRepository(store),
			closer:      store,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.StorageDriver)
	}
}
