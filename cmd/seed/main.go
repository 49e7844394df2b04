package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/loan-simulator/config"
	"github.com/oksasatya/loan-simulator/internal/domain/entity"
	repo "github.com/oksasatya/loan-simulator/internal/domain/repository"
	"github.com/oksasatya/loan-simulator/internal/domain/simulator"
	pginfra "github.com/oksasatya/loan-simulator/internal/infrastructure/postgres"
	"github.com/oksasatya/loan-simulator/internal/infrastructure/redisstore"
	"github.com/oksasatya/loan-simulator/pkg/helpers"
)

type demoApplication struct {
	name, taxID, email, phone string
	amount                    float64
	installments              int
	income, expenses          float64
}

// Three budgets, one per heuristic outcome.
var demoApplications = []demoApplication{
	{"João Silva", "52998224725", "joao.silva@email.com", "11999998888", 20000, 24, 8000, 3000},
	{"Maria Oliveira", "11144477735", "maria.oliveira@email.com", "21988887777", 10000, 12, 3000, 2400},
	{"Carlos Pereira", "39053344705", "carlos.pereira@email.com", "31977776666", 15000, 36, 2500, 2200},
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)
	ctx := context.Background()

	var (
		users repo.UserRepository
		loans repo.LoanRepository
	)
	if cfg.UsePostgres() {
		pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
		if err != nil {
			logger.Fatalf("failed to connect to postgres: %v", err)
		}
		defer pool.Close()
		db := pginfra.OpenDB(pool)
		defer func() { _ = db.Close() }()
		users = pginfra.NewUserRepository(db)
		loans = pginfra.NewLoanRepository(db)
	} else {
		rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer func() { _ = rdb.Close() }()
		users = redisstore.NewUserStore(rdb)
		loans = redisstore.NewLoanStore(rdb)
	}

	customer := ensureUser(ctx, logger, users, "cliente@demo.com", "Cliente123", "Cliente Demo", entity.RoleCustomer)
	ensureUser(ctx, logger, users, "analista@demo.com", "Analista123", "Analista Demo", entity.RoleAnalyst)

	existing, err := loans.ListByUser(ctx, customer.ID)
	if err != nil {
		logger.Fatalf("failed to list applications: %v", err)
	}
	if len(existing) > 0 {
		logger.Infof("customer already has %d applications; skipping demo data", len(existing))
		return
	}

	now := time.Now().UTC()
	for i, d := range demoApplications {
		submitted := now.Add(time.Duration(i-len(demoApplications)) * time.Hour)
		app := &entity.LoanApplication{
			ID:               submitted.UnixMilli(),
			UserID:           customer.ID,
			Amount:           d.amount,
			InstallmentCount: d.installments,
			MonthlyPayment:   simulator.MonthlyPayment(d.amount, d.installments, cfg.LoanMonthlyRate),
			FullName:         d.name,
			TaxID:            d.taxID,
			Email:            d.email,
			Phone:            d.phone,
			BirthDate:        time.Date(1985, time.May, 15, 0, 0, 0, 0, time.UTC),
			Profession:       "Analista",
			MonthlyIncome:    d.income,
			MonthlyExpenses:  d.expenses,
			OwnsProperty:     i == 0,
			AgreedToTerms:    true,
			Status:           simulator.Decide(d.income, d.expenses, d.amount),
			SubmittedAt:      submitted,
		}
		if err := loans.Append(ctx, app); err != nil {
			logger.Fatalf("failed to seed application: %v", err)
		}
		fmt.Printf("seeded application: id=%d name=%s status=%s\n", app.ID, app.FullName, app.Status)
	}
}

func ensureUser(ctx context.Context, logger *logrus.Logger, users repo.UserRepository, email, password, name string, role entity.Role) *entity.User {
	if u, err := users.GetByEmail(ctx, email); err == nil {
		fmt.Printf("user exists: id=%s email=%s role=%s\n", u.ID, u.Email, u.Role)
		return u
	} else if !errors.Is(err, repo.ErrNotFound) {
		logger.Fatalf("failed to look up %s: %v", email, err)
	}
	hash, err := helpers.HashPassword(password)
	if err != nil {
		logger.Fatalf("failed to hash password: %v", err)
	}
	u := &entity.User{Email: email, Password: hash, Name: name, Role: role, NotificationsEnabled: true}
	if err := users.Create(ctx, u); err != nil {
		logger.Fatalf("failed to seed user %s: %v", email, err)
	}
	fmt.Printf("seeded user: id=%s email=%s role=%s password=%s\n", u.ID, u.Email, u.Role, password)
	return u
}
