package router

import (
	"github.com/oksasatya/loan-simulator/config"
	app "github.com/oksasatya/loan-simulator/internal/application"
	"github.com/oksasatya/loan-simulator/internal/container"
	repo "github.com/oksasatya/loan-simulator/internal/domain/repository"
	pginfra "github.com/oksasatya/loan-simulator/internal/infrastructure/postgres"
	"github.com/oksasatya/loan-simulator/internal/infrastructure/redisstore"
	"github.com/oksasatya/loan-simulator/internal/infrastructure/search"
	handlers "github.com/oksasatya/loan-simulator/internal/interface/http"
	"github.com/oksasatya/loan-simulator/internal/interface/middleware"
	"github.com/oksasatya/loan-simulator/internal/router/modules"
	"github.com/oksasatya/loan-simulator/pkg/helpers"
)

// Stores groups the repositories chosen by STORE_BACKEND.
type Stores struct {
	Users    repo.UserRepository
	Loans    repo.LoanRepository
	Sessions repo.SessionRepository
	Drafts   repo.DraftRepository
}

func buildStores(cfg *config.Config) Stores {
	rdb := container.GetRedis()
	s := Stores{
		Sessions: redisstore.NewSessionStore(rdb),
		Drafts:   redisstore.NewDraftStore(rdb),
	}
	if cfg.UsePostgres() && container.GetPGPool() != nil {
		db := pginfra.OpenDB(container.GetPGPool())
		s.Users = pginfra.NewUserRepository(db)
		s.Loans = pginfra.NewLoanRepository(db)
		return s
	}
	s.Users = redisstore.NewUserStore(rdb)
	s.Loans = redisstore.NewLoanStore(rdb)
	return s
}

// Services are the application services behind the HTTP modules.
type Services struct {
	Users   *app.Service
	Loans   *app.LoanService
	Analyst *app.AnalystService
	Contact *app.ContactService
}

func buildServices(cfg *config.Config, st Stores) Services {
	logger := container.GetLogger()

	var pub app.Publisher
	if p := container.GetRabbitPub(); p != nil {
		pub = p
	}
	notifier := app.NewNotifier(pub, logger, cfg.MailSendEnabled)

	loans := app.NewLoanService(st.Drafts, st.Loans, st.Users, notifier, logger, cfg)
	analyst := app.NewAnalystService(st.Loans, st.Users, notifier, logger, cfg)
	if es := container.GetES(); es != nil {
		idx := search.NewLoanIndex(es, cfg.ESLoansIndex, logger)
		loans.Index = idx
		analyst.Search = idx
	}
	if gcs := container.GetGCS(); gcs != nil && cfg.GCSBucket != "" {
		loans.Docs = helpers.NewGCSBucket(gcs, cfg.GCSBucket)
	}

	return Services{
		Users:   app.NewService(st.Users, st.Sessions, container.GetJWT(), notifier, logger, cfg),
		Loans:   loans,
		Analyst: analyst,
		Contact: app.NewContactService(notifier, logger, cfg),
	}
}

// AddModules registers every feature module built from svc.
func AddModules(r *Registry, cfg *config.Config, sessions repo.SessionRepository, svc Services) {
	logger := container.GetLogger()
	common := modules.Common{
		RDB:  container.GetRedis(),
		Auth: middleware.Auth(sessions, container.GetJWT()),
		Cfg:  cfg,
	}
	r.Add(
		modules.NewAuthModule(handlers.NewAuthHandler(svc.Users, logger, cfg.CookieDomain, cfg.CookieSecure), common),
		modules.NewProfileModule(handlers.NewProfileHandler(svc.Users, logger), common),
		modules.NewSimulatorModule(handlers.NewSimulatorHandler(svc.Loans, logger), common),
		modules.NewLoanModule(handlers.NewLoanHandler(svc.Loans, logger), common),
		modules.NewAnalystModule(handlers.NewAnalystHandler(svc.Analyst, logger), common),
		modules.NewContactModule(handlers.NewContactHandler(svc.Contact, logger), common),
		modules.NewDebugModule(common),
	)
}

// InitModules builds stores and services from the container singletons and
// adds every module to r. Call it once before RegisterAll.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	st := buildStores(cfg)
	AddModules(r, cfg, st.Sessions, buildServices(cfg, st))
}
