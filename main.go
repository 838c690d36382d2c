package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	machinex "github.com/wareechai/trio-concierge/agent/agents/bookingmachine"
	flowx "github.com/wareechai/trio-concierge/agent/agents/flow"
	orchestratorx "github.com/wareechai/trio-concierge/agent/agents/orchestrator"
	bookingx "github.com/wareechai/trio-concierge/agent/booking"
	contractx "github.com/wareechai/trio-concierge/agent/contract"
	executorx "github.com/wareechai/trio-concierge/agent/executor"
	listingx "github.com/wareechai/trio-concierge/agent/listing"
	llmx "github.com/wareechai/trio-concierge/agent/llm"
	plannerx "github.com/wareechai/trio-concierge/agent/planner"
	routerx "github.com/wareechai/trio-concierge/agent/router"
	statex "github.com/wareechai/trio-concierge/agent/state"
	"github.com/wareechai/trio-concierge/httpapi"
	configx "github.com/wareechai/trio-concierge/pkg/config"
	_ "github.com/wareechai/trio-concierge/pkg/logger/autoload"
	openrouterx "github.com/wareechai/trio-concierge/pkg/openrouter"
)

type AppConfig struct {
	ListenAddr string `envconfig:"LISTEN_ADDR" split_words:"true" default:":8080"`

	// StoreBackend selects session storage: "memory" for a single
	// process, "upstash" for multi-process deployments.
	StoreBackend string `envconfig:"STORE_BACKEND" split_words:"true" default:"memory"`

	// DataBackend selects the booking and listing data source:
	// "mock" serves fixtures, "postgres" reads the real tables.
	DataBackend string `envconfig:"DATA_BACKEND" split_words:"true" default:"mock"`
}

func main() {
	appCfg := configx.MustNew[AppConfig]("APP")
	orchCfg := configx.MustNew[orchestratorx.Config]("")

	openRouterCfg := configx.MustNew[openrouterx.Config]("OPENROUTER")
	api := openrouterx.NewClient(*openRouterCfg)
	if api == nil {
		log.Fatal().Msg("openrouter client requires an api key")
	}
	llmClient, err := llmx.NewClient(api, openRouterCfg.Model, openRouterCfg.Temperature, openRouterCfg.MaxCompletionToken)
	if err != nil {
		log.Fatal().Err(err).Msg("llm client init failed")
	}

	store := newStore(appCfg.StoreBackend)
	dataSvc, propertySource, schoolSource := newDataBackend(appCfg.DataBackend)

	catalog := bookingx.NewCatalog(dataSvc)
	catalog.Prefetch(context.Background())

	history := statex.NewHistory(store)
	contexts := statex.NewContextStore(store)
	plans := flowx.NewPlanStore(store)

	handlers := map[contractx.Domain]contractx.DomainHandler{
		contractx.DomainBooking: newBookingHandler(orchCfg.BookingStrategy, llmClient, catalog, dataSvc, store, contexts, plans),
		contractx.DomainProperties: mustHandler(flowx.NewHandler(
			contractx.DomainProperties,
			plannerx.NewPropertiesPlanner(llmClient),
			executorx.NewPropertiesExecutor(propertySource),
			plans,
		)),
		contractx.DomainEducation: mustHandler(flowx.NewHandler(
			contractx.DomainEducation,
			plannerx.NewEducationPlanner(llmClient),
			executorx.NewEducationExecutor(schoolSource),
			plans,
		)),
	}

	orch, err := orchestratorx.New(routerx.New(llmClient), handlers, history)
	if err != nil {
		log.Fatal().Err(err).Msg("orchestrator init failed")
	}

	server, err := httpapi.NewServer(orch, history)
	if err != nil {
		log.Fatal().Err(err).Msg("http server init failed")
	}

	httpServer := &http.Server{
		Addr:              appCfg.ListenAddr,
		Handler:           server.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.Info().
		Str("addr", appCfg.ListenAddr).
		Str("store", appCfg.StoreBackend).
		Str("data", appCfg.DataBackend).
		Str("booking_strategy", orchCfg.BookingStrategy).
		Msg("listening")
	if err := httpServer.ListenAndServe(); err != nil {
		log.Fatal().Err(err).Msg("http server stopped")
	}
}

func newStore(backend string) statex.Store {
	switch backend {
	case "memory":
		return statex.NewMemoryStore()
	case "upstash":
		cfg := configx.MustNew[statex.UpstashRedisConfig]("UPSTASH_REDIS")
		store, err := statex.NewUpstashRedisStore(*cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("upstash store init failed")
		}
		return store
	default:
		log.Fatal().Str("backend", backend).Msg("unknown store backend")
		return nil
	}
}

func newDataBackend(backend string) (bookingx.DataService, listingx.PropertySource, listingx.SchoolSource) {
	switch backend {
	case "mock":
		source := listingx.NewMemorySource()
		return bookingx.NewMockService(), source, source
	case "postgres":
		db := bookingx.NewDB(*configx.MustNew[bookingx.PostgresConfig]("POSTGRES"))
		source := listingx.NewPostgresSource(db)
		return bookingx.NewPostgresService(db), source, source
	default:
		log.Fatal().Str("backend", backend).Msg("unknown data backend")
		return nil, nil, nil
	}
}

func newBookingHandler(
	strategy string,
	llmClient contractx.Completer,
	catalog *bookingx.Catalog,
	dataSvc bookingx.DataService,
	store statex.Store,
	contexts *statex.ContextStore,
	plans *flowx.PlanStore,
) contractx.DomainHandler {
	switch strategy {
	case "machine":
		return machinex.New(llmClient, catalog, dataSvc, bookingx.NewStateManager(store))
	case "flow":
		return mustHandler(flowx.NewHandler(
			contractx.DomainBooking,
			plannerx.NewBookingPlanner(llmClient),
			executorx.NewBookingExecutor(llmClient, catalog, dataSvc, contexts),
			plans,
		))
	default:
		log.Fatal().Str("strategy", strategy).Msg("unknown booking strategy")
		return nil
	}
}

func mustHandler(h *flowx.Handler, err error) *flowx.Handler {
	if err != nil {
		log.Fatal().Err(err).Msg("domain handler init failed")
	}
	return h
}
