package main

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	assistantx "github.com/kittipos/clinic-concierge/agent/agents/assistant"
	bookingx "github.com/kittipos/clinic-concierge/agent/booking"
	contractx "github.com/kittipos/clinic-concierge/agent/contract"
	llmx "github.com/kittipos/clinic-concierge/agent/llm"
	promptx "github.com/kittipos/clinic-concierge/agent/prompt"
	queryx "github.com/kittipos/clinic-concierge/agent/query"
	reportx "github.com/kittipos/clinic-concierge/agent/report"
	servicex "github.com/kittipos/clinic-concierge/agent/service"
	sessionx "github.com/kittipos/clinic-concierge/agent/session"
	storex "github.com/kittipos/clinic-concierge/agent/store"
	toolx "github.com/kittipos/clinic-concierge/agent/tool"
	configx "github.com/kittipos/clinic-concierge/pkg/config"
	gcalx "github.com/kittipos/clinic-concierge/pkg/gcal"
	_ "github.com/kittipos/clinic-concierge/pkg/logger/autoload"
	mailerx "github.com/kittipos/clinic-concierge/pkg/mailer"
	openrouterx "github.com/kittipos/clinic-concierge/pkg/openrouter"
	slackhookx "github.com/kittipos/clinic-concierge/pkg/slackhook"

	serverx "github.com/kittipos/clinic-concierge/server"
)

type AppConfig struct {
	HTTPAddr string `envconfig:"HTTP_ADDR" split_words:"true" default:":8000"`
}

func main() {
	ctx := context.Background()

	appCfg := configx.MustNew[AppConfig]("")

	storeCfg := configx.MustNew[storex.Config]("POSTGRES")
	records, err := storex.Connect(*storeCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("connect record store")
	}
	defer records.Close()

	llmCfg := configx.MustNew[llmx.Config]("OPENROUTER")
	if err := llmCfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid llm config")
	}

	gcalCfg := configx.MustNew[gcalx.Config]("GCAL")
	calendar, err := gcalx.NewClient(ctx, *gcalCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("init google calendar client")
	}

	mailCfg := configx.MustNew[mailerx.Config]("SENDGRID")
	var mail mailerx.Sender = mailerx.StubSender{}
	if sender := mailerx.NewSendGridSender(*mailCfg); sender != nil {
		mail = sender
	} else {
		log.Warn().Msg("sendgrid api key not set, using stub mailer")
	}

	slackCfg := configx.MustNew[slackhookx.Config]("SLACK")
	var notifier contractx.ChatNotifier
	if slack, err := slackhookx.NewClient(*slackCfg); err == nil {
		notifier = slack
	} else {
		log.Warn().Err(err).Msg("slack webhook not configured")
	}

	redisCfg := configx.MustNew[sessionx.RedisConfig]("SESSION_REDIS")
	var sessions sessionx.Store
	if redis, err := sessionx.NewRedisStore(*redisCfg); err == nil {
		sessions = redis
	} else {
		log.Warn().Err(err).Msg("redis session store not configured, using in-memory store")
		sessions = sessionx.NewMemoryStore()
	}

	prompts := promptx.LoadPromptSet()

	sqlGen, err := openrouterx.NewSingleShot(llmCfg.OpenRouterForSQL())
	if err != nil {
		log.Fatal().Err(err).Msg("init sql generator client")
	}
	queryTool, err := queryx.New(sqlGen, records, prompts)
	if err != nil {
		log.Fatal().Err(err).Msg("init query tool")
	}

	saga, err := bookingx.New(records, calendar, mail)
	if err != nil {
		log.Fatal().Err(err).Msg("init booking saga")
	}

	reporter, err := reportx.New(records, notifier)
	if err != nil {
		log.Fatal().Err(err).Msg("init report generator")
	}

	deps := toolx.Deps{
		Slots:    records,
		Booker:   saga,
		Mail:     mail,
		Query:    queryTool,
		Reporter: reporter,
	}

	patient, err := newAssistant(ctx, contractx.PersonaPatient, llmCfg, prompts.Patient)
	if err != nil {
		log.Fatal().Err(err).Msg("init patient assistant")
	}
	doctor, err := newAssistant(ctx, contractx.PersonaDoctor, llmCfg, prompts.Doctor)
	if err != nil {
		log.Fatal().Err(err).Msg("init doctor assistant")
	}

	svc, err := servicex.New(sessions, records, patient, doctor, deps, reporter)
	if err != nil {
		log.Fatal().Err(err).Msg("init service")
	}

	srv := serverx.New(svc)
	log.Info().Str("addr", appCfg.HTTPAddr).Msg("listening")
	if err := http.ListenAndServe(appCfg.HTTPAddr, srv.Routes()); err != nil {
		log.Fatal().Err(err).Msg("http server stopped")
	}
}

func newAssistant(ctx context.Context, persona contractx.Persona, cfg *llmx.Config, systemPrompt string) (*assistantx.Assistant, error) {
	orCfg := cfg.OpenRouterFor(persona)
	chatModel, err := orCfg.New(ctx)
	if err != nil {
		return nil, err
	}
	return assistantx.New(persona, chatModel, systemPrompt, toolx.InfosFor(persona))
}
