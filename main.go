package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/uptrace/bun"

	"github.com/tanpawarit/chative-customer-service/agent/agents/orchestrator"
	"github.com/tanpawarit/chative-customer-service/agent/agents/specialist"
	"github.com/tanpawarit/chative-customer-service/agent/booking"
	contractx "github.com/tanpawarit/chative-customer-service/agent/contract"
	"github.com/tanpawarit/chative-customer-service/agent/conversation"
	llmx "github.com/tanpawarit/chative-customer-service/agent/llm"
	promptx "github.com/tanpawarit/chative-customer-service/agent/prompt"
	"github.com/tanpawarit/chative-customer-service/agent/repository"
	"github.com/tanpawarit/chative-customer-service/agent/retrieval"
	statex "github.com/tanpawarit/chative-customer-service/agent/state"
	toolx "github.com/tanpawarit/chative-customer-service/agent/tool"
	configx "github.com/tanpawarit/chative-customer-service/pkg/config"
	"github.com/tanpawarit/chative-customer-service/pkg/database"
	logx "github.com/tanpawarit/chative-customer-service/pkg/logger"
	_ "github.com/tanpawarit/chative-customer-service/pkg/logger/autoload"
	qstashx "github.com/tanpawarit/chative-customer-service/pkg/qstash"
)

var (
	customerFlag = pflag.String("customer", "CUST001", "customer id of this chat session")
	threadFlag   = pflag.String("thread", "", "conversation thread id (random when empty)")
	seedFlag     = pflag.Bool("seed", false, "insert the demo customers before chatting")
	_            = pflag.String("env", "", "path to .env file")
)

func main() {
	pflag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatal().Err(err).Msg("customer service assistant stopped")
	}
}

func run(ctx context.Context) error {
	dbCfg := configx.MustNew[database.Config]("DATABASE")
	db, err := database.Open(ctx, *dbCfg, logx.Component("database"))
	if err != nil {
		return err
	}
	defer db.Close()

	if err := repository.CreateSchema(ctx, db); err != nil {
		return err
	}
	customers := repository.NewCustomerRepository(db)
	if *seedFlag {
		n, err := repository.Seed(ctx, customers, repository.DemoCustomers)
		if err != nil {
			return err
		}
		log.Info().Int("customers", n).Msg("demo customers seeded")
	}

	engine, err := newBookingEngine(db)
	if err != nil {
		return err
	}

	deps := toolx.Deps{Booking: engine, Customers: customers, Now: engine.Now}
	if retriever := newRetriever(); retriever != nil {
		deps.Retriever = retriever
	}

	llmCfg := configx.MustNew[llmx.Config]("OPENROUTER")
	registry, err := specialist.NewRegistry(ctx, *llmCfg, deps)
	if err != nil {
		return err
	}
	router, err := specialist.NewRouter(ctx, *llmCfg, registry, engine.Now)
	if err != nil {
		return err
	}

	summaryModelCfg := llmCfg.OpenRouterFor(contractx.AgentTypeSummarizer)
	summaryModel, err := summaryModelCfg.New(ctx)
	if err != nil {
		return fmt.Errorf("create summarizer model: %w", err)
	}
	summarizer, err := conversation.NewModelSummarizer(ctx, summaryModel, promptx.LoadPromptSet().Summary)
	if err != nil {
		return err
	}
	manager, err := conversation.NewManager(summarizer, *configx.MustNew[conversation.Config]("CONVERSATION"))
	if err != nil {
		return err
	}

	store, err := statex.Open(ctx, *configx.MustNew[statex.Config]("STATE"))
	if err != nil {
		return err
	}
	defer store.Close()

	orch, err := orchestrator.New(store, manager, router)
	if err != nil {
		return err
	}
	orch.SetClock(engine.Now)

	threadID := strings.TrimSpace(*threadFlag)
	if threadID == "" {
		threadID = uuid.NewString()
	}
	sess := contractx.Session{ThreadID: threadID, CustomerID: strings.TrimSpace(*customerFlag)}
	log.Info().Str("thread_id", sess.ThreadID).Str("customer_id", sess.CustomerID).Msg("chat session started")

	return chat(ctx, orch, sess, os.Stdin, os.Stdout)
}

func newBookingEngine(db bun.IDB) (*booking.Engine, error) {
	bookingCfg := configx.MustNew[booking.Config]("BOOKING")
	policy, err := booking.NewPolicy(*bookingCfg)
	if err != nil {
		return nil, err
	}

	opts := []booking.Option{
		booking.WithStoreTimeout(bookingCfg.StoreTimeout),
		booking.WithLogger(logx.Component("booking")),
	}
	if qstashCfg, err := configx.New[qstashx.Config]("QSTASH"); err != nil {
		log.Info().Err(err).Msg("booking events disabled")
	} else {
		client, err := qstashx.NewClient(*qstashCfg)
		if err != nil {
			return nil, fmt.Errorf("create qstash client: %w", err)
		}
		opts = append(opts, booking.WithNotifier(booking.NewQStashNotifier(client)))
	}

	return booking.NewEngine(repository.NewAppointmentRepository(db), policy, opts...)
}

// newRetriever returns nil when retrieval is not configured.
func newRetriever() *retrieval.Retriever {
	cfg, err := configx.New[retrieval.Config]("RETRIEVAL")
	if err != nil {
		log.Warn().Err(err).Msg("document retrieval disabled")
		return nil
	}
	embedder, err := retrieval.NewOpenAIEmbedder(*cfg)
	if err != nil {
		log.Warn().Err(err).Msg("document retrieval disabled")
		return nil
	}
	searcher, err := retrieval.NewQdrantSearcher(*cfg, nil)
	if err != nil {
		log.Warn().Err(err).Msg("document retrieval disabled")
		return nil
	}
	r, err := retrieval.NewRetriever(embedder, searcher, *cfg)
	if err != nil {
		log.Warn().Err(err).Msg("document retrieval disabled")
		return nil
	}
	return r
}

type messageHandler interface {
	HandleMessage(ctx context.Context, sess contractx.Session, text string) (string, error)
}

func chat(ctx context.Context, h messageHandler, sess contractx.Session, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprintln(out, `Type "exit" to quit.`)
	for {
		fmt.Fprint(out, "You: ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if strings.EqualFold(text, "exit") {
			fmt.Fprintln(out, "Goodbye!")
			return nil
		}

		reply, err := h.HandleMessage(ctx, sess, text)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			log.Error().Err(err).Str("thread_id", sess.ThreadID).Msg("turn failed")
			fmt.Fprintln(out, "Assistant: Sorry, something went wrong. Please try again.")
			continue
		}
		fmt.Fprintf(out, "Assistant: %s\n", reply)
	}
}
