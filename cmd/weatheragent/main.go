// In file: cmd/weatheragent/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/dileep-u-k/weather-agents/internal/agent"
	"github.com/dileep-u-k/weather-agents/internal/console"
	"github.com/dileep-u-k/weather-agents/internal/evaluation"
	"github.com/dileep-u-k/weather-agents/internal/llm"
	"github.com/dileep-u-k/weather-agents/internal/server"
	"github.com/dileep-u-k/weather-agents/internal/weather"
)

const redisPingTimeout = 3 * time.Second

// main is the entry point for the application.
// Its primary role is the "Composition Root": it loads configuration,
// initializes all services, injects dependencies, and hands control to the
// selected front end (menu, chat, evaluation or HTTP server).
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run executes the command line and returns the process exit status.
func run(args []string, in io.Reader, out, errOut io.Writer) int {
	c := newCLI(in, out)
	root := c.rootCommand()
	if args == nil {
		// cobra falls back to os.Args for a nil slice.
		args = []string{}
	}
	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.Execute()
	c.closeLog()
	if err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return 1
	}
	return 0
}

// cli carries the state shared by every command.
type cli struct {
	console    *console.Console
	out        io.Writer
	configPath string
	logFile    string
	logCloser  io.Closer
	cfg        *AppConfig

	// newClient builds the LLM backend; replaced in tests.
	newClient func(ctx context.Context, cfg *AppConfig) (llm.LLMClient, func() error, error)
}

func newCLI(in io.Reader, out io.Writer) *cli {
	return &cli{
		console:   console.New(in, out),
		out:       out,
		newClient: newLLMClient,
	}
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "weatheragent",
		Short:         "Compare basic, chain-of-thought and ReAct weather assistants",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.setupLogging(); err != nil {
				return err
			}
			cfg, err := LoadConfig(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runMenu(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "optional YAML settings file")
	root.PersistentFlags().StringVar(&c.logFile, "log-file", "", "write logs to this file instead of stderr")

	var agentName string
	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to one agent interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := agent.ParseVariantID(agentName)
			if err != nil {
				return err
			}
			return c.runChat(cmd.Context(), id)
		},
	}
	chatCmd.Flags().StringVar(&agentName, "agent", string(agent.Basic), "agent type: basic, cot or react")
	root.AddCommand(chatCmd)

	root.AddCommand(&cobra.Command{
		Use:   "evaluate [query]",
		Short: "Run one query through all agents, rate the answers and log them",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runEvaluate(cmd.Context(), strings.TrimSpace(strings.Join(args, " ")))
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "history",
		Short: "Summarise the ratings stored in the evaluation log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runHistory()
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Show per-agent run statistics collected in Redis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runStats(cmd.Context())
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve the agents over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runServe(cmd.Context())
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the YAML settings file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			doc, err := ConfigSchema()
			if err != nil {
				return err
			}
			fmt.Fprintln(c.out, string(doc))
			return nil
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(c.out, GetBuildInfo())
			return nil
		},
	})
	return root
}

func (c *cli) setupLogging() error {
	if c.logFile == "" {
		return nil
	}
	f, err := os.OpenFile(c.logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	log.SetOutput(f)
	c.logCloser = f
	return nil
}

func (c *cli) closeLog() {
	if c.logCloser != nil {
		log.SetOutput(os.Stderr)
		c.logCloser.Close()
		c.logCloser = nil
	}
}

// =================================================================================
// Front ends
// =================================================================================

func (c *cli) runMenu(ctx context.Context) error {
	// Configuration problems are reported before any question is asked.
	if err := c.cfg.Validate(); err != nil {
		return err
	}

	choice, err := c.console.Prompt("\n1: Single Agent\n2: Comparative Evaluation\nChoose an option: ")
	if err != nil {
		return fmt.Errorf("failed to read choice: %w", err)
	}
	switch choice {
	case "1":
		agentChoice, err := c.console.Prompt("\n1: Basic\n2: Chain of Thought\n3: ReAct\nChoose an agent type: ")
		if err != nil {
			return fmt.Errorf("failed to read agent type: %w", err)
		}
		id, ok := map[string]agent.VariantID{"1": agent.Basic, "2": agent.ChainOfThought, "3": agent.ReAct}[agentChoice]
		if !ok {
			c.console.Println("Invalid choice. Defaulting to Basic agent.")
			id = agent.Basic
		}
		return c.runChat(ctx, id)
	case "2":
		return c.runEvaluate(ctx, "")
	default:
		c.console.Println("Invalid choice. Exiting.")
		return nil
	}
}

func (c *cli) runChat(ctx context.Context, id agent.VariantID) error {
	a, err := c.buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	variant, ok := a.variants.Get(id)
	if !ok {
		return fmt.Errorf("unknown agent type %q", id)
	}
	log.Printf("💬 Starting %s session with %d tools", variant.Name, variant.Tools.ToolCount())
	return agent.NewSession(a.orch, variant, c.console).Run(ctx)
}

func (c *cli) runEvaluate(ctx context.Context, query string) error {
	a, err := c.buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	h := evaluation.NewHarness(a.orch, a.variants.All(), c.console, evaluation.NewLog(c.cfg.EvaluationLog),
		evaluation.WithColumnWidth(c.cfg.ColumnWidth),
		evaluation.WithProfiler(a.profiler),
	)
	return h.Run(ctx, query)
}

func (c *cli) runHistory() error {
	evalLog := evaluation.NewLog(c.cfg.EvaluationLog)
	records, err := evalLog.ReadAll()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintf(c.out, "No evaluations recorded in %s yet.\n", evalLog.Path())
		return nil
	}
	fmt.Fprintf(c.out, "%d rated responses in %s\n", len(records), evalLog.Path())
	for _, s := range evaluation.Summarize(records) {
		fmt.Fprintf(c.out, "- %s: %d ratings, average %.2f\n", s.AgentType, s.Ratings, s.Average)
	}
	return nil
}

func (c *cli) runStats(ctx context.Context) error {
	if c.cfg.RedisAddr == "" {
		return errors.New("REDIS_ADDR is not set; no statistics are collected")
	}
	rdb, err := connectRedis(ctx, c.cfg.RedisAddr)
	if err != nil {
		return err
	}
	defer rdb.Close()

	profiler := agent.NewProfiler(rdb)
	for _, id := range []agent.VariantID{agent.Basic, agent.ChainOfThought, agent.ReAct} {
		p, err := profiler.GetProfile(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to read profile for %s: %w", id, err)
		}
		fmt.Fprintf(c.out, "%s: runs=%d failures=%d (%.0f%%) tool_calls=%d tool_errors=%d tokens=%d/%d avg_latency=%dms ratings=%d avg_rating=%.2f\n",
			id, p.Runs, p.Failures, p.ErrorRate()*100, p.ToolCalls, p.ToolErrors,
			p.PromptTokens, p.CompletionTokens, p.AvgLatencyMS, p.Ratings, p.AverageRating())
	}
	return nil
}

func (c *cli) runServe(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := c.buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	gin.SetMode(os.Getenv("GIN_MODE"))
	engine := server.NewEngine(server.NewHandler(a.orch, a.variants))
	return server.Run(ctx, ":"+c.cfg.Port, engine)
}

// =================================================================================
// Composition
// =================================================================================

type app struct {
	variants *agent.Variants
	orch     *agent.Orchestrator
	profiler *agent.Profiler
	closers  []func() error
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Printf("WARNING: cleanup failed: %v", err)
		}
	}
}

func (c *cli) buildApp(ctx context.Context) (*app, error) {
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}
	a := &app{}

	weatherClient, err := weather.NewClient(c.cfg.WeatherAPIKey, weather.WithBaseURL(c.cfg.WeatherBaseURL))
	if err != nil {
		return nil, err
	}

	client, closeClient, err := c.newClient(ctx, c.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", c.cfg.Provider, err)
	}
	a.closers = append(a.closers, closeClient)

	a.profiler = agent.NewProfiler(nil)
	if c.cfg.RedisAddr != "" {
		rdb, err := connectRedis(ctx, c.cfg.RedisAddr)
		if err != nil {
			log.Printf("WARNING: %v; variant statistics are disabled.", err)
		} else {
			a.profiler = agent.NewProfiler(rdb)
			a.closers = append(a.closers, rdb.Close)
		}
	}

	a.variants, err = agent.NewVariants(weatherClient)
	if err != nil {
		a.close()
		return nil, err
	}
	a.orch = agent.NewOrchestrator(client, c.cfg.Model, agent.WithProfiler(a.profiler))
	log.Printf("✅ All services initialized (provider: %s, model: %s).", c.cfg.Provider, c.cfg.Model)
	return a, nil
}

// newLLMClient creates the chat-completion backend named by cfg.Provider.
func newLLMClient(ctx context.Context, cfg *AppConfig) (llm.LLMClient, func() error, error) {
	switch cfg.Provider {
	case ProviderGemini:
		client, err := llm.NewGeminiClient(ctx, cfg.APIKey)
		if err != nil {
			return nil, nil, err
		}
		return client, client.Close, nil
	case ProviderAnthropic:
		client, err := llm.NewAnthropicClient(cfg.APIKey, cfg.BaseURL, llm.WithMaxAttempts(cfg.MaxAttempts))
		if err != nil {
			return nil, nil, err
		}
		return client, func() error { return nil }, nil
	default:
		client, err := llm.NewOpenAIClient(cfg.APIKey, cfg.BaseURL, llm.WithMaxAttempts(cfg.MaxAttempts))
		if err != nil {
			return nil, nil, err
		}
		return client, func() error { return nil }, nil
	}
}

func connectRedis(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if _, err := rdb.Ping(pingCtx).Result(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", addr, err)
	}
	log.Printf("✅ Connected to Redis at %s.", addr)
	return rdb, nil
}
