package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"repolens/internal/config"
	"repolens/internal/httpapi"
	"repolens/internal/llm"
	"repolens/internal/mcp"
	"repolens/internal/orchestrator"
	"repolens/internal/tools"
	"repolens/internal/version"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "repolens",
		Short:         "repolens - GitHub repository analysis server",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("listen", config.DefaultListenAddr, "HTTP listen address")
	cmd.PersistentFlags().String("gateway-url", "", "GitHub MCP gateway endpoint")
	cmd.PersistentFlags().String("timeout", config.DefaultTimeout.String(), "Upstream call timeout (e.g. 60s)")
	cmd.PersistentFlags().Int("max-concurrent", config.DefaultMaxConcurrent, "Maximum concurrent repository analyses")
	cmd.PersistentFlags().String("llm-provider", config.DefaultProvider, "Analysis backend (platform or openai)")
	cmd.PersistentFlags().String("model", config.DefaultModel, "Model name")
	cmd.PersistentFlags().Bool("verbose", false, "Enable verbose logging")

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newToolsCmd())
	cmd.AddCommand(newExecCmd())

	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the analysis HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd)
			if err != nil {
				return err
			}
			logger := buildLogger(cfg.Verbose)
			defer func() { _ = logger.Sync() }()

			executor, err := buildExecutor(cfg, logger)
			if err != nil {
				return err
			}
			orch := orchestrator.New(executor, logger, cfg.MaxConcurrent)
			api := httpapi.NewServer(executor, orch, logger)

			server := &http.Server{
				Addr:              cfg.ListenAddr,
				Handler:           api.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			errCh := make(chan error, 1)
			go func() {
				logger.Info("server listening", zap.String("addr", cfg.ListenAddr), zap.String("version", version.Version))
				errCh <- server.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			logger.Info("shutting down")
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			return server.Shutdown(shutdownCtx)
		},
	}
}

func newToolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List available tools",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd)
			if err != nil {
				return err
			}
			executor, err := buildExecutor(cfg, zap.NewNop())
			if err != nil {
				return err
			}
			for _, desc := range executor.List() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", desc.Name, desc.Description)
			}
			return nil
		},
	}
}

func newExecCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec <tool> [json-args]",
		Short: "Execute a single tool and print the result as JSON",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd)
			if err != nil {
				return err
			}
			logger := buildLogger(cfg.Verbose)
			defer func() { _ = logger.Sync() }()

			toolArgs := map[string]any{}
			if len(args) == 2 {
				if err := json.Unmarshal([]byte(args[1]), &toolArgs); err != nil {
					return fmt.Errorf("invalid tool arguments: %w", err)
				}
			}

			executor, err := buildExecutor(cfg, logger)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			result := executor.Execute(ctx, args[0], toolArgs)
			payload, _ := json.MarshalIndent(result, "", "  ")
			fmt.Fprintln(cmd.OutOrStdout(), string(payload))
			if !result.Success {
				return errors.New(result.Error)
			}
			return nil
		},
	}
	return cmd
}

func buildExecutor(cfg config.Config, logger *zap.Logger) (*tools.Executor, error) {
	if cfg.GatewayURL == "" {
		return nil, errors.New("gateway URL is required (set --gateway-url or REPOLENS_GATEWAY_URL)")
	}
	caller := mcp.NewClient(cfg.GatewayURL, cfg.GitHubToken, cfg.Timeout, cfg.RetryMax)

	client, err := buildAnalysisClient(cfg)
	if err != nil {
		return nil, err
	}

	registry, err := tools.NewRegistry(
		tools.NewSearchRepositoriesTool(caller),
		tools.NewRepoStatsTool(caller),
		tools.NewListIssuesTool(caller),
		tools.NewListPullRequestsTool(caller),
		tools.NewGetFileContentsTool(caller),
		tools.NewAnalyzeRepositoryTool(caller, client),
		tools.NewOrganizationTool(caller),
		tools.NewListOrgRepositoriesTool(caller),
	)
	if err != nil {
		return nil, err
	}
	return tools.NewExecutor(registry, logger), nil
}

func buildAnalysisClient(cfg config.Config) (llm.Client, error) {
	if os.Getenv("REPOLENS_MOCK_LLM") == "1" {
		return llm.NewMockClient(), nil
	}

	switch strings.ToLower(cfg.LLM.Provider) {
	case "openai":
		if cfg.LLM.APIKey == "" {
			return nil, errors.New("OPENAI_API_KEY is required for the openai provider")
		}
		return llm.NewOpenAIClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Model), nil
	case "platform", "":
		return llm.NewPlatformClient(llm.PlatformOptions{
			AuthURL:      cfg.LLM.AuthURL,
			ServiceURL:   cfg.LLM.ServiceURL,
			ClientID:     cfg.LLM.ClientID,
			ClientSecret: cfg.LLM.ClientSecret,
			Scope:        cfg.LLM.Scope,
			Model:        cfg.LLM.Model,
			Timeout:      cfg.Timeout,
			RetryMax:     cfg.RetryMax,
		}), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}

func buildLogger(verbose bool) *zap.Logger {
	if verbose {
		logger, _ := zap.NewDevelopment()
		return logger
	}
	logger, _ := zap.NewProduction()
	return logger
}
