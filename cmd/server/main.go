package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikael-devkh/sistema/internal/app"
	"github.com/mikael-devkh/sistema/internal/config"
	"github.com/mikael-devkh/sistema/internal/logger"
	"github.com/mikael-devkh/sistema/internal/model"
	mcpserver "github.com/mikael-devkh/sistema/internal/service/mcp-server"
)

var cmdRoot = &cobra.Command{
	Use:              "sistema",
	Long:             "Jira search proxy for the FSA field service app",
	TraverseChildren: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func exitWithErr(err error) {
	logger.GetLogger().Error("error: " + err.Error())
	logger.Sync()
	os.Exit(1)
}

// setup loads the configuration and wires the application. logOutput is where the logger writes.
func setup(ctx context.Context, logOutput string) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := logger.InitWithOutput(cfg.LogLevel, logOutput); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	return app.New(ctx, cfg)
}

var cmdServe = &cobra.Command{
	Use:   "serve",
	Short: "Serve the proxy over HTTP",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := setup(ctx, "stdout")
		if err != nil {
			exitWithErr(err)
		}
		defer a.Close()

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = a.Config.ListenAddr
		}
		srv := &http.Server{Addr: addr, Handler: a.Router()}

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.GetLogger().Warn("shutdown failed", zap.Error(err))
			}
		}()

		logger.GetLogger().Info("listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			exitWithErr(err)
		}
	},
}

var cmdSearch = &cobra.Command{
	Use:   "search <jql>",
	Short: "Run one JQL search through the proxy client and print the issues as JSON",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		a, err := setup(ctx, "stderr")
		if err != nil {
			exitWithErr(err)
		}
		defer a.Close()

		req := model.SearchRequest{JQL: args[0], MaxResults: a.Config.Search.DefaultMaxResults}
		if fields, _ := cmd.Flags().GetString("fields"); fields != "" {
			req.Fields = strings.Split(fields, ",")
		}
		if n, _ := cmd.Flags().GetInt("max-results"); n > 0 {
			req.MaxResults = n
		}

		resp, err := a.Searcher().Search(ctx, req)
		if err != nil {
			exitWithErr(err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			exitWithErr(err)
		}
	},
}

var cmdMCP = &cobra.Command{
	Use:   "mcp",
	Short: "Expose the search and FSA lookup as MCP tools on stdio",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		a, err := setup(context.Background(), "stderr")
		if err != nil {
			exitWithErr(err)
		}
		defer a.Close()

		server, err := mcpserver.NewServer(mcpserver.Dependencies{
			Searcher:          a.Searcher(),
			Fsa:               a.Fsa,
			DefaultMaxResults: a.Config.Search.DefaultMaxResults,
		})
		if err != nil {
			exitWithErr(err)
		}

		logger.GetLogger().Info("starting mcp server")
		if err := mcpserver.Serve(server); err != nil {
			exitWithErr(err)
		}
	},
}

func init() {
	cmdServe.Flags().String("addr", "", "listen address, defaults to LISTEN_ADDR")
	cmdRoot.AddCommand(cmdServe)

	cmdSearch.Flags().String("fields", "", "comma separated fields to return")
	cmdSearch.Flags().Int("max-results", 0, "page size for each upstream call")
	cmdRoot.AddCommand(cmdSearch)

	cmdRoot.AddCommand(cmdMCP)
}

func main() {
	if err := cmdRoot.Execute(); err != nil {
		os.Exit(1)
	}
}
