package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goCaptcha "github.com/MrEthical07/goCaptcha"
	"github.com/MrEthical07/goCaptcha/auditsink/redisstream"
	"github.com/MrEthical07/goCaptcha/httpapi"
	promexport "github.com/MrEthical07/goCaptcha/metrics/export/prometheus"
	"github.com/MrEthical07/goCaptcha/render"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var errNotAccepted = errors.New("solution not accepted")

type cli struct {
	getenv     func(string) string
	configPath string
}

func newRootCmd(getenv func(string) string) *cobra.Command {
	c := &cli{getenv: getenv}

	root := &cobra.Command{
		Use:           "gocaptcha",
		Short:         "Issue and verify stateless captcha challenges",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "path to a YAML config file")

	root.AddCommand(c.issueCmd(), c.verifyCmd(), c.serveCmd(), c.auditCmd())
	return root
}

func (c *cli) load() (appConfig, error) {
	return loadConfig(c.configPath, c.getenv)
}

func buildEngine(cfg appConfig, logger *slog.Logger, sink goCaptcha.AuditSink) (*goCaptcha.Engine, error) {
	b := goCaptcha.New().WithConfig(cfg.Engine).WithLogger(logger)
	if cfg.RenderOn {
		svg, err := render.NewSVG(cfg.Render)
		if err != nil {
			return nil, err
		}
		b.WithRenderer(svg)
	}
	if sink != nil {
		b.WithAuditSink(sink)
	}
	return b.Build()
}

func (c *cli) issueCmd() *cobra.Command {
	var (
		showAnswer bool
		svgOut     string
	)
	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue one challenge and print it as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.load()
			if err != nil {
				return err
			}
			cfg.RenderOn = cfg.RenderOn && svgOut != ""

			engine, err := buildEngine(cfg, cfg.logger(cmd.ErrOrStderr()), nil)
			if err != nil {
				return err
			}
			defer engine.Close()

			ch, err := engine.Issue(cmd.Context())
			if err != nil {
				return err
			}
			if svgOut != "" {
				if err := os.WriteFile(svgOut, []byte(ch.Image), 0o644); err != nil {
					return fmt.Errorf("write image: %w", err)
				}
			}

			out := map[string]any{
				"token":      ch.Token,
				"validUntil": ch.ValidUntil.UnixMilli(),
				"mode":       ch.Mode,
			}
			if showAnswer {
				out["text"] = ch.Text
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().BoolVar(&showAnswer, "show-text", false, "include the challenge text in the output")
	cmd.Flags().StringVar(&svgOut, "svg", "", "write the rendered image to this file")
	return cmd
}

func (c *cli) verifyCmd() *cobra.Command {
	var token, solution string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a solution against a token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.load()
			if err != nil {
				return err
			}
			cfg.RenderOn = false

			engine, err := buildEngine(cfg, cfg.logger(cmd.ErrOrStderr()), nil)
			if err != nil {
				return err
			}
			defer engine.Close()

			result, err := engine.Verify(cmd.Context(), token, solution)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result)
			if !result.Accepted() {
				return errNotAccepted
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "challenge token")
	cmd.Flags().StringVar(&solution, "solution", "", "submitted solution")
	_ = cmd.MarkFlagRequired("token")
	return cmd
}

func (c *cli) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			logger := cfg.logger(cmd.ErrOrStderr())

			var sink goCaptcha.AuditSink
			if cfg.Engine.Audit.Enabled && cfg.RedisAddr != "" {
				client, closeRedis, err := openRedis(cfg.RedisAddr, logger)
				if err != nil {
					return err
				}
				defer closeRedis()
				s, err := redisstream.New(client, redisstream.Config{Stream: cfg.AuditStream, Approx: true, Logger: logger})
				if err != nil {
					return err
				}
				sink = s
			} else if cfg.Engine.Audit.Enabled {
				sink = goCaptcha.NewJSONWriterSink(cmd.ErrOrStderr())
			}

			engine, err := buildEngine(cfg, logger, sink)
			if err != nil {
				return err
			}
			defer engine.Close()

			opts := httpapi.RouterOptions{Logger: logger}
			if cfg.Metrics {
				opts.Metrics = promexport.NewPrometheusExporter(engine).Handler()
			}

			srv := &http.Server{
				Addr:              cfg.Addr,
				Handler:           httpapi.NewRouter(engine, opts),
				ReadHeaderTimeout: 5 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Info("listening", slog.String("addr", cfg.Addr))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func (c *cli) auditCmd() *cobra.Command {
	audit := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the audit stream",
	}

	var n int64
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Print the most recent audit events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.load()
			if err != nil {
				return err
			}
			if cfg.RedisAddr == "" || cfg.RedisAddr == miniRedisAddr {
				return errors.New("audit tail needs audit.redis_addr pointing at a shared redis")
			}

			client, closeRedis, err := openRedis(cfg.RedisAddr, cfg.logger(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			defer closeRedis()
			return printRecent(cmd, client, cfg.AuditStream, n)
		},
	}
	tail.Flags().Int64VarP(&n, "count", "n", 20, "number of events")
	audit.AddCommand(tail)
	return audit
}

func printRecent(cmd *cobra.Command, client redis.UniversalClient, stream string, n int64) error {
	sink, err := redisstream.New(client, redisstream.Config{Stream: stream})
	if err != nil {
		return err
	}
	events, err := sink.Recent(cmd.Context(), n)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	for _, ev := range events {
		if err := enc.Encode(ev); err != nil {
			return err
		}
	}
	return nil
}

// openRedis connects to addr, or starts an in-process miniredis when addr is "mini".
func openRedis(addr string, logger *slog.Logger) (redis.UniversalClient, func(), error) {
	if addr == miniRedisAddr {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("start miniredis: %w", err)
		}
		logger.Info("using in-process miniredis", slog.String("addr", mr.Addr()))
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		return client, func() {
			_ = client.Close()
			mr.Close()
		}, nil
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	return client, func() { _ = client.Close() }, nil
}
