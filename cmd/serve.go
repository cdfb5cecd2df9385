package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/tutorchat/internal/screens/welcome"
	"github.com/abhisek/tutorchat/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the tutor over HTTP",
	Long: "serve exposes the tutor as a JSON API with per-user accounts, bearer tokens " +
		"and a websocket stream of the typing animation.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rt, err := openRuntime(cmd, true)
		if err != nil {
			return err
		}
		defer rt.Close()

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			rt.cfg.Server.Addr = addr
		}
		if rt.cfg.Server.JWTSecret == "" {
			return fmt.Errorf("a JWT secret is required: set TUTORCHAT_JWT_SECRET or server.jwt_secret")
		}

		provider, err := rt.provider(ctx)
		if err != nil {
			return fmt.Errorf("LLM provider not configured: %w", err)
		}

		sc := rt.cfg.Server
		srv, err := server.New(server.Config{
			Addr:         sc.Addr,
			JWTSecret:    sc.JWTSecret,
			TokenTTL:     sc.TokenTTL,
			AllowOrigins: sc.AllowOrigins,
			RatePerSec:   sc.RatePerSec,
			RateBurst:    sc.RateBurst,
			DefaultTotal: rt.cfg.Curriculum.Total(),
			TypingDelay:  rt.cfg.Lessons.TypingDelay,
		}, rt.store.UserRepo(), rt.kv, rt.tutorFactory(provider), rt.logger)
		if err != nil {
			return err
		}

		printStartUpBanner(sc.Addr)
		rt.logger.Info("serving",
			zap.String("addr", sc.Addr),
			zap.String("provider", rt.cfg.LLM.Provider),
			zap.Bool("redis", rt.cfg.Store.RedisURL != ""))
		return srv.Run(ctx)
	},
}

func printStartUpBanner(addr string) {
	fmt.Println(welcome.Banner())
	fmt.Println("======================================================")
	fmt.Printf("tutorchat API (%s) listening on %s\n\n", version, addr)
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides TUTORCHAT_ADDR and server.addr)")
}
