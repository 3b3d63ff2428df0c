package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"joingate/api"
	"joingate/config"
	"joingate/db"
	"joingate/internal/admin"
	"joingate/internal/gate"
	"joingate/internal/store"
	"joingate/internal/sweep"
	"joingate/internal/telegram"
	"joingate/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	gray  = "\x1b[90m"
	reset = "\x1b[0m"
)

func main() {
	gin.SetMode(gin.ReleaseMode)

	err := config.Setup()
	if err != nil {
		panic(err)
	}

	makeLogger()

	conn, err := db.New()
	if err != nil {
		panic(err)
	}

	ledger := store.NewLedger(conn)
	settings := store.NewSettings(conn)
	lists := store.NewLists(conn)
	users := store.NewUsers(conn)
	issuer := token.NewIssuer()

	client := telegram.NewClient(viper.GetString("bot.token"))

	g := gate.New(ledger, settings, lists, users, issuer, client, gate.Config{
		MaxAttempts:            viper.GetInt("gate.max_attempts"),
		VerifyTimeout:          time.Duration(viper.GetInt("gate.verify_timeout")) * time.Second,
		LanguageTimeout:        time.Duration(viper.GetInt("gate.language_timeout")) * time.Second,
		FailureAction:          viper.GetString("gate.failure_action"),
		PreVerifiedFastPath:    viper.GetBool("gate.enable_preverified_fastpath"),
		NotifyAdminOnPromotion: viper.GetBool("gate.notify_admin_on_promotion"),
	})

	handler := admin.NewHandler(g, ledger, settings, lists, users, client, config.AdminIDs())
	poller := telegram.NewPoller(client, g, handler, time.Duration(viper.GetInt("bot.poll_timeout"))*time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	me, err := waitForBot(ctx, client)
	if err != nil {
		panic(err)
	}

	g.Cfg.BotUsername = me.Username
	poller.SetBotUsername(me.Username)

	if !config.SweeperDisabled() {
		sweeper := sweep.New(ledger, g, time.Duration(viper.GetInt("gate.sweep_interval"))*time.Second)
		go sweeper.Run(ctx)
	}

	if viper.GetBool("host.enabled") {
		a := api.NewRouter(ledger, poller)

		go func() {
			if err := a.Router.Run(fmt.Sprintf(":%d", viper.GetInt("host.port"))); err != nil {
				zap.L().Fatal("HTTP server stopped", zap.Error(err))
			}
		}()
	}

	zap.L().Info("Bot starting", zap.String("username", me.Username), zap.String("mode", viper.GetString("bot.mode")))

	if viper.GetString("bot.mode") == "polling" {
		poller.Run(ctx)
	} else {
		<-ctx.Done()
	}

	zap.L().Info("Shutting down")
}

// waitForBot retries the initial getMe so a network blip at boot doesn't
// kill the process.
func waitForBot(ctx context.Context, client *telegram.Client) (*telegram.User, error) {
	var lastErr error

	for attempt := 0; attempt < 5; attempt++ {
		me, err := client.GetMe(ctx)
		if err == nil {
			return me, nil
		}
		lastErr = err

		zap.L().Warn("getMe failed, retrying", zap.Int("attempt", attempt+1), zap.Error(err))

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(1<<attempt) * 2 * time.Second):
		}
	}

	return nil, lastErr
}

func makeLogger() {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncoderConfig.EncodeTime = func(t time.Time, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + t.Format("15:04:05.000") + reset)
	}
	cfg.EncoderConfig.EncodeCaller = func(ec zapcore.EntryCaller, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString(gray + ec.TrimmedPath() + reset)
	}

	cfg.DisableStacktrace = true

	var level zapcore.Level
	if err := level.Set(viper.GetString("app.log_level")); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(level)
	}

	log, _ := cfg.Build()
	zap.ReplaceGlobals(log)
}
