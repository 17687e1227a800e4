package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"ticket-price-tracker/config"
	"ticket-price-tracker/internal/alert"
	"ticket-price-tracker/internal/api"
	"ticket-price-tracker/internal/database"
	"ticket-price-tracker/internal/metrics"
	"ticket-price-tracker/internal/notify"
	"ticket-price-tracker/internal/price"
	"ticket-price-tracker/internal/telegram"
	"ticket-price-tracker/lib/translation"
)

func init() {
	config.InitConfig()
	setupLogging()
}

func main() {
	translation.Configure("locales", strings.ToLower(config.GetString("lang")))

	store, err := database.Open(config.GetString("database_path"))
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	m := metrics.New(prometheus.DefaultRegisterer)
	m.Load(context.Background(), store)

	fetcher := price.NewBrowserFetcher(price.FetcherConfig{
		NavigationTimeout: config.GetDuration("navigation_timeout"),
		Timeout:           config.GetDuration("fetch_timeout"),
		Headless:          config.GetBool("browser_headless"),
		NoSandbox:         config.GetBool("browser_no_sandbox"),
		DebugHTMLPath:     config.GetString("debug_html_path"),
	})

	monitor := alert.NewService(store, fetcher, buildNotifier(), m, config.GetDuration("check_interval"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	monitor.Start(ctx)

	go func() {
		ticker := time.NewTicker(config.GetDuration("metrics_save_interval"))
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Save(ctx, store)
			}
		}
	}()

	if !config.GetBool("debug") {
		gin.SetMode(gin.ReleaseMode)
	}
	apiServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", config.GetInt("http_port")),
		Handler:           api.NewRouter(store, monitor),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Infof("Backend running on %s", apiServer.Addr)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("API server failed: %v", err)
		}
	}()

	go func() {
		if err := launchMetricsAndHealthServer(config.GetInt("metrics_port")); err != nil {
			log.Fatalf("Failed to start metrics and health server: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	log.Info("Shutting down...")
	cancel()
	monitor.Stop()
	m.Save(context.Background(), store)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Errorf("API server shutdown: %v", err)
	}
}

func setupLogging() {
	log.SetLevel(log.InfoLevel)
	if config.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}
	log.Debug("Starting ticket price tracker...")
}

// buildNotifier always delivers by email and adds Telegram when configured.
func buildNotifier() *notify.Multi {
	channels := []notify.Channel{
		notify.NewEmail(notify.EmailConfig{
			SMTPHost: config.GetString("smtp_host"),
			SMTPPort: config.GetInt("smtp_port"),
			Username: config.GetString("smtp_username"),
			Password: config.GetString("smtp_password"),
			From:     config.SMTPFrom(),
			Timeout:  config.GetDuration("notify_timeout"),
		}),
	}

	if token := config.GetString("telegram_bot_token"); token != "" {
		bot, err := telegram.NewBot(telegram.BotConfig{
			Token:   token,
			ChatID:  config.GetInt64("telegram_chat_id"),
			Debug:   config.GetBool("debug"),
			Timeout: config.GetDuration("notify_timeout"),
		})
		if err != nil {
			log.Errorf("Telegram notifications disabled: %v", err)
		} else {
			channels = append(channels, bot)
		}
	}

	return notify.NewMulti(channels...)
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func launchMetricsAndHealthServer(port int) error {
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/health", healthCheckHandler)

	log.Infof("Launching metrics and health endpoint on :%d", port)
	return http.ListenAndServe(fmt.Sprintf(":%d", port), http.DefaultServeMux)
}
