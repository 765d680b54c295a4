package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coldsense/internal/handlers"
	"coldsense/internal/llm"
	"coldsense/internal/logger"
	"coldsense/internal/metrics"
	"coldsense/internal/repository"
	"coldsense/internal/repository/db"
	"coldsense/internal/server"
	"coldsense/internal/service"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
)

const llmAPIKeyEnv = "COLDSENSE_LLM_API_KEY"

func main() {
	// load config.yml first so the log level comes from it
	if err := loadConfig(); err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}
	log := logger.Get(viper.GetString("log_level"))

	// open DB
	database, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := database.Close(); cerr != nil {
			log.Fatalw("failed to close sqlite", "err", cerr)
		}
	}()

	// wire dependencies
	repos := repository.NewRepository(database)
	model := llm.NewClient(llmConfig())
	prom := metrics.NewProm(prometheus.DefaultRegisterer)
	services := service.NewService(repos, model, log, prom, serviceOptions())
	apiHandler := handlers.NewHandler(services, log)

	// context for background goroutines
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// optional development simulator
	if viper.GetBool("simulator.enabled") {
		tick := viper.GetDuration("simulator.tick")
		if tick <= 0 {
			tick = 5 * time.Second
		}
		log.Infow("starting telemetry simulator", "tick", tick)
		go services.Simulator.Run(ctx, tick)
	}

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	return viper.ReadInConfig()
}

// openDB initializes the SQLite database using configuration.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "coldsense.db")
		dbPath = "coldsense.db"
	}
	return db.InitDB(dbPath)
}

// llmConfig builds the model client settings, with the API key overridable
// from the environment so it stays out of the config file.
func llmConfig() llm.Config {
	apiKey := viper.GetString("llm.api_key")
	if env := os.Getenv(llmAPIKeyEnv); env != "" {
		apiKey = env
	}
	return llm.Config{
		Endpoint: viper.GetString("llm.endpoint"),
		APIKey:   apiKey,
		Model:    viper.GetString("llm.model"),
		Timeout:  viper.GetDuration("llm.timeout"),
	}
}

func serviceOptions() service.Options {
	return service.Options{
		TreatMissingAsZero: viper.GetBool("aggregation.treat_missing_as_zero"),
		LLMTimeout:         viper.GetDuration("llm.timeout"),
		StoreTimeout:       viper.GetDuration("store.timeout"),
		ClassifyMaxTokens:  viper.GetInt("llm.classify_max_tokens"),
		FormatMaxTokens:    viper.GetInt("llm.format_max_tokens"),
	}
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop background goroutines
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
