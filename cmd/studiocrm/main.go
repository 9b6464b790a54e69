package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"studiocrm/internal/apperrors"
	"studiocrm/internal/auth"
	"studiocrm/internal/config"
	"studiocrm/internal/database"
	"studiocrm/internal/export"
	"studiocrm/internal/facade"
	"studiocrm/internal/logging"
	"studiocrm/internal/metrics"
	"studiocrm/internal/service"
	"studiocrm/internal/session"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	if err := prepareDirectories(cfg, &logger); err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка инициализации базы данных")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Register()
	if cfg.Monitoring.PrometheusEnabled {
		startMetricsServer(cfg.Monitoring.PrometheusPort, &logger)
	}

	if cfg.Database.Backup.Enabled {
		backupService := database.NewBackupService(cfg.Database.Path, cfg.Database.Backup, &logger)
		go backupService.Start(ctx)
	}

	sessions := initSessionStore(ctx, cfg, &logger)

	hasher := auth.NewHasher(cfg.Security.BcryptCost)
	accounts := service.NewAccountService(db, hasher, cfg.Security.MinPasswordLength, &logger)
	bookings := service.NewBookingService(db, &logger)
	reports := service.NewReportService(db, &logger)
	exporter := export.NewExporter(cfg.Exports.Path, &logger)

	app := facade.New(
		accounts, bookings, reports, sessions, exporter,
		cfg.MakeAdminAllowed,
		cfg.Security.LoginRateLimit.RPS,
		cfg.Security.LoginRateLimit.Burst,
		&logger,
	)

	logger.Info().Str("db", cfg.Database.Path).Msg("Сервис запущен, читаю команды из stdin...")
	return runCommandLoop(ctx, app, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}
	logger := baseLogger.With().Str("component", "main").Logger()

	return cfg, logger, closer, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if cfg == nil {
		return os.ErrInvalid
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для базы данных")
		return err
	}
	if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для экспорта")
		return err
	}
	return nil
}

// initSessionStore собирает хранилище сессий: Redis с откатом в память,
// либо только память, когда Redis выключен.
func initSessionStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) session.Store {
	ttl := time.Duration(cfg.Session.TTLSeconds) * time.Second
	memory := session.NewMemoryStore(ttl)

	if !cfg.Session.Redis.Enabled {
		return memory
	}

	client := session.NewRedisClient(cfg.Session.Redis)
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("Redis недоступен, сессии начнутся в памяти")
	}
	return session.NewFailoverStore(session.NewRedisStore(client, ttl), memory, logger)
}

func startMetricsServer(port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf(":%d", port)
	go func() {
		logger.Info().Str("addr", addr).Msg("Prometheus endpoint запущен")
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error().Err(err).Msg("Metrics server error")
		}
	}()
}

// request — строка stdin: {"command":"...","args":{...}}.
type request struct {
	Command string          `json:"command"`
	Args    json.RawMessage `json:"args"`
}

type response struct {
	OK    bool   `json:"ok"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
	Kind  string `json:"kind,omitempty"`
}

// runCommandLoop читает JSON-команды построчно и пишет ответы в stdout.
// Оболочка (desktop UI) держит процесс как дочерний и общается через пайпы.
func runCommandLoop(ctx context.Context, app *facade.Facade, logger *zerolog.Logger) error {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	encoder := json.NewEncoder(os.Stdout)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			logger.Info().Msg("Shutdown complete.")
			return nil
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req request
		if err := json.Unmarshal(line, &req); err != nil {
			writeResponse(encoder, logger, response{
				OK:    false,
				Error: "Некорректный формат команды",
				Kind:  apperrors.Validation.String(),
			})
			continue
		}

		data, err := app.Dispatch(ctx, req.Command, req.Args)
		if err != nil {
			writeResponse(encoder, logger, response{
				OK:    false,
				Error: err.Error(),
				Kind:  apperrors.KindOf(err).String(),
			})
			continue
		}
		writeResponse(encoder, logger, response{OK: true, Data: data})
	}

	if err := scanner.Err(); err != nil {
		logger.Error().Err(err).Msg("Ошибка чтения stdin")
		return err
	}
	logger.Info().Msg("Shutdown complete.")
	return nil
}

func writeResponse(encoder *json.Encoder, logger *zerolog.Logger, resp response) {
	if err := encoder.Encode(resp); err != nil {
		logger.Error().Err(err).Msg("Ошибка записи ответа")
	}
}
