package config

import (
	"context"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"webby-assistant/database/postgres"
	assistantHandler "webby-assistant/internal/api/assistant/handler"
	assistantRepository "webby-assistant/internal/api/assistant/repository"
	assistantService "webby-assistant/internal/api/assistant/service"
	"webby-assistant/internal/middleware"
	core "webby-assistant/pkg/assistant"
	"webby-assistant/pkg/audio"
	"webby-assistant/pkg/redis"
	"webby-assistant/pkg/utils"
)

type ServerOption func(*Server) error

type Server struct {
	engine      *fiber.App
	db          *sqlx.DB
	log         *logrus.Logger
	middleware  middleware.Middleware
	validator   *validator.Validate
	utils       utils.IUtils
	redisServer redis.IRedis
	sounds      audio.ISoundBank
	assistant   *core.Config
	handlers    []handler

	assistantService assistantService.IAssistantService
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.middleware == nil {
		return nil, fmt.Errorf("middleware is required")
	}
	if server.validator == nil {
		server.validator = NewValidator()
	}
	if server.utils == nil {
		server.utils = utils.New()
	}
	if server.assistant == nil {
		cfg := core.DefaultConfig()
		server.assistant = &cfg
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

// WithDatabase connects to postgres and applies the embedded migrations.
func WithDatabase() ServerOption {
	return func(s *Server) error {
		db, err := postgres.New()
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to connect to database: %v", err)
			}
			return fmt.Errorf("failed to create database connection: %w", err)
		}

		if err := postgres.Migrate(db, postgres.MigrationsFs(), s.log); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to migrate database: %w", err)
		}

		s.db = db
		return nil
	}
}

func WithRedisServer(redisServer redis.IRedis) ServerOption {
	return func(s *Server) error {
		s.redisServer = redisServer
		return nil
	}
}

func WithMiddleware(cfg middleware.Config) ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log, cfg)
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func WithAssistantConfig(cfg core.Config) ServerOption {
	return func(s *Server) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		s.assistant = &cfg
		return nil
	}
}

// WithSoundBank renders the activation chime into dir on fileSys.
func WithSoundBank(fileSys afero.Fs, dir string) ServerOption {
	return func(s *Server) error {
		bank, err := audio.NewSoundBank(&audio.Config{FileSys: fileSys, Dir: dir})
		if err != nil {
			return fmt.Errorf("failed to create sound bank: %w", err)
		}

		if err := bank.Render(audio.ActivationKey, audio.ActivationChime); err != nil {
			return fmt.Errorf("failed to render activation chime: %w", err)
		}

		s.sounds = bank
		return nil
	}
}

func (s *Server) RegisterHandler() {
	// Middleware goes first; fiber only applies it to routes registered after.
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware())

	// History is optional: without postgres or redis it is simply not kept.
	var repo assistantRepository.Repository
	if s.db != nil {
		repo = assistantRepository.New(s.db, s.log)
	}

	serviceConfig := assistantService.DefaultConfig(*s.assistant)
	s.assistantService = assistantService.NewAssistantService(
		s.log,
		s.validator,
		repo,
		s.redisServer,
		s.utils,
		s.sounds,
		serviceConfig,
	)
	assistantHandlers := assistantHandler.New(s.log, s.validator, s.middleware, s.assistantService)

	s.setupHealthCheck()
	s.handlers = append(s.handlers, assistantHandlers)
}

func (s *Server) Run() error {
	router := s.engine.Group("/api/v1")
	for _, h := range s.handlers {
		h.Start(router)
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "3000"
	}

	return s.engine.Listen(fmt.Sprintf(":%s", port))
}

// Shutdown ends every live conversation before stopping the listener, then
// releases the backing stores.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.assistantService != nil {
		s.assistantService.Shutdown()
	}

	err := s.engine.ShutdownWithContext(ctx)

	if s.redisServer != nil {
		if cerr := s.redisServer.Close(); cerr != nil {
			s.log.WithField("error", cerr.Error()).Warn("Failed to close redis")
		}
	}
	if s.db != nil {
		if cerr := s.db.Close(); cerr != nil {
			s.log.WithField("error", cerr.Error()).Warn("Failed to close database")
		}
	}

	return err
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		live := 0
		if s.assistantService != nil {
			live = s.assistantService.LiveSessions()
		}
		return ctx.JSON(fiber.Map{
			"message":       "Server is Healthy!",
			"live_sessions": live,
		})
	})
}
