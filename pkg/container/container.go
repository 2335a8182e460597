package container

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"

	"bookshelf-backend/internal/config"
	cataloguestore "bookshelf-backend/internal/domains/catalogue/store"
	"bookshelf-backend/internal/domains/notification"
	proposalHandler "bookshelf-backend/internal/domains/proposal/handler"
	proposalRepo "bookshelf-backend/internal/domains/proposal/repository"
	proposalService "bookshelf-backend/internal/domains/proposal/service"
	infraCache "bookshelf-backend/internal/infrastructure/cache"
	"bookshelf-backend/internal/infrastructure/database"
	"bookshelf-backend/internal/infrastructure/storage"
	"bookshelf-backend/pkg/cache"
	"bookshelf-backend/pkg/jwt"
)

// Container is the root of the dependency graph. Everything in it is a
// singleton wired once at startup.
//
// The backend choice (postgres vs in-memory) is made exactly here, from
// config, and never revisited per call. With the memory backend the
// process runs self-contained: no postgres, no Redis, no MinIO.
type Container struct {
	Config *config.Config

	// Infrastructure. DB and AsynqClient are nil on the memory backend.
	DB          *database.PostgresDB
	Cache       cache.Cache
	AssetStore  storage.AssetStore
	AsynqClient *asynq.Client
	JWTManager  *jwt.Manager

	// Domain layers.
	CatalogueStore  cataloguestore.Store
	ProposalRepo    proposalRepo.Repository
	Dispatcher      notification.Dispatcher
	ProposalService proposalService.Service
	ProposalHandler *proposalHandler.ProposalHandler
}

func NewContainer() (*Container, error) {
	c := &Container{}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	log.Printf("[Container] Config loaded (env=%s backend=%s)", cfg.App.Environment, cfg.App.Backend)

	c.JWTManager = jwt.NewManager(cfg.JWT.Secret)

	switch cfg.App.Backend {
	case config.BackendPostgres:
		if err := c.wirePostgres(); err != nil {
			return nil, err
		}
	case config.BackendMemory:
		c.wireMemory()
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.App.Backend)
	}

	c.ProposalService = proposalService.NewProposalService(c.ProposalRepo, c.AssetStore, c.Dispatcher)
	c.ProposalHandler = proposalHandler.NewProposalHandler(c.ProposalService)

	log.Println("[Container] Ready")
	return c, nil
}

func (c *Container) wirePostgres() error {
	cfg := c.Config

	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return fmt.Errorf("failed to load database config: %w", err)
	}

	db := database.NewPostgresDB(dbConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.HealthCheck(context.Background()); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	c.DB = db
	log.Println("[Container] Database connected")

	redisCache := infraCache.NewRedisCache(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	if rc, ok := redisCache.(*infraCache.RedisCache); ok {
		if err := rc.Connect(context.Background()); err != nil {
			// Cache is an accelerator, not a dependency. Fall back to no-op.
			log.Printf("[Container] Redis unavailable, running without cache: %v", err)
			redisCache = infraCache.NewNoopCache()
		} else {
			log.Println("[Container] Redis connected")
		}
	}
	c.Cache = redisCache

	minioStore, err := storage.NewMinIOStorage(cfg.MinIO)
	if err != nil {
		return fmt.Errorf("failed to initialize object storage: %w", err)
	}
	c.AssetStore = minioStore
	log.Println("[Container] Object storage ready")

	c.AsynqClient = asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Host,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	c.CatalogueStore = cataloguestore.NewPostgresStore(db.Pool, c.Cache)
	c.ProposalRepo = proposalRepo.NewPostgresRepository(db.Pool, c.CatalogueStore)
	c.Dispatcher = notification.NewAsynqDispatcher(c.AsynqClient)

	return nil
}

func (c *Container) wireMemory() {
	c.Cache = infraCache.NewNoopCache()
	c.AssetStore = storage.NewMemoryStorage()

	memStore := cataloguestore.NewMemoryStore()
	c.CatalogueStore = memStore
	c.ProposalRepo = proposalRepo.NewMemoryRepository(memStore)
	c.Dispatcher = notification.NewLogDispatcher()

	log.Println("[Container] In-memory backend wired")
}

// Cleanup releases external connections. Safe to call on a partially
// wired container.
func (c *Container) Cleanup() {
	if c.AsynqClient != nil {
		if err := c.AsynqClient.Close(); err != nil {
			log.Printf("[Container] Asynq client close: %v", err)
		}
	}
	if rc, ok := c.Cache.(*infraCache.RedisCache); ok {
		if err := rc.Close(); err != nil {
			log.Printf("[Container] Redis close: %v", err)
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			log.Printf("[Container] Database close: %v", err)
		}
	}
	log.Println("[Container] Cleanup complete")
}
