package cmd

import (
	"log/slog"
	"strings"

	lastmilehttp "lastmile/internal/adapters/in/http"
	"lastmile/internal/adapters/out/kafka"
	"lastmile/internal/adapters/out/postgres"
	"lastmile/internal/adapters/out/rediscache"
	"lastmile/internal/adapters/out/routing"
	"lastmile/internal/core/application/usecases/commands"
	"lastmile/internal/core/application/usecases/queries"
	"lastmile/internal/core/domain/services"
	"lastmile/internal/core/ports"
	"lastmile/internal/jobs"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CompositionRoot wires adapters into use case handlers. Optional
// collaborators (Kafka, Redis, routing) stay nil when unconfigured and the
// handlers degrade accordingly.
type CompositionRoot struct {
	config     Config
	gormDB     *gorm.DB
	logger     *slog.Logger
	uowFactory *postgres.GormUnitOfWorkFactory

	kafkaProducer *kafka.Producer
	redisClient   *goredis.Client
	publisher     ports.OrderEventPublisher
	etaCache      ports.ETACache
	routeService  ports.RouteService
	estimator     services.ETAEstimator
}

// NewCompositionRoot builds the object graph from config and an open
// database connection.
func NewCompositionRoot(config Config, gormDB *gorm.DB, logger *slog.Logger) (*CompositionRoot, error) {
	root := &CompositionRoot{
		config:     config,
		gormDB:     gormDB,
		logger:     logger,
		uowFactory: postgres.NewGormUnitOfWorkFactory(gormDB),
	}

	estimator, err := services.NewETAEstimator(config.AverageSpeedKmh)
	if err != nil {
		return nil, err
	}
	root.estimator = estimator

	if config.KafkaHost != "" {
		producer, producerErr := kafka.NewProducer(
			strings.Split(config.KafkaHost, ","), config.KafkaStatusChangedTopic)
		if producerErr != nil {
			return nil, producerErr
		}
		root.kafkaProducer = producer
		root.publisher = producer
	}

	if config.RedisAddr != "" {
		root.redisClient = goredis.NewClient(&goredis.Options{
			Addr:     config.RedisAddr,
			Password: config.RedisPassword,
		})
		root.etaCache = rediscache.NewETACache(root.redisClient, config.ETACacheTTL)
	}

	if config.RoutingBaseURL != "" {
		routeService, routeErr := routing.NewClient(config.RoutingBaseURL, config.RoutingTimeout)
		if routeErr != nil {
			return nil, routeErr
		}
		root.routeService = routeService
	}

	return root, nil
}

// Close releases connections owned by the root.
func (c *CompositionRoot) Close() error {
	if c.kafkaProducer != nil {
		if err := c.kafkaProducer.Close(); err != nil {
			return err
		}
	}
	if c.redisClient != nil {
		return c.redisClient.Close()
	}
	return nil
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	var f commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
	return commands.NewCreateOrderCommandHandler(f)
}

func (c *CompositionRoot) CreateUpdateOrderStatusCommandHandler() commands.UpdateOrderStatusCommandHandler {
	var f commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
	return commands.NewUpdateOrderStatusCommandHandler(f, c.publisher, c.etaCache, c.logger)
}

func (c *CompositionRoot) CreateAssignRiderCommandHandler() commands.AssignRiderCommandHandler {
	var f commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
	return commands.NewAssignRiderCommandHandler(f)
}

func (c *CompositionRoot) CreateCancelStaleOrdersCommandHandler() commands.CancelStaleOrdersCommandHandler {
	var f commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
	return commands.NewCancelStaleOrdersCommandHandler(
		c.CreateUpdateOrderStatusCommandHandler(), f, c.logger)
}

func (c *CompositionRoot) CreateGetOrderTimelineQueryHandler() queries.GetOrderTimelineQueryHandler {
	return queries.NewGetOrderTimelineQueryHandler(
		c.gormDB, c.routeService, c.etaCache, c.estimator, c.logger)
}

// CreateHTTPServer builds the REST API server over the use case handlers.
func (c *CompositionRoot) CreateHTTPServer() *lastmilehttp.Server {
	return lastmilehttp.NewServer(
		c.CreateCreateOrderCommandHandler(),
		c.CreateUpdateOrderStatusCommandHandler(),
		c.CreateAssignRiderCommandHandler(),
		c.CreateGetOrderTimelineQueryHandler(),
	)
}

// CreateJobManager builds the background job coordinator.
func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(
		c.CreateCancelStaleOrdersCommandHandler(),
		c.config.StaleOrderMaxAge,
		c.config.StaleOrderSchedule,
		c.logger,
	)
}

// FuncUoWFactory adapts a closure to the commands.UoWFactory interface.
type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}
