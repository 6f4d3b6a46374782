package main

import (
	"context"

	"hotelops/internal/events"
	"hotelops/internal/roomcache"
	roomsrepository "hotelops/internal/rooms/repository"
	"hotelops/internal/tasks/handler"
	"hotelops/internal/tasks/repository"
	"hotelops/internal/tasks/service"
	"hotelops/internal/tasks/validator"
	"hotelops/pkg/app"
	"hotelops/pkg/config"
	mongotx "hotelops/pkg/db/mongo"
	"hotelops/pkg/model"
)

const ServiceName = "tasks"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Tasks service")
	taskService, bus := initServices(cfg)
	bus.Start()

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewTaskHandler(taskService, cfg.Log))
	serverApp.OnShutdown(bus.Close)
	serverApp.OnShutdown(func(context.Context) { cfg.GracefulShutdown() })
	serverApp.Run()
}

func initServices(cfg *config.Config) (service.TaskService, *events.Bus) {
	cache, err := roomcache.New[[]*model.Task](cfg.RoomCacheSize)
	if err != nil {
		cfg.Log.Fatal("Failed to create room cache", "error", err)
	}

	bus, err := events.NewBus(cfg, ServiceName, cfg.KafkaTasksTopic, cache)
	if err != nil {
		cfg.Log.Fatal("Failed to configure event bus", "error", err)
	}

	taskService := service.NewTaskService(
		repository.NewMongoTaskRepository(cfg),
		roomsrepository.NewMongoRoomRepository(cfg),
		mongotx.NewGuard(cfg.Client.Mongo.Database(cfg.MongoDatabaseName)),
		validator.NewTaskValidator(cfg.Log),
		cache,
		bus.Publisher(ServiceName),
		cfg,
	)

	cfg.Log.Info("Task service initialized",
		"database", cfg.MongoDatabaseName,
		"hotel_time_zone", cfg.HotelTimeZone,
	)
	return taskService, bus
}
