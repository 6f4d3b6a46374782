package main

import (
	"context"

	"hotelops/internal/events"
	"hotelops/internal/reservations/handler"
	"hotelops/internal/reservations/repository"
	"hotelops/internal/reservations/service"
	"hotelops/internal/reservations/validator"
	"hotelops/internal/roomcache"
	roomsrepository "hotelops/internal/rooms/repository"
	"hotelops/pkg/app"
	"hotelops/pkg/config"
	mongotx "hotelops/pkg/db/mongo"
	"hotelops/pkg/model"
)

const ServiceName = "reservations"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Reservations service")
	reservationService, bus := initServices(cfg)
	bus.Start()

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewReservationHandler(reservationService, cfg.Log))
	serverApp.OnShutdown(bus.Close)
	serverApp.OnShutdown(func(context.Context) { cfg.GracefulShutdown() })
	serverApp.Run()
}

func initServices(cfg *config.Config) (service.ReservationService, *events.Bus) {
	cache, err := roomcache.New[[]*model.Reservation](cfg.RoomCacheSize)
	if err != nil {
		cfg.Log.Fatal("Failed to create room cache", "error", err)
	}

	bus, err := events.NewBus(cfg, ServiceName, cfg.KafkaReservationsTopic, cache)
	if err != nil {
		cfg.Log.Fatal("Failed to configure event bus", "error", err)
	}

	reservationService := service.NewReservationService(
		repository.NewMongoReservationRepository(cfg),
		roomsrepository.NewMongoRoomRepository(cfg),
		mongotx.NewGuard(cfg.Client.Mongo.Database(cfg.MongoDatabaseName)),
		validator.NewReservationValidator(cfg.Log),
		cache,
		bus.Publisher(ServiceName),
		cfg,
	)

	cfg.Log.Info("Reservation service initialized",
		"database", cfg.MongoDatabaseName,
		"allow_reinstate", cfg.ReservationAllowReinstate,
	)
	return reservationService, bus
}
