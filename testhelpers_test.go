//go:build integration

package main_test

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	kafkamodule "github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Kilat-Pet-Delivery/service-transfer/internal/application"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/common/database"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/common/kafka"
	bookingDomain "github.com/Kilat-Pet-Delivery/service-transfer/internal/domain/booking"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/domain/notification"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/domain/pricing"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/domain/route"
	transferEvents "github.com/Kilat-Pet-Delivery/service-transfer/internal/events"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/repository"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/sms"
)

// testInfra holds shared test infrastructure.
type testInfra struct {
	DB           *gorm.DB
	Redis        *redis.Client
	KafkaBrokers []string
	Cleanup      func()
}

// transferStack holds wired-up transfer service components.
type transferStack struct {
	Service    *application.BookingService
	Pricing    *application.PricingService
	Dispatcher *application.NotificationDispatcher
	Consumer   *transferEvents.ProviderCommandConsumer
	Cleanup    func()
}

// seedData is the reference data every test books against.
type seedData struct {
	Start, Stop, End uuid.UUID
	ProviderID       uuid.UUID
	VehicleID        uuid.UUID
}

// setupContainers starts PostgreSQL, Redis and Kafka testcontainers, applies
// the SQL migrations and returns a connected GORM DB.
func setupContainers(t *testing.T) *testInfra {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "test_transfer",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start PostgreSQL container")

	pgHost, err := pgContainer.Host(ctx)
	require.NoError(t, err)
	pgPort, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	pgCfg := database.PostgresConfig{
		Host:     pgHost,
		Port:     pgPort.Port(),
		User:     "test",
		Password: "test",
		DBName:   "test_transfer",
		SSLMode:  "disable",
	}

	var db *gorm.DB
	require.Eventually(t, func() bool {
		db, err = database.Connect(pgCfg, logger)
		return err == nil
	}, 30*time.Second, 1*time.Second, "PostgreSQL not ready for connections")

	require.NoError(t, database.RunMigrations(pgCfg.DatabaseURL(), "migrations", logger))

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start Redis container")
	redisHost, err := redisContainer.Host(ctx)
	require.NoError(t, err)
	redisPort, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: net.JoinHostPort(redisHost, redisPort.Port())})

	kafkaContainer, err := kafkamodule.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "failed to start Kafka container")

	kafkaBrokers, err := kafkaContainer.Brokers(ctx)
	require.NoError(t, err, "failed to get Kafka brokers")

	createTopics(t, kafkaBrokers, bookingDomain.TopicBookingEvents, bookingDomain.TopicProviderCommands)

	cleanup := func() {
		_ = rdb.Close()
		if err := kafkaContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Kafka container: %v", err)
		}
		if err := redisContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate Redis container: %v", err)
		}
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate PostgreSQL container: %v", err)
		}
	}

	return &testInfra{
		DB:           db,
		Redis:        rdb,
		KafkaBrokers: kafkaBrokers,
		Cleanup:      cleanup,
	}
}

// setupTransferStack wires the full transfer service stack against infra.
// The dispatcher uses the log SMS gateway.
func setupTransferStack(t *testing.T, infra *testInfra) *transferStack {
	t.Helper()
	logger, _ := zap.NewDevelopment()

	waypointRepo := repository.NewGormWaypointRepository(infra.DB)
	settingsRepo := repository.NewCachedPricingRepository(
		repository.NewGormPricingRepository(infra.DB), infra.Redis, time.Minute, logger)
	logRepo := repository.NewGormNotificationLogRepository(infra.DB)

	sender, err := sms.NewSender(context.Background(), sms.Config{Provider: sms.ProviderLog}, logger)
	require.NoError(t, err)
	dispatcher := application.NewNotificationDispatcher(
		sender,
		repository.NewGormContactRepository(infra.DB),
		logRepo,
		notification.NewPhoneNormalizer("212"),
		application.DispatcherConfig{Workers: 2},
		logger,
	)
	dispatcher.Start()

	pricingSvc := application.NewPricingService(
		waypointRepo,
		settingsRepo,
		route.NewCalculator(route.DefaultCalculatorConfig()),
		pricing.NewEngine(pricing.DefaultSettings()),
		pricing.DefaultProviderPercent,
		logger,
	)

	producer := kafka.NewProducer(infra.KafkaBrokers, logger)
	bookingSvc := application.NewBookingService(
		repository.NewGormBookingRepository(infra.DB),
		waypointRepo,
		pricingSvc,
		logRepo,
		producer,
		dispatcher,
		application.BookingConfig{PriceCheckEnabled: true, PriceTolerancePercent: 1},
		logger,
	)

	groupID := fmt.Sprintf("test-transfer-%s", uuid.New().String()[:8])
	consumer := transferEvents.NewProviderCommandConsumer(infra.KafkaBrokers, groupID, bookingSvc, logger)

	return &transferStack{
		Service:    bookingSvc,
		Pricing:    pricingSvc,
		Dispatcher: dispatcher,
		Consumer:   consumer,
		Cleanup: func() {
			dispatcher.Stop()
			_ = consumer.Close()
			_ = producer.Close()
		},
	}
}

// seedReferenceData inserts three waypoints, a provider with one vehicle and
// a primary operator contact.
func seedReferenceData(t *testing.T, db *gorm.DB) seedData {
	t.Helper()
	coord := func(v float64) *float64 { return &v }

	s := seedData{
		Start:      uuid.New(),
		Stop:       uuid.New(),
		End:        uuid.New(),
		ProviderID: uuid.New(),
		VehicleID:  uuid.New(),
	}
	waypoints := []repository.WaypointModel{
		{ID: s.Start, DisplayName: "Mohammed V Airport", Latitude: coord(33.3675), Longitude: coord(-7.5898), Priority: 10, IsActive: true},
		{ID: s.Stop, DisplayName: "Casablanca Port", Latitude: coord(33.6050), Longitude: coord(-7.6160), Priority: 5, IsActive: true},
		{ID: s.End, DisplayName: "Rabat Agdal", Latitude: coord(34.0000), Longitude: coord(-6.8500), Priority: 5, IsActive: true},
	}
	require.NoError(t, db.Create(&waypoints).Error)
	require.NoError(t, db.Create(&repository.ProviderModel{
		ID: s.ProviderID, Name: "Atlas Transfers", Phone: "0612345678", IsActive: true, IsVerified: true,
	}).Error)
	require.NoError(t, db.Create(&repository.VehicleModel{
		ID: s.VehicleID, ProviderID: s.ProviderID, Make: "Toyota", Model: "Prado", Seats: 6, IsActive: true,
	}).Error)
	require.NoError(t, db.Create(&repository.OperatorContactModel{
		ID: uuid.New(), Name: "Dispatch", Phone: "+212600000001", IsPrimary: true, IsActive: true,
	}).Error)
	return s
}

// seedProvider inserts a provider. Flags are set after Create because GORM
// skips zero values for columns with a default.
func seedProvider(t *testing.T, db *gorm.DB, name string, active, verified bool) uuid.UUID {
	t.Helper()
	m := repository.ProviderModel{ID: uuid.New(), Name: name, Phone: "0600000000"}
	require.NoError(t, db.Create(&m).Error)
	require.NoError(t, db.Model(&m).Updates(map[string]interface{}{
		"is_active":   active,
		"is_verified": verified,
	}).Error)
	return m.ID
}

// seedVehicle inserts a vehicle owned by providerID.
func seedVehicle(t *testing.T, db *gorm.DB, providerID uuid.UUID, active bool) uuid.UUID {
	t.Helper()
	m := repository.VehicleModel{
		ID: uuid.New(), ProviderID: providerID, Make: "Dacia", Model: "Lodgy", Seats: 7,
	}
	require.NoError(t, db.Create(&m).Error)
	require.NoError(t, db.Model(&m).Update("is_active", active).Error)
	return m.ID
}

func countBookings(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&repository.BookingModel{}).Count(&n).Error)
	return n
}

// bookingRequest builds a request for start -> stop -> end priced at the
// current quote.
func bookingRequest(t *testing.T, stack *transferStack, s seedData) application.CreateBookingRequest {
	t.Helper()
	quote, err := stack.Pricing.Quote(context.Background(), application.QuoteRequest{
		WaypointIDs: []string{s.Start.String(), s.Stop.String(), s.End.String()},
		ProviderID:  s.ProviderID.String(),
	})
	require.NoError(t, err)

	return application.CreateBookingRequest{
		CustomerFirstName: "Amina",
		CustomerPhone:     "0698765432",
		CustomerEmail:     "amina@example.com",
		StartWaypointID:   s.Start.String(),
		EndWaypointID:     s.End.String(),
		StopWaypointIDs:   []string{s.Stop.String()},
		Date:              "2026-11-02",
		Time:              "09:30",
		ProviderID:        s.ProviderID.String(),
		VehicleID:         s.VehicleID.String(),
		TotalPrice:        quote.Price.Price,
		DistanceKm:        quote.Route.DistanceKm,
	}
}

// publishTestEvent publishes a CloudEvent to Kafka.
func publishTestEvent(t *testing.T, brokers []string, topic, key, source, eventType string, data interface{}) {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	producer := kafka.NewProducer(brokers, logger)
	defer func() { _ = producer.Close() }()

	ce, err := kafka.NewCloudEvent(source, eventType, data)
	require.NoError(t, err, "failed to create cloud event")

	err = producer.PublishEvent(context.Background(), topic, key, ce)
	require.NoError(t, err, "failed to publish event")
}

// waitForBookingStatus polls the bookings table until the status matches.
func waitForBookingStatus(t *testing.T, db *gorm.DB, bookingID uuid.UUID, expectedStatus string, timeout time.Duration) repository.BookingModel {
	t.Helper()
	var result repository.BookingModel
	require.Eventually(t, func() bool {
		var model repository.BookingModel
		err := db.Where("id = ?", bookingID).First(&model).Error
		if err != nil {
			return false
		}
		if model.Status == expectedStatus {
			result = model
			return true
		}
		return false
	}, timeout, 200*time.Millisecond, "booking did not transition to %s", expectedStatus)
	return result
}

// consumeOneEvent reads from a Kafka topic until it finds an event of the expected type.
func consumeOneEvent(t *testing.T, brokers []string, topic, expectedType string, timeout time.Duration) kafka.CloudEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	groupID := fmt.Sprintf("test-assert-%s", uuid.New().String()[:8])
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafkago.FirstOffset,
	})
	defer func() { _ = reader.Close() }()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				t.Fatalf("timed out waiting for event type %q on topic %q", expectedType, topic)
			}
			continue
		}
		ce, err := kafka.ParseCloudEvent(msg.Value)
		if err != nil {
			continue
		}
		if ce.Type == expectedType {
			return ce
		}
	}
}

// createTopics pre-creates Kafka topics so producers don't fail with "Unknown Topic".
func createTopics(t *testing.T, brokers []string, topics ...string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", brokers[0])
	require.NoError(t, err, "failed to dial Kafka for topic creation")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "failed to get Kafka controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, fmt.Sprintf("%d", controller.Port)))
	require.NoError(t, err, "failed to connect to Kafka controller")
	defer controllerConn.Close()

	topicConfigs := make([]kafkago.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafkago.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}
	err = controllerConn.CreateTopics(topicConfigs...)
	require.NoError(t, err, "failed to create Kafka topics")

	time.Sleep(1 * time.Second)
}
