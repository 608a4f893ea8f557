//go:build integration

package main_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-transfer/internal/common/domain"
	bookingDomain "github.com/Kilat-Pet-Delivery/service-transfer/internal/domain/booking"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/domain/notification"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/domain/pricing"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/repository"
)

func TestTransferService(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupTransferStack(t, infra)
	defer stack.Cleanup()

	seed := seedReferenceData(t, infra.DB)

	t.Run("CreateBooking persists, publishes and notifies", func(t *testing.T) {
		ctx := context.Background()
		created, err := stack.Service.CreateBooking(ctx, bookingRequest(t, stack, seed))
		require.NoError(t, err)

		require.NotNil(t, created.Provider)
		assert.Equal(t, "Atlas Transfers", created.Provider.Name)
		require.NotNil(t, created.Vehicle)
		assert.Equal(t, "Prado", created.Vehicle.Model)
		require.NotNil(t, created.StartWaypoint)
		assert.Equal(t, "Mohammed V Airport", created.StartWaypoint.DisplayName)
		require.NotNil(t, created.EndWaypoint)
		assert.Equal(t, "Rabat Agdal", created.EndWaypoint.DisplayName)
		assert.Equal(t, []uuid.UUID{seed.Stop}, created.StopWaypointIDs)

		ce := consumeOneEvent(t, infra.KafkaBrokers, bookingDomain.TopicBookingEvents,
			bookingDomain.EventBookingCreated, 15*time.Second)
		var evt bookingDomain.BookingCreatedEvent
		require.NoError(t, ce.ParseData(&evt))
		assert.Equal(t, seed.ProviderID, evt.ProviderID)

		var logs []notification.LogEntry
		require.Eventually(t, func() bool {
			logs, err = stack.Service.GetNotificationLogs(ctx, created.ID)
			return err == nil && len(logs) == 3
		}, 10*time.Second, 200*time.Millisecond)
		for _, e := range logs {
			assert.Equal(t, notification.StatusSent, e.Status, string(e.RecipientType))
		}
	})

	t.Run("missing stop waypoint leaves no booking row", func(t *testing.T) {
		ctx := context.Background()
		repo := repository.NewGormBookingRepository(infra.DB)

		var before int64
		require.NoError(t, infra.DB.Model(&repository.BookingModel{}).Count(&before).Error)

		bk, err := bookingDomain.NewBooking(bookingDomain.Details{
			Customer:        bookingDomain.CustomerInfo{FirstName: "Omar", Phone: "0611111111"},
			StartWaypointID: seed.Start,
			EndWaypointID:   seed.End,
			StopWaypointIDs: []uuid.UUID{uuid.New()},
			ScheduledDate:   "2026-11-03",
			ScheduledTime:   "10:00",
			ProviderID:      seed.ProviderID,
			VehicleID:       seed.VehicleID,
			TotalPrice:      300,
		})
		require.NoError(t, err)

		_, err = repo.CreateAndLoad(ctx, bk)
		require.Error(t, err)
		assert.True(t, domain.IsNotFound(err))

		var after int64
		require.NoError(t, infra.DB.Model(&repository.BookingModel{}).Count(&after).Error)
		assert.Equal(t, before, after)
		var stops int64
		require.NoError(t, infra.DB.Model(&repository.BookingStopModel{}).Where("booking_id = ?", bk.ID()).Count(&stops).Error)
		assert.Zero(t, stops)
	})

	t.Run("unknown vehicle is rejected", func(t *testing.T) {
		req := bookingRequest(t, stack, seed)
		req.VehicleID = uuid.NewString()

		_, err := stack.Service.CreateBooking(context.Background(), req)
		require.Error(t, err)
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("vehicle and provider must be bookable", func(t *testing.T) {
		otherProvider := seedProvider(t, infra.DB, "Rif Shuttles", true, true)
		unverified := seedProvider(t, infra.DB, "Unverified Cabs", true, false)
		inactive := seedProvider(t, infra.DB, "Retired Cabs", false, true)

		cases := []struct {
			name       string
			providerID uuid.UUID
			vehicleID  uuid.UUID
		}{
			{"inactive vehicle", seed.ProviderID, seedVehicle(t, infra.DB, seed.ProviderID, false)},
			{"vehicle of another provider", seed.ProviderID, seedVehicle(t, infra.DB, otherProvider, true)},
			{"unverified provider", unverified, seedVehicle(t, infra.DB, unverified, true)},
			{"inactive provider", inactive, seedVehicle(t, infra.DB, inactive, true)},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				before := countBookings(t, infra.DB)

				req := bookingRequest(t, stack, seed)
				req.ProviderID = tc.providerID.String()
				req.VehicleID = tc.vehicleID.String()

				_, err := stack.Service.CreateBooking(context.Background(), req)
				require.Error(t, err)
				assert.True(t, domain.IsValidation(err), err.Error())
				assert.Equal(t, before, countBookings(t, infra.DB))
			})
		}
	})

	t.Run("provider command confirms booking", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		created, err := stack.Service.CreateBooking(ctx, bookingRequest(t, stack, seed))
		require.NoError(t, err)

		go func() { _ = stack.Consumer.Start(ctx) }()
		time.Sleep(3 * time.Second) // consumer group join

		publishTestEvent(t, infra.KafkaBrokers, bookingDomain.TopicProviderCommands, created.ID.String(),
			"provider-app", bookingDomain.CommandConfirm, bookingDomain.ProviderCommand{
				BookingID:  created.ID,
				ProviderID: seed.ProviderID,
			})

		model := waitForBookingStatus(t, infra.DB, created.ID, "confirmed", 15*time.Second)
		assert.Equal(t, int64(2), model.Version)

		ce := consumeOneEvent(t, infra.KafkaBrokers, bookingDomain.TopicBookingEvents,
			bookingDomain.EventBookingConfirmed, 15*time.Second)
		var evt bookingDomain.BookingStatusChangedEvent
		require.NoError(t, ce.ParseData(&evt))
		assert.Equal(t, "confirmed", evt.Status)
	})

	t.Run("stale update is a conflict", func(t *testing.T) {
		ctx := context.Background()
		repo := repository.NewGormBookingRepository(infra.DB)
		created, err := stack.Service.CreateBooking(ctx, bookingRequest(t, stack, seed))
		require.NoError(t, err)

		first, err := repo.FindByID(ctx, created.ID)
		require.NoError(t, err)
		second, err := repo.FindByID(ctx, created.ID)
		require.NoError(t, err)

		require.NoError(t, first.Confirm())
		first.IncrementVersion()
		require.NoError(t, repo.Update(ctx, first))

		require.NoError(t, second.Reject("late"))
		second.IncrementVersion()
		err = repo.Update(ctx, second)
		assert.True(t, domain.IsConflict(err))
	})

	t.Run("pricing settings are cached and evicted on save", func(t *testing.T) {
		ctx := context.Background()
		logger := zap.NewNop()
		cached := repository.NewCachedPricingRepository(
			repository.NewGormPricingRepository(infra.DB), infra.Redis, time.Minute, logger)

		settings, err := cached.GetSettings(ctx)
		require.NoError(t, err)
		assert.Nil(t, settings)
		n, err := infra.Redis.Exists(ctx, "transfer:pricing:settings").Result()
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		updated := pricing.DefaultSettings()
		updated.BaseRatePerKm = 2.2
		require.NoError(t, cached.SaveSettings(ctx, updated))
		n, err = infra.Redis.Exists(ctx, "transfer:pricing:settings").Result()
		require.NoError(t, err)
		assert.Zero(t, n)

		settings, err = cached.GetSettings(ctx)
		require.NoError(t, err)
		require.NotNil(t, settings)
		assert.Equal(t, 2.2, settings.BaseRatePerKm)

		// Only one active row remains.
		var active int64
		require.NoError(t, infra.DB.Model(&repository.PricingSettingsModel{}).Where("is_active = ?", true).Count(&active).Error)
		assert.Equal(t, int64(1), active)

		_, err = stack.Pricing.UpdateSettings(ctx, pricing.DefaultSettings())
		require.NoError(t, err)
	})

	t.Run("admin stats count every booking", func(t *testing.T) {
		stats, err := stack.Service.GetBookingStats(context.Background())
		require.NoError(t, err)
		assert.GreaterOrEqual(t, stats.TotalBookings, int64(3))

		page, err := stack.Service.ListAllBookings(context.Background(), 1, 2)
		require.NoError(t, err)
		assert.Len(t, page.Items, 2)
		assert.Equal(t, stats.TotalBookings, page.Total)
	})
}
