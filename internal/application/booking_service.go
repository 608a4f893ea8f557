package application

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-transfer/internal/common/domain"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/common/kafka"
	bookingDomain "github.com/Kilat-Pet-Delivery/service-transfer/internal/domain/booking"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/domain/notification"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/domain/pricing"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/domain/route"
)

const eventSource = "service-transfer"

// Coordinate is a latitude/longitude pair in a request.
type Coordinate struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// CreateBookingRequest holds the data needed to create a new booking.
type CreateBookingRequest struct {
	CustomerFirstName string       `json:"customer_first_name" validate:"required,max=100"`
	CustomerPhone     string       `json:"customer_phone" validate:"required,max=30"`
	CustomerEmail     string       `json:"customer_email" validate:"omitempty,email"`
	CustomerComment   string       `json:"customer_comment" validate:"max=1000"`
	StartWaypointID   string       `json:"start_waypoint_id" validate:"required,uuid"`
	EndWaypointID     string       `json:"end_waypoint_id" validate:"required,uuid"`
	StopWaypointIDs   []string     `json:"stop_waypoint_ids" validate:"omitempty,dive,uuid"`
	PickupLat         *float64     `json:"pickup_lat" validate:"omitempty,gte=-90,lte=90"`
	PickupLng         *float64     `json:"pickup_lng" validate:"omitempty,gte=-180,lte=180"`
	DropoffLat        *float64     `json:"dropoff_lat" validate:"omitempty,gte=-90,lte=90"`
	DropoffLng        *float64     `json:"dropoff_lng" validate:"omitempty,gte=-180,lte=180"`
	StopCoords        []Coordinate `json:"stop_coords" validate:"omitempty,dive"`
	Date              string       `json:"date" validate:"required"`
	Time              string       `json:"time" validate:"required"`
	ProviderID        string       `json:"provider_id" validate:"required,uuid"`
	VehicleID         string       `json:"vehicle_id" validate:"required,uuid"`
	TotalPrice        int64        `json:"total_price" validate:"gte=0"`
	DistanceKm        float64      `json:"distance_km" validate:"gte=0"`
	Status            string       `json:"status" validate:"omitempty,oneof=pending"`
}

// TransitionRequest carries a provider decision. ProviderID, when set, must
// match the booking's provider.
type TransitionRequest struct {
	ProviderID string `json:"provider_id" validate:"omitempty,uuid"`
	Reason     string `json:"reason" validate:"max=500"`
}

// BookingDTO is the response representation of a booking.
type BookingDTO struct {
	ID              uuid.UUID                        `json:"id"`
	BookingNumber   string                           `json:"booking_number"`
	Status          string                           `json:"status"`
	Customer        bookingDomain.CustomerInfo       `json:"customer"`
	StartWaypointID uuid.UUID                        `json:"start_waypoint_id"`
	EndWaypointID   uuid.UUID                        `json:"end_waypoint_id"`
	StopWaypointIDs []uuid.UUID                      `json:"stop_waypoint_ids"`
	StartWaypoint   *route.Waypoint                  `json:"start_waypoint,omitempty"`
	EndWaypoint     *route.Waypoint                  `json:"end_waypoint,omitempty"`
	Coordinates     bookingDomain.CoordinateSnapshot `json:"coordinates"`
	ScheduledDate   string                           `json:"date"`
	ScheduledTime   string                           `json:"time"`
	ProviderID      uuid.UUID                        `json:"provider_id"`
	VehicleID       uuid.UUID                        `json:"vehicle_id"`
	Provider        *bookingDomain.Provider          `json:"provider,omitempty"`
	Vehicle         *bookingDomain.Vehicle           `json:"vehicle,omitempty"`
	DistanceKm      float64                          `json:"distance_km"`
	TotalPrice      int64                            `json:"total_price"`
	Commission      pricing.CommissionBreakdown      `json:"commission"`
	DecisionNote    string                           `json:"decision_note,omitempty"`
	Version         int64                            `json:"version"`
	CreatedAt       time.Time                        `json:"created_at"`
	UpdatedAt       time.Time                        `json:"updated_at"`
}

// BookingConfig holds the booking creation policy.
type BookingConfig struct {
	// PriceCheckEnabled makes CreateBooking recompute the price server-side
	// and reject totals outside PriceTolerancePercent of it.
	PriceCheckEnabled     bool
	PriceTolerancePercent float64
	// PublishTimeout bounds each event publish. Zero means defaultPublishTimeout.
	PublishTimeout        time.Duration
}

const defaultPublishTimeout = 2 * time.Second

// EventPublisher publishes CloudEvents to a topic.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event kafka.CloudEvent) error
}

// Notifier accepts bookings for background notification.
type Notifier interface {
	Dispatch(bk *bookingDomain.Booking) bool
}

// BookingService is the application service orchestrating booking use cases.
type BookingService struct {
	repo      bookingDomain.BookingRepository
	waypoints route.WaypointRepository
	pricing   *PricingService
	logs      notification.LogRepository
	publisher EventPublisher
	notifier  Notifier
	cfg       BookingConfig
	logger    *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	repo bookingDomain.BookingRepository,
	waypoints route.WaypointRepository,
	pricingSvc *PricingService,
	logs notification.LogRepository,
	publisher EventPublisher,
	notifier Notifier,
	cfg BookingConfig,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		repo:      repo,
		waypoints: waypoints,
		pricing:   pricingSvc,
		logs:      logs,
		publisher: publisher,
		notifier:  notifier,
		cfg:       cfg,
		logger:    logger,
	}
}

// CreateBooking validates req, persists the booking atomically and hands it to
// the notifier. Only persistence-side failures are returned; notification and
// event publishing are best-effort.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*BookingDTO, error) {
	if err := validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	startID := uuid.MustParse(req.StartWaypointID)
	endID := uuid.MustParse(req.EndWaypointID)
	providerID := uuid.MustParse(req.ProviderID)
	vehicleID := uuid.MustParse(req.VehicleID)
	stopIDs, err := parseUUIDs(req.StopWaypointIDs)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, 0, len(stopIDs)+2)
	ids = append(ids, startID)
	ids = append(ids, stopIDs...)
	ids = append(ids, endID)
	waypoints, err := s.waypoints.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	distanceKm := req.DistanceKm
	if s.cfg.PriceCheckEnabled {
		quote := s.pricing.quoteRoute(ctx, waypoints, providerID)
		if err := s.checkPrice(req.TotalPrice, quote.Price.Price); err != nil {
			s.logger.Warn("rejected booking with inconsistent price",
				zap.Int64("client_price", req.TotalPrice),
				zap.Int64("server_price", quote.Price.Price),
			)
			return nil, err
		}
		distanceKm = quote.Route.DistanceKm
	}

	bk, err := bookingDomain.NewBooking(bookingDomain.Details{
		Customer: bookingDomain.CustomerInfo{
			FirstName: req.CustomerFirstName,
			Phone:     req.CustomerPhone,
			Email:     req.CustomerEmail,
			Comment:   req.CustomerComment,
		},
		StartWaypointID: startID,
		EndWaypointID:   endID,
		StopWaypointIDs: stopIDs,
		Coordinates:     coordinateSnapshot(req, waypoints),
		ScheduledDate:   req.Date,
		ScheduledTime:   req.Time,
		ProviderID:      providerID,
		VehicleID:       vehicleID,
		DistanceKm:      distanceKm,
		TotalPrice:      req.TotalPrice,
	})
	if err != nil {
		return nil, err
	}

	created, err := s.repo.CreateAndLoad(ctx, bk)
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking created",
		zap.String("booking_id", created.ID().String()),
		zap.String("booking_number", created.BookingNumber()),
		zap.Int64("total_price", created.TotalPrice()),
	)

	s.notifier.Dispatch(created)
	s.publishEvent(ctx, bookingDomain.EventBookingCreated, created.ID().String(), bookingDomain.BookingCreatedEvent{
		BookingID:     created.ID(),
		BookingNumber: created.BookingNumber(),
		ProviderID:    created.ProviderID(),
		VehicleID:     created.VehicleID(),
		ScheduledDate: created.ScheduledDate(),
		ScheduledTime: created.ScheduledTime(),
		DistanceKm:    created.DistanceKm(),
		TotalPrice:    created.TotalPrice(),
		OccurredAt:    time.Now().UTC(),
	})

	result := s.toBookingDTO(created)
	return &result, nil
}

func (s *BookingService) checkPrice(clientPrice, serverPrice int64) error {
	tolerance := math.Abs(float64(serverPrice)) * s.cfg.PriceTolerancePercent / 100
	if math.Abs(float64(clientPrice-serverPrice)) > tolerance {
		return domain.NewValidationError(fmt.Sprintf(
			"total price %d does not match quoted price %d", clientPrice, serverPrice))
	}
	return nil
}

// coordinateSnapshot prefers coordinates sent by the client and falls back to
// the waypoint reference data. waypoints is start, stops..., end.
func coordinateSnapshot(req CreateBookingRequest, waypoints []route.Waypoint) bookingDomain.CoordinateSnapshot {
	var snap bookingDomain.CoordinateSnapshot
	start, end := waypoints[0], waypoints[len(waypoints)-1]

	if req.PickupLat != nil && req.PickupLng != nil {
		snap.Pickup = &route.LatLng{Lat: *req.PickupLat, Lng: *req.PickupLng}
	} else if p, ok := start.Point(); ok {
		snap.Pickup = &p
	}
	if req.DropoffLat != nil && req.DropoffLng != nil {
		snap.Dropoff = &route.LatLng{Lat: *req.DropoffLat, Lng: *req.DropoffLng}
	} else if p, ok := end.Point(); ok {
		snap.Dropoff = &p
	}

	stops := waypoints[1 : len(waypoints)-1]
	if len(req.StopCoords) == len(stops) && len(stops) > 0 {
		for _, c := range req.StopCoords {
			snap.Stops = append(snap.Stops, route.LatLng{Lat: c.Lat, Lng: c.Lng})
		}
		return snap
	}
	for _, w := range stops {
		p, ok := w.Point()
		if !ok {
			snap.Stops = nil
			break
		}
		snap.Stops = append(snap.Stops, p)
	}
	return snap
}

// GetBooking retrieves a single booking by ID.
func (s *BookingService) GetBooking(ctx context.Context, bookingID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	result := s.toBookingDTO(bk)
	return &result, nil
}

// ConfirmBooking accepts a pending booking.
func (s *BookingService) ConfirmBooking(ctx context.Context, bookingID uuid.UUID, req TransitionRequest) (*BookingDTO, error) {
	return s.TransitionBooking(ctx, bookingID, bookingDomain.StatusConfirmed, req)
}

// RejectBooking declines a pending booking.
func (s *BookingService) RejectBooking(ctx context.Context, bookingID uuid.UUID, req TransitionRequest) (*BookingDTO, error) {
	return s.TransitionBooking(ctx, bookingID, bookingDomain.StatusRejected, req)
}

// CompleteBooking marks a confirmed trip as done.
func (s *BookingService) CompleteBooking(ctx context.Context, bookingID uuid.UUID, req TransitionRequest) (*BookingDTO, error) {
	return s.TransitionBooking(ctx, bookingID, bookingDomain.StatusCompleted, req)
}

// CancelBooking calls off a confirmed trip.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID uuid.UUID, req TransitionRequest) (*BookingDTO, error) {
	return s.TransitionBooking(ctx, bookingID, bookingDomain.StatusCancelled, req)
}

// TransitionBooking moves the booking to target and publishes the matching event.
func (s *BookingService) TransitionBooking(ctx context.Context, bookingID uuid.UUID, target bookingDomain.BookingStatus, req TransitionRequest) (*BookingDTO, error) {
	if err := validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if req.ProviderID != "" && uuid.MustParse(req.ProviderID) != bk.ProviderID() {
		return nil, domain.NewForbiddenError("booking does not belong to this provider")
	}

	if err := bk.TransitionTo(target, req.Reason); err != nil {
		return nil, err
	}

	bk.IncrementVersion()
	if err := s.repo.Update(ctx, bk); err != nil {
		return nil, err
	}

	s.logger.Info("booking status changed",
		zap.String("booking_id", bk.ID().String()),
		zap.String("status", string(bk.Status())),
	)

	s.publishEvent(ctx, bookingDomain.StatusEventType(bk.Status()), bk.ID().String(), bookingDomain.BookingStatusChangedEvent{
		BookingID:     bk.ID(),
		BookingNumber: bk.BookingNumber(),
		ProviderID:    bk.ProviderID(),
		Status:        string(bk.Status()),
		Note:          bk.DecisionNote(),
		OccurredAt:    time.Now().UTC(),
	})

	result := s.toBookingDTO(bk)
	return &result, nil
}

// --- Admin methods ---

// BookingStatsDTO holds booking statistics for the admin dashboard.
type BookingStatsDTO struct {
	TotalBookings int64            `json:"total_bookings"`
	ByStatus      map[string]int64 `json:"by_status"`
}

// ListAllBookings returns a paginated list of all bookings (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, page, limit int) (*domain.PaginatedResult[BookingDTO], error) {
	bookings, total, err := s.repo.ListAll(ctx, page, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	dtos := make([]BookingDTO, len(bookings))
	for i, bk := range bookings {
		dtos[i] = s.toBookingDTO(bk)
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &BookingStatsDTO{
		TotalBookings: total,
		ByStatus:      counts,
	}, nil
}

// GetNotificationLogs lists the notification attempts for a booking (admin).
func (s *BookingService) GetNotificationLogs(ctx context.Context, bookingID uuid.UUID) ([]notification.LogEntry, error) {
	if _, err := s.repo.FindByID(ctx, bookingID); err != nil {
		return nil, err
	}
	entries, err := s.logs.FindByBookingID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to get notification logs: %w", err)
	}
	return entries, nil
}

// --- Helpers ---

func (s *BookingService) toBookingDTO(bk *bookingDomain.Booking) BookingDTO {
	return BookingDTO{
		ID:              bk.ID(),
		BookingNumber:   bk.BookingNumber(),
		Status:          string(bk.Status()),
		Customer:        bk.Customer(),
		StartWaypointID: bk.StartWaypointID(),
		EndWaypointID:   bk.EndWaypointID(),
		StopWaypointIDs: bk.StopWaypointIDs(),
		StartWaypoint:   bk.StartWaypoint(),
		EndWaypoint:     bk.EndWaypoint(),
		Coordinates:     bk.Coordinates(),
		ScheduledDate:   bk.ScheduledDate(),
		ScheduledTime:   bk.ScheduledTime(),
		ProviderID:      bk.ProviderID(),
		VehicleID:       bk.VehicleID(),
		Provider:        bk.Provider(),
		Vehicle:         bk.Vehicle(),
		DistanceKm:      bk.DistanceKm(),
		TotalPrice:      bk.TotalPrice(),
		Commission:      s.pricing.Commission(bk.TotalPrice()),
		DecisionNote:    bk.DecisionNote(),
		Version:         bk.Version(),
		CreatedAt:       bk.CreatedAt(),
		UpdatedAt:       bk.UpdatedAt(),
	}
}

func (s *BookingService) publishEvent(ctx context.Context, eventType, key string, data interface{}) {
	cloudEvent, err := kafka.NewCloudEvent(eventSource, eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	timeout := s.cfg.PublishTimeout
	if timeout <= 0 {
		timeout = defaultPublishTimeout
	}
	// The booking is already committed, so a cancelled request must not drop the event.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := s.publisher.PublishEvent(pubCtx, bookingDomain.TopicBookingEvents, key, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", bookingDomain.TopicBookingEvents),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
