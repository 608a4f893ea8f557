package application

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Kilat-Pet-Delivery/service-transfer/internal/common/domain"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/common/kafka"
	bookingDomain "github.com/Kilat-Pet-Delivery/service-transfer/internal/domain/booking"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/domain/notification"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/domain/pricing"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/domain/route"
)

// --- Waypoints ---

type fakeWaypointRepo struct {
	waypoints map[uuid.UUID]route.Waypoint
	listErr   error
}

func newFakeWaypointRepo(wps ...route.Waypoint) *fakeWaypointRepo {
	r := &fakeWaypointRepo{waypoints: make(map[uuid.UUID]route.Waypoint)}
	for _, w := range wps {
		r.waypoints[w.ID] = w
	}
	return r
}

func (r *fakeWaypointRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]route.Waypoint, error) {
	out := make([]route.Waypoint, len(ids))
	for i, id := range ids {
		w, ok := r.waypoints[id]
		if !ok {
			return nil, domain.NewNotFoundError("Waypoint", id.String())
		}
		out[i] = w
	}
	return out, nil
}

func (r *fakeWaypointRepo) ListActive(_ context.Context) ([]route.Waypoint, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []route.Waypoint
	for _, w := range r.waypoints {
		if w.IsActive {
			out = append(out, w)
		}
	}
	return out, nil
}

func waypointAt(name string, lat, lng float64) route.Waypoint {
	return route.Waypoint{ID: uuid.New(), DisplayName: name, Latitude: &lat, Longitude: &lng, IsActive: true}
}

// --- Pricing settings ---

type fakeSettingsRepo struct {
	mu        sync.Mutex
	settings  *pricing.GlobalPricingSettings
	overrides map[uuid.UUID]*pricing.ProviderPricingOverride
	err       error
	saved     []pricing.GlobalPricingSettings
}

func (r *fakeSettingsRepo) GetSettings(_ context.Context) (*pricing.GlobalPricingSettings, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.settings, nil
}

func (r *fakeSettingsRepo) FindOverride(_ context.Context, providerID uuid.UUID) (*pricing.ProviderPricingOverride, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.overrides[providerID], nil
}

func (r *fakeSettingsRepo) SaveSettings(_ context.Context, s pricing.GlobalPricingSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = append(r.saved, s)
	r.settings = &s
	return nil
}

// --- Bookings ---

type fakeBookingRepo struct {
	mu        sync.Mutex
	bookings  map[uuid.UUID]*bookingDomain.Booking
	provider  *bookingDomain.Provider
	vehicle   *bookingDomain.Vehicle
	waypoints *fakeWaypointRepo
	createErr error
	creates   int
}

func newFakeBookingRepo(provider *bookingDomain.Provider, vehicle *bookingDomain.Vehicle, waypoints *fakeWaypointRepo) *fakeBookingRepo {
	return &fakeBookingRepo{
		bookings:  make(map[uuid.UUID]*bookingDomain.Booking),
		provider:  provider,
		vehicle:   vehicle,
		waypoints: waypoints,
	}
}

func (r *fakeBookingRepo) CreateAndLoad(ctx context.Context, bk *bookingDomain.Booking) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if r.createErr != nil {
		return nil, r.createErr
	}
	loaded := r.join(ctx, bk)
	r.bookings[bk.ID()] = loaded
	return loaded, nil
}

func (r *fakeBookingRepo) join(ctx context.Context, bk *bookingDomain.Booking) *bookingDomain.Booking {
	wps, _ := r.waypoints.FindByIDs(ctx, []uuid.UUID{bk.StartWaypointID(), bk.EndWaypointID()})
	var start, end *route.Waypoint
	if len(wps) == 2 {
		start, end = &wps[0], &wps[1]
	}
	return bookingDomain.ReconstructBooking(bookingDomain.Snapshot{
		ID:              bk.ID(),
		BookingNumber:   bk.BookingNumber(),
		Status:          bk.Status(),
		Customer:        bk.Customer(),
		StartWaypointID: bk.StartWaypointID(),
		EndWaypointID:   bk.EndWaypointID(),
		StopWaypointIDs: bk.StopWaypointIDs(),
		Coordinates:     bk.Coordinates(),
		ScheduledDate:   bk.ScheduledDate(),
		ScheduledTime:   bk.ScheduledTime(),
		ProviderID:      bk.ProviderID(),
		VehicleID:       bk.VehicleID(),
		DistanceKm:      bk.DistanceKm(),
		TotalPrice:      bk.TotalPrice(),
		DecisionNote:    bk.DecisionNote(),
		Provider:        r.provider,
		Vehicle:         r.vehicle,
		StartWaypoint:   start,
		EndWaypoint:     end,
		Version:         bk.Version(),
		CreatedAt:       bk.CreatedAt(),
		UpdatedAt:       bk.UpdatedAt(),
	})
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bk, ok := r.bookings[id]
	if !ok {
		return nil, domain.NewNotFoundError("Booking", id.String())
	}
	return bk, nil
}

func (r *fakeBookingRepo) ListAll(_ context.Context, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*bookingDomain.Booking
	for _, bk := range r.bookings {
		out = append(out, bk)
	}
	return out, int64(len(out)), nil
}

func (r *fakeBookingRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, bk := range r.bookings {
		counts[string(bk.Status())]++
	}
	return counts, nil
}

func (r *fakeBookingRepo) Update(_ context.Context, bk *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[bk.ID()] = bk
	return nil
}

func (r *fakeBookingRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bookings)
}

// --- Notifications ---

type fakeLogRepo struct {
	mu      sync.Mutex
	batches [][]notification.LogEntry
	err     error
}

func (r *fakeLogRepo) SaveBatch(_ context.Context, entries []notification.LogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]notification.LogEntry, len(entries))
	copy(cp, entries)
	r.batches = append(r.batches, cp)
	return r.err
}

func (r *fakeLogRepo) FindByBookingID(_ context.Context, bookingID uuid.UUID) ([]notification.LogEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notification.LogEntry
	for _, b := range r.batches {
		for _, e := range b {
			if e.BookingID == bookingID {
				out = append(out, e)
			}
		}
	}
	return out, nil
}

func (r *fakeLogRepo) batchCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

type fakeContactRepo struct {
	contacts []notification.OperatorContact
	err      error
}

func (r *fakeContactRepo) ListPrimaryOperators(_ context.Context) ([]notification.OperatorContact, error) {
	return r.contacts, r.err
}

type fakeSender struct {
	mu       sync.Mutex
	requests []notification.SendRequest
	// fail maps a normalized phone to the error returned for it.
	fail  map[string]error
	panic map[string]bool
}

func (s *fakeSender) SendMessage(_ context.Context, req notification.SendRequest) (*notification.SendResult, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	if s.panic[req.Phone] {
		panic("gateway exploded")
	}
	if err := s.fail[req.Phone]; err != nil {
		return &notification.SendResult{Success: false, Error: err.Error()}, err
	}
	return &notification.SendResult{Success: true, MessageID: "msg-" + req.Phone}, nil
}

func (s *fakeSender) sent() []notification.SendRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]notification.SendRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// --- Events ---

type fakePublisher struct {
	mu     sync.Mutex
	events []kafka.CloudEvent
	err    error
}

func (p *fakePublisher) PublishEvent(_ context.Context, _, _ string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type fakeNotifier struct {
	mu       sync.Mutex
	bookings []*bookingDomain.Booking
}

func (n *fakeNotifier) Dispatch(bk *bookingDomain.Booking) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.bookings = append(n.bookings, bk)
	return true
}

var errBoom = errors.New("boom")

// --- Fixture ---

type fixture struct {
	start, end route.Waypoint
	provider   *bookingDomain.Provider
	vehicle    *bookingDomain.Vehicle
	waypoints  *fakeWaypointRepo
	settings   *fakeSettingsRepo
	bookings   *fakeBookingRepo
	logs       *fakeLogRepo
	publisher  *fakePublisher
	notifier   *fakeNotifier
	pricing    *PricingService
	service    *BookingService
}

func newFixture(cfg BookingConfig) *fixture {
	f := &fixture{
		start: waypointAt("Casablanca Airport", 33.3675, -7.5898),
		end:   waypointAt("Rabat Agdal", 34.0000, -6.8500),
		provider: &bookingDomain.Provider{
			ID: uuid.New(), Name: "Atlas Transfers", Phone: "0612345678", IsActive: true, IsVerified: true,
		},
		settings:  &fakeSettingsRepo{},
		logs:      &fakeLogRepo{},
		publisher: &fakePublisher{},
		notifier:  &fakeNotifier{},
	}
	f.vehicle = &bookingDomain.Vehicle{
		ID: uuid.New(), ProviderID: f.provider.ID, Make: "Toyota", Model: "Prado", Seats: 6, IsActive: true,
	}
	f.waypoints = newFakeWaypointRepo(f.start, f.end)
	f.bookings = newFakeBookingRepo(f.provider, f.vehicle, f.waypoints)

	logger := zap.NewNop()
	f.pricing = NewPricingService(
		f.waypoints,
		f.settings,
		route.NewCalculator(route.DefaultCalculatorConfig()),
		pricing.NewEngine(pricing.DefaultSettings()),
		pricing.DefaultProviderPercent,
		logger,
	)
	f.service = NewBookingService(f.bookings, f.waypoints, f.pricing, f.logs, f.publisher, f.notifier, cfg, logger)
	return f
}

// serverPrice is what the service computes for start -> end with default settings.
func (f *fixture) serverPrice() int64 {
	rq := route.NewCalculator(route.DefaultCalculatorConfig()).ComputeRoute([]route.Waypoint{f.start, f.end})
	return pricing.NewEngine(pricing.DefaultSettings()).QuoteRoute(rq, nil, nil).Price
}

func (f *fixture) request() CreateBookingRequest {
	return CreateBookingRequest{
		CustomerFirstName: "Amina",
		CustomerPhone:     "0698765432",
		CustomerEmail:     "amina@example.com",
		StartWaypointID:   f.start.ID.String(),
		EndWaypointID:     f.end.ID.String(),
		Date:              "2026-11-02",
		Time:              "09:30",
		ProviderID:        f.provider.ID.String(),
		VehicleID:         f.vehicle.ID.String(),
		TotalPrice:        f.serverPrice(),
		DistanceKm:        80,
	}
}
