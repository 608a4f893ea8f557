package application

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	bookingDomain "github.com/Kilat-Pet-Delivery/service-transfer/internal/domain/booking"
	"github.com/Kilat-Pet-Delivery/service-transfer/internal/domain/notification"
)

// DispatcherConfig configures the notification worker pool.
type DispatcherConfig struct {
	Workers   int
	QueueSize int
	Templates notification.Templates
	// Credential is passed to the sender with every message (sender ID or from-number).
	Credential string
}

// NotificationDispatcher sends booking notifications in the background.
// Each booking is one cycle: the driver, every primary operator contact and
// the passenger are messaged concurrently, and every attempt is logged with a
// single batch insert. Failures never reach the caller.
type NotificationDispatcher struct {
	sender     notification.MessageSender
	contacts   notification.ContactRepository
	logs       notification.LogRepository
	normalizer notification.PhoneNormalizer
	templates  notification.Templates
	credential string
	workers    int
	logger     *zap.Logger

	queue   chan *bookingDomain.Booking
	mu      sync.RWMutex
	stopped bool
	started bool
	wg      sync.WaitGroup
}

// NewNotificationDispatcher creates a dispatcher. Call Start before Dispatch.
func NewNotificationDispatcher(
	sender notification.MessageSender,
	contacts notification.ContactRepository,
	logs notification.LogRepository,
	normalizer notification.PhoneNormalizer,
	cfg DispatcherConfig,
	logger *zap.Logger,
) *NotificationDispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	return &NotificationDispatcher{
		sender:     sender,
		contacts:   contacts,
		logs:       logs,
		normalizer: normalizer,
		templates:  cfg.Templates.WithDefaults(),
		credential: cfg.Credential,
		workers:    cfg.Workers,
		logger:     logger,
		queue:      make(chan *bookingDomain.Booking, cfg.QueueSize),
	}
}

// Start launches the workers. Calling it more than once has no effect.
func (d *NotificationDispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.stopped {
		return
	}
	d.started = true
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
	d.logger.Info("notification dispatcher started", zap.Int("workers", d.workers))
}

// Stop refuses new bookings, lets the workers drain the queue and waits for them.
func (d *NotificationDispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
	d.logger.Info("notification dispatcher stopped")
}

// Dispatch queues bk for notification and returns immediately. It reports
// false when the booking was dropped because the queue is full or the
// dispatcher is stopped.
func (d *NotificationDispatcher) Dispatch(bk *bookingDomain.Booking) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		d.logger.Error("notification dispatcher stopped, dropping booking",
			zap.String("booking_id", bk.ID().String()),
		)
		return false
	}
	select {
	case d.queue <- bk:
		return true
	default:
		d.logger.Error("notification queue full, dropping booking",
			zap.String("booking_id", bk.ID().String()),
			zap.Int("queue_size", cap(d.queue)),
		)
		return false
	}
}

func (d *NotificationDispatcher) work() {
	defer d.wg.Done()
	for bk := range d.queue {
		d.Notify(context.Background(), bk)
	}
}

type recipient struct {
	kind  notification.RecipientType
	phone string
}

// Notify runs one notification cycle for bk synchronously and returns the
// log entries it recorded.
func (d *NotificationDispatcher) Notify(ctx context.Context, bk *bookingDomain.Booking) []notification.LogEntry {
	vars := templateVariables(bk)
	recipients := d.recipients(ctx, bk)

	entries := make([]notification.LogEntry, len(recipients))
	var g errgroup.Group
	for i, r := range recipients {
		i, r := i, r
		g.Go(func() error {
			entries[i] = d.send(ctx, bk.ID(), r, notification.Render(d.templates.For(r.kind), vars))
			return nil
		})
	}
	_ = g.Wait()

	if err := d.logs.SaveBatch(ctx, entries); err != nil {
		d.logger.Error("failed to save notification logs",
			zap.String("booking_id", bk.ID().String()),
			zap.Int("entries", len(entries)),
			zap.Error(err),
		)
	}
	return entries
}

func (d *NotificationDispatcher) recipients(ctx context.Context, bk *bookingDomain.Booking) []recipient {
	var driverPhone string
	if p := bk.Provider(); p != nil {
		driverPhone = p.Phone
	}
	out := []recipient{{kind: notification.RecipientDriver, phone: driverPhone}}

	contacts, err := d.contacts.ListPrimaryOperators(ctx)
	if err != nil {
		d.logger.Warn("failed to load operator contacts, skipping operators",
			zap.String("booking_id", bk.ID().String()),
			zap.Error(err),
		)
	}
	for _, c := range contacts {
		out = append(out, recipient{kind: notification.RecipientOperator, phone: c.Phone})
	}

	return append(out, recipient{kind: notification.RecipientPassenger, phone: bk.Customer().Phone})
}

// send makes one attempt and always returns its log entry, even on panic.
func (d *NotificationDispatcher) send(ctx context.Context, bookingID uuid.UUID, r recipient, message string) (entry notification.LogEntry) {
	entry = notification.LogEntry{
		ID:             uuid.New(),
		BookingID:      bookingID,
		RecipientPhone: r.phone,
		RecipientType:  r.kind,
		Message:        message,
		Status:         notification.StatusFailed,
		CreatedAt:      time.Now().UTC(),
	}
	defer func() {
		if rec := recover(); rec != nil {
			entry.Status = notification.StatusFailed
			entry.ErrorMessage = fmt.Sprintf("panic: %v", rec)
			d.logger.Error("notification send panicked",
				zap.String("booking_id", bookingID.String()),
				zap.String("recipient_type", string(r.kind)),
				zap.Any("panic", rec),
			)
		}
	}()

	phone, err := d.normalizer.Normalize(r.phone)
	if err != nil {
		entry.ErrorMessage = err.Error()
		d.logger.Warn("invalid recipient phone",
			zap.String("booking_id", bookingID.String()),
			zap.String("recipient_type", string(r.kind)),
			zap.String("phone", r.phone),
		)
		return entry
	}
	entry.RecipientPhone = phone

	res, err := d.sender.SendMessage(ctx, notification.SendRequest{
		Phone:      phone,
		Message:    message,
		Credential: d.credential,
	})
	switch {
	case err != nil:
		entry.ErrorMessage = err.Error()
	case res == nil:
		entry.ErrorMessage = "sender returned no result"
	case !res.Success:
		entry.ErrorMessage = res.Error
		entry.ProviderMessageID = res.MessageID
	default:
		entry.Status = notification.StatusSent
		entry.ProviderMessageID = res.MessageID
	}
	if entry.Status == notification.StatusFailed {
		d.logger.Warn("notification send failed",
			zap.String("booking_id", bookingID.String()),
			zap.String("recipient_type", string(r.kind)),
			zap.String("error", entry.ErrorMessage),
		)
	}
	return entry
}

func templateVariables(bk *bookingDomain.Booking) notification.Variables {
	vars := notification.Variables{
		PassengerName:  bk.Customer().FirstName,
		PassengerPhone: bk.Customer().Phone,
		Date:           bk.ScheduledDate(),
		Time:           bk.ScheduledTime(),
		BookingID:      bk.BookingNumber(),
		Price:          strconv.FormatInt(bk.TotalPrice(), 10),
	}
	if p := bk.Provider(); p != nil {
		vars.ProviderName = p.Name
	}
	if v := bk.Vehicle(); v != nil {
		vars.VehicleDescriptor = v.Descriptor()
	}
	if w := bk.StartWaypoint(); w != nil {
		vars.FromLocation = w.DisplayName
	}
	if w := bk.EndWaypoint(); w != nil {
		vars.ToLocation = w.DisplayName
	}
	return vars
}
