package notification

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dhanush-hc/hrms-backend-go/internal/domain/notification"
	"github.com/dhanush-hc/hrms-backend-go/internal/pkg/sse"
	"github.com/google/uuid"
)

// Config holds notification service configuration
type Config struct {
	BatchSize     int           // default: 100
	FlushInterval time.Duration // default: 5 seconds
	WorkerCount   int           // default: 2
	QueueSize     int           // default: 1000
}

type service struct {
	repo      notification.Repository
	reviewers notification.ReviewerDirectory
	hub       *sse.Hub
	logger    *slog.Logger
	config    Config

	queue  chan notification.CreateNotificationRequest
	wg     sync.WaitGroup
	stopCh chan struct{}
}

// NewNotificationService creates a notification service with background
// workers. Events are queued and batch-inserted; delivery never blocks the
// attendance pipeline.
func NewNotificationService(
	repo notification.Repository,
	reviewers notification.ReviewerDirectory,
	hub *sse.Hub,
	logger *slog.Logger,
	cfg Config,
) notification.Service {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval == 0 {
		cfg.FlushInterval = 5 * time.Second
	}
	if cfg.WorkerCount == 0 {
		cfg.WorkerCount = 2
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = 1000
	}

	s := &service{
		repo:      repo,
		reviewers: reviewers,
		hub:       hub,
		logger:    logger,
		config:    cfg,
		queue:     make(chan notification.CreateNotificationRequest, cfg.QueueSize),
		stopCh:    make(chan struct{}),
	}

	for i := 0; i < cfg.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	logger.Info("notification service started",
		"workers", cfg.WorkerCount,
		"batch_size", cfg.BatchSize,
		"flush_interval", cfg.FlushInterval,
	)

	return s
}

// worker drains the queue, batching inserts and flushing on a timer.
func (s *service) worker(id int) {
	defer s.wg.Done()

	batch := make([]notification.CreateNotificationRequest, 0, s.config.BatchSize)
	ticker := time.NewTicker(s.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		notifications := make([]*notification.Notification, len(batch))
		for i, req := range batch {
			notifications[i] = &notification.Notification{
				ID:          uuid.New().String(),
				RecipientID: req.RecipientID,
				SenderID:    req.SenderID,
				Type:        req.Type,
				Title:       req.Title,
				Message:     req.Message,
				Data:        req.Data,
				IsRead:      false,
				CreatedAt:   time.Now(),
			}
		}

		if err := s.repo.CreateBatch(ctx, notifications); err != nil {
			s.logger.Error("failed to batch insert notifications", "worker", id, "error", err)
		} else {
			for _, n := range notifications {
				s.hub.Publish(n.RecipientID, sse.Event{
					UserID: n.RecipientID,
					Event:  "notification",
					Data:   toResponse(n),
				})
			}
		}

		batch = batch[:0]
	}

	for {
		select {
		case req := <-s.queue:
			batch = append(batch, req)
			if len(batch) >= s.config.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-s.stopCh:
			// Drain whatever was queued before the stop signal.
			for {
				select {
				case req := <-s.queue:
					batch = append(batch, req)
				default:
					flush()
					return
				}
			}
		}
	}
}

// enqueue queues one notification, falling back to a direct insert when the
// queue is saturated.
func (s *service) enqueue(ctx context.Context, req notification.CreateNotificationRequest) {
	select {
	case s.queue <- req:
	default:
		if err := s.directInsert(ctx, req); err != nil {
			s.logger.Error("failed to insert notification", "type", req.Type, "error", err)
		}
	}
}

func (s *service) directInsert(ctx context.Context, req notification.CreateNotificationRequest) error {
	n := &notification.Notification{
		ID:          uuid.New().String(),
		RecipientID: req.RecipientID,
		SenderID:    req.SenderID,
		Type:        req.Type,
		Title:       req.Title,
		Message:     req.Message,
		Data:        req.Data,
		IsRead:      false,
		CreatedAt:   time.Now(),
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}

	s.hub.Publish(n.RecipientID, sse.Event{
		UserID: n.RecipientID,
		Event:  "notification",
		Data:   toResponse(n),
	})

	return nil
}

// fanOutToReviewers queues one notification per reviewer.
func (s *service) fanOutToReviewers(ctx context.Context, build func(recipientID string) notification.CreateNotificationRequest) {
	ids, err := s.reviewers.ListReviewerIDs(ctx)
	if err != nil {
		s.logger.Error("failed to list reviewers for notification", "error", err)
		return
	}
	for _, id := range ids {
		s.enqueue(ctx, build(id))
	}
}

// ApprovalRequired implements notification.Sink.
func (s *service) ApprovalRequired(ctx context.Context, recordID, employeeName, status string) {
	s.fanOutToReviewers(ctx, func(recipientID string) notification.CreateNotificationRequest {
		return notification.CreateNotificationRequest{
			RecipientID: recipientID,
			Type:        notification.TypeApprovalRequired,
			Title:       "Attendance approval required",
			Message:     fmt.Sprintf("%s checked in with status %q and needs review", employeeName, status),
			Data: map[string]interface{}{
				"attendance_id": recordID,
				"status":        status,
			},
		}
	})
}

// FraudAlert implements notification.Sink.
func (s *service) FraudAlert(ctx context.Context, recordID, employeeName string, indicators []string) {
	s.fanOutToReviewers(ctx, func(recipientID string) notification.CreateNotificationRequest {
		return notification.CreateNotificationRequest{
			RecipientID: recipientID,
			Type:        notification.TypeFraudAlert,
			Title:       "Suspicious attendance submission",
			Message:     fmt.Sprintf("Submission from %s raised: %s", employeeName, strings.Join(indicators, ", ")),
			Data: map[string]interface{}{
				"attendance_id": recordID,
				"indicators":    indicators,
			},
		}
	})
}

// ApprovalDecided implements notification.Sink.
func (s *service) ApprovalDecided(ctx context.Context, recipientUserID, recordID, date string, approved bool, notes *string) {
	notifType := notification.TypeAttendanceApproved
	title := "Attendance approved"
	message := fmt.Sprintf("Your attendance for %s was approved", date)
	if !approved {
		notifType = notification.TypeAttendanceRejected
		title = "Attendance rejected"
		message = fmt.Sprintf("Your attendance for %s was rejected", date)
	}

	data := map[string]interface{}{
		"attendance_id": recordID,
		"date":          date,
	}
	if notes != nil {
		data["notes"] = *notes
	}

	s.enqueue(ctx, notification.CreateNotificationRequest{
		RecipientID: recipientUserID,
		Type:        notifType,
		Title:       title,
		Message:     message,
		Data:        data,
	})
}

// GetNotifications retrieves paginated notifications for a user
func (s *service) GetNotifications(ctx context.Context, userID string, page, pageSize int, unreadOnly bool) (*notification.NotificationListResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	notifications, total, err := s.repo.GetByUserID(ctx, userID, page, pageSize, unreadOnly)
	if err != nil {
		return nil, err
	}

	unreadCount, err := s.repo.GetUnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}

	responses := make([]notification.NotificationResponse, len(notifications))
	for i, n := range notifications {
		responses[i] = toResponse(n)
	}

	return &notification.NotificationListResponse{
		Notifications: responses,
		TotalCount:    total,
		UnreadCount:   unreadCount,
		Page:          page,
		PageSize:      pageSize,
	}, nil
}

// MarkAsRead marks specified notifications as read
func (s *service) MarkAsRead(ctx context.Context, ids []string, userID string) error {
	return s.repo.MarkAsRead(ctx, ids, userID)
}

// Shutdown flushes pending batches and stops the workers.
func (s *service) Shutdown() {
	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info("notification service stopped")
}

func toResponse(n *notification.Notification) notification.NotificationResponse {
	return notification.NotificationResponse{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Data:      n.Data,
		IsRead:    n.IsRead,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}
