package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/sngm3741/store-audit-services/api/internal/audit/application"
)

const (
	defaultAttempts   = 3
	defaultRetryDelay = 200 * time.Millisecond
	defaultTimeout    = 3 * time.Second
)

// Failure is a notification that exhausted its retries.
type Failure struct {
	Key         string
	Destination string
	Payload     map[string]string
	Err         string
	Attempts    int
}

// FailureStore keeps undelivered notifications for replay.
type FailureStore interface {
	Record(ctx context.Context, failure Failure) error
}

// Config wires the gateway client.
type Config struct {
	Endpoint    string
	Destination string
	Timeout     time.Duration
	Attempts    int
	RetryDelay  time.Duration
	HTTPClient  *http.Client
	Failures    FailureStore
	Logger      *log.Logger
}

// Notifier delivers toasts through the messenger gateway. Delivery runs in the
// background; Close waits for whatever is still in flight.
type Notifier struct {
	endpoint    string
	destination string
	attempts    int
	retryDelay  time.Duration
	httpClient  *http.Client
	failures    FailureStore
	logger      *log.Logger
	wg          sync.WaitGroup
}

// NewNotifier builds a gateway notifier with the given settings.
func NewNotifier(cfg Config) *Notifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	attempts := cfg.Attempts
	if attempts < 1 {
		attempts = defaultAttempts
	}
	delay := cfg.RetryDelay
	if delay < 0 {
		delay = 0
	} else if delay == 0 {
		delay = defaultRetryDelay
	}
	return &Notifier{
		endpoint:    strings.TrimRight(strings.TrimSpace(cfg.Endpoint), "/"),
		destination: strings.TrimSpace(cfg.Destination),
		attempts:    attempts,
		retryDelay:  delay,
		httpClient:  client,
		failures:    cfg.Failures,
		logger:      cfg.Logger,
	}
}

// Notify implements application.Notifier.
func (n *Notifier) Notify(ctx context.Context, note application.Notification) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(note.UserID) == "" {
		n.logf("notification for audit %s dropped: no recipient", note.AuditID)
		return
	}
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.deliver(context.WithoutCancel(ctx), note)
	}()
}

// Close waits for pending deliveries.
func (n *Notifier) Close() {
	n.wg.Wait()
}

func (n *Notifier) deliver(ctx context.Context, note application.Notification) {
	key := uuid.NewString()
	payload := map[string]string{
		"userId":  strings.TrimSpace(note.UserID),
		"text":    note.Message,
		"kind":    string(note.Kind),
		"auditId": note.AuditID,
	}
	if n.destination != "" {
		payload["destination"] = n.destination
	}

	err := n.sendWithRetry(ctx, key, payload)
	if err == nil {
		return
	}
	n.logf("messenger notification %s failed: %v", key, err)
	if n.failures == nil {
		return
	}
	failure := Failure{
		Key:         key,
		Destination: n.destination,
		Payload:     payload,
		Err:         err.Error(),
		Attempts:    n.attempts,
	}
	if err := n.failures.Record(ctx, failure); err != nil {
		n.logf("failed_notifications write failed: %v", err)
	}
}

func (n *Notifier) sendWithRetry(ctx context.Context, key string, payload map[string]string) error {
	var lastErr error
	for i := 0; i < n.attempts; i++ {
		if i > 0 && n.retryDelay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(n.retryDelay):
			}
		}
		if lastErr = n.send(ctx, key, payload); lastErr == nil {
			return nil
		}
	}
	return lastErr
}

func (n *Notifier) send(ctx context.Context, key string, payload map[string]string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "encode messenger payload")
	}

	timeout := n.httpClient.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctxWithTimeout, http.MethodPost, n.endpoint+"/messages", bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build messenger request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", key)

	res, err := n.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "messenger request")
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		message, _ := io.ReadAll(io.LimitReader(res.Body, 1<<16))
		return fmt.Errorf("messenger gateway: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(message)))
	}
	return nil
}

func (n *Notifier) logf(format string, args ...any) {
	if n.logger != nil {
		n.logger.Printf(format, args...)
	}
}
