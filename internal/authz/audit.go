package authz

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Skotchmaster/college_portal/internal/logging"
)

const AuthTopic = "auth_events"

type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

type Auditor interface {
	Denied(ctx context.Context, path string, err error)
}

type DenialEvent struct {
	Type   string `json:"type"`
	Kind   string `json:"kind,omitempty"`
	Reason string `json:"reason"`
	Path   string `json:"path"`
	Status int    `json:"status"`
	At     int64  `json:"at"`
}

const defaultMaxInFlight = 64

// EventAuditor logs every denial and, when a publisher is configured,
// forwards it to the auth topic. Publishing runs in the background and is
// best effort: when MaxInFlight publishes are already pending the event is
// dropped and only the log line remains.
type EventAuditor struct {
	Publisher   EventPublisher
	Timeout     time.Duration
	MaxInFlight int

	once     sync.Once
	inflight chan struct{}
	wg       sync.WaitGroup
}

func (a *EventAuditor) slots() chan struct{} {
	a.once.Do(func() {
		n := a.MaxInFlight
		if n <= 0 {
			n = defaultMaxInFlight
		}
		a.inflight = make(chan struct{}, n)
	})
	return a.inflight
}

// Wait blocks until every pending publish has finished.
func (a *EventAuditor) Wait() {
	if a != nil {
		a.wg.Wait()
	}
}

func (a *EventAuditor) Denied(ctx context.Context, path string, err error) {
	l := logging.FromContext(ctx).With("component", "authz")

	ev := DenialEvent{
		Type:   "auth_denied",
		Reason: reasonOf(err),
		Path:   path,
		Status: StatusCode(err),
		At:     time.Now().Unix(),
	}
	var d *Denial
	if errors.As(err, &d) {
		ev.Kind = string(d.Kind)
	}

	if errors.Is(err, ErrDependencyFailure) {
		l.Error("authz_dependency_failure", "status", ev.Status, "kind", ev.Kind, "path", path, "error", err)
	} else {
		l.Warn("authz_denied", "status", ev.Status, "kind", ev.Kind, "reason", ev.Reason, "path", path)
	}

	if a == nil || a.Publisher == nil {
		return
	}
	slots := a.slots()
	select {
	case slots <- struct{}{}:
	default:
		l.Warn("authz_audit_dropped", "reason", "publish queue full", "path", path)
		return
	}

	timeout := a.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	a.wg.Add(1)
	go func() {
		defer func() {
			cancel()
			<-slots
			a.wg.Done()
		}()
		if pErr := a.Publisher.PublishEvent(pubCtx, AuthTopic, ev.Kind, ev); pErr != nil {
			l.Error("authz_audit_publish_failed", "error", pErr)
		}
	}()
}

func reasonOf(err error) string {
	for _, reason := range []error{
		ErrDependencyFailure, ErrOwnershipMismatch, ErrRoleMismatch,
		ErrCredentialExpired, ErrCredentialInvalid, ErrCredentialMissing,
	} {
		if errors.Is(err, reason) {
			return reason.Error()
		}
	}
	return "unknown"
}
