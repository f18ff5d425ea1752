package auth

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/frahmantamala/staffdesk/internal"
	"github.com/frahmantamala/staffdesk/internal/core/events"
)

// LockoutGuard is the client half of the login throttle policy. The server
// decides when an account locks; the guard's job is to keep the credential
// surface disabled for exactly the advertised cooldown and then re-enable
// it once, however many times lockouts, logouts and view changes interleave.
//
// Every lockout bumps a generation counter and the scheduled re-enable is
// keyed to it, so a timer that survived a Cancel or a newer lockout finds
// itself stale and does nothing.
type LockoutGuard struct {
	surface CredentialSurface
	bus     *events.EventBus
	logger  *slog.Logger

	mu          sync.Mutex
	generation  uint64
	timer       *time.Timer
	lockedEmail string
	lockedUntil time.Time
}

func NewLockoutGuard(surface CredentialSurface, bus *events.EventBus, logger *slog.Logger) *LockoutGuard {
	g := &LockoutGuard{
		surface: surface,
		bus:     bus,
		logger:  logger,
	}

	// an unrelated logout or view transition tears the timer down
	bus.Subscribe(events.SessionCleared, func(ctx context.Context, _ events.Event) error {
		g.Cancel()
		return nil
	})
	bus.Subscribe(events.ViewChanged, func(ctx context.Context, _ events.Event) error {
		g.Cancel()
		return nil
	})

	return g
}

// Lock disables the credential surface and schedules its re-enable after
// cooldown. A second lockout while one is pending replaces the pending
// timer rather than stacking another.
func (g *LockoutGuard) Lock(email string, cooldown time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.stopTimerLocked()
	g.generation++
	gen := g.generation
	g.lockedEmail = email
	g.lockedUntil = time.Now().Add(cooldown)

	g.surface.DisableCredentials()
	g.logger.Warn("account locked, credential surface disabled",
		"email", email,
		"cooldown_seconds", cooldown.Seconds())

	g.timer = time.AfterFunc(cooldown, func() {
		g.expire(gen)
	})
}

func (g *LockoutGuard) expire(gen uint64) {
	g.mu.Lock()
	if gen != g.generation || g.lockedEmail == "" {
		g.mu.Unlock()
		return
	}
	email := g.lockedEmail
	g.lockedEmail = ""
	g.lockedUntil = time.Time{}
	g.timer = nil
	g.mu.Unlock()

	g.surface.EnableCredentials()
	g.surface.Notify(NoticeSuccess, "Account unlocked. You can try again now.")
	g.logger.Info("cooldown elapsed, credential surface re-enabled", "email", email)

	if err := g.bus.PublishSync(context.Background(), events.NewAccountUnlockedEvent(email)); err != nil {
		g.logger.Error("failed to publish unlock event", "error", err)
	}
}

// Locked reports whether a cooldown is still pending, and how long remains.
func (g *LockoutGuard) Locked() (bool, time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.lockedEmail == "" {
		return false, 0
	}
	remaining := time.Until(g.lockedUntil)
	if remaining <= 0 {
		return false, 0
	}
	return true, remaining
}

// Reject builds the local rejection for an attempt made while the cooldown
// is still running. No request is sent for these.
func (g *LockoutGuard) Reject(remaining time.Duration) *internal.AppError {
	secs := int(remaining.Round(time.Second).Seconds())
	if secs < 1 {
		secs = 1
	}
	return internal.NewAuthError(
		fmt.Sprintf("Account locked. Try again in %d seconds", secs),
		internal.ErrCodeAccountLocked,
	).WithDetails(&internal.ThrottleDetails{
		Locked:            true,
		RemainingCooldown: secs,
	})
}

// Success clears any pending lockout; a successful login resets the
// server-side attempt count so the local projection resets with it.
func (g *LockoutGuard) Success() {
	g.cancel(false)
}

// Cancel tears the pending timer down and re-enables the surface, without
// the "you may try again" notice. Runs on logout and view transitions.
func (g *LockoutGuard) Cancel() {
	g.cancel(true)
}

func (g *LockoutGuard) cancel(logTeardown bool) {
	g.mu.Lock()
	hadLock := g.lockedEmail != ""
	g.stopTimerLocked()
	g.generation++
	g.lockedEmail = ""
	g.lockedUntil = time.Time{}
	g.mu.Unlock()

	if hadLock {
		g.surface.EnableCredentials()
		if logTeardown {
			g.logger.Debug("pending lockout timer torn down")
		}
	}
}

func (g *LockoutGuard) stopTimerLocked() {
	if g.timer != nil {
		g.timer.Stop()
		g.timer = nil
	}
}
