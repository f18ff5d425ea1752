package auth

import (
	"context"
	"strings"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/staffdesk/internal"
	"github.com/frahmantamala/staffdesk/internal/core/events"
)

var _ = ginkgo.Describe("LockoutGuard", func() {
	var (
		surface *mockSurface
		bus     *events.EventBus
		guard   *LockoutGuard
	)

	ginkgo.BeforeEach(func() {
		surface = &mockSurface{}
		bus = events.NewEventBus(testLogger())
		guard = NewLockoutGuard(surface, bus, testLogger())
	})

	ginkgo.It("disables credentials for the cooldown and re-enables after it", func() {
		guard.Lock("user@example.com", 60*time.Millisecond)

		gomega.Expect(surface.isDisabled()).To(gomega.BeTrue())
		locked, remaining := guard.Locked()
		gomega.Expect(locked).To(gomega.BeTrue())
		gomega.Expect(remaining).To(gomega.BeNumerically(">", 0))

		gomega.Eventually(surface.isDisabled, "500ms", "10ms").Should(gomega.BeFalse())
		locked, _ = guard.Locked()
		gomega.Expect(locked).To(gomega.BeFalse())
	})

	ginkgo.It("notifies the surface when the cooldown elapses", func() {
		guard.Lock("user@example.com", 40*time.Millisecond)

		gomega.Eventually(func() int { return surface.noticeCount() }, "500ms", "10ms").Should(gomega.Equal(1))
		surface.mu.Lock()
		notice := surface.notices[0]
		surface.mu.Unlock()
		gomega.Expect(notice).To(gomega.ContainSubstring("unlocked"))
	})

	ginkgo.It("publishes an unlock event when the cooldown elapses", func() {
		unlocked := make(chan events.Event, 1)
		bus.Subscribe(events.AccountUnlocked, func(_ context.Context, e events.Event) error {
			unlocked <- e
			return nil
		})

		guard.Lock("user@example.com", 40*time.Millisecond)

		gomega.Eventually(unlocked, "500ms").Should(gomega.Receive())
	})

	ginkgo.It("replaces a pending lock with a fresh cooldown", func() {
		guard.Lock("user@example.com", 30*time.Millisecond)
		guard.Lock("user@example.com", time.Hour)

		time.Sleep(120 * time.Millisecond)

		// the first timer is stale; only the hour-long lock counts
		gomega.Expect(surface.isDisabled()).To(gomega.BeTrue())
		locked, remaining := guard.Locked()
		gomega.Expect(locked).To(gomega.BeTrue())
		gomega.Expect(remaining).To(gomega.BeNumerically(">", 30*time.Minute))
	})

	ginkgo.It("does not fire after Cancel", func() {
		guard.Lock("user@example.com", 40*time.Millisecond)
		guard.Cancel()

		gomega.Expect(surface.isDisabled()).To(gomega.BeFalse())
		noticesAtCancel := surface.noticeCount()

		time.Sleep(120 * time.Millisecond)
		gomega.Expect(surface.noticeCount()).To(gomega.Equal(noticesAtCancel))
	})

	ginkgo.It("does not fire after Success", func() {
		guard.Lock("user@example.com", 40*time.Millisecond)
		guard.Success()

		locked, _ := guard.Locked()
		gomega.Expect(locked).To(gomega.BeFalse())

		time.Sleep(120 * time.Millisecond)
		gomega.Expect(surface.noticeCount()).To(gomega.BeZero())
	})

	ginkgo.It("tears down when the session is cleared", func() {
		guard.Lock("user@example.com", time.Hour)

		err := bus.PublishSync(context.Background(), events.NewSessionClearedEvent())
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		gomega.Expect(surface.isDisabled()).To(gomega.BeFalse())
		locked, _ := guard.Locked()
		gomega.Expect(locked).To(gomega.BeFalse())
	})

	ginkgo.It("tears down when the view changes", func() {
		guard.Lock("user@example.com", time.Hour)

		err := bus.PublishSync(context.Background(), events.NewViewChangedEvent("auth"))
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		locked, _ := guard.Locked()
		gomega.Expect(locked).To(gomega.BeFalse())
	})

	ginkgo.It("builds a local rejection with the remaining whole seconds", func() {
		err := guard.Reject(2500 * time.Millisecond)

		gomega.Expect(err.Code).To(gomega.Equal(internal.ErrCodeAccountLocked))
		throttle, ok := err.Throttle()
		gomega.Expect(ok).To(gomega.BeTrue())
		gomega.Expect(throttle.Locked).To(gomega.BeTrue())
		gomega.Expect(throttle.RemainingCooldown).To(gomega.Equal(3))
		gomega.Expect(strings.Contains(err.Message, "3 seconds")).To(gomega.BeTrue())
	})

	ginkgo.It("reports unlocked when never locked", func() {
		locked, remaining := guard.Locked()
		gomega.Expect(locked).To(gomega.BeFalse())
		gomega.Expect(remaining).To(gomega.BeZero())
	})
})
