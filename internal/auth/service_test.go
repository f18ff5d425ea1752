package auth

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/staffdesk/internal"
	"github.com/frahmantamala/staffdesk/internal/core/events"
	"github.com/frahmantamala/staffdesk/internal/session"
)

func TestAuth(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Auth Module Suite")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// Mock gateway API for testing
type mockAPI struct {
	mu        sync.Mutex
	postCalls int
	getCalls  int
	postFn    func(endpoint string, body, out interface{}) error
	getFn     func(endpoint string, out interface{}) error
}

func (m *mockAPI) Post(_ context.Context, endpoint string, body, out interface{}) error {
	m.mu.Lock()
	m.postCalls++
	m.mu.Unlock()
	if m.postFn != nil {
		return m.postFn(endpoint, body, out)
	}
	return nil
}

func (m *mockAPI) Get(_ context.Context, endpoint string, out interface{}) error {
	m.mu.Lock()
	m.getCalls++
	m.mu.Unlock()
	if m.getFn != nil {
		return m.getFn(endpoint, out)
	}
	return nil
}

func (m *mockAPI) totalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.postCalls + m.getCalls
}

// Mock credential surface for testing
type mockSurface struct {
	mu       sync.Mutex
	disabled bool
	notices  []string
}

func (m *mockSurface) DisableCredentials() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disabled = true
}

func (m *mockSurface) EnableCredentials() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disabled = false
}

func (m *mockSurface) Notify(kind NoticeKind, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notices = append(m.notices, string(kind)+": "+message)
}

func (m *mockSurface) isDisabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.disabled
}

func (m *mockSurface) noticeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.notices)
}

func successfulLogin(api *mockAPI) {
	api.postFn = func(endpoint string, body, out interface{}) error {
		resp := out.(*authResponse)
		resp.Token = "token-123"
		resp.User = &session.CurrentUser{ID: 1, Name: "Jane", Email: "user@example.com", Role: session.RoleStaff}
		return nil
	}
}

func failedLogin(api *mockAPI, attemptsRemaining int, warning bool) {
	api.postFn = func(endpoint string, body, out interface{}) error {
		details := &internal.ThrottleDetails{AttemptsRemaining: &attemptsRemaining}
		code := internal.ErrCodeInvalidCredentials
		if warning {
			details.Warning = true
			code = internal.ErrCodeLoginWarning
		}
		return internal.NewAuthError("Invalid email or password", code).WithDetails(details)
	}
}

func lockedLogin(api *mockAPI, cooldownSeconds int) {
	api.postFn = func(endpoint string, body, out interface{}) error {
		return internal.NewAuthError("Account locked due to too many failed attempts", internal.ErrCodeAccountLocked).
			WithDetails(&internal.ThrottleDetails{Locked: true, RemainingCooldown: cooldownSeconds})
	}
}

var _ = ginkgo.Describe("AuthService", func() {
	var (
		api      *mockAPI
		surface  *mockSurface
		sessions *session.MemoryStore
		bus      *events.EventBus
		guard    *LockoutGuard
		svc      *Service
		ctx      context.Context
	)

	ginkgo.BeforeEach(func() {
		api = &mockAPI{}
		surface = &mockSurface{}
		sessions = session.NewMemoryStore()
		bus = events.NewEventBus(testLogger())
		guard = NewLockoutGuard(surface, bus, testLogger())
		svc = NewService(api, sessions, guard, bus, testLogger())
		ctx = context.Background()
	})

	ginkgo.Describe("Login", func() {
		ginkgo.It("persists token and user together on success", func() {
			successfulLogin(api)

			user, err := svc.Login(ctx, LoginDTO{Email: "user@example.com", Password: "correct"})

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(user.ID).To(gomega.Equal(int64(1)))
			gomega.Expect(sessions.Token()).To(gomega.Equal("token-123"))
			gomega.Expect(sessions.CurrentUser()).NotTo(gomega.BeNil())
			gomega.Expect(sessions.CurrentUser().Email).To(gomega.Equal("user@example.com"))
		})

		ginkgo.It("fails a success response missing the user without panicking", func() {
			api.postFn = func(endpoint string, body, out interface{}) error {
				out.(*authResponse).Token = "tok-only"
				return nil
			}

			_, err := svc.Login(ctx, LoginDTO{Email: "user@example.com", Password: "correct"})

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Type).To(gomega.Equal(internal.ErrorTypeServer))
			gomega.Expect(appErr.Message).To(gomega.Equal("malformed response from server"))
			gomega.Expect(sessions.Token()).To(gomega.BeEmpty())
			gomega.Expect(sessions.CurrentUser()).To(gomega.BeNil())
		})

		ginkgo.It("fails a success response missing the token", func() {
			api.postFn = func(endpoint string, body, out interface{}) error {
				out.(*authResponse).User = &session.CurrentUser{ID: 1, Name: "Jane"}
				return nil
			}

			_, err := svc.Login(ctx, LoginDTO{Email: "user@example.com", Password: "correct"})

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Type).To(gomega.Equal(internal.ErrorTypeServer))
			gomega.Expect(sessions.CurrentUser()).To(gomega.BeNil())
		})

		ginkgo.It("rejects empty credentials without a request", func() {
			_, err := svc.Login(ctx, LoginDTO{Email: "", Password: ""})

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Type).To(gomega.Equal(internal.ErrorTypeValidation))
			gomega.Expect(api.totalCalls()).To(gomega.Equal(0))
		})

		ginkgo.It("surfaces attempts remaining on early failures without disabling input", func() {
			failedLogin(api, 3, false)

			_, err := svc.Login(ctx, LoginDTO{Email: "user@example.com", Password: "wrong"})

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			throttle, ok := appErr.Throttle()
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(*throttle.AttemptsRemaining).To(gomega.Equal(3))
			gomega.Expect(throttle.Locked).To(gomega.BeFalse())
			gomega.Expect(surface.isDisabled()).To(gomega.BeFalse())
		})

		ginkgo.It("keeps input enabled in the warning state", func() {
			failedLogin(api, 2, true)

			_, err := svc.Login(ctx, LoginDTO{Email: "user@example.com", Password: "wrong"})

			appErr, _ := internal.IsAppError(err)
			throttle, ok := appErr.Throttle()
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(throttle.Warning).To(gomega.BeTrue())
			gomega.Expect(surface.isDisabled()).To(gomega.BeFalse())
		})

		ginkgo.It("disables the credential surface immediately on lockout", func() {
			lockedLogin(api, 30)

			_, err := svc.Login(ctx, LoginDTO{Email: "user@example.com", Password: "wrong"})

			appErr, _ := internal.IsAppError(err)
			throttle, ok := appErr.Throttle()
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(throttle.Locked).To(gomega.BeTrue())
			gomega.Expect(throttle.RemainingCooldown).To(gomega.Equal(30))
			gomega.Expect(surface.isDisabled()).To(gomega.BeTrue())

			locked, remaining := guard.Locked()
			gomega.Expect(locked).To(gomega.BeTrue())
			gomega.Expect(remaining).To(gomega.BeNumerically(">", 0))
		})

		ginkgo.It("rejects attempts during cooldown without a network call", func() {
			lockedLogin(api, 30)
			_, _ = svc.Login(ctx, LoginDTO{Email: "user@example.com", Password: "wrong"})
			callsAfterLockout := api.totalCalls()

			_, err := svc.Login(ctx, LoginDTO{Email: "user@example.com", Password: "wrong"})

			appErr, _ := internal.IsAppError(err)
			throttle, ok := appErr.Throttle()
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(throttle.Locked).To(gomega.BeTrue())
			gomega.Expect(api.totalCalls()).To(gomega.Equal(callsAfterLockout))
		})

		ginkgo.It("clears a pending lockout on success", func() {
			guard.Lock("user@example.com", time.Hour)
			successfulLogin(api)

			_, err := svc.Login(ctx, LoginDTO{Email: "user@example.com", Password: "correct"})

			// the lockout rejection guard fires first; the local lock must be
			// released through logout or cooldown, not by retrying
			gomega.Expect(err).To(gomega.HaveOccurred())

			gomega.Expect(svc.Logout(ctx)).To(gomega.Succeed())
			locked, _ := guard.Locked()
			gomega.Expect(locked).To(gomega.BeFalse())

			_, err = svc.Login(ctx, LoginDTO{Email: "user@example.com", Password: "correct"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			locked, _ = guard.Locked()
			gomega.Expect(locked).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("Register", func() {
		ginkgo.It("rejects a password mismatch before any request", func() {
			_, err := svc.Register(ctx, RegisterDTO{
				Name:            "Jane",
				Email:           "user@example.com",
				Password:        "secret",
				ConfirmPassword: "different",
			})

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodePasswordMismatch))
			gomega.Expect(api.totalCalls()).To(gomega.Equal(0))
		})

		ginkgo.It("signs the new account in", func() {
			api.postFn = func(endpoint string, body, out interface{}) error {
				gomega.Expect(endpoint).To(gomega.Equal("/auth/register"))
				resp := out.(*authResponse)
				resp.Token = "token-reg"
				resp.User = &session.CurrentUser{ID: 7, Name: "New", Email: "new@example.com", Role: session.RoleStaff}
				return nil
			}

			user, err := svc.Register(ctx, RegisterDTO{
				Name:            "New",
				Email:           "new@example.com",
				Password:        "secret",
				ConfirmPassword: "secret",
			})

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(user.ID).To(gomega.Equal(int64(7)))
			gomega.Expect(sessions.Token()).To(gomega.Equal("token-reg"))
		})

		ginkgo.It("fails a success response missing the user without panicking", func() {
			api.postFn = func(endpoint string, body, out interface{}) error {
				out.(*authResponse).Token = "tok-only"
				return nil
			}

			_, err := svc.Register(ctx, RegisterDTO{
				Name:            "New",
				Email:           "new@example.com",
				Password:        "secret",
				ConfirmPassword: "secret",
			})

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Type).To(gomega.Equal(internal.ErrorTypeServer))
			gomega.Expect(sessions.Token()).To(gomega.BeEmpty())
		})
	})

	ginkgo.Describe("Logout", func() {
		ginkgo.It("clears token and user atomically", func() {
			successfulLogin(api)
			_, err := svc.Login(ctx, LoginDTO{Email: "user@example.com", Password: "correct"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			gomega.Expect(svc.Logout(ctx)).To(gomega.Succeed())

			gomega.Expect(sessions.Token()).To(gomega.BeEmpty())
			gomega.Expect(sessions.CurrentUser()).To(gomega.BeNil())
		})

		ginkgo.It("tears down a pending lockout timer", func() {
			guard.Lock("user@example.com", 80*time.Millisecond)
			gomega.Expect(surface.isDisabled()).To(gomega.BeTrue())

			gomega.Expect(svc.Logout(ctx)).To(gomega.Succeed())
			noticesAtLogout := surface.noticeCount()

			time.Sleep(150 * time.Millisecond)

			locked, _ := guard.Locked()
			gomega.Expect(locked).To(gomega.BeFalse())
			// the cancelled timer never fires its "try again" notice
			gomega.Expect(surface.noticeCount()).To(gomega.Equal(noticesAtLogout))
		})
	})

	ginkgo.Describe("Verify", func() {
		ginkgo.It("clears the session when the token is rejected", func() {
			gomega.Expect(sessions.SetSession("stale-token", &session.CurrentUser{ID: 1, Name: "Jane"})).To(gomega.Succeed())
			api.getFn = func(endpoint string, out interface{}) error {
				return internal.ErrInvalidToken
			}

			_, err := svc.Verify(ctx)

			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(sessions.Token()).To(gomega.BeEmpty())
			gomega.Expect(sessions.CurrentUser()).To(gomega.BeNil())
		})

		ginkgo.It("returns the verified user", func() {
			api.getFn = func(endpoint string, out interface{}) error {
				resp := out.(*verifyResponse)
				resp.User = &session.CurrentUser{ID: 3, Name: "Admin", Role: session.RoleAdmin}
				return nil
			}

			user, err := svc.Verify(ctx)

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(user.Role).To(gomega.Equal(session.RoleAdmin))
		})

		ginkgo.It("fails an empty verify response instead of returning a nil user", func() {
			api.getFn = func(endpoint string, out interface{}) error {
				return nil
			}

			user, err := svc.Verify(ctx)

			gomega.Expect(user).To(gomega.BeNil())
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Type).To(gomega.Equal(internal.ErrorTypeServer))
		})
	})

	ginkgo.Describe("RestoreSession", func() {
		ginkgo.It("reports no session when nothing is persisted", func() {
			_, ok := svc.RestoreSession(ctx)
			gomega.Expect(ok).To(gomega.BeFalse())
			gomega.Expect(api.totalCalls()).To(gomega.Equal(0))
		})

		ginkgo.It("discards an expired token without a round-trip", func() {
			expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
				"user_id": 1,
				"exp":     time.Now().Add(-time.Hour).Unix(),
			})
			signed, err := expired.SignedString([]byte("test-secret"))
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(sessions.SetSession(signed, &session.CurrentUser{ID: 1})).To(gomega.Succeed())

			_, ok := svc.RestoreSession(ctx)

			gomega.Expect(ok).To(gomega.BeFalse())
			gomega.Expect(api.totalCalls()).To(gomega.Equal(0))
			gomega.Expect(sessions.Token()).To(gomega.BeEmpty())
		})

		ginkgo.It("verifies an unexpired token with the server", func() {
			valid := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
				"user_id": 1,
				"exp":     time.Now().Add(time.Hour).Unix(),
			})
			signed, err := valid.SignedString([]byte("test-secret"))
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(sessions.SetSession(signed, &session.CurrentUser{ID: 1, Name: "Jane"})).To(gomega.Succeed())
			api.getFn = func(endpoint string, out interface{}) error {
				resp := out.(*verifyResponse)
				resp.User = &session.CurrentUser{ID: 1, Name: "Jane"}
				return nil
			}

			user, ok := svc.RestoreSession(ctx)

			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(user.Name).To(gomega.Equal("Jane"))
			gomega.Expect(api.getCalls).To(gomega.Equal(1))
		})
	})
})

var _ = ginkgo.Describe("token expiry inspection", func() {
	ginkgo.It("treats an opaque token as live", func() {
		gomega.Expect(tokenExpired("not-a-jwt")).To(gomega.BeFalse())
	})

	ginkgo.It("treats a claimless token as live", func() {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": 1})
		signed, err := tok.SignedString([]byte("k"))
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(tokenExpired(signed)).To(gomega.BeFalse())
	})
})

var _ = ginkgo.Describe("login failure handling", func() {
	ginkgo.It("ignores non-app errors", func() {
		api := &mockAPI{}
		surface := &mockSurface{}
		bus := events.NewEventBus(testLogger())
		guard := NewLockoutGuard(surface, bus, testLogger())
		svc := NewService(api, session.NewMemoryStore(), guard, bus, testLogger())
		api.postFn = func(endpoint string, body, out interface{}) error {
			return errors.New("boom")
		}

		_, err := svc.Login(context.Background(), LoginDTO{Email: "a@b.c", Password: "x"})

		gomega.Expect(err).To(gomega.HaveOccurred())
		gomega.Expect(surface.isDisabled()).To(gomega.BeFalse())
	})
})
