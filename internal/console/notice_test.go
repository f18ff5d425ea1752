package console

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/staffdesk/internal"
)

var _ = Describe("surfaceLoginError", func() {
	var (
		out *bytes.Buffer
		app *App
	)

	BeforeEach(func() {
		out = &bytes.Buffer{}
		app = &App{surface: NewSurface(out)}
	})

	It("reports the lockout cooldown", func() {
		err := internal.NewAuthError("Account locked", internal.ErrCodeAccountLocked).
			WithDetails(&internal.ThrottleDetails{Locked: true, RemainingCooldown: 30})

		app.surfaceLoginError(err)

		Expect(out.String()).To(Equal("[ERROR] Account locked. Try again in 30 seconds.\n"))
	})

	It("includes the remaining count when the server sent one with a warning", func() {
		remaining := 2
		err := internal.NewAuthError("Invalid email or password", internal.ErrCodeLoginWarning).
			WithDetails(&internal.ThrottleDetails{Warning: true, AttemptsRemaining: &remaining})

		app.surfaceLoginError(err)

		Expect(out.String()).To(Equal("[WARNING] WARNING: 2 attempt(s) remaining before 30-second cooldown\n"))
	})

	It("omits the count when a warning carries none", func() {
		err := internal.NewAuthError("Invalid email or password", internal.ErrCodeLoginWarning).
			WithDetails(&internal.ThrottleDetails{Warning: true})

		app.surfaceLoginError(err)

		Expect(out.String()).To(Equal("[WARNING] WARNING: account is close to a 30-second login cooldown\n"))
	})

	It("surfaces a bare remaining count as an error", func() {
		remaining := 4
		err := internal.NewAuthError("Invalid email or password", internal.ErrCodeInvalidCredentials).
			WithDetails(&internal.ThrottleDetails{AttemptsRemaining: &remaining})

		app.surfaceLoginError(err)

		Expect(out.String()).To(Equal("[ERROR] Invalid email or password. Attempts remaining: 4\n"))
	})

	It("falls back to the error message without throttle details", func() {
		app.surfaceLoginError(internal.NewAuthError("Invalid email or password", internal.ErrCodeInvalidCredentials))

		Expect(out.String()).To(Equal("[ERROR] Invalid email or password\n"))
	})
})
