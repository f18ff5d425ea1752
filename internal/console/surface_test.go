package console_test

import (
	"bytes"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/staffdesk/internal/auth"
	"github.com/frahmantamala/staffdesk/internal/console"
	"github.com/frahmantamala/staffdesk/internal/employee"
	"github.com/frahmantamala/staffdesk/internal/logs"
)

func TestConsole(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Console Module Suite")
}

var _ = Describe("Surface", func() {
	var (
		out     *bytes.Buffer
		surface *console.Surface
	)

	BeforeEach(func() {
		out = &bytes.Buffer{}
		surface = console.NewSurface(out)
	})

	It("starts with credentials accepting", func() {
		Expect(surface.CredentialsEnabled()).To(BeTrue())
	})

	It("toggles the credential inputs", func() {
		surface.DisableCredentials()
		Expect(surface.CredentialsEnabled()).To(BeFalse())

		surface.EnableCredentials()
		Expect(surface.CredentialsEnabled()).To(BeTrue())
	})

	It("prints notices with their kind", func() {
		surface.Notify(auth.NoticeError, "Invalid email or password")

		Expect(out.String()).To(Equal("[ERROR] Invalid email or password\n"))
	})

	It("renders an employee table with a header row", func() {
		surface.RenderEmployees([]*employee.Employee{
			{ID: 1, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Department: "Engineering", Salary: 95000},
			{ID: 2, FirstName: "Sol", Email: "sol@example.com", Salary: 70000},
		})

		rendered := out.String()
		Expect(rendered).To(ContainSubstring("ID"))
		Expect(rendered).To(ContainSubstring("Ada Lovelace"))
		Expect(rendered).To(ContainSubstring("ada@example.com"))
		// missing fields render as a placeholder, not as blanks
		Expect(rendered).To(ContainSubstring("N/A"))
	})

	It("warns instead of rendering an empty table", func() {
		surface.RenderEmployees(nil)

		Expect(out.String()).To(ContainSubstring("[WARNING] No employees found"))
	})

	It("renders the login trail with status badges", func() {
		surface.RenderLoginLogs([]*logs.LoginLog{
			{Email: "a@example.com", AttemptCount: 5, IsLocked: true},
			{Email: "b@example.com", AttemptCount: 3},
			{Email: "c@example.com", AttemptCount: 0},
		})

		rendered := out.String()
		Expect(rendered).To(ContainSubstring("LOCKED"))
		Expect(rendered).To(ContainSubstring("WARNING"))
		Expect(rendered).To(ContainSubstring("OK"))
	})

	It("attributes system password changes", func() {
		surface.RenderPasswordLogs([]*logs.PasswordLog{
			{UserID: 1, Action: "reset", Timestamp: "2025-01-01T00:00:00Z"},
		})

		Expect(out.String()).To(ContainSubstring("System"))
	})
})
