package console

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/frahmantamala/staffdesk/internal/auth"
	"github.com/frahmantamala/staffdesk/internal/employee"
	"github.com/frahmantamala/staffdesk/internal/logs"
	"github.com/frahmantamala/staffdesk/internal/user"
)

// Surface renders tables and notices to the terminal and tracks whether the
// credential inputs are accepting. It is the console stand-in for the
// browser's form and table surfaces.
type Surface struct {
	out io.Writer

	mu                 sync.Mutex
	credentialsEnabled bool
}

func NewSurface(out io.Writer) *Surface {
	return &Surface{
		out:                out,
		credentialsEnabled: true,
	}
}

func (s *Surface) DisableCredentials() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentialsEnabled = false
}

func (s *Surface) EnableCredentials() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credentialsEnabled = true
}

func (s *Surface) CredentialsEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credentialsEnabled
}

func (s *Surface) Notify(kind auth.NoticeKind, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.out, "[%s] %s\n", strings.ToUpper(string(kind)), message)
}

func (s *Surface) table(render func(w *tabwriter.Writer)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	render(w)
	w.Flush()
}

func (s *Surface) RenderEmployees(employees []*employee.Employee) {
	if len(employees) == 0 {
		s.Notify(auth.NoticeWarning, "No employees found")
		return
	}
	s.table(func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "ID\tNAME\tEMAIL\tDEPARTMENT\tPOSITION\tSALARY")
		for _, e := range employees {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%.2f\n",
				e.ID, e.FullName(), e.Email, orNA(e.Department), orNA(e.Position), e.Salary)
		}
	})
}

func (s *Surface) RenderDeletedEmployees(employees []*employee.DeletedEmployee) {
	if len(employees) == 0 {
		s.Notify(auth.NoticeWarning, "No deleted employees")
		return
	}
	s.table(func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "ID\tNAME\tEMAIL\tDEPARTMENT\tDELETED BY\tDELETED AT")
		for _, e := range employees {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
				e.ID, e.FullName(), e.Email, orNA(e.Department), e.DeletedByName, e.DeletedAt)
		}
	})
}

func (s *Surface) RenderUsers(users []*user.User) {
	if len(users) == 0 {
		s.Notify(auth.NoticeWarning, "No users found")
		return
	}
	s.table(func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE\tCREATED")
		for _, u := range users {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role, u.CreatedAt)
		}
	})
}

func (s *Surface) RenderPasswordLogs(entries []*logs.PasswordLog) {
	if len(entries) == 0 {
		s.Notify(auth.NoticeWarning, "No password logs found")
		return
	}
	s.table(func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "USER\tACTION\tCHANGED BY\tMODULE\tWHEN")
		for _, l := range entries {
			changedBy := l.ChangedByName
			if changedBy == "" {
				changedBy = "System"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", l.UserID, l.Action, changedBy, orNA(l.Module), l.Timestamp)
		}
	})
}

func (s *Surface) RenderLoginLogs(entries []*logs.LoginLog) {
	if len(entries) == 0 {
		s.Notify(auth.NoticeWarning, "No login attempts found")
		return
	}
	s.table(func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "EMAIL\tATTEMPTS\tSTATUS\tLAST ATTEMPT\tIP")
		for _, l := range entries {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n",
				l.Email, l.AttemptCount, l.Status(), l.LastAttemptTime, orNA(l.IPAddress))
		}
	})
}

func (s *Surface) RenderStats(stats *employee.Stats) {
	s.table(func(w *tabwriter.Writer) {
		fmt.Fprintf(w, "Total employees\t%d\n", stats.Total)
		fmt.Fprintf(w, "Active\t%d\n", stats.Active)
		fmt.Fprintf(w, "Average salary\t%.2f\n", stats.AverageSalary)
		for dept, count := range stats.ByDepartment {
			fmt.Fprintf(w, "  %s\t%d\n", dept, count)
		}
	})
}

func (s *Surface) RenderDepartments(departments []string) {
	if len(departments) == 0 {
		s.Notify(auth.NoticeWarning, "No departments found")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.out, strings.Join(departments, ", "))
}

func orNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}
