package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"text/tabwriter"

	"golang.org/x/sync/errgroup"

	"github.com/frahmantamala/staffdesk/internal"
	"github.com/frahmantamala/staffdesk/internal/auth"
	"github.com/frahmantamala/staffdesk/internal/core/events"
	"github.com/frahmantamala/staffdesk/internal/employee"
	"github.com/frahmantamala/staffdesk/internal/logs"
	"github.com/frahmantamala/staffdesk/internal/session"
	"github.com/frahmantamala/staffdesk/internal/user"
)

const (
	viewAuth      = "auth"
	viewDashboard = "dashboard"
)

var errQuit = errors.New("quit")

// App is the interactive console. One logical task runs per user action;
// view transitions bump a generation counter so a response that arrives
// after the user has moved on is dropped instead of rendered onto the
// wrong view.
type App struct {
	auth      *auth.Service
	employees *employee.Service
	users     *user.Service
	logs      *logs.Service
	sessions  session.Store
	bus       *events.EventBus
	surface   *Surface
	prompt    *Prompter
	logger    *slog.Logger

	viewGen atomic.Uint64
}

func NewApp(
	authSvc *auth.Service,
	employees *employee.Service,
	users *user.Service,
	logsSvc *logs.Service,
	sessions session.Store,
	bus *events.EventBus,
	surface *Surface,
	prompt *Prompter,
	logger *slog.Logger,
) *App {
	return &App{
		auth:      authSvc,
		employees: employees,
		users:     users,
		logs:      logsSvc,
		sessions:  sessions,
		bus:       bus,
		surface:   surface,
		prompt:    prompt,
		logger:    logger,
	}
}

func (a *App) Run(ctx context.Context) error {
	view := viewAuth
	if user, ok := a.auth.RestoreSession(ctx); ok {
		a.surface.Notify(auth.NoticeSuccess, "Welcome back, "+user.Name)
		view = viewDashboard
	}

	for {
		var next string
		var err error
		switch view {
		case viewAuth:
			next, err = a.authView(ctx)
		case viewDashboard:
			next, err = a.dashboardView(ctx)
		}
		if err != nil {
			if errors.Is(err, errQuit) || errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		view = next
	}
}

// enterView marks a transition. Anything still in flight for the previous
// view sees a stale generation and drops its result; the view-changed event
// also tears down a pending lockout timer.
func (a *App) enterView(ctx context.Context, name string) uint64 {
	gen := a.viewGen.Add(1)
	if err := a.bus.PublishSync(ctx, events.NewViewChangedEvent(name)); err != nil {
		a.logger.Error("failed to publish view change", "error", err)
	}
	return gen
}

func (a *App) stale(gen uint64) bool {
	return gen != a.viewGen.Load()
}

// ---------------- auth view ----------------

func (a *App) authView(ctx context.Context) (string, error) {
	a.enterView(ctx, viewAuth)

	for {
		cmd, err := a.prompt.ReadLine("auth (signin/signup/forgot/quit)")
		if err != nil {
			return "", err
		}

		switch cmd {
		case "signin":
			if done, err := a.signIn(ctx); err != nil {
				return "", err
			} else if done {
				return viewDashboard, nil
			}
		case "signup":
			if done, err := a.signUp(ctx); err != nil {
				return "", err
			} else if done {
				return viewDashboard, nil
			}
		case "forgot":
			email, err := a.prompt.ReadLine("Email")
			if err != nil {
				return "", err
			}
			a.surface.Notify(auth.NoticeSuccess, a.auth.RequestPasswordReset(email))
		case "quit", "exit":
			return "", errQuit
		case "":
		default:
			a.surface.Notify(auth.NoticeError, "Unknown command: "+cmd)
		}
	}
}

func (a *App) signIn(ctx context.Context) (bool, error) {
	if !a.surface.CredentialsEnabled() {
		a.surface.Notify(auth.NoticeError, "Sign-in is temporarily disabled while the account cooldown runs")
		return false, nil
	}

	email, err := a.prompt.ReadLine("Email")
	if err != nil {
		return false, err
	}
	password, err := a.prompt.ReadPassword("Password")
	if err != nil {
		return false, err
	}

	signedIn, err := a.auth.Login(ctx, auth.LoginDTO{Email: email, Password: password})
	if err != nil {
		a.surfaceLoginError(err)
		return false, nil
	}

	a.surface.Notify(auth.NoticeSuccess, "Welcome back, "+signedIn.Name)
	return true, nil
}

// surfaceLoginError turns a login failure into the user-facing notice.
// Locked wins over warning, warning wins over the bare remaining count.
func (a *App) surfaceLoginError(err error) {
	appErr, ok := internal.IsAppError(err)
	if !ok {
		a.surface.Notify(auth.NoticeError, err.Error())
		return
	}

	if throttle, ok := appErr.Throttle(); ok {
		switch {
		case throttle.Locked:
			a.surface.Notify(auth.NoticeError,
				fmt.Sprintf("Account locked. Try again in %d seconds.", throttle.RemainingCooldown))
		case throttle.Warning:
			if throttle.AttemptsRemaining != nil {
				a.surface.Notify(auth.NoticeWarning,
					fmt.Sprintf("WARNING: %d attempt(s) remaining before 30-second cooldown", *throttle.AttemptsRemaining))
			} else {
				// the server flagged the warning without a count; do not invent one
				a.surface.Notify(auth.NoticeWarning, "WARNING: account is close to a 30-second login cooldown")
			}
		case throttle.AttemptsRemaining != nil:
			a.surface.Notify(auth.NoticeError,
				fmt.Sprintf("Invalid email or password. Attempts remaining: %d", *throttle.AttemptsRemaining))
		default:
			a.surface.Notify(auth.NoticeError, appErr.Message)
		}
		return
	}

	a.surface.Notify(auth.NoticeError, appErr.Message)
}

func (a *App) signUp(ctx context.Context) (bool, error) {
	name, err := a.prompt.ReadLine("Name")
	if err != nil {
		return false, err
	}
	email, err := a.prompt.ReadLine("Email")
	if err != nil {
		return false, err
	}
	password, err := a.prompt.ReadPassword("Password")
	if err != nil {
		return false, err
	}
	confirm, err := a.prompt.ReadPassword("Confirm password")
	if err != nil {
		return false, err
	}

	created, err := a.auth.Register(ctx, auth.RegisterDTO{
		Name:            name,
		Email:           email,
		Password:        password,
		ConfirmPassword: confirm,
	})
	if err != nil {
		a.surface.Notify(auth.NoticeError, err.Error())
		return false, nil
	}

	a.surface.Notify(auth.NoticeSuccess, "Account created. Welcome, "+created.Name)
	return true, nil
}

// ---------------- dashboard view ----------------

func (a *App) dashboardView(ctx context.Context) (string, error) {
	gen := a.enterView(ctx, viewDashboard)
	a.loadDashboard(ctx, gen)

	for {
		line, err := a.prompt.ReadLine("staffdesk")
		if err != nil {
			return "", err
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "employees":
			a.cmdEmployees(ctx, args)
		case "employee":
			a.cmdEmployee(ctx, args)
		case "users":
			a.cmdUsers(ctx)
		case "user":
			a.cmdUser(ctx, args)
		case "logs":
			a.cmdLogs(ctx, args)
		case "stats":
			a.cmdStats(ctx)
		case "departments":
			a.cmdDepartments(ctx)
		case "whoami":
			a.cmdWhoami()
		case "logout":
			if err := a.auth.Logout(ctx); err != nil {
				a.surface.Notify(auth.NoticeError, err.Error())
				continue
			}
			return viewAuth, nil
		case "help":
			a.printHelp()
		case "quit", "exit":
			return "", errQuit
		default:
			a.surface.Notify(auth.NoticeError, "Unknown command: "+cmd+" (try help)")
		}
	}
}

// loadDashboard fans the initial reads out concurrently; whatever comes
// back after the user has already left the dashboard is dropped.
func (a *App) loadDashboard(ctx context.Context, gen uint64) {
	var emps []*employee.Employee
	var usrs []*user.User

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		emps, err = a.employees.List(gctx, employee.ListFilters{})
		return err
	})
	if a.sessions.CurrentUser().IsAdmin() {
		g.Go(func() error {
			var err error
			usrs, err = a.users.List(gctx)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		a.surface.Notify(auth.NoticeError, "Failed to load dashboard: "+err.Error())
		return
	}
	if a.stale(gen) {
		a.logger.Debug("dropping stale dashboard load")
		return
	}

	a.surface.RenderEmployees(emps)
	if usrs != nil {
		a.surface.RenderUsers(usrs)
	}
}

func (a *App) cmdEmployees(ctx context.Context, args []string) {
	if len(args) > 0 && args[0] == "deleted" {
		deleted, err := a.employees.ListDeleted(ctx)
		if err != nil {
			a.surface.Notify(auth.NoticeError, "Failed to load deleted employees: "+err.Error())
			return
		}
		a.surface.RenderDeletedEmployees(deleted)
		return
	}

	filters := employee.ListFilters{}
	for _, arg := range args {
		if k, v, ok := strings.Cut(arg, "="); ok {
			switch k {
			case "search":
				filters.Search = v
			case "department":
				filters.Department = v
			case "active":
				active := v == "true"
				filters.IsActive = &active
			case "sort":
				filters.SortBy = v
			case "order":
				filters.Order = v
			}
		}
	}

	emps, err := a.employees.List(ctx, filters)
	if err != nil {
		a.surface.Notify(auth.NoticeError, "Failed to load employees: "+err.Error())
		return
	}
	a.surface.RenderEmployees(emps)
}

func (a *App) cmdEmployee(ctx context.Context, args []string) {
	if len(args) == 0 {
		a.surface.Notify(auth.NoticeError, "usage: employee add|edit|delete|restore [id]")
		return
	}

	switch args[0] {
	case "add":
		dto, err := a.promptEmployeeForm(employee.EmployeeDTO{})
		if err != nil {
			return
		}
		created, err := a.employees.Create(ctx, dto)
		if err != nil {
			a.surface.Notify(auth.NoticeError, err.Error())
			return
		}
		a.surface.Notify(auth.NoticeSuccess, fmt.Sprintf("Employee added: #%d %s", created.ID, created.FullName()))
	case "edit":
		id, ok := a.parseID(args[1:])
		if !ok {
			return
		}
		current, err := a.employees.Get(ctx, id)
		if err != nil {
			a.surface.Notify(auth.NoticeError, err.Error())
			return
		}
		dto, err := a.promptEmployeeForm(employee.EmployeeDTO{
			FirstName:  current.FirstName,
			LastName:   current.LastName,
			Email:      current.Email,
			Phone:      current.Phone,
			Department: current.Department,
			Position:   current.Position,
			HireDate:   current.HireDate,
			Salary:     current.Salary,
			Address:    current.Address,
		})
		if err != nil {
			return
		}
		if _, err := a.employees.Update(ctx, id, dto); err != nil {
			a.surface.Notify(auth.NoticeError, err.Error())
			return
		}
		a.surface.Notify(auth.NoticeSuccess, "Employee updated")
	case "delete":
		id, ok := a.parseID(args[1:])
		if !ok {
			return
		}
		confirmed, err := a.prompt.Confirm("Delete this employee?")
		if err != nil || !confirmed {
			return
		}
		if err := a.employees.Delete(ctx, id); err != nil {
			a.surface.Notify(auth.NoticeError, err.Error())
			return
		}
		a.surface.Notify(auth.NoticeSuccess, "Employee deleted (kept in archive, restorable)")
	case "restore":
		id, ok := a.parseID(args[1:])
		if !ok {
			return
		}
		if err := a.employees.Restore(ctx, id); err != nil {
			a.surface.Notify(auth.NoticeError, err.Error())
			return
		}
		a.surface.Notify(auth.NoticeSuccess, "Employee restored")
	default:
		a.surface.Notify(auth.NoticeError, "usage: employee add|edit|delete|restore [id]")
	}
}

func (a *App) promptEmployeeForm(defaults employee.EmployeeDTO) (employee.EmployeeDTO, error) {
	dto := defaults
	read := func(label, current string, dst *string) error {
		prompt := label
		if current != "" {
			prompt = fmt.Sprintf("%s [%s]", label, current)
		}
		v, err := a.prompt.ReadLine(prompt)
		if err != nil {
			return err
		}
		if v != "" {
			*dst = v
		}
		return nil
	}

	if err := read("First name", dto.FirstName, &dto.FirstName); err != nil {
		return dto, err
	}
	if err := read("Last name", dto.LastName, &dto.LastName); err != nil {
		return dto, err
	}
	if err := read("Email", dto.Email, &dto.Email); err != nil {
		return dto, err
	}
	if err := read("Phone", dto.Phone, &dto.Phone); err != nil {
		return dto, err
	}
	if err := read("Department", dto.Department, &dto.Department); err != nil {
		return dto, err
	}
	if err := read("Position", dto.Position, &dto.Position); err != nil {
		return dto, err
	}
	if err := read("Hire date (YYYY-MM-DD)", dto.HireDate, &dto.HireDate); err != nil {
		return dto, err
	}
	salary, err := a.prompt.ReadFloat(fmt.Sprintf("Salary [%.2f]", dto.Salary))
	if err == nil && salary != 0 {
		dto.Salary = salary
	}
	if err := read("Address", dto.Address, &dto.Address); err != nil {
		return dto, err
	}
	return dto, nil
}

func (a *App) cmdUsers(ctx context.Context) {
	usrs, err := a.users.List(ctx)
	if err != nil {
		a.surface.Notify(auth.NoticeError, "Failed to load users: "+err.Error())
		return
	}
	a.surface.RenderUsers(usrs)
}

func (a *App) cmdUser(ctx context.Context, args []string) {
	if len(args) == 0 {
		a.surface.Notify(auth.NoticeError, "usage: user add|edit|delete [id]")
		return
	}

	switch args[0] {
	case "add":
		name, err := a.prompt.ReadLine("Name")
		if err != nil {
			return
		}
		email, err := a.prompt.ReadLine("Email")
		if err != nil {
			return
		}
		password, err := a.prompt.ReadPassword("Password")
		if err != nil {
			return
		}
		role, err := a.prompt.ReadLine("Role (admin/staff)")
		if err != nil {
			return
		}
		created, err := a.users.Create(ctx, user.CreateUserDTO{
			Name:     name,
			Email:    email,
			Password: password,
			Role:     role,
		})
		if err != nil {
			a.surface.Notify(auth.NoticeError, err.Error())
			return
		}
		a.surface.Notify(auth.NoticeSuccess, fmt.Sprintf("User created: #%d %s", created.ID, created.Name))
	case "edit":
		id, ok := a.parseID(args[1:])
		if !ok {
			return
		}
		name, err := a.prompt.ReadLine("Name (blank to keep)")
		if err != nil {
			return
		}
		email, err := a.prompt.ReadLine("Email (blank to keep)")
		if err != nil {
			return
		}
		role, err := a.prompt.ReadLine("Role (blank to keep)")
		if err != nil {
			return
		}
		updated, err := a.users.Update(ctx, id, user.UpdateUserDTO{
			Name:  name,
			Email: email,
			Role:  role,
		})
		if err != nil {
			a.surface.Notify(auth.NoticeError, err.Error())
			return
		}
		a.surface.Notify(auth.NoticeSuccess, fmt.Sprintf("User updated: #%d %s", updated.ID, updated.Name))
	case "delete":
		id, ok := a.parseID(args[1:])
		if !ok {
			return
		}
		confirmed, err := a.prompt.Confirm("Delete this user?")
		if err != nil || !confirmed {
			return
		}
		if err := a.users.Delete(ctx, id); err != nil {
			a.surface.Notify(auth.NoticeError, err.Error())
			return
		}
		a.surface.Notify(auth.NoticeSuccess, "User deleted")
	default:
		a.surface.Notify(auth.NoticeError, "usage: user add|edit|delete [id]")
	}
}

func (a *App) cmdLogs(ctx context.Context, args []string) {
	kind := "login"
	if len(args) > 0 {
		kind = args[0]
	}

	switch kind {
	case "password":
		entries, err := a.logs.PasswordLogs(ctx)
		if err != nil {
			a.surface.Notify(auth.NoticeError, "Failed to load password logs: "+err.Error())
			return
		}
		a.surface.RenderPasswordLogs(entries)
	case "login":
		entries, err := a.logs.LoginLogs(ctx)
		if err != nil {
			a.surface.Notify(auth.NoticeError, "Failed to load login logs: "+err.Error())
			return
		}
		a.surface.RenderLoginLogs(entries)
	default:
		a.surface.Notify(auth.NoticeError, "usage: logs password|login")
	}
}

func (a *App) cmdStats(ctx context.Context) {
	stats, err := a.employees.Stats(ctx)
	if err != nil {
		a.surface.Notify(auth.NoticeError, "Failed to load stats: "+err.Error())
		return
	}
	a.surface.RenderStats(stats)
}

func (a *App) cmdDepartments(ctx context.Context) {
	departments, err := a.employees.Departments(ctx)
	if err != nil {
		a.surface.Notify(auth.NoticeError, "Failed to load departments: "+err.Error())
		return
	}
	a.surface.RenderDepartments(departments)
}

func (a *App) cmdWhoami() {
	current := a.sessions.CurrentUser()
	if current == nil {
		a.surface.Notify(auth.NoticeError, "Not signed in")
		return
	}
	a.surface.Notify(auth.NoticeSuccess,
		fmt.Sprintf("%s <%s> (%s)", current.Name, current.Email, current.Role))
}

func (a *App) parseID(args []string) (int64, bool) {
	if len(args) == 0 {
		a.surface.Notify(auth.NoticeError, "an id is required")
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		a.surface.Notify(auth.NoticeError, "invalid id: "+args[0])
		return 0, false
	}
	return id, true
}

func (a *App) printHelp() {
	a.surface.table(func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "employees [search=.. department=.. active=.. sort=.. order=..]\tlist employees")
		fmt.Fprintln(w, "employees deleted\tlist soft-deleted employees")
		fmt.Fprintln(w, "employee add|edit <id>|delete <id>|restore <id>\tmanage employees")
		fmt.Fprintln(w, "users / user add|edit <id>|delete <id>\tmanage accounts (admin)")
		fmt.Fprintln(w, "logs password|login\taudit trails (admin)")
		fmt.Fprintln(w, "stats / departments\temployee statistics")
		fmt.Fprintln(w, "whoami / logout / quit\tsession")
	})
}
