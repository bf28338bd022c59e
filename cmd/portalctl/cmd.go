package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"eduportal/internal/api"
	"eduportal/internal/attendance"
	"eduportal/internal/forms"
	"eduportal/internal/model"
	"eduportal/internal/pagination"
	"eduportal/internal/session"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp        = errors.New("help provided")
	errNotLoggedIn = errors.New("not logged in, run: portalctl login -email EMAIL")
)

type commandLine struct {
	upstream *api.Client
	sessions *session.Manager
	in       io.Reader
	out      io.Writer
	pageSize int
	debounce time.Duration

	mu sync.Mutex // guards out; debounced searches print from a timer goroutine
}

func (cli *commandLine) printUsage() {
	cli.println("Usage:")
	cli.println("  login -email EMAIL                         - sign in, the password is prompted next")
	cli.println("  logout                                     - end the saved session")
	cli.println("  whoami                                     - show the signed in user")
	cli.println("  dashboard                                  - show the dashboard for your role")
	cli.println("  list KIND [-page N] [-limit N] [-search S] - list users, courses, categories or classes")
	cli.println("  browse KIND                                - page through KIND interactively")
	cli.println("  attendance SUBCOMMAND                      - active, create, show, regenerate, close, signin, signout, history")
}

func (cli *commandLine) println(a ...any) {
	cli.mu.Lock()
	defer cli.mu.Unlock()
	fmt.Fprintln(cli.out, a...)
}

func (cli *commandLine) printf(format string, a ...any) {
	cli.mu.Lock()
	defer cli.mu.Unlock()
	fmt.Fprintf(cli.out, format, a...)
}

// table prints rows aligned under header.
func (cli *commandLine) table(header []string, rows [][]string) {
	cli.mu.Lock()
	defer cli.mu.Unlock()
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(header, "\t"))
	for _, r := range rows {
		fmt.Fprintln(w, strings.Join(r, "\t"))
	}
	_ = w.Flush()
}

func (cli *commandLine) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return errHelp
		}
		return err
	}
	return nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	switch args[1] {
	case "login":
		fs := cli.flagSet("login")
		email := fs.String("email", "", "The account email. The password will be prompted next.")
		if err := parse(fs, args[2:]); err != nil {
			return err
		}
		if *email == "" {
			fs.Usage()
			return errHelp
		}
		cli.printf("Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		cli.println()
		if err != nil {
			return err
		}
		return cli.login(ctx, forms.Login{Email: strings.TrimSpace(*email), Password: string(pwd)})
	case "logout":
		return cli.logout(ctx)
	case "whoami":
		s, err := cli.current(ctx)
		if err != nil {
			return err
		}
		cli.printf("%s <%s> %s, session expires %s\n", s.User.Name, s.User.Email, s.User.Role, s.ExpiresAt.Format(time.RFC1123))
		return nil
	case "dashboard":
		return cli.dashboard(ctx)
	case "list", "browse":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		s, err := cli.current(ctx)
		if err != nil {
			return err
		}
		t, err := tableFor(args[2], cli.upstream.As(s.Token), s.User)
		if err != nil {
			return err
		}
		if args[1] == "browse" {
			return cli.guard(ctx, t.browse(ctx, cli))
		}
		fs := cli.flagSet("list")
		page := fs.Int("page", pagination.DefaultPage, "Page number, starting at 1.")
		limit := fs.Int("limit", cli.pageSize, "Rows per page.")
		search := fs.String("search", "", "Filter by name or email.")
		if err := parse(fs, args[3:]); err != nil {
			return err
		}
		p := pagination.Params{Page: *page, Limit: *limit, Search: strings.TrimSpace(*search)}
		if err := p.Validate(); err != nil {
			return err
		}
		return cli.guard(ctx, t.list(ctx, cli, p))
	case "attendance":
		return cli.attendance(ctx, args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) login(ctx context.Context, f forms.Login) error {
	if errs := forms.Validate(f); errs != nil {
		return errs
	}
	res, err := cli.upstream.Login(ctx, f)
	if err != nil {
		return err
	}
	s, err := cli.sessions.Begin(ctx, res.User, res.Token)
	if err != nil {
		return err
	}
	cli.printf("Welcome back, %s (%s)\n", s.User.Name, s.User.Role)
	return nil
}

func (cli *commandLine) logout(ctx context.Context) error {
	s, err := cli.sessions.Hydrate(ctx, "")
	if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrExpired) {
		cli.println("Not logged in")
		return nil
	}
	if err != nil {
		return err
	}
	if err := cli.sessions.End(ctx, s.ID); err != nil {
		return err
	}
	cli.println("Logged out")
	return nil
}

// current restores the saved session.
func (cli *commandLine) current(ctx context.Context) (session.Session, error) {
	s, err := cli.sessions.Hydrate(ctx, "")
	if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrExpired) {
		return session.Session{}, errNotLoggedIn
	}
	return s, err
}

// guard drops the saved session when upstream no longer accepts its token.
func (cli *commandLine) guard(ctx context.Context, err error) error {
	if api.IsUnauthorized(err) {
		_ = cli.sessions.End(ctx, "")
		return fmt.Errorf("%s: %w", api.Message(err), errNotLoggedIn)
	}
	return err
}

func (cli *commandLine) dashboard(ctx context.Context) error {
	s, err := cli.current(ctx)
	if err != nil {
		return err
	}
	d, err := cli.upstream.As(s.Token).Dashboard(ctx, s.User.Role)
	if err != nil {
		return cli.guard(ctx, err)
	}
	rows := [][]string{}
	add := func(label string, v int) {
		if v != 0 {
			rows = append(rows, []string{label, strconv.Itoa(v)})
		}
	}
	if d.OrganizationName != "" {
		rows = append(rows, []string{"Organization", d.OrganizationName})
	}
	add("Students", d.TotalStudents)
	add("Tutors", d.TotalTutors)
	add("Courses", d.TotalCourses)
	add("Categories", d.TotalCategories)
	add("Classes", d.TotalClasses)
	add("Active sessions", d.ActiveSessions)
	add("Upcoming classes", d.UpcomingClasses)
	add("Sessions attended", d.SessionsAttended)
	add("Sessions total", d.SessionsTotal)
	rows = append(rows, []string{"Attendance rate", fmt.Sprintf("%.0f%%", d.AttendanceRate)})
	cli.table([]string{"DASHBOARD", strings.ToUpper(string(s.User.Role))}, rows)
	return nil
}

// lister lists or browses one kind of resource.
type lister interface {
	list(ctx context.Context, cli *commandLine, p pagination.Params) error
	browse(ctx context.Context, cli *commandLine) error
}

type resourceTable[T any] struct {
	header []string
	fetch  pagination.Fetcher[T]
	row    func(T) []string
}

func tableFor(kind string, up *api.Client, me model.User) (lister, error) {
	now := time.Now()
	switch kind {
	case "users":
		return resourceTable[model.User]{
			header: []string{"ID", "NAME", "EMAIL", "ROLE"},
			fetch: func(ctx context.Context, p pagination.Params) (pagination.Page[model.User], error) {
				return up.ListUsers(ctx, api.UserQuery{Params: p, OrganizationID: me.OrganizationID})
			},
			row: func(u model.User) []string { return []string{u.ID, u.Name, u.Email, string(u.Role)} },
		}, nil
	case "courses":
		return resourceTable[model.Course]{
			header: []string{"ID", "NAME", "DESCRIPTION"},
			fetch:  up.ListCourses,
			row:    func(c model.Course) []string { return []string{c.ID, c.Name, c.Description} },
		}, nil
	case "categories":
		return resourceTable[model.Category]{
			header: []string{"ID", "NAME", "COURSE", "STUDENTS", "TUTORS"},
			fetch:  up.ListCategories,
			row: func(c model.Category) []string {
				return []string{c.ID, c.Name, c.CourseID, strconv.Itoa(len(c.Students)), strconv.Itoa(len(c.Tutors))}
			},
		}, nil
	case "classes":
		return resourceTable[model.Class]{
			header: []string{"ID", "TOPIC", "STARTS", "ENDS", "STATUS"},
			fetch: func(ctx context.Context, p pagination.Params) (pagination.Page[model.Class], error) {
				return up.ListClasses(ctx, api.ClassQuery{Params: p})
			},
			row: func(c model.Class) []string {
				return []string{c.ID, c.Topic, c.StartTime.Local().Format("Jan 2 15:04"), c.EndTime.Local().Format("15:04"), string(attendance.ClassStatus(c, now))}
			},
		}, nil
	}
	return nil, fmt.Errorf("unknown kind %q, want users, courses, categories or classes", kind)
}

func (t resourceTable[T]) render(cli *commandLine, page pagination.Page[T]) {
	rows := make([][]string, 0, len(page.Items))
	for _, it := range page.Items {
		rows = append(rows, t.row(it))
	}
	if len(rows) == 0 {
		cli.println("no results")
		return
	}
	cli.table(t.header, rows)
	cli.printf("page %d/%d, %d total\n", page.Meta.Page, page.Meta.TotalPages, page.Meta.Total)
}

func (t resourceTable[T]) list(ctx context.Context, cli *commandLine, p pagination.Params) error {
	page, err := t.fetch(ctx, p)
	if err != nil {
		return err
	}
	if err := pagination.Validate(p.Page, page.Meta.TotalPages); err != nil {
		return err
	}
	t.render(cli, page)
	return nil
}

// browse reads commands from cli.in: n, p, g N, /text and q. Search text is
// applied once typing settles.
func (t resourceTable[T]) browse(ctx context.Context, cli *commandLine) error {
	pager := pagination.NewPager(t.fetch, cli.pageSize)
	page, err := pager.Load(ctx)
	if err != nil {
		return err
	}
	t.render(cli, page)

	search := pagination.NewSearch(ctx, pager, cli.debounce, func(p pagination.Page[T], err error) {
		if err != nil {
			cli.println("error:", api.Message(err))
			return
		}
		t.render(cli, p)
	})
	defer search.Stop()

	sc := bufio.NewScanner(cli.in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			continue
		case line == "q":
			return nil
		case line == "n":
			page, err = pager.Next(ctx)
		case line == "p":
			page, err = pager.Prev(ctx)
		case strings.HasPrefix(line, "g "):
			n, convErr := strconv.Atoi(strings.TrimSpace(line[2:]))
			if convErr != nil {
				cli.println("error: page must be a number")
				continue
			}
			page, err = pager.GoTo(ctx, n)
		case strings.HasPrefix(line, "/"):
			search.Type(strings.TrimSpace(line[1:]))
			continue
		default:
			cli.println("commands: n next, p previous, g N go to page, /text search, q quit")
			continue
		}
		if errors.Is(err, pagination.ErrStale) {
			continue
		}
		if err != nil {
			if api.IsUnauthorized(err) {
				return err
			}
			cli.println("error:", api.Message(err))
			continue
		}
		t.render(cli, page)
	}
	search.Flush()
	return sc.Err()
}
