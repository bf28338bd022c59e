package main

import (
	"bytes"
	"fmt"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eduportal/internal/api"
	"eduportal/internal/attendance"
	"eduportal/internal/forms"
	"eduportal/internal/pagination"
	"eduportal/internal/sandbox"
	"eduportal/internal/session"
)

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	wantFields []string
	wantOut    string
}

func setup(t *testing.T) (*commandLine, *bytes.Buffer, sandbox.Demo) {
	t.Helper()
	var mu sync.Mutex
	n := 0
	srv := sandbox.New(sandbox.WithCodes(func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("CODE%02d", n)
	}))
	demo := srv.Seed()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	out := &bytes.Buffer{}
	cli := &commandLine{
		upstream: api.New(ts.URL+"/api/v1", 5*time.Second),
		sessions: session.NewManager(session.NewFileStore(filepath.Join(t.TempDir(), "session.json")), time.Hour),
		in:       strings.NewReader(""),
		out:      out,
		pageSize: 2,
		debounce: time.Hour,
	}
	return cli, out, demo
}

func withPassword(t *testing.T, pwd string) {
	t.Helper()
	orig := readPasswordFunc
	readPasswordFunc = func(int) ([]byte, error) { return []byte(pwd), nil }
	t.Cleanup(func() { readPasswordFunc = orig })
}

func login(t *testing.T, cli *commandLine, email, pwd string) {
	t.Helper()
	withPassword(t, pwd)
	require.NoError(t, cli.run([]string{"portalctl", "login", "-email", email}))
}

func runTests(t *testing.T, cli *commandLine, out *bytes.Buffer, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			err := cli.run(append([]string{"portalctl"}, tt.args...))
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case len(tt.wantFields) > 0:
				var fields forms.Errors
				require.ErrorAs(t, err, &fields)
				for _, f := range tt.wantFields {
					assert.Contains(t, fields, f)
				}
			case tt.wantErrStr != "":
				require.Error(t, err)
				assert.Equal(t, tt.wantErrStr, api.Message(err))
			default:
				require.NoError(t, err)
			}
			if tt.wantOut != "" {
				assert.Contains(t, out.String(), tt.wantOut)
			}
		})
	}
}

func Test_commandLine_withoutSession(t *testing.T) {
	cli, out, _ := setup(t)
	runTests(t, cli, out, []cliTest{
		{name: "no command", args: nil, wantErr: errHelp, wantOut: "Usage:"},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "login without email", args: []string{"login"}, wantErr: errHelp},
		{name: "list without kind", args: []string{"list"}, wantErr: errHelp},
		{name: "attendance without subcommand", args: []string{"attendance"}, wantErr: errHelp},
		{name: "whoami", args: []string{"whoami"}, wantErr: errNotLoggedIn},
		{name: "dashboard", args: []string{"dashboard"}, wantErr: errNotLoggedIn},
		{name: "logout", args: []string{"logout"}, wantOut: "Not logged in"},
	})
}

func Test_commandLine_login(t *testing.T) {
	cli, out, _ := setup(t)

	withPassword(t, "wrong")
	err := cli.run([]string{"portalctl", "login", "-email", sandbox.AdminEmail})
	require.Error(t, err)
	assert.Equal(t, "Invalid email or password", api.Message(err))

	withPassword(t, "")
	err = cli.run([]string{"portalctl", "login", "-email", "not-an-email"})
	var fields forms.Errors
	require.ErrorAs(t, err, &fields)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")

	login(t, cli, sandbox.AdminEmail, sandbox.AdminPassword)
	assert.Contains(t, out.String(), "Welcome back, Demo Admin")

	runTests(t, cli, out, []cliTest{
		{name: "whoami", args: []string{"whoami"}, wantOut: sandbox.AdminEmail},
		{name: "dashboard", args: []string{"dashboard"}, wantOut: "Students"},
		{name: "list users", args: []string{"list", "users"}, wantOut: "page 1/3, 5 total"},
		{name: "list users searched", args: []string{"list", "users", "-search", "grace"}, wantOut: "Grace Hopper"},
		{name: "list past last page", args: []string{"list", "users", "-page", "4"}, wantErr: pagination.ErrPageOutOfRange},
		{name: "list page zero", args: []string{"list", "users", "-page", "0"}, wantErr: pagination.ErrPageOutOfRange},
		{name: "list unknown kind", args: []string{"list", "rooms"}, wantErrStr: `unknown kind "rooms", want users, courses, categories or classes`},
		{name: "list courses", args: []string{"list", "courses"}, wantOut: "Mathematics"},
		{name: "list classes", args: []string{"list", "classes"}, wantOut: "Fractions"},
		{name: "logout", args: []string{"logout"}, wantOut: "Logged out"},
		{name: "whoami after logout", args: []string{"whoami"}, wantErr: errNotLoggedIn},
	})
}

func Test_commandLine_browse(t *testing.T) {
	cli, out, _ := setup(t)
	login(t, cli, sandbox.AdminEmail, sandbox.AdminPassword)

	out.Reset()
	cli.in = strings.NewReader("n\nn\nn\ng 9\np\n/g\n/gr\n/grace\n")
	require.NoError(t, cli.run([]string{"portalctl", "browse", "users"}))

	got := out.String()
	assert.Contains(t, got, "page 1/3")
	assert.Contains(t, got, "page 2/3")
	assert.Contains(t, got, "page 3/3")
	assert.Contains(t, got, "error: "+pagination.ErrPageOutOfRange.Error())
	assert.Contains(t, got, "page 1/1, 1 total")
	assert.Contains(t, got, "Grace Hopper")
}

func Test_commandLine_attendance(t *testing.T) {
	cli, out, demo := setup(t)
	month := fmt.Sprint(int(time.Now().UTC().Month()))

	login(t, cli, sandbox.TutorEmail, sandbox.TutorPassword)
	runTests(t, cli, out, []cliTest{
		{name: "no active sessions", args: []string{"attendance", "active"}, wantOut: "no active sessions"},
		{name: "create without class", args: []string{"attendance", "create"}, wantFields: []string{"classId", "courseId"}},
		{name: "create", args: []string{"attendance", "create", "-class", demo.ActiveClassID, "-course", demo.CourseID}, wantOut: "CODE01"},
		{name: "create twice", args: []string{"attendance", "create", "-class", demo.ActiveClassID, "-course", demo.CourseID}, wantErr: attendance.ErrActiveSession},
		{name: "bad direction", args: []string{"attendance", "regenerate", "-direction", "sideways", "x"}, wantErr: attendance.ErrBadDirection},
	})

	active, err := cli.upstream.As(mustSession(t, cli).Token).ActiveSessions(t.Context())
	require.NoError(t, err)
	require.Len(t, active, 1)
	id := active[0].ID

	login(t, cli, demo.StudentEmails[0], sandbox.StudentPassword)
	runTests(t, cli, out, []cliTest{
		{name: "sign in", args: []string{"attendance", "signin", " code01 "}, wantOut: "status partial"},
		{name: "reuse code", args: []string{"attendance", "signin", "CODE01"}, wantErrStr: attendance.ErrAlreadySignedIn.Error()},
		{name: "sign out", args: []string{"attendance", "signout", "CODE02"}, wantOut: "status present"},
		{name: "history", args: []string{"attendance", "history", "-month", month}, wantOut: "Fractions"},
		{name: "history bad month", args: []string{"attendance", "history", "-month", "13"}, wantFields: []string{"month"}},
	})

	login(t, cli, sandbox.TutorEmail, sandbox.TutorPassword)
	runTests(t, cli, out, []cliTest{
		{name: "show", args: []string{"attendance", "show", id}, wantOut: "present 1  partial 0  absent 2  rate 33%"},
		{name: "regenerate", args: []string{"attendance", "regenerate", "-direction", "signin", id}, wantOut: "CODE03"},
		{name: "close", args: []string{"attendance", "close", id}, wantOut: "(closed)"},
		{name: "show without id", args: []string{"attendance", "show"}, wantErr: errHelp},
	})
}

func mustSession(t *testing.T, cli *commandLine) session.Session {
	t.Helper()
	s, err := cli.current(t.Context())
	require.NoError(t, err)
	return s
}
