package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"eduportal/internal/api"
	"eduportal/internal/attendance"
	"eduportal/internal/forms"
	"eduportal/internal/model"
	"eduportal/internal/pagination"
)

func (cli *commandLine) printAttendanceUsage() {
	cli.println("Usage: attendance SUBCOMMAND")
	cli.println("  active                                  - list open sessions")
	cli.println("  create -class ID -course ID             - open a session for a class")
	cli.println("  show ID                                 - show codes and stats of a session")
	cli.println("  regenerate -direction signin|signout ID - issue a fresh code")
	cli.println("  close ID                                - close a session")
	cli.println("  signin CODE | signout CODE              - redeem a code as a student")
	cli.println("  history -month M [-day D] [-year Y]     - your attendance history")
}

func (cli *commandLine) attendance(ctx context.Context, args []string) error {
	if len(args) < 1 {
		cli.printAttendanceUsage()
		return errHelp
	}
	s, err := cli.current(ctx)
	if err != nil {
		return err
	}
	up := cli.upstream.As(s.Token)
	return cli.guard(ctx, cli.attendanceCommand(ctx, up, args))
}

func (cli *commandLine) attendanceCommand(ctx context.Context, up *api.Client, args []string) error {
	switch args[0] {
	case "active":
		active, err := up.ActiveSessions(ctx)
		if err != nil {
			return err
		}
		if len(active) == 0 {
			cli.println("no active sessions")
			return nil
		}
		rows := make([][]string, 0, len(active))
		for _, a := range active {
			st := attendance.Compute(attendance.Normalize(a.Records))
			rows = append(rows, []string{a.ID, a.ClassID, a.CreatedAt.Local().Format("Jan 2 15:04"), fmt.Sprintf("%d/%d", st.Present+st.Partial, st.Total)})
		}
		cli.table([]string{"ID", "CLASS", "OPENED", "SIGNED IN"}, rows)
		return nil

	case "create":
		fs := cli.flagSet("attendance create")
		var f forms.AttendanceCreate
		fs.StringVar(&f.ClassID, "class", "", "Class to take attendance for.")
		fs.StringVar(&f.CourseID, "course", "", "Course the class belongs to.")
		if err := parse(fs, args[1:]); err != nil {
			return err
		}
		if errs := forms.Validate(f); errs != nil {
			return errs
		}
		active, err := up.ActiveSessions(ctx)
		if err != nil {
			return err
		}
		if err := attendance.CanCreate(f.ClassID, active); err != nil {
			return err
		}
		res, err := up.CreateAttendance(ctx, f)
		if err != nil {
			return err
		}
		cli.println(orDefault(res.Message, "Attendance session created"))
		cli.showSession(res.Data)
		return nil

	case "show":
		id, err := oneArg(args)
		if err != nil {
			return err
		}
		as, err := up.GetAttendance(ctx, id)
		if err != nil {
			return err
		}
		cli.showSession(as)
		return nil

	case "regenerate":
		fs := cli.flagSet("attendance regenerate")
		dir := fs.String("direction", "signin", "Which code to reissue: signin or signout.")
		if err := parse(fs, args[1:]); err != nil {
			return err
		}
		if fs.NArg() != 1 {
			fs.Usage()
			return errHelp
		}
		d, err := attendance.ParseDirection(*dir)
		if err != nil {
			return err
		}
		res, err := up.RegenerateCode(ctx, fs.Arg(0), forms.Regenerate{Direction: string(d)})
		if err != nil {
			return err
		}
		cli.println(orDefault(res.Message, "Code regenerated"))
		cli.showSession(res.Data)
		return nil

	case "close":
		id, err := oneArg(args)
		if err != nil {
			return err
		}
		res, err := up.CloseSession(ctx, id)
		if err != nil {
			return err
		}
		cli.println(orDefault(res.Message, "Attendance session closed"))
		cli.showSession(res.Data)
		return nil

	case "signin", "signout":
		code, err := oneArg(args)
		if err != nil {
			return err
		}
		f := forms.Redeem{Code: code}.Normalized()
		if errs := forms.Validate(f); errs != nil {
			return errs
		}
		call, fallback := up.SignIn, "Signed in"
		if args[0] == "signout" {
			call, fallback = up.SignOut, "Signed out"
		}
		res, err := call(ctx, f)
		if err != nil {
			return err
		}
		status := attendance.DeriveStatus(res.Data.SignInTime, res.Data.SignOutTime)
		cli.printf("%s, status %s\n", orDefault(res.Message, fallback), status)
		return nil

	case "history":
		fs := cli.flagSet("attendance history")
		var f forms.HistoryFilter
		fs.IntVar(&f.Month, "month", int(time.Now().Month()), "Month, 1-12.")
		fs.IntVar(&f.Day, "day", 0, "Day of month, optional.")
		fs.IntVar(&f.Year, "year", 0, "Year, optional.")
		page := fs.Int("page", pagination.DefaultPage, "Page number.")
		if err := parse(fs, args[1:]); err != nil {
			return err
		}
		if errs := forms.Validate(f); errs != nil {
			return errs
		}
		p := pagination.Params{Page: *page, Limit: cli.pageSize}
		res, err := up.History(ctx, f, p)
		if err != nil {
			return err
		}
		if len(res.Items) == 0 {
			cli.println("no attendance in that period")
			return nil
		}
		rows := make([][]string, 0, len(res.Items))
		for _, e := range res.Items {
			rows = append(rows, []string{
				e.Date.Local().Format("Mon Jan 2"),
				e.Topic,
				string(attendance.DeriveStatus(e.SignInTime, e.SignOutTime)),
				clock(e.SignInTime),
				clock(e.SignOutTime),
			})
		}
		cli.table([]string{"DATE", "CLASS", "STATUS", "IN", "OUT"}, rows)
		cli.printf("page %d/%d\n", res.Meta.Page, res.Meta.TotalPages)
		return nil
	}
	cli.printAttendanceUsage()
	return errHelp
}

func (cli *commandLine) showSession(as model.AttendanceSession) {
	records := attendance.Normalize(as.Records)
	st := attendance.Compute(records)
	cli.printf("session %s (%s) class %s\n", as.ID, attendance.State(&as), as.ClassID)
	rows := [][]string{}
	for _, c := range attendance.Codes(as) {
		state := "open"
		if c.Used {
			state = "redeemed"
		}
		if !c.Redeemable {
			state = "closed"
		}
		rows = append(rows, []string{string(c.Direction), c.Code, state})
	}
	cli.table([]string{"CODE", "VALUE", "STATE"}, rows)
	cli.printf("present %d  partial %d  absent %d  rate %d%%\n", st.Present, st.Partial, st.Absent, st.RatePercent())
}

func oneArg(args []string) (string, error) {
	if len(args) != 2 || strings.TrimSpace(args[1]) == "" {
		return "", fmt.Errorf("%s takes exactly one argument: %w", args[0], errHelp)
	}
	return strings.TrimSpace(args[1]), nil
}

func orDefault(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}

func clock(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Local().Format("15:04")
}

