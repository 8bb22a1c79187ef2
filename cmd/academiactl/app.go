package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/user/academia-go/auth"
	"github.com/user/academia-go/background"
	"github.com/user/academia-go/client"
)

const defaultAPIURL = "http://localhost:3000/api"

type app struct {
	out io.Writer
	api *client.Client
}

func newApp(out io.Writer) *cli.App {
	a := &app{out: out}

	return &cli.App{
		Name:   "academiactl",
		Usage:  "work with the academy from the terminal",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api",
				Value:   defaultAPIURL,
				EnvVars: []string{"ACADEMIA_API_URL"},
				Usage:   "base URL of the gateway's /api",
			},
			&cli.StringFlag{
				Name:    "session",
				EnvVars: []string{"ACADEMIA_SESSION_FILE"},
				Usage:   "session file (default ~/.academia/session.json)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print raw JSON instead of tables",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "log every API call to stderr",
			},
		},
		Before: a.setup,
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "log in and keep the session",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", EnvVars: []string{"ACADEMIA_PASSWORD"}, Required: true},
				},
				Action: a.login,
			},
			{
				Name:   "logout",
				Usage:  "forget the stored session",
				Action: a.logout,
			},
			{
				Name:  "whoami",
				Usage: "show the logged-in user",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "remote", Usage: "ask the backend instead of reading the session"},
				},
				Action: a.whoami,
			},
			{
				Name:  "courses",
				Usage: "browse the catalogue",
				Subcommands: []*cli.Command{
					{Name: "list", Usage: "list active courses", Action: a.coursesList},
					{Name: "show", Usage: "show a course and its periods", ArgsUsage: "COURSE_ID", Action: a.coursesShow},
				},
			},
			{
				Name:  "periods",
				Usage: "course periods",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "list periods",
						Flags:  []cli.Flag{&cli.StringFlag{Name: "course", Usage: "only periods of this course"}},
						Action: a.periodsList,
					},
				},
			},
			{
				Name:  "cart",
				Usage: "manage the cart",
				Subcommands: []*cli.Command{
					{Name: "list", Usage: "show the cart and its total", Action: a.cartList},
					{
						Name:  "add",
						Usage: "add a course period",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "course", Required: true},
							&cli.StringFlag{Name: "period", Required: true},
						},
						Action: a.cartAdd,
					},
					{Name: "remove", Usage: "remove an item", ArgsUsage: "ITEM_ID", Action: a.cartRemove},
					{
						Name:  "checkout",
						Usage: "pay for the cart",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "method", Value: string(client.PaymentTransfer), Usage: "efectivo, transferencia or tarjeta"},
						},
						Action: a.cartCheckout,
					},
				},
			},
			{
				Name:  "enrollments",
				Usage: "enrollments",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "list my enrollments",
						Flags:  []cli.Flag{&cli.BoolFlag{Name: "all", Usage: "every enrollment (admin)"}},
						Action: a.enrollmentsList,
					},
				},
			},
			{
				Name:  "classes",
				Usage: "classes",
				Subcommands: []*cli.Command{
					{Name: "list", Usage: "list my classes", Action: a.classesList},
				},
			},
			{
				Name:  "attendance",
				Usage: "class attendance (teachers)",
				Subcommands: []*cli.Command{
					{
						Name:  "toggle",
						Usage: "flip a student's presence in a class",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "class", Required: true},
							&cli.StringFlag{Name: "student", Required: true},
						},
						Action: a.attendanceToggle,
					},
				},
			},
			{
				Name:   "health",
				Usage:  "check that the gateway can reach the backend",
				Action: a.health,
			},
		},
	}
}

func (a *app) setup(cCtx *cli.Context) error {
	sessionPath := cCtx.String("session")
	if sessionPath == "" {
		p, err := client.DefaultSessionPath()
		if err != nil {
			return err
		}
		sessionPath = p
	}

	level := slog.LevelWarn
	if cCtx.Bool("debug") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cCtx.App.ErrWriter, &slog.HandlerOptions{Level: level}))

	api, err := client.New(cCtx.String("api"),
		client.WithSession(client.NewFileStore(sessionPath)),
		client.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	if _, err := api.Auth.Resume(); err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	a.api = api
	return nil
}

func (a *app) login(cCtx *cli.Context) error {
	resp, err := a.api.Auth.Login(cCtx.Context, client.LoginInput{
		Email:    cCtx.String("email"),
		Password: cCtx.String("password"),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "logged in as %s (%s), dashboard %s\n", resp.User.FullName(), resp.User.Role, resp.User.Role.DashboardPath())
	return nil
}

func (a *app) logout(cCtx *cli.Context) error {
	if err := a.api.Auth.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "logged out")
	return nil
}

func (a *app) whoami(cCtx *cli.Context) error {
	var (
		user *client.User
		err  error
	)
	if cCtx.Bool("remote") {
		user, err = a.api.Profile.Get(cCtx.Context)
	} else {
		user, err = a.api.Auth.CurrentUser()
	}
	if err != nil {
		return err
	}
	if user == nil {
		return errors.New("not logged in")
	}
	if cCtx.Bool("json") {
		return a.printJSON(user)
	}

	fmt.Fprintf(a.out, "%s <%s>\nrole: %s\n", user.FullName(), user.Email, user.Role)
	claims, err := auth.ParseUnverified(a.api.Token())
	switch {
	case err != nil || claims.ExpiresAt.IsZero():
	case claims.Expired(time.Now()):
		fmt.Fprintf(a.out, "token expired: %s, log in again\n", claims.ExpiresAt.Local().Format("2/1/2006 15:04"))
	default:
		fmt.Fprintf(a.out, "token expires: %s\n", claims.ExpiresAt.Local().Format("2/1/2006 15:04"))
	}
	return nil
}

func (a *app) coursesList(cCtx *cli.Context) error {
	courses, err := a.api.Courses.ListActive(cCtx.Context)
	if err != nil {
		return err
	}
	if cCtx.Bool("json") {
		return a.printJSON(courses)
	}

	tw := a.table("ID", "CODE", "NAME", "LEVEL", "WEEKS", "PRICE")
	for _, c := range courses {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", c.ID, c.Code, c.Name, c.Level, c.DurationWeeks, client.FormatPrice(c.Price))
	}
	return tw.Flush()
}

func (a *app) coursesShow(cCtx *cli.Context) error {
	id := cCtx.Args().First()
	if id == "" {
		return errors.New("missing COURSE_ID")
	}
	course, err := a.api.Courses.Get(cCtx.Context, id)
	if err != nil {
		return err
	}
	periods, err := a.api.Courses.Periods(cCtx.Context, id)
	if err != nil {
		return err
	}
	if cCtx.Bool("json") {
		return a.printJSON(map[string]any{"curso": course, "periodos": periods})
	}

	fmt.Fprintf(a.out, "%s (%s)\n%s\n", course.Name, course.Code, course.Description)
	fmt.Fprintf(a.out, "level: %s  weeks: %d  price: %s  seats: %d\n", course.Level, course.DurationWeeks, client.FormatPrice(course.Price), course.MaxSeats)
	for _, o := range course.Objectives {
		fmt.Fprintf(a.out, "  - %s\n", o)
	}
	fmt.Fprintln(a.out)
	return a.printPeriods(periods)
}

func (a *app) periodsList(cCtx *cli.Context) error {
	periods, err := a.api.Admin.Periods(cCtx.Context, cCtx.String("course"))
	if err != nil {
		return err
	}
	if cCtx.Bool("json") {
		return a.printJSON(periods)
	}
	return a.printPeriods(periods)
}

func (a *app) printPeriods(periods []client.Period) error {
	tw := a.table("ID", "NAME", "STARTS", "ENDS", "SEATS", "STATE", "SCHEDULE")
	for _, p := range periods {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			p.ID, p.Name, client.FormatDate(p.StartDate), client.FormatDate(p.EndDate), p.AvailableSeats, p.State, p.Schedule)
	}
	return tw.Flush()
}

func (a *app) cartList(cCtx *cli.Context) error {
	lines, err := a.api.Cart.Lines(cCtx.Context)
	if err != nil {
		return err
	}
	if cCtx.Bool("json") {
		return a.printJSON(lines)
	}
	if len(lines) == 0 {
		fmt.Fprintln(a.out, "cart is empty")
		return nil
	}

	tw := a.table("ITEM", "COURSE", "PERIOD", "STARTS", "PRICE")
	for _, l := range lines {
		course, period, starts, price := l.Item.Course.ID, l.Item.Period.ID, "", "-"
		if l.Course != nil {
			course, price = l.Course.Name, client.FormatPrice(l.Course.Price)
		}
		if l.Period != nil {
			period, starts = l.Period.Name, client.FormatDate(l.Period.StartDate)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", l.Item.ID, course, period, starts, price)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "total: %s\n", client.FormatPrice(lines.Total()))
	return nil
}

func (a *app) cartAdd(cCtx *cli.Context) error {
	msg, err := a.api.Cart.AddItem(cCtx.Context, client.AddCartItemInput{
		CourseID: cCtx.String("course"),
		PeriodID: cCtx.String("period"),
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, messageOr(msg, "added to cart"))
	return nil
}

func (a *app) cartRemove(cCtx *cli.Context) error {
	id := cCtx.Args().First()
	if id == "" {
		return errors.New("missing ITEM_ID")
	}
	msg, err := a.api.Cart.RemoveItem(cCtx.Context, id)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, messageOr(msg, "removed from cart"))
	return nil
}

func (a *app) cartCheckout(cCtx *cli.Context) error {
	res, err := a.api.Cart.Checkout(cCtx.Context, client.CheckoutInput{
		PaymentMethod: client.PaymentMethod(strings.ToLower(cCtx.String("method"))),
	})
	if err != nil {
		return err
	}
	if cCtx.Bool("json") {
		return a.printJSON(res)
	}
	fmt.Fprintln(a.out, res.Message)
	return a.printEnrollments(res.Enrollments)
}

func (a *app) enrollmentsList(cCtx *cli.Context) error {
	var (
		enrollments []client.Enrollment
		err         error
	)
	if cCtx.Bool("all") {
		enrollments, err = a.api.Enrollments.List(cCtx.Context)
	} else {
		enrollments, err = a.api.Student.Enrollments(cCtx.Context)
	}
	if err != nil {
		return err
	}
	if cCtx.Bool("json") {
		return a.printJSON(enrollments)
	}
	return a.printEnrollments(enrollments)
}

func (a *app) printEnrollments(enrollments []client.Enrollment) error {
	tw := a.table("ID", "PERIOD", "STATE", "PAID", "PENDING", "CREATED")
	for _, e := range enrollments {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.Period.ID, e.State, client.FormatPrice(e.AmountPaid), client.FormatPrice(e.AmountPending), client.FormatDate(e.CreatedAt))
	}
	return tw.Flush()
}

func (a *app) classesList(cCtx *cli.Context) error {
	classes, err := a.api.Student.Classes(cCtx.Context)
	if err != nil {
		return err
	}
	if cCtx.Bool("json") {
		return a.printJSON(classes)
	}

	tw := a.table("ID", "DATE", "TIME", "TITLE", "MODALITY", "STATE", "PRESENT")
	for _, c := range classes {
		fmt.Fprintf(tw, "%s\t%s\t%s-%s\t%s\t%s\t%s\t%d/%d\n",
			c.ID, client.FormatDate(c.Date), c.StartTime, c.EndTime, c.Title, c.Modality, c.State, c.PresentCount(), len(c.Attendance))
	}
	return tw.Flush()
}

func (a *app) attendanceToggle(cCtx *cli.Context) error {
	class, err := a.api.Teacher.ToggleAttendance(cCtx.Context, cCtx.String("class"), cCtx.String("student"))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "attendance saved: %d/%d present\n", class.PresentCount(), len(class.Attendance))
	return nil
}

// health asks the gateway's /healthz, which sits next to /api.
func (a *app) health(cCtx *cli.Context) error {
	target := strings.TrimSuffix(a.api.BaseURL(), "/api") + "/healthz"

	req, err := http.NewRequestWithContext(cCtx.Context, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	var body background.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("decode health response: %w", err)
	}
	switch {
	case cCtx.Bool("json"):
		if err := a.printJSON(body); err != nil {
			return err
		}
	case body.Probe == nil:
		fmt.Fprintf(a.out, "gateway up, backend not probed yet (%s)\n", body.Status)
	default:
		fmt.Fprintf(a.out, "gateway up, %s\n", body.Probe)
	}
	if resp.StatusCode != http.StatusOK {
		return cli.Exit("backend unreachable", 2)
	}
	return nil
}

func (a *app) table(headers ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	return tw
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func messageOr(msg *client.Message, fallback string) string {
	if msg != nil && msg.Message != "" {
		return msg.Message
	}
	return fallback
}
