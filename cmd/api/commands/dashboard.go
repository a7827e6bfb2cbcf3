package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/relaxflow/core/internal/application/analytics"
	"github.com/relaxflow/core/internal/client"
	"github.com/relaxflow/core/internal/infrastructure/config"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1).
			MarginRight(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	valueStyle = lipgloss.NewStyle().
			Bold(true)

	upStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	downStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

type dashboardOptions struct {
	url      string
	token    string
	email    string
	password string
	remote   bool
	watch    bool
}

// NewDashboardCommand creates the dashboard command
func NewDashboardCommand() *cobra.Command {
	var opts dashboardOptions

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show dashboard metrics from a running server",
		Long:  "Load every collection from a running RelaxFlow server and print the dashboard overview. With --watch the view is kept current from the change feed.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.url, "url", "", "Server base URL (default from RELAXFLOW_URL)")
	cmd.Flags().StringVar(&opts.token, "token", "", "Bearer token (default from RELAXFLOW_TOKEN)")
	cmd.Flags().StringVar(&opts.email, "email", "", "Administrator email, to log in instead of using a token")
	cmd.Flags().StringVar(&opts.password, "password", "", "Administrator password")
	cmd.Flags().BoolVar(&opts.remote, "remote", false, "Print the overview computed by the server")
	cmd.Flags().BoolVar(&opts.watch, "watch", false, "Keep the view open and refresh on changes")
	return cmd
}

func runDashboard(cmd *cobra.Command, opts dashboardOptions) error {
	cfg, err := config.LoadClient()
	if err != nil {
		return err
	}
	if opts.url != "" {
		cfg.BaseURL = opts.url
	}
	if opts.token != "" {
		cfg.Token = opts.token
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := client.New(*cfg, nil)
	if opts.email != "" {
		if _, err := c.Login(ctx, opts.email, opts.password); err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
	}

	if opts.remote {
		overview, err := c.Dashboard(ctx)
		if err != nil {
			return fmt.Errorf("failed to load dashboard: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderOverview(*overview))
		return nil
	}

	dash := client.NewDashboard(c, client.WithoutRevalidation())
	if err := dash.Load(ctx); err != nil {
		return fmt.Errorf("failed to load collections: %w", err)
	}

	if !opts.watch {
		fmt.Fprintln(cmd.OutOrStdout(), renderOverview(dash.Overview(time.Now())))
		return nil
	}

	return watchDashboard(ctx, c, dash)
}

type refreshMsg struct{}

type feedErrMsg struct{ err error }

type dashboardModel struct {
	dash      *client.Dashboard
	overview  analytics.Overview
	updatedAt time.Time
	err       error
}

func (m dashboardModel) Init() tea.Cmd { return nil }

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case refreshMsg:
		m.updatedAt = time.Now()
		m.overview = m.dash.Overview(m.updatedAt)
	case feedErrMsg:
		m.err = msg.err
	}
	return m, nil
}

func (m dashboardModel) View() string {
	var s strings.Builder
	s.WriteString(renderOverview(m.overview))
	s.WriteString("\n")
	if m.err != nil {
		s.WriteString(errorStyle.Render("Change feed: " + m.err.Error()))
		s.WriteString("\n")
	}
	s.WriteString(hintStyle.Render(fmt.Sprintf("Updated %s. Press q to quit.", m.updatedAt.Format("15:04:05"))))
	return s.String()
}

// notifyingCache reports every refetch to the running program.
type notifyingCache struct {
	client.Refetcher
	notify func()
}

func (n notifyingCache) FetchAll(ctx context.Context) error {
	err := n.Refetcher.FetchAll(ctx)
	n.notify()
	return err
}

func watchDashboard(ctx context.Context, c *client.Client, dash *client.Dashboard) error {
	now := time.Now()
	p := tea.NewProgram(dashboardModel{dash: dash, overview: dash.Overview(now), updatedAt: now}, tea.WithContext(ctx))

	caches := dash.Caches()
	wrapped := make([]client.Refetcher, 0, len(caches))
	for _, cache := range caches {
		wrapped = append(wrapped, notifyingCache{Refetcher: cache, notify: func() { p.Send(refreshMsg{}) }})
	}

	feedCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := c.Sync(feedCtx, wrapped...); err != nil && feedCtx.Err() == nil {
			p.Send(feedErrMsg{err: err})
		}
	}()

	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

func renderOverview(ov analytics.Overview) string {
	title := titleStyle.Render("RelaxFlow Dashboard")

	totals := section("Totals",
		row("Users", fmt.Sprint(ov.TotalUsers)),
		row("Owners", fmt.Sprint(ov.TotalOwners)),
		row("Devices", fmt.Sprint(ov.TotalDevices)),
		row("Meditations", fmt.Sprint(ov.TotalMeditations)),
		row("New owners (7d)", fmt.Sprint(ov.NewOwnersLastWeek)),
		row("New meditations (7d)", fmt.Sprint(ov.NewMeditationsLastWeek)),
	)

	products := section("Products",
		row("Total", fmt.Sprint(ov.Products.Total)),
		row("Available", fmt.Sprint(ov.Products.Available)),
		row("Out of stock", fmt.Sprint(ov.Products.OutOfStock)),
		row("Active", fmt.Sprint(ov.Products.Active)),
	)

	plays := section("Plays",
		row("Today", fmt.Sprint(ov.Plays.Today)+" "+trend(ov.Plays.DailyTrend)),
		row("Yesterday", fmt.Sprint(ov.Plays.Yesterday)),
		row("Last 7 days", fmt.Sprint(ov.Plays.WindowTotal)),
		row("Daily average", fmt.Sprint(ov.Plays.AverageDaily)),
		row("This week", fmt.Sprint(ov.Plays.WeekTotal)+" "+trend(ov.Plays.WeeklyTrend)),
		row("Previous week", fmt.Sprint(ov.Plays.PreviousWeekTotal)),
	)

	growth := section("Users",
		row("Active", fmt.Sprint(ov.UserGrowth.ActiveUsers)),
		row("Logged in (7d)", fmt.Sprint(ov.UserGrowth.CurrentWeek)+" "+trend(ov.UserGrowth.Trend)),
		row("Previous 7d", fmt.Sprint(ov.UserGrowth.PreviousWeek)),
		row("Avg daily signups", fmt.Sprint(ov.UserGrowth.AverageDailySignups)),
		row("Logged in (90d)", fmt.Sprint(ov.UsersLoggedInQuarter)),
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		lipgloss.JoinHorizontal(lipgloss.Top, totals, products),
		lipgloss.JoinHorizontal(lipgloss.Top, plays, growth),
	)
}

func section(name string, rows ...string) string {
	body := append([]string{valueStyle.Render(name)}, rows...)
	return sectionStyle.Render(lipgloss.JoinVertical(lipgloss.Left, body...))
}

func row(label, value string) string {
	return labelStyle.Render(fmt.Sprintf("%-22s", label)) + valueStyle.Render(value)
}

func trend(pct float64) string {
	switch {
	case pct > 0:
		return upStyle.Render(fmt.Sprintf("+%.1f%%", pct))
	case pct < 0:
		return downStyle.Render(fmt.Sprintf("%.1f%%", pct))
	default:
		return hintStyle.Render("0.0%")
	}
}
