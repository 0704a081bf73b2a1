package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/codebase-genius/genius-cli/internal/backend"
	"github.com/codebase-genius/genius-cli/internal/config"
	"github.com/codebase-genius/genius-cli/internal/docfile"
	"github.com/codebase-genius/genius-cli/internal/notify"
	"github.com/codebase-genius/genius-cli/internal/poller"
	"github.com/codebase-genius/genius-cli/internal/schedule"
	"github.com/codebase-genius/genius-cli/internal/session"
	"github.com/codebase-genius/genius-cli/internal/watchlist"
	"github.com/codebase-genius/genius-cli/tui"
	"github.com/codebase-genius/genius-cli/web/api"
)

var (
	serveAddr string
	outputDir string
)

func init() {
	// dashboard command (also the root default)
	dashboardCmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Open the interactive dashboard",
		RunE:  runDashboard,
	}
	dashboardCmd.Flags().StringVar(&serveAddr, "serve", "", "also serve a local status mirror on this address")
	rootCmd.AddCommand(dashboardCmd)

	// analyze command
	analyzeCmd := &cobra.Command{
		Use:   "analyze REPO_URL",
		Short: "Analyze a repository and save its documentation",
		Args:  cobra.ExactArgs(1),
		RunE:  runAnalyze,
	}
	analyzeCmd.Flags().StringVar(&outputDir, "output", "", "directory for the saved documentation")
	rootCmd.AddCommand(analyzeCmd)

	// status command
	statusCmd := &cobra.Command{
		Use:   "status TASK_ID",
		Short: "Show the status of an analysis task",
		Args:  cobra.ExactArgs(1),
		RunE:  runStatus,
	}
	rootCmd.AddCommand(statusCmd)

	// download command
	downloadCmd := &cobra.Command{
		Use:   "download TASK_ID",
		Short: "Download the documentation for a completed task",
		Args:  cobra.ExactArgs(1),
		RunE:  runDownload,
	}
	downloadCmd.Flags().StringVar(&outputDir, "output", "", "directory for the saved documentation")
	rootCmd.AddCommand(downloadCmd)

	// health command
	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Check backend reachability",
		RunE:  runHealth,
	}
	rootCmd.AddCommand(healthCmd)

	// watch command
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the watchlist file and re-analyze repos on a schedule",
		RunE:  runWatch,
	}
	watchCmd.Flags().StringVar(&serveAddr, "serve", "", "also serve a local status mirror on this address")
	rootCmd.AddCommand(watchCmd)
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	return config.Load(path)
}

func buildNotifier(cfg *config.Config) notify.Notifier {
	notifiers := []notify.Notifier{
		notify.NewDesktopNotifier(cfg.Notifications.Desktop),
	}
	if cfg.Notifications.SlackWebhook != "" {
		notifiers = append(notifiers, notify.NewSlackNotifier(cfg.Notifications.SlackWebhook))
	}
	return notify.NewMultiNotifier(notifiers...)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client := backend.NewClient(cfg.Backend)

	mc := tui.ModelConfig{
		Config:   cfg,
		Client:   client,
		Notifier: buildNotifier(cfg),
	}

	addr := serveAddr
	if addr == "" && cfg.Web.Enabled {
		addr = cfg.Web.Addr
	}
	if addr != "" {
		server := api.NewServer(addr)
		go func() {
			if err := server.Start(); err != nil {
				log.Printf("status mirror: %v", err)
			}
		}()
		mc.OnUpdate = func(s *session.Session, healthy bool) {
			server.Publish(api.SnapshotSession(s, healthy))
		}
	}

	p := tea.NewProgram(tui.NewModel(mc), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	repoURL := args[0]

	client := backend.NewClient(cfg.Backend)
	ctx := cmd.Context()

	resp, err := client.SubmitAnalysis(ctx, repoURL)
	if err != nil {
		return err
	}
	if resp.Error != "" {
		return fmt.Errorf("submitting analysis: %s", resp.Error)
	}

	sess := session.New()
	sess.Begin(repoURL, resp.TaskID)
	fmt.Printf("Analysis started, task %s (session %s)\n", resp.TaskID, sess.ID)

	lastStep := ""
	for update := range poller.New(client, cfg.PollInterval()).Run(ctx, resp.TaskID) {
		sess.ApplyStatus(update.TaskID, update.Status)
		p := update.Status.Progress
		if p.CurrentStep != "" && p.CurrentStep != lastStep {
			fmt.Printf("  [%3.0f%%] %s\n", p.ProgressPercentage, p.CurrentStep)
			lastStep = p.CurrentStep
		}
	}

	notifier := buildNotifier(cfg)
	ok := sess.Status == session.StatusCompleted
	notifier.Send(notify.AnalysisFinished(repoURL, resp.TaskID, ok, sess.Err))

	if !ok {
		return fmt.Errorf("analysis failed: %s", sess.Err)
	}

	doc := client.FetchDocumentation(ctx, resp.TaskID)
	if doc.Error != "" {
		return fmt.Errorf("downloading documentation: %s", doc.Error)
	}

	dir := outputDir
	if dir == "" {
		dir = cfg.UI.OutputDir
	}
	path, err := docfile.Save(dir, doc.Content, time.Now())
	if err != nil {
		return err
	}
	fmt.Printf("Documentation saved to %s\n", path)

	if sess.Stats != nil {
		printStats(sess.Stats)
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client := backend.NewClient(cfg.Backend)
	status := client.PollStatus(cmd.Context(), args[0])

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Task:\t%s\n", args[0])
	fmt.Fprintf(w, "Status:\t%s\n", status.Progress.Status)
	fmt.Fprintf(w, "Progress:\t%.0f%%\n", status.Progress.ProgressPercentage)
	if status.Progress.CurrentStep != "" {
		fmt.Fprintf(w, "Step:\t%s\n", status.Progress.CurrentStep)
	}
	if status.Error != "" {
		fmt.Fprintf(w, "Error:\t%s\n", status.Error)
	}
	return w.Flush()
}

func runDownload(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client := backend.NewClient(cfg.Backend)
	doc := client.FetchDocumentation(cmd.Context(), args[0])
	if doc.Error != "" {
		return fmt.Errorf("downloading documentation: %s", doc.Error)
	}

	dir := outputDir
	if dir == "" {
		dir = cfg.UI.OutputDir
	}
	path, err := docfile.Save(dir, doc.Content, time.Now())
	if err != nil {
		return err
	}
	fmt.Printf("Documentation saved to %s\n", path)
	return nil
}

func runHealth(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client := backend.NewClient(cfg.Backend)
	if !client.Health(cmd.Context()) {
		fmt.Printf("Backend at %s is not responding\n", cfg.Backend.URL)
		os.Exit(1)
	}
	fmt.Printf("Backend at %s is running\n", cfg.Backend.URL)
	return nil
}

// watchSubmitter adapts the backend client to the watchlist interface
type watchSubmitter struct {
	client *backend.Client
}

func (ws *watchSubmitter) Submit(ctx context.Context, repoURL string) (string, error) {
	resp, err := ws.client.SubmitAnalysis(ctx, repoURL)
	if err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", fmt.Errorf("%s", resp.Error)
	}
	return resp.TaskID, nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	client := backend.NewClient(cfg.Backend)
	notifier := buildNotifier(cfg)

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var server *api.Server
	addr := serveAddr
	if addr == "" && cfg.Web.Enabled {
		addr = cfg.Web.Addr
	}
	if addr != "" {
		server = api.NewServer(addr)
		go func() {
			if err := server.Start(); err != nil {
				log.Printf("status mirror: %v", err)
			}
		}()
		log.Printf("status mirror on http://%s/api/session", addr)
	}

	// Watchlist: submit newly listed repos as they appear
	watcher, err := watchlist.New(cfg.Watch.WatchlistPath, &watchSubmitter{client: client})
	if err != nil {
		return err
	}
	defer watcher.Stop()

	if err := watcher.Start(ctx); err != nil {
		return err
	}
	log.Printf("watching %s", cfg.Watch.WatchlistPath)

	go func() {
		for sub := range watcher.Submissions() {
			if sub.Err != nil {
				log.Printf("watchlist: %s: %v", sub.RepoURL, sub.Err)
				continue
			}
			log.Printf("watchlist: submitted %s as task %s", sub.RepoURL, sub.TaskID)
			go followTask(ctx, client, cfg, notifier, server, sub.RepoURL, sub.TaskID)
		}
	}()

	// Cron: periodic re-analysis of the configured repos
	if cfg.Watch.Cron != "" && len(cfg.Watch.Repos) > 0 {
		sched, err := schedule.NewScheduler(cfg.Watch.Cron)
		if err != nil {
			return err
		}
		defer sched.Stop()

		log.Printf("scheduled re-analysis of %d repos, next run %s", len(cfg.Watch.Repos), sched.NextRun().Format(time.RFC3339))
		go sched.Start(func() error {
			return schedule.RunBatch(ctx, client, cfg.Watch.Repos, cfg.PollInterval(), notifier)
		})
	}

	<-ctx.Done()
	return nil
}

// followTask polls a watchlist submission to its terminal status and
// notifies, mirroring progress when the status server is up.
func followTask(ctx context.Context, client *backend.Client, cfg *config.Config, notifier notify.Notifier, server *api.Server, repoURL, taskID string) {
	sess := session.New()
	sess.Begin(repoURL, taskID)
	log.Printf("watchlist: following %s as task %s (session %s)", repoURL, taskID, sess.ID)

	for update := range poller.New(client, cfg.PollInterval()).Run(ctx, taskID) {
		sess.ApplyStatus(update.TaskID, update.Status)
		if server != nil {
			server.Publish(api.SnapshotSession(sess, true))
		}
	}

	ok := sess.Status == session.StatusCompleted
	notifier.Send(notify.AnalysisFinished(repoURL, taskID, ok, sess.Err))

	if ok {
		doc := client.FetchDocumentation(ctx, taskID)
		if doc.Error != "" {
			log.Printf("downloading documentation for %s: %s", repoURL, doc.Error)
			return
		}
		path, err := docfile.Save(cfg.UI.OutputDir, doc.Content, time.Now())
		if err != nil {
			log.Printf("saving documentation for %s: %v", repoURL, err)
			return
		}
		log.Printf("documentation for %s saved to %s", repoURL, path)
	}
}

func printStats(stats *backend.Stats) {
	fmt.Println("\nStats:")
	fmt.Printf("  Total Files:    %s\n", humanize.Comma(int64(stats.TotalFiles)))
	fmt.Printf("  Total Entities: %s\n", humanize.Comma(int64(stats.TotalEntities)))
	fmt.Printf("  Doc Size:       %s chars\n", humanize.Comma(int64(stats.DocumentationSize)))
}
