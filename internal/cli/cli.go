package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campaignflow/internal/agent/runtime"
	"campaignflow/internal/cache"
	"campaignflow/internal/config"
	"campaignflow/internal/workflow"
	"campaignflow/internal/workflow/executor"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Options 全局参数
type Options struct {
	Server     string
	Timeout    time.Duration
	ConfigPath string
	JSON       bool
}

// SetupCLI 向根命令注册全部子命令
func SetupCLI(rootCmd *cobra.Command) *Options {
	opts := &Options{}
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.Server, "server", envOr("CAMPAIGNFLOW_SERVER", "http://localhost:8080"), "campaignflow 服务地址")
	flags.DurationVar(&opts.Timeout, "timeout", 2*time.Minute, "请求超时")
	flags.StringVar(&opts.ConfigPath, "config", "", "本地执行时使用的配置文件")
	flags.BoolVar(&opts.JSON, "json", false, "以 JSON 输出")

	rootCmd.AddCommand(
		newRunCmd(opts),
		newSummaryCmd(opts),
		newExportCmd(opts),
		newMonitorCmd(opts),
		newStatusCmd(opts),
	)
	return opts
}

func (o *Options) client() *Client {
	return NewClient(o.Server, o.Timeout)
}

func newRunCmd(opts *Options) *cobra.Command {
	var (
		workflowType string
		async        bool
		local        bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "执行一次完整投放流水线",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if local {
				rec, err := runLocal(cmd.Context(), opts.ConfigPath, workflowType)
				if rec != nil {
					printRecord(out, rec, opts.JSON)
				}
				return err
			}

			res, err := opts.client().Execute(cmd.Context(), workflowType, async)
			if err != nil {
				var apiErr *APIError
				if errors.As(err, &apiErr) && apiErr.Workflow != nil {
					printRecord(out, apiErr.Workflow, opts.JSON)
				}
				return err
			}
			if res.Enqueued != nil {
				if opts.JSON {
					return writeJSON(out, res.Enqueued)
				}
				fmt.Fprintf(out, "已投递任务 %s (request %s)\n", res.Enqueued.TaskID, res.Enqueued.RequestID)
				return nil
			}
			printRecord(out, res.Record, opts.JSON)
			return nil
		},
	}
	cmd.Flags().StringVar(&workflowType, "type", workflow.TypeFullAutomation, "工作流类型")
	cmd.Flags().BoolVar(&async, "async", false, "通过任务队列异步执行")
	cmd.Flags().BoolVar(&local, "local", false, "不连接服务端，在本进程内执行")
	return cmd
}

func newSummaryCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "查看工作流历史统计",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.client().Summary(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.JSON {
				return writeJSON(out, s)
			}
			fmt.Fprintf(out, "Total: %d, Successful: %d, Failed: %d, Average: %s\n",
				s.TotalWorkflows, s.SuccessfulWorkflows, s.FailedWorkflows, s.AverageDuration)
			if s.LastWorkflow != nil {
				fmt.Fprintf(out, "Last: %s (%s)\n", s.LastWorkflow.ID, s.LastWorkflow.Status)
			}
			return nil
		},
	}
}

func newExportCmd(opts *Options) *cobra.Command {
	var (
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "导出工作流历史 (json/csv/yaml)",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := opts.client().Export(cmd.Context(), format)
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("写入 %s 失败: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已导出到 %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", workflow.FormatJSON, "导出格式")
	cmd.Flags().StringVarP(&output, "output", "o", "", "输出文件，默认标准输出")
	return cmd
}

func newMonitorCmd(opts *Options) *cobra.Command {
	var interval int
	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "管理持续监控",
	}

	start := &cobra.Command{
		Use:   "start",
		Short: "启动持续监控",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.client().StartMonitoring(cmd.Context(), interval)
			if err != nil {
				return err
			}
			if opts.JSON {
				return writeJSON(cmd.OutOrStdout(), st)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "持续监控已启动，间隔 %d 分钟\n", st.IntervalMinutes)
			return nil
		},
	}
	start.Flags().IntVar(&interval, "interval", 0, "监控间隔（分钟），0 使用服务端默认值")

	stop := &cobra.Command{
		Use:   "stop",
		Short: "停止持续监控",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.client().StopMonitoring(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "持续监控已停止")
			return nil
		},
	}

	cmd.AddCommand(start, stop)
	return cmd
}

func newStatusCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "查看编排器与 Agent 状态",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := opts.client().DashboardStatus(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.JSON {
				return writeJSON(out, st)
			}
			o := st.Orchestrator
			fmt.Fprintf(out, "Orchestrator: %s, workflow %s (%s), stages %d, history %d, monitoring %t\n",
				o.Status, o.CurrentWorkflowID, o.CurrentWorkflowStatus, o.StagesCompleted, o.HistorySize, o.MonitoringActive)
			for _, a := range st.Agents {
				fmt.Fprintf(out, "- %s: %s (%s)\n", a.Agent, a.Status, a.LastAction)
			}
			d := st.Dashboard
			fmt.Fprintf(out, "Dashboard: campaign %s, status %s, alerts %d, updated %s\n",
				d.CampaignID, d.Status, d.AlertCount, d.LastUpdated)
			return nil
		},
	}
}

// runLocal 在本进程内组装 Agent 与引擎执行一次
func runLocal(ctx context.Context, configPath, workflowType string) (*workflow.Record, error) {
	cfg, err := config.Load(config.Env(), configPath)
	if err != nil {
		return nil, err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := zap.NewNop()
	snapshots := cache.NewMemorySnapshotCache()
	agents, err := runtime.NewAgentSet(cfg, snapshots, runtime.Deps{Logger: log})
	if err != nil {
		return nil, err
	}
	engine, err := executor.NewEngine(agents, workflow.NewHistoryStore(),
		executor.WithLogger(log),
		executor.WithCampaign(cfg.Campaign),
		executor.WithSnapshotCache(snapshots),
	)
	if err != nil {
		return nil, err
	}
	return engine.ExecuteWorkflow(ctx, workflowType)
}

func printRecord(out io.Writer, rec *workflow.Record, asJSON bool) {
	if asJSON {
		_ = writeJSON(out, rec)
		return
	}
	status := rec.Status
	if status == "" {
		status = "running"
	}
	fmt.Fprintf(out, "Workflow %s [%s] %s\n", rec.ID, status, rec.Duration)
	for _, s := range rec.Stages {
		line := fmt.Sprintf("  Stage %d %-24s %-9s %s", s.Stage, s.Name, s.Status, workflow.FormatDuration(s.DurationMs))
		if s.Error != "" {
			line += "  " + s.Error
		}
		fmt.Fprintln(out, line)
	}
	if rec.Error != "" {
		fmt.Fprintf(out, "Error: %s\n", rec.Error)
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
