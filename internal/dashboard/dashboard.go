// Package dashboard renders a live terminal view of a benchmark run.
package dashboard

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/wfbench/wfbench/internal/metrics"
)

// RunInfo holds run parameters for display.
type RunInfo struct {
	Benchmark    string
	Scenario     string
	Destinations int
	Workflows    int
	Runs         int
	PlannedJobs  int
}

// Dashboard renders a live terminal UI for benchmark run metrics.
type Dashboard struct {
	collector    *metrics.Collector
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownFunc func()
	wg           sync.WaitGroup
	mu           sync.Mutex

	grid           *ui.Grid
	summaryPara    *widgets.Paragraph
	progressGauge  *widgets.Gauge
	runtimePara    *widgets.Paragraph
	runtimeSparkle *widgets.SparklineGroup
	destList       *widgets.List
	failureList    *widgets.List
	runtimeHistory []float64
	startTime      time.Time
	info           RunInfo
}

// New creates a new Dashboard. shutdownFunc is invoked when the user quits
// the view with q or Ctrl-C.
func New(collector *metrics.Collector, info RunInfo, shutdownFunc func()) (*Dashboard, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize termui: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dashboard{
		collector:      collector,
		ctx:            ctx,
		cancel:         cancel,
		shutdownFunc:   shutdownFunc,
		runtimeHistory: make([]float64, 0, 100),
		startTime:      time.Now(),
		info:           info,
	}
	d.initWidgets()
	d.setupGrid()
	return d, nil
}

func (d *Dashboard) initWidgets() {
	sparkline := widgets.NewSparkline()
	sparkline.Title = "Mean runtime (s)"
	sparkline.LineColor = ui.ColorGreen
	sparkline.Data = []float64{0}

	d.runtimeSparkle = widgets.NewSparklineGroup(sparkline)
	d.runtimeSparkle.Title = "Job Runtime"
	d.runtimeSparkle.BorderStyle.Fg = ui.ColorCyan

	d.runtimePara = widgets.NewParagraph()
	d.runtimePara.Title = "Runtime Stats"
	d.runtimePara.Text = "Min: -\nMean: -\nP50: -\nP90: -\nP99: -"
	d.runtimePara.BorderStyle.Fg = ui.ColorCyan

	d.progressGauge = widgets.NewGauge()
	d.progressGauge.Title = "Run Progress"
	d.progressGauge.Percent = 0
	d.progressGauge.BarColor = ui.ColorBlue
	d.progressGauge.BorderStyle.Fg = ui.ColorCyan
	d.progressGauge.LabelStyle = ui.NewStyle(ui.ColorWhite)

	d.destList = widgets.NewList()
	d.destList.Title = "Destinations"
	d.destList.Rows = []string{"Awaiting data"}
	d.destList.TextStyle = ui.NewStyle(ui.ColorCyan)
	d.destList.BorderStyle.Fg = ui.ColorCyan

	d.failureList = widgets.NewList()
	d.failureList.Title = "Failures"
	d.failureList.Rows = []string{"No failures"}
	d.failureList.TextStyle = ui.NewStyle(ui.ColorYellow)
	d.failureList.BorderStyle.Fg = ui.ColorCyan

	d.summaryPara = widgets.NewParagraph()
	d.summaryPara.Title = "Benchmark"
	d.summaryPara.Text = fmt.Sprintf(
		"%s | scenario=%s | destinations=%d | workflows=%d | runs/workflow=%d\nPress q to stop the run",
		d.info.Benchmark, d.info.Scenario, d.info.Destinations, d.info.Workflows, d.info.Runs,
	)
	d.summaryPara.BorderStyle.Fg = ui.ColorCyan
}

func (d *Dashboard) setupGrid() {
	termWidth, termHeight := ui.TerminalDimensions()

	d.grid = ui.NewGrid()
	d.grid.SetRect(0, 0, termWidth, termHeight)
	d.grid.Set(
		ui.NewRow(0.16,
			ui.NewCol(1.0, d.summaryPara),
		),
		ui.NewRow(0.18,
			ui.NewCol(1.0, d.progressGauge),
		),
		ui.NewRow(0.3,
			ui.NewCol(0.65, d.runtimeSparkle),
			ui.NewCol(0.35, d.runtimePara),
		),
		ui.NewRow(0.36,
			ui.NewCol(0.5, d.destList),
			ui.NewCol(0.5, d.failureList),
		),
	)
}

// Start begins the dashboard update loop.
func (d *Dashboard) Start() {
	d.wg.Add(1)
	go d.run()
}

// Stop stops the dashboard and restores the terminal.
func (d *Dashboard) Stop() {
	d.cancel()
	d.wg.Wait()
	ui.Close()
	// Give terminal time to restore
	time.Sleep(100 * time.Millisecond)
}

func (d *Dashboard) run() {
	defer d.wg.Done()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	uiEvents := ui.PollEvents()
	d.render()

	for {
		select {
		case <-d.ctx.Done():
			for len(uiEvents) > 0 {
				<-uiEvents
			}
			return
		case e := <-uiEvents:
			select {
			case <-d.ctx.Done():
				return
			default:
			}
			switch e.ID {
			case "q", "<C-c>":
				if d.shutdownFunc != nil {
					d.shutdownFunc()
				}
			case "<Resize>":
				payload := e.Payload.(ui.Resize)
				d.grid.SetRect(0, 0, payload.Width, payload.Height)
				ui.Clear()
				d.render()
			}
		case <-ticker.C:
			d.update()
			d.render()
		}
	}
}

func (d *Dashboard) update() {
	d.mu.Lock()
	defer d.mu.Unlock()

	elapsed := time.Since(d.startTime)
	stats := d.collector.Stats(elapsed)

	if stats.MeanRuntime > 0 {
		d.runtimeHistory = append(d.runtimeHistory, stats.MeanRuntimeSec)
		if len(d.runtimeHistory) > 100 {
			d.runtimeHistory = d.runtimeHistory[1:]
		}
		d.runtimeSparkle.Sparklines[0].Data = d.runtimeHistory
	}

	d.runtimePara.Text = fmt.Sprintf(
		"Min:  %s\nMean: %s\nP50:  %s\nP90:  %s\nP99:  %s",
		stats.MinRuntime.Round(time.Millisecond),
		stats.MeanRuntime.Round(time.Millisecond),
		stats.P50Runtime.Round(time.Millisecond),
		stats.P90Runtime.Round(time.Millisecond),
		stats.P99Runtime.Round(time.Millisecond),
	)

	if d.info.PlannedJobs > 0 {
		percent := int(float64(stats.Total) / float64(d.info.PlannedJobs) * 100)
		if percent > 100 {
			percent = 100
		}
		d.progressGauge.Percent = percent
		d.progressGauge.Label = fmt.Sprintf("%d/%d jobs | %s elapsed", stats.Total, d.info.PlannedJobs, elapsed.Round(time.Second))
	}

	if len(stats.Destinations) > 0 {
		names := make([]string, 0, len(stats.Destinations))
		for name := range stats.Destinations {
			names = append(names, name)
		}
		sort.Strings(names)
		rows := make([]string, 0, len(names))
		for _, name := range names {
			ds := stats.Destinations[name]
			rows = append(rows, fmt.Sprintf("%s: %d done, %d ok, p99=%s", name, ds.Total, ds.OK, ds.P99Runtime.Round(time.Millisecond)))
		}
		d.destList.Rows = rows
	}

	failed := stats.Failed + stats.Timeout + stats.SubmitErrors
	if failed > 0 {
		d.failureList.Rows = []string{
			fmt.Sprintf("failed: %d", stats.Failed),
			fmt.Sprintf("timeout: %d", stats.Timeout),
			fmt.Sprintf("submit_error: %d", stats.SubmitErrors),
		}
	}
}

func (d *Dashboard) render() {
	d.mu.Lock()
	defer d.mu.Unlock()
	ui.Render(d.grid)
}
