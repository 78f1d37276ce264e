package usd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/guillaume10/mujoco/internal/monitoring"
)

// frameStat is one Sync's entity census.
type frameStat struct {
	frame   int64
	active  int // entities in the snapshot
	visible int // represented entities drawn this frame
	tracked int // identity map size, monotonic
}

// sessionStats accumulates per-frame censuses across an export session.
type sessionStats struct {
	frames []frameStat
}

func (s *sessionStats) record(frame int64, active, visible, tracked int) {
	s.frames = append(s.frames, frameStat{
		frame:   frame,
		active:  active,
		visible: visible,
		tracked: tracked,
	})
}

// WriteReport renders the session's entity counts over time as a standalone
// HTML chart.
func (e *Exporter) WriteReport(pathName string) error {
	x := make([]string, 0, len(e.stats.frames))
	active := make([]opts.LineData, 0, len(e.stats.frames))
	visible := make([]opts.LineData, 0, len(e.stats.frames))
	tracked := make([]opts.LineData, 0, len(e.stats.frames))
	for _, rec := range e.stats.frames {
		x = append(x, strconv.FormatInt(rec.frame, 10))
		active = append(active, opts.LineData{Value: rec.active})
		visible = append(visible, opts.LineData{Value: rec.visible})
		tracked = append(tracked, opts.LineData{Value: rec.tracked})
	}

	elapsed := e.opts.Clock.Since(e.startedAt).Round(time.Millisecond)

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "USD export session", Width: "900px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: "Entity synchronization", Subtitle: fmt.Sprintf("session=%s frames=%d elapsed=%s", e.sessionID, len(e.stats.frames), elapsed)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "frame"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "entities"}),
	)
	line.SetXAxis(x).
		AddSeries("active", active).
		AddSeries("visible", visible).
		AddSeries("tracked", tracked)

	w, err := e.opts.FS.Create(pathName)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	if err := line.Render(w); err != nil {
		w.Close()
		return fmt.Errorf("render report: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close report file: %w", err)
	}

	if e.opts.Verbose {
		monitoring.Successf("wrote session report to %s", pathName)
	}
	return nil
}
