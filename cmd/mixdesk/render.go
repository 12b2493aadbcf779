package main

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/cwbudde/mixdesk/audio"
	"github.com/cwbudde/mixdesk/measure/loudness"
	"github.com/cwbudde/mixdesk/render"
)

// RenderCmd renders a file offline.
type RenderCmd struct {
	MixFlags

	Input    string `arg:"" type:"existingfile" help:"Input WAVE or Ogg Opus file."`
	Output   string `arg:"" type:"path" help:"Output WAVE file."`
	Truncate bool   `help:"Keep only the first 45 seconds."`
	NoLevels bool   `name:"no-levels" help:"Skip the loudness report."`
}

// Run implements the command.
func (c *RenderCmd) Run(g *Globals) error {
	s, err := c.Settings()
	if err != nil {
		return err
	}

	buf, err := audio.DecodeFile(c.Input)
	if err != nil {
		return err
	}

	if c.Truncate {
		buf = audio.Truncate(buf)
	}

	g.logger.Debug("rendering", "input", c.Input, "frames", buf.Len(), "compressor", s.CompressorEnabled)

	start := time.Now()

	out, err := render.Render(buf, s)
	if err != nil {
		return err
	}

	if err := writeWAV(c.Output, out); err != nil {
		return err
	}

	fmt.Fprintln(g.stdout, keyValue("Rendered", c.Output))
	fmt.Fprintln(g.stdout, keyValue("Duration", fmt.Sprintf("%.2f s", out.Duration())))
	fmt.Fprintln(g.stdout, keyValue("Took", time.Since(start).Round(time.Millisecond).String()))

	if c.NoLevels {
		return nil
	}

	levels, err := levelTable(buf, out)
	if err != nil {
		return err
	}

	fmt.Fprintln(g.stdout, levels)

	return nil
}

// levelTable compares the loudness and levels of the input and the render.
func levelTable(in, out *audio.Buffer) (string, error) {
	before, err := measure(in)
	if err != nil {
		return "", err
	}

	after, err := measure(out)
	if err != nil {
		return "", err
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(keyStyle).
		Headers("", "Input", "Output").
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return titleStyle.Padding(0, 1)
			case col == 0:
				return keyStyle.Padding(0, 1)
			}

			return lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Right)
		}).
		Row("Integrated", formatLevel(before.IntegratedLUFS, "LUFS"), formatLevel(after.IntegratedLUFS, "LUFS")).
		Row("Peak", formatLevel(before.PeakDBFS, "dBFS"), formatLevel(after.PeakDBFS, "dBFS")).
		Row("RMS", formatLevel(before.RMSDBFS, "dBFS"), formatLevel(after.RMSDBFS, "dBFS"))

	return t.String(), nil
}

func measure(b *audio.Buffer) (loudness.Report, error) {
	channels := make([][]float64, b.NumChannels())
	for ch := range channels {
		channels[ch] = b.Channel(ch)
	}

	return loudness.Measure(channels, b.SampleRate())
}

func formatLevel(v float64, unit string) string {
	if math.IsInf(v, -1) {
		return "-inf " + unit
	}

	return fmt.Sprintf("%.1f %s", v, unit)
}

// writeWAV creates path and encodes buf into it.
func writeWAV(path string, buf *audio.Buffer) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	return audio.EncodeWAV(f, buf)
}

// TruncateCmd keeps the first 45 seconds of a file.
type TruncateCmd struct {
	Input  string `arg:"" type:"existingfile" help:"Input WAVE or Ogg Opus file."`
	Output string `arg:"" type:"path" help:"Output WAVE file."`
}

// Run implements the command.
func (c *TruncateCmd) Run(g *Globals) error {
	buf, err := audio.DecodeFile(c.Input)
	if err != nil {
		return err
	}

	short := audio.Truncate(buf)
	if err := writeWAV(c.Output, short); err != nil {
		return err
	}

	fmt.Fprintln(g.stdout, keyValue("Wrote", fmt.Sprintf("%s (%.2f of %.2f s)", c.Output, short.Duration(), buf.Duration())))

	return nil
}
