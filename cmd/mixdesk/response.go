package main

import (
	"fmt"
	"math"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/cwbudde/mixdesk/dsp/core"
	"github.com/cwbudde/mixdesk/dsp/graph"
	"github.com/cwbudde/mixdesk/mix"
)

// ResponseCmd prints the EQ magnitude response.
type ResponseCmd struct {
	MixFlags

	Points     int     `default:"16" help:"Number of log-spaced frequencies."`
	SampleRate float64 `name:"sample-rate" default:"48000" help:"Sample rate the filters are designed for."`
}

// Run implements the command.
func (c *ResponseCmd) Run(g *Globals) error {
	s, err := c.Settings()
	if err != nil {
		return err
	}

	if c.Points < 2 {
		return fmt.Errorf("points must be at least 2: %d", c.Points)
	}

	freqs := logSpaced(mix.MinFrequencyHz, math.Min(mix.MaxFrequencyHz, c.SampleRate/2), c.Points)

	db, err := responseDB(s, c.SampleRate, freqs)
	if err != nil {
		return err
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(keyStyle).
		Headers("Frequency", "Gain dB").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return titleStyle.Padding(0, 1)
			}

			return lipgloss.NewStyle().Padding(0, 1).Align(lipgloss.Right)
		})

	for i, f := range freqs {
		t.Row(mix.FormatFrequency(f), strconv.FormatFloat(db[i], 'f', 2, 64))
	}

	fmt.Fprintln(g.stdout, t.String())

	return nil
}

// responseDB builds a graph without audio and reads its EQ response.
func responseDB(s mix.Settings, sampleRate float64, freqs []float64) ([]float64, error) {
	ctx, err := graph.NewOfflineContext(0, core.WithSampleRate(sampleRate), core.WithChannels(1))
	if err != nil {
		return nil, err
	}

	g, err := graph.Build(ctx, s)
	if err != nil {
		return nil, err
	}
	defer g.Close()

	return g.FrequencyResponseDB(freqs), nil
}

func logSpaced(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	ratio := math.Log(hi / lo)

	for i := range out {
		out[i] = lo * math.Exp(ratio*float64(i)/float64(n-1))
	}

	return out
}
