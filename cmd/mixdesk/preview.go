package main

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/hajimehoshi/oto/v2"

	"github.com/cwbudde/mixdesk/internal/session"
	"github.com/cwbudde/mixdesk/mix"
	"github.com/cwbudde/mixdesk/transport"
)

const (
	previewChannels = 2
	scrubStep       = 0.05
	gainStep        = 1.0
	meterWidth      = 30
	refreshInterval = 50 * time.Millisecond
)

// PreviewCmd plays a file through the live mix.
type PreviewCmd struct {
	MixFlags

	Input      string `arg:"" type:"existingfile" help:"Input WAVE or Ogg Opus file."`
	SampleRate int    `name:"sample-rate" default:"48000" help:"Output device sample rate."`
	Export     string `type:"path" default:"mixdesk-export.wav" help:"File written by the export key."`
}

// Run implements the command.
func (c *PreviewCmd) Run(g *Globals) error {
	s, err := c.Settings()
	if err != nil {
		return err
	}

	sess, err := session.New(float64(c.SampleRate),
		session.WithSettings(s),
		session.WithChannels(previewChannels),
		session.WithLogger(g.logger),
	)
	if err != nil {
		return err
	}
	defer sess.Close()

	f, err := os.Open(c.Input)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := sess.LoadReader(f); err != nil {
		return err
	}

	otoCtx, ready, err := oto.NewContext(c.SampleRate, previewChannels, oto.FormatFloat32LE)
	if err != nil {
		return fmt.Errorf("audio output: %w", err)
	}
	<-ready

	player := otoCtx.NewPlayer(sess)
	defer player.Close()

	player.Play()

	m := newPreviewModel(sess, c.Input, c.Export)
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()

	return err
}

type tickMsg time.Time

type exportDoneMsg struct {
	path string
	err  error
}

// previewModel is the terminal front end of a live session.
type previewModel struct {
	sess   *session.Session
	name   string
	export string

	band   mix.Band
	status session.Status
	notice string
}

func newPreviewModel(sess *session.Session, name, export string) previewModel {
	return previewModel{sess: sess, name: name, export: export, status: sess.Status()}
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m previewModel) Init() tea.Cmd {
	return tick()
}

func (m previewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.status = m.sess.Status()
		return m, tick()
	case exportDoneMsg:
		if msg.err != nil {
			m.notice = "export failed: " + msg.err.Error()
		} else {
			m.notice = "exported " + msg.path
		}

		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m previewModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	settings := m.sess.Settings()

	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case " ", "space":
		m.sess.Toggle()
	case "left":
		m.sess.Scrub(m.sess.Progress() - scrubStep)
	case "right":
		m.sess.Scrub(m.sess.Progress() + scrubStep)
	case "1", "2", "3":
		m.band = mix.Band(msg.String()[0] - '1')
	case "up", "down":
		step := gainStep
		if msg.String() == "down" {
			step = -step
		}

		m.apply(mix.FilterChange{Band: m.band, Field: mix.FieldGain, Value: settings.EQ[m.band].GainDB + step})
	case "+", "-":
		step := gainStep
		if msg.String() == "-" {
			step = -step
		}

		makeup := settings.Compressors[m.band].MakeupGainDB
		if math.IsInf(makeup, -1) {
			makeup = -mix.MaxMakeupDB
		}

		m.apply(mix.CompressorChange{Band: m.band, Field: mix.FieldMakeup, Value: makeup + step})
	case "b":
		m.apply(mix.BypassChange{Enabled: !settings.CompressorEnabled})
	case "e":
		m.notice = "exporting..."
		return m, m.exportCmd()
	}

	m.status = m.sess.Status()

	return m, nil
}

func (m *previewModel) apply(c mix.Change) {
	if err := m.sess.ApplyClamped(c); err != nil {
		m.notice = err.Error()
		return
	}

	m.notice = c.String()
}

func (m previewModel) exportCmd() tea.Cmd {
	sess, path := m.sess, m.export

	return func() tea.Msg {
		f, err := os.Create(path)
		if err != nil {
			return exportDoneMsg{path: path, err: err}
		}

		err = sess.Export(f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}

		return exportDoneMsg{path: path, err: err}
	}
}

var (
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	bandStyle     = lipgloss.NewStyle().Foreground(textColor)
	meterStyle    = lipgloss.NewStyle().Foreground(warnColor)
	boxStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(0, 1)
)

func (m previewModel) View() string {
	st := m.status

	var sb strings.Builder

	sb.WriteString(titleStyle.Render("mixdesk preview") + "  " + keyStyle.Render(m.name) + "\n\n")
	sb.WriteString(transportLine(st) + "\n\n")

	compressor := "off"
	if st.Settings.CompressorEnabled {
		compressor = "on"
	}

	sb.WriteString(keyValue("Compressor", compressor) + "   " +
		keyValue("Crossover", mix.FormatFrequency(st.CrossoverHz[0])+" / "+mix.FormatFrequency(st.CrossoverHz[1])) + "\n\n")

	for _, b := range mix.Bands() {
		eq := st.Settings.EQ[b]
		comp := st.Settings.Compressors[b]

		style := bandStyle
		if b == m.band {
			style = selectedStyle
		}

		label := style.Render(fmt.Sprintf("%d %-4s", int(b)+1, b))
		filter := fmt.Sprintf("%-10s %8s %+6.1f dB  makeup %+6.1f dB", eq.Type, mix.FormatFrequency(eq.FrequencyHz), eq.GainDB, comp.MakeupGainDB)

		sb.WriteString(label + "  " + filter + "  " + meter(st.Reduction[b]) + "\n")
	}

	sb.WriteString("\n" + keyStyle.Render("space play/pause  ←/→ scrub  1-3 band  ↑/↓ gain  +/- makeup  b compressor  e export  q quit"))

	if m.notice != "" {
		sb.WriteString("\n" + valueStyle.Render(m.notice))
	}

	return boxStyle.Render(sb.String()) + "\n"
}

func transportLine(st session.Status) string {
	if !st.Loaded {
		return keyStyle.Render("no file")
	}

	const width = 40

	filled := int(math.Round(st.Progress * width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	state := st.State.String()
	if st.State == transport.Playing {
		state = selectedStyle.Render(state)
	}

	return fmt.Sprintf("%s %s %5.1f / %5.1f s", state, bar, st.ElapsedS, st.DurationS)
}

// meter draws gain reduction from 0 down to the session meter floor.
func meter(reductionDB float64) string {
	db := math.Max(reductionDB, session.MeterFloorDB)
	n := int(math.Round(db / session.MeterFloorDB * meterWidth))

	return meterStyle.Render(strings.Repeat("▮", n)) +
		keyStyle.Render(strings.Repeat("·", meterWidth-n)) +
		fmt.Sprintf(" %5.1f dB", db)
}
