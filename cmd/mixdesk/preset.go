package main

import (
	"fmt"
	"os"

	"github.com/cwbudde/mixdesk/mix"
)

// PresetCmd groups the preset commands.
type PresetCmd struct {
	Init PresetInitCmd `cmd:"" help:"Write a preset with the default mix."`
	Show PresetShowCmd `cmd:"" help:"Validate a preset and list how it differs from the defaults."`
}

// PresetInitCmd writes a preset file.
type PresetInitCmd struct {
	Path  string   `arg:"" type:"path" help:"Preset file to create."`
	Set   []string `short:"s" placeholder:"KEY=VALUE" help:"Change applied to the defaults before writing."`
	Force bool     `short:"f" help:"Overwrite an existing file."`
}

// Run implements the command.
func (c *PresetInitCmd) Run(g *Globals) (err error) {
	s, err := MixFlags{Set: c.Set}.Settings()
	if err != nil {
		return err
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !c.Force {
		flags |= os.O_EXCL
	}

	f, err := os.OpenFile(c.Path, flags, 0o644)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if err := mix.EncodePreset(f, s); err != nil {
		return err
	}

	fmt.Fprintln(g.stdout, keyValue("Wrote", c.Path))

	return nil
}

// PresetShowCmd prints a preset as changes against the defaults.
type PresetShowCmd struct {
	Path string `arg:"" type:"existingfile" help:"Preset file."`
}

// Run implements the command.
func (c *PresetShowCmd) Run(g *Globals) error {
	s, err := mix.LoadPreset(c.Path)
	if err != nil {
		return err
	}

	changes := mix.Defaults().Diff(s)
	if len(changes) == 0 {
		fmt.Fprintln(g.stdout, keyStyle.Render("(defaults)"))
		return nil
	}

	for _, ch := range changes {
		fmt.Fprintln(g.stdout, ch.String())
	}

	return nil
}
