package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
)

var (
	accentColor = lipgloss.Color("#D97706")
	mutedColor  = lipgloss.Color("#888888")
	textColor   = lipgloss.Color("#FFFFFF")
	warnColor   = lipgloss.Color("#DC2626")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(warnColor)

	keyStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	valueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(textColor)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor).
			MarginTop(1)

	flagStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#16A34A")).
			Bold(true)
)

func printError(err error) {
	fmt.Fprintf(os.Stderr, "%s %v\n", errorStyle.Render("Error:"), err)
}

func keyValue(key, value string) string {
	return keyStyle.Render(key+":") + " " + valueStyle.Render(value)
}

// styledHelp prints the command summary with the CLI colours.
func styledHelp(options kong.HelpOptions, ctx *kong.Context) error {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("mixdesk " + version))
	sb.WriteString("\n")
	sb.WriteString(keyStyle.Render(ctx.Model.Help))
	sb.WriteString("\n")

	node := ctx.Selected()
	if node == nil {
		node = ctx.Model.Node
	}

	sb.WriteString(sectionStyle.Render("Usage:"))
	sb.WriteString("\n  " + node.Summary() + "\n")

	if cmds := node.Leaves(true); len(cmds) > 0 && node == ctx.Model.Node {
		sb.WriteString(sectionStyle.Render("Commands:"))
		sb.WriteString("\n")

		for _, c := range cmds {
			sb.WriteString("  " + flagStyle.Render(c.Path()) + "  " + c.Help + "\n")
		}
	}

	if len(node.Positional) > 0 {
		sb.WriteString(sectionStyle.Render("Arguments:"))
		sb.WriteString("\n")

		for _, arg := range node.Positional {
			sb.WriteString("  " + flagStyle.Render(arg.Summary()) + "  " + arg.Help + "\n")
		}
	}

	sb.WriteString(sectionStyle.Render("Flags:"))
	sb.WriteString("\n")

	for _, group := range node.AllFlags(true) {
		for _, f := range group {
			name := "--" + f.Name
			if f.Short != 0 {
				name = fmt.Sprintf("-%c, %s", f.Short, name)
			}

			line := "  " + flagStyle.Render(name) + "  " + f.Help
			if f.HasDefault {
				line += " " + keyStyle.Render("(default: "+f.Default+")")
			}

			sb.WriteString(line + "\n")
		}
	}

	fmt.Fprint(ctx.Stdout, sb.String())

	return nil
}
