package cli

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
)

var (
	helpTitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(primaryColor).MarginBottom(1)
	helpDescStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")).Italic(true)
	helpSectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFA500")).MarginTop(1)
	helpFlagStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00AA00")).Bold(true)
	helpCmdStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#00AAAA")).Bold(true)
	helpDefaultStyle = lipgloss.NewStyle().Foreground(mutedColor).Italic(true)
)

// StyledHelpPrinter renders kong help with lipgloss styling. At the top
// level it lists commands; for a selected command it lists that command's
// flags followed by the global ones.
func StyledHelpPrinter(options kong.HelpOptions) kong.HelpPrinter {
	return func(options kong.HelpOptions, ctx *kong.Context) error {
		var sb strings.Builder
		root := ctx.Model.Node
		node := ctx.Selected()

		sb.WriteString(helpTitleStyle.Render("fxcorpus"))
		sb.WriteString("\n")
		desc := root.Help
		if node != nil && node.Help != "" {
			desc = node.Help
		}
		if desc != "" {
			sb.WriteString(helpDescStyle.Render(desc))
			sb.WriteString("\n")
		}

		sb.WriteString(helpSectionStyle.Render("Usage:"))
		sb.WriteString("\n  ")
		if node != nil {
			sb.WriteString(fmt.Sprintf("%s %s [flags]", ctx.Model.Name, node.Path()))
		} else {
			sb.WriteString(fmt.Sprintf("%s <command> [flags]", ctx.Model.Name))
		}
		sb.WriteString("\n")

		if node == nil {
			if cmds := commands(root); len(cmds) > 0 {
				sb.WriteString("\n")
				sb.WriteString(helpSectionStyle.Render("Commands:"))
				sb.WriteString("\n")
				for _, c := range cmds {
					sb.WriteString("  ")
					sb.WriteString(helpCmdStyle.Render(fmt.Sprintf("%-10s", c.Name)))
					sb.WriteString("  ")
					sb.WriteString(c.Help)
					sb.WriteString("\n")
				}
			}
		} else {
			writeFlags(&sb, "Flags:", flags(node.Flags, false))
		}
		writeFlags(&sb, "Global Flags:", flags(root.Flags, true))

		sb.WriteString("\n")
		fmt.Fprint(ctx.Stdout, sb.String())
		return nil
	}
}

type flag struct {
	flags      string
	help       string
	defaultVal string
}

func commands(n *kong.Node) []*kong.Node {
	var out []*kong.Node
	for _, c := range n.Children {
		if c.Type == kong.CommandNode && !c.Hidden {
			out = append(out, c)
		}
	}
	return out
}

func flags(fs []*kong.Flag, withHelp bool) []flag {
	var out []flag
	if withHelp {
		out = append(out, flag{flags: "-h, --help", help: "Show context-sensitive help."})
	}
	for _, f := range fs {
		if f.Name == "help" || f.Hidden {
			continue
		}
		flagStr := ""
		if f.Short != 0 {
			flagStr = fmt.Sprintf("-%c, --%s", f.Short, f.Name)
		} else {
			flagStr = fmt.Sprintf("--%s", f.Name)
		}
		if !f.IsBool() && f.PlaceHolder != "" {
			flagStr += "=" + strings.ToUpper(f.PlaceHolder)
		}
		out = append(out, flag{
			flags:      flagStr,
			help:       f.Help,
			defaultVal: f.Default,
		})
	}
	return out
}

func writeFlags(sb *strings.Builder, title string, fs []flag) {
	if len(fs) == 0 {
		return
	}
	sb.WriteString("\n")
	sb.WriteString(helpSectionStyle.Render(title))
	sb.WriteString("\n")
	for _, f := range fs {
		sb.WriteString("  ")
		sb.WriteString(helpFlagStyle.Render(f.flags))
		if f.help != "" {
			sb.WriteString("  ")
			sb.WriteString(f.help)
		}
		if f.defaultVal != "" {
			sb.WriteString(" ")
			sb.WriteString(helpDefaultStyle.Render("(default: " + f.defaultVal + ")"))
		}
		sb.WriteString("\n")
	}
}
