package main

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"text/tabwriter"

	"github.com/alfredjeanlab/kplan/internal/ui"
	"github.com/spf13/cobra"
)

// envHelp lists the variables kp reads, shown under the root command's help.
var envHelp = [][2]string{
	{"KPLAN_HTTP_URL", "HTTP base URL (default http://localhost:8080)"},
	{"KPLAN_SERVER", "gRPC address (default localhost:9090)"},
	{"KPLAN_AUTH_TOKEN", "bearer token sent to the server"},
	{"KPLAN_ACTOR", "actor recorded on mutations (default git user.name)"},
	{"KPLAN_REMOTE", "remote profile to use instead of the active one"},
	{"KPLAN_NATS_URL", "NATS URL followed by kp watch"},
	{"KPLAN_REDIS_URL", "Redis URL followed by kp watch"},
}

// helpRule styles one kind of token in cobra's usage text.
type helpRule struct {
	re     *regexp.Regexp
	render func(parts []string) string
}

var helpRules = []helpRule{
	// Section headers: an unindented line ending with ":".
	{regexp.MustCompile(`(?m)^([A-Z][^\n]*:)[ \t]*$`), func(p []string) string {
		return ui.RenderAccent(p[1])
	}},
	// Command names: two-space indent, a word, then two or more spaces.
	{regexp.MustCompile(`(?m)^(  )([a-z][\w-]*)(  +)`), func(p []string) string {
		return p[1] + ui.RenderCommand(p[2]) + p[3]
	}},
	// Flag value types such as "--hours float".
	{regexp.MustCompile(`(--?[\w-]+\s+)(string|int|float|duration|strings|bool)\b`), func(p []string) string {
		return p[1] + ui.RenderMuted(p[2])
	}},
	// Defaults and environment variable names.
	{regexp.MustCompile(`(\(default "?[^)"]*"?\)|\bKPLAN_[A-Z_]+)`), func(p []string) string {
		return ui.RenderMuted(p[1])
	}},
}

// colorizedHelpFunc renders usage, plus the environment section for the
// root command, and styles it when stdout supports color.
func colorizedHelpFunc() func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		var buf bytes.Buffer
		orig := cmd.OutOrStdout()
		cmd.SetOut(&buf)
		_ = cmd.Usage()
		cmd.SetOut(orig)
		if !cmd.HasParent() {
			writeEnvHelp(&buf)
		}

		out := buf.String()
		if ui.ShouldUseColor() {
			out = colorizeHelpOutput(out)
		}
		fmt.Fprint(orig, out)
	}
}

func writeEnvHelp(w io.Writer) {
	fmt.Fprintln(w, "\nEnvironment:")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, kv := range envHelp {
		fmt.Fprintf(tw, "  %s\t%s\n", kv[0], kv[1])
	}
	_ = tw.Flush()
}

func colorizeHelpOutput(s string) string {
	for _, rule := range helpRules {
		s = rule.re.ReplaceAllStringFunc(s, func(match string) string {
			return rule.render(rule.re.FindStringSubmatch(match))
		})
	}
	return s
}
