package reporting

import (
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"scriptunit/internal/domain"
	"scriptunit/internal/script"
)

// Console streams test events as colored lines.
type Console struct {
	out        io.Writer
	showTraces bool

	test     string
	location *script.Location
	reported bool
}

// NewConsole creates a console sink writing to out (stdout when nil).
func NewConsole(out io.Writer, showTraces bool) *Console {
	if out == nil {
		out = os.Stdout
	}
	return &Console{out: out, showTraces: showTraces}
}

// FileBegin prints the script file about to run.
func (c *Console) FileBegin(path string) {
	color.New(color.FgWhite, color.Bold).Fprintf(c.out, "%s\n", path)
}

// FileEnd prints why a script file stopped early, if it did.
func (c *Console) FileEnd(result *domain.FileResult) {
	if result.Error != nil {
		color.New(color.FgMagenta).Fprintf(c.out, "  ‼ %v\n", result.Error)
	}
}

func (c *Console) SuiteBegin(name, description string) {
	if description != "" {
		color.New(color.FgCyan, color.Bold).Fprintf(c.out, "▶ %s", name)
		color.New(color.FgWhite).Fprintf(c.out, " - %s\n", description)
		return
	}
	color.New(color.FgCyan, color.Bold).Fprintf(c.out, "▶ %s\n", name)
}

func (c *Console) TestBegin(name, description string, location *script.Location) {
	c.test = name
	c.location = location
	c.reported = false
}

func (c *Console) TestFailed(message, trace string) {
	c.reported = true
	color.New(color.FgRed).Fprintf(c.out, "  ✗ %s%s: %s\n", c.test, c.where(), message)
	c.printTrace(trace)
}

func (c *Console) TestErrored(message, trace string) {
	c.reported = true
	color.New(color.FgMagenta).Fprintf(c.out, "  ‼ %s%s: %s\n", c.test, c.where(), message)
	c.printTrace(trace)
}

func (c *Console) TestIgnored(reason string) {
	c.reported = true
	if reason == "" {
		color.New(color.FgYellow).Fprintf(c.out, "  - %s (ignored)\n", c.test)
		return
	}
	color.New(color.FgYellow).Fprintf(c.out, "  - %s (ignored: %s)\n", c.test, reason)
}

func (c *Console) TestEnd() {
	if !c.reported {
		color.New(color.FgGreen).Fprintf(c.out, "  ✓ %s\n", c.test)
	}
	c.test = ""
	c.location = nil
}

func (c *Console) SuiteEnd() {}

func (c *Console) where() string {
	if c.location == nil {
		return ""
	}
	return " (" + c.location.String() + ")"
}

func (c *Console) printTrace(trace string) {
	if !c.showTraces || trace == "" {
		return
	}
	for _, line := range strings.Split(strings.TrimRight(trace, "\n"), "\n") {
		color.New(color.FgHiBlack).Fprintf(c.out, "      %s\n", line)
	}
}
