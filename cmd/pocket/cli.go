package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/hpungsan/pocket/internal/config"
	"github.com/hpungsan/pocket/internal/errors"
	"github.com/hpungsan/pocket/internal/extract"
	"github.com/hpungsan/pocket/internal/mcp"
	"github.com/hpungsan/pocket/internal/ops"
	"github.com/hpungsan/pocket/internal/recording"
	"github.com/hpungsan/pocket/internal/render"
	"github.com/hpungsan/pocket/internal/token"
)

// Listing output limits
const (
	listingLimit    = 20
	titleMaxRunes   = 45
	tokenPreviewLen = 50
)

// cliEnv carries what the commands need at run time.
type cliEnv struct {
	cfg          *config.Config
	deps         ops.Deps
	tokens       token.Store
	newExtractor func(*config.Config) (extract.Extractor, error)
}

// errSilentExit fails the command after it has printed its own message.
var errSilentExit = cli.Exit("", 1)

// newCLIApp creates the CLI application with all commands.
// env may be nil when only help or version output is needed.
func newCLIApp(env *cliEnv) *cli.App {
	app := &cli.App{
		Name:      "pocket",
		Usage:     "Read recordings, transcripts and summaries from Pocket",
		Version:   Version,
		ArgsUsage: "[days]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Print the listing as JSON"},
		},
		Action: func(c *cli.Context) error { return listAction(c, env) },
		Commands: []*cli.Command{
			extractCmd(env),
			setTokenCmd(env),
			showCmd(env),
			transcriptCmd(env),
			summaryCmd(env),
			searchCmd(env),
			mcpCmd(env),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// listAction prints recent recordings, one line each.
func listAction(c *cli.Context, env *cliEnv) error {
	days := ops.DefaultListDays
	if c.NArg() > 0 {
		n, err := strconv.Atoi(c.Args().First())
		if err != nil {
			return outputError(errors.NewInvalidRequest(fmt.Sprintf("days must be an integer, got %q", c.Args().First())))
		}
		days = n
	}

	w := c.App.Writer
	if _, ok := env.tokens.Get(); !ok {
		printNoToken(w)
		return errSilentExit
	}

	output, err := ops.List(c.Context, env.deps, ops.ListInput{
		Days:  ops.IntPtr(days),
		Limit: listingLimit,
	})
	if err != nil {
		return outputError(err)
	}

	if c.Bool("json") {
		return outputJSON(w, output)
	}

	fmt.Fprintf(w, "=== Pocket Recordings (last %d days) ===\n\n", days)
	for _, r := range output.Items {
		fmt.Fprintln(w, listingLine(r))
	}
	return nil
}

// extractCmd creates the extract command.
func extractCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:  "extract",
		Usage: "Extract the token from a logged-in browser session",
		Action: func(c *cli.Context) error {
			w := c.App.Writer
			fmt.Fprintln(w, "Extracting token from browser...")
			fmt.Fprintln(w, "(Browser will open - log in if prompted)")
			fmt.Fprintln(w)

			extractor, err := env.newExtractor(env.cfg)
			if err != nil {
				return outputError(err)
			}

			cred, err := extract.Run(c.Context, extractor, env.tokens)
			if err != nil {
				fmt.Fprintf(c.App.ErrWriter, "%v\n", err)
				fmt.Fprintln(w, "Failed to extract token.")
				return errSilentExit
			}

			fmt.Fprintf(w, "Success! Token saved (first %d chars: %s...)\n", tokenPreviewLen, preview(cred.AccessToken))
			return nil
		},
	}
}

// setTokenCmd creates the set-token command.
func setTokenCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:      "set-token",
		Usage:     "Save a bearer token copied from the web app",
		ArgsUsage: "<token>",
		Action: func(c *cli.Context) error {
			w := c.App.Writer
			tok := strings.TrimSpace(c.Args().First())
			if tok == "" {
				printSetTokenUsage(w)
				return errSilentExit
			}

			if err := env.tokens.Save(tok, nil, token.DefaultTTL); err != nil {
				return outputError(errors.NewInternal(err))
			}

			fmt.Fprintf(w, "Token saved! (first %d chars: %s...)\n", tokenPreviewLen, preview(tok))
			return nil
		},
	}
}

// showCmd creates the show command.
func showCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a recording with its summary and transcript",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Print as JSON"},
		},
		Action: func(c *cli.Context) error {
			detail, err := ops.GetFull(c.Context, env.deps, ops.DetailInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}

			w := c.App.Writer
			if c.Bool("json") {
				return outputJSON(w, detail)
			}
			printDetail(w, detail)
			return nil
		},
	}
}

// transcriptCmd creates the transcript command.
func transcriptCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:      "transcript",
		Usage:     "Print the transcript of a recording",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			text, err := ops.GetTranscript(c.Context, env.deps, ops.DetailInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}

			w := c.App.Writer
			if text == nil {
				fmt.Fprintln(w, "No transcript available.")
				return nil
			}
			fmt.Fprintln(w, *text)
			return nil
		},
	}
}

// summaryCmd creates the summary command.
func summaryCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:      "summary",
		Usage:     "Print the summary and action items of a recording",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "terminal", Usage: "Output format: terminal|markdown|html|json"},
			&cli.IntFlag{Name: "width", Usage: "Word-wrap width for terminal output (default: terminal width)"},
		},
		Action: func(c *cli.Context) error {
			format := c.String("format")
			switch format {
			case "terminal", "markdown", "html", "json":
			default:
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("unknown format %q (want terminal|markdown|html|json)", format)))
			}

			summary, err := ops.GetSummary(c.Context, env.deps, ops.DetailInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}

			w := c.App.Writer
			if format == "json" {
				return outputJSON(w, summary)
			}
			if summary == nil {
				fmt.Fprintln(w, "No summary available.")
				return nil
			}

			md := render.Markdown(summary.Summary, summary.ActionItems)
			switch format {
			case "markdown":
				fmt.Fprint(w, md)
			case "html":
				fmt.Fprint(w, render.HTML(md))
			default:
				width := c.Int("width")
				if width <= 0 {
					width = terminalWidth()
				}
				fmt.Fprint(w, render.Terminal(md, width))
			}
			return nil
		},
	}
}

// searchCmd creates the search command.
func searchCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:  "search",
		Usage: "Search recent recordings by text and/or location",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "query", Aliases: []string{"q"}, Usage: "Case-insensitive text in title, description or tags"},
			&cli.Float64Flag{Name: "lat", Usage: "Latitude of the search center"},
			&cli.Float64Flag{Name: "lon", Usage: "Longitude of the search center"},
			&cli.Float64Flag{Name: "radius", Value: ops.DefaultRadiusKm, Usage: "Search radius in km"},
			&cli.IntFlag{Name: "days", Aliases: []string{"d"}, Value: ops.DefaultSearchDays, Usage: "Look-back window in days"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultSearchLimit, Usage: "Maximum matches"},
			&cli.BoolFlag{Name: "json", Usage: "Print as JSON"},
		},
		Action: func(c *cli.Context) error {
			input := ops.SearchInput{
				Query: c.String("query"),
				Days:  ops.IntPtr(c.Int("days")),
				Limit: c.Int("limit"),
			}
			if c.IsSet("radius") {
				radius := c.Float64("radius")
				input.RadiusKm = &radius
			}
			if c.IsSet("lat") {
				lat := c.Float64("lat")
				input.Lat = &lat
			}
			if c.IsSet("lon") {
				lon := c.Float64("lon")
				input.Lon = &lon
			}

			output, err := ops.Search(c.Context, env.deps, input)
			if err != nil {
				return outputError(err)
			}

			w := c.App.Writer
			if c.Bool("json") {
				return outputJSON(w, output)
			}

			fmt.Fprintf(w, "=== %d matches (scanned %d since %s) ===\n\n", len(output.Items), output.Scanned, output.StartDate)
			for _, r := range output.Items {
				fmt.Fprintln(w, listingLine(r))
			}
			return nil
		},
	}
}

// mcpCmd creates the mcp command.
func mcpCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the Pocket tools over MCP (stdio)",
		Action: func(c *cli.Context) error {
			if err := mcp.Run(env.deps, env.cfg, Version); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// Helper functions

// listingLine formats one recording as
// "  <date> | <duration> | <status> <title> <speakers>".
func listingLine(r *recording.Recording) string {
	date := "?"
	if r.RecordedAt != nil {
		date = r.RecordedAt.Format("2006-01-02")
	}
	status := "○"
	if r.HasSummarization {
		status = "✓"
	}
	speakers := ""
	if r.NumSpeakers > 0 {
		speakers = fmt.Sprintf("(%dsp)", r.NumSpeakers)
	}
	return fmt.Sprintf("  %s | %6s | %s %s %s", date, r.DurationString(), status, truncateRunes(r.Title, titleMaxRunes), speakers)
}

// truncateRunes cuts s to at most n characters.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// terminalWidth returns the width of stdout less a margin, or
// render.DefaultWidth when stdout is not a terminal.
func terminalWidth() int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return render.DefaultWidth
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 10 {
		return render.DefaultWidth
	}
	return width - 4
}

// preview returns the first tokenPreviewLen characters of a token.
func preview(tok string) string {
	return truncateRunes(tok, tokenPreviewLen)
}

func printDetail(w io.Writer, d *ops.RecordingDetail) {
	r := d.Recording
	fmt.Fprintf(w, "=== %s ===\n", r.Title)
	if r.RecordedAt != nil {
		fmt.Fprintf(w, "Recorded: %s\n", r.RecordedAt.Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(w, "Duration: %s\n", r.DurationString())
	if r.NumSpeakers > 0 {
		fmt.Fprintf(w, "Speakers: %d\n", r.NumSpeakers)
	}
	if len(r.Tags) > 0 {
		fmt.Fprintf(w, "Tags: %s\n", strings.Join(r.Tags, ", "))
	}

	if md := render.Markdown(d.Summary, d.ActionItems); md != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "--- Summary ---")
		fmt.Fprint(w, md)
	}
	if d.Transcript != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "--- Transcript ---")
		fmt.Fprintln(w, d.Transcript)
	}
}

func printNoToken(w io.Writer) {
	fmt.Fprintln(w, "No token. Run: pocket set-token <TOKEN>")
	fmt.Fprintln(w, "  or: pocket extract")
}

func printSetTokenUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: pocket set-token <TOKEN>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "To get the token:")
	fmt.Fprintln(w, "  1. Open https://app.heypocket.com in Chrome")
	fmt.Fprintln(w, "  2. Open DevTools (Cmd+Option+I)")
	fmt.Fprintln(w, "  3. Go to Network tab, refresh the page")
	fmt.Fprintln(w, "  4. Click any request to production.heypocketai.com")
	fmt.Fprintln(w, "  5. Copy the Bearer token from Authorization header")
}

// outputJSON marshals v to w as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if pErr, ok := errors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", pErr.Code, errors.Message(err)), 1)
	}
	return cli.Exit(err.Error(), 1)
}
