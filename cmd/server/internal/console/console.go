// Package console is the line-oriented terminal command surface. It only
// calls the engine's public operations and prints results; no simulation or
// storage logic lives here.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/RickyOwings/rogue-stock/pkg/models"
)

// maxHistoryLines bounds how many recent price points a history listing
// shows.
const maxHistoryLines = 20

// Engine is the slice of the engine façade the console needs.
type Engine interface {
	Initialized() bool
	AddStock(ctx context.Context, name string, shareValue, volatility float64) error
	StockExists(ctx context.Context, name string) (bool, error)
	ListStocks(ctx context.Context) ([]models.Stock, error)
	PriceHistory(ctx context.Context, name string, maxPoints int) ([]models.PricePoint, error)
	UpdateStock(ctx context.Context, name string, upd models.StockUpdate) error
}

var (
	styleErr = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	styleOK  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

// Options carry the wiring the console cannot derive itself.
type Options struct {
	Prompt string
	Addr   string // full server address shown by the ip command

	// Level, when set, is toggled between Info and Debug by the log
	// command to enable or silence request logging.
	Level *zap.AtomicLevel
}

type Console struct {
	engine Engine
	logger *zap.Logger
	in     *bufio.Scanner
	out    io.Writer
	opts   Options
}

func New(engine Engine, logger *zap.Logger, in io.Reader, out io.Writer, opts Options) *Console {
	return &Console{
		engine: engine,
		logger: logger,
		in:     bufio.NewScanner(in),
		out:    out,
		opts:   opts,
	}
}

// Run prompts and dispatches commands until the input ends, the quit
// command runs, or ctx is cancelled.
func (c *Console) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		fmt.Fprintln(c.out, c.opts.Prompt)
		line, ok := c.readLine()
		if !ok {
			return
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "q", "quit":
			fmt.Fprintln(c.out, "Quitting Server")
			return
		case "c", "cls", "clear":
			fmt.Fprint(c.out, "\x1b[2J\x1b[H")
		case "h", "help":
			c.printHelp()
		case "l", "log":
			c.toggleLogs()
		case "ip":
			fmt.Fprintln(c.out, "SERVER IP ADDRESS: "+styleOK.Render(c.opts.Addr))
		case "addstock":
			c.addStock(ctx)
		case "logstocks":
			c.logStocks(ctx)
		case "logsharevalues":
			c.logShareValues(ctx)
		case "updatestock":
			c.updateStock(ctx)
		default:
			// unknown input just re-prompts
		}
	}
}

var commandNames = []string{
	"q", "quit", "clear", "cls", "c", "h", "help", "l", "log", "ip",
	"addstock", "logstocks", "updatestock", "logsharevalues",
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.out, "----Commands-----")
	names := append([]string(nil), commandNames...)
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintln(c.out, name)
	}
	fmt.Fprintln(c.out, "-----------------")
}

func (c *Console) toggleLogs() {
	if c.opts.Level == nil {
		fmt.Fprintln(c.out, styleErr.Render("Logging is not wired up"))
		return
	}
	if c.opts.Level.Level() == zap.DebugLevel {
		c.opts.Level.SetLevel(zap.InfoLevel)
		fmt.Fprintln(c.out, "Logs are disabled")
	} else {
		c.opts.Level.SetLevel(zap.DebugLevel)
		fmt.Fprintln(c.out, "Logs are enabled")
	}
}

func (c *Console) addStock(ctx context.Context) {
	if !c.engine.Initialized() {
		fmt.Fprintln(c.out, "Database doesn't exist! Can't add stocks!")
		return
	}

	name, ok := c.readString("Stock name: ", func(answer string) string {
		exists, err := c.engine.StockExists(ctx, answer)
		if err != nil {
			return err.Error()
		}
		if exists {
			return "Stock already exists!"
		}
		return ""
	})
	if !ok {
		return
	}

	shareValue, ok := c.readNumber("Share value [float]: ", func(value float64) string {
		if value < 0 {
			return "Share value can't be negative"
		}
		return ""
	})
	if !ok {
		return
	}

	volatility, ok := c.readNumber("Volatility [float]: ", func(value float64) string {
		if value < 0 {
			return "Volatility can't be negative"
		}
		return ""
	})
	if !ok {
		return
	}

	if err := c.engine.AddStock(ctx, name, shareValue, volatility); err != nil {
		fmt.Fprintln(c.out, styleErr.Render(err.Error()))
	}
}

func (c *Console) logStocks(ctx context.Context) {
	stocks, err := c.engine.ListStocks(ctx)
	if err != nil {
		fmt.Fprintln(c.out, styleErr.Render(err.Error()))
		return
	}
	for _, s := range stocks {
		fmt.Fprintf(c.out, "%d\t%s\tvolatility=%g\n", s.Key, s.Name, s.Volatility)
	}
}

func (c *Console) logShareValues(ctx context.Context) {
	name, ok := c.readStockName(ctx)
	if !ok {
		return
	}
	values, err := c.engine.PriceHistory(ctx, name, maxHistoryLines)
	if err != nil {
		fmt.Fprintln(c.out, styleErr.Render(err.Error()))
		return
	}
	for _, p := range values {
		fmt.Fprintf(c.out, "%d\t%g\n", p.Key, p.Value)
	}
}

func (c *Console) updateStock(ctx context.Context) {
	name, ok := c.readStockName(ctx)
	if !ok {
		return
	}

	var upd models.StockUpdate
	numberOrNull := func(answer string) string {
		if answer == "null" {
			return ""
		}
		if _, err := strconv.ParseFloat(answer, 64); err != nil {
			return "Not number or null"
		}
		return ""
	}

	rawValue, ok := c.readString("Share value [number | null]: ", numberOrNull)
	if !ok {
		return
	}
	rawVolatility, ok := c.readString("Volatility value [number | null]: ", numberOrNull)
	if !ok {
		return
	}

	if rawValue != "null" {
		v, _ := strconv.ParseFloat(rawValue, 64)
		upd.ShareValue = &v
	}
	if rawVolatility != "null" {
		v, _ := strconv.ParseFloat(rawVolatility, 64)
		upd.Volatility = &v
	}

	if err := c.engine.UpdateStock(ctx, name, upd); err != nil {
		fmt.Fprintln(c.out, styleErr.Render(err.Error()))
	}
}

// readStockName prompts for a registered stock, listing the valid names on
// a miss. It gives up when the registry itself is unreadable.
func (c *Console) readStockName(ctx context.Context) (string, bool) {
	gaveUp := false
	name, ok := c.readString("Stock name: ", func(answer string) string {
		exists, err := c.engine.StockExists(ctx, answer)
		if err != nil {
			gaveUp = true
			return ""
		}
		if exists {
			return ""
		}
		stocks, err := c.engine.ListStocks(ctx)
		if err != nil || len(stocks) == 0 {
			gaveUp = true
			return ""
		}
		var b strings.Builder
		b.WriteString("Not a valid stock:\n")
		for _, s := range stocks {
			b.WriteString("\t" + s.Name + "\n")
		}
		return b.String()
	})
	if gaveUp {
		return "", false
	}
	return name, ok
}

// readString re-prompts until the answer is non-empty and check returns no
// message. The second return is false once input is exhausted.
func (c *Console) readString(prompt string, check func(string) string) (string, bool) {
	for {
		fmt.Fprint(c.out, prompt)
		answer, ok := c.readLine()
		if !ok {
			return "", false
		}
		answer = strings.TrimSpace(answer)
		if answer == "" {
			fmt.Fprintln(c.out, styleErr.Render("INVALID"))
			continue
		}
		if msg := check(answer); msg != "" {
			fmt.Fprintln(c.out, styleErr.Render(msg))
			continue
		}
		return answer, true
	}
}

// readNumber re-prompts until the answer parses as a float and check
// returns no message.
func (c *Console) readNumber(prompt string, check func(float64) string) (float64, bool) {
	for {
		fmt.Fprint(c.out, prompt)
		answer, ok := c.readLine()
		if !ok {
			return 0, false
		}
		number, err := strconv.ParseFloat(strings.TrimSpace(answer), 64)
		if err != nil {
			fmt.Fprintln(c.out, styleErr.Render("INVALID"))
			continue
		}
		if msg := check(number); msg != "" {
			fmt.Fprintln(c.out, styleErr.Render(msg))
			continue
		}
		return number, true
	}
}

func (c *Console) readLine() (string, bool) {
	if !c.in.Scan() {
		return "", false
	}
	return c.in.Text(), true
}
