// Package console implements the interactive menu over the model
// catalog, the metrics tracker, and the runtime configuration.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"modelhub-monitor/internal/config"
	"modelhub-monitor/internal/logging"
	"modelhub-monitor/internal/monitoring"
	"modelhub-monitor/internal/registry"
)

// menuOption pairs a menu key and label with its handler. Handlers
// share the loop's scanner so buffered input is never lost between
// prompts, and return false to leave the menu.
type menuOption struct {
	key     string
	label   string
	handler func(*bufio.Scanner) (bool, error)
}

// Console drives the interactive menu.
type Console struct {
	catalog   *registry.Registry
	collector *monitoring.Collector
	tracker   *monitoring.Tracker
	cfg       *config.Config
	logger    logging.Logger

	input  io.Reader
	output io.Writer

	promptColor  *color.Color
	successColor *color.Color
	errorColor   *color.Color
	infoColor    *color.Color

	options []menuOption
}

// New creates a console bound to stdin/stdout.
func New(catalog *registry.Registry, collector *monitoring.Collector, tracker *monitoring.Tracker, cfg *config.Config, logger logging.Logger) *Console {
	if logger == nil {
		logger = logging.WithComponent("console")
	}

	c := &Console{
		catalog:      catalog,
		collector:    collector,
		tracker:      tracker,
		cfg:          cfg,
		logger:       logger,
		input:        os.Stdin,
		output:       os.Stdout,
		promptColor:  color.New(color.FgCyan, color.Bold),
		successColor: color.New(color.FgGreen),
		errorColor:   color.New(color.FgRed),
		infoColor:    color.New(color.FgYellow),
	}

	c.options = []menuOption{
		{"1", "View Models", c.viewModels},
		{"2", "Add Model", c.addModel},
		{"3", "Remove Model", c.removeModel},
		{"4", "Generate Report", c.generateReport},
		{"5", "View Performance", c.viewPerformance},
		{"6", "Settings", c.settings},
		{"0", "Exit", c.exit},
	}
	return c
}

// Run loops over the menu until the user exits, input ends, or the
// context is cancelled.
func (c *Console) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(c.input)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		c.printMenu()

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("reading input: %w", err)
			}
			return nil
		}

		choice := strings.TrimSpace(scanner.Text())
		if choice == "" {
			continue
		}

		cont, err := c.dispatch(scanner, choice)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			c.printError(fmt.Sprintf("Error: %v", err))
		}
		if !cont {
			return nil
		}
	}
}

func (c *Console) dispatch(scanner *bufio.Scanner, choice string) (bool, error) {
	for _, opt := range c.options {
		if opt.key == choice {
			c.logger.Debug("menu option selected", "option", opt.label)
			return opt.handler(scanner)
		}
	}
	fmt.Fprintln(c.output, "Invalid option. Please try again.")
	return true, nil
}

func (c *Console) viewModels(scanner *bufio.Scanner) (bool, error) {
	c.printHeader("Model List")
	if err := RenderModelTable(c.output, c.catalog.All(), c.tracker); err != nil {
		return true, err
	}
	return true, c.pause(scanner)
}

func (c *Console) addModel(scanner *bufio.Scanner) (bool, error) {
	c.printHeader("Add New Model")

	name, err := c.promptLine(scanner, "Model name: ")
	if err != nil {
		return true, err
	}
	if name == "" {
		return true, fmt.Errorf("model name is required")
	}

	taskType, err := c.promptLine(scanner, "Task type: ")
	if err != nil {
		return true, err
	}
	library, err := c.promptLine(scanner, "Library: ")
	if err != nil {
		return true, err
	}

	model := registry.NewModel(name, taskType, library)

	sizeStr, err := c.promptLine(scanner, "Size in MB (optional): ")
	if err != nil {
		return true, err
	}
	if sizeStr != "" {
		size, parseErr := strconv.ParseFloat(sizeStr, 64)
		if parseErr != nil {
			return true, fmt.Errorf("invalid size: %s", sizeStr)
		}
		model.SizeMB = &size
	}

	if err := c.catalog.Add(model); err != nil {
		return true, err
	}

	c.printSuccess(fmt.Sprintf("Added model: %s", model.Name))
	return true, c.pause(scanner)
}

func (c *Console) removeModel(scanner *bufio.Scanner) (bool, error) {
	c.printHeader("Remove Model")

	name, err := c.promptLine(scanner, "Model name: ")
	if err != nil {
		return true, err
	}
	if name == "" {
		return true, fmt.Errorf("model name is required")
	}

	if err := c.catalog.Remove(strings.ToLower(name)); err != nil {
		return true, err
	}

	c.printSuccess(fmt.Sprintf("Removed model: %s", name))
	return true, c.pause(scanner)
}

func (c *Console) generateReport(scanner *bufio.Scanner) (bool, error) {
	c.printHeader("Generate Report")

	if len(c.tracker.Models()) == 0 {
		c.printInfo("No samples yet, collecting one round first...")
		c.collectAll()
	}

	fmt.Fprintln(c.output, monitoring.GenerateReport(c.tracker, c.tracker.Models()))
	return true, c.pause(scanner)
}

func (c *Console) viewPerformance(scanner *bufio.Scanner) (bool, error) {
	c.printHeader("Performance Metrics")

	results := c.collectAll()

	summaries := make([]*monitoring.Summary, 0, len(results))
	for _, name := range c.tracker.Models() {
		summary, err := c.tracker.Summary(name)
		if err != nil {
			continue
		}
		summaries = append(summaries, summary)
	}

	if err := renderSummaryTable(c.output, summaries); err != nil {
		return true, err
	}

	alerts := 0
	for i := range results {
		alerts += len(results[i].Alerts)
	}
	if alerts > 0 {
		c.printError(fmt.Sprintf("\n%d alert(s) raised during this collection pass", alerts))
	}

	return true, c.pause(scanner)
}

func (c *Console) settings(scanner *bufio.Scanner) (bool, error) {
	c.printHeader("Settings")

	if err := renderSettingsTable(c.output, c.cfg); err != nil {
		return true, err
	}

	input, err := c.promptLine(scanner, "\nUpdate a setting (path=value, blank to skip): ")
	if err != nil {
		return true, err
	}
	if input == "" {
		return true, c.pause(scanner)
	}

	update, err := settingUpdate(input)
	if err != nil {
		return true, err
	}
	if err := c.cfg.Apply(update); err != nil {
		return true, err
	}

	// Threshold changes take effect on the live tracker immediately.
	c.tracker.SetThresholds(c.cfg.Monitor.Thresholds)

	c.printSuccess("Settings updated")
	return true, c.pause(scanner)
}

func (c *Console) exit(*bufio.Scanner) (bool, error) {
	fmt.Fprintln(c.output, "\nThank you for using Model Hub Monitor!")
	return false, nil
}

// collectAll runs one collection pass over the catalog and returns the
// tracking results in catalog order.
func (c *Console) collectAll() []monitoring.TrackingResult {
	models := c.catalog.All()
	results := make([]monitoring.TrackingResult, 0, len(models))
	for _, m := range models {
		sample := c.collector.Collect(m)
		results = append(results, c.tracker.Track(m.Name, sample))
	}
	return results
}

// settingUpdate turns a dotted path assignment like
// "monitor.interval_seconds=60" into the nested map config.Apply takes.
func settingUpdate(input string) (map[string]interface{}, error) {
	path, value, ok := strings.Cut(input, "=")
	if !ok {
		return nil, fmt.Errorf("expected path=value, got %q", input)
	}
	path = strings.TrimSpace(path)
	value = strings.TrimSpace(value)

	keys := strings.Split(path, ".")
	if len(keys) < 2 {
		return nil, fmt.Errorf("setting path must name a section, like monitor.interval_seconds")
	}
	for _, k := range keys {
		if k == "" {
			return nil, fmt.Errorf("invalid setting path: %s", path)
		}
	}

	update := map[string]interface{}{}
	cur := update
	for i, k := range keys {
		if i == len(keys)-1 {
			cur[k] = value
			break
		}
		next := map[string]interface{}{}
		cur[k] = next
		cur = next
	}
	return update, nil
}

func (c *Console) printMenu() {
	fmt.Fprintln(c.output)
	fmt.Fprintln(c.output, strings.Repeat("=", 50))
	c.promptColor.Fprintln(c.output, "    MODEL HUB MONITOR")
	fmt.Fprintln(c.output, strings.Repeat("=", 50))

	for _, opt := range c.options {
		fmt.Fprintf(c.output, "%s. %s\n", opt.key, opt.label)
	}

	fmt.Fprintln(c.output, "\nSelect an option (0 to exit):")
}

func (c *Console) promptLine(scanner *bufio.Scanner, label string) (string, error) {
	c.promptColor.Fprint(c.output, label)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return "", io.EOF
	}
	return strings.TrimSpace(scanner.Text()), nil
}

func (c *Console) pause(scanner *bufio.Scanner) error {
	fmt.Fprint(c.output, "\nPress Enter to continue...")
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		return io.EOF
	}
	return nil
}

func (c *Console) printHeader(title string) {
	c.infoColor.Fprintf(c.output, "\n--- %s ---\n", title)
}

func (c *Console) printSuccess(message string) {
	c.successColor.Fprintln(c.output, message)
}

func (c *Console) printError(message string) {
	c.errorColor.Fprintln(c.output, message)
}

func (c *Console) printInfo(message string) {
	c.infoColor.Fprintln(c.output, message)
}
