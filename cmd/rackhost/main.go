// Command rackhost builds a chain of built-in effects and runs audio
// through it.
//
// Usage:
//
//	rackhost [flags]
//
// Without -offline or -jack, a test tone is played through the default
// audio device.
//
// Examples:
//
//	rackhost -list
//	rackhost -chain gain,lowpass,analyzer -set lowpass.cutoff_hz=800 -offline
//	rackhost -chain delay -set delay.feedback=0.6 -seconds 5
//	rackhost -jack -chain send,return
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/cwbudde/algo-rack/rack"
	"github.com/cwbudde/algo-rack/rack/builtin"
	"github.com/cwbudde/algo-rack/rack/control"
	"github.com/cwbudde/algo-rack/rack/descriptor"
)

// setting is one -set label.control=value assignment.
type setting struct {
	label, control string
	value          float64
}

type settings []setting

func (s *settings) String() string {
	parts := make([]string, len(*s))
	for i, v := range *s {
		parts[i] = fmt.Sprintf("%s.%s=%g", v.label, v.control, v.value)
	}

	return strings.Join(parts, ",")
}

func (s *settings) Set(arg string) error {
	v, err := parseSetting(arg)
	if err != nil {
		return err
	}

	*s = append(*s, v)

	return nil
}

func parseSetting(arg string) (setting, error) {
	key, raw, ok := strings.Cut(arg, "=")
	if !ok {
		return setting{}, fmt.Errorf("want label.control=value, got %q", arg)
	}

	label, ctl, ok := strings.Cut(key, ".")
	if !ok || label == "" || ctl == "" {
		return setting{}, fmt.Errorf("want label.control=value, got %q", arg)
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return setting{}, fmt.Errorf("value of %s: %w", key, err)
	}

	return setting{label: label, control: ctl, value: v}, nil
}

func parseChain(arg string) []string {
	var labels []string
	for _, f := range strings.Split(arg, ",") {
		if f = strings.TrimSpace(f); f != "" {
			labels = append(labels, f)
		}
	}

	return labels
}

type options struct {
	rate     int
	channels int
	buffer   int
	seconds  float64
	chain    []string
	sets     settings
	wetDry   float64
	offline  bool
	jack     bool
}

func main() {
	var opts options

	chain := flag.String("chain", "gain,lowpass,analyzer", "comma-separated plugin labels in processing order")
	flag.IntVar(&opts.rate, "rate", 48000, "sample rate in Hz")
	flag.IntVar(&opts.channels, "channels", 2, "host channel count")
	flag.IntVar(&opts.buffer, "buffer", 512, "frames per processing cycle")
	flag.Float64Var(&opts.seconds, "seconds", 2, "duration to run")
	flag.Var(&opts.sets, "set", "control assignment label.control=value (repeatable)")
	flag.Float64Var(&opts.wetDry, "wetdry", -1, "wet/dry value applied to every entry (0 dry, 1 wet; <0 disables the blend)")
	flag.BoolVar(&opts.offline, "offline", false, "render without an audio device and print a report")
	flag.BoolVar(&opts.jack, "jack", false, "run as a JACK client instead of playing a test tone")
	list := flag.Bool("list", false, "list built-in plugins and their controls")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: rackhost [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Runs audio through a chain of built-in effects.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	reg := builtin.Registry()

	if *list {
		printList(os.Stdout, reg)
		return
	}

	opts.chain = parseChain(*chain)

	if err := run(opts, reg, logger); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options, reg *descriptor.Registry, logger *slog.Logger) error {
	if opts.jack {
		return runJack(opts, reg, logger)
	}

	r, err := rack.New(
		rack.WithChannels(opts.channels),
		rack.WithSampleRate(float64(opts.rate)),
		rack.WithBufferSize(opts.buffer),
		rack.WithLoader(builtin.Loader{}),
		rack.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	defer closeLogged(logger, "rack", r.Close)

	d := control.New(r, reg)
	d.Start()
	defer d.Close()

	ids, err := buildChain(d, opts)
	if err != nil {
		return err
	}

	src := newRenderer(r, 440)

	if opts.offline {
		rep := src.render(opts.seconds)
		return printReport(os.Stdout, d, reg, ids, rep)
	}

	return play(src, opts.seconds)
}

// buildChain adds opts.chain through d and applies the -set and -wetdry
// assignments. Settings for labels occurring more than once apply to all
// of them.
func buildChain(d *control.Dispatcher, opts options) ([]control.Entry, error) {
	byLabel := map[string][]control.Entry{}

	for _, label := range opts.chain {
		id, err := d.Add(label)
		if err != nil {
			return nil, err
		}

		byLabel[label] = append(byLabel[label], control.Entry{ID: id, Label: label})
	}

	for _, s := range opts.sets {
		entries, ok := byLabel[s.label]
		if !ok {
			return nil, fmt.Errorf("-set %s.%s: %q is not in the chain", s.label, s.control, s.label)
		}

		for _, e := range entries {
			if err := d.SetControl(e.ID, s.control, s.value); err != nil {
				return nil, err
			}
		}
	}

	if opts.wetDry >= 0 {
		for _, entries := range byLabel {
			for _, e := range entries {
				if err := errors.Join(
					d.SetWetDryEnabled(e.ID, true),
					d.SetWetDry(e.ID, opts.wetDry),
				); err != nil {
					return nil, err
				}
			}
		}
	}

	return d.Entries()
}

func printList(w io.Writer, reg *descriptor.Registry) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LABEL\tNAME\tCHANNELS\tAUX\tCONTROLS\tSTATUS")

	for _, label := range reg.Labels() {
		d := reg.LookupLabel(label)

		aux := "-"
		if d.AuxChannels > 0 {
			aux = fmt.Sprintf("%d %s", d.AuxChannels, d.AuxDirection)
		}

		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n", label, d.Name, d.Channels, aux,
			portList(d, d.ControlPorts, true), portList(d, d.StatusPorts, false))
	}

	_ = tw.Flush()
}

func portList(d *descriptor.Descriptor, ports []int, withDefault bool) string {
	if len(ports) == 0 {
		return "-"
	}

	names := make([]string, len(ports))
	for i, port := range ports {
		names[i] = d.PortName(port)
		if withDefault {
			names[i] += "=" + strconv.FormatFloat(d.DefaultValue(port, 48000), 'g', 4, 64)
		}
	}

	sort.Strings(names)

	return strings.Join(names, " ")
}

// closeLogged runs closeFn and logs a failure; for deferred teardown where
// the error cannot be returned.
func closeLogged(logger *slog.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logger.Warn("rackhost: closing "+what, "err", err)
	}
}
