// Command ctlmapper is the CLI entry point: it loads a config script, and
// either checks it, dumps its pipeline graph, runs it as the live mapper
// against a real controller, fuzzes it, manages its persisted knobs, or
// hosts the overlay window a `load` process talks to over D-Bus.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"fyne.io/systray"
	"github.com/kr/text"

	"ctlmapper/internal/config"
	"ctlmapper/internal/diag"
	"ctlmapper/internal/hostio"
	"ctlmapper/internal/hostio/sdlio"
	"ctlmapper/internal/knobsfile"
	"ctlmapper/internal/layermask"
	"ctlmapper/internal/mapper"
	"ctlmapper/internal/overlay"
	"ctlmapper/internal/overlay/dbusipc"
	"ctlmapper/internal/overlay/fyneui"
	"ctlmapper/internal/profiles"
	"ctlmapper/internal/stage"
)

func main() {
	if len(os.Args) < 2 {
		printTopUsage()
		os.Exit(1)
	}

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "check":
		cmdCheck(args)
	case "dot":
		cmdDot(args)
	case "knobs":
		cmdKnobs(args)
	case "list":
		cmdList(args)
	case "test":
		cmdTest(args)
	case "overlay":
		cmdOverlay(args)
	case "load":
		cmdLoad(args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command %q\n", cmd)
		printTopUsage()
		os.Exit(1)
	}
}

func printTopUsage() {
	fmt.Println("Usage: ctlmapper <command> [flags]")
	fmt.Println("  check   <config>          parse and type-check a config script")
	fmt.Println("  dot     <config>          dump the pipeline graph as Graphviz DOT")
	fmt.Println("  knobs   <config>          list a config's persisted knob values")
	fmt.Println("  list    -controllers      enumerate attached controllers")
	fmt.Println("  test    <config>          fuzz a config against random snapshots")
	fmt.Println("  overlay -title <name>     host the overlay window (D-Bus service)")
	fmt.Println("  load    <config>          run the live mapper against a controller")
}

// loadConfig reads and fully evaluates a config script, returning the
// allocator its pipelines' stage IDs were minted from (mapper.New needs the
// same allocator so probe/shape registration lines up).
func loadConfig(path string, knobValues map[string]config.Value) (config.Config, *stage.Allocator, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("reading %s: %w", path, err)
	}

	tokens, err := config.NewLexer(string(src)).Tokenize()
	if err != nil {
		return config.Config{}, nil, err
	}

	prog, err := config.NewParser(tokens).Parse()
	if err != nil {
		return config.Config{}, nil, err
	}

	alloc := stage.NewAllocator()
	ctx := config.NewContext(knobValues)
	config.RegisterDefaults(ctx, alloc)

	result, err := config.EvalConfig(prog, ctx)
	if err != nil {
		return config.Config{}, nil, err
	}

	cfg, err := config.BuildConfig(result, ctx)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, alloc, nil
}

// printConfigError reports a config compile failure, wrapping long
// diagnostic messages (a script's name-resolution errors can get verbose
// once they start listing candidates) to a terminal-friendly width.
func printConfigError(err error) {
	fmt.Fprintln(os.Stderr, text.Wrap(fmt.Sprintf("Error: %v", err), 100))
}

func cmdCheck(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	fs.Parse(args)
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: ctlmapper check <config>")
		os.Exit(1)
	}

	cfg, _, err := loadConfig(fs.Arg(0), map[string]config.Value{})
	if err != nil {
		printConfigError(err)
		os.Exit(1)
	}

	fmt.Printf("ok: %d layer(s), %d pipeline(s), %d knob(s)\n", len(cfg.Layers), len(cfg.Pipelines), len(cfg.Knobs))
}

func cmdDot(args []string) {
	fs := flag.NewFlagSet("dot", flag.ExitOnError)
	out := fs.String("out", "", "write DOT to this path instead of stdout")
	fs.Parse(args)
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: ctlmapper dot [-out file.dot] <config>")
		os.Exit(1)
	}

	cfg, _, err := loadConfig(fs.Arg(0), map[string]config.Value{})
	if err != nil {
		printConfigError(err)
		os.Exit(1)
	}

	groups := make([]stage.Group, 0, len(cfg.Pipelines))
	for i, binding := range cfg.Pipelines {
		label := binding.Mask.String()
		if binding.Mask == layermask.All {
			label = "(always)"
		}
		groups = append(groups, stage.Group{Label: fmt.Sprintf("%d: %s", i, label), Roots: []stage.Node{binding.Pipeline}})
	}
	dot := stage.RenderDOT(groups)

	if *out == "" {
		fmt.Print(dot)
		return
	}
	if err := os.WriteFile(*out, []byte(dot), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", *out, err)
		os.Exit(1)
	}
}

func cmdKnobs(args []string) {
	fs := flag.NewFlagSet("knobs", flag.ExitOnError)
	knobsPath := fs.String("knobs", "knobs.json", "path to the persisted knobs file")
	fs.Parse(args)
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: ctlmapper knobs [-knobs knobs.json] <config>")
		os.Exit(1)
	}

	values, err := knobsfile.Load(*knobsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", *knobsPath, err)
		os.Exit(1)
	}

	cfg, _, err := loadConfig(fs.Arg(0), values)
	if err != nil {
		printConfigError(err)
		os.Exit(1)
	}

	for _, k := range cfg.Knobs {
		switch k.Kind {
		case config.KnobFlag:
			fmt.Printf("%s = %v\n", k.Name, k.Flag)
		case config.KnobEnum:
			fmt.Printf("%s = %s\n", k.Name, k.EnumOpts[k.EnumIdx])
		case config.KnobNumber:
			fmt.Printf("%s = %g\n", k.Name, k.Number)
		}
	}
}

func cmdList(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	controllers := fs.Bool("controllers", false, "enumerate attached controllers")
	fs.Parse(args)

	if !*controllers {
		fmt.Fprintln(os.Stderr, "Usage: ctlmapper list -controllers")
		os.Exit(1)
	}

	found, err := sdlio.AvailableControllers()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error enumerating controllers: %v\n", err)
		os.Exit(1)
	}
	if len(found) == 0 {
		fmt.Println("no controllers found")
		return
	}
	for _, c := range found {
		serial, hasSerial := c.Serial()
		if hasSerial {
			fmt.Printf("%s  path=%s  serial=%s\n", c.Name(), c.Path(), serial)
		} else {
			fmt.Printf("%s  path=%s\n", c.Name(), c.Path())
		}
	}
}

func cmdTest(args []string) {
	fs := flag.NewFlagSet("test", flag.ExitOnError)
	iterations := fs.Int("iterations", 10000, "number of random snapshots to fuzz against")
	fs.Parse(args)
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: ctlmapper test [-iterations N] <config>")
		os.Exit(1)
	}

	cfg, alloc, err := loadConfig(fs.Arg(0), map[string]config.Value{})
	if err != nil {
		printConfigError(err)
		os.Exit(1)
	}

	log := diag.NewStderr()
	m := mapper.New(cfg, alloc, nil, nil, hostio.Discard{}, log)
	m.Fuzz(*iterations)
	fmt.Printf("ok: survived %d random tick(s)\n", *iterations)
}

// cmdOverlay runs the Fyne overlay window as a D-Bus service a `load`
// process's dbusipc.Sink connects to. It never touches a controller.
func cmdOverlay(args []string) {
	fs := flag.NewFlagSet("overlay", flag.ExitOnError)
	title := fs.String("title", "ctlmapper", "overlay window title")
	fs.Parse(args)

	log := diag.NewStderr()
	log.EnableAll()

	renderer := fyneui.NewRenderer(*title, log)
	listener, err := dbusipc.Listen(renderer, renderer.Knobs, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting overlay service: %v\n", err)
		os.Exit(1)
	}
	defer listener.Close()

	renderer.Run()
}

// cmdLoad is the live mapper process: it attaches a controller and virtual
// output devices, optionally connects to a running `overlay` process over
// D-Bus, and runs ticks until the process is killed. Whenever the knobs
// change (through the overlay's knobs menu or on disk) it reloads the config
// against them and starts a fresh mapper; it exits on an error or when the
// overlay becomes required.
func cmdLoad(args []string) {
	fs := flag.NewFlagSet("load", flag.ExitOnError)
	knobsPath := fs.String("knobs", "knobs.json", "path to the persisted knobs file")
	controllerFlag := fs.String("controller", "", "controller name, path substring, serial, or alias from controllers.yaml")
	controllersFile := fs.String("controllers-file", "controllers.yaml", "path to the controller alias file")
	defaultsFile := fs.String("defaults-file", "ctlmapper.toml", "path to the CLI defaults file")
	noOverlay := fs.Bool("no-overlay", false, "run without connecting to an overlay process")
	tray := fs.Bool("tray", true, "show a system tray icon while running")
	fs.Parse(args)
	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: ctlmapper load [flags] <config>")
		os.Exit(1)
	}
	configPath := fs.Arg(0)

	log := diag.NewStderr()
	log.EnableAll()

	defaults, err := profiles.LoadDefaults(*defaultsFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", *defaultsFile, err)
		os.Exit(1)
	}
	query := *controllerFlag
	if query == "" {
		query = defaults.Controller
	}

	aliases, err := profiles.LoadControllers(*controllersFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", *controllersFile, err)
		os.Exit(1)
	}
	if alias, ok := aliases.ResolveAlias(query); ok {
		if alias.Serial != "" {
			query = alias.Serial
		} else {
			query = alias.Path
		}
	}

	values, err := knobsfile.Load(*knobsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", *knobsPath, err)
		os.Exit(1)
	}

	cfg, alloc, err := loadConfig(configPath, values)
	if err != nil {
		printConfigError(err)
		os.Exit(1)
	}

	found, err := sdlio.AvailableControllers()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error enumerating controllers: %v\n", err)
		os.Exit(1)
	}
	controller, ok := sdlio.Find(found, query)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: no controller matching %q\n", query)
		os.Exit(1)
	}
	log.Printf(diag.HostIO, "attached controller %q (%s)", controller.Name(), controller.Path())

	src, haptics := sdlio.StartPolling(controller)

	output, err := sdlio.NewKeyMouse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating virtual input devices: %v\n", err)
		os.Exit(1)
	}
	defer output.Close()

	var overlaySink overlay.Sink
	if !*noOverlay {
		s, err := dbusipc.NewSink(log)
		if err != nil {
			log.Printf(diag.Overlay, "no overlay process reachable: %v", err)
		} else {
			overlaySink = s
		}
	}

	if *tray {
		go runTray(filepath.Base(configPath))
	}

	watcher, err := knobsfile.Watch(*knobsPath, log)
	if err != nil {
		log.Printf(diag.Knobs, "watch %s: %v (external knob edits won't be picked up live)", *knobsPath, err)
	}
	if watcher != nil {
		defer watcher.Close()
	}
	var externalChanges <-chan map[string]config.Value
	if watcher != nil {
		externalChanges = watcher.Changes()
	}

	for {
		m := mapper.New(cfg, alloc, haptics, overlaySink, output, log)

		type runResult struct {
			reason mapper.ExitReason
			err    error
		}
		done := make(chan runResult, 1)
		go func() {
			reason, err := m.Run(src)
			done <- runResult{reason, err}
		}()

		var reason mapper.ExitReason
		select {
		case res := <-done:
			reason, err = res.reason, res.err
		case <-externalChanges:
			// The knobs file changed on disk underneath us — the overlay
			// process wrote its own copy, or a user hand-edited it. Ask
			// the running mapper to exit at its next tick and reload from
			// what's already on disk rather than racing it with our own
			// Save below.
			m.RequestReload()
			res := <-done
			reason, err = res.reason, res.err
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		switch reason.Kind {
		case mapper.ExitKnobsChanged:
			if err := knobsfile.Save(*knobsPath, reason.Knobs); err != nil {
				log.Printf(diag.Knobs, "saving %s: %v", *knobsPath, err)
			}
			values, err = knobsfile.Load(*knobsPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error reloading %s: %v\n", *knobsPath, err)
				os.Exit(1)
			}
			cfg, alloc, err = loadConfig(configPath, values)
			if err != nil {
				printConfigError(err)
				os.Exit(1)
			}
			continue
		case mapper.ExitReloadRequested:
			values, err = knobsfile.Load(*knobsPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error reloading %s: %v\n", *knobsPath, err)
				os.Exit(1)
			}
			cfg, alloc, err = loadConfig(configPath, values)
			if err != nil {
				printConfigError(err)
				os.Exit(1)
			}
			continue
		case mapper.ExitOverlayRequired:
			fmt.Fprintln(os.Stderr, "Error: overlay became required mid-run; reconnect an overlay process")
			os.Exit(1)
		}
	}
}

func runTray(configName string) {
	systray.Run(func() {
		systray.SetTitle("ctlmapper")
		systray.SetTooltip("ctlmapper: " + configName)
		quit := systray.AddMenuItem("Quit", "stop the mapper")
		go func() {
			<-quit.ClickedCh
			systray.Quit()
			os.Exit(0)
		}()
	}, func() {})
}
