package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/jsvensson/lutforge"
	"github.com/jsvensson/lutforge/internal/color"
	"github.com/jsvensson/lutforge/internal/config"
	"github.com/jsvensson/lutforge/internal/curve"
	"github.com/jsvensson/lutforge/internal/engine"
	"github.com/jsvensson/lutforge/internal/format"
	"github.com/jsvensson/lutforge/internal/grade"
	"github.com/jsvensson/lutforge/internal/lut"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

var (
	flagConfig    string
	flagVerbose   int
	flagGrade     string
	flagLUT       string
	flagOut       string
	flagSuffix    string
	flagSaveLUT   bool
	flagWorkers   int
	flagMaxWidth  int
	flagMaxHeight int
	flagChannel   string
	flagSamples   int
	flagCheck     bool
	version       = "dev" // Injected at build time via ldflags

	cfg = config.Default()
)

var rootCmd = &cobra.Command{
	Use:               "lutforge",
	Short:             "Bake color grades into lookup tables and apply them to images",
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var bakeCmd = &cobra.Command{
	Use:   "bake",
	Short: "Bake a grade file into a LUT image",
	Args:  cobra.NoArgs,
	RunE:  runBake,
}

var applyCmd = &cobra.Command{
	Use:   "apply [images...]",
	Short: "Grade images with a grade file or a baked LUT",
	Long: "Grade one or more images. The table comes from --lut when given, otherwise it is baked\n" +
		"from --grade. Graded copies keep their format and are written to the output directory.",
	Args: cobra.MinimumNArgs(1),
	RunE: runApply,
}

var sampleCmd = &cobra.Command{
	Use:   "sample [colors...]",
	Short: "Print how a grade maps individual colors",
	Long: "Print the graded value of each color, given as #rrggbb or a palette path such as palette.sky.\n" +
		"With -v, also list every correction by name and id with its match strength.",
	Args: cobra.MinimumNArgs(1),
	RunE: runSample,
}

var curveCmd = &cobra.Command{
	Use:   "curve",
	Short: "Print a channel curve next to its smoothed preview",
	Args:  cobra.NoArgs,
	RunE:  runCurve,
}

var fmtCmd = &cobra.Command{
	Use:   "fmt [files...]",
	Short: "Format .grade files",
	Long:  "Format one or more .grade files in-place. Prints the name of each file that was modified.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runFmt,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", config.DefaultPath, "path to tool config file")
	rootCmd.PersistentFlags().CountVarP(&flagVerbose, "verbose", "v", "increase log verbosity (can be repeated)")

	bakeCmd.Flags().StringVar(&flagGrade, "grade", "look.grade", "path to grade file")
	bakeCmd.Flags().StringVar(&flagOut, "out", "", "output LUT path (default from config)")
	bakeCmd.Flags().IntVar(&flagWorkers, "workers", 0, "worker goroutines, 0 for one per CPU")

	applyCmd.Flags().StringVar(&flagGrade, "grade", "look.grade", "path to grade file; ignored with --lut")
	applyCmd.Flags().StringVar(&flagLUT, "lut", "", "path to a baked LUT image; skips baking")
	applyCmd.Flags().StringVar(&flagOut, "out", "", "output directory (default from config)")
	applyCmd.Flags().StringVar(&flagSuffix, "suffix", "", "suffix appended to graded file names")
	applyCmd.Flags().BoolVar(&flagSaveLUT, "save-lut", false, "also write the table into the output directory")
	applyCmd.Flags().IntVar(&flagWorkers, "workers", 0, "worker goroutines, 0 for one per CPU")
	applyCmd.Flags().IntVar(&flagMaxWidth, "max-width", 0, "downscale wider images for preview, 0 for no limit")
	applyCmd.Flags().IntVar(&flagMaxHeight, "max-height", 0, "downscale taller images for preview, 0 for no limit")

	sampleCmd.Flags().StringVar(&flagGrade, "grade", "look.grade", "path to grade file")

	curveCmd.Flags().StringVar(&flagGrade, "grade", "look.grade", "path to grade file")
	curveCmd.Flags().StringVar(&flagChannel, "channel", "red", "channel to print: red, green or blue")
	curveCmd.Flags().IntVar(&flagSamples, "samples", 11, "number of evenly spaced samples")

	fmtCmd.Flags().BoolVarP(&flagCheck, "check", "c", false, "check if files are formatted (do not write changes)")

	rootCmd.AddCommand(bakeCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(sampleCmd)
	rootCmd.AddCommand(curveCmd)
	rootCmd.AddCommand(fmtCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads the tool config and configures logging. Flags set on the
// command line win over config values.
func setup(cmd *cobra.Command, _ []string) error {
	var err error
	if cmd.Flags().Changed("config") {
		cfg, err = config.Load(flagConfig)
	} else {
		cfg, err = config.LoadOptional(flagConfig)
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	var logFile *string
	if cfg.Log.File != "" {
		logFile = &cfg.Log.File
	}
	commonlog.Configure(cfg.Log.Verbosity+flagVerbose, logFile)

	if !cmd.Flags().Changed("workers") {
		flagWorkers = cfg.Apply.Workers
	}
	if !cmd.Flags().Changed("max-width") {
		flagMaxWidth = cfg.Apply.MaxWidth
	}
	if !cmd.Flags().Changed("max-height") {
		flagMaxHeight = cfg.Apply.MaxHeight
	}
	if !cmd.Flags().Changed("suffix") {
		flagSuffix = cfg.Apply.Suffix
	}
	return nil
}

func runBake(cmd *cobra.Command, args []string) error {
	g, err := lutforge.Load(flagGrade)
	if err != nil {
		return err
	}

	out := flagOut
	if out == "" {
		out = cfg.Output.LUT
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	cube := g.Bake(lut.WithWorkers(flagWorkers))
	err = engine.WriteFile(out, func(w io.Writer) error {
		return lut.Encode(w, cube)
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Baked %s into %s\n", g.Title(flagGrade), out)
	return nil
}

func loadCube() (*lut.Cube, error) {
	if flagLUT != "" {
		f, err := os.Open(flagLUT)
		if err != nil {
			return nil, fmt.Errorf("opening lut: %w", err)
		}
		defer f.Close()
		return lut.Read(f)
	}

	g, err := lutforge.Load(flagGrade)
	if err != nil {
		return nil, err
	}
	return g.Bake(lut.WithWorkers(flagWorkers)), nil
}

func runApply(cmd *cobra.Command, args []string) error {
	cube, err := loadCube()
	if err != nil {
		return err
	}

	e := &engine.Engine{
		OutputDir: flagOut,
		Suffix:    flagSuffix,
		Workers:   flagWorkers,
		MaxWidth:  flagMaxWidth,
		MaxHeight: flagMaxHeight,
	}
	if e.OutputDir == "" {
		e.OutputDir = cfg.Output.Dir
	}
	if flagSaveLUT {
		e.LUTName = cfg.Output.LUT
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	written, err := e.Run(ctx, cube, args)
	for _, path := range written {
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("interrupted after %d files", len(written))
	}
	return err
}

func runSample(cmd *cobra.Command, args []string) error {
	g, err := lutforge.Load(flagGrade)
	if err != nil {
		return err
	}
	cube := g.Bake()
	sw := newSwatcher(cmd.OutOrStdout())

	for _, arg := range args {
		in, err := g.ResolveColor(arg)
		if err != nil {
			return err
		}
		exact := grade.Apply(in.Float(), &g.Params).Color()
		baked := cube.Lookup(in)
		fmt.Fprintf(cmd.OutOrStdout(), "%s%-20s %s -> %s%s  lut %s%s\n",
			sw.swatch(in), arg, in.Hex(), sw.swatch(exact), exact.Hex(), sw.swatch(baked), baked.Hex())
		if flagVerbose > 0 {
			printMatches(cmd.OutOrStdout(), in, g.Params.Corrections)
		}
	}
	return nil
}

// printMatches lists how strongly each correction matches the ungraded color.
func printMatches(w io.Writer, in color.Color, corrections []grade.Correction) {
	for _, k := range corrections {
		state := ""
		if !k.Enabled {
			state = " (disabled)"
		}
		fmt.Fprintf(w, "    correction %q %s match %.3f%s\n",
			k.Name, k.ID, grade.MatchStrength(in.Float(), k.Target, k.Tolerance), state)
	}
}

func runCurve(cmd *cobra.Command, args []string) error {
	g, err := lutforge.Load(flagGrade)
	if err != nil {
		return err
	}

	var c curve.Curve
	switch strings.ToLower(flagChannel) {
	case "red", "r":
		c = g.Params.Red
	case "green", "g":
		c = g.Params.Green
	case "blue", "b":
		c = g.Params.Blue
	default:
		return fmt.Errorf("unknown channel %q (valid: red, green, blue)", flagChannel)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%-8s %-8s %s\n", "x", "linear", "smooth")
	for _, p := range c.Preview(flagSamples) {
		fmt.Fprintf(w, "%-8.3f %-8.3f %.3f\n", p.X, c.Evaluate(p.X), p.Y)
	}
	return nil
}

func runFmt(cmd *cobra.Command, args []string) error {
	hasErrors := false
	needsFormatting := false

	for _, path := range args {
		changed, err := format.File(path, flagCheck)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			hasErrors = true
			continue
		}
		if changed {
			fmt.Fprintln(cmd.OutOrStdout(), path)
			needsFormatting = true
		}
	}

	switch {
	case hasErrors:
		return errors.New("some files could not be formatted")
	case flagCheck && needsFormatting:
		return errors.New("some files are not formatted")
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
