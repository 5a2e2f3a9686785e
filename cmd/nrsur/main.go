package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/cmplx"
	"os"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/nrsur/internal/catalog"
	"github.com/san-kum/nrsur/internal/config"
	"github.com/san-kum/nrsur/internal/datasource"
	"github.com/san-kum/nrsur/internal/metrics"
	"github.com/san-kum/nrsur/internal/storage"
	"github.com/san-kum/nrsur/internal/surrogate"
	"github.com/san-kum/nrsur/internal/synthetic"
	"github.com/san-kum/nrsur/internal/viz"
)

var (
	dataDir string
	verbose bool

	configFile string
	preset     string
	modelPath  string
	sourceKind string

	massRatio      float64
	chiA           []float64
	chiB           []float64
	ellMax         int
	tRef           float64
	fRef           float64
	dt             float64
	theta          float64
	phi            float64
	initPhase      float64
	returnDynamics bool
	lal            bool

	save      bool
	every     int
	outPath   string
	pullDir   string
	batchSize int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "nrsur",
		Short: "precessing binary black hole waveform surrogate",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".nrsur", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	evalCmd := &cobra.Command{
		Use:   "eval",
		Short: "evaluate a waveform",
		RunE:  runEval,
	}
	addRequestFlags(evalCmd)
	evalCmd.Flags().Float64Var(&dt, "dt", 0, "output time step (0 keeps the model grid)")
	evalCmd.Flags().Float64Var(&theta, "theta", 0, "polar angle of the observer")
	evalCmd.Flags().Float64Var(&phi, "phi", 0, "azimuthal angle of the observer")
	evalCmd.Flags().IntVar(&ellMax, "ell-max", config.DefaultEllMax, "largest ell to evaluate")
	evalCmd.Flags().BoolVar(&returnDynamics, "return-dynamics", false, "also compute inertial dynamics")
	evalCmd.Flags().BoolVar(&save, "save", false, "store the run under --data")

	dynCmd := &cobra.Command{
		Use:   "dynamics",
		Short: "evaluate the coprecessing dynamics only",
		RunE:  runDynamics,
	}
	addRequestFlags(dynCmd)
	dynCmd.Flags().IntVar(&every, "every", 10, "print every n-th sample")

	freqCmd := &cobra.Command{
		Use:   "freq [frequency]",
		Short: "time at which the gravitational-wave frequency is reached",
		Args:  cobra.ExactArgs(1),
		RunE:  runFreq,
	}
	addRequestFlags(freqCmd)

	batchCmd := &cobra.Command{
		Use:   "batch [preset]...",
		Short: "evaluate several presets concurrently",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runBatch,
	}
	batchCmd.Flags().StringVar(&modelPath, "model", config.DefaultModel, "model archive")
	batchCmd.Flags().StringVar(&sourceKind, "source", config.DefaultSource, "model source kind")
	batchCmd.Flags().IntVar(&batchSize, "workers", 4, "concurrent evaluations")

	demoCmd := &cobra.Command{
		Use:   "demo-model",
		Short: "write the synthetic toy model to a sqlite archive",
		RunE:  writeDemoModel,
	}
	demoCmd.Flags().StringVar(&outPath, "out", config.DefaultModel, "output archive")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&outPath, "out", "", "output file (stdout when empty)")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Printf("  %-12s q=%g chiA=%v chiB=%v\n", name, p.Binary.MassRatio, p.Binary.ChiA, p.Binary.ChiB)
			}
			return nil
		},
	}

	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "published surrogate archives",
	}
	catalogListCmd := &cobra.Command{
		Use:   "list",
		Short: "list known surrogates",
		RunE:  listCatalog,
	}
	catalogPullCmd := &cobra.Command{
		Use:   "pull [name]",
		Short: "download a surrogate archive",
		Args:  cobra.ExactArgs(1),
		RunE:  pullCatalog,
	}
	catalogPullCmd.Flags().StringVar(&pullDir, "dir", "", "download directory (default: user cache)")
	catalogCmd.AddCommand(catalogListCmd, catalogPullCmd)

	rootCmd.AddCommand(evalCmd, dynCmd, freqCmd, batchCmd, demoCmd, listCmd, exportCmd, presetsCmd, catalogCmd)

	if err := rootCmd.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

func addRequestFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&preset, "preset", "", "use preset configuration")
	f.StringVar(&modelPath, "model", config.DefaultModel, "model archive")
	f.StringVar(&sourceKind, "source", config.DefaultSource, "model source kind")
	f.Float64Var(&massRatio, "q", config.DefaultMassRatio, "mass ratio m1/m2")
	f.Float64SliceVar(&chiA, "chiA", []float64{0, 0, 0}, "spin of the heavier hole")
	f.Float64SliceVar(&chiB, "chiB", []float64{0, 0, 0}, "spin of the lighter hole")
	f.Float64Var(&tRef, "t-ref", 0, "reference time of the initial data")
	f.Float64Var(&fRef, "f-ref", 0, "reference gravitational-wave frequency")
	f.Float64Var(&initPhase, "init-phase", 0, "orbital phase at the reference time")
	f.BoolVar(&lal, "lal", false, "use LAL conventions")
}

// resolveConfig layers defaults, a preset, a config file and explicitly set
// flags, in that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	changed := func(name string) bool {
		return flags.Lookup(name) != nil && flags.Changed(name)
	}
	if changed("model") || cfg.Model == "" {
		cfg.Model = modelPath
	}
	if changed("source") || cfg.Source == "" {
		cfg.Source = sourceKind
	}
	if changed("q") {
		cfg.Binary.MassRatio = massRatio
	}
	for _, s := range []struct {
		name string
		val  []float64
		dst  *[3]float64
	}{
		{"chiA", chiA, &cfg.Binary.ChiA},
		{"chiB", chiB, &cfg.Binary.ChiB},
	} {
		if !changed(s.name) {
			continue
		}
		if len(s.val) != 3 {
			return nil, fmt.Errorf("--%s needs 3 components, got %d", s.name, len(s.val))
		}
		copy(s.dst[:], s.val)
	}
	if changed("ell-max") {
		cfg.Waveform.EllMax = ellMax
	}
	if changed("t-ref") {
		v := tRef
		cfg.Waveform.TRef = &v
	}
	if changed("f-ref") {
		v := fRef
		cfg.Waveform.FRef = &v
	}
	if changed("dt") {
		cfg.Waveform.Dt = dt
	}
	if changed("theta") {
		v := theta
		cfg.Waveform.Theta = &v
	}
	if changed("phi") {
		v := phi
		cfg.Waveform.Phi = &v
	}
	if changed("init-phase") {
		cfg.Frame.InitPhase = initPhase
	}
	if changed("return-dynamics") {
		cfg.Frame.ReturnDynamics = returnDynamics
	}
	if changed("lal") {
		cfg.Frame.LALConventions = lal
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadModel(ctx context.Context, kind, path string) (*surrogate.Model, error) {
	logrus.Debugf("loading %s model from %s", kind, path)
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("model %s: %w (create one with `nrsur demo-model`)", path, err)
	}
	src, err := datasource.Open(ctx, kind, path)
	if err != nil {
		return nil, err
	}
	defer datasource.CloseIfSupported(src)

	start := time.Now()
	m, err := surrogate.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	logrus.Debugf("loaded model in %v: ellMax=%d, %d dynamics nodes, %d coorbital samples",
		time.Since(start), m.EllMax(), len(m.DynamicsTimes()), len(m.CoorbitalTimes()))
	return m, nil
}

func runEval(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	m, err := loadModel(ctx, cfg.Source, cfg.Model)
	if err != nil {
		return err
	}

	req := cfg.Request()
	start := time.Now()
	w, err := m.Evaluate(req)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)
	logrus.Debugf("evaluated q=%g in %v", req.Params.MassRatio, elapsed)

	vals := metrics.Observe(w, metrics.Defaults()...)
	h22 := w.Modes[surrogate.Mode{Ell: 2, M: 2}]
	peak := 0.0
	for _, a := range metrics.ModeAmplitude(h22) {
		peak = max(peak, a)
	}

	rows := []viz.Row{
		{Label: "mass ratio", Value: strconv.FormatFloat(req.Params.MassRatio, 'g', -1, 64)},
		{Label: "chiA", Value: fmt.Sprint(req.Params.ChiA)},
		{Label: "chiB", Value: fmt.Sprint(req.Params.ChiB)},
		{Label: "ell max", Value: strconv.Itoa(w.EllMax)},
		{Label: "samples", Value: strconv.Itoa(len(w.Times))},
		{Label: "span", Value: fmt.Sprintf("[%.1f, %.1f]", w.Times[0], w.Times[len(w.Times)-1])},
		{Label: "peak |h22|", Value: fmt.Sprintf("%.6f at t=%.2f", peak, metrics.PeakTime(w.Times, h22))},
		{Label: "elapsed", Value: elapsed.String()},
	}
	names := make([]string, 0, len(vals))
	for name := range vals {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		rows = append(rows, viz.Row{Label: name, Value: fmt.Sprintf("%.6g", vals[name])})
	}
	if w.Strain != nil {
		amp := 0.0
		for _, h := range w.Strain {
			amp = max(amp, cmplx.Abs(h))
		}
		rows = append(rows, viz.Row{Label: "peak |strain|", Value: fmt.Sprintf("%.6f", amp)})
	}
	fmt.Println(viz.Summary("waveform", rows))

	if !save {
		return nil
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	runID, err := st.Save(cfg.Model, req, w, vals)
	if err != nil {
		return err
	}
	fmt.Println(viz.Status("saved run "+runID, false))
	return nil
}

func runDynamics(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	m, err := loadModel(ctx, cfg.Source, cfg.Model)
	if err != nil {
		return err
	}
	res, err := m.Dynamics(cfg.Request().DynamicsInput())
	if err != nil {
		return err
	}

	step := max(every, 1)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "T\tPHASE\tQUAT\tCHI_A\tCHI_B")
	for i := 0; i < len(res.Times); i += step {
		q := res.Quat[i]
		a, b := res.ChiA[i], res.ChiB[i]
		fmt.Fprintf(w, "%.2f\t%.6f\t%+.5f %+.5f %+.5f %+.5f\t%+.4f %+.4f %+.4f\t%+.4f %+.4f %+.4f\n",
			res.Times[i], res.Phase[i], q[0], q[1], q[2], q[3], a[0], a[1], a[2], b[0], b[1], b[2])
	}
	return w.Flush()
}

func runFreq(cmd *cobra.Command, args []string) error {
	freq, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("invalid frequency %q: %w", args[0], err)
	}
	ctx := cmd.Context()
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	m, err := loadModel(ctx, cfg.Source, cfg.Model)
	if err != nil {
		return err
	}
	t, err := m.TimeAtFrequency(freq, cfg.Request())
	if err != nil {
		return err
	}
	fmt.Printf("%.6f\n", t)
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	reqs := make([]surrogate.Request, len(args))
	for i, name := range args {
		cfg := config.GetPreset(name)
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
		}
		reqs[i] = cfg.Request()
	}
	m, err := loadModel(ctx, sourceKind, modelPath)
	if err != nil {
		return err
	}

	start := time.Now()
	ws, err := m.EvaluateBatch(ctx, reqs, batchSize)
	if err != nil {
		return err
	}
	logrus.Debugf("evaluated %d presets in %v", len(ws), time.Since(start))

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PRESET\tSAMPLES\tPEAK_T\tMAX_QUAT_DEV")
	for i, w := range ws {
		h22 := w.Modes[surrogate.Mode{Ell: 2, M: 2}]
		dev := "-"
		if w.Dynamics != nil {
			dev = fmt.Sprintf("%.3g", metrics.MaxNormDeviation(w.Dynamics.Quat))
		}
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%s\n", args[i], len(w.Times), metrics.PeakTime(w.Times, h22), dev)
	}
	return tw.Flush()
}

func writeDemoModel(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	mem, err := synthetic.Build(synthetic.DefaultOptions())
	if err != nil {
		return err
	}
	db := datasource.NewSQLite(outPath)
	if err := db.Init(ctx); err != nil {
		return err
	}
	defer db.Close()
	if err := db.Import(ctx, mem); err != nil {
		return err
	}
	logrus.Infof("wrote %d arrays to %s", len(mem.Names()), outPath)
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tQ\tCHI_A\tCHI_B\tELL\tSAMPLES")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%v\t%v\t%d\t%d\n",
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.MassRatio,
			run.ChiA,
			run.ChiB,
			run.EllMax,
			run.Samples,
		)
	}

	return w.Flush()
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if outPath != "" {
		if err := st.ExportJSON(outPath, args[0]); err != nil {
			return err
		}
		logrus.Infof("exported %s to %s", args[0], outPath)
		return nil
	}
	return st.WriteJSON(os.Stdout, args[0])
}

func listCatalog(cmd *cobra.Command, args []string) error {
	if verbose {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(catalog.Default().List())
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tURL")
	for _, e := range catalog.Default().List() {
		fmt.Fprintf(w, "%s\t%s\n", e.Name, e.URL)
	}
	return w.Flush()
}

func pullCatalog(cmd *cobra.Command, args []string) error {
	dir := pullDir
	if dir == "" {
		var err error
		if dir, err = catalog.DownloadPath(); err != nil {
			return err
		}
	}
	logrus.Infof("downloading %s into %s", args[0], dir)
	path, err := catalog.Default().Pull(cmd.Context(), args[0], dir)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}
