package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/detsim/detsim/sim"
	"github.com/detsim/detsim/sim/fieldmap"
	"github.com/detsim/detsim/sim/probe"
)

var fieldCmd = &cobra.Command{
	Use:   "field",
	Short: "Evaluate and scan magnetic field maps",
}

// --- detsim field probe ---

var (
	fieldConfigPath string
	fieldPoint      []float64
)

var fieldProbeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Print the field (tesla) at one point (millimetres)",
	Run: func(cmd *cobra.Command, args []string) {
		b, err := probeField(fieldConfigPath, fieldPoint)
		if err != nil {
			logrus.Fatalf("Field probe failed: %v", err)
		}
		fmt.Printf("%g %g %g\n", b.X, b.Y, b.Z)
	},
}

// --- detsim field scan ---

var (
	scanProbes []string
	scanBins   int
	scanOut    string
)

var fieldScanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Sample the field over probe surfaces and write CSV",
	Long: "Sample the field at bin centres over each --probe surface. Probes: " +
		"\"xyPlane xMax yMax z\", \"zPlane zMin zMax rMax phi\", \"tube zMin zMax r\" (millimetres, radians).",
	Run: func(cmd *cobra.Command, args []string) {
		w := io.Writer(os.Stdout)
		if scanOut != "" && scanOut != "-" {
			file, err := os.Create(scanOut)
			if err != nil {
				logrus.Fatalf("Cannot create scan output: %v", err)
			}
			defer func() { _ = file.Close() }()
			w = file
		}
		if err := scanField(fieldConfigPath, scanProbes, scanBins, w); err != nil {
			logrus.Fatalf("Field scan failed: %v", err)
		}
	},
}

func loadField(configPath string) (sim.MagneticField, error) {
	cfg, err := fieldmap.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return cfg.Build()
}

// probeField evaluates the configured field at point = [x, y, z].
func probeField(configPath string, point []float64) (r3.Vec, error) {
	if len(point) != 3 {
		return r3.Vec{}, fmt.Errorf("point needs 3 coordinates, got %d", len(point))
	}
	field, err := loadField(configPath)
	if err != nil {
		return r3.Vec{}, err
	}
	return field.FieldValue(r3.Vec{X: point[0], Y: point[1], Z: point[2]}), nil
}

// scanField scans every valid probe definition and writes all maps to w.
// Invalid definitions are logged and skipped.
func scanField(configPath string, defs []string, bins int, w io.Writer) error {
	field, err := loadField(configPath)
	if err != nil {
		return err
	}
	var maps []*probe.Map2D
	for _, def := range defs {
		p, err := probe.ParseProbe(def)
		if err != nil {
			logrus.Warnf("skipping probe %q: %v", def, err)
			continue
		}
		m, err := probe.Scan(field, p, bins)
		if err != nil {
			return err
		}
		logrus.Infof("scanned %s with %dx%d bins", p.Name(), bins, bins)
		maps = append(maps, m)
	}
	if len(maps) == 0 {
		return fmt.Errorf("no valid probe among %d definitions", len(defs))
	}
	return probe.WriteCSV(w, maps...)
}

func init() {
	fieldCmd.PersistentFlags().StringVar(&fieldConfigPath, "config", "", "Path to field config YAML")
	_ = fieldCmd.MarkPersistentFlagRequired("config")

	fieldProbeCmd.Flags().Float64SliceVar(&fieldPoint, "point", nil, "Comma-separated x,y,z in millimetres")
	_ = fieldProbeCmd.MarkFlagRequired("point")

	fieldScanCmd.Flags().StringArrayVar(&scanProbes, "probe", nil, "Probe definition (repeatable)")
	fieldScanCmd.Flags().IntVar(&scanBins, "bins", probe.DefaultBins, "Bins per scanned coordinate")
	fieldScanCmd.Flags().StringVar(&scanOut, "out", "", "Output CSV path (default stdout)")
	_ = fieldScanCmd.MarkFlagRequired("probe")

	fieldCmd.AddCommand(fieldProbeCmd)
	fieldCmd.AddCommand(fieldScanCmd)

	rootCmd.AddCommand(fieldCmd)
}
