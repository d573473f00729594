package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/detsim/detsim/sim/edm"
	"github.com/detsim/detsim/sim/geometry"
	"github.com/detsim/detsim/sim/resegment"
)

// resegmentPaths are the files read and written by one resegment run.
type resegmentPaths struct {
	Geometry  string
	Job       string
	InHeader  string
	InData    string
	OutHeader string
	OutData   string
}

var reseg resegmentPaths

var resegmentCmd = &cobra.Command{
	Use:   "resegment",
	Short: "Apply a cell-id transform job to a hit collection",
	Long: "Apply one cell-id transform (redo-segmentation, merge-cells, merge-layers or rewrite-bitfield) " +
		"described by a job YAML to a hit collection, resolving readouts from a geometry description.",
	Run: func(cmd *cobra.Command, args []string) {
		n, err := runResegment(reseg)
		if err != nil {
			logrus.Fatalf("Resegmentation failed: %v", err)
		}
		logrus.Infof("Wrote %d hits to %s", n, reseg.OutData)
	},
}

// runResegment loads the inputs, runs the job and exports the result.
// It returns the number of hits written.
func runResegment(p resegmentPaths) (int, error) {
	registry, err := geometry.Load(p.Geometry)
	if err != nil {
		return 0, err
	}
	job, err := resegment.LoadJob(p.Job)
	if err != nil {
		return 0, err
	}
	in, err := edm.Load(p.InHeader, p.InData)
	if err != nil {
		return 0, err
	}
	out, err := job.Run(registry, in)
	if err != nil {
		return 0, err
	}
	if err := edm.Export(out, p.OutHeader, p.OutData); err != nil {
		return 0, fmt.Errorf("exporting %s: %w", out.Name, err)
	}
	return out.Len(), nil
}

func init() {
	resegmentCmd.Flags().StringVar(&reseg.Geometry, "geometry", "", "Path to readout description YAML")
	resegmentCmd.Flags().StringVar(&reseg.Job, "job", "", "Path to transform job YAML")
	resegmentCmd.Flags().StringVar(&reseg.InHeader, "in-header", "", "Input collection header YAML")
	resegmentCmd.Flags().StringVar(&reseg.InData, "in-data", "", "Input collection hits CSV")
	resegmentCmd.Flags().StringVar(&reseg.OutHeader, "out-header", "", "Output collection header YAML")
	resegmentCmd.Flags().StringVar(&reseg.OutData, "out-data", "", "Output collection hits CSV")
	for _, name := range []string{"geometry", "job", "in-header", "in-data", "out-header", "out-data"} {
		_ = resegmentCmd.MarkFlagRequired(name)
	}

	rootCmd.AddCommand(resegmentCmd)
}
