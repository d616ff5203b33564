package main

import (
	"fmt"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/olivier-w/audiovisual/internal/config"
	"github.com/olivier-w/audiovisual/internal/player"
	"github.com/olivier-w/audiovisual/internal/spectral"
	"github.com/olivier-w/audiovisual/internal/visualizer"
)

type spectrumFlags struct {
	config string
	offset time.Duration
	bars   int
	width  int
	height int
}

func newSpectrumCmd() *cobra.Command {
	var f spectrumFlags
	cmd := &cobra.Command{
		Use:   "spectrum <file>",
		Short: "Plot the spectrum bars of a file at an offset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadDefault(f.config)
			if err != nil {
				return err
			}
			if f.bars <= 0 {
				f.bars = cfg.Visual.NumFreq
			}
			samples, err := player.ReadSamples(args[0], f.offset, cfg.Analyser.FFTSize)
			if err != nil {
				return err
			}
			if len(samples) == 0 {
				return fmt.Errorf("%s: no audio at %s", args[0], f.offset)
			}
			bars := spectrumBars(samples, cfg.Analyser.FFTSize, f.bars)
			fmt.Fprintln(cmd.OutOrStdout(), plotBars(bars, f.width, f.height,
				fmt.Sprintf("%s at %s", args[0], f.offset)))
			return nil
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.config, "config", "", "config file")
	fl.DurationVarP(&f.offset, "offset", "o", 0, "position in the file")
	fl.IntVarP(&f.bars, "bars", "b", 0, "number of bars (default visual.num_freq)")
	fl.IntVar(&f.width, "width", 0, "plot width in columns")
	fl.IntVar(&f.height, "height", 12, "plot height in rows")
	return cmd
}

// spectrumBars runs one unsmoothed analyser frame over samples and reduces
// it to numBars values in [0,1], as the visualizer does for a live frame.
func spectrumBars(samples []float32, fftSize, numBars int) []float64 {
	a := spectral.NewAnalyser(fftSize, 0, true)
	a.WriteSamples(samples)
	spectrum := make([]float32, a.BinCount())
	a.FloatFrequency(spectrum)
	visualizer.NormalizeSpectrum(spectrum)

	bars := make([]float32, numBars)
	visualizer.ReduceFreq(bars, spectrum)
	out := make([]float64, numBars)
	for i, v := range bars {
		out[i] = float64(v)
	}
	return out
}

func plotBars(bars []float64, width, height int, caption string) string {
	opts := []asciigraph.Option{
		asciigraph.Height(height),
		asciigraph.LowerBound(0),
		asciigraph.UpperBound(1),
		asciigraph.Precision(2),
		asciigraph.Caption(caption),
	}
	if width > 0 {
		opts = append(opts, asciigraph.Width(width))
	}
	return asciigraph.Plot(bars, opts...)
}
