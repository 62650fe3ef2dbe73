package main

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	xlanguage "golang.org/x/text/language"

	"audioextract/internal/inputs"
	"audioextract/internal/language"
	"audioextract/internal/media/codec"
	"audioextract/internal/naming"
	"audioextract/internal/prober"
	"audioextract/internal/staging"
)

type trackView struct {
	Index      int    `json:"index"`
	Stream     int    `json:"stream"`
	Codec      string `json:"codec"`
	SampleRate string `json:"sample_rate,omitempty"`
	Channels   int    `json:"channels,omitempty"`
	Language   string `json:"language,omitempty"`
	ISO6391    string `json:"iso639_1,omitempty"`
	Title      string `json:"title,omitempty"`
	Output     string `json:"output"`
}

func newTracksCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tracks <input>",
		Short: "List the audio tracks of an input",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			mgr, err := staging.NewManager(cfg.Paths.StagingDir, "tracks-"+uuid.NewString())
			if err != nil {
				return err
			}
			defer func() { _ = mgr.Close() }()
			ws, err := mgr.Begin(0)
			if err != nil {
				return err
			}

			probe, err := prober.New(prober.Options{
				FFprobe: cfg.FFprobeBinary(),
				Timeout: cfg.ProbeTimeout(),
				Logger:  logger,
			}).Probe(cmd.Context(), inputs.Ref(args[0]), ws)
			if err != nil {
				return err
			}

			views := make([]trackView, 0, len(probe.Tracks))
			for _, track := range probe.Tracks {
				mapping := codec.Map(track.CodecID)
				views = append(views, trackView{
					Index:      track.Index,
					Stream:     track.StreamIndex,
					Codec:      track.CodecID,
					SampleRate: track.SampleRate,
					Channels:   track.Channels,
					Language:   track.Language,
					ISO6391:    language.ToISO2(track.Language),
					Title:      track.Title,
					Output: naming.Render(cfg.Naming.Template, naming.Context{
						BaseName:        probe.BaseName,
						Extension:       mapping.Extension,
						MediaTypeSuffix: mapping.MediaTypeSuffix(),
						SampleRate:      track.SampleRate,
						Channels:        track.ChannelsLabel(),
						Language:        track.Language,
					}),
				})
			}
			if asJSON {
				return writeJSON(cmd, views)
			}

			upper := cases.Upper(xlanguage.Und)
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				channels := "-"
				if v.Channels > 0 {
					channels = strconv.Itoa(v.Channels)
				}
				rows = append(rows, []string{
					strconv.Itoa(v.Index),
					upper.String(v.Codec),
					dash(v.SampleRate),
					channels,
					language.DisplayName(v.Language),
					dash(v.Title),
					v.Output,
				})
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d audio track(s), %.1fs\n", probe.DisplayName, len(views), probe.DurationSeconds)
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Codec", "Sample rate", "Channels", "Language", "Title", "Output name"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print tracks as JSON")
	return cmd
}

func dash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
