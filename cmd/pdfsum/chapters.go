package main

import (
	"encoding/json"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/thywilljoshua/pdf-summarizer/internal/extract"
	"github.com/thywilljoshua/pdf-summarizer/internal/segment"
)

type chapterPreview struct {
	Ordinal        int          `json:"ordinal"`
	Title          string       `json:"title"`
	Kind           segment.Kind `json:"kind"`
	Chars          int          `json:"chars"`
	ReadingMinutes int          `json:"reading_minutes"`
}

// chaptersCmd shows how a PDF would be split without calling any model.
func chaptersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chapters <pdf>",
		Short: "Print the detected chapters of a PDF as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seg, err := newSegmenter(a.v.GetString("pattern"))
			if err != nil {
				return err
			}
			doc, err := extract.File(args[0])
			if err != nil {
				return err
			}
			chapters := seg.Segment(doc.Text)
			out := make([]chapterPreview, len(chapters))
			for i, c := range chapters {
				out[i] = chapterPreview{
					Ordinal:        c.Ordinal,
					Title:          c.Title,
					Kind:           c.Kind,
					Chars:          utf8.RuneCountInString(c.Body),
					ReadingMinutes: segment.ReadingMinutes(c.Body),
				}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().String("pattern", "", "extra regular expression matching chapter heading lines")
	return cmd
}
