package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/whikwon/nexusnote/domain/core/entities"
	"github.com/whikwon/nexusnote/domain/core/valueobjects"
)

// parseArea reads "page:top,left,width,height" with a 1-based page number
func parseArea(s string) (valueobjects.HighlightArea, error) {
	page, rect, ok := strings.Cut(s, ":")
	if !ok {
		return valueobjects.HighlightArea{}, fmt.Errorf("area %q: want page:top,left,width,height", s)
	}
	pageNum, err := strconv.Atoi(page)
	if err != nil || pageNum < 1 {
		return valueobjects.HighlightArea{}, fmt.Errorf("area %q: page must be a positive number", s)
	}

	parts := strings.Split(rect, ",")
	if len(parts) != 4 {
		return valueobjects.HighlightArea{}, fmt.Errorf("area %q: want four coordinates", s)
	}
	var coords [4]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return valueobjects.HighlightArea{}, fmt.Errorf("area %q: %w", s, err)
		}
		coords[i] = v
	}

	return valueobjects.HighlightArea{
		PageIndex: pageNum - 1,
		Top:       coords[0],
		Left:      coords[1],
		Width:     coords[2],
		Height:    coords[3],
	}, nil
}

func newAnnotateCmd() *cobra.Command {
	var (
		areas   []string
		quote   string
		comment string
		tag     string
	)

	cmd := &cobra.Command{
		Use:   "annotate <document-id>",
		Short: "Highlight a region of a document and attach a comment",
		Example: `  nexus annotate 3f2a... --area 4:12.5,10,80,3.2 --quote "attention is all" --comment "core claim"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)

			draft := entities.AnnotationDraft{Quote: quote, Comment: comment, Tag: tag}
			for _, raw := range areas {
				area, err := parseArea(raw)
				if err != nil {
					return err
				}
				draft.HighlightAreas = append(draft.HighlightAreas, area)
			}

			info, err := a.open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			store, err := a.controller.Annotations(info.DocumentID)
			if err != nil {
				return err
			}
			created, err := store.Create(cmd.Context(), draft)
			if err != nil {
				return err
			}
			printAnnotation(cmd.OutOrStdout(), created)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&areas, "area", nil, "highlight rectangle as page:top,left,width,height (repeatable)")
	cmd.Flags().StringVar(&quote, "quote", "", "selected text")
	cmd.Flags().StringVarP(&comment, "comment", "m", "", "comment")
	cmd.Flags().StringVar(&tag, "tag", "", "optional tag or emoji")
	return cmd
}

func newAnnotationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "annotations",
		Short: "Search, edit and delete the annotations of a document",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "search <document-id> [term]",
			Short: "List annotations whose quote, comment or tag contains term",
			Args:  cobra.RangeArgs(1, 2),
			RunE: func(cmd *cobra.Command, args []string) error {
				a := appFrom(cmd)
				info, err := a.open(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				store, err := a.controller.Annotations(info.DocumentID)
				if err != nil {
					return err
				}

				term := ""
				if len(args) == 2 {
					term = args[1]
				}
				for ann := range store.Search(term) {
					printAnnotation(cmd.OutOrStdout(), ann)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "comment <document-id> <annotation-id> <comment>",
			Short: "Replace the comment of an annotation",
			Args:  cobra.ExactArgs(3),
			RunE: func(cmd *cobra.Command, args []string) error {
				a := appFrom(cmd)
				info, err := a.open(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				store, err := a.controller.Annotations(info.DocumentID)
				if err != nil {
					return err
				}
				updated, err := store.UpdateComment(cmd.Context(), valueobjects.AnnotationID(args[1]), args[2])
				if err != nil {
					return err
				}
				printAnnotation(cmd.OutOrStdout(), updated)
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <document-id> <annotation-id>",
			Short: "Delete an annotation. Concepts keep their refs to it.",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				a := appFrom(cmd)
				info, err := a.open(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				store, err := a.controller.Annotations(info.DocumentID)
				if err != nil {
					return err
				}
				if err := store.Delete(cmd.Context(), valueobjects.AnnotationID(args[1])); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[1])
				return nil
			},
		},
	)
	return cmd
}
