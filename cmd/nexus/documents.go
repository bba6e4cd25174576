package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/whikwon/nexusnote/domain/core/valueobjects"
)

func newDocumentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "documents",
		Aliases: []string{"docs"},
		Short:   "List, upload, rename and delete documents",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List every document",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				docs, err := appFrom(cmd).api.ListDocuments(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				for _, d := range docs {
					fmt.Fprintf(out, "%s  %s\n", d.ID, d.Name)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "upload <file>",
			Short: "Upload a PDF",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()

				doc, err := appFrom(cmd).api.UploadDocument(cmd.Context(), filepath.Base(args[0]), f)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", doc.ID(), doc.Name())
				return nil
			},
		},
		&cobra.Command{
			Use:   "rename <document-id> <name>",
			Short: "Rename a document",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				doc, err := appFrom(cmd).api.RenameDocument(cmd.Context(), valueobjects.DocumentID(args[0]), args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s  %s\n", doc.ID(), doc.Name())
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <document-id>",
			Short: "Delete a document with its annotations",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := appFrom(cmd).controller.DeleteDocument(cmd.Context(), valueobjects.DocumentID(args[0])); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return nil
			},
		},
	)
	return cmd
}

func newOpenCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "open <document-id>",
		Short: "Load a document and show its annotations and concepts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFrom(cmd)
			info, err := a.open(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s  %s  (%s, %d bytes)\n", info.DocumentID, info.Document.Name(), info.Blob.ContentType, info.Blob.Size)

			store, err := a.controller.Annotations(info.DocumentID)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "\nAnnotations (%d)\n", store.Len())
			for _, ann := range store.List() {
				printAnnotation(w, ann)
			}

			related, err := a.controller.DocumentConcepts(info.DocumentID)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "\nConcepts (%d)\n", len(related))
			for _, c := range related {
				printConcept(w, c)
			}

			if out != "" {
				data, err := a.controller.Content(info.DocumentID)
				if err != nil {
					return err
				}
				if err := os.WriteFile(out, data, 0o644); err != nil {
					return err
				}
				fmt.Fprintf(w, "\nwrote %s\n", out)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "write the document content to this file")
	return cmd
}
