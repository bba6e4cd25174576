package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/whikwon/nexusnote/domain/core/entities"
	"github.com/whikwon/nexusnote/domain/core/valueobjects"
	pkgerrors "github.com/whikwon/nexusnote/pkg/errors"
)

// refreshed loads the whole concept table before a concept command runs
func refreshed(fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a := appFrom(cmd)
		if err := a.concepts.Refresh(cmd.Context()); err != nil {
			return err
		}
		return fn(cmd, a, args)
	}
}

func newConceptsCmd() *cobra.Command {
	var (
		comment    string
		documentID string
		remove     bool
	)

	cmd := &cobra.Command{
		Use:   "concepts",
		Short: "Manage concepts, their annotation refs and their links",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List concepts; with --document, those touching the document come first",
		Args:  cobra.NoArgs,
		RunE: refreshed(func(cmd *cobra.Command, a *app, args []string) error {
			all := a.concepts.ListAll()
			if documentID != "" {
				info, err := a.open(cmd.Context(), documentID)
				if err != nil {
					return err
				}
				if all, err = a.controller.OrderedConcepts(info.DocumentID); err != nil {
					return err
				}
			}
			for _, c := range all {
				printConcept(cmd.OutOrStdout(), c)
			}
			return nil
		}),
	}
	list.Flags().StringVar(&documentID, "document", "", "order by relevance to this document")

	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a concept",
		Args:  cobra.ExactArgs(1),
		RunE: refreshed(func(cmd *cobra.Command, a *app, args []string) error {
			c, err := a.concepts.Create(cmd.Context(), args[0], comment)
			if err != nil {
				return err
			}
			printConcept(cmd.OutOrStdout(), c)
			return nil
		}),
	}
	create.Flags().StringVarP(&comment, "comment", "m", "", "concept note")

	ref := &cobra.Command{
		Use:   "ref <concept-id> <annotation-id>",
		Short: "Reference an annotation from a concept",
		Args:  cobra.ExactArgs(2),
		RunE: refreshed(func(cmd *cobra.Command, a *app, args []string) error {
			conceptID, annotationID := valueobjects.ConceptID(args[0]), valueobjects.AnnotationID(args[1])
			var (
				c   *entities.Concept
				err error
			)
			if remove {
				c, err = a.concepts.RemoveAnnotationRef(cmd.Context(), conceptID, annotationID)
			} else {
				c, err = a.concepts.AddAnnotationRef(cmd.Context(), conceptID, annotationID)
			}
			if err != nil {
				return err
			}
			printConcept(cmd.OutOrStdout(), c)
			return nil
		}),
	}
	ref.Flags().BoolVar(&remove, "remove", false, "drop the ref instead of adding it")

	candidates := &cobra.Command{
		Use:   "candidates <document-id> <concept-id> [term]",
		Short: "Show annotations and concepts not yet connected to a concept",
		Args:  cobra.RangeArgs(2, 3),
		RunE: refreshed(func(cmd *cobra.Command, a *app, args []string) error {
			info, err := a.open(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			c, ok := a.concepts.Get(valueobjects.ConceptID(args[1]))
			if !ok {
				return pkgerrors.ErrConceptNotFound.WithDetail("concept_id", args[1])
			}
			resolver, err := a.controller.Resolver(info.DocumentID)
			if err != nil {
				return err
			}

			term := ""
			if len(args) == 3 {
				term = args[2]
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, "Annotations")
			for _, ann := range resolver.UnlinkedAnnotations(c, term) {
				printAnnotation(w, ann)
			}
			fmt.Fprintln(w, "\nConcepts")
			for _, other := range resolver.UnlinkedConcepts(c, term) {
				printConcept(w, other)
			}
			return nil
		}),
	}

	cmd.AddCommand(
		list,
		create,
		ref,
		candidates,
		&cobra.Command{
			Use:   "link <concept-id> <other-id>",
			Short: "Link two concepts",
			Args:  cobra.ExactArgs(2),
			RunE: refreshed(func(cmd *cobra.Command, a *app, args []string) error {
				c, err := a.concepts.AddLink(cmd.Context(), valueobjects.ConceptID(args[0]), valueobjects.ConceptID(args[1]))
				if err != nil {
					return err
				}
				printConcept(cmd.OutOrStdout(), c)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "unlink <concept-id> <other-id>",
			Short: "Remove the link between two concepts",
			Args:  cobra.ExactArgs(2),
			RunE: refreshed(func(cmd *cobra.Command, a *app, args []string) error {
				c, err := a.concepts.RemoveLink(cmd.Context(), valueobjects.ConceptID(args[0]), valueobjects.ConceptID(args[1]))
				if err != nil {
					return err
				}
				printConcept(cmd.OutOrStdout(), c)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "delete <concept-id>",
			Short: "Delete a concept and its links",
			Args:  cobra.ExactArgs(1),
			RunE: refreshed(func(cmd *cobra.Command, a *app, args []string) error {
				if err := a.concepts.Delete(cmd.Context(), valueobjects.ConceptID(args[0])); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return nil
			}),
		},
	)
	return cmd
}
