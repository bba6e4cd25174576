package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/whikwon/nexusnote/domain/core/entities"
)

func printAnnotation(w io.Writer, a *entities.Annotation) {
	pages := make([]string, 0)
	for _, p := range a.HighlightAreas().Pages() {
		pages = append(pages, fmt.Sprint(p+1))
	}
	tag := a.Tag()
	if tag != "" {
		tag += " "
	}
	fmt.Fprintf(w, "  %s  p.%s  %s%s\n", a.ID(), strings.Join(pages, ","), tag, oneLine(a.Comment()))
	if a.Quote() != "" {
		fmt.Fprintf(w, "      %q\n", oneLine(a.Quote()))
	}
}

func printConcept(w io.Writer, c *entities.Concept) {
	fmt.Fprintf(w, "  %s  %s  refs=%d links=%d\n", c.ID(), c.Name(), len(c.AnnotationRefs()), len(c.LinkedConcepts()))
}

func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if r := []rune(s); len(r) > 80 {
		return string(r[:77]) + "..."
	}
	return s
}
