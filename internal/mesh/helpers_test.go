package mesh

import (
	"fmt"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"meshalias/internal"
)

type descriptor struct {
	UI         string
	Name       string
	Codes      []string
	Concepts   [][]string
	NoConcepts bool
}

func (d descriptor) xml() string {
	var b strings.Builder
	b.WriteString("<DescriptorRecord>")
	if d.UI != "" {
		fmt.Fprintf(&b, "<DescriptorUI>%s</DescriptorUI>", d.UI)
	}
	if d.Name != "" {
		fmt.Fprintf(&b, "<DescriptorName><String>%s</String></DescriptorName>", d.Name)
	}
	if len(d.Codes) > 0 {
		b.WriteString("<TreeNumberList>")
		for _, c := range d.Codes {
			fmt.Fprintf(&b, "<TreeNumber>%s</TreeNumber>", c)
		}
		b.WriteString("</TreeNumberList>")
	}
	if !d.NoConcepts {
		b.WriteString("<ConceptList>")
		for _, terms := range d.Concepts {
			b.WriteString("<Concept><TermList>")
			for _, t := range terms {
				fmt.Fprintf(&b, "<Term><String>%s</String></Term>", t)
			}
			b.WriteString("</TermList></Concept>")
		}
		b.WriteString("</ConceptList>")
	}
	b.WriteString("</DescriptorRecord>")
	return b.String()
}

func document(t *testing.T, ds ...descriptor) *Node {
	t.Helper()
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?>` + "\n<DescriptorRecordSet LanguageCode=\"eng\">\n")
	for _, d := range ds {
		b.WriteString(d.xml())
		b.WriteString("\n")
	}
	b.WriteString("</DescriptorRecordSet>\n")
	root, err := ParseDocument(strings.NewReader(b.String()))
	if err != nil {
		t.Fatal(err)
	}
	return root
}

func newCondenser(t *testing.T, policy internal.AliasPolicy) *Condenser {
	t.Helper()
	c, err := NewCondenser(DefaultSchema(), policy, zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	return c
}

var flu = descriptor{
	UI:       "D007251",
	Name:     "Flu",
	Codes:    []string{"C01.001"},
	Concepts: [][]string{{"Influenza", "Grippe"}},
}

func stringsReader(s string) *strings.Reader { return strings.NewReader(s) }

func nopLogger() zerolog.Logger { return zerolog.Nop() }
