package publish

import (
	"encoding/json"
	"testing"
)

func decodeLexical(t *testing.T, doc string) lexicalRoot {
	t.Helper()
	var root lexicalRoot
	if err := json.Unmarshal([]byte(doc), &root); err != nil {
		t.Fatalf("lexical output is not valid JSON: %v", err)
	}
	return root
}

func TestFromMarkdown(t *testing.T) {
	t.Run("headings and paragraphs", func(t *testing.T) {
		doc, err := FromMarkdown("# The Title\n\nFirst paragraph.\n\n## Details\n\nSecond paragraph.")
		if err != nil {
			t.Fatalf("FromMarkdown: %v", err)
		}

		root := decodeLexical(t, doc)
		if root.Root.Type != "root" {
			t.Errorf("root type: %q", root.Root.Type)
		}
		nodes := root.Root.Children
		if len(nodes) != 4 {
			t.Fatalf("expected 4 nodes, got %d", len(nodes))
		}
		if nodes[0].Type != "heading" || nodes[0].Tag != "h1" || nodes[0].Children[0].Text != "The Title" {
			t.Errorf("first node: %+v", nodes[0])
		}
		if nodes[1].Type != "paragraph" || nodes[1].Children[0].Text != "First paragraph." {
			t.Errorf("second node: %+v", nodes[1])
		}
		if nodes[2].Tag != "h2" {
			t.Errorf("third node tag: %q", nodes[2].Tag)
		}
	})

	t.Run("heading with trailing text in the same block", func(t *testing.T) {
		doc, err := FromMarkdown("# Title\nLead sentence right under it.")
		if err != nil {
			t.Fatal(err)
		}
		nodes := decodeLexical(t, doc).Root.Children
		if len(nodes) != 2 {
			t.Fatalf("expected heading plus paragraph, got %d nodes", len(nodes))
		}
		if nodes[1].Children[0].Text != "Lead sentence right under it." {
			t.Errorf("trailing paragraph: %+v", nodes[1])
		}
	})

	t.Run("deep heading clamps to h6", func(t *testing.T) {
		doc, err := FromMarkdown("######## Too Deep")
		if err != nil {
			t.Fatal(err)
		}
		nodes := decodeLexical(t, doc).Root.Children
		if nodes[0].Tag != "h6" {
			t.Errorf("tag: %q", nodes[0].Tag)
		}
	})

	t.Run("empty content yields empty document", func(t *testing.T) {
		doc, err := FromMarkdown("   \n\n  ")
		if err != nil {
			t.Fatal(err)
		}
		if nodes := decodeLexical(t, doc).Root.Children; len(nodes) != 0 {
			t.Errorf("expected no nodes, got %d", len(nodes))
		}
	})
}
