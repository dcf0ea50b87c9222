package publish

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Lexical node shapes, per the Ghost editor's document format.
type lexicalText struct {
	Type   string `json:"type"`
	Text   string `json:"text"`
	Format int    `json:"format"`
	Detail int    `json:"detail"`
	Mode   string `json:"mode"`
	Style  string `json:"style"`
}

type lexicalNode struct {
	Type     string        `json:"type"`
	Tag      string        `json:"tag,omitempty"`
	Format   string        `json:"format"`
	Indent   int           `json:"indent"`
	Version  int           `json:"version"`
	Children []lexicalText `json:"children"`
}

type lexicalRoot struct {
	Root struct {
		Type     string        `json:"type"`
		Format   string        `json:"format"`
		Indent   int           `json:"indent"`
		Version  int           `json:"version"`
		Children []lexicalNode `json:"children"`
	} `json:"root"`
}

// FromMarkdown converts lightly-marked-up content (ATX headings and blank
// line separated paragraphs) into Ghost's Lexical representation.
func FromMarkdown(content string) (string, error) {
	var children []lexicalNode

	for _, para := range strings.Split(strings.TrimSpace(content), "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if strings.HasPrefix(para, "#") {
			header, rest, _ := strings.Cut(para, "\n")
			level := 0
			for _, r := range header {
				if r != '#' {
					break
				}
				level++
			}
			if level > 6 {
				level = 6
			}
			children = append(children, headingNode(level, strings.TrimSpace(strings.TrimLeft(header, "#"))))
			if rest = strings.TrimSpace(rest); rest != "" {
				children = append(children, paragraphNode(rest))
			}
			continue
		}

		children = append(children, paragraphNode(para))
	}

	var doc lexicalRoot
	doc.Root.Type = "root"
	doc.Root.Version = 1
	doc.Root.Children = children

	out, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode lexical document: %w", err)
	}
	return string(out), nil
}

func textChild(text string) lexicalText {
	return lexicalText{Type: "text", Text: text, Mode: "normal"}
}

func headingNode(level int, text string) lexicalNode {
	return lexicalNode{
		Type:     "heading",
		Tag:      fmt.Sprintf("h%d", level),
		Version:  1,
		Children: []lexicalText{textChild(text)},
	}
}

func paragraphNode(text string) lexicalNode {
	return lexicalNode{
		Type:     "paragraph",
		Version:  1,
		Children: []lexicalText{textChild(text)},
	}
}
