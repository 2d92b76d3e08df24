package tree

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/ShayCichocki/fable/pkg/models"
)

// dumpNode mirrors Node for YAML export.
type dumpNode struct {
	ID         string     `yaml:"id"`
	Task       string     `yaml:"task"`
	WordBudget int        `yaml:"word_budget"`
	Depth      int        `yaml:"depth"`
	Leaf       bool       `yaml:"leaf"`
	Judge      string     `yaml:"judge,omitempty"`
	Children   []dumpNode `yaml:"children,omitempty"`
}

type dumpTree struct {
	Meta models.Metadata `yaml:"meta,omitempty"`
	Root dumpNode        `yaml:"root"`
}

// DumpYAML writes the tree structure as YAML for inspection. Only the plan
// is exported, not outlines or content.
func (t *Tree) DumpYAML(w io.Writer) error {
	doc := dumpTree{Meta: t.meta, Root: toDumpNode(t.root)}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode tree: %w", err)
	}
	return enc.Close()
}

func toDumpNode(n *Node) dumpNode {
	dn := dumpNode{
		ID:         n.ID,
		Task:       n.Task,
		WordBudget: n.WordBudget,
		Depth:      n.Depth,
		Leaf:       n.IsLeaf(),
		Judge:      n.JudgeDecision,
	}
	for _, c := range n.Children {
		dn.Children = append(dn.Children, toDumpNode(c))
	}
	return dn
}
