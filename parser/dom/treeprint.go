package dom

import (
	"fmt"

	"github.com/xlab/treeprint"
)

func label(n *Node) string {
	switch n.NodeType {
	case ElementNode:
		return "<" + namespacePrefixes[n.Element.Namespace] + n.LocalName + ">"
	case TextNode:
		return fmt.Sprintf("%q", n.Text.Data)
	case CommentNode:
		return "<!-- " + n.Comment.Data + " -->"
	case DocumentTypeNode:
		return "<!DOCTYPE " + n.DocumentType.Name + ">"
	}
	return n.NodeName
}

func addTree(t treeprint.Tree, n *Node) {
	hasContents := n.NodeType == ElementNode && n.TemplateContents != nil
	if len(n.ChildNodes) == 0 && !hasContents {
		t.AddNode(label(n))
		return
	}
	branch := t.AddBranch(label(n))
	if hasContents {
		addTree(branch, n.TemplateContents)
	}
	for _, child := range n.ChildNodes {
		addTree(branch, child)
	}
}

// TreePrint draws the tree rooted at n for debugging.
func TreePrint(n *Node) string {
	t := treeprint.New()
	addTree(t, n)
	return t.String()
}
