package rules

// Walk visits nodes in preorder. Returning false from visit skips the
// node's children; traversal of siblings continues.
func Walk(n Node, visit func(Node) bool) {
	if n == nil || !visit(n) {
		return
	}
	switch node := n.(type) {
	case *AndNode:
		for _, c := range node.Children {
			Walk(c, visit)
		}
	case *OrNode:
		for _, c := range node.Children {
			Walk(c, visit)
		}
	case *NotNode:
		Walk(node.Child, visit)
	case *ComparisonNode:
		Walk(node.Left, visit)
		Walk(node.Right, visit)
	case *BinaryOpNode:
		Walk(node.Left, visit)
		Walk(node.Right, visit)
	case *ConditionalNode:
		Walk(node.Test, visit)
		Walk(node.Then, visit)
		Walk(node.Else, visit)
	case *HelperNode:
		for _, a := range node.Args {
			Walk(a, visit)
		}
	case *StateMethodNode:
		for _, a := range node.Args {
			Walk(a, visit)
		}
	case *AttributeNode:
		Walk(node.Object, visit)
	case *FunctionCallNode:
		Walk(node.Callee, visit)
		for _, a := range node.Args {
			Walk(a, visit)
		}
	}
}

// CountMalformed returns how many malformed nodes the tree contains. Loaders
// use it to report parse quality without failing the load.
func CountMalformed(n Node) int {
	count := 0
	Walk(n, func(node Node) bool {
		if node.NodeKind() == KindMalformed {
			count++
		}
		return true
	})
	return count
}

// HelperNames collects the distinct helper and name identifiers referenced
// by the tree, in first-seen order. The indirect-connections index is built
// from these references.
func HelperNames(n Node) []string {
	var names []string
	seen := make(map[string]struct{})
	record := func(name string) {
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	Walk(n, func(node Node) bool {
		switch t := node.(type) {
		case *HelperNode:
			record(t.Name)
		case *StateMethodNode:
			record(t.Name)
		case *NameNode:
			record(t.ID)
		case *FunctionCallNode:
			if callee, ok := t.Callee.(*NameNode); ok {
				record(callee.ID)
			}
		}
		return true
	})
	return names
}

// FirstStringArg returns the first literal string argument of call-shaped
// nodes, used when indexing rules that reference a region by name.
func FirstStringArg(n Node) (string, bool) {
	var args []Node
	switch t := n.(type) {
	case *HelperNode:
		args = t.Args
	case *StateMethodNode:
		args = t.Args
	case *FunctionCallNode:
		args = t.Args
	default:
		return "", false
	}
	for _, a := range args {
		if lit, ok := a.(*LiteralNode); ok {
			if s, ok := lit.Value.(String); ok {
				return string(s), true
			}
		}
	}
	return "", false
}
