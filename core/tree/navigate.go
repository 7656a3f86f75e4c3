package tree

// Navigate descends from start through path. Every segment but the last
// follows the first child under that tag; the last segment returns the full
// sequence. Any missing hop yields nil. An empty path returns start itself.
func Navigate(start *Node, path ...string) []*Node {
	if start == nil {
		return nil
	}
	if len(path) == 0 {
		return []*Node{start}
	}
	cur := start
	for _, seg := range path[:len(path)-1] {
		cur = cur.First(seg)
		if cur == nil {
			return nil
		}
	}
	return cur.Children(path[len(path)-1])
}

// NavigateFirst returns the first node at the end of path, or nil.
func NavigateFirst(start *Node, path ...string) *Node {
	nodes := Navigate(start, path...)
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// Parent returns the node holding the last segment of path, i.e. the result
// of descending through every segment except the last. It returns nil when any
// hop is missing.
func Parent(start *Node, path ...string) *Node {
	if len(path) == 0 {
		return nil
	}
	if len(path) == 1 {
		return start
	}
	return NavigateFirst(start, path[:len(path)-1]...)
}

// Walk visits start and every descendant depth-first. fn receives the tag the
// node is stored under ("" for start) and the node. Returning false from fn
// skips that node's subtree.
func Walk(start *Node, fn func(tag string, n *Node) bool) {
	walk("", start, fn)
}

func walk(tag string, n *Node, fn func(string, *Node) bool) {
	if n == nil || !fn(tag, n) {
		return
	}
	for _, t := range n.ChildTags() {
		for _, c := range n.Children(t) {
			walk(t, c, fn)
		}
	}
}

// CollectAttr gathers every value of attr found on nodes stored under tag
// anywhere below start.
func CollectAttr(start *Node, tag, attr string) []string {
	var out []string
	Walk(start, func(t string, n *Node) bool {
		if t == tag {
			if v, ok := n.LookupAttr(attr); ok {
				out = append(out, v)
			}
		}
		return true
	})
	return out
}
