// Package tree implements lookups and copy-on-write updates over a forest of image records.
//
// Every function is pure: inputs are never mutated, and a missing id is reported through the
// boolean result rather than an error, since a stale id is a recoverable UI condition.
package tree

import "github.com/Conceptual-Machines/refinery-api/internal/models"

// FindByID searches depth-first across every root and all descendants
func FindByID(forest models.Forest, id string) (*models.ImageRecord, bool) {
	return findIn(forest, id)
}

func findIn(nodes []models.ImageRecord, id string) (*models.ImageRecord, bool) {
	for i := range nodes {
		if nodes[i].ID == id {
			return &nodes[i], true
		}
		if found, ok := findIn(nodes[i].Children, id); ok {
			return found, true
		}
	}
	return nil, false
}

// AddChildren returns a forest in which the node targetID has records appended after its
// existing children. Only the path from the root to the target is copied; all other subtrees
// are shared with the input. When targetID is absent the input forest is returned as-is and
// the second result is false.
func AddChildren(forest models.Forest, targetID string, records []models.ImageRecord) (models.Forest, bool) {
	updated, ok := addIn(forest, targetID, records)
	if !ok {
		return forest, false
	}
	return models.Forest(updated), true
}

func addIn(nodes []models.ImageRecord, targetID string, records []models.ImageRecord) ([]models.ImageRecord, bool) {
	for i := range nodes {
		var children []models.ImageRecord
		if nodes[i].ID == targetID {
			children = make([]models.ImageRecord, 0, len(nodes[i].Children)+len(records))
			children = append(children, nodes[i].Children...)
			children = append(children, records...)
		} else {
			var ok bool
			children, ok = addIn(nodes[i].Children, targetID, records)
			if !ok {
				continue
			}
		}

		out := make([]models.ImageRecord, len(nodes))
		copy(out, nodes)
		out[i].Children = children
		return out, true
	}
	return nil, false
}

// FindSiblings returns the sequence that directly contains id: the roots for a root id, or
// the parent's children for a descendant
func FindSiblings(forest models.Forest, id string) ([]models.ImageRecord, bool) {
	return siblingsIn(forest, id)
}

func siblingsIn(nodes []models.ImageRecord, id string) ([]models.ImageRecord, bool) {
	for i := range nodes {
		if nodes[i].ID == id {
			return nodes, true
		}
	}
	for i := range nodes {
		if found, ok := siblingsIn(nodes[i].Children, id); ok {
			return found, true
		}
	}
	return nil, false
}

// IndexOf returns the position of id within nodes, or -1
func IndexOf(nodes []models.ImageRecord, id string) int {
	for i := range nodes {
		if nodes[i].ID == id {
			return i
		}
	}
	return -1
}

// Walk visits every node depth-first, parents before children. Returning false from fn
// skips that node's subtree.
func Walk(forest models.Forest, fn func(node *models.ImageRecord, depth int) bool) {
	walkIn(forest, 0, fn)
}

func walkIn(nodes []models.ImageRecord, depth int, fn func(node *models.ImageRecord, depth int) bool) {
	for i := range nodes {
		if fn(&nodes[i], depth) {
			walkIn(nodes[i].Children, depth+1, fn)
		}
	}
}

// Count returns the total number of nodes in the forest
func Count(forest models.Forest) int {
	n := 0
	Walk(forest, func(*models.ImageRecord, int) bool {
		n++
		return true
	})
	return n
}

// PathTo returns the ids from the root down to and including id
func PathTo(forest models.Forest, id string) ([]string, bool) {
	return pathIn(forest, id, nil)
}

func pathIn(nodes []models.ImageRecord, id string, prefix []string) ([]string, bool) {
	for i := range nodes {
		path := append(append([]string(nil), prefix...), nodes[i].ID)
		if nodes[i].ID == id {
			return path, true
		}
		if found, ok := pathIn(nodes[i].Children, id, path); ok {
			return found, true
		}
	}
	return nil, false
}

// Depth returns the level of id, 0 for roots
func Depth(forest models.Forest, id string) (int, bool) {
	path, ok := PathTo(forest, id)
	if !ok {
		return 0, false
	}
	return len(path) - 1, true
}
