package models

import (
	"bitbucket.org/mmdatafocus/budgets_backend/utils"
)

// new pagination combined struct embedding + generic struct
type Cursor interface {
	GetCursor() string
}

type CompositeCursor interface {
	Cursor
	Identifier
}

type Edge[N Cursor] struct {
	Node   *N
	Cursor string
}

// ConnectNodes turns up to limit+1 fetched nodes into edges and page info.
// The extra node only signals that another page exists.
func ConnectNodes[T CompositeCursor](nodes []*T, limit int) ([]Edge[T], *PageInfo) {
	count := 0
	hasNextPage := false
	edges := make([]Edge[T], 0, len(nodes))
	for _, node := range nodes {
		if count == limit {
			hasNextPage = true
			break
		}
		var edge Edge[T]
		edge.Node = node
		edge.Cursor = EncodeCompositeCursor((*node).GetCursor(), (*node).GetId())
		edges = append(edges, edge)
		count++
	}

	pageInfo := PageInfo{
		StartCursor: "",
		EndCursor:   "",
		HasNextPage: utils.NewFalse(),
	}
	if count > 0 {
		pageInfo = PageInfo{
			StartCursor: edges[0].Cursor,
			EndCursor:   edges[count-1].Cursor,
			HasNextPage: &hasNextPage,
		}
	}
	return edges, &pageInfo
}

func EdgeNodes[T Cursor](edges []Edge[T]) []*T {
	nodes := make([]*T, 0, len(edges))
	for _, e := range edges {
		nodes = append(nodes, e.Node)
	}
	return nodes
}
