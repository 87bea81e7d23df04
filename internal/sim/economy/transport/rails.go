package transport

type Tile struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type StructureKind string

const (
	Depot StructureKind = "DEPOT"
	Port  StructureKind = "PORT"
)

type Structure struct {
	Kind      StructureKind `json:"kind"`
	Owner     string        `json:"owner"`
	Tile      Tile          `json:"tile"`
	Connected bool          `json:"connected"`
}

// Rail is an undirected edge between two tiles.
type Rail struct {
	A Tile `json:"a"`
	B Tile `json:"b"`
}

// Normalized orders the endpoints so equal edges compare equal.
func (r Rail) Normalized() Rail {
	if r.B.X < r.A.X || (r.B.X == r.A.X && r.B.Y < r.A.Y) {
		return Rail{A: r.B, B: r.A}
	}
	return r
}

func railGraph(rails []Rail) map[Tile][]Tile {
	g := make(map[Tile][]Tile, len(rails)*2)
	for _, r := range rails {
		g[r.A] = append(g[r.A], r.B)
		g[r.B] = append(g[r.B], r.A)
	}
	return g
}

// Reachable returns every tile reachable over rails from start, start
// included.
func Reachable(rails []Rail, start Tile) map[Tile]bool {
	return reachFrom(railGraph(rails), start)
}

func reachFrom(graph map[Tile][]Tile, start Tile) map[Tile]bool {
	seen := map[Tile]bool{start: true}
	queue := []Tile{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range graph[cur] {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return seen
}

// ComputeConnectivity marks each structure connected iff its tile is rail
// reachable from its owner's capital. Owners without a capital are never
// connected. The input slice is updated in place and returned.
func ComputeConnectivity(rails []Rail, capitals map[string]Tile, structures []Structure) []Structure {
	graph := railGraph(rails)
	reach := make(map[string]map[Tile]bool, len(capitals))
	for nation, capital := range capitals {
		reach[nation] = reachFrom(graph, capital)
	}
	for i := range structures {
		structures[i].Connected = reach[structures[i].Owner][structures[i].Tile]
	}
	return structures
}
