package graph

import (
	"sort"

	"github.com/charmbracelet/log"
	"github.com/nyquistlabs/rackengine/internal/abuffer"
)

// MixerInput is one entry in the optional final mixer: a gain applied
// to a node's output before it's summed into the session-wide mix.
type MixerInput struct {
	NodeID      string
	GainPercent float32
}

// MixerSpec configures the Graph's optional final mixer stage.
type MixerSpec struct {
	Inputs        []MixerInput
	MasterPercent float32
	SoftClip      bool
}

type nodeEntry struct {
	id       string
	node     Node
	kind     Kind
	channels int
}

// Graph owns an ordered set of nodes, a typed edge set, and the
// derived level schedule, buffers and routing tables built once at the
// first Process call after topology changes. Mutation during a live
// render is forbidden (spec.md 4.4).
type Graph struct {
	sampleRate float64
	maxBlock   int
	channels   int

	nodes    []nodeEntry
	idToIdx  map[string]int
	edges    []Edge
	edgeKeys map[[4]int]bool

	mixer *MixerSpec

	// Derived at first Process after a topology change.
	built       bool
	topoOrder   []int
	upstream    [][]Edge // per destination index, sorted by (toPort, fromIndex, fromPort)
	downstream  [][]int  // per source index, destination indices
	outputs     []*abuffer.Buffer
	portSumsBuf map[int]*abuffer.Buffer // current node's port sums, keyed by toPort; emptied per node
	cycleFound  bool

	// Derived mixer lookup tables, rebuilt alongside the topology so
	// mix doesn't allocate per Process call.
	isMixerInput  []bool
	mixerGain     []float32
	hasDownstream []bool

	logger *log.Logger
}

// New creates an empty Graph for the given channel count. sampleRate
// and maxBlock are supplied again at Prepare.
func New(channels int, logger *log.Logger) *Graph {
	if logger == nil {
		logger = log.Default()
	}
	return &Graph{
		channels: channels,
		idToIdx:  make(map[string]int),
		edgeKeys: make(map[[4]int]bool),
		logger:   logger,
	}
}

// AddNode appends a node under id with its declared channel count.
// Duplicate ids are rejected by the caller (GraphSpec validation);
// AddNode itself just indexes whatever it's given.
func (g *Graph) AddNode(id string, n Node, channels int) {
	idx := len(g.nodes)
	g.nodes = append(g.nodes, nodeEntry{id: id, node: n, kind: classify(n), channels: channels})
	g.idToIdx[id] = idx
	g.built = false
}

// SetMixer installs the optional final mixer stage.
func (g *Graph) SetMixer(m *MixerSpec) {
	g.mixer = m
	g.built = false
}

// AddEdge inserts an edge by node id, resolving ids to indices. Self-
// edges, duplicate edges and edges referencing unknown ids are
// rejected with a diagnostic and otherwise ignored, per spec.md 4.4's
// failure semantics.
func (g *Graph) AddEdge(fromID, toID string, fromPort, toPort int, gain, dryPercent float32) {
	fromIdx, ok1 := g.idToIdx[fromID]
	toIdx, ok2 := g.idToIdx[toID]
	if !ok1 || !ok2 {
		g.logger.Warn("dropping edge referencing unknown node", "from", fromID, "to", toID)
		return
	}
	if fromIdx == toIdx {
		g.logger.Warn("dropping self-edge", "node", fromID)
		return
	}
	e := Edge{FromIndex: fromIdx, ToIndex: toIdx, FromPort: fromPort, ToPort: toPort, Gain: gain, DryPercent: dryPercent}
	key := edgeKey(e)
	if g.edgeKeys[key] {
		g.logger.Warn("dropping duplicate edge", "from", fromID, "to", toID, "fromPort", fromPort, "toPort", toPort)
		return
	}
	g.edgeKeys[key] = true
	g.edges = append(g.edges, e)
	g.built = false
}

// Prepare allocates/sizes internal buffers and prepares every node.
func (g *Graph) Prepare(sampleRate float64, maxBlockFrames int) {
	g.sampleRate = sampleRate
	g.maxBlock = maxBlockFrames
	for _, ne := range g.nodes {
		ne.node.Prepare(sampleRate, maxBlockFrames)
	}
	g.outputs = make([]*abuffer.Buffer, len(g.nodes))
	for i, ne := range g.nodes {
		g.outputs[i] = abuffer.New(maxBlockFrames, ne.channels)
	}
	g.portSumsBuf = make(map[int]*abuffer.Buffer)
	for _, e := range g.edges {
		from, to := g.nodes[e.FromIndex], g.nodes[e.ToIndex]
		if from.channels != to.channels {
			g.logger.Warn("adapting edge channel count", "from", from.id, "to", to.id, "fromChannels", from.channels, "toChannels", to.channels)
		}
	}
	g.built = false
}

// buildTopology computes idToIndex (already maintained incrementally),
// per-destination sorted upstream edges, per-source downstream lists,
// and the Kahn topological order. On cycle it leaves topoOrder empty
// and insertion order is used as a fallback by Process.
func (g *Graph) buildTopology() {
	n := len(g.nodes)
	g.upstream = make([][]Edge, n)
	g.downstream = make([][]int, n)
	indegree := make([]int, n)

	for _, e := range g.edges {
		g.upstream[e.ToIndex] = append(g.upstream[e.ToIndex], e)
		g.downstream[e.FromIndex] = append(g.downstream[e.FromIndex], e.ToIndex)
		indegree[e.ToIndex]++
	}
	for i := range g.upstream {
		sort.Slice(g.upstream[i], func(a, b int) bool {
			ea, eb := g.upstream[i][a], g.upstream[i][b]
			if ea.ToPort != eb.ToPort {
				return ea.ToPort < eb.ToPort
			}
			if ea.FromIndex != eb.FromIndex {
				return ea.FromIndex < eb.FromIndex
			}
			return ea.FromPort < eb.FromPort
		})
	}

	order := make([]int, 0, n)
	queue := make([]int, 0, n)
	remaining := make([]int, n)
	copy(remaining, indegree)
	for i := 0; i < n; i++ {
		if remaining[i] == 0 {
			queue = append(queue, i)
		}
	}
	for len(queue) > 0 {
		idx := queue[0]
		queue = queue[1:]
		order = append(order, idx)
		for _, dst := range g.downstream[idx] {
			remaining[dst]--
			if remaining[dst] == 0 {
				queue = append(queue, dst)
			}
		}
	}

	if len(order) != n {
		g.logger.Warn("cycle detected in graph topology, falling back to insertion order")
		g.cycleFound = true
		g.topoOrder = nil
	} else {
		g.cycleFound = false
		g.topoOrder = order
	}

	g.isMixerInput = make([]bool, n)
	g.mixerGain = make([]float32, n)
	if g.mixer != nil {
		for _, mi := range g.mixer.Inputs {
			idx, ok := g.idToIdx[mi.NodeID]
			if !ok {
				continue
			}
			g.isMixerInput[idx] = true
			g.mixerGain[idx] = mi.GainPercent / 100
		}
	}
	g.hasDownstream = make([]bool, n)
	for _, e := range g.edges {
		g.hasDownstream[e.FromIndex] = true
	}

	g.built = true
}

// order returns the processing order: the Kahn topo order, or
// insertion order if the graph has a cycle.
func (g *Graph) order() []int {
	if g.topoOrder != nil {
		return g.topoOrder
	}
	order := make([]int, len(g.nodes))
	for i := range order {
		order[i] = i
	}
	return order
}

// Levels partitions node indices into Kahn layers: every upstream node
// of any node in group k lies in some group j<k. Returns nil if the
// graph has a cycle. Used by the optional parallel offline renderer,
// where all nodes within a level are independent.
func (g *Graph) Levels() [][]int {
	if !g.built {
		g.buildTopology()
	}
	if g.cycleFound {
		return nil
	}
	level := make([]int, len(g.nodes))
	maxLevel := 0
	for _, idx := range g.topoOrder {
		l := 0
		for _, e := range g.upstream[idx] {
			if level[e.FromIndex]+1 > l {
				l = level[e.FromIndex] + 1
			}
		}
		level[idx] = l
		if l > maxLevel {
			maxLevel = l
		}
	}
	groups := make([][]int, maxLevel+1)
	for idx, l := range level {
		groups[l] = append(groups[l], idx)
	}
	return groups
}

// NodeIndex resolves a node id to its index, or -1 if unknown.
func (g *Graph) NodeIndex(id string) int {
	idx, ok := g.idToIdx[id]
	if !ok {
		return -1
	}
	return idx
}
