package neat

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
)

// Genome is one individual of the population: a set of node genes and connection genes.
// Fitness is written by the evaluation and read by speciation and reproduction.
type Genome struct {
	Key         int
	Nodes       map[int]*NodeGene
	Connections map[ConnectionKey]*ConnectionGene
	Fitness     float64
	Config      *GenomeConfig
}

// NewGenome creates an empty genome.
func NewGenome(key int, config *GenomeConfig) *Genome {
	return &Genome{
		Key:         key,
		Nodes:       make(map[int]*NodeGene),
		Connections: make(map[ConnectionKey]*ConnectionGene),
		Config:      config,
	}
}

// ConfigureNew creates the output and hidden nodes of a fresh genome and wires them
// according to initial_connection.
func (g *Genome) ConfigureNew() {
	for _, key := range g.Config.OutputKeys {
		g.Nodes[key] = NewNodeGene(key, g.Config)
	}
	for i := 0; i < g.Config.NumHidden; i++ {
		key := g.Config.GetNewNodeKey()
		g.Nodes[key] = NewNodeGene(key, g.Config)
	}

	switch g.Config.ConnectionType {
	case "fs_neat", "fs_neat_nohidden":
		g.connectFSNeat(false)
	case "fs_neat_hidden":
		g.connectFSNeat(true)
	case "full", "full_nodirect":
		g.connect(g.fullConnections(false))
	case "full_direct":
		g.connect(g.fullConnections(true))
	case "partial", "partial_nodirect":
		g.connect(g.partialConnections(false))
	case "partial_direct":
		g.connect(g.partialConnections(true))
	}
}

func (g *Genome) connect(keys []ConnectionKey) {
	for _, key := range keys {
		g.Connections[key] = NewConnectionGene(key, g.Config)
	}
}

// connectFSNeat links one randomly chosen input to every output, and to every hidden
// node as well when hidden is set.
func (g *Genome) connectFSNeat(hidden bool) {
	input := g.Config.InputKeys[rand.Intn(len(g.Config.InputKeys))]
	var targets []int
	if hidden {
		targets = g.hiddenKeys()
	}
	targets = append(targets, g.Config.OutputKeys...)
	for _, out := range targets {
		key := ConnectionKey{InNodeID: input, OutNodeID: out}
		g.Connections[key] = NewConnectionGene(key, g.Config)
	}
}

// fullConnections lists input→hidden→output links, plus input→output links when
// direct is set or there are no hidden nodes. Recurrent genomes also get self loops.
func (g *Genome) fullConnections(direct bool) []ConnectionKey {
	var keys []ConnectionKey
	hidden := g.hiddenKeys()
	for _, h := range hidden {
		for _, in := range g.Config.InputKeys {
			keys = append(keys, ConnectionKey{in, h})
		}
	}
	for _, h := range hidden {
		for _, out := range g.Config.OutputKeys {
			keys = append(keys, ConnectionKey{h, out})
		}
	}
	if direct || len(hidden) == 0 {
		for _, in := range g.Config.InputKeys {
			for _, out := range g.Config.OutputKeys {
				keys = append(keys, ConnectionKey{in, out})
			}
		}
	}
	if !g.Config.FeedForward {
		for _, n := range g.sortedNodeKeys() {
			keys = append(keys, ConnectionKey{n, n})
		}
	}
	return keys
}

// partialConnections keeps a random connection_fraction share of fullConnections.
func (g *Genome) partialConnections(direct bool) []ConnectionKey {
	keys := g.fullConnections(direct)
	rand.Shuffle(len(keys), func(i, j int) { keys[i], keys[j] = keys[j], keys[i] })
	n := int(math.RoundToEven(g.Config.ConnectionFraction * float64(len(keys))))
	return keys[:n]
}

func (g *Genome) hiddenKeys() []int {
	var keys []int
	for key := range g.Nodes {
		if !g.isOutput(key) {
			keys = append(keys, key)
		}
	}
	sort.Ints(keys)
	return keys
}

func (g *Genome) sortedNodeKeys() []int {
	keys := make([]int, 0, len(g.Nodes))
	for key := range g.Nodes {
		keys = append(keys, key)
	}
	sort.Ints(keys)
	return keys
}

func (g *Genome) isOutput(key int) bool {
	return key >= 0 && key < len(g.Config.OutputKeys)
}

// ConfigureCrossover fills g with genes inherited from two parents. Genes present in
// both parents mix their attributes; genes only the fitter parent has are copied.
func (g *Genome) ConfigureCrossover(parent1, parent2 *Genome) {
	if parent1.Fitness < parent2.Fitness {
		parent1, parent2 = parent2, parent1
	}
	g.Config = parent1.Config

	for key, c1 := range parent1.Connections {
		if c2, ok := parent2.Connections[key]; ok {
			g.Connections[key] = c1.Crossover(c2)
		} else {
			g.Connections[key] = c1.Copy()
		}
	}
	for key, n1 := range parent1.Nodes {
		if n2, ok := parent2.Nodes[key]; ok {
			g.Nodes[key] = n1.Crossover(n2)
		} else {
			g.Nodes[key] = n1.Copy()
		}
	}
}

// Copy returns a deep copy of the genome.
func (g *Genome) Copy() *Genome {
	c := NewGenome(g.Key, g.Config)
	c.Fitness = g.Fitness
	for key, n := range g.Nodes {
		c.Nodes[key] = n.Copy()
	}
	for key, conn := range g.Connections {
		c.Connections[key] = conn.Copy()
	}
	return c
}

// Mutate applies structural mutations followed by attribute mutations.
func (g *Genome) Mutate() {
	cfg := g.Config
	if cfg.SingleStructuralMutation {
		div := math.Max(1, cfg.NodeAddProb+cfg.NodeDeleteProb+cfg.ConnAddProb+cfg.ConnDeleteProb)
		r := rand.Float64()
		switch {
		case r < cfg.NodeAddProb/div:
			g.mutateAddNode()
		case r < (cfg.NodeAddProb+cfg.NodeDeleteProb)/div:
			g.mutateDeleteNode()
		case r < (cfg.NodeAddProb+cfg.NodeDeleteProb+cfg.ConnAddProb)/div:
			g.mutateAddConnection()
		case r < (cfg.NodeAddProb+cfg.NodeDeleteProb+cfg.ConnAddProb+cfg.ConnDeleteProb)/div:
			g.mutateDeleteConnection()
		}
	} else {
		if rand.Float64() < cfg.NodeAddProb {
			g.mutateAddNode()
		}
		if rand.Float64() < cfg.NodeDeleteProb {
			g.mutateDeleteNode()
		}
		if rand.Float64() < cfg.ConnAddProb {
			g.mutateAddConnection()
		}
		if rand.Float64() < cfg.ConnDeleteProb {
			g.mutateDeleteConnection()
		}
	}

	for _, key := range g.sortedNodeKeys() {
		g.Nodes[key].Mutate(cfg)
	}
	for _, key := range g.sortedConnectionKeys() {
		g.Connections[key].Mutate(g, cfg)
	}
}

func (g *Genome) sortedConnectionKeys() []ConnectionKey {
	keys := make([]ConnectionKey, 0, len(g.Connections))
	for key := range g.Connections {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].InNodeID != keys[j].InNodeID {
			return keys[i].InNodeID < keys[j].InNodeID
		}
		return keys[i].OutNodeID < keys[j].OutNodeID
	})
	return keys
}

// mutateAddNode splits a random connection in two around a new hidden node.
// The incoming half has weight 1 and the outgoing half keeps the old weight.
func (g *Genome) mutateAddNode() {
	if len(g.Connections) == 0 {
		if g.Config.structuralMutationSurer() {
			g.mutateAddConnection()
		}
		return
	}
	keys := g.sortedConnectionKeys()
	split := g.Connections[keys[rand.Intn(len(keys))]]
	split.Enabled = false

	key := g.Config.GetNewNodeKey()
	g.Nodes[key] = NewNodeGene(key, g.Config)
	g.addConnection(split.Key.InNodeID, key, 1.0, true)
	g.addConnection(key, split.Key.OutNodeID, split.Weight, true)
}

func (g *Genome) addConnection(in, out int, weight float64, enabled bool) {
	key := ConnectionKey{InNodeID: in, OutNodeID: out}
	conn := NewConnectionGene(key, g.Config)
	conn.Weight = weight
	conn.Enabled = enabled
	g.Connections[key] = conn
}

// mutateAddConnection attempts one random new link. An existing link is re-enabled
// instead when structural_mutation_surer applies.
func (g *Genome) mutateAddConnection() {
	outs := g.sortedNodeKeys()
	if len(outs) == 0 {
		return
	}
	out := outs[rand.Intn(len(outs))]
	ins := append(append([]int(nil), outs...), g.Config.InputKeys...)
	in := ins[rand.Intn(len(ins))]

	key := ConnectionKey{InNodeID: in, OutNodeID: out}
	if existing, ok := g.Connections[key]; ok {
		if g.Config.structuralMutationSurer() {
			existing.Enabled = true
		}
		return
	}
	if g.isOutput(in) && g.isOutput(out) {
		return
	}
	if g.Config.FeedForward && g.createsCycle(key) {
		return
	}
	g.Connections[key] = NewConnectionGene(key, g.Config)
}

// mutateDeleteNode removes a random hidden node together with every link touching it.
func (g *Genome) mutateDeleteNode() {
	hidden := g.hiddenKeys()
	if len(hidden) == 0 {
		return
	}
	victim := hidden[rand.Intn(len(hidden))]
	for key := range g.Connections {
		if key.InNodeID == victim || key.OutNodeID == victim {
			delete(g.Connections, key)
		}
	}
	delete(g.Nodes, victim)
}

func (g *Genome) mutateDeleteConnection() {
	if len(g.Connections) == 0 {
		return
	}
	keys := g.sortedConnectionKeys()
	delete(g.Connections, keys[rand.Intn(len(keys))])
}

// createsCycle reports whether adding key to the genome's connections would close a loop.
func (g *Genome) createsCycle(key ConnectionKey) bool {
	if key.InNodeID == key.OutNodeID {
		return true
	}
	visited := map[int]bool{key.OutNodeID: true}
	for {
		added := 0
		for c := range g.Connections {
			if visited[c.InNodeID] && !visited[c.OutNodeID] {
				if c.OutNodeID == key.InNodeID {
					return true
				}
				visited[c.OutNodeID] = true
				added++
			}
		}
		if added == 0 {
			return false
		}
	}
}

// Distance is the compatibility distance used for speciation: the node and
// connection terms each combine homologous attribute differences with the
// disjoint gene count, normalized by the larger genome.
func (g *Genome) Distance(other *Genome) float64 {
	cfg := g.Config

	var nodeDistance float64
	if len(g.Nodes) > 0 || len(other.Nodes) > 0 {
		disjoint := 0
		for key := range other.Nodes {
			if _, ok := g.Nodes[key]; !ok {
				disjoint++
			}
		}
		for key, n1 := range g.Nodes {
			if n2, ok := other.Nodes[key]; ok {
				nodeDistance += n1.Distance(n2, cfg)
			} else {
				disjoint++
			}
		}
		largest := math.Max(float64(len(g.Nodes)), float64(len(other.Nodes)))
		nodeDistance = (nodeDistance + cfg.CompatibilityDisjointCoefficient*float64(disjoint)) / largest
	}

	var connDistance float64
	if len(g.Connections) > 0 || len(other.Connections) > 0 {
		disjoint := 0
		for key := range other.Connections {
			if _, ok := g.Connections[key]; !ok {
				disjoint++
			}
		}
		for key, c1 := range g.Connections {
			if c2, ok := other.Connections[key]; ok {
				connDistance += c1.Distance(c2, cfg)
			} else {
				disjoint++
			}
		}
		largest := math.Max(float64(len(g.Connections)), float64(len(other.Connections)))
		connDistance = (connDistance + cfg.CompatibilityDisjointCoefficient*float64(disjoint)) / largest
	}

	return nodeDistance + connDistance
}

// Size returns the number of hidden+output nodes and enabled connections.
func (g *Genome) Size() (nodes, enabled int) {
	for _, c := range g.Connections {
		if c.Enabled {
			enabled++
		}
	}
	return len(g.Nodes), enabled
}

func (g *Genome) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Key: %d\nFitness: %g\nNodes:", g.Key, g.Fitness)
	for _, key := range g.sortedNodeKeys() {
		fmt.Fprintf(&b, "\n\t%d %s", key, g.Nodes[key])
	}
	b.WriteString("\nConnections:")
	for _, key := range g.sortedConnectionKeys() {
		fmt.Fprintf(&b, "\n\t%s", g.Connections[key])
	}
	return b.String()
}
