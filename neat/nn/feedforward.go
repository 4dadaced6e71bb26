package nn

import (
	"fmt"
	"sort"

	"github.com/baldhumanity/flappy-neat/neat"
)

type link struct {
	from   int
	weight float64
}

// nodeEval is one evaluation step: a non-input node and its enabled incoming links.
type nodeEval struct {
	key         int
	activation  neat.ActivationFunc
	aggregation neat.AggregationFunc
	bias        float64
	response    float64
	links       []link
}

// FeedForwardNetwork is the phenotype of a feed-forward genome. Nodes that cannot
// influence an output are pruned, and outputs unreachable from the inputs stay at 0.
type FeedForwardNetwork struct {
	InputKeys  []int
	OutputKeys []int

	evals  []nodeEval
	values map[int]float64
	inputs []float64
}

// CreateFeedForwardNetwork builds a runnable network from a genome's enabled connections.
func CreateFeedForwardNetwork(g *neat.Genome) (*FeedForwardNetwork, error) {
	if !g.Config.FeedForward {
		return nil, fmt.Errorf("cannot create FeedForwardNetwork for a genome configured with feed_forward=False")
	}

	var enabled []neat.ConnectionKey
	for key, c := range g.Connections {
		if c.Enabled {
			enabled = append(enabled, key)
		}
	}
	sort.Slice(enabled, func(i, j int) bool {
		if enabled[i].OutNodeID != enabled[j].OutNodeID {
			return enabled[i].OutNodeID < enabled[j].OutNodeID
		}
		return enabled[i].InNodeID < enabled[j].InNodeID
	})

	net := &FeedForwardNetwork{
		InputKeys:  g.Config.InputKeys,
		OutputKeys: g.Config.OutputKeys,
		values:     make(map[int]float64),
	}
	for _, key := range g.Config.InputKeys {
		net.values[key] = 0
	}
	for _, key := range g.Config.OutputKeys {
		net.values[key] = 0
	}

	for _, layer := range FeedForwardLayers(g.Config.InputKeys, g.Config.OutputKeys, enabled) {
		for _, key := range layer {
			node, ok := g.Nodes[key]
			if !ok {
				return nil, fmt.Errorf("connection references missing node %d", key)
			}
			activation, err := neat.GetActivation(node.Activation)
			if err != nil {
				return nil, fmt.Errorf("node %d: %w", key, err)
			}
			aggregation, err := neat.GetAggregation(node.Aggregation)
			if err != nil {
				return nil, fmt.Errorf("node %d: %w", key, err)
			}
			eval := nodeEval{
				key:         key,
				activation:  activation,
				aggregation: aggregation,
				bias:        node.Bias,
				response:    node.Response,
			}
			for _, ck := range enabled {
				if ck.OutNodeID == key {
					eval.links = append(eval.links, link{from: ck.InNodeID, weight: g.Connections[ck].Weight})
				}
			}
			net.evals = append(net.evals, eval)
			net.values[key] = 0
		}
	}
	return net, nil
}

// Activate feeds inputs through the network and returns the output values in
// OutputKeys order.
func (n *FeedForwardNetwork) Activate(inputs []float64) ([]float64, error) {
	if len(inputs) != len(n.InputKeys) {
		return nil, fmt.Errorf("expected %d inputs, got %d", len(n.InputKeys), len(inputs))
	}
	for i, key := range n.InputKeys {
		n.values[key] = inputs[i]
	}
	for _, e := range n.evals {
		n.inputs = n.inputs[:0]
		for _, l := range e.links {
			n.inputs = append(n.inputs, n.values[l.from]*l.weight)
		}
		n.values[e.key] = e.activation(e.bias + e.response*e.aggregation(n.inputs))
	}

	outputs := make([]float64, len(n.OutputKeys))
	for i, key := range n.OutputKeys {
		outputs[i] = n.values[key]
	}
	return outputs, nil
}

// RequiredForOutput returns the set of non-input nodes whose value can reach an output.
// Outputs are always required.
func RequiredForOutput(inputs, outputs []int, connections []neat.ConnectionKey) map[int]bool {
	isInput := make(map[int]bool, len(inputs))
	for _, key := range inputs {
		isInput[key] = true
	}
	required := make(map[int]bool)
	frontier := make(map[int]bool)
	for _, key := range outputs {
		required[key] = true
		frontier[key] = true
	}
	for {
		var layer []int
		for _, c := range connections {
			if frontier[c.OutNodeID] && !frontier[c.InNodeID] && !isInput[c.InNodeID] {
				layer = append(layer, c.InNodeID)
			}
		}
		if len(layer) == 0 {
			return required
		}
		for _, key := range layer {
			required[key] = true
			frontier[key] = true
		}
	}
}

// FeedForwardLayers groups the required nodes into layers that can be evaluated in
// order: every node's inputs lie in an earlier layer or are network inputs.
func FeedForwardLayers(inputs, outputs []int, connections []neat.ConnectionKey) [][]int {
	required := RequiredForOutput(inputs, outputs, connections)
	known := make(map[int]bool, len(inputs))
	for _, key := range inputs {
		known[key] = true
	}

	var layers [][]int
	for {
		candidates := make(map[int]bool)
		for _, c := range connections {
			if known[c.InNodeID] && !known[c.OutNodeID] && required[c.OutNodeID] {
				candidates[c.OutNodeID] = true
			}
		}
		var layer []int
		for key := range candidates {
			ready := true
			for _, c := range connections {
				if c.OutNodeID == key && !known[c.InNodeID] {
					ready = false
					break
				}
			}
			if ready {
				layer = append(layer, key)
			}
		}
		if len(layer) == 0 {
			return layers
		}
		sort.Ints(layer)
		for _, key := range layer {
			known[key] = true
		}
		layers = append(layers, layer)
	}
}
