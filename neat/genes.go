package neat

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
)

// NodeGene represents a node (neuron) in the genome. Input nodes are implicit and never
// carry a gene; output nodes use keys 0..num_outputs-1 and hidden nodes follow.
type NodeGene struct {
	Key         int
	Bias        float64
	Response    float64
	Activation  string
	Aggregation string
}

// NewNodeGene creates a node gene with attributes drawn from the config.
func NewNodeGene(key int, config *GenomeConfig) *NodeGene {
	return &NodeGene{
		Key:         key,
		Bias:        config.bias().init(),
		Response:    config.response().init(),
		Activation:  initChoice(config.ActivationDefault, config.ActivationOptions),
		Aggregation: initChoice(config.AggregationDefault, config.AggregationOptions),
	}
}

func (ng *NodeGene) String() string {
	return fmt.Sprintf("NodeGene(key=%d, bias=%.3f, response=%.3f, activation=%s, aggregation=%s)",
		ng.Key, ng.Bias, ng.Response, ng.Activation, ng.Aggregation)
}

// Copy returns an independent copy of the gene.
func (ng *NodeGene) Copy() *NodeGene {
	c := *ng
	return &c
}

// Mutate perturbs, replaces or keeps each attribute according to the config rates.
func (ng *NodeGene) Mutate(config *GenomeConfig) {
	ng.Bias = config.bias().mutate(ng.Bias)
	ng.Response = config.response().mutate(ng.Response)
	ng.Activation = mutateChoice(ng.Activation, config.ActivationMutateRate, config.ActivationOptions)
	ng.Aggregation = mutateChoice(ng.Aggregation, config.AggregationMutateRate, config.AggregationOptions)
}

// Distance is the weighted attribute difference between two homologous nodes.
func (ng *NodeGene) Distance(other *NodeGene, config *GenomeConfig) float64 {
	d := math.Abs(ng.Bias-other.Bias) + math.Abs(ng.Response-other.Response)
	if ng.Activation != other.Activation {
		d++
	}
	if ng.Aggregation != other.Aggregation {
		d++
	}
	return d * config.CompatibilityWeightCoefficient
}

// Crossover inherits every attribute from one of the two parents at random.
func (ng *NodeGene) Crossover(other *NodeGene) *NodeGene {
	child := ng.Copy()
	if rand.Float64() > 0.5 {
		child.Bias = other.Bias
	}
	if rand.Float64() > 0.5 {
		child.Response = other.Response
	}
	if rand.Float64() > 0.5 {
		child.Activation = other.Activation
	}
	if rand.Float64() > 0.5 {
		child.Aggregation = other.Aggregation
	}
	return child
}

// ConnectionKey identifies a connection gene by its endpoints.
type ConnectionKey struct {
	InNodeID  int
	OutNodeID int
}

func (k ConnectionKey) String() string {
	return fmt.Sprintf("%d->%d", k.InNodeID, k.OutNodeID)
}

// ConnectionGene represents a weighted link between two nodes.
type ConnectionGene struct {
	Key     ConnectionKey
	Weight  float64
	Enabled bool
}

// NewConnectionGene creates a connection gene with attributes drawn from the config.
func NewConnectionGene(key ConnectionKey, config *GenomeConfig) *ConnectionGene {
	return &ConnectionGene{
		Key:     key,
		Weight:  config.weight().init(),
		Enabled: initBool(config.EnabledDefault),
	}
}

func (cg *ConnectionGene) String() string {
	return fmt.Sprintf("ConnectionGene(key=%s, weight=%.3f, enabled=%t)", cg.Key, cg.Weight, cg.Enabled)
}

// Copy returns an independent copy of the gene.
func (cg *ConnectionGene) Copy() *ConnectionGene {
	c := *cg
	return &c
}

// Mutate perturbs the weight and may toggle the enabled flag. In feed-forward
// genomes a disabled connection is never re-enabled if that would close a cycle.
func (cg *ConnectionGene) Mutate(genome *Genome, config *GenomeConfig) {
	cg.Weight = config.weight().mutate(cg.Weight)

	rate := config.EnabledMutateRate
	if cg.Enabled {
		rate += config.EnabledRateToFalseAdd
	} else {
		rate += config.EnabledRateToTrueAdd
	}
	if rate <= 0 || rand.Float64() >= rate {
		return
	}
	enabled := rand.Float64() < 0.5
	if enabled && !cg.Enabled && config.FeedForward && genome.createsCycle(cg.Key) {
		return
	}
	cg.Enabled = enabled
}

// Distance is the weighted attribute difference between two homologous connections.
func (cg *ConnectionGene) Distance(other *ConnectionGene, config *GenomeConfig) float64 {
	d := math.Abs(cg.Weight - other.Weight)
	if cg.Enabled != other.Enabled {
		d++
	}
	return d * config.CompatibilityWeightCoefficient
}

// Crossover inherits every attribute from one of the two parents at random.
func (cg *ConnectionGene) Crossover(other *ConnectionGene) *ConnectionGene {
	child := cg.Copy()
	if rand.Float64() > 0.5 {
		child.Weight = other.Weight
	}
	if rand.Float64() > 0.5 {
		child.Enabled = other.Enabled
	}
	return child
}

// floatAttribute bundles the config knobs of one float gene attribute.
type floatAttribute struct {
	mean, stdev           float64
	initType              string
	replaceRate           float64
	mutateRate, mutatePow float64
	minValue, maxValue    float64
}

func (gc *GenomeConfig) bias() floatAttribute {
	return floatAttribute{gc.BiasInitMean, gc.BiasInitStdev, gc.BiasInitType, gc.BiasReplaceRate,
		gc.BiasMutateRate, gc.BiasMutatePower, gc.BiasMinValue, gc.BiasMaxValue}
}

func (gc *GenomeConfig) response() floatAttribute {
	return floatAttribute{gc.ResponseInitMean, gc.ResponseInitStdev, gc.ResponseInitType, gc.ResponseReplaceRate,
		gc.ResponseMutateRate, gc.ResponseMutatePower, gc.ResponseMinValue, gc.ResponseMaxValue}
}

func (gc *GenomeConfig) weight() floatAttribute {
	return floatAttribute{gc.WeightInitMean, gc.WeightInitStdev, gc.WeightInitType, gc.WeightReplaceRate,
		gc.WeightMutateRate, gc.WeightMutatePower, gc.WeightMinValue, gc.WeightMaxValue}
}

func (a floatAttribute) init() float64 {
	if strings.EqualFold(a.initType, "uniform") {
		lo := math.Max(a.minValue, a.mean-2*a.stdev)
		hi := math.Min(a.maxValue, a.mean+2*a.stdev)
		if hi < lo {
			hi = lo
		}
		return lo + rand.Float64()*(hi-lo)
	}
	return clamp(a.mean+rand.NormFloat64()*a.stdev, a.minValue, a.maxValue)
}

func (a floatAttribute) mutate(value float64) float64 {
	r := rand.Float64()
	switch {
	case r < a.mutateRate:
		return clamp(value+rand.NormFloat64()*a.mutatePow, a.minValue, a.maxValue)
	case r < a.mutateRate+a.replaceRate:
		return a.init()
	}
	return value
}

// initBool parses enabled_default; "random" and "none" pick a side at random.
func initBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on":
		return true
	case "random", "none":
		return rand.Float64() < 0.5
	}
	return false
}

// initChoice returns def, or a random option when def is "random", "none" or unknown.
func initChoice(def string, options []string) string {
	if len(options) == 0 {
		return def
	}
	for _, opt := range options {
		if opt == def {
			return def
		}
	}
	return options[rand.Intn(len(options))]
}

func mutateChoice(value string, rate float64, options []string) string {
	if rate > 0 && len(options) > 0 && rand.Float64() < rate {
		return options[rand.Intn(len(options))]
	}
	return value
}
