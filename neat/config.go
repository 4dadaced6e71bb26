package neat

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

// Config stores the configuration parameters for the NEAT algorithm.
// The file layout follows neat-python, so existing config-feedforward files load as-is.
type Config struct {
	Neat         NeatConfig
	Genome       GenomeConfig
	Reproduction ReproductionConfig
	SpeciesSet   SpeciesSetConfig
	Stagnation   StagnationConfig
}

// NeatConfig holds parameters specific to the NEAT algorithm itself.
type NeatConfig struct {
	PopSize              int     `ini:"pop_size"`
	FitnessCriterion     string  `ini:"fitness_criterion"` // "max", "min" or "mean"
	FitnessThreshold     float64 `ini:"fitness_threshold"`
	ResetOnExtinction    bool    `ini:"reset_on_extinction"`
	NoFitnessTermination bool    `ini:"no_fitness_termination"`
}

// GenomeConfig holds parameters specific to the structure and mutation of genomes.
type GenomeConfig struct {
	NumInputs                        int     `ini:"num_inputs"`
	NumOutputs                       int     `ini:"num_outputs"`
	NumHidden                        int     `ini:"num_hidden"`
	FeedForward                      bool    `ini:"feed_forward"`
	CompatibilityDisjointCoefficient float64 `ini:"compatibility_disjoint_coefficient"`
	CompatibilityWeightCoefficient   float64 `ini:"compatibility_weight_coefficient"`
	ConnAddProb                      float64 `ini:"conn_add_prob"`
	ConnDeleteProb                   float64 `ini:"conn_delete_prob"`
	NodeAddProb                      float64 `ini:"node_add_prob"`
	NodeDeleteProb                   float64 `ini:"node_delete_prob"`
	SingleStructuralMutation         bool    `ini:"single_structural_mutation"`
	StructuralMutationSurer          string  `ini:"structural_mutation_surer"` // "default", "true" or "false"
	InitialConnection                string  `ini:"initial_connection"`        // e.g. "full_direct" or "partial_nodirect 0.5"

	BiasInitMean    float64 `ini:"bias_init_mean"`
	BiasInitStdev   float64 `ini:"bias_init_stdev"`
	BiasInitType    string  `ini:"bias_init_type"`
	BiasReplaceRate float64 `ini:"bias_replace_rate"`
	BiasMutateRate  float64 `ini:"bias_mutate_rate"`
	BiasMutatePower float64 `ini:"bias_mutate_power"`
	BiasMaxValue    float64 `ini:"bias_max_value"`
	BiasMinValue    float64 `ini:"bias_min_value"`

	ResponseInitMean    float64 `ini:"response_init_mean"`
	ResponseInitStdev   float64 `ini:"response_init_stdev"`
	ResponseInitType    string  `ini:"response_init_type"`
	ResponseReplaceRate float64 `ini:"response_replace_rate"`
	ResponseMutateRate  float64 `ini:"response_mutate_rate"`
	ResponseMutatePower float64 `ini:"response_mutate_power"`
	ResponseMaxValue    float64 `ini:"response_max_value"`
	ResponseMinValue    float64 `ini:"response_min_value"`

	ActivationDefault    string   `ini:"activation_default"`
	ActivationOptions    []string `ini:"activation_options" delim:" "`
	ActivationMutateRate float64  `ini:"activation_mutate_rate"`

	AggregationDefault    string   `ini:"aggregation_default"`
	AggregationOptions    []string `ini:"aggregation_options" delim:" "`
	AggregationMutateRate float64  `ini:"aggregation_mutate_rate"`

	WeightInitMean    float64 `ini:"weight_init_mean"`
	WeightInitStdev   float64 `ini:"weight_init_stdev"`
	WeightInitType    string  `ini:"weight_init_type"`
	WeightReplaceRate float64 `ini:"weight_replace_rate"`
	WeightMutateRate  float64 `ini:"weight_mutate_rate"`
	WeightMutatePower float64 `ini:"weight_mutate_power"`
	WeightMaxValue    float64 `ini:"weight_max_value"`
	WeightMinValue    float64 `ini:"weight_min_value"`

	EnabledDefault        string  `ini:"enabled_default"`
	EnabledMutateRate     float64 `ini:"enabled_mutate_rate"`
	EnabledRateToTrueAdd  float64 `ini:"enabled_rate_to_true_add"`
	EnabledRateToFalseAdd float64 `ini:"enabled_rate_to_false_add"`

	// Derived after loading.
	InputKeys          []int
	OutputKeys         []int
	ConnectionType     string  // InitialConnection without its fraction.
	ConnectionFraction float64 // Fraction for the partial_* connection types.
	NodeKeyIndex       int     // Next key handed out for a hidden node.
}

// ReproductionConfig holds parameters related to reproduction.
type ReproductionConfig struct {
	Elitism           int     `ini:"elitism"`
	SurvivalThreshold float64 `ini:"survival_threshold"`
	MinSpeciesSize    int     `ini:"min_species_size"`
}

// SpeciesSetConfig holds parameters related to speciation.
type SpeciesSetConfig struct {
	CompatibilityThreshold float64 `ini:"compatibility_threshold"`
}

// StagnationConfig holds parameters related to species stagnation.
type StagnationConfig struct {
	SpeciesFitnessFunc string `ini:"species_fitness_func"`
	MaxStagnation      int    `ini:"max_stagnation"`
	SpeciesElitism     int    `ini:"species_elitism"`
}

// defaultConfig holds the implicit neat-python defaults. Keys present in the file override them.
func defaultConfig() *Config {
	return &Config{
		Neat: NeatConfig{FitnessCriterion: "max"},
		Genome: GenomeConfig{
			FeedForward:             true,
			StructuralMutationSurer: "default",
			InitialConnection:       "unconnected",
			BiasInitType:            "gaussian",
			ResponseInitType:        "gaussian",
			ActivationDefault:       "random",
			AggregationDefault:      "random",
			WeightInitType:          "gaussian",
			EnabledDefault:          "True",
		},
		Reproduction: ReproductionConfig{SurvivalThreshold: 0.2, MinSpeciesSize: 1},
		Stagnation:   StagnationConfig{SpeciesFitnessFunc: "mean", MaxStagnation: 15},
	}
}

// LoadConfig loads configuration parameters from an INI file.
func LoadConfig(filePath string) (*Config, error) {
	file, err := ini.Load(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file '%s': %w", filePath, err)
	}

	config := defaultConfig()
	sections := []struct {
		name   string
		target interface{}
	}{
		{"NEAT", &config.Neat},
		{"DefaultGenome", &config.Genome},
		{"DefaultReproduction", &config.Reproduction},
		{"DefaultSpeciesSet", &config.SpeciesSet},
		{"DefaultStagnation", &config.Stagnation},
	}
	for _, s := range sections {
		if !file.HasSection(s.name) {
			return nil, fmt.Errorf("config error: missing [%s] section", s.name)
		}
		if err := file.Section(s.name).MapTo(s.target); err != nil {
			return nil, fmt.Errorf("failed to map [%s] section: %w", s.name, err)
		}
	}

	if err := config.finalize(); err != nil {
		return nil, err
	}
	return config, nil
}

// finalize derives the computed fields and validates the loaded values.
func (c *Config) finalize() error {
	g := &c.Genome
	c.Neat.FitnessCriterion = strings.ToLower(strings.TrimSpace(c.Neat.FitnessCriterion))
	c.Stagnation.SpeciesFitnessFunc = strings.ToLower(strings.TrimSpace(c.Stagnation.SpeciesFitnessFunc))
	g.StructuralMutationSurer = strings.ToLower(strings.TrimSpace(g.StructuralMutationSurer))
	for i, opt := range g.ActivationOptions {
		g.ActivationOptions[i] = strings.TrimSpace(opt)
	}
	for i, opt := range g.AggregationOptions {
		g.AggregationOptions[i] = strings.TrimSpace(opt)
	}

	if g.NumInputs <= 0 {
		return fmt.Errorf("config error: num_inputs must be positive")
	}
	if g.NumOutputs <= 0 {
		return fmt.Errorf("config error: num_outputs must be positive")
	}
	if g.NumHidden < 0 {
		return fmt.Errorf("config error: num_hidden cannot be negative")
	}
	if c.Neat.PopSize <= 0 {
		return fmt.Errorf("config error: pop_size must be positive")
	}

	g.InputKeys = make([]int, g.NumInputs)
	for i := range g.InputKeys {
		g.InputKeys[i] = -(i + 1)
	}
	g.OutputKeys = make([]int, g.NumOutputs)
	for i := range g.OutputKeys {
		g.OutputKeys[i] = i
	}
	g.NodeKeyIndex = g.NumOutputs

	if len(g.ActivationOptions) == 0 {
		return fmt.Errorf("config error: activation_options must be specified")
	}
	for _, name := range g.ActivationOptions {
		if _, err := GetActivation(name); err != nil {
			return fmt.Errorf("config error: %w", err)
		}
	}
	if len(g.AggregationOptions) == 0 {
		return fmt.Errorf("config error: aggregation_options must be specified")
	}
	for _, name := range g.AggregationOptions {
		if _, err := GetAggregation(name); err != nil {
			return fmt.Errorf("config error: %w", err)
		}
	}

	probabilities := map[string]float64{
		"conn_add_prob":    g.ConnAddProb,
		"conn_delete_prob": g.ConnDeleteProb,
		"node_add_prob":    g.NodeAddProb,
		"node_delete_prob": g.NodeDeleteProb,
	}
	for name, p := range probabilities {
		if p < 0 || p > 1 {
			return fmt.Errorf("config error: %s must be between 0 and 1", name)
		}
	}
	if g.CompatibilityDisjointCoefficient < 0 || g.CompatibilityWeightCoefficient < 0 {
		return fmt.Errorf("config error: compatibility coefficients cannot be negative")
	}
	if g.BiasMaxValue < g.BiasMinValue {
		return fmt.Errorf("config error: bias_max_value cannot be less than bias_min_value")
	}
	if g.ResponseMaxValue < g.ResponseMinValue {
		return fmt.Errorf("config error: response_max_value cannot be less than response_min_value")
	}
	if g.WeightMaxValue < g.WeightMinValue {
		return fmt.Errorf("config error: weight_max_value cannot be less than weight_min_value")
	}
	switch g.StructuralMutationSurer {
	case "default", "true", "false", "1", "0", "yes", "no", "on", "off":
	default:
		return fmt.Errorf("config error: invalid structural_mutation_surer '%s'", g.StructuralMutationSurer)
	}

	if err := g.parseInitialConnection(); err != nil {
		return err
	}

	if c.Reproduction.SurvivalThreshold < 0 || c.Reproduction.SurvivalThreshold > 1 {
		return fmt.Errorf("config error: survival_threshold must be between 0 and 1")
	}
	if c.Reproduction.MinSpeciesSize <= 0 {
		return fmt.Errorf("config error: min_species_size must be positive")
	}
	if c.SpeciesSet.CompatibilityThreshold < 0 {
		return fmt.Errorf("config error: compatibility_threshold cannot be negative")
	}
	if c.Stagnation.MaxStagnation <= 0 {
		return fmt.Errorf("config error: max_stagnation must be positive")
	}
	if _, ok := StatFunctions[c.Stagnation.SpeciesFitnessFunc]; !ok {
		return fmt.Errorf("config error: invalid species_fitness_func '%s'", c.Stagnation.SpeciesFitnessFunc)
	}
	switch c.Neat.FitnessCriterion {
	case "max", "min", "mean":
	default:
		return fmt.Errorf("config error: invalid fitness_criterion '%s', must be one of 'max', 'min', 'mean'", c.Neat.FitnessCriterion)
	}
	return nil
}

// parseInitialConnection splits "partial_direct 0.5" into type and fraction.
func (gc *GenomeConfig) parseInitialConnection() error {
	fields := strings.Fields(gc.InitialConnection)
	if len(fields) == 0 {
		return fmt.Errorf("config error: initial_connection must be specified")
	}
	gc.ConnectionType = fields[0]
	gc.ConnectionFraction = 1.0

	switch gc.ConnectionType {
	case "unconnected", "fs_neat", "fs_neat_nohidden", "fs_neat_hidden",
		"full", "full_nodirect", "full_direct":
		if len(fields) != 1 {
			return fmt.Errorf("config error: initial_connection '%s' takes no argument", gc.ConnectionType)
		}
	case "partial", "partial_nodirect", "partial_direct":
		if len(fields) != 2 {
			return fmt.Errorf("config error: initial_connection '%s' needs a connection fraction", gc.ConnectionType)
		}
		fraction, err := strconv.ParseFloat(fields[1], 64)
		if err != nil || fraction < 0 || fraction > 1 {
			return fmt.Errorf("config error: invalid connection fraction '%s' for '%s'", fields[1], gc.ConnectionType)
		}
		gc.ConnectionFraction = fraction
	default:
		return fmt.Errorf("config error: invalid initial_connection type '%s'", gc.ConnectionType)
	}
	return nil
}

// GetNewNodeKey hands out the next unused hidden node key.
func (gc *GenomeConfig) GetNewNodeKey() int {
	key := gc.NodeKeyIndex
	gc.NodeKeyIndex++
	return key
}

// structuralMutationSurer reports whether failed structural mutations should fall back
// to the closest possible change (adding a connection instead of splitting none, and so on).
func (gc *GenomeConfig) structuralMutationSurer() bool {
	switch gc.StructuralMutationSurer {
	case "true", "1", "yes", "on":
		return true
	case "default":
		return gc.SingleStructuralMutation
	}
	return false
}
