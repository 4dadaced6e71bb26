// Package neat provides a Go implementation of the NeuroEvolution of Augmenting Topologies (NEAT) algorithm.
//
// NEAT is a genetic algorithm for the generation of evolving artificial neural networks.
// It alters both the weighting parameters and structures of networks, attempting to find
// a balance between the fitness of evolved solutions and their diversity.
//
// This implementation follows the original paper by Kenneth O. Stanley and Risto Miikkulainen
// and reads neat-python configuration files (https://github.com/CodeReclaimers/neat-python).
//
// Basic usage:
//
//	config, err := neat.LoadConfig("configs/flappy-config")
//	if err != nil {
//		log.Fatalf("Error loading config: %v", err)
//	}
//
//	pop, err := neat.NewPopulation(config)
//	if err != nil {
//		log.Fatalf("Error creating population: %v", err)
//	}
//	pop.AddReporter(neat.NewStdOutReporter(os.Stdout, true))
//
//	// Evaluate at most 50 generations; evalGenomes sets every genome's Fitness.
//	winner, err := pop.Run(ctx, evalGenomes, 50)
//	if err != nil {
//		log.Fatalf("Error running generation: %v", err)
//	}
//	if winner != nil {
//		fmt.Println("Solution found!")
//	}
package neat
