// Package nn turns genomes into runnable neural networks.
//
// A FeedForwardNetwork's Activate method matches course.Controller, so a network can
// drive an agent directly.
package nn
