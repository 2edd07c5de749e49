// Package metrics holds [dynamo.Metric] observers for geodesic runs.
package metrics
