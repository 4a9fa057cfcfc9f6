// Package metrics records build observations. The Prometheus recorder can be
// exported as a node-exporter textfile after a build.
package metrics
