// Package gateway wires the relay core together for one proxy instance and
// owns component lifecycle: store, bus, cache, filter, presence, router and
// the health HTTP endpoint.
package gateway
