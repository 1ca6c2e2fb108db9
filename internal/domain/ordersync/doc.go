// Package ordersync contains the domain model for pushing commerce orders
// to an external ERP system: the sync record state machine, the outbound
// client and response contracts, idempotency key derivation, and the
// repository interfaces the infrastructure layer implements.
package ordersync
