// Package service orchestrates the matching core and its durability
// collaborators — entry journal, exit outbox, snapshot persistence, and
// memory reclamation — behind one write entry point, decoupled from
// network transports like gRPC and Kafka.
package service
