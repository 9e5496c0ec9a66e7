/*
Package kaffe implements a synchronous, partition-aware producer on top of
pluggable broker clients.

Kaffe routes keyed messages to partitions using a partitioner.Strategy,
groups them into per-partition batches that preserve input order using a
batch.Batcher, and submits every batch synchronously through a Client,
stopping at the first failure. Connect a producer.Producer to a Client
implementation (client/libkafka or client/kafkago) and call one of the
produce methods. See cmd/producer for example implementation.
*/
package kaffe
