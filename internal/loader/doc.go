// Package loader writes pipeline output to the sinks.
//
// Loaders:
//   - KVLoader writes aggregates to the key-value store in fixed-size batches
//   - OrderLoader upserts observed orders and prunes rows past retention
//
// Batches are independent: a failed batch aborts the load but batches already
// written stay written.
package loader
