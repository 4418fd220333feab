// Package queue provides the byte queues used by serial drivers.
//
// Every queue has an interrupt side and a task side. Interrupt-side
// methods (InputQueue.Put, OutputQueue.Get, HalfDuplexQueue.PutReceive,
// HalfDuplexQueue.GetTransmit) never block and never take a lock a task
// may hold for long. Task-side methods may be called from any number of
// goroutines; they serialize among themselves.
//
// Buffers are supplied by the caller and used in place.
package queue
