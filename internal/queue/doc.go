// Package queue provides the bounded audio frame queue that connects the
// synthesis producer to the playback consumer. It applies backpressure when
// full and signals end-of-stream exactly once through Close.
package queue
