// Package memory provides in-process collaborators for the presence engine:
// a batching mutation Observer, simulated Animators and a channel Publisher.
package memory
