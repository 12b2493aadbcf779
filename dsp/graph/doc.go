// Package graph builds and owns the mixer's processing graph.
//
// Live topology ([RealtimeContext]):
//
//	         ┌→ [dry gain] ─────────────────────────────────┐
//	source ──┤                                              + → [EQ low → mid → high] → output
//	         └→ [crossover] → [compressor bank] → [wet gain] ┘            ↓
//	                                                            spectrum / spectrogram taps
//
// Offline topology ([OfflineContext]) has the same nodes, but only one of
// the dry and wet paths is connected and no gain nodes switch between them.
//
// [Build] is the single construction routine for both contexts.
package graph
