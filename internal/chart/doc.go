// Package chart turns an OHLCV sample sequence into candlestick chart geometry and
// tracks the pointer and zoom/pan interaction on top of it.
//
// The pipeline is pure: NewSequence parses feed records, BuildScales derives the
// price, volume and band scales, MovingAverage derives the overlay and Layout emits
// a declarative Geometry. Interaction never recomputes scales: HitTest resolves a
// pointer against the geometry through the current Transform, and a Viewport folds
// gestures into that Transform.
//
// Engine bundles the pieces for a single interactive surface. It is owned by one
// goroutine; each Render replaces the previous output entirely.
package chart
