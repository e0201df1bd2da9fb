// Package segment turns raw clipboard text into an ordered series of
// bounded chunks suitable for streaming synthesis. It strips lightweight
// markup, aggregates short lines, and splits oversized lines at sentence
// boundaries.
package segment
