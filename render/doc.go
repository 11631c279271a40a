// Package render draws challenge text into an SVG document.
//
// Glyphs are converted to outline paths so the text is not present as
// selectable characters, and every outline point is jittered slightly.
// Decorative noise (curves, circles and tiny characters) is layered on top.
//
// The package knows nothing about tokens or expressions: it takes canonical
// text and [Options] and returns markup.
package render
