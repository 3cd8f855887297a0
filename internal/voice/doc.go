// Package voice holds the voice roster and the reservation registry that lets
// concurrent shell sessions claim distinct voices.
package voice
