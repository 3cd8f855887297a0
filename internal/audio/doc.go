// Package audio plays synthesized speech. Encoded audio is decoded to PCM
// with ffmpeg and played through a single process-wide oto context.
package audio
