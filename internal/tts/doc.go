// Package tts implements the speech synthesis providers: OpenAI and
// ElevenLabs over HTTP, and Piper as a local subprocess.
package tts
