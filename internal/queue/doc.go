// Package queue persists pending utterances in priority order so that
// independent CLI processes can hand work to whichever process is playing.
package queue
