// Package segment normalizes extracted script text and splits multi-episode
// documents into one chunk per episode.
package segment
