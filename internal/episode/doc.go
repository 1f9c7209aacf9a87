// Package episode models three-digit episode numbers (season * 100 + episode)
// and the season catalog that decides which numbers are published.
package episode
