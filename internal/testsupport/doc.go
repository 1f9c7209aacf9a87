// Package testsupport holds helpers shared by package tests: a config builder
// backed by temp directories, stub executables on PATH, file helpers, and a
// ledger opener with cleanup.
package testsupport
