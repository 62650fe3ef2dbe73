// Package testsupport holds helpers shared by package tests: a config builder
// backed by temp directories and shell stubs that stand in for ffmpeg and
// ffprobe so real process invocation is exercised.
package testsupport
