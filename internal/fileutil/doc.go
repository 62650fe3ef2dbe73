// Package fileutil provides streaming file helpers that honour context cancellation.
package fileutil
