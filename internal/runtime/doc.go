// Package runtime provides the execution context for g commands.
//
// It encapsulates shared dependencies needed by commands, such as the loaded
// configuration, the logger and the process runner.
package runtime
