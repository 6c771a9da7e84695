// Package tui provides the terminal output layer for g.
//
// It handles:
//   - Structured logging and status reporting (Splog)
//   - Terminal styling and colors (using lipgloss)
//   - Yes/no confirmation (using survey)
package tui
