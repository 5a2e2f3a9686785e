// Package viz styles the terminal output of the nrsur CLI with lipgloss.
//
// It renders titled key/value panels for evaluation summaries and small
// status lines; all plotting is left to external tools reading exported
// runs.
package viz
