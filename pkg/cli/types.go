/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package cli

import (
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Dracula theme colors.
const (
	draculaCyan    = "#8BE9FD"
	draculaGreen   = "#50FA7B"
	draculaYellow  = "#F1FA8C"
	draculaRed     = "#FF5555"
	draculaPurple  = "#BD93F9"
	draculaComment = "#6272A4"
)

// CmdConfig holds the parsed command line.
type CmdConfig struct {
	ConfigFile string
	Verbose    bool
	SubCmd     string
	Args       []string

	// run
	Once bool

	// test-ble
	BLEAction string
	Address   string
	Duration  time.Duration
	Timeout   time.Duration

	// write-example-config
	OutFile string
}

// logStyles defines styles for status messages.
type logStyles struct {
	info, success, warning, error, title, hint lipgloss.Style
}

func newLogStyles() logStyles {
	return logStyles{
		info: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaCyan)),
		success: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaGreen)),
		warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaYellow)),
		error: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaRed)).
			Bold(true),
		title: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaPurple)).
			Bold(true),
		hint: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaComment)),
	}
}
