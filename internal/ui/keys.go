package ui

import tea "github.com/charmbracelet/bubbletea"

func isQuit(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return true
	}
	return false
}

func helpText(hasQueue, exporting bool) string {
	s := "space pause  ←/→ seek  +/- volume  v style"
	if hasQueue {
		s += "  n/p track"
	}
	if exporting {
		s += "  e cancel export"
	} else {
		s += "  e export"
	}
	s += "  q quit"
	return s
}
