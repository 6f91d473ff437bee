package banner

import (
	"github.com/charmbracelet/lipgloss"
)

func GetString() string {
	renderer := lipgloss.DefaultRenderer()

	style := renderer.NewStyle().
		Foreground(lipgloss.Color("#7D56F4")).
		Bold(true)

	ascii := `
  ___   ____   ____   _____  ____   _       ___      _     ____
 / _ \ |  _ \ |  _ \ | ____||  _ \ | |     / _ \    / \   |  _ \
| | | || |_) || | | ||  _|  | |_) || |    | | | |  / _ \  | | | |
| |_| ||  _ < | |_| || |___ |  _ < | |___ | |_| | / ___ \ | |_| |
 \___/ |_| \_\|____/ |_____||_| \_\|_____| \___/ /_/   \_\|____/ `

	return "\n" + style.Render(ascii) + "\n"
}
