package cli

import "github.com/charmbracelet/lipgloss"

var (
	// PrimaryColor is the dashboard accent.
	PrimaryColor = lipgloss.Color("#3B6EF5")
	// SuccessColor indicates successful operations.
	SuccessColor = lipgloss.Color("#17A589")
	// WarningColor indicates warnings.
	WarningColor = lipgloss.Color("#F5B041")
	// SubtleColor is used for secondary text.
	SubtleColor = lipgloss.Color("#6B7185")

	// TitleStyle is used for the report title.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor)

	// SubtitleStyle is used for section headings.
	SubtitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(SubtleColor).
			MarginTop(1)

	// SuccessStyle formats success messages.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	// WarningStyle formats warnings.
	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	// BoxStyle frames the headline numbers.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(SubtleColor).
			Padding(0, 2)

	// HeaderStyle is used for table headers.
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor)

	// BarStyle colors inline bars.
	BarStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)
)

// Icons.
const (
	SuccessIcon = "✓"
	WarningIcon = "!"
)

// FormatSuccess formats a success message with icon.
func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

// FormatWarning formats a warning message with icon.
func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}
