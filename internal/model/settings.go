package model

// AppSettings holds institution configuration and the admin roster.
type AppSettings struct {
	InstitutionName string  `json:"institution_name"`
	InstitutionLogo string  `json:"institution_logo,omitempty"`
	Theme           string  `json:"theme"`
	Admins          []Admin `json:"admins"`
}

// Themes.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// DefaultInstitutionName is used until the institution is renamed.
const DefaultInstitutionName = "Polícia Militar"

// ValidTheme reports whether theme is a known theme.
func ValidTheme(theme string) bool {
	return theme == ThemeLight || theme == ThemeDark
}

// Dataset is the full persisted state: the five named records.
type Dataset struct {
	Materials []Material  `json:"materials"`
	Personnel []Personnel `json:"personnel"`
	Cautelas  []Cautela   `json:"cautelas"`
	Logs      []SystemLog `json:"logs"`
	Settings  AppSettings `json:"settings"`
}
