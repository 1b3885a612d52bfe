package enum

// Toggle returns the opposite theme (dark↔light). System defaults to dark.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// IsDark reports whether the theme is the dark one. System is not dark, it
// has to be resolved against a preference signal first.
func (t Theme) IsDark() bool { return t == ThemeDark }

// ThemeOf maps a dark/light flag to a concrete theme.
func ThemeOf(dark bool) Theme {
	if dark {
		return ThemeDark
	}
	return ThemeLight
}

// Attribute returns the document root attribute value for the theme,
// "theme-dark" or "theme-light". System resolves to light.
func (t Theme) Attribute() string {
	if t == ThemeDark {
		return "theme-dark"
	}
	return "theme-light"
}
