// Package enum defines the enumerated types used across the application.
// Exported types and their methods are generated by go-pkgz/enum from the
// lower-case declarations below.
package enum

//go:generate go run github.com/go-pkgz/enum@latest -type theme -lower
type theme int

const (
	themeSystem theme = iota // enum:alias=
	themeLight
	themeDark
)

//go:generate go run github.com/go-pkgz/enum@latest -type backend -lower
type backend int

const (
	backendCookie backend = iota // enum:alias=
	backendDB                    // enum:alias=sql,database
)
