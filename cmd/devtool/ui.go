package main

import "github.com/fatih/color"

var (
	infoColor    = color.New(color.FgBlue)
	successColor = color.New(color.FgGreen)
	warningColor = color.New(color.FgYellow, color.Bold)
	errorColor   = color.New(color.FgRed)
	headerColor  = color.New(color.FgYellow, color.Bold, color.Underline)
)

func PrintInfo(format string, a ...any) {
	infoColor.Printf("ℹ "+format+"\n", a...)
}

func PrintSuccess(format string, a ...any) {
	successColor.Printf("✓ "+format+"\n", a...)
}

func PrintWarning(format string, a ...any) {
	warningColor.Printf("⚠ "+format+"\n", a...)
}

func PrintError(format string, a ...any) {
	errorColor.Fprintf(color.Error, "✗ "+format+"\n", a...)
}

func PrintHeader(title string) {
	headerColor.Printf("\n%s\n", title)
}
