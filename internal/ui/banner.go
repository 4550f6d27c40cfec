package ui

import (
	"fmt"

	"github.com/fatih/color"
)

// Version is printed in the banner.
const Version = "v0.3.0"

// PrintBanner displays the startup banner.
func PrintBanner() {
	cyan := color.New(color.FgCyan, color.Bold)
	magenta := color.New(color.FgMagenta, color.Bold)
	yellow := color.New(color.FgYellow, color.Bold)
	white := color.New(color.FgWhite)
	dim := color.New(color.FgHiBlack)

	fmt.Fprintln(color.Output)
	cyan.Println("╔══════════════════════════════════════════════════════╗")

	cyan.Print("║  ")
	magenta.Print("HPN SAMPLER")
	dim.Print("  │  ")
	yellow.Print("cohere + gemini")
	dim.Print("  │  ")
	white.Print(Version)
	dim.Print("          ")
	cyan.Println("║")

	cyan.Println("╚══════════════════════════════════════════════════════╝")
	fmt.Fprintln(color.Output)
}
